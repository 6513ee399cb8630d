package config

import "testing"

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://localhost:5173" {
		t.Errorf("cors origin = %q", cfg.Server.CORSOrigin)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("storage backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.AttachmentPath != "emails/welcome.pdf" {
		t.Errorf("attachment path = %q", cfg.Storage.AttachmentPath)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_BUCKET", "myhealth-assets")
	t.Setenv("SENDGRID_API_KEY", "SG.key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "https://app.example.com" {
		t.Errorf("cors origin = %q", cfg.Server.CORSOrigin)
	}
	if cfg.Storage.Bucket != "myhealth-assets" {
		t.Errorf("bucket = %q", cfg.Storage.Bucket)
	}
	if cfg.Mail.APIKey != "SG.key" {
		t.Errorf("api key = %q", cfg.Mail.APIKey)
	}
}

func TestLoadS3RequiresBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for s3 backend without bucket")
	}
}
