package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Outbound email configuration
	Mail MailConfig

	// Attachment object storage configuration
	Storage StorageConfig

	// Authentication configuration
	Auth AuthConfig

	// Logging configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port       string
	CORSOrigin string // single allowed browser origin
	RoutesFile string // optional YAML route table override
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// MailConfig holds SendGrid configuration
type MailConfig struct {
	APIKey     string // must start with "SG."
	TemplateID string // dynamic template for the welcome email
	FromEmail  string
	FromName   string
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Backend        string // "s3" or "local"
	Bucket         string
	Region         string
	LocalDir       string // root directory for the local backend
	AttachmentPath string // object key of the welcome attachment
}

// AuthConfig holds identity provider configuration
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
			RoutesFile: os.Getenv("ROUTES_FILE"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "myhealth.sqlite"),
		},
		Mail: MailConfig{
			APIKey:     os.Getenv("SENDGRID_API_KEY"),
			TemplateID: getEnv("SENDGRID_TEMPLATE_ID", "d-4332e1e212764dc0a452f17104cbc9eb"),
			FromEmail:  getEnv("MAIL_FROM_EMAIL", "evelyntsai0917@gmail.com"),
			FromName:   getEnv("MAIL_FROM_NAME", "Myhealth Team"),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			Bucket:         os.Getenv("STORAGE_BUCKET"),
			Region:         getEnv("STORAGE_REGION", "ap-southeast-2"),
			LocalDir:       getEnv("STORAGE_DIR", "storage"),
			AttachmentPath: getEnv("WELCOME_ATTACHMENT_PATH", "emails/welcome.pdf"),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Storage.Backend == "s3" && cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET is required when STORAGE_BACKEND=s3")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
