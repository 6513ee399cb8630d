package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"SG.abc123", true},
		{"sg.abc123", false},
		{"abc123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSendBuildsTemplatedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewSendGridClient("SG.test", "d-tmpl", "team@example.com", "Myhealth Team").
		WithHost(ts.URL)

	err := client.Send(context.Background(), Message{
		ToEmail:      "new@example.com",
		ToName:       "Eve",
		TemplateData: map[string]any{"displayName": "Eve"},
		Attachments: []Attachment{{
			Filename:    "welcome.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF"),
		}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v3/mail/send" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer SG.test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["template_id"] != "d-tmpl" {
		t.Errorf("template_id = %v", gotBody["template_id"])
	}

	personalizations, ok := gotBody["personalizations"].([]any)
	if !ok || len(personalizations) != 1 {
		t.Fatalf("personalizations = %v", gotBody["personalizations"])
	}
	p := personalizations[0].(map[string]any)
	data, ok := p["dynamic_template_data"].(map[string]any)
	if !ok || data["displayName"] != "Eve" {
		t.Errorf("dynamic_template_data = %v", p["dynamic_template_data"])
	}

	attachments, ok := gotBody["attachments"].([]any)
	if !ok || len(attachments) != 1 {
		t.Fatalf("attachments = %v", gotBody["attachments"])
	}
	att := attachments[0].(map[string]any)
	if att["filename"] != "welcome.pdf" || att["type"] != "application/pdf" || att["disposition"] != "attachment" {
		t.Errorf("attachment metadata = %v", att)
	}
	wantContent := base64.StdEncoding.EncodeToString([]byte("%PDF"))
	if att["content"] != wantContent {
		t.Errorf("attachment content = %v, want %q", att["content"], wantContent)
	}
}

func TestSendSurfacesProviderRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad template"}]}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewSendGridClient("SG.test", "d-tmpl", "team@example.com", "Myhealth Team").
		WithHost(ts.URL)

	err := client.Send(context.Background(), Message{ToEmail: "new@example.com"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	rejected, ok := err.(*SendError)
	if !ok {
		t.Fatalf("error type = %T, want *SendError", err)
	}
	if rejected.StatusCode != http.StatusBadRequest || !rejected.Permanent() {
		t.Fatalf("SendError = %+v", rejected)
	}
}

func TestSendErrorPermanence(t *testing.T) {
	if (&SendError{StatusCode: 503}).Permanent() {
		t.Error("5xx must be retryable")
	}
	if !(&SendError{StatusCode: 401}).Permanent() {
		t.Error("4xx must be permanent")
	}
}
