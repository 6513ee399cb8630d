// Package mailer dispatches templated email through SendGrid.
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// KeyPrefix is the prefix every valid SendGrid API key carries.
const KeyPrefix = "SG."

// ValidKey reports whether key looks like a usable SendGrid API key.
func ValidKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix)
}

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one templated send. The sender identity and template are
// fixed per client; only the recipient and template data vary per request.
type Message struct {
	ToEmail      string
	ToName       string
	TemplateData map[string]any
	Attachments  []Attachment
}

// Sender dispatches a message. Repeated sends are not deduplicated.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendError is a provider rejection carrying the HTTP status SendGrid
// returned. Statuses below 500 will not succeed on retry.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sendgrid rejected send: status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying the same send is pointless.
func (e *SendError) Permanent() bool {
	return e.StatusCode < 500
}

// SendGridClient sends dynamic-template mail via the SendGrid v3 API.
type SendGridClient struct {
	apiKey     string
	templateID string
	from       *mail.Email
	host       string // empty means the real API host; tests override
}

// NewSendGridClient creates a client with a fixed sender and template.
func NewSendGridClient(apiKey, templateID, fromEmail, fromName string) *SendGridClient {
	return &SendGridClient{
		apiKey:     apiKey,
		templateID: templateID,
		from:       mail.NewEmail(fromName, fromEmail),
	}
}

// WithHost points the client at an alternate API host (tests).
func (c *SendGridClient) WithHost(host string) *SendGridClient {
	c.host = host
	return c
}

// Send dispatches one message.
func (c *SendGridClient) Send(ctx context.Context, m Message) error {
	req := sendgrid.GetRequest(c.apiKey, "/v3/mail/send", c.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(c.build(m))

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &SendError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}

func (c *SendGridClient) build(m Message) *mail.SGMailV3 {
	v3 := mail.NewV3Mail()
	v3.SetFrom(c.from)
	v3.SetTemplateID(c.templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(m.ToName, m.ToEmail))
	for k, v := range m.TemplateData {
		p.SetDynamicTemplateData(k, v)
	}
	v3.AddPersonalizations(p)

	for _, a := range m.Attachments {
		att := mail.NewAttachment()
		att.SetFilename(a.Filename)
		att.SetType(a.ContentType)
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetDisposition("attachment")
		v3.AddAttachment(att)
	}

	return v3
}
