package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"

	"github.com/myhealth-dev/myhealth/internal/apperr"
	"github.com/myhealth-dev/myhealth/internal/mailer"
	"github.com/myhealth-dev/myhealth/internal/storage"
	"github.com/myhealth-dev/myhealth/internal/validate"
)

const (
	// welcomeDeadline bounds the whole invocation, matching the
	// platform-function timeout the endpoint replaces.
	welcomeDeadline = 60 * time.Second

	// transientRetries bounds retry attempts for the attachment fetch
	// and the email dispatch.
	transientRetries = 3

	welcomeAttachmentName = "welcome.pdf"
	welcomeAttachmentType = "application/pdf"
)

// WelcomeEmailRequest is the body of POST /sendWelcomeEmail
type WelcomeEmailRequest struct {
	To          string `json:"to" binding:"required"`
	DisplayName string `json:"displayName"`
}

// @Summary Send welcome email
// @Description Verifies the caller's bearer credential, then sends the
// templated welcome email with the standard attachment
// @Tags email
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body WelcomeEmailRequest true "Welcome email request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /sendWelcomeEmail [post]
func (s *Server) sendWelcomeEmail(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), welcomeDeadline)
	defer cancel()

	// The endpoint verifies its own credential; it never trusts any
	// client-asserted identity or role.
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		s.logger.Warn().Err(err).Msg("sendWelcomeEmail: no usable bearer credential")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
		return
	}

	caller, err := s.provider.VerifyToken(token)
	if err != nil {
		s.failWelcome(c, apperr.New(apperr.Unauthenticated, err))
		return
	}
	s.logger.Info().Str("uid", caller.UID).Msg("Auth OK")

	var req WelcomeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'to' field"})
		return
	}
	displayName := validate.ClampText(req.DisplayName, validate.DefaultMaxText)

	s.logger.Info().Str("to", req.To).Str("display_name", displayName).Msg("Welcome email requested")

	attachment, err := s.downloadAttachment(ctx)
	if err != nil {
		s.failWelcome(c, err)
		return
	}

	if !mailer.ValidKey(s.config.Mail.APIKey) {
		s.failWelcome(c, apperr.Newf(apperr.Configuration,
			"SENDGRID_API_KEY is invalid: must start with %q", mailer.KeyPrefix))
		return
	}

	msg := mailer.Message{
		ToEmail:      req.To,
		ToName:       displayName,
		TemplateData: map[string]any{"displayName": displayName},
		Attachments: []mailer.Attachment{{
			Filename:    welcomeAttachmentName,
			ContentType: welcomeAttachmentType,
			Content:     attachment,
		}},
	}
	if err := s.dispatchEmail(ctx, msg); err != nil {
		s.failWelcome(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// failWelcome logs the classified cause and returns the generic response.
// Callers never learn which step failed.
func (s *Server) failWelcome(c *gin.Context, err error) {
	s.logger.Error().
		Err(err).
		Str("kind", string(apperr.KindOf(err))).
		Msg("sendWelcomeEmail failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

// downloadAttachment fetches the welcome attachment, retrying transient
// storage failures. A missing object is permanent.
func (s *Server) downloadAttachment(ctx context.Context) ([]byte, error) {
	var data []byte
	op := func() error {
		b, err := s.storage.Download(ctx, s.config.Storage.AttachmentPath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return backoff.Permanent(apperr.New(apperr.NotFound, err))
			}
			return apperr.New(apperr.Upstream, err)
		}
		data = b
		return nil
	}

	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return data, nil
}

// dispatchEmail sends the message, retrying transient provider failures.
// Provider rejections below 500 will not succeed on retry.
func (s *Server) dispatchEmail(ctx context.Context, msg mailer.Message) error {
	op := func() error {
		err := s.mailer.Send(ctx, msg)
		if err == nil {
			return nil
		}
		var rejected *mailer.SendError
		if errors.As(err, &rejected) && rejected.Permanent() {
			return backoff.Permanent(apperr.New(apperr.Upstream, err))
		}
		return apperr.New(apperr.Upstream, err)
	}

	return backoff.Retry(op, s.retryPolicy(ctx))
}

func (s *Server) retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	return backoff.WithContext(backoff.WithMaxRetries(policy, transientRetries), ctx)
}
