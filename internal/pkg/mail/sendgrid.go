package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	// ErrSendGridAPIKeyRequired is returned when the API key is missing.
	ErrSendGridAPIKeyRequired = errors.New("sendgrid api key is required")
	// ErrSendGridNoRecipients is returned when the To list is empty.
	ErrSendGridNoRecipients = errors.New("no recipients provided")
)

// SendGrid is a Mail implementation backed by the SendGrid v3 API.
type SendGrid struct {
	client      *sendgrid.Client
	defaultFrom string
	fromName    string
}

// SendGridConfig configures the SendGrid implementation.
type SendGridConfig struct {
	// APIKey is the SendGrid API key.
	APIKey string
	// From is the default sender address when Message.From is empty.
	From string
	// FromName is the display name used for the sender.
	FromName string
}

// NewSendGrid constructs a SendGrid mail sender.
func NewSendGrid(cfg SendGridConfig) (*SendGrid, error) {
	if cfg.APIKey == "" {
		return nil, ErrSendGridAPIKeyRequired
	}

	return &SendGrid{
		client:      sendgrid.NewSendClient(cfg.APIKey),
		defaultFrom: cfg.From,
		fromName:    cfg.FromName,
	}, nil
}

// Send delivers a message through the SendGrid API.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrSendGridNoRecipients
	}

	fromAddr := msg.From
	if fromAddr == "" {
		fromAddr = s.defaultFrom
	}
	if fromAddr == "" {
		return ErrSMTPNoSender
	}

	from := sgmail.NewEmail(s.fromName, fromAddr)

	personalization := sgmail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(sgmail.NewEmail("", to))
	}
	for _, cc := range msg.Cc {
		personalization.AddCCs(sgmail.NewEmail("", cc))
	}
	for _, bcc := range msg.Bcc {
		personalization.AddBCCs(sgmail.NewEmail("", bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject
	m.AddPersonalizations(personalization)
	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}

	return checkResponse(resp)
}

// checkResponse maps a non-2xx API response to an error.
func checkResponse(resp *rest.Response) error {
	if resp == nil {
		return errors.New("sendgrid returned an empty response")
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid send failed: status %d body %q", resp.StatusCode, resp.Body)
	}

	return nil
}

// Close implements io.Closer for interface compatibility.
func (s *SendGrid) Close() error {
	return nil
}
