package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bher20/golddigest/internal/config"
)

// ErrNotConfigured is returned by NewSender when the selected provider has no
// credentials.
var ErrNotConfigured = errors.New("email provider not configured")

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Response is what the provider answered. Status is the provider's HTTP
// status (or SMTP reply code); Data is its JSON payload.
type Response struct {
	Status int
	Data   json.RawMessage
}

// Sender delivers one message. A non-nil error with a non-zero Status means
// the provider answered but rejected the message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Response, error)
	Name() string
}

// NewSender builds the sender named by cfg.Provider.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "resend":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewResendSender(cfg), nil
	case "sendgrid":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewSendGridSender(cfg), nil
	case "smtp", "gmail":
		if cfg.SMTP.Host == "" {
			return nil, ErrNotConfigured
		}
		return NewSMTPSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// fromHeader renders "Name <addr>" when a display name is set.
func fromHeader(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}

// rawJSON returns body when it is valid JSON, otherwise body wrapped as a
// JSON string. Empty bodies become {}.
func rawJSON(body []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return json.RawMessage(`{}`)
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(trimmed)
	return quoted
}
