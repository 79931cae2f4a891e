package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/bher20/golddigest/internal/config"
)

type SendGridSender struct {
	apiKey   string
	host     string
	fromName string
	fromAddr string
}

func NewSendGridSender(cfg config.EmailConfig) *SendGridSender {
	host := cfg.SendGridHost
	if host == "" {
		host = "https://api.sendgrid.com"
	}
	return &SendGridSender{
		apiKey:   cfg.APIKey,
		host:     host,
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
	}
}

func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) Send(ctx context.Context, msg Message) (Response, error) {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	toEmail := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, toEmail, "", msg.HTML)

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return Response{}, fmt.Errorf("sendgrid: %w", err)
	}
	out := Response{Status: resp.StatusCode, Data: rawJSON([]byte(resp.Body))}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return out, nil
}
