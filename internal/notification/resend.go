package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/upstream"
)

// maxResponseBody caps how much of a provider reply is kept.
const maxResponseBody = 64 << 10

type ResendSender struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

func NewResendSender(cfg config.EmailConfig) *ResendSender {
	url := cfg.ResendURL
	if url == "" {
		url = "https://api.resend.com/emails"
	}
	return &ResendSender{
		url:    url,
		apiKey: cfg.APIKey,
		from:   fromHeader(cfg.FromName, cfg.FromAddress),
		client: upstream.NewHTTPClient(cfg.Timeout, false),
	}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg Message) (Response, error) {
	payload := map[string]string{
		"from":    s.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	out := Response{Status: resp.StatusCode, Data: rawJSON(bodyBytes)}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("resend error: %d %s", resp.StatusCode, string(bodyBytes))
	}
	return out, nil
}
