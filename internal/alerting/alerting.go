package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/upstream"
)

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg         config.AlertConfig
	webhookType string
	client      *http.Client
	log         zerolog.Logger
}

// NewAlerter creates a new alerter instance. The payload format is taken
// from cfg.WebhookType, or guessed from the URL when unset.
func NewAlerter(cfg config.AlertConfig, log zerolog.Logger) *Alerter {
	wt := strings.ToLower(cfg.WebhookType)
	if wt == "" {
		if strings.Contains(cfg.WebhookURL, "slack.com") {
			wt = "slack"
		} else if strings.Contains(cfg.WebhookURL, "discord.com") {
			wt = "discord"
		} else {
			wt = "generic"
		}
	}
	if cfg.MinFailures < 1 {
		cfg.MinFailures = 1
	}
	return &Alerter{
		cfg:         cfg,
		webhookType: wt,
		client:      upstream.NewHTTPClient(cfg.Timeout, false),
		log:         log,
	}
}

// Enabled reports whether a webhook is configured.
func (a *Alerter) Enabled() bool {
	return a != nil && a.cfg.WebhookURL != ""
}

// DeliveryAlert summarises a distribution run with failed sends.
type DeliveryAlert struct {
	JobName      string
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Duration     time.Duration
	Failures     []DeliveryFailure
	Timestamp    time.Time
}

// DeliveryFailure is one subscriber the digest could not be sent to.
type DeliveryFailure struct {
	Email  string `json:"email"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// SendDeliveryAlert posts the alert when enough sends failed.
func (a *Alerter) SendDeliveryAlert(ctx context.Context, alert DeliveryAlert) error {
	if !a.Enabled() {
		return nil
	}

	if alert.FailedCount < a.cfg.MinFailures {
		a.log.Debug().
			Int("failed", alert.FailedCount).
			Int("threshold", a.cfg.MinFailures).
			Msg("failures below alert threshold, skipping")
		return nil
	}

	var payload []byte
	var err error

	switch a.webhookType {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}

	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := upstream.DoJSON(a.client, req, "alert webhook", nil); err != nil {
		return err
	}

	a.log.Info().Int("failed", alert.FailedCount).Str("job", alert.JobName).Msg("sent delivery alert")
	return nil
}

func failureLines(alert DeliveryAlert, bold string) string {
	var sb strings.Builder
	for _, f := range alert.Failures {
		fmt.Fprintf(&sb, "• %s%s%s: %s (status: %d)\n", bold, f.Email, bold, f.Error, f.Status)
	}
	return sb.String()
}

func buildSlackPayload(alert DeliveryAlert) ([]byte, error) {
	emoji := ":warning:"
	if alert.FailedCount == alert.TotalCount {
		emoji = ":x:"
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s Digest Delivery Alert: %s", emoji, alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Status:*\n%d/%d failed", alert.FailedCount, alert.TotalCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Delivered:*\n%d", alert.SuccessCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Failed Recipients:*\n%s", failureLines(alert, "*")),
				},
			},
		},
	}

	return json.Marshal(payload)
}

func buildDiscordPayload(alert DeliveryAlert) ([]byte, error) {
	color := 16776960 // Yellow
	if alert.FailedCount == alert.TotalCount {
		color = 16711680 // Red
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Digest Delivery Alert: %s", alert.JobName),
				"description": fmt.Sprintf("%d/%d emails failed", alert.FailedCount, alert.TotalCount),
				"color":       color,
				"fields": []map[string]interface{}{
					{"name": "Delivered", "value": fmt.Sprintf("%d", alert.SuccessCount), "inline": true},
					{"name": "Failed", "value": fmt.Sprintf("%d", alert.FailedCount), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
					{"name": "Failed Recipients", "value": failureLines(alert, "**"), "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func buildGenericPayload(alert DeliveryAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":     "digest_delivery_failure",
		"job_name":       alert.JobName,
		"total_count":    alert.TotalCount,
		"success_count":  alert.SuccessCount,
		"failed_count":   alert.FailedCount,
		"duration_ms":    alert.Duration.Milliseconds(),
		"timestamp":      alert.Timestamp.Format(time.RFC3339),
		"failed_details": alert.Failures,
	}

	return json.Marshal(payload)
}
