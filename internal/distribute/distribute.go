package distribute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/golddigest/internal/alerting"
	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/metrics"
	"github.com/bher20/golddigest/internal/notification"
	"github.com/bher20/golddigest/internal/storage"
	"github.com/bher20/golddigest/internal/subscription"
	"github.com/bher20/golddigest/internal/upstream"
)

// ErrMissingCredential is returned when there are recipients but no email
// provider is configured.
var ErrMissingCredential = errors.New("email provider credential not set")

const (
	ReasonNoSubscribers     = "no-subscribers"
	ReasonMissingCredential = "missing-credential"

	jobName = "send_digest"
)

// SendResult is the outcome of one email.
type SendResult struct {
	Email  string          `json:"email"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Result is returned by Send. Sent counts attempted emails, including
// failed ones.
type Result struct {
	Sent    int          `json:"sent"`
	Results []SendResult `json:"results,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

// Failed returns the results whose send did not succeed.
func (r Result) Failed() []SendResult {
	var out []SendResult
	for _, sr := range r.Results {
		if !succeeded(sr.Status) {
			out = append(out, sr)
		}
	}
	return out
}

// succeeded covers HTTP 2xx and the SMTP 250 reply.
func succeeded(status int) bool {
	return status >= 200 && status < 300
}

// digestPayload is the part of the digest endpoint's body used for email.
type digestPayload struct {
	Date string `json:"date"`
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Distributor mails the current digest to every subscriber.
type Distributor struct {
	store         storage.Storage
	sender        notification.Sender
	alerter       *alerting.Alerter
	digestURL     string
	testRecipient string
	concurrency   int
	client        *http.Client
	log           zerolog.Logger
}

// New returns a distributor. sender may be nil, in which case Send reports a
// missing credential once it has recipients.
func New(cfg config.EmailConfig, siteURL string, store storage.Storage, sender notification.Sender, alerter *alerting.Alerter, log zerolog.Logger) *Distributor {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Distributor{
		store:         store,
		sender:        sender,
		alerter:       alerter,
		digestURL:     strings.TrimRight(siteURL, "/") + "/api/gold-digest",
		testRecipient: cfg.TestRecipient,
		concurrency:   concurrency,
		client:        upstream.NewHTTPClient(cfg.Timeout, false),
		log:           log,
	}
}

// Send runs one distribution. Individual send failures are recorded in the
// result, never returned.
func (d *Distributor) Send(ctx context.Context) (res Result, err error) {
	startedAt := time.Now()
	defer func() { metrics.UpdateJobMetrics(jobName, startedAt, err) }()

	recipients := d.recipients(ctx)
	if len(recipients) == 0 {
		d.log.Info().Msg("no subscribers, nothing to send")
		return Result{Sent: 0, Reason: ReasonNoSubscribers}, nil
	}
	if d.sender == nil {
		return Result{Sent: 0, Reason: ReasonMissingCredential}, ErrMissingCredential
	}

	digest, err := d.fetchDigest(ctx)
	if err != nil {
		return Result{}, err
	}

	msgBody := digest.HTML
	if msgBody == "" {
		msgBody = "<pre>" + digest.Text + "</pre>"
	}
	subject := "Gold Digest — " + digest.Date

	results := make([]SendResult, len(recipients))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, email := range recipients {
		g.Go(func() error {
			results[i] = d.sendOne(ctx, notification.Message{To: email, Subject: subject, HTML: msgBody})
			return nil
		})
	}
	_ = g.Wait()

	res = Result{Sent: len(results), Results: results}
	failed := res.Failed()
	d.log.Info().
		Int("attempted", len(results)).
		Int("failed", len(failed)).
		Dur("duration", time.Since(startedAt)).
		Msg("digest distribution finished")

	if len(failed) > 0 && d.alerter.Enabled() {
		if aerr := d.alerter.SendDeliveryAlert(ctx, deliveryAlert(res, failed, startedAt)); aerr != nil {
			d.log.Warn().Err(aerr).Msg("failed to send delivery alert")
		}
	}
	return res, nil
}

// recipients merges stored subscribers with the test recipient, normalised
// and deduplicated in first-seen order. A store error is logged and treated
// as an empty list.
func (d *Distributor) recipients(ctx context.Context) []string {
	stored, err := d.store.ListSubscribers(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("could not load subscribers, continuing with none")
		stored = nil
	}
	if d.testRecipient != "" {
		stored = append(stored, d.testRecipient)
	}

	seen := make(map[string]struct{}, len(stored))
	out := make([]string, 0, len(stored))
	for _, e := range stored {
		e = subscription.Normalize(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (d *Distributor) fetchDigest(ctx context.Context) (digestPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.digestURL, nil)
	if err != nil {
		return digestPayload{}, fmt.Errorf("fetch digest: %w", err)
	}
	var p digestPayload
	if _, err := upstream.DoJSON(d.client, req, "digest", &p); err != nil {
		return digestPayload{}, fmt.Errorf("fetch digest: %w", err)
	}
	return p, nil
}

func (d *Distributor) sendOne(ctx context.Context, msg notification.Message) SendResult {
	resp, err := d.sender.Send(ctx, msg)
	if err == nil {
		metrics.EmailsTotal.WithLabelValues(d.sender.Name(), "sent").Inc()
		return SendResult{Email: msg.To, Status: resp.Status, Data: resp.Data}
	}

	metrics.EmailsTotal.WithLabelValues(d.sender.Name(), "failed").Inc()
	d.log.Warn().Err(err).Str("email", msg.To).Int("status", resp.Status).Msg("digest email failed")
	if resp.Status != 0 && len(resp.Data) > 0 {
		return SendResult{Email: msg.To, Status: resp.Status, Data: resp.Data}
	}
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return SendResult{Email: msg.To, Status: resp.Status, Data: data}
}

func deliveryAlert(res Result, failed []SendResult, startedAt time.Time) alerting.DeliveryAlert {
	a := alerting.DeliveryAlert{
		JobName:      jobName,
		TotalCount:   len(res.Results),
		SuccessCount: len(res.Results) - len(failed),
		FailedCount:  len(failed),
		Duration:     time.Since(startedAt),
		Timestamp:    time.Now().UTC(),
	}
	for _, f := range failed {
		a.Failures = append(a.Failures, alerting.DeliveryFailure{
			Email:  f.Email,
			Status: f.Status,
			Error:  string(f.Data),
		})
	}
	return a
}
