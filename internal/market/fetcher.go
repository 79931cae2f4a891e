package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/metrics"
	"github.com/bher20/golddigest/internal/upstream"
)

const (
	newsQuery    = "gold OR inflation"
	newsPageSize = 5
)

var errNotConfigured = errors.New("upstream not configured")

// Fetcher reads the gold price, the USD/INR rate and recent headlines.
// None of its methods fail: upstream problems degrade to fallbacks.
type Fetcher struct {
	cfg    config.MarketConfig
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

// NewFetcher builds a Fetcher. A zero Timeout leaves calls bounded only by ctx.
func NewFetcher(cfg config.MarketConfig, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: upstream.NewHTTPClient(cfg.Timeout, false),
		log:    log.With().Str("component", "market").Logger(),
		now:    time.Now,
	}
}

// FetchSnapshot issues the gold and FX requests concurrently and never fails.
func (f *Fetcher) FetchSnapshot(ctx context.Context) Snapshot {
	var gold, fx upstream.Result[float64]

	var g errgroup.Group
	g.Go(func() error {
		gold = upstream.WithFallback(ctx, f.fetchGold, validPrice, f.cfg.FallbackGoldUSD)
		return nil
	})
	g.Go(func() error {
		fx = upstream.WithFallback(ctx, f.fetchFX, validPrice, f.cfg.FallbackUSDINR)
		return nil
	})
	_ = g.Wait()

	f.noteFallback("gold", gold)
	f.noteFallback("fx", fx)

	return Snapshot{
		Timestamp:  f.now().UTC().Format(time.RFC3339Nano),
		GoldUSD:    gold.Value,
		USDINR:     fx.Value,
		GoldSource: gold.Source,
		FXSource:   fx.Source,
	}
}

func (f *Fetcher) noteFallback(source string, r upstream.Result[float64]) {
	if r.Source == upstream.Live {
		return
	}
	metrics.UpstreamFallbacksTotal.WithLabelValues(source).Inc()
	ev := f.log.Warn()
	if errors.Is(r.Err, errNotConfigured) {
		ev = f.log.Debug()
	}
	ev.Err(r.Err).Str("source", source).Float64("fallback", r.Value).Msg("using fallback value")
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (f *Fetcher) fetchGold(ctx context.Context) (float64, error) {
	if f.cfg.GoldAPIURL == "" || f.cfg.GoldAPIKey == "" {
		return 0, errNotConfigured
	}
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.GoldAPIURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("x-access-token", f.cfg.GoldAPIKey)

	var body struct {
		Price *float64 `json:"price"`
	}
	if _, err := upstream.DoJSON(f.client, req, "gold", &body); err != nil {
		return 0, err
	}
	if body.Price == nil {
		return 0, &upstream.UpstreamError{Service: "gold", Body: "missing price field"}
	}
	return *body.Price, nil
}

func (f *Fetcher) fetchFX(ctx context.Context) (float64, error) {
	if f.cfg.FXAPIURL == "" {
		return 0, errNotConfigured
	}
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.FXAPIURL, nil)
	if err != nil {
		return 0, err
	}

	var body struct {
		Rates struct {
			INR *float64 `json:"INR"`
		} `json:"rates"`
	}
	if _, err := upstream.DoJSON(f.client, req, "fx", &body); err != nil {
		return 0, err
	}
	if body.Rates.INR == nil {
		return 0, &upstream.UpstreamError{Service: "fx", Body: "missing rates.INR field"}
	}
	return *body.Rates.INR, nil
}

// FetchNews returns up to five recent gold / inflation headlines, or none
// when the news API is unconfigured or failing.
func (f *Fetcher) FetchNews(ctx context.Context) []Headline {
	if f.cfg.NewsAPIURL == "" || f.cfg.NewsAPIKey == "" {
		return []Headline{}
	}
	headlines, err := f.fetchNews(ctx)
	if err != nil {
		metrics.UpstreamFallbacksTotal.WithLabelValues("news").Inc()
		f.log.Warn().Err(err).Msg("news fetch failed")
		return []Headline{}
	}
	return headlines
}

func (f *Fetcher) fetchNews(ctx context.Context) ([]Headline, error) {
	u, err := url.Parse(f.cfg.NewsAPIURL)
	if err != nil {
		return nil, fmt.Errorf("news url: %w", err)
	}
	q := u.Query()
	q.Set("q", newsQuery)
	q.Set("language", "en")
	q.Set("pageSize", fmt.Sprint(newsPageSize))
	q.Set("sortBy", "publishedAt")
	q.Set("apiKey", f.cfg.NewsAPIKey)
	u.RawQuery = q.Encode()

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	var body newsResponse
	if _, err := upstream.DoJSON(f.client, req, "news", &body); err != nil {
		return nil, err
	}
	if body.Articles == nil {
		return nil, &upstream.UpstreamError{Service: "news", Body: "missing articles field"}
	}

	out := make([]Headline, 0, newsPageSize)
	for _, a := range body.Articles {
		if len(out) == newsPageSize {
			break
		}
		out = append(out, Headline{Title: a.Title, Source: a.Source.Name})
	}
	return out, nil
}

type newsResponse struct {
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title  string `json:"title"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
}

func (f *Fetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.cfg.Timeout)
}
