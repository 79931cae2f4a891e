package rates

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/upstream"
)

// ErrMissingAPIKey is returned when no metal price API key is configured.
var ErrMissingAPIKey = errors.New("missing METALPRICEAPI_KEY")

// GramsPerTroyOunce converts troy ounces to grams.
const GramsPerTroyOunce = 31.1034768

// GoldRate is the INR price of one gram of 24K gold.
type GoldRate struct {
	TS            int64   `json:"ts"`
	InrPerGram24k float64 `json:"inrPerGram24k"`
}

// Service quotes the per-gram rate from the metal price API.
type Service struct {
	cfg    config.RatesConfig
	client *http.Client
	now    func() time.Time
}

func NewService(cfg config.RatesConfig) *Service {
	return &Service{
		cfg:    cfg,
		client: upstream.NewHTTPClient(cfg.Timeout, false),
		now:    time.Now,
	}
}

type latestResponse struct {
	Timestamp int64 `json:"timestamp"`
	Rates     struct {
		INR    float64 `json:"INR"`
		XAU    float64 `json:"XAU"`
		USDXAU float64 `json:"USDXAU"`
	} `json:"rates"`
}

// GoldRate makes one upstream call and derives INR per gram.
func (s *Service) GoldRate(ctx context.Context) (GoldRate, error) {
	if s.cfg.APIKey == "" {
		return GoldRate{}, ErrMissingAPIKey
	}

	u, err := url.Parse(s.cfg.MetalPriceURL)
	if err != nil {
		return GoldRate{}, fmt.Errorf("parse metal price url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", s.cfg.APIKey)
	q.Set("base", "USD")
	q.Set("currencies", "INR,XAU")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return GoldRate{}, err
	}

	var body latestResponse
	if _, err := upstream.DoJSON(s.client, req, "metalprice", &body); err != nil {
		return GoldRate{}, err
	}

	usdPerOunce, ok := usdPerOunce(body.Rates.USDXAU, body.Rates.XAU)
	if !ok || !positive(body.Rates.INR) {
		return GoldRate{}, &upstream.UpstreamError{Service: "metalprice", Body: "rates missing USDXAU/XAU or INR"}
	}

	ts := body.Timestamp
	if ts <= 0 {
		ts = s.now().Unix()
	}
	return GoldRate{
		TS:            ts,
		InrPerGram24k: InrPerGram(usdPerOunce, body.Rates.INR),
	}, nil
}

// usdPerOunce prefers the direct quote and otherwise inverts the
// ounces-per-dollar figure.
func usdPerOunce(direct, inverse float64) (float64, bool) {
	if positive(direct) {
		return direct, true
	}
	if positive(inverse) {
		return 1 / inverse, true
	}
	return 0, false
}

// InrPerGram converts a USD per troy ounce quote into INR per gram.
func InrPerGram(usdPerOunce, inrPerUSD float64) float64 {
	return usdPerOunce * inrPerUSD / GramsPerTroyOunce
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
