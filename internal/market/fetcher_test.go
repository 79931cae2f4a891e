package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/upstream"
)

func testConfig() config.MarketConfig {
	return config.MarketConfig{
		FallbackGoldUSD: 2400,
		FallbackUSDINR:  84.0,
		Timeout:         2 * time.Second,
	}
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSnapshot_Live(t *testing.T) {
	gold := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-access-token") != "gold-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"price": 2650.25, "metal": "XAU", "currency": "USD"}`))
	}))
	defer gold.Close()
	fx := jsonServer(t, http.StatusOK, `{"base":"USD","rates":{"INR":83.91}}`)

	cfg := testConfig()
	cfg.GoldAPIURL = gold.URL
	cfg.GoldAPIKey = "gold-key"
	cfg.FXAPIURL = fx.URL

	snap := NewFetcher(cfg, zerolog.Nop()).FetchSnapshot(context.Background())

	assert.Equal(t, 2650.25, snap.GoldUSD)
	assert.Equal(t, 83.91, snap.USDINR)
	assert.Equal(t, upstream.Live, snap.GoldSource)
	assert.Equal(t, upstream.Live, snap.FXSource)
	assert.Equal(t, false, snap.Degraded())
	_, err := time.Parse(time.RFC3339Nano, snap.Timestamp)
	assert.Equal(t, nil, err)
}

func TestFetchSnapshot_NeverFails(t *testing.T) {
	tests := []struct {
		name     string
		goldCode int
		goldBody string
		fxCode   int
		fxBody   string
		wantGold float64
		wantFX   float64
	}{
		{"gold 500, fx ok", 500, `oops`, 200, `{"rates":{"INR":83.5}}`, 2400, 83.5},
		{"gold missing field", 200, `{"metal":"XAU"}`, 200, `{"rates":{"INR":83.5}}`, 2400, 83.5},
		{"gold ok, fx malformed", 200, `{"price":2500}`, 200, `{"rates":`, 2500, 84.0},
		{"fx non-numeric", 200, `{"price":2500}`, 200, `{"rates":{"INR":"83"}}`, 2500, 84.0},
		{"both zero", 200, `{"price":0}`, 200, `{"rates":{"INR":0}}`, 2400, 84.0},
		{"both down", 503, ``, 502, ``, 2400, 84.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.GoldAPIURL = jsonServer(t, tt.goldCode, tt.goldBody).URL
			cfg.GoldAPIKey = "k"
			cfg.FXAPIURL = jsonServer(t, tt.fxCode, tt.fxBody).URL

			snap := NewFetcher(cfg, zerolog.Nop()).FetchSnapshot(context.Background())
			if snap.GoldUSD != tt.wantGold || snap.USDINR != tt.wantFX {
				t.Fatalf("got gold=%v fx=%v, want gold=%v fx=%v", snap.GoldUSD, snap.USDINR, tt.wantGold, tt.wantFX)
			}
			if snap.GoldUSD <= 0 || snap.USDINR <= 0 {
				t.Fatalf("snapshot fields must always be populated: %+v", snap)
			}
			if (tt.wantGold == 2400) != (snap.GoldSource == upstream.Fallback) {
				t.Errorf("unexpected gold provenance %q", snap.GoldSource)
			}
			if (tt.wantFX == 84.0) != (snap.FXSource == upstream.Fallback) {
				t.Errorf("unexpected fx provenance %q", snap.FXSource)
			}
		})
	}
}

func TestFetchSnapshot_UnconfiguredGoldSkipsRequest(t *testing.T) {
	var calls int32
	gold := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer gold.Close()

	cfg := testConfig()
	cfg.GoldAPIURL = gold.URL // no key

	snap := NewFetcher(cfg, zerolog.Nop()).FetchSnapshot(context.Background())

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, 2400.0, snap.GoldUSD)
	assert.Equal(t, 84.0, snap.USDINR)
	assert.Equal(t, true, snap.Degraded())
}

func TestFetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "gold OR inflation" || q.Get("language") != "en" ||
			q.Get("pageSize") != "5" || q.Get("sortBy") != "publishedAt" || q.Get("apiKey") != "news-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Gold hits record","source":{"id":null,"name":"Reuters"},"url":"https://x"},
			{"title":"CPI cools","source":{"name":"Bloomberg"}},
			{"title":"Fed holds","source":{"name":"FT"}},
			{"title":"Rupee slips","source":{"name":"Mint"}},
			{"title":"ETF inflows","source":{"name":"ET"}},
			{"title":"Sixth","source":{"name":"Extra"}}
		]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.NewsAPIURL = srv.URL
	cfg.NewsAPIKey = "news-key"

	headlines := NewFetcher(cfg, zerolog.Nop()).FetchNews(context.Background())

	assert.Equal(t, 5, len(headlines))
	assert.Equal(t, Headline{Title: "Gold hits record", Source: "Reuters"}, headlines[0])
	assert.Equal(t, "Mint", headlines[3].Source)
}

func TestFetchNews_EmptyOnMissingConfigOrError(t *testing.T) {
	f := NewFetcher(testConfig(), zerolog.Nop())
	assert.Equal(t, 0, len(f.FetchNews(context.Background())))

	cfg := testConfig()
	cfg.NewsAPIURL = jsonServer(t, http.StatusUnauthorized, `{"status":"error"}`).URL
	cfg.NewsAPIKey = "bad"
	got := NewFetcher(cfg, zerolog.Nop()).FetchNews(context.Background())
	if got == nil {
		t.Fatalf("expected an empty, non-nil list")
	}
	assert.Equal(t, 0, len(got))

	cfg.NewsAPIURL = jsonServer(t, http.StatusOK, `{"status":"ok"}`).URL
	assert.Equal(t, 0, len(NewFetcher(cfg, zerolog.Nop()).FetchNews(context.Background())))
}
