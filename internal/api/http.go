package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/api/swagger"
	"github.com/bher20/golddigest/internal/digest"
	"github.com/bher20/golddigest/internal/distribute"
	"github.com/bher20/golddigest/internal/rates"
	"github.com/bher20/golddigest/internal/subscription"
	"github.com/bher20/golddigest/internal/ui"
)

// DigestBuilder builds the current digest.
type DigestBuilder interface {
	Build(ctx context.Context) digest.Digest
}

// RateQuoter quotes the per-gram gold rate.
type RateQuoter interface {
	GoldRate(ctx context.Context) (rates.GoldRate, error)
}

// Distributor mails the digest to subscribers.
type Distributor interface {
	Send(ctx context.Context) (distribute.Result, error)
}

// Subscriber records signups.
type Subscriber interface {
	Subscribe(ctx context.Context, email string) (subscription.Subscription, error)
}

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer serves.
type Deps struct {
	Digest        DigestBuilder
	Rates         RateQuoter
	Distributor   Distributor
	Subscriptions Subscriber
	Store         Pinger
	Log           zerolog.Logger
}

// NewMux constructs the HTTP mux, wiring in the services, metrics, docs and
// health endpoints.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Store != nil {
			if err := d.Store.Ping(r.Context()); err != nil {
				d.Log.Warn().Err(err).Msg("readyz: store ping failed")
				http.Error(w, "store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	// API.
	h := &handlers{deps: d, log: d.Log}
	mux.Handle("/api/gold-digest", CORS(instrument("gold-digest", allowMethod(http.MethodGet, h.goldDigest))))
	mux.Handle("/api/gold", CORS(instrument("gold", allowMethod(http.MethodGet, h.goldRate))))
	mux.Handle("/api/send-digest", CORS(instrument("send-digest", allowMethod(http.MethodPost, h.sendDigest))))
	mux.Handle("/api/subscribe", CORS(instrument("subscribe", allowMethod(http.MethodPost, h.subscribe))))

	// API docs.
	mux.Handle("/docs/", http.StripPrefix("/docs", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}

// NewHandler wraps NewMux with request id, recovery and access logging.
func NewHandler(d Deps) http.Handler {
	return chain(NewMux(d), RequestID, Logger(d.Log), Recover(d.Log))
}
