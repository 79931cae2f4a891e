package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/digest"
	"github.com/bher20/golddigest/internal/distribute"
	"github.com/bher20/golddigest/internal/rates"
	"github.com/bher20/golddigest/internal/storage"
	"github.com/bher20/golddigest/internal/subscription"
)

type fakeDigest struct{ d digest.Digest }

func (f fakeDigest) Build(context.Context) digest.Digest { return f.d }

type fakeRates struct {
	rate rates.GoldRate
	err  error
}

func (f fakeRates) GoldRate(context.Context) (rates.GoldRate, error) { return f.rate, f.err }

type fakeDistributor struct {
	res   distribute.Result
	err   error
	calls int
}

func (f *fakeDistributor) Send(context.Context) (distribute.Result, error) {
	f.calls++
	return f.res, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func testDeps() Deps {
	store := storage.NewMemory()
	return Deps{
		Digest:        fakeDigest{digest.Fallback("2025-03-14")},
		Rates:         fakeRates{rate: rates.GoldRate{TS: 1710000000, InrPerGram24k: 5401.3}},
		Distributor:   &fakeDistributor{res: distribute.Result{Sent: 0, Reason: distribute.ReasonNoSubscribers}},
		Subscriptions: subscription.NewService(store, false, zerolog.Nop()),
		Store:         store,
		Log:           zerolog.Nop(),
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGoldDigest(t *testing.T) {
	h := NewHandler(testDeps())

	rec := do(t, h, http.MethodGet, "/api/gold-digest", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected a request id header")
	}
	body := decode(t, rec)
	assert.Equal(t, "fallback-static", body["source"])
	assert.Equal(t, "2025-03-14", body["date"])

	rec = do(t, h, http.MethodPost, "/api/gold-digest", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPreflight(t *testing.T) {
	rec := do(t, NewHandler(testDeps()), http.MethodOptions, "/api/subscribe", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGoldRate(t *testing.T) {
	h := NewHandler(testDeps())
	rec := do(t, h, http.MethodGet, "/api/gold", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-maxage=60, stale-while-revalidate=300", rec.Header().Get("Cache-Control"))
	body := decode(t, rec)
	assert.Equal(t, 5401.3, body["inrPerGram24k"])
	assert.Equal(t, 1710000000.0, body["ts"])
}

func TestGoldRate_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"missing key", rates.ErrMissingAPIKey, "Missing METALPRICEAPI_KEY env var"},
		{"upstream", fmt.Errorf("metalprice: HTTP 502"), "metalprice: HTTP 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := testDeps()
			d.Rates = fakeRates{err: tc.err}
			rec := do(t, NewHandler(d), http.MethodGet, "/api/gold", "")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.want, decode(t, rec)["error"])
			assert.Equal(t, "", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestSendDigest(t *testing.T) {
	d := testDeps()
	dist := d.Distributor.(*fakeDistributor)
	h := NewHandler(d)

	rec := do(t, h, http.MethodGet, "/api/send-digest", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decode(t, rec)["message"])
	assert.Equal(t, 0, dist.calls)

	rec = do(t, h, http.MethodPost, "/api/send-digest", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 0.0, body["sent"])
	assert.Equal(t, "no-subscribers", body["reason"])
}

func TestSendDigest_MissingCredential(t *testing.T) {
	d := testDeps()
	d.Distributor = &fakeDistributor{
		res: distribute.Result{Reason: distribute.ReasonMissingCredential},
		err: distribute.ErrMissingCredential,
	}
	rec := do(t, NewHandler(d), http.MethodPost, "/api/send-digest", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "missing-credential", body["reason"])
	assert.Equal(t, 0.0, body["sent"])
}

func TestSubscribe(t *testing.T) {
	h := NewHandler(testDeps())

	rec := do(t, h, http.MethodPost, "/api/subscribe", `{"email":"  A@B.com "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, true, body["stored"])

	for _, in := range []string{`{"email":"nope"}`, `{}`, `not json`} {
		rec = do(t, h, http.MethodPost, "/api/subscribe", in)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Valid email is required", decode(t, rec)["message"])
	}

	rec = do(t, h, http.MethodGet, "/api/subscribe", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHandler(testDeps())
	assert.Equal(t, "ok", do(t, h, http.MethodGet, "/healthz", "").Body.String())
	assert.Equal(t, "live", do(t, h, http.MethodGet, "/livez", "").Body.String())
	assert.Equal(t, "ready", do(t, h, http.MethodGet, "/readyz", "").Body.String())

	d := testDeps()
	d.Store = failingPinger{}
	assert.Equal(t, http.StatusServiceUnavailable, do(t, NewHandler(d), http.MethodGet, "/readyz", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRecover(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recover(zerolog.Nop()))
	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestID_Reused(t *testing.T) {
	h := NewHandler(testDeps())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestUI(t *testing.T) {
	h := NewHandler(testDeps())
	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, "/ui/", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/ui/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
