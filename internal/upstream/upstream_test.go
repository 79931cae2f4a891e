package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithFallback(t *testing.T) {
	ctx := context.Background()
	positive := func(v float64) bool { return v > 0 }

	tests := []struct {
		name       string
		fetch      func(context.Context) (float64, error)
		wantValue  float64
		wantSource Provenance
		wantErr    error
	}{
		{
			name:       "live value",
			fetch:      func(context.Context) (float64, error) { return 2650.5, nil },
			wantValue:  2650.5,
			wantSource: Live,
		},
		{
			name:       "fetch error",
			fetch:      func(context.Context) (float64, error) { return 0, errors.New("dial tcp: refused") },
			wantValue:  2400,
			wantSource: Fallback,
		},
		{
			name:       "invalid value",
			fetch:      func(context.Context) (float64, error) { return -1, nil },
			wantValue:  2400,
			wantSource: Fallback,
			wantErr:    ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithFallback(ctx, tt.fetch, positive, 2400)
			if got.Value != tt.wantValue || got.Source != tt.wantSource {
				t.Fatalf("got %+v, want value=%v source=%s", got, tt.wantValue, tt.wantSource)
			}
			if tt.wantSource == Fallback && got.Err == nil {
				t.Fatalf("expected an error explaining the fallback")
			}
			if tt.wantErr != nil && !errors.Is(got.Err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, got.Err)
			}
		})
	}
}

func TestDoJSON_NonOKIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	status, err := DoJSON(NewHTTPClient(time.Second, false), req, "goldapi", &out)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Service != "goldapi" || upErr.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected upstream error: %+v", upErr)
	}
}

func TestDoJSON_DecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 2412.3}`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out struct {
		Price float64 `json:"price"`
	}
	if _, err := DoJSON(DefaultHTTPClient(), req, "goldapi", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Price != 2412.3 {
		t.Fatalf("unexpected price: %v", out.Price)
	}
}

func TestDoJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	_, err := DoJSON(DefaultHTTPClient(), req, "fx", &out)
	var upErr *UpstreamError
	if !errors.As(err, &upErr) || upErr.Status != http.StatusOK {
		t.Fatalf("expected UpstreamError with status 200, got %v", err)
	}
}
