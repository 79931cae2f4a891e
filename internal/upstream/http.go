package upstream

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NewHTTPClient creates an HTTP client with optional TLS configuration.
// Set skipTLSVerify to true for servers with misconfigured certificate chains
// (e.g., servers that don't send intermediate certificates).
func NewHTTPClient(timeout time.Duration, skipTLSVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if skipTLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DefaultHTTPClient returns a standard HTTP client with 30s timeout.
func DefaultHTTPClient() *http.Client {
	return NewHTTPClient(30*time.Second, false)
}

// UpstreamError is returned when an upstream answers with a non-2xx status
// or a payload that cannot be interpreted.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Service, e.Body)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.Status, e.Body)
}

// maxErrorBody caps how much of an error response is kept in UpstreamError.
const maxErrorBody = 512

// DoJSON sends req and decodes a 2xx JSON body into out. It returns the HTTP
// status alongside any error so callers can report it.
func DoJSON(client *http.Client, req *http.Request, service string, out any) (int, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &UpstreamError{Service: service, Status: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &UpstreamError{Service: service, Status: resp.StatusCode, Body: "decode: " + err.Error()}
	}
	return resp.StatusCode, nil
}
