package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/distribute"
	"github.com/bher20/golddigest/internal/rates"
	"github.com/bher20/golddigest/internal/subscription"
)

type handlers struct {
	deps Deps
	log  zerolog.Logger
}

// goldDigest never fails: Build falls back to static content.
func (h *handlers) goldDigest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Digest.Build(r.Context()))
}

func (h *handlers) goldRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.deps.Rates.GoldRate(r.Context())
	if err != nil {
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("gold rate failed")
		msg := err.Error()
		if errors.Is(err, rates.ErrMissingAPIKey) {
			msg = "Missing METALPRICEAPI_KEY env var"
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=300")
	writeJSON(w, http.StatusOK, rate)
}

type sendDigestError struct {
	distribute.Result
	Error string `json:"error"`
}

func (h *handlers) sendDigest(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Distributor.Send(r.Context())
	if err != nil {
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("send digest failed")
		body := sendDigestError{Error: err.Error()}
		if errors.Is(err, distribute.ErrMissingCredential) {
			body.Result = res
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	// a missing or malformed body is an empty email, rejected below
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req)

	sub, err := h.deps.Subscriptions.Subscribe(r.Context(), req.Email)
	switch {
	case errors.Is(err, subscription.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: "Valid email is required"})
	case err != nil:
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("subscribe failed")
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error"})
	default:
		writeJSON(w, http.StatusOK, sub)
	}
}
