package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jwstudio/portal/internal/contact"
	"github.com/jwstudio/portal/internal/media"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/testimonial"
	"github.com/jwstudio/portal/internal/token"
	"github.com/rs/zerolog/hlog"
)

// errInvalidRequest covers request bodies and parameters that cannot be decoded.
var errInvalidRequest = errors.New("invalid request")

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Pattern string `json:"pattern,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, token.ErrInvalidFormat), errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, store.ErrTestimonialNotFound),
		errors.Is(err, store.ErrContactNotFound),
		errors.Is(err, store.ErrMediaNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrTokenAlreadyExists), errors.Is(err, store.ErrProjectAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, project.ErrTokenAllocationExhausted), errors.Is(err, store.ErrThrottled):
		return http.StatusServiceUnavailable
	case errors.Is(err, project.ErrInvalidProject),
		errors.Is(err, testimonial.ErrInvalidTestimonial),
		errors.Is(err, contact.ErrInvalidContact),
		errors.Is(err, media.ErrInvalidUpload):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the mapped status. Internal errors are logged and
// replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	resp := errorResponse{Error: err.Error()}
	if errors.Is(err, token.ErrInvalidFormat) {
		resp.Pattern = token.Pattern
	}

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		resp.Error = http.StatusText(status)
	}

	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	return nil
}
