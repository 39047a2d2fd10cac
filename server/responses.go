package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-auth-sessions/auth"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// errorStatuses maps service errors to their HTTP status and error code
var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{auth.ConflictErr, http.StatusConflict, "conflict"},
	{auth.AuthenticationErr, http.StatusUnauthorized, "invalid_credentials"},
	{auth.TokenInvalidErr, http.StatusUnauthorized, "invalid_token"},
	{auth.SessionNotFoundErr, http.StatusUnauthorized, "session_not_found"},
	{auth.InvalidTokenErr, http.StatusBadRequest, "invalid_reset_code"},
	{auth.TooManyAttemptsErr, http.StatusTooManyRequests, "too_many_attempts"},
	{auth.EmailDeliveryErr, http.StatusBadGateway, "email_delivery_failed"},
	{auth.IdentityNotFoundErr, http.StatusNotFound, "not_found"},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorCode(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, Description: description})
}

// writeError answers with the categorised form of err. Anything outside the
// service taxonomy is logged and reported as an internal error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	if stderrors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_failed", Description: "request validation failed", Fields: verr.Fields})
		return
	}
	for _, e := range errorStatuses {
		if stderrors.Is(err, e.err) {
			writeErrorCode(w, e.status, e.code, e.err.Error())
			return
		}
	}
	s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	writeErrorCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// decodeAndValidate reads a single JSON object into dst and validates it
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", "body must contain a single JSON object")
		return false
	}
	if err := s.validator.Validate(dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}
