package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// APIResponse is the envelope for every JSON reply
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: status < 400, Data: data})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var verr ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, apperrors.ErrInvalidContact),
		errors.Is(err, apperrors.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrContactNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrWorkflowBusy),
		errors.Is(err, apperrors.ErrSendInProgress),
		errors.Is(err, apperrors.ErrNotCountingDown),
		errors.Is(err, apperrors.ErrNotConfirming):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrLocationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err in full and replies with a sanitized message
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	jsonError(w, status, apperrors.SanitizeError(err))
}
