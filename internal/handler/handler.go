package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"zerowaste/internal/middleware"
	"zerowaste/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. Encoding
// failures are logged to the request logger; the status is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("failed to encode response")
	}
}

// writeError writes an error body with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields []model.FieldError) {
	writeJSON(w, r, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		Fields:        fields,
		CorrelationID: middleware.RequestIDFromContext(r.Context()),
	})
}

// statusForCode maps domain error codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrCodeValidation:        http.StatusBadRequest,
	model.ErrCodeNotFound:          http.StatusNotFound,
	model.ErrCodeForbidden:         http.StatusForbidden,
	model.ErrCodeConflict:          http.StatusConflict,
	model.ErrCodeInvalidState:      http.StatusConflict,
	model.ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
}

// writeServiceError translates a service error into a response. Errors that
// carry no domain code are reported as internal without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, model.ErrValidation.Message, verr.Fields)
		return
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		if status, ok := statusForCode[derr.Code]; ok {
			logger.Debug().Err(err).Str("code", derr.Code).Msg("request rejected")
			writeError(w, r, status, derr.Code, err.Error(), nil)
			return
		}
	}

	logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("handler error")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", nil)
}

// requireActor returns the request actor or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "actor identity is required", nil)
	}
	return actor, ok
}

// donationID parses the {id} path parameter or writes 400.
func donationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid donation ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body or writes 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", nil)
		return false
	}
	return true
}

// Health handles GET /health requests.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}
