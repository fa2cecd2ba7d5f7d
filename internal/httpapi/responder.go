package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/persistence"
)

// errorResponse is the envelope for every non-2xx body.
type errorResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// responder centralizes JSON serialization and error mapping so handlers
// stay focused on request parsing and service calls.
type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) *responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &responder{logger: logger}
}

func (r *responder) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (r *responder) writeError(w http.ResponseWriter, status int, code, message string) {
	r.writeJSON(w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleServiceError maps domain errors onto HTTP statuses with Spanish
// user-facing messages. Unknown errors become 500 without leaking detail.
func (r *responder) handleServiceError(w http.ResponseWriter, err error) {
	var vErr *arbitration.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "validation_failed",
			Message:   "Los datos enviados no son válidos.",
			Errors:    translateFieldErrors(vErr.FieldErrors),
		})
	case errors.Is(err, arbitration.ErrNotFound):
		r.writeError(w, http.StatusNotFound, "not_found", "La solicitud indicada no existe.")
	case errors.Is(err, arbitration.ErrAlreadyDecided):
		r.writeError(w, http.StatusConflict, "already_decided", "La solicitud ya fue procesada.")
	case errors.Is(err, arbitration.ErrAlreadyWithdrawn):
		r.writeError(w, http.StatusConflict, "already_withdrawn", "La solicitud ya fue retirada.")
	case errors.Is(err, arbitration.ErrScheduleUnavailable):
		r.writeError(w, http.StatusServiceUnavailable, "schedule_unavailable", "El horario no está disponible en este momento. Intente nuevamente.")
	case errors.Is(err, persistence.ErrNotFound):
		r.writeError(w, http.StatusNotFound, "not_found", "El recurso indicado no existe.")
	case errors.Is(err, persistence.ErrDuplicate):
		r.writeError(w, http.StatusConflict, "duplicate", "Ya existe un registro con ese identificador.")
	case errors.Is(err, persistence.ErrConstraintViolation):
		r.writeError(w, http.StatusUnprocessableEntity, "constraint_violation", "Los datos enviados violan una restricción del sistema.")
	default:
		r.logger.Error("unhandled service error",
			slog.String("error", err.Error()),
			slog.String("error_kind", errorKind(err)))
		r.writeError(w, http.StatusInternalServerError, "internal_error", "Se produjo un error interno en el servidor.")
	}
}

// errorKind labels a service error for structured logs. Persistence
// sentinels get their own labels; everything else defers to the
// arbitration mapping.
func errorKind(err error) string {
	if kind := arbitration.ErrorKind(err); kind != "unexpected" {
		return kind
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return "not_found"
	case errors.Is(err, persistence.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, persistence.ErrConstraintViolation):
		return "constraint_violation"
	}
	return "unexpected"
}

func (r *responder) badRequest(w http.ResponseWriter, message string) {
	r.writeError(w, http.StatusBadRequest, "bad_request", message)
}

// translateFieldErrors converts the engine's internal validation messages
// into the Spanish strings shown to callers. Unmapped messages pass through
// untranslated so new validations are never silently hidden.
func translateFieldErrors(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for field, message := range fields {
		out[field] = translateValidationMessage(message)
	}
	return out
}

func translateValidationMessage(message string) string {
	switch message {
	case "requester name is required":
		return "El nombre del solicitante es obligatorio."
	case "role is required":
		return "El rol del solicitante es obligatorio."
	case "room code is required":
		return "El código de sala es obligatorio."
	case "date is required":
		return "La fecha es obligatoria."
	case "date must be YYYY-MM-DD":
		return "La fecha debe tener el formato YYYY-MM-DD."
	case "start and end times are required":
		return "Las horas de inicio y término son obligatorias."
	case "window must be HH:MM-HH:MM with start before end":
		return "El horario debe indicarse como HH:MM-HH:MM con inicio anterior al término."
	case "room does not exist":
		return "La sala indicada no existe."
	case "prior request does not exist":
		return "La solicitud anterior indicada no existe."
	case "prior request must be withdrawn or rejected":
		return "La solicitud anterior debe estar retirada o rechazada antes de reenviar."
	default:
		return message
	}
}
