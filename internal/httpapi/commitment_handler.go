package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

// commitmentRegistry is the schedule-administration surface.
type commitmentRegistry interface {
	CreateCommitment(ctx context.Context, commitment persistence.Commitment) error
	DeleteCommitment(ctx context.Context, id string) error
}

// CommitmentHandler serves the admin-only /commitments endpoints used to
// load the semester schedule.
type CommitmentHandler struct {
	registry    commitmentRegistry
	responder   *responder
	idGenerator func() string
	logger      *slog.Logger
}

// NewCommitmentHandler wires the schedule administration endpoints.
func NewCommitmentHandler(registry commitmentRegistry, idGenerator func() string, logger *slog.Logger) *CommitmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitmentHandler{
		registry:    registry,
		responder:   newResponder(logger),
		idGenerator: idGenerator,
		logger:      logger,
	}
}

type commitmentRequestBody struct {
	RoomCode   string `json:"room_code"`
	Weekday    string `json:"weekday"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
	Subject    string `json:"subject"`
	Instructor string `json:"instructor"`
}

type commitmentDTO struct {
	ID         string `json:"id"`
	RoomCode   string `json:"room_code"`
	Weekday    string `json:"weekday"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
	Subject    string `json:"subject,omitempty"`
	Instructor string `json:"instructor,omitempty"`
}

// Create handles POST /commitments.
func (h *CommitmentHandler) Create(w http.ResponseWriter, req *http.Request) {
	if h == nil || h.registry == nil {
		http.Error(w, "handler not configured", http.StatusInternalServerError)
		return
	}

	var body commitmentRequestBody
	if err := decodeJSONBody(w, req, &body); err != nil {
		h.responder.badRequest(w, "El cuerpo de la petición debe ser JSON válido.")
		return
	}

	logger := handlerLogger(req.Context(), h.logger, "commitment", "Create")

	commitment, err := h.buildCommitment(body)
	if err != nil {
		logger.ErrorContext(req.Context(), "commitment creation failed",
			"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	if err := h.registry.CreateCommitment(req.Context(), commitment); err != nil {
		logger.ErrorContext(req.Context(), "commitment creation failed",
			"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	logger.Info("commitment created",
			slog.String("commitment_id", commitment.ID),
			slog.String("room_code", commitment.RoomCode))
	h.responder.writeJSON(w, http.StatusCreated, toCommitmentDTO(commitment))
}

// Delete handles DELETE /commitments/{id}.
func (h *CommitmentHandler) Delete(w http.ResponseWriter, req *http.Request) {
	id, ok := RequestIDFromContext(req.Context())
	if !ok || id == "" {
		h.responder.badRequest(w, "Debe indicar el identificador del compromiso.")
		return
	}
	if err := h.registry.DeleteCommitment(req.Context(), id); err != nil {
		handlerLogger(req.Context(), h.logger, "commitment", "Delete").
			ErrorContext(req.Context(), "commitment deletion failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}
	h.responder.writeJSON(w, http.StatusNoContent, nil)
}

func (h *CommitmentHandler) buildCommitment(body commitmentRequestBody) (persistence.Commitment, error) {
	fields := make(map[string]string)

	if strings.TrimSpace(body.RoomCode) == "" {
		fields["room_code"] = "El código de sala es obligatorio."
	}

	weekday, ok := parseWeekday(body.Weekday)
	if !ok {
		fields["weekday"] = "El día de la semana no es válido."
	}

	var window timeslot.Window
	if strings.TrimSpace(body.StartTime) == "" || strings.TrimSpace(body.EndTime) == "" {
		fields["window"] = "Las horas de inicio y término son obligatorias."
	} else {
		parsed, err := timeslot.ParseWindow(body.StartTime, body.EndTime)
		if err != nil {
			fields["window"] = "El horario debe indicarse como HH:MM-HH:MM con inicio anterior al término."
		} else {
			window = parsed
		}
	}

	validFrom, fromErr := timeslot.ParseDate(body.ValidFrom)
	if fromErr != nil {
		fields["valid_from"] = "La fecha de inicio de vigencia debe tener el formato YYYY-MM-DD."
	}
	validUntil, untilErr := timeslot.ParseDate(body.ValidUntil)
	if untilErr != nil {
		fields["valid_until"] = "La fecha de término de vigencia debe tener el formato YYYY-MM-DD."
	}
	if fromErr == nil && untilErr == nil && validUntil.Before(validFrom) {
		fields["valid_until"] = "La vigencia debe terminar después de su inicio."
	}

	if len(fields) > 0 {
		return persistence.Commitment{}, &arbitration.ValidationError{FieldErrors: fields}
	}

	return persistence.Commitment{
		ID:          h.idGenerator(),
		RoomCode:    strings.TrimSpace(body.RoomCode),
		Weekday:     weekday,
		StartMinute: window.Start,
		EndMinute:   window.End,
		ValidFrom:   validFrom,
		ValidUntil:  validUntil,
		Subject:     strings.TrimSpace(body.Subject),
		Instructor:  strings.TrimSpace(body.Instructor),
	}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekday accepts an English day name or the numeric form 0 (Sunday)
// through 6 (Saturday).
func parseWeekday(value string) (time.Weekday, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if day, ok := weekdayNames[trimmed]; ok {
		return day, true
	}
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), true
	}
	return 0, false
}

func toCommitmentDTO(commitment persistence.Commitment) commitmentDTO {
	window := timeslot.Window{Start: commitment.StartMinute, End: commitment.EndMinute}
	return commitmentDTO{
		ID:         commitment.ID,
		RoomCode:   commitment.RoomCode,
		Weekday:    strings.ToLower(commitment.Weekday.String()),
		StartTime:  window.StartClock(),
		EndTime:    window.EndClock(),
		ValidFrom:  commitment.ValidFrom.String(),
		ValidUntil: commitment.ValidUntil.String(),
		Subject:    commitment.Subject,
		Instructor: commitment.Instructor,
	}
}
