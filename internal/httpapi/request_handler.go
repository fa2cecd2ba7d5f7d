package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/notification"
)

const maxBodyBytes = 1 << 20

// reservationService is the arbitration surface the handler depends on.
type reservationService interface {
	Submit(ctx context.Context, input arbitration.RequestInput) (arbitration.Request, arbitration.Decision, error)
	Resolve(ctx context.Context, id string) (arbitration.Request, arbitration.Decision, error)
	Get(ctx context.Context, id string) (arbitration.Request, error)
	Withdraw(ctx context.Context, id string) (arbitration.Request, error)
	Alternatives(ctx context.Context, id string) ([]arbitration.Alternative, error)
}

// decisionNotifier delivers the decision to the involved contacts. Delivery
// problems never fail the booking itself.
type decisionNotifier interface {
	DispatchDecision(ctx context.Context, request arbitration.Request, decision arbitration.Decision) ([]notification.Attempt, error)
}

// RequestHandler serves the /requests endpoints.
type RequestHandler struct {
	service   reservationService
	notifier  decisionNotifier
	responder *responder
	logger    *slog.Logger
}

// NewRequestHandler wires the booking endpoints. The notifier may be nil in
// tests that only exercise arbitration.
func NewRequestHandler(service reservationService, notifier decisionNotifier, logger *slog.Logger) *RequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestHandler{
		service:   service,
		notifier:  notifier,
		responder: newResponder(logger),
		logger:    logger,
	}
}

type submitRequestBody struct {
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	RequesterPhone string `json:"requester_phone"`
	Role           string `json:"role"`
	RoomCode       string `json:"room_code"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Purpose        string `json:"purpose"`
	PriorRequestID string `json:"prior_request_id,omitempty"`
}

type requestDTO struct {
	ID             string  `json:"id"`
	RequesterName  string  `json:"requester_name"`
	RequesterEmail string  `json:"requester_email,omitempty"`
	RequesterPhone string  `json:"requester_phone,omitempty"`
	Role           string  `json:"role"`
	RoomCode       string  `json:"room_code"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Purpose        string  `json:"purpose,omitempty"`
	Priority       int     `json:"priority"`
	Status         string  `json:"status"`
	ReasonCode     string  `json:"reason_code,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Probability    float64 `json:"probability"`
	PriorRequestID string  `json:"prior_request_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	ProcessedAt    string  `json:"processed_at,omitempty"`
	WithdrawnAt    string  `json:"withdrawn_at,omitempty"`
}

type alternativeDTO struct {
	RoomCode  string `json:"room_code"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type warningDTO struct {
	RoomCode string `json:"room_code"`
	Date     string `json:"date"`
	FirstID  string `json:"first_id"`
	SecondID string `json:"second_id"`
}

type decisionDTO struct {
	Outcome      string           `json:"outcome"`
	ReasonCode   string           `json:"reason_code"`
	Reason       string           `json:"reason"`
	Priority     int              `json:"priority"`
	Probability  float64          `json:"probability"`
	Alternatives []alternativeDTO `json:"alternatives,omitempty"`
	Warnings     []warningDTO     `json:"warnings,omitempty"`
	DecidedAt    string           `json:"decided_at"`
}

type attemptDTO struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Template  string `json:"template"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	SentAt    string `json:"sent_at"`
}

type submitResponseBody struct {
	Request       requestDTO   `json:"request"`
	Decision      decisionDTO  `json:"decision"`
	Notifications []attemptDTO `json:"notifications,omitempty"`
}

// Submit handles POST /requests.
func (h *RequestHandler) Submit(w http.ResponseWriter, req *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "handler not configured", http.StatusInternalServerError)
		return
	}
	logger := handlerLogger(req.Context(), h.logger, "request", "Submit")

	var body submitRequestBody
	if err := decodeJSONBody(w, req, &body); err != nil {
		h.responder.badRequest(w, "El cuerpo de la petición debe ser JSON válido.")
		return
	}

	input := arbitration.RequestInput{
		RequesterName:  body.RequesterName,
		RequesterEmail: body.RequesterEmail,
		RequesterPhone: body.RequesterPhone,
		Role:           body.Role,
		RoomCode:       body.RoomCode,
		Date:           body.Date,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Purpose:        body.Purpose,
		PriorRequestID: body.PriorRequestID,
	}

	request, decision, err := h.service.Submit(req.Context(), input)
	if err != nil {
		logger.ErrorContext(req.Context(), "request submission failed",
			"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	var attempts []notification.Attempt
	if h.notifier != nil {
		attempts, err = h.notifier.DispatchDecision(req.Context(), request, decision)
		if err != nil {
			logger.Warn("decision notifications incomplete",
				slog.String("request_id", request.ID),
				slog.String("error", err.Error()))
		}
	}

	h.responder.writeJSON(w, http.StatusCreated, submitResponseBody{
		Request:       toRequestDTO(request),
		Decision:      toDecisionDTO(decision),
		Notifications: toAttemptDTOs(attempts),
	})
}

// Resolve handles POST /requests/{id}/resolve. A request left pending after
// a failed decision write is arbitrated again and the resulting
// notifications are sent; an already decided one yields a conflict.
func (h *RequestHandler) Resolve(w http.ResponseWriter, req *http.Request) {
	id, ok := RequestIDFromContext(req.Context())
	if !ok || id == "" {
		h.responder.badRequest(w, "Debe indicar el identificador de la solicitud.")
		return
	}
	logger := handlerLogger(req.Context(), h.logger, "request", "Resolve")

	request, decision, err := h.service.Resolve(req.Context(), id)
	if err != nil {
		logger.ErrorContext(req.Context(), "request resolution failed",
			"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	var attempts []notification.Attempt
	if h.notifier != nil {
		attempts, err = h.notifier.DispatchDecision(req.Context(), request, decision)
		if err != nil {
			logger.Warn("decision notifications incomplete",
				slog.String("request_id", request.ID),
				slog.String("error", err.Error()))
		}
	}

	logger.Info("request resolved", slog.String("request_id", id),
		slog.String("outcome", string(decision.Outcome)))
	h.responder.writeJSON(w, http.StatusOK, submitResponseBody{
		Request:       toRequestDTO(request),
		Decision:      toDecisionDTO(decision),
		Notifications: toAttemptDTOs(attempts),
	})
}

// Get handles GET /requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, req *http.Request) {
	id, ok := RequestIDFromContext(req.Context())
	if !ok || id == "" {
		h.responder.badRequest(w, "Debe indicar el identificador de la solicitud.")
		return
	}
	request, err := h.service.Get(req.Context(), id)
	if err != nil {
		handlerLogger(req.Context(), h.logger, "request", "Get").
			ErrorContext(req.Context(), "request lookup failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}
	h.responder.writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// Withdraw handles POST /requests/{id}/withdraw.
func (h *RequestHandler) Withdraw(w http.ResponseWriter, req *http.Request) {
	id, ok := RequestIDFromContext(req.Context())
	if !ok || id == "" {
		h.responder.badRequest(w, "Debe indicar el identificador de la solicitud.")
		return
	}
	logger := handlerLogger(req.Context(), h.logger, "request", "Withdraw")
	request, err := h.service.Withdraw(req.Context(), id)
	if err != nil {
		logger.ErrorContext(req.Context(), "request withdrawal failed",
			"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}
	logger.Info("request withdrawn", slog.String("request_id", id))
	h.responder.writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// Alternatives handles GET /requests/{id}/alternatives.
func (h *RequestHandler) Alternatives(w http.ResponseWriter, req *http.Request) {
	id, ok := RequestIDFromContext(req.Context())
	if !ok || id == "" {
		h.responder.badRequest(w, "Debe indicar el identificador de la solicitud.")
		return
	}
	alternatives, err := h.service.Alternatives(req.Context(), id)
	if err != nil {
		handlerLogger(req.Context(), h.logger, "request", "Alternatives").
			ErrorContext(req.Context(), "alternative search failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}
	out := make([]alternativeDTO, 0, len(alternatives))
	for _, alt := range alternatives {
		out = append(out, alternativeDTO{RoomCode: alt.RoomCode, Available: alt.Available, Reason: alt.Reason})
	}
	h.responder.writeJSON(w, http.StatusOK, map[string]any{"alternatives": out})
}

func decodeJSONBody(w http.ResponseWriter, req *http.Request, target any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	decoder := json.NewDecoder(req.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing content")
	}
	return nil
}

func toRequestDTO(request arbitration.Request) requestDTO {
	dto := requestDTO{
		ID:             request.ID,
		RequesterName:  request.Requester.Name,
		RequesterEmail: request.Requester.Email,
		RequesterPhone: request.Requester.Phone,
		Role:           string(request.Role),
		RoomCode:       request.RoomCode,
		Date:           request.Date.String(),
		StartTime:      request.Window.StartClock(),
		EndTime:        request.Window.EndClock(),
		Purpose:        request.Purpose,
		Priority:       request.Priority,
		Status:         string(request.Status),
		ReasonCode:     string(request.ReasonCode),
		Reason:         request.Reason,
		Probability:    request.Probability,
		PriorRequestID: request.PriorRequestID,
		CreatedAt:      request.CreatedAt.Format(time.RFC3339),
	}
	if request.ProcessedAt != nil {
		dto.ProcessedAt = request.ProcessedAt.Format(time.RFC3339)
	}
	if request.WithdrawnAt != nil {
		dto.WithdrawnAt = request.WithdrawnAt.Format(time.RFC3339)
	}
	return dto
}

func toDecisionDTO(decision arbitration.Decision) decisionDTO {
	dto := decisionDTO{
		Outcome:     string(decision.Outcome),
		ReasonCode:  string(decision.ReasonCode),
		Reason:      decision.Reason,
		Priority:    decision.Priority,
		Probability: decision.Probability,
		DecidedAt:   decision.DecidedAt.Format(time.RFC3339),
	}
	for _, alt := range decision.Alternatives {
		dto.Alternatives = append(dto.Alternatives, alternativeDTO{
			RoomCode:  alt.RoomCode,
			Available: alt.Available,
			Reason:    alt.Reason,
		})
	}
	for _, warning := range decision.Warnings {
		dto.Warnings = append(dto.Warnings, warningDTO{
			RoomCode: warning.RoomCode,
			Date:     warning.Date.String(),
			FirstID:  warning.FirstID,
			SecondID: warning.SecondID,
		})
	}
	return dto
}

func toAttemptDTOs(attempts []notification.Attempt) []attemptDTO {
	if len(attempts) == 0 {
		return nil
	}
	out := make([]attemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, attemptDTO{
			Recipient: attempt.Recipient,
			Channel:   string(attempt.Channel),
			Template:  attempt.Template,
			Status:    string(attempt.Status),
			Detail:    attempt.Detail,
			SentAt:    attempt.SentAt.Format(time.RFC3339),
		})
	}
	return out
}
