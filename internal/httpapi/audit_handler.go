package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-reservations/internal/notification"
)

// defaultAuditWindow bounds GET /audit when the caller omits the range.
const defaultAuditWindow = 7 * 24 * time.Hour

// deliveryReporter builds the aggregate delivery report.
type deliveryReporter interface {
	Build(ctx context.Context) (notification.Report, error)
}

// AuditHandler serves the /audit endpoints over the notification audit log.
type AuditHandler struct {
	query     notification.AuditQuery
	reporter  deliveryReporter
	responder *responder
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuditHandler wires the audit endpoints. now may be nil and defaults to
// time.Now.
func NewAuditHandler(query notification.AuditQuery, reporter deliveryReporter, now func() time.Time, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &AuditHandler{
		query:     query,
		reporter:  reporter,
		responder: newResponder(logger),
		now:       now,
		logger:    logger,
	}
}

type auditAttemptDTO struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Template  string `json:"template"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	SentAt    string `json:"sent_at"`
}

type channelCountDTO struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}

type reportDTO struct {
	GeneratedAt string            `json:"generated_at"`
	Counts      []channelCountDTO `json:"counts"`
	Recent      []auditAttemptDTO `json:"recent"`
}

// List handles GET /audit?from=&to=. Bounds accept RFC 3339 timestamps or
// plain YYYY-MM-DD dates; the default range is the last seven days.
func (h *AuditHandler) List(w http.ResponseWriter, req *http.Request) {
	if h == nil || h.query == nil {
		http.Error(w, "handler not configured", http.StatusInternalServerError)
		return
	}

	to := h.now()
	from := to.Add(-defaultAuditWindow)

	if raw := req.URL.Query().Get("from"); raw != "" {
		parsed, err := parseTimeBound(raw, false)
		if err != nil {
			h.responder.badRequest(w, "El parámetro from debe ser una fecha YYYY-MM-DD o una marca RFC 3339.")
			return
		}
		from = parsed
	}
	if raw := req.URL.Query().Get("to"); raw != "" {
		parsed, err := parseTimeBound(raw, true)
		if err != nil {
			h.responder.badRequest(w, "El parámetro to debe ser una fecha YYYY-MM-DD o una marca RFC 3339.")
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		h.responder.badRequest(w, "El rango consultado debe comenzar antes de terminar.")
		return
	}

	attempts, err := h.query.ListRange(req.Context(), from, to)
	if err != nil {
		handlerLogger(req.Context(), h.logger, "audit", "List").
			ErrorContext(req.Context(), "audit query failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	out := make([]auditAttemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, toAuditAttemptDTO(attempt))
	}
	h.responder.writeJSON(w, http.StatusOK, map[string]any{
		"from":     from.Format(time.RFC3339),
		"to":       to.Format(time.RFC3339),
		"attempts": out,
	})
}

// Report handles GET /audit/report.
func (h *AuditHandler) Report(w http.ResponseWriter, req *http.Request) {
	if h == nil || h.reporter == nil {
		http.Error(w, "handler not configured", http.StatusInternalServerError)
		return
	}

	report, err := h.reporter.Build(req.Context())
	if err != nil {
		handlerLogger(req.Context(), h.logger, "audit", "Report").
			ErrorContext(req.Context(), "report build failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	dto := reportDTO{
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Counts:      make([]channelCountDTO, 0, len(report.Counts)),
		Recent:      make([]auditAttemptDTO, 0, len(report.Recent)),
	}
	for _, count := range report.Counts {
		dto.Counts = append(dto.Counts, channelCountDTO{
			Channel: string(count.Channel),
			Status:  string(count.Status),
			Count:   count.Count,
		})
	}
	for _, attempt := range report.Recent {
		dto.Recent = append(dto.Recent, toAuditAttemptDTO(attempt))
	}
	h.responder.writeJSON(w, http.StatusOK, dto)
}

// parseTimeBound accepts RFC 3339 or a bare date. Bare dates expand to the
// start of the day, or the end of it for upper bounds.
func parseTimeBound(value string, upper bool) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		return parsed.AddDate(0, 0, 1), nil
	}
	return parsed, nil
}

func toAuditAttemptDTO(attempt notification.Attempt) auditAttemptDTO {
	return auditAttemptDTO{
		ID:        attempt.ID,
		RequestID: attempt.RequestID,
		Recipient: attempt.Recipient,
		Channel:   string(attempt.Channel),
		Template:  attempt.Template,
		Status:    string(attempt.Status),
		Detail:    attempt.Detail,
		SentAt:    attempt.SentAt.Format(time.RFC3339),
	}
}
