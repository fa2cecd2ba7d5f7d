package notification

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/example/campus-reservations/internal/arbitration"
)

// Template names, one per decision kind and channel. The email variants are
// long-form, chat is compact, sms is a single line.
const (
	templateApprovedEmail    = "approved_email"
	templateApprovedChat     = "approved_chat"
	templateApprovedSMS      = "approved_sms"
	templateRejectedEmail    = "rejected_email"
	templateRejectedChat     = "rejected_chat"
	templateRejectedSMS      = "rejected_sms"
	templateReviewEmail      = "needs_review_email"
	templateReviewChat       = "needs_review_chat"
	templateReviewSMS        = "needs_review_sms"
	templateCoordinatorEmail = "coordinator_review_email"
	templateCoordinatorChat  = "coordinator_review_chat"
	templateCoordinatorSMS   = "coordinator_review_sms"
	templateReminderEmail    = "reminder_email"
	templateReminderChat     = "reminder_chat"
	templateReminderSMS      = "reminder_sms"
)

// User-facing notification bodies are in Spanish, matching the audience of
// the reservation service.
var templateBodies = map[string]string{
	templateApprovedEmail: `Sistema de Reservas de Salas

SOLICITUD APROBADA

Su solicitud de sala ha sido aprobada automáticamente.

Detalles de la reserva:
- Solicitante: {{.Requester}}
- Sala: {{.Room}}
- Fecha: {{.Date}}
- Horario: {{.Start}} - {{.End}}
- Motivo: {{.Purpose}}
- Prioridad: {{.Priority}}

Para consultas contacte a {{.Coordinator}}.

Este es un mensaje automático, por favor no responder.`,

	templateApprovedChat: `Sistema de Reservas

SOLICITUD APROBADA

Sala: {{.Room}}
Fecha: {{.Date}}
Horario: {{.Start}} - {{.End}}
Prioridad: {{.Priority}}

Mensaje automático del sistema de reservas.`,

	templateApprovedSMS: `Reserva aprobada: sala {{.Room}}, {{.Date}} {{.Start}}-{{.End}}.`,

	templateRejectedEmail: `Sistema de Reservas de Salas

SOLICITUD NO APROBADA

Motivo: {{.Reason}}

Detalles de la solicitud:
- Solicitante: {{.Requester}}
- Sala solicitada: {{.Room}}
- Fecha: {{.Date}}
- Horario: {{.Start}} - {{.End}}

Alternativas sugeridas:
{{.AlternativesText}}

Para una nueva solicitud contacte a {{.Coordinator}}.

Este es un mensaje automático, por favor no responder.`,

	templateRejectedChat: `Sistema de Reservas

SOLICITUD NO APROBADA

Sala: {{.Room}}
Fecha: {{.Date}}
Horario: {{.Start}} - {{.End}}
Motivo: {{.Reason}}

Alternativas disponibles:
{{.AlternativesText}}

Mensaje automático del sistema de reservas.`,

	templateRejectedSMS: `Reserva no aprobada: sala {{.Room}}, {{.Date}} {{.Start}}-{{.End}}. {{.Reason}}.`,

	templateReviewEmail: `Sistema de Reservas de Salas

SOLICITUD EN REVISIÓN

Su solicitud requiere revisión manual por el coordinador de salas.

Motivo: {{.Reason}}

Detalles de la solicitud:
- Solicitante: {{.Requester}}
- Sala: {{.Room}}
- Fecha: {{.Date}}
- Horario: {{.Start}} - {{.End}}

Recibirá una respuesta del coordinador ({{.Coordinator}}).

Este es un mensaje automático, por favor no responder.`,

	templateReviewChat: `Sistema de Reservas

SOLICITUD EN REVISIÓN

Sala: {{.Room}}
Fecha: {{.Date}}
Horario: {{.Start}} - {{.End}}
Motivo: {{.Reason}}

El coordinador de salas revisará su solicitud.`,

	templateReviewSMS: `Solicitud en revisión: sala {{.Room}}, {{.Date}} {{.Start}}-{{.End}}.`,

	templateCoordinatorEmail: `Sistema de Reservas - Notificación al Coordinador

Solicitud pendiente de revisión manual.

- Solicitud: {{.RequestID}}
- Solicitante: {{.Requester}}
- Sala: {{.Room}}
- Fecha: {{.Date}}
- Horario: {{.Start}} - {{.End}}
- Prioridad: {{.Priority}}
- Motivo de revisión: {{.Reason}}

Este es un mensaje automático del sistema.`,

	templateCoordinatorChat: `Revisión pendiente: solicitud {{.RequestID}}, sala {{.Room}}, {{.Date}} {{.Start}}-{{.End}}, prioridad {{.Priority}}.`,

	templateCoordinatorSMS: `Revisión pendiente: solicitud {{.RequestID}}, sala {{.Room}}, {{.Date}}.`,

	templateReminderEmail: `Sistema de Reservas de Salas

RECORDATORIO: su reserva es mañana.

- Sala: {{.Room}}
- Fecha: {{.Date}}
- Horario: {{.Start}} - {{.End}}
- Motivo: {{.Purpose}}

Si necesita cancelar, contacte a {{.Coordinator}}.`,

	templateReminderChat: `Sistema de Reservas

RECORDATORIO: 24 HORAS

Su reserva de sala es mañana:

Sala: {{.Room}}
Fecha: {{.Date}}
Horario: {{.Start}} - {{.End}}
Motivo: {{.Purpose}}

Si necesita cancelar, contacte a {{.Coordinator}}.`,

	templateReminderSMS: `Recordatorio: reserva sala {{.Room}} mañana {{.Date}} {{.Start}}-{{.End}}.`,
}

type templateData struct {
	RequestID        string
	Requester        string
	Room             string
	Date             string
	Start            string
	End              string
	Purpose          string
	Priority         int
	Reason           string
	AlternativesText string
	Coordinator      string
}

// Renderer turns a request and its decision into per-channel message bodies.
type Renderer struct {
	templates   *template.Template
	coordinator string
}

// NewRenderer parses the built-in templates. coordinatorContact appears in
// the requester-facing bodies as the escalation address.
func NewRenderer(coordinatorContact string) (*Renderer, error) {
	root := template.New("notification")
	for name, body := range templateBodies {
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
	}
	if coordinatorContact == "" {
		coordinatorContact = "el coordinador de salas"
	}
	return &Renderer{templates: root, coordinator: coordinatorContact}, nil
}

// Decision renders the requester-facing message for the given channel.
func (r *Renderer) Decision(request arbitration.Request, decision arbitration.Decision, channel Channel) (string, string, error) {
	name, err := decisionTemplate(decision.Outcome, channel)
	if err != nil {
		return "", "", err
	}
	return r.render(name, r.data(request, decision))
}

// CoordinatorNotice renders the escalation message sent to the coordinator
// when a request needs manual review.
func (r *Renderer) CoordinatorNotice(request arbitration.Request, decision arbitration.Decision, channel Channel) (string, string, error) {
	name, err := channelVariant("coordinator review", channel, templateCoordinatorEmail, templateCoordinatorChat, templateCoordinatorSMS)
	if err != nil {
		return "", "", err
	}
	return r.render(name, r.data(request, decision))
}

// Reminder renders the day-before notice for an approved request.
func (r *Renderer) Reminder(request arbitration.Request, channel Channel) (string, string, error) {
	name, err := channelVariant("reminder", channel, templateReminderEmail, templateReminderChat, templateReminderSMS)
	if err != nil {
		return "", "", err
	}
	return r.render(name, r.data(request, arbitration.Decision{}))
}

func (r *Renderer) render(name string, data templateData) (string, string, error) {
	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return name, buf.String(), nil
}

func (r *Renderer) data(request arbitration.Request, decision arbitration.Decision) templateData {
	return templateData{
		RequestID:        request.ID,
		Requester:        request.Requester.Name,
		Room:             request.RoomCode,
		Date:             request.Date.String(),
		Start:            request.Window.StartClock(),
		End:              request.Window.EndClock(),
		Purpose:          request.Purpose,
		Priority:         request.Priority,
		Reason:           localizeReason(decision.ReasonCode),
		AlternativesText: formatAlternatives(decision.Alternatives),
		Coordinator:      r.coordinator,
	}
}

func decisionTemplate(outcome arbitration.Outcome, channel Channel) (string, error) {
	switch outcome {
	case arbitration.OutcomeApproved:
		return channelVariant("approved", channel, templateApprovedEmail, templateApprovedChat, templateApprovedSMS)
	case arbitration.OutcomeRejected:
		return channelVariant("rejected", channel, templateRejectedEmail, templateRejectedChat, templateRejectedSMS)
	case arbitration.OutcomeNeedsReview:
		return channelVariant("needs review", channel, templateReviewEmail, templateReviewChat, templateReviewSMS)
	}
	return "", fmt.Errorf("notification: no template for outcome %q", outcome)
}

func channelVariant(kind string, channel Channel, email, chat, sms string) (string, error) {
	switch channel {
	case ChannelEmail:
		return email, nil
	case ChannelChat:
		return chat, nil
	case ChannelSMS:
		return sms, nil
	}
	return "", fmt.Errorf("notification: no %s template for channel %q", kind, channel)
}

func localizeReason(code arbitration.ReasonCode) string {
	switch code {
	case arbitration.ReasonNoConflicts:
		return "Sin conflictos detectados"
	case arbitration.ReasonConflictReview:
		return "Conflicto detectado, requiere revisión del coordinador"
	case arbitration.ReasonConflictInsufficient:
		return "Conflicto detectado, prioridad insuficiente"
	case arbitration.ReasonScheduleUnavailable:
		return "Horario no disponible para verificación, requiere revisión manual"
	}
	return string(code)
}

func formatAlternatives(alternatives []arbitration.Alternative) string {
	if len(alternatives) == 0 {
		return "- No hay alternativas disponibles en este momento"
	}
	lines := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		note := alt.Reason
		if note == "" {
			note = "Disponible en el mismo horario"
		}
		lines = append(lines, fmt.Sprintf("- Sala %s: %s", alt.RoomCode, note))
	}
	return strings.Join(lines, "\n")
}
