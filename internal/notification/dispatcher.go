package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/tracing"
)

// defaultSendTimeout bounds a single gateway send. A send that exceeds it is
// recorded as failed, never left queued.
const defaultSendTimeout = 5 * time.Second

// Dispatcher fans a decision out to the configured channels, records every
// attempt in the audit log and waits until all sends reach a terminal status.
// One failing channel never aborts its siblings.
type Dispatcher struct {
	gateway     Gateway
	audit       AuditLog
	renderer    *Renderer
	channels    []Channel
	coordinator Contact
	sendTimeout time.Duration
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDispatcher wires the delivery dependencies. channels defaults to all
// three when empty.
func NewDispatcher(gateway Gateway, audit AuditLog, renderer *Renderer, channels []Channel, coordinator Contact, sendTimeout time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Dispatcher {
	if len(channels) == 0 {
		channels = []Channel{ChannelEmail, ChannelChat, ChannelSMS}
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		gateway:     gateway,
		audit:       audit,
		renderer:    renderer,
		channels:    channels,
		coordinator: coordinator,
		sendTimeout: sendTimeout,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// delivery is one rendered message bound for one recipient address.
type delivery struct {
	recipient string
	channel   Channel
	template  string
	message   string
}

// DispatchDecision notifies the requester of the decision on every
// configured channel, plus the coordinator when the request needs manual
// review. It returns the recorded attempts after all sends finished.
func (d *Dispatcher) DispatchDecision(ctx context.Context, request arbitration.Request, decision arbitration.Decision) ([]Attempt, error) {
	if d == nil || d.gateway == nil || d.renderer == nil {
		return nil, fmt.Errorf("notification dispatcher not configured")
	}

	ctx, span := tracing.StartSpan(ctx, "notification.dispatch", "request_id", request.ID)
	var spanErr error
	defer func() { tracing.EndSpan(span, spanErr) }()

	requester := Contact{
		Name:  request.Requester.Name,
		Email: request.Requester.Email,
		Phone: request.Requester.Phone,
	}

	var deliveries []delivery
	for _, channel := range d.channels {
		address := requester.Address(channel)
		if address == "" {
			continue
		}
		name, message, err := d.renderer.Decision(request, decision, channel)
		if err != nil {
			spanErr = err
			return nil, err
		}
		deliveries = append(deliveries, delivery{recipient: address, channel: channel, template: name, message: message})
	}

	if decision.Outcome == arbitration.OutcomeNeedsReview {
		for _, channel := range d.channels {
			address := d.coordinator.Address(channel)
			if address == "" {
				continue
			}
			name, message, err := d.renderer.CoordinatorNotice(request, decision, channel)
			if err != nil {
				spanErr = err
				return nil, err
			}
			deliveries = append(deliveries, delivery{recipient: address, channel: channel, template: name, message: message})
		}
	}

	attempts, err := d.send(ctx, request.ID, deliveries)
	if err != nil {
		spanErr = err
	}
	return attempts, err
}

// DispatchReminder sends the day-before notice for an approved request.
func (d *Dispatcher) DispatchReminder(ctx context.Context, request arbitration.Request) ([]Attempt, error) {
	if d == nil || d.gateway == nil || d.renderer == nil {
		return nil, fmt.Errorf("notification dispatcher not configured")
	}

	requester := Contact{
		Name:  request.Requester.Name,
		Email: request.Requester.Email,
		Phone: request.Requester.Phone,
	}

	var deliveries []delivery
	for _, channel := range d.channels {
		address := requester.Address(channel)
		if address == "" {
			continue
		}
		name, message, err := d.renderer.Reminder(request, channel)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, delivery{recipient: address, channel: channel, template: name, message: message})
	}

	return d.send(ctx, request.ID, deliveries)
}

// send runs all deliveries concurrently, each bounded by the send timeout,
// and records one attempt per delivery before returning.
func (d *Dispatcher) send(ctx context.Context, requestID string, deliveries []delivery) ([]Attempt, error) {
	if len(deliveries) == 0 {
		return nil, nil
	}

	attempts := make([]Attempt, len(deliveries))
	var wg sync.WaitGroup
	for i, dl := range deliveries {
		wg.Add(1)
		go func(slot int, dl delivery) {
			defer wg.Done()
			attempts[slot] = d.attempt(ctx, requestID, dl)
		}(i, dl)
	}
	wg.Wait()

	// Stable order for callers and tests regardless of send completion order.
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Recipient != attempts[j].Recipient {
			return attempts[i].Recipient < attempts[j].Recipient
		}
		return attempts[i].Channel < attempts[j].Channel
	})

	var firstErr error
	for _, attempt := range attempts {
		if d.audit != nil {
			if err := d.audit.Append(ctx, attempt); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("recording notification attempt: %w", err)
			}
		}
	}
	return attempts, firstErr
}

func (d *Dispatcher) attempt(ctx context.Context, requestID string, dl delivery) Attempt {
	attempt := Attempt{
		ID:        d.idGenerator(),
		RequestID: requestID,
		Recipient: dl.recipient,
		Channel:   dl.channel,
		Template:  dl.template,
		Message:   dl.message,
		Status:    StatusQueued,
		SentAt:    d.now(),
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- d.gateway.Send(sendCtx, dl.recipient, dl.channel, dl.message) }()

	var err error
	select {
	case err = <-errCh:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}

	if err != nil {
		attempt.Status = StatusFailed
		attempt.Detail = err.Error()
		logging.Component(ctx, d.logger, "notification_dispatcher", "request_id", requestID).
			WarnContext(ctx, "delivery failed",
				"channel", string(dl.channel),
				"recipient", dl.recipient,
				"error", err,
			)
	} else {
		attempt.Status = StatusSent
	}
	return attempt
}
