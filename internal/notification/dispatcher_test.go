package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/timeslot"
)

type sentMessage struct {
	Recipient string
	Channel   Channel
	Message   string
}

// recordingGateway captures sends and can fail or hang selected channels.
type recordingGateway struct {
	mu       sync.Mutex
	sent     []sentMessage
	failOn   map[Channel]error
	hangOn   map[Channel]bool
}

func (g *recordingGateway) Send(ctx context.Context, recipient string, channel Channel, message string) error {
	if g.hangOn[channel] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err, ok := g.failOn[channel]; ok {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{Recipient: recipient, Channel: channel, Message: message})
	return nil
}

type recordingAuditLog struct {
	mu       sync.Mutex
	attempts []Attempt
	err      error
}

func (l *recordingAuditLog) Append(ctx context.Context, attempt Attempt) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	return nil
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer("coordinador@universidad.example")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return renderer
}

func testRequest(t *testing.T) arbitration.Request {
	t.Helper()
	date, err := timeslot.ParseDate("2025-10-15")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	window, err := timeslot.ParseWindow("10:00", "12:00")
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return arbitration.Request{
		ID: "req-1",
		Requester: arbitration.Requester{
			Name:  "Dr. García",
			Email: "garcia@universidad.example",
			Phone: "912345678",
		},
		RoomCode: "A101",
		Date:     date,
		Window:   window,
		Purpose:  "final exam",
		Priority: 120,
	}
}

func approvedDecision() arbitration.Decision {
	return arbitration.Decision{
		RequestID:  "req-1",
		Outcome:    arbitration.OutcomeApproved,
		ReasonCode: arbitration.ReasonNoConflicts,
		Reason:     "no conflicts",
		Priority:   120,
	}
}

func sequenceIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("attempt-%d", n)
	}
}

func newTestDispatcher(t *testing.T, gateway Gateway, audit AuditLog, channels []Channel, coordinator Contact, timeout time.Duration) *Dispatcher {
	t.Helper()
	return NewDispatcher(gateway, audit, testRenderer(t), channels, coordinator, timeout, sequenceIDs(), nil, nil)
}

func TestDispatcher_OneAttemptPerChannelAndRecipient(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{}
	audit := &recordingAuditLog{}
	dispatcher := newTestDispatcher(t, gateway, audit, nil, Contact{}, 0)

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), approvedDecision())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want one per channel", len(attempts))
	}
	if len(audit.attempts) != len(attempts) {
		t.Fatalf("audit got %d attempts, want %d", len(audit.attempts), len(attempts))
	}

	seen := map[Channel]bool{}
	for _, attempt := range attempts {
		if attempt.Status != StatusSent {
			t.Fatalf("attempt on %s = %s, want sent", attempt.Channel, attempt.Status)
		}
		if attempt.RequestID != "req-1" {
			t.Fatalf("attempt request id = %q", attempt.RequestID)
		}
		if attempt.ID == "" {
			t.Fatal("attempt id not assigned")
		}
		seen[attempt.Channel] = true
	}
	for _, channel := range []Channel{ChannelEmail, ChannelChat, ChannelSMS} {
		if !seen[channel] {
			t.Fatalf("no attempt on %s", channel)
		}
	}
}

func TestDispatcher_FailedChannelDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{failOn: map[Channel]error{
		ChannelSMS: errors.New("provider unreachable"),
	}}
	audit := &recordingAuditLog{}
	dispatcher := newTestDispatcher(t, gateway, audit, nil, Contact{}, 0)

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), approvedDecision())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byChannel := map[Channel]Attempt{}
	for _, attempt := range attempts {
		byChannel[attempt.Channel] = attempt
	}
	if byChannel[ChannelSMS].Status != StatusFailed {
		t.Fatalf("sms status = %s, want failed", byChannel[ChannelSMS].Status)
	}
	if byChannel[ChannelSMS].Detail == "" {
		t.Fatal("failed attempt carries no detail")
	}
	if byChannel[ChannelEmail].Status != StatusSent || byChannel[ChannelChat].Status != StatusSent {
		t.Fatal("sibling channels affected by sms failure")
	}
	// The failure is still audited.
	if len(audit.attempts) != 3 {
		t.Fatalf("audit got %d attempts, want 3", len(audit.attempts))
	}
}

func TestDispatcher_TimeoutEndsAsFailedNotQueued(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{hangOn: map[Channel]bool{ChannelEmail: true}}
	audit := &recordingAuditLog{}
	dispatcher := newTestDispatcher(t, gateway, audit, []Channel{ChannelEmail}, Contact{}, 20*time.Millisecond)

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), approvedDecision())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(attempts))
	}
	if attempts[0].Status != StatusFailed {
		t.Fatalf("status = %s, want failed after timeout", attempts[0].Status)
	}
	if attempts[0].Status == StatusQueued {
		t.Fatal("attempt left queued")
	}
}

func TestDispatcher_CoordinatorCopiedOnReview(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{}
	audit := &recordingAuditLog{}
	coordinator := Contact{Name: "Coordinación", Email: "coordinador@universidad.example"}
	dispatcher := newTestDispatcher(t, gateway, audit, []Channel{ChannelEmail}, coordinator, 0)

	decision := approvedDecision()
	decision.Outcome = arbitration.OutcomeNeedsReview
	decision.ReasonCode = arbitration.ReasonConflictReview

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), decision)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want requester plus coordinator", len(attempts))
	}

	recipients := map[string]bool{}
	for _, attempt := range attempts {
		recipients[attempt.Recipient] = true
	}
	if !recipients["coordinador@universidad.example"] {
		t.Fatal("coordinator not notified on review")
	}
	if !recipients["garcia@universidad.example"] {
		t.Fatal("requester not notified on review")
	}

	// An approved decision does not copy the coordinator.
	gateway2 := &recordingGateway{}
	dispatcher2 := newTestDispatcher(t, gateway2, &recordingAuditLog{}, []Channel{ChannelEmail}, coordinator, 0)
	attempts, err = dispatcher2.DispatchDecision(context.Background(), testRequest(t), approvedDecision())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("approved decision produced %d attempts, want 1", len(attempts))
	}
}

func TestDispatcher_SkipsChannelsWithoutAddress(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{}
	dispatcher := newTestDispatcher(t, gateway, &recordingAuditLog{}, nil, Contact{}, 0)

	request := testRequest(t)
	request.Requester.Phone = ""

	attempts, err := dispatcher.DispatchDecision(context.Background(), request, approvedDecision())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want email only", len(attempts))
	}
	if attempts[0].Channel != ChannelEmail {
		t.Fatalf("channel = %s, want email", attempts[0].Channel)
	}
}

func TestDispatcher_RejectionMessageCarriesAlternatives(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{}
	dispatcher := newTestDispatcher(t, gateway, &recordingAuditLog{}, []Channel{ChannelEmail}, Contact{}, 0)

	decision := approvedDecision()
	decision.Outcome = arbitration.OutcomeRejected
	decision.ReasonCode = arbitration.ReasonConflictInsufficient
	decision.Alternatives = []arbitration.Alternative{
		{RoomCode: "A102", Available: true},
		{RoomCode: "B201", Available: true},
	}

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), decision)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	message := attempts[0].Message
	for _, room := range []string{"A102", "B201"} {
		if !strings.Contains(message, room) {
			t.Fatalf("rejection message missing alternative %s:\n%s", room, message)
		}
	}
	if !strings.Contains(message, "prioridad insuficiente") {
		t.Fatalf("rejection message missing localized reason:\n%s", message)
	}
}

func TestDispatcher_AuditFailureSurfacesAfterAllSends(t *testing.T) {
	t.Parallel()

	gateway := &recordingGateway{}
	audit := &recordingAuditLog{err: errors.New("audit store down")}
	dispatcher := newTestDispatcher(t, gateway, audit, nil, Contact{}, 0)

	attempts, err := dispatcher.DispatchDecision(context.Background(), testRequest(t), approvedDecision())
	if err == nil {
		t.Fatal("expected audit failure to surface")
	}
	// Sends still ran to completion.
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if len(gateway.sent) != 3 {
		t.Fatalf("gateway sends = %d, want 3", len(gateway.sent))
	}
}
