package notification

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Channel names a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelSMS   Channel = "sms"
)

// ParseChannel normalizes a configured channel name.
func ParseChannel(value string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(value))) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelChat:
		return ChannelChat, nil
	case ChannelSMS:
		return ChannelSMS, nil
	}
	return "", fmt.Errorf("notification: unknown channel %q", value)
}

// DeliveryStatus is the terminal state of a delivery attempt. Queued exists
// only transiently; an attempt is always recorded as sent or failed.
type DeliveryStatus string

const (
	StatusQueued DeliveryStatus = "queued"
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Attempt is one delivery try on one channel to one recipient. Attempts are
// immutable once appended to the audit log.
type Attempt struct {
	ID        string
	RequestID string
	Recipient string
	Channel   Channel
	Template  string
	Message   string
	Status    DeliveryStatus
	Detail    string
	SentAt    time.Time
}

// Contact is a notification target with its per-channel addresses.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Address returns the contact's address for the channel, empty when the
// contact cannot be reached on it.
func (c Contact) Address(channel Channel) string {
	switch channel {
	case ChannelEmail:
		return c.Email
	case ChannelChat, ChannelSMS:
		return c.Phone
	}
	return ""
}

// Gateway delivers a rendered message over one channel. Implementations must
// honor context cancellation.
type Gateway interface {
	Send(ctx context.Context, recipient string, channel Channel, message string) error
}

// AuditLog records delivery attempts.
type AuditLog interface {
	Append(ctx context.Context, attempt Attempt) error
}

// AuditQuery reads the recorded attempts back for reporting.
type AuditQuery interface {
	ListRange(ctx context.Context, from, to time.Time) ([]Attempt, error)
	CountByChannelStatus(ctx context.Context) ([]ChannelCount, error)
	Recent(ctx context.Context, limit int) ([]Attempt, error)
}

// ChannelCount is one aggregate row of the delivery report.
type ChannelCount struct {
	Channel Channel
	Status  DeliveryStatus
	Count   int
}
