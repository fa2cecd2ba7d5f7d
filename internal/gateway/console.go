package gateway

import (
	"context"
	"log/slog"

	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/notification"
)

// ConsoleGateway logs deliveries instead of sending them. It is the default
// for local runs without provider credentials.
type ConsoleGateway struct {
	logger *slog.Logger
}

func NewConsoleGateway(logger *slog.Logger) *ConsoleGateway {
	return &ConsoleGateway{logger: logger}
}

func (g *ConsoleGateway) Send(ctx context.Context, recipient string, channel notification.Channel, message string) error {
	preview := message
	if len(preview) > 120 {
		preview = preview[:120]
	}
	logging.Component(ctx, g.logger, "console_gateway").
		InfoContext(ctx, "notification delivered",
			"channel", string(channel),
			"recipient", recipient,
			"preview", preview,
		)
	return nil
}
