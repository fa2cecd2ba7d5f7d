// Package gateway provides notification delivery boundaries: an HTTP webhook
// gateway for real providers and a console gateway for local runs.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/campus-reservations/internal/notification"
)

// defaultClientTimeout applies when the caller does not supply a client.
const defaultClientTimeout = 10 * time.Second

// Endpoint is one provider webhook.
type Endpoint struct {
	URL    string
	APIKey string
}

// WebhookGateway delivers messages by POSTing JSON to per-channel provider
// endpoints.
type WebhookGateway struct {
	endpoints map[notification.Channel]Endpoint
	client    *http.Client
}

// NewWebhookGateway wires the gateway. client may be nil.
func NewWebhookGateway(endpoints map[notification.Channel]Endpoint, client *http.Client) *WebhookGateway {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &WebhookGateway{endpoints: endpoints, client: client}
}

type webhookPayload struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
}

// Send posts the message to the channel's endpoint. A missing endpoint or a
// non-2xx response is an error; the dispatcher records it as a failed
// attempt.
func (g *WebhookGateway) Send(ctx context.Context, recipient string, channel notification.Channel, message string) error {
	endpoint, ok := g.endpoints[channel]
	if !ok || endpoint.URL == "" {
		return fmt.Errorf("gateway: no endpoint configured for channel %q", channel)
	}

	body, err := json.Marshal(webhookPayload{
		Recipient: recipient,
		Channel:   string(channel),
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("gateway: encoding payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: building request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if endpoint.APIKey != "" {
		request.Header.Set("Authorization", "Bearer "+endpoint.APIKey)
	}

	response, err := g.client.Do(request)
	if err != nil {
		return fmt.Errorf("gateway: sending to %s provider: %w", channel, err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("gateway: %s provider returned status %d", channel, response.StatusCode)
	}
	return nil
}
