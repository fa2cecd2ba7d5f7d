package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/campus-reservations/internal/notification"
)

func TestWebhookGateway_Send(t *testing.T) {
	t.Parallel()

	t.Run("posts payload with auth header", func(t *testing.T) {
		t.Parallel()

		var got webhookPayload
		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decoding payload: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		gateway := NewWebhookGateway(map[notification.Channel]Endpoint{
			notification.ChannelEmail: {URL: server.URL, APIKey: "secret"},
		}, nil)

		err := gateway.Send(context.Background(), "garcia@universidad.example", notification.ChannelEmail, "hola")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Recipient != "garcia@universidad.example" || got.Channel != "email" || got.Message != "hola" {
			t.Fatalf("unexpected payload: %+v", got)
		}
		if auth != "Bearer secret" {
			t.Fatalf("authorization header = %q", auth)
		}
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		gateway := NewWebhookGateway(map[notification.Channel]Endpoint{
			notification.ChannelSMS: {URL: server.URL},
		}, nil)

		if err := gateway.Send(context.Background(), "912345678", notification.ChannelSMS, "hola"); err == nil {
			t.Fatal("expected error for non-2xx response")
		}
	})

	t.Run("unconfigured channel is an error", func(t *testing.T) {
		t.Parallel()

		gateway := NewWebhookGateway(nil, nil)
		if err := gateway.Send(context.Background(), "912345678", notification.ChannelChat, "hola"); err == nil {
			t.Fatal("expected error for unconfigured channel")
		}
	})

	t.Run("canceled context aborts the send", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		gateway := NewWebhookGateway(map[notification.Channel]Endpoint{
			notification.ChannelEmail: {URL: server.URL},
		}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := gateway.Send(ctx, "garcia@universidad.example", notification.ChannelEmail, "hola"); err == nil {
			t.Fatal("expected error when the context is canceled")
		}
	})
}

func TestConsoleGateway_Send(t *testing.T) {
	t.Parallel()

	gateway := NewConsoleGateway(nil)
	if err := gateway.Send(context.Background(), "912345678", notification.ChannelSMS, "hola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
