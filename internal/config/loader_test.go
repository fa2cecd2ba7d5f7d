package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"RESERVATIONS_HTTP_PORT",
			"RESERVATIONS_SQLITE_DSN",
			"RESERVATIONS_SETTINGS_FILE",
			"RESERVATIONS_GATEWAY_TIMEOUT",
			"RESERVATIONS_REMINDER_INTERVAL",
			"RESERVATIONS_TRACE_FILE",
			"RESERVATIONS_SEED_DEMO",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const hash = "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"
		t.Setenv("RESERVATIONS_ADMIN_TOKEN_HASH", hash)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:reservations.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AdminTokenHash != hash {
			t.Fatalf("expected admin token hash %q, got %q", hash, cfg.AdminTokenHash)
		}
		if cfg.GatewayTimeout != 5*time.Second {
			t.Fatalf("expected default gateway timeout 5s, got %s", cfg.GatewayTimeout)
		}
		if cfg.ReminderInterval != time.Hour {
			t.Fatalf("expected default reminder interval 1h, got %s", cfg.ReminderInterval)
		}
		if cfg.SeedDemo {
			t.Fatal("expected demo seeding off by default")
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"RESERVATIONS_ADMIN_TOKEN_HASH",
			"RESERVATIONS_HTTP_PORT",
			"RESERVATIONS_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "faltan variables de entorno obligatorias: RESERVATIONS_ADMIN_TOKEN_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and boolean fields", func(t *testing.T) {
		t.Setenv("RESERVATIONS_ADMIN_TOKEN_HASH", "hash-value")
		t.Setenv("RESERVATIONS_HTTP_PORT", "9090")
		t.Setenv("RESERVATIONS_SQLITE_DSN", "file:/tmp/reservations.db")
		t.Setenv("RESERVATIONS_GATEWAY_TIMEOUT", "10s")
		t.Setenv("RESERVATIONS_REMINDER_INTERVAL", "30m")
		t.Setenv("RESERVATIONS_SEED_DEMO", "true")
		t.Setenv("RESERVATIONS_TRACE_FILE", "/tmp/traces.jsonl")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.GatewayTimeout != 10*time.Second {
			t.Fatalf("expected gateway timeout 10s, got %s", cfg.GatewayTimeout)
		}
		if cfg.ReminderInterval != 30*time.Minute {
			t.Fatalf("expected reminder interval 30m, got %s", cfg.ReminderInterval)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/reservations.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if !cfg.SeedDemo {
			t.Fatal("expected demo seeding on")
		}
		if cfg.TraceFile != "/tmp/traces.jsonl" {
			t.Fatalf("unexpected trace file: %q", cfg.TraceFile)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("RESERVATIONS_ADMIN_TOKEN_HASH", "hash-value")
		t.Setenv("RESERVATIONS_HTTP_PORT", "not-a-port")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed port")
		}
		expected := "valores de variables de entorno no válidos: RESERVATIONS_HTTP_PORT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoadSettings(t *testing.T) {

	t.Run("empty path yields defaults", func(t *testing.T) {
		settings, err := LoadSettings("")
		if err != nil {
			t.Fatalf("LoadSettings returned error: %v", err)
		}
		if len(settings.Channels) != 3 {
			t.Fatalf("expected all channels by default, got %v", settings.Channels)
		}
		if len(settings.RoomPool) != 0 {
			t.Fatalf("expected empty room pool, got %v", settings.RoomPool)
		}
	})

	t.Run("parses a settings file", func(t *testing.T) {
		path := t.TempDir() + "/settings.yaml"
		content := `
room_pool: [A102, B201, C301]
channels: [email, sms]
coordinator:
  name: Coordinación de Salas
  email: coordinador@universidad.example
  phone: "912345678"
gateway:
  email:
    url: https://mail.example/v1/send
    api_key: secret
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("writing settings file: %v", err)
		}

		settings, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("LoadSettings returned error: %v", err)
		}
		if len(settings.RoomPool) != 3 || settings.RoomPool[0] != "A102" {
			t.Fatalf("unexpected room pool: %v", settings.RoomPool)
		}
		if len(settings.Channels) != 2 {
			t.Fatalf("unexpected channels: %v", settings.Channels)
		}
		if settings.Coordinator.Email != "coordinador@universidad.example" {
			t.Fatalf("unexpected coordinator: %+v", settings.Coordinator)
		}
		if settings.Gateway["email"].URL != "https://mail.example/v1/send" {
			t.Fatalf("unexpected gateway endpoint: %+v", settings.Gateway)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadSettings("/does/not/exist.yaml"); err == nil {
			t.Fatal("expected error for missing settings file")
		}
	})
}
