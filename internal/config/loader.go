package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the
// reservation service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	SettingsFile     string
	AdminTokenHash   string
	GatewayTimeout   time.Duration
	ReminderInterval time.Duration
	TraceFile        string
	SeedDemo         bool
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:reservations.db?_foreign_keys=on",
		GatewayTimeout:   5 * time.Second,
		ReminderInterval: time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVATIONS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVATIONS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVATIONS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.SettingsFile = strings.TrimSpace(os.Getenv("RESERVATIONS_SETTINGS_FILE"))

	if hash := strings.TrimSpace(os.Getenv("RESERVATIONS_ADMIN_TOKEN_HASH")); hash == "" {
		missing = append(missing, "RESERVATIONS_ADMIN_TOKEN_HASH")
	} else {
		cfg.AdminTokenHash = hash
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("RESERVATIONS_GATEWAY_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "RESERVATIONS_GATEWAY_TIMEOUT")
		} else {
			cfg.GatewayTimeout = timeout
		}
	}

	if intervalValue := strings.TrimSpace(os.Getenv("RESERVATIONS_REMINDER_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "RESERVATIONS_REMINDER_INTERVAL")
		} else {
			cfg.ReminderInterval = interval
		}
	}

	cfg.TraceFile = strings.TrimSpace(os.Getenv("RESERVATIONS_TRACE_FILE"))

	if seedValue := strings.TrimSpace(os.Getenv("RESERVATIONS_SEED_DEMO")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "RESERVATIONS_SEED_DEMO")
		} else {
			cfg.SeedDemo = seed
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores de variables de entorno no válidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
