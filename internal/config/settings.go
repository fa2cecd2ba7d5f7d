package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ContactSettings identifies a notification target.
type ContactSettings struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

// EndpointSettings is one provider webhook.
type EndpointSettings struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Settings holds the file-based configuration: the alternative room pool,
// active channels and provider endpoints.
type Settings struct {
	RoomPool    []string                    `yaml:"room_pool"`
	Channels    []string                    `yaml:"channels"`
	Coordinator ContactSettings             `yaml:"coordinator"`
	Gateway     map[string]EndpointSettings `yaml:"gateway"`
}

// DefaultSettings returns the built-in configuration used when no settings
// file is given: all channels on the console gateway and an empty room pool,
// which makes the alternative finder fall back to the catalog.
func DefaultSettings() Settings {
	return Settings{
		Channels: []string{"email", "chat", "sms"},
	}
}

// LoadSettings reads and validates the YAML settings file. An empty path
// yields the defaults.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	if len(settings.Channels) == 0 {
		settings.Channels = DefaultSettings().Channels
	}
	return settings, nil
}
