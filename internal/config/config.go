package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	ServerURL string `yaml:"server_url" env:"STUDYSYNC_SERVER" env-default:"http://localhost:8000"`
	SocketURL string `yaml:"socket_url" env:"STUDYSYNC_SOCKET" env-default:"ws://localhost:8000/ws"`
	Token     string `yaml:"token" env:"STUDYSYNC_TOKEN"`

	ReconnectAttempts int           `yaml:"reconnect_attempts" env:"STUDYSYNC_RECONNECT_ATTEMPTS" env-default:"5"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" env:"STUDYSYNC_RECONNECT_DELAY" env-default:"2s"`
}

// Load reads an optional YAML file with environment overrides; an empty
// path or a missing file falls back to environment only.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return cfg, fmt.Errorf("read env: %w", err)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	return cfg, nil
}
