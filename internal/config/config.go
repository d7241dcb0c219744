package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"

type Config struct {
	Port              string        `yaml:"port"`
	APIKey            string        `yaml:"gemini_api_key"`
	Model             string        `yaml:"gemini_model"`
	LiveURL           string        `yaml:"gemini_live_url"`
	Subprotocol       string        `yaml:"gemini_subprotocol"`
	SystemInstruction string        `yaml:"system_instruction"`
	Converter         string        `yaml:"converter"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`

	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		Model:             "models/gemini-2.0-flash-exp",
		LiveURL:           DefaultLiveURL,
		SystemInstruction: "You are a helpful assistant.",
		Converter:         "linear",
		HandshakeTimeout:  10 * time.Second,
		LogLevel:          "info",
		LogMaxSizeMB:      50,
		LogMaxBackups:     3,
		LogMaxAgeDays:     14,
	}
}

// Load reads the environment on top of the optional YAML file at path.
// Environment variables win over the file.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path == "" {
		path = os.Getenv("BRIDGE_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.APIKey = getenv("GEMINI_API_KEY", cfg.APIKey)
	cfg.Model = getenv("GEMINI_MODEL", cfg.Model)
	cfg.LiveURL = getenv("GEMINI_LIVE_URL", cfg.LiveURL)
	cfg.Subprotocol = getenv("GEMINI_SUBPROTOCOL", cfg.Subprotocol)
	cfg.SystemInstruction = getenv("SYSTEM_INSTRUCTION", cfg.SystemInstruction)
	cfg.Converter = getenv("CONVERTER", cfg.Converter)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getenv("LOG_FILE", cfg.LogFile)

	var err error
	if cfg.HandshakeTimeout, err = getduration("HANDSHAKE_TIMEOUT", cfg.HandshakeTimeout); err != nil {
		return cfg, err
	}
	if cfg.LogMaxSizeMB, err = getint("LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB); err != nil {
		return cfg, err
	}
	if cfg.LogMaxBackups, err = getint("LOG_MAX_BACKUPS", cfg.LogMaxBackups); err != nil {
		return cfg, err
	}
	if cfg.LogMaxAgeDays, err = getint("LOG_MAX_AGE_DAYS", cfg.LogMaxAgeDays); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings a live session needs.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("GEMINI_MODEL is required"))
	}
	if c.LiveURL == "" {
		errs = append(errs, errors.New("GEMINI_LIVE_URL is required"))
	}
	switch c.Converter {
	case "", "linear", "high":
	default:
		errs = append(errs, fmt.Errorf("CONVERTER %q: want linear or high", c.Converter))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	if c.HandshakeTimeout <= 0 {
		errs = append(errs, errors.New("HANDSHAKE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getduration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := time.ParseDuration(v)
	if err != nil {
		return d, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
