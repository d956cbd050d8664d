package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	kit "reviewbot/internal/transport"
)

// Environment variable names.
const (
	EnvPracticumToken    = "PRACTICUM_TOKEN"
	EnvPracticumEndpoint = "PRACTICUM_ENDPOINT"
	EnvTelegramToken     = "TELEGRAM_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvPollInterval      = "REVIEWBOT_POLL_INTERVAL"
	EnvLogLevel          = "REVIEWBOT_LOG_LEVEL"
)

// LoadDotEnv loads KEY=VALUE files into the process environment. Existing
// variables are not overridden and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays non-empty environment values onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Practicum.Token, EnvPracticumToken)
	set(&cfg.Practicum.Endpoint, EnvPracticumEndpoint)
	set(&cfg.Telegram.Token, EnvTelegramToken)
	set(&cfg.Telegram.ChatID, EnvTelegramChatID)
	set(&cfg.Poll.Interval, EnvPollInterval)
	set(&cfg.Logging.Level, EnvLogLevel)
}

// Validate reports every missing or malformed required value at once.
func Validate(cfg *Config) error {
	var errs []error
	if strings.TrimSpace(cfg.Practicum.Token) == "" {
		errs = append(errs, fmt.Errorf("%s is not set", EnvPracticumToken))
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, fmt.Errorf("%s is not set", EnvTelegramToken))
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		errs = append(errs, fmt.Errorf("%s is not set", EnvTelegramChatID))
	} else if _, ok := kit.ParseChatTarget(cfg.Telegram.ChatID); !ok {
		errs = append(errs, fmt.Errorf("%s %q is not a chat id or @username", EnvTelegramChatID, cfg.Telegram.ChatID))
	}
	if _, err := ParseDurationField("practicum.timeout", cfg.Practicum.Timeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("telegram.timeout", cfg.Telegram.Timeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
