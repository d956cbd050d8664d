package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"reviewbot/internal/config"
	"reviewbot/internal/poller"
	"reviewbot/internal/practicum"
	"reviewbot/internal/storage"
	kit "reviewbot/internal/transport"
	telegram "reviewbot/internal/transport/telegram/adapter"
	logx "reviewbot/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapPracticumConfig(cfg *config.Config) (practicum.Config, error) {
	// Unset means the default; an explicit "0s" disables the timeout.
	timeout := 30 * time.Second
	if strings.TrimSpace(cfg.Practicum.Timeout) != "" {
		d, err := config.ParseDurationField("practicum.timeout", cfg.Practicum.Timeout)
		if err != nil {
			return practicum.Config{}, err
		}
		timeout = d
	}
	return practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  timeout,
	}, nil
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, kit.ChatTarget, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 15*time.Second)
	if err != nil {
		return telegram.Config{}, kit.ChatTarget{}, err
	}
	target, ok := kit.ParseChatTarget(cfg.Telegram.ChatID)
	if !ok {
		return telegram.Config{}, kit.ChatTarget{}, fmt.Errorf("telegram.chat_id: invalid %q", cfg.Telegram.ChatID)
	}
	target.ThreadID = cfg.Telegram.ThreadID
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: timeout,
	}, target, nil
}

func mapSchedule(cfg *config.Config) (cron.Schedule, error) {
	s, err := poller.ParseSchedule(cfg.Poll.Interval)
	if err != nil {
		return nil, fmt.Errorf("poll.interval: %w", err)
	}
	return s, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "", "none":
		return storage.Config{}, false, nil
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}
