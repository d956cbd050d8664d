package config

import (
	"strings"

	logx "reviewbot/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe structured
// fields for logging. Tokens are never included, only whether they changed.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Practicum.Token != newCfg.Practicum.Token ||
		strings.TrimSpace(oldCfg.Practicum.Endpoint) != strings.TrimSpace(newCfg.Practicum.Endpoint) ||
		oldCfg.Practicum.Timeout != newCfg.Practicum.Timeout {
		changed = append(changed, "practicum")
		attrs = append(attrs,
			logx.String("practicum.endpoint", strings.TrimSpace(newCfg.Practicum.Endpoint)),
			logx.String("practicum.timeout", newCfg.Practicum.Timeout),
			logx.Bool("practicum.token_changed", oldCfg.Practicum.Token != newCfg.Practicum.Token),
		)
	}

	if oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		oldCfg.Telegram.ChatID != newCfg.Telegram.ChatID ||
		oldCfg.Telegram.ThreadID != newCfg.Telegram.ThreadID ||
		oldCfg.Telegram.APIURL != newCfg.Telegram.APIURL ||
		oldCfg.Telegram.Timeout != newCfg.Telegram.Timeout {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.chat_id", newCfg.Telegram.ChatID),
			logx.Int("telegram.thread_id", newCfg.Telegram.ThreadID),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
		)
	}

	if strings.TrimSpace(oldCfg.Poll.Interval) != strings.TrimSpace(newCfg.Poll.Interval) {
		changed = append(changed, "poll")
		attrs = append(attrs, logx.String("poll.interval", newCfg.Poll.Interval))
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oldSt, newSt := StorageConfig{}, StorageConfig{}
	if oldCfg.Storage != nil {
		oldSt = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		newSt = *newCfg.Storage
	}
	if oldSt != newSt {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.driver", newSt.Driver))
	}

	return changed, attrs
}

// HotReloadable reports whether every changed section can be applied
// without a restart. Only logging is applied live.
func HotReloadable(changed []string) bool {
	for _, c := range changed {
		if c != "logging" {
			return false
		}
	}
	return true
}
