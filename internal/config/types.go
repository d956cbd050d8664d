package config

// Config is the on-disk configuration. Every field may also come from the
// environment (see ApplyEnv); the environment wins.
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type PracticumConfig struct {
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// Timeout is a Go duration string (e.g. "30s"). Empty means 30s and "0s" disables the client timeout.
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	// ChatID is a numeric chat id or an @username.
	ChatID   string `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"`
	// Timeout is a Go duration string (e.g. "15s").
	Timeout string `json:"timeout,omitempty"`
}

// PollConfig controls the loop cadence.
//
// Interval accepts a Go duration ("10m"), HH:MM ("00:10") or a cron
// expression ("*/10 * * * *", "@every 10m").
type PollConfig struct {
	Interval string `json:"interval,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional delivery journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/deliveries.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Practicum: PracticumConfig{Timeout: "30s"},
		Telegram:  TelegramConfig{Timeout: "15s"},
		Poll:      PollConfig{Interval: "10m"},
		Logging:   LoggingConfig{Level: "DEBUG", Console: true},
	}
}
