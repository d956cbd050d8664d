package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryEntry records one notification attempt.
// Keep it compact and schema-stable.
type DeliveryEntry struct {
	At     time.Time `json:"at"`
	Cycle  string    `json:"cycle,omitempty"`
	Kind   string    `json:"kind"`
	Chat   string    `json:"chat"`
	Text   string    `json:"text"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	TookMS int64     `json:"took_ms"`
}
