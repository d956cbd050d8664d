// Package storage provides the optional delivery journal.
//
// Every notification attempt (status change or error alert) is appended with
// its outcome. The journal is write-only from the bot's point of view: it is
// never read back to restore session state after a restart.
package storage
