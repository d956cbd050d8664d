package notifier

import "time"

// Config controls delivery.
type Config struct {
	HistorySize int
}

// Notification is one message plus the metadata recorded with it.
type Notification struct {
	// Kind is "status" for status changes or the review.Kind name for alerts.
	Kind  string
	Cycle string
	Text  string
}

type HistoryItem struct {
	At   time.Time
	Kind string
	Text string
}
