package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"reviewbot/internal/review"
	"reviewbot/internal/storage"
	kit "reviewbot/internal/transport"
	logx "reviewbot/pkg/logx"
)

var ErrNoTarget = errors.New("notifier: chat target is not set")

// Service sends notifications to a single chat.
//
// It is safe for concurrent use, although the poll loop calls it from one goroutine.
type Service struct {
	log    logx.Logger
	sender kit.Sender
	target kit.ChatTarget
	store  storage.Store
	cfg    Config

	hmu     sync.Mutex
	history []HistoryItem
	sent    uint64
	failed  uint64
}

func New(cfg Config, sender kit.Sender, target kit.ChatTarget, log logx.Logger, store storage.Store) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return &Service{
		log:    log,
		sender: sender,
		target: target,
		store:  store,
		cfg:    cfg,
	}
}

// Send delivers plain text to the configured chat.
func (s *Service) Send(ctx context.Context, text string) error {
	return s.Deliver(ctx, Notification{Kind: "message", Text: text})
}

// Deliver sends n and records the attempt. Any transport failure is returned
// as a review.KindDeliveryFailed error wrapping the cause.
func (s *Service) Deliver(ctx context.Context, n Notification) error {
	if s.sender == nil || s.target.IsZero() {
		return review.DeliveryFailed(ErrNoTarget)
	}
	start := time.Now()
	_, err := s.sender.SendText(ctx, s.target, n.Text, &kit.SendOptions{DisablePreview: true})
	took := time.Since(start)

	s.journal(ctx, n, start, took, err)

	if err != nil {
		s.hmu.Lock()
		s.failed++
		s.hmu.Unlock()
		return review.DeliveryFailed(err)
	}

	s.hmu.Lock()
	s.sent++
	s.history = append(s.history, HistoryItem{At: start, Kind: n.Kind, Text: n.Text})
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = append([]HistoryItem(nil), s.history[over:]...)
	}
	s.hmu.Unlock()

	s.log.Debug("notification sent",
		logx.String("kind", n.Kind),
		logx.String("to", s.target.Recipient()),
		logx.Duration("took", took),
	)
	return nil
}

func (s *Service) journal(ctx context.Context, n Notification, at time.Time, took time.Duration, sendErr error) {
	if s.store == nil {
		return
	}
	e := storage.DeliveryEntry{
		At:     at,
		Cycle:  n.Cycle,
		Kind:   n.Kind,
		Chat:   s.target.Recipient(),
		Text:   n.Text,
		OK:     sendErr == nil,
		TookMS: took.Milliseconds(),
	}
	if sendErr != nil {
		e.Error = sendErr.Error()
	}
	// The journal is best-effort; a cancelled cycle context still gets its record.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.store.AppendDelivery(jctx, e); err != nil {
		s.log.Warn("delivery journal append failed", logx.Err(err))
	}
}

// History returns a copy of the most recent delivered notifications, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

// Counters returns delivered and failed totals.
func (s *Service) Counters() (sent, failed uint64) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return s.sent, s.failed
}
