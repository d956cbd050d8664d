package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"reviewbot/internal/notifier"
	"reviewbot/internal/review"
	logx "reviewbot/pkg/logx"
)

// Fetcher returns the decoded API response for updates since cursor.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64) (review.Payload, error)
}

// Deliverer sends one notification to the chat.
type Deliverer interface {
	Deliver(ctx context.Context, n notifier.Notification) error
}

// Session is the state carried between cycles. It lives as long as the process.
type Session struct {
	// Cursor is the from_date of the next request. It only moves forward to
	// values the API returned.
	Cursor int64
	// LastStatus is the raw status of the last status-change notification.
	LastStatus string
	// LastErrorText is the text of the last delivered alert.
	LastErrorText string
}

// Outcome summarizes one cycle.
type Outcome struct {
	ID       string
	Kind     review.Kind // KindUnknown with nil Err means success
	Err      error
	Items    int
	Notified int
	Cursor   int64
	Took     time.Duration
}

// OK reports whether the cycle finished without a classified or unclassified failure.
func (o Outcome) OK() bool { return o.Err == nil }

type Config struct {
	// Cursor is the initial from_date (unix seconds).
	Cursor   int64
	Schedule cron.Schedule
}

type Option func(*Poller)

func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithCycleHook registers fn to run after every cycle, on the loop goroutine.
func WithCycleHook(fn func(Outcome)) Option {
	return func(p *Poller) { p.hooks = append(p.hooks, fn) }
}

// Poller is not safe for concurrent use; Run owns it.
type Poller struct {
	log      logx.Logger
	fetcher  Fetcher
	notifier Deliverer
	schedule cron.Schedule
	clock    Clock
	hooks    []func(Outcome)

	session Session
	cycles  uint64

	heartbeat rate.Sometimes
}

func New(cfg Config, f Fetcher, d Deliverer, log logx.Logger, opts ...Option) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	sched := cfg.Schedule
	if sched == nil {
		sched = cron.Every(DefaultInterval)
	}
	p := &Poller{
		log:       log,
		fetcher:   f,
		notifier:  d,
		schedule:  sched,
		clock:     realClock{},
		session:   Session{Cursor: cfg.Cursor},
		heartbeat: rate.Sometimes{Interval: time.Hour},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Session returns a copy of the current session state.
func (p *Poller) Session() Session { return p.session }

// Run executes cycles until ctx is cancelled. The wait after every cycle is
// unconditional, whatever the cycle outcome was.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poll loop started", logx.Int64("cursor", p.session.Cursor))
	for {
		if ctx.Err() != nil {
			p.log.Info("poll loop stopped", logx.Uint64("cycles", p.cycles))
			return nil
		}

		out := p.Cycle(ctx)
		for _, fn := range p.hooks {
			fn(out)
		}

		now := p.clock.Now()
		wait := p.schedule.Next(now).Sub(now)
		p.log.Debug("sleeping", logx.Duration("wait", wait))
		if err := p.clock.Sleep(ctx, wait); err != nil {
			p.log.Info("poll loop stopped", logx.Uint64("cycles", p.cycles))
			return nil
		}
	}
}

// Cycle runs one fetch/validate/extract/notify pass and handles its failure.
func (p *Poller) Cycle(ctx context.Context) (out Outcome) {
	start := p.clock.Now()
	out.ID = uuid.NewString()
	log := p.log.With(logx.String("cycle", out.ID))

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
			out.Kind = review.KindUnknown
			log.Critical("program failure", logx.Err(out.Err), logx.String("stack", string(debug.Stack())))
		}
		p.cycles++
		out.Cursor = p.session.Cursor
		out.Took = p.clock.Now().Sub(start)
		p.heartbeat.Do(func() {
			p.log.Info("poller alive",
				logx.Uint64("cycles", p.cycles),
				logx.Int64("cursor", p.session.Cursor),
				logx.String("last_status", p.session.LastStatus),
			)
		})
	}()

	err := p.step(ctx, log, &out)
	if err != nil {
		out.Err = err
		out.Kind = review.KindOf(err)
		p.handle(ctx, log, &out)
	}
	return out
}

func (p *Poller) step(ctx context.Context, log logx.Logger, out *Outcome) error {
	payload, err := p.fetcher.Fetch(ctx, p.session.Cursor)
	if err != nil {
		return err
	}
	if err := review.Check(payload); err != nil {
		return err
	}
	resp, err := review.ParseResponse(payload)
	if err != nil {
		return err
	}
	if resp.HasCursor {
		p.session.Cursor = resp.Cursor
	}
	out.Items = resp.Len()

	item, ok, err := resp.Latest()
	if err != nil {
		return err
	}
	if !ok {
		log.Debug("no items")
		return nil
	}
	if item.StatusKnown() && item.Status == p.session.LastStatus {
		log.Debug("no new status", logx.String("status", item.Status))
		return nil
	}

	name, text, err := review.Extract(item)
	if err != nil {
		return err
	}
	p.session.LastStatus = item.Status
	log.Info("status changed", logx.String("name", name), logx.String("status", item.Status))

	if err := p.notifier.Deliver(ctx, notifier.Notification{Kind: "status", Cycle: out.ID, Text: text}); err != nil {
		return err
	}
	out.Notified++
	return nil
}

func (p *Poller) handle(ctx context.Context, log logx.Logger, out *Outcome) {
	err := out.Err
	switch out.Kind {
	case review.KindEndpointUnavailable:
		log.Error("endpoint unavailable", logx.Err(err))
	case review.KindTypeMismatch:
		log.Error("unexpected response shape", logx.Err(err))
	case review.KindMissingAPIKeys:
		log.Error("expected keys missing from api response", logx.Err(err))
		p.alert(ctx, log, out)
	case review.KindMissingItemName:
		log.Error("homework has no name", logx.Err(err))
	case review.KindUnrecognizedStatus:
		log.Error("unexpected homework status", logx.Err(err))
		p.alert(ctx, log, out)
	case review.KindDeliveryFailed:
		log.Error("notification delivery failed", logx.Err(err))
	case review.KindUnknown:
		log.Critical("program failure", logx.Err(err))
	default:
		log.Critical("program failure", logx.Err(err), logx.String("kind", out.Kind.String()))
	}
}

// alert relays a notifying error once per distinct text. LastErrorText only
// changes after a successful delivery, so a failed alert is retried next cycle.
func (p *Poller) alert(ctx context.Context, log logx.Logger, out *Outcome) {
	re, ok := review.AsError(out.Err)
	if !ok {
		return
	}
	text := re.Notice()
	if text == p.session.LastErrorText {
		log.Debug("alert suppressed (already sent)", logx.String("text", text))
		return
	}
	if err := p.notifier.Deliver(ctx, notifier.Notification{Kind: re.Kind.String(), Cycle: out.ID, Text: text}); err != nil {
		log.Error("notification delivery failed", logx.Err(err))
		return
	}
	p.session.LastErrorText = text
	out.Notified++
}
