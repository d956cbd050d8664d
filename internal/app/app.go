package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"reviewbot/internal/config"
	"reviewbot/internal/notifier"
	"reviewbot/internal/poller"
	"reviewbot/internal/practicum"
	"reviewbot/internal/runtime/supervisor"
	"reviewbot/internal/storage"
	telegram "reviewbot/internal/transport/telegram/adapter"
	logx "reviewbot/pkg/logx"
)

type Options struct {
	// From is the initial cursor in unix seconds. Zero starts from now.
	From int64
}

// App wires the poll loop to its collaborators and owns their lifecycle.
type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	notif *notifier.Service
	poll  *poller.Poller

	sdNotify func(state string) (bool, error)
}

// New builds the app from the loaded configuration in cfgm.
func New(cfgm *config.Manager, opts Options) (a *App, err error) {
	cfg := cfgm.Get()
	if cfg == nil {
		if cfg, err = cfgm.Load(); err != nil {
			return nil, err
		}
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	log = log.With(logx.String("comp", "app"))

	var store storage.Store
	defer func() {
		if err == nil {
			return
		}
		if store != nil {
			_ = store.Close()
		}
		_ = logSvc.Close()
	}()

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("delivery journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	tgCfg, target, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(tgCfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}
	notif := notifier.New(notifier.Config{}, ad, target, log.With(logx.String("comp", "notifier")), store)

	pc, err := mapPracticumConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := practicum.NewClient(pc)
	if err != nil {
		return nil, err
	}

	sched, err := mapSchedule(cfg)
	if err != nil {
		return nil, err
	}

	cursor := opts.From
	if cursor == 0 {
		cursor = time.Now().Unix()
	}

	a = &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    store,
		notif:    notif,
		sdNotify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	a.poll = poller.New(poller.Config{Cursor: cursor, Schedule: sched}, client, notif,
		log.With(logx.String("comp", "poller")), poller.WithCycleHook(a.onCycle))

	log.Info("app configured",
		logx.String("chat", target.String()),
		logx.String("interval", cfg.Poll.Interval),
		logx.Int64("cursor", cursor),
	)
	return a, nil
}

// RunOnce runs a single cycle and shuts down.
func (a *App) RunOnce(ctx context.Context) (poller.Outcome, error) {
	out := a.poll.Cycle(ctx)
	a.onCycle(out)
	return out, a.shutdown(StopOnce)
}

// Run starts the poll loop and the config watcher and blocks until ctx is
// cancelled or a supervised goroutine fails.
func (a *App) Run(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
	// Run survives panics outside Cycle by restarting with the same session.
	a.sup.GoRestart("poller", time.Second, time.Minute, a.poll.Run)

	a.notify(daemon.SdNotifyReady)
	a.log.Info("app started")

	<-a.sup.Context().Done()

	reason := StopSignal
	if a.sup.Err() != nil {
		reason = StopFatalError
	}
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.sup.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.log.Error("supervised goroutine failed", logx.Err(err))
	}
	if err := a.shutdown(reason); err != nil {
		return err
	}
	return a.sup.Err()
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			changed, attrs := config.SummarizeConfigChange(last, next)
			last = next
			if len(changed) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
			if !config.HotReloadable(changed) {
				a.log.Warn("config changed; restart required for non-logging sections", fields...)
			} else {
				a.log.Info("config change applied", fields...)
			}
			a.logs.Apply(mapLoggingConfig(next))
		}
	}
}

func (a *App) onCycle(out poller.Outcome) {
	status := fmt.Sprintf("STATUS=cycle ok, cursor %d, %d notified", out.Cursor, out.Notified)
	if !out.OK() {
		status = fmt.Sprintf("STATUS=cycle failed (%s), cursor %d", out.Kind, out.Cursor)
	}
	a.notify(status)
}

func (a *App) notify(state string) {
	if a.sdNotify == nil {
		return
	}
	if ok, err := a.sdNotify(state); err != nil {
		a.log.Debug("systemd notify failed", logx.String("state", state), logx.Err(err))
	} else if ok {
		a.log.Trace("systemd notified", logx.String("state", state))
	}
}

// Notifications returns the recently delivered notifications, oldest first.
func (a *App) Notifications() []notifier.HistoryItem { return a.notif.History() }

func (a *App) shutdown(reason StopReason) error {
	a.notify(daemon.SdNotifyStopping)

	sent, failed := a.notif.Counters()
	sess := a.poll.Session()
	gor := a.sup.Counters()
	a.log.Info("stopping",
		logx.String("reason", string(reason)),
		logx.Uint64("sent", sent),
		logx.Uint64("failed", failed),
		logx.Int64("cursor", sess.Cursor),
		logx.String("last_status", sess.LastStatus),
		logx.Uint64("goroutines_started", gor.Started),
		logx.Int64("goroutines_active", gor.Active),
	)
	for _, h := range a.notif.History() {
		a.log.Debug("delivered", logx.Time("at", h.At), logx.String("kind", h.Kind), logx.String("text", h.Text))
	}

	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	a.log.Info("stopped")
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logs: %w", err))
		}
	}
	return errors.Join(errs...)
}
