package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "reviewbot/internal/transport"
	logx "reviewbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API base URL (tests, local bot API servers).
	APIURL string
	// Timeout bounds one Bot API call; 0 keeps telebot's default client.
	Timeout time.Duration
}

// Adapter is a send-only Telegram transport. It never polls for updates.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

var _ kit.Sender = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	settings := tele.Settings{
		Token: strings.TrimSpace(cfg.Token),
		URL:   strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		// Skip getMe at construction: a Telegram outage must not stop the poller from starting.
		Offline: true,
	}
	if cfg.Timeout > 0 {
		settings.Client = &http.Client{Timeout: cfg.Timeout}
	}
	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

type recipient kit.ChatTarget

func (r recipient) Recipient() string { return kit.ChatTarget(r).Recipient() }

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries.
func splitTelegramText(s string, limit int) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// SendText sends text to the target, splitting it when it exceeds one message.
// The returned ref points at the first message.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if to.IsZero() {
		return kit.MessageRef{}, errors.New("telegram: empty chat target")
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}

	var first kit.MessageRef
	for i, chunk := range splitTelegramText(text, telegramTextLimit) {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return first, err
			}
		}
		msg, err := a.bot.Send(recipient(to), chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, err
		}
		if i == 0 && msg != nil {
			first = kit.MessageRef{Target: to, MessageID: msg.ID}
		}
	}
	a.log.Trace("telegram message sent", logx.String("to", to.Recipient()), logx.Int("message_id", first.MessageID))
	return first, nil
}
