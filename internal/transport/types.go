package transport

import (
	"context"
	"strconv"
	"strings"
)

// ChatTarget identifies where a message goes: a numeric chat id or a
// public @username, optionally narrowed to a forum thread.
type ChatTarget struct {
	ChatID   int64
	Username string
	ThreadID int
}

// ParseChatTarget accepts "-100123", "123" or "@channel".
func ParseChatTarget(raw string) (ChatTarget, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ChatTarget{}, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ChatTarget{ChatID: id}, id != 0
	}
	name := strings.TrimPrefix(s, "@")
	if name == "" || strings.ContainsAny(name, " \t\n/") {
		return ChatTarget{}, false
	}
	return ChatTarget{Username: name}, true
}

func (t ChatTarget) IsZero() bool { return t.ChatID == 0 && t.Username == "" }

// Recipient renders the target the way the Bot API expects chat_id.
func (t ChatTarget) Recipient() string {
	if t.ChatID != 0 {
		return strconv.FormatInt(t.ChatID, 10)
	}
	return "@" + t.Username
}

func (t ChatTarget) String() string { return t.Recipient() }

type MessageRef struct {
	Target    ChatTarget
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers plain text to a chat.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
