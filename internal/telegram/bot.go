// Package telegram plays a dreamland session from a single Telegram chat.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/suderio/dreamland/internal/logging"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/session"
)

const (
	retryDelay    = 5 * time.Second
	settleTimeout = 30 * time.Second
)

// Player is the part of a session the bot drives.
type Player interface {
	NewGame(ctx context.Context) error
	Execute(ctx context.Context, line string) (session.Reply, error)
	Settle(ctx context.Context) error
	Log(n int) []narrative.Entry
}

// Bot relays one chat's messages to a Player and posts the story back.
type Bot struct {
	client *Client
	player Player
	chatID int64
	poll   time.Duration
	logger *slog.Logger

	offset int
	sent   map[string]bool

	// OnOffset is called with every new update id so the caller can persist
	// it across restarts.
	OnOffset func(id int)
}

// NewBot binds player to chatID. Messages from any other chat are ignored.
func NewBot(client *Client, chatID int64, player Player, poll time.Duration, offset int, logger *slog.Logger) *Bot {
	return &Bot{
		client: client,
		player: player,
		chatID: chatID,
		poll:   poll,
		logger: logging.OrDiscard(logger),
		offset: offset,
		sent:   map[string]bool{},
	}
}

// Run long-polls until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot started", "chat", b.chatID)
	for ctx.Err() == nil {
		updates, err := b.client.GetUpdates(ctx, b.offset+1, b.poll)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			b.logger.Warn("fetch updates failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID > b.offset {
				b.offset = u.UpdateID
				if b.OnOffset != nil {
					b.OnOffset(b.offset)
				}
			}
			if u.Message != nil {
				b.handle(ctx, u.Message)
			}
		}
	}
	b.logger.Info("telegram bot stopped")
	return nil
}

func (b *Bot) handle(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.chatID {
		return
	}
	line := command(msg.Text)
	if line == "" {
		return
	}
	b.logger.Debug("command received", "from", msg.From.Username, "line", line)

	var out []string
	if line == "start" {
		if err := b.player.NewGame(ctx); err != nil {
			out = append(out, err.Error())
		}
	} else {
		reply, err := b.player.Execute(ctx, line)
		if err != nil {
			out = append(out, err.Error())
		}
		out = append(out, reply.Lines...)
	}

	settle, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := b.player.Settle(settle); err != nil {
		b.logger.Warn("narration still pending", "err", err)
	}
	out = append(out, b.unsent()...)
	b.send(ctx, out)
}

// unsent returns the texts of log entries not posted yet. Entries that have
// left the log are forgotten.
func (b *Bot) unsent() []string {
	entries := b.player.Log(0)
	seen := make(map[string]bool, len(entries))
	var out []string
	for _, e := range entries {
		seen[e.ID] = true
		if !b.sent[e.ID] {
			out = append(out, e.Text)
		}
	}
	b.sent = seen
	return out
}

func (b *Bot) send(ctx context.Context, lines []string) {
	if len(lines) == 0 {
		return
	}
	if err := b.client.SendMessage(ctx, b.chatID, strings.Join(lines, "\n")); err != nil {
		b.logger.Error("send message failed", "err", err)
	}
}

// command turns "/attack@dreambot rabbit" into "attack rabbit". Plain text
// is passed through so the chat reads like the terminal.
func command(text string) string {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "/"))
	verb, rest, _ := strings.Cut(text, " ")
	verb, _, _ = strings.Cut(verb, "@")
	return strings.TrimSpace(verb + " " + rest)
}
