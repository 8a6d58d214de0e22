// Package ircbot connects the herald and the port commands to an IRC
// network through github.com/Travis-Britz/irc.
package ircbot

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Travis-Britz/irc"
	"go.uber.org/zap"

	"github.com/macports/portbot/internal/herald"
	"github.com/macports/portbot/internal/registry"
	"github.com/macports/portbot/internal/worker"
)

// PortInfo answers "port info" style commands.
type PortInfo interface {
	Info(ctx context.Context, name string, flags ...string) (string, error)
}

// Submitter queues a unit of work. *worker.Pool satisfies it.
type Submitter interface {
	Submit(name string, fn worker.Task) error
}

// Config holds the bot's chat-facing settings.
type Config struct {
	Channels []string
	Prefix   string // command prefix, e.g. "!"
	TracURL  string
}

// Bot routes IRC traffic: presence events go to the herald, prefixed
// commands to their handlers. All work runs on the pool; the reply
// target is always passed along explicitly.
type Bot struct {
	cfg    Config
	herald *herald.Herald
	reg    *registry.Registry
	ports  PortInfo
	pool   Submitter
	say    herald.Emitter
	roster *Roster
	self   func() irc.Nickname
	now    func() time.Time
	log    *zap.Logger
}

func New(cfg Config, h *herald.Herald, reg *registry.Registry, ports PortInfo, pool Submitter,
	say herald.Emitter, self func() irc.Nickname, log *zap.Logger) *Bot {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	return &Bot{
		cfg:    cfg,
		herald: h,
		reg:    reg,
		ports:  ports,
		pool:   pool,
		say:    say,
		roster: NewRoster(),
		self:   self,
		now:    time.Now,
		log:    log,
	}
}

// Roster exposes channel membership as seen by the bot.
func (b *Bot) Roster() *Roster { return b.roster }

// Handler builds the irc.Router for a client connection.
func (b *Bot) Handler() *irc.Router {
	r := &irc.Router{}
	r.Use(b.roster.Middleware(b.self))

	r.OnConnect(func(w irc.MessageWriter, m *irc.Message) {
		b.log.Info("connected", zap.String("nick", b.self().String()))
		for _, ch := range b.cfg.Channels {
			w.WriteMessage(irc.Join(ch))
		}
	})
	r.OnJoin(b.onJoin)
	r.OnPart(b.onPart)
	r.OnNick(b.onNick)

	p := regexp.QuoteMeta(b.cfg.Prefix)
	r.OnTextRE(`^`+p+`port(\s|$)`, b.onPort)
	r.OnTextRE(`^`+p+`ticket(\s|$)`, b.onTicket)
	return r
}

func (b *Bot) submit(name string, fn worker.Task) {
	if err := b.pool.Submit(name, fn); err != nil {
		b.log.Warn("task rejected", zap.String("task", name), zap.Error(err))
	}
}

func (b *Bot) heraldEnabled(ctx context.Context) bool {
	on, err := b.reg.HeraldEnabled(ctx)
	if err != nil {
		b.log.Warn("herald switch read failed", zap.Error(err))
	}
	return on
}

func (b *Bot) onJoin(_ irc.MessageWriter, m *irc.Message) {
	nick := m.Source.Nick
	if nick == "" || nick.Is(b.self().String()) {
		return
	}
	channel := m.Params.Get(1)
	now := b.now()
	b.submit("herald join", func(ctx context.Context) {
		if !b.heraldEnabled(ctx) {
			return
		}
		if err := b.herald.MaybeNotify(ctx, channel, nick.String(), now); err != nil {
			b.log.Error("herald join failed", zap.String("nick", nick.String()), zap.Error(err))
		}
	})
}

func (b *Bot) onPart(_ irc.MessageWriter, m *irc.Message) {
	nick := m.Source.Nick
	if nick == "" || nick.Is(b.self().String()) {
		return
	}
	now := b.now()
	b.submit("herald part", func(ctx context.Context) {
		if err := b.herald.MarkPart(ctx, nick.String(), now); err != nil {
			b.log.Error("herald part failed", zap.String("nick", nick.String()), zap.Error(err))
		}
	})
}

// onNick runs after the roster middleware, so the new nick already
// appears in every channel the old one was in.
func (b *Bot) onNick(oldNick, newNick irc.Nickname) {
	if newNick.Is(b.self().String()) {
		return
	}
	channels := b.roster.ChannelsOf(newNick.String())
	if len(channels) == 0 {
		return
	}
	now := b.now()
	b.submit("herald nick", func(ctx context.Context) {
		if !b.heraldEnabled(ctx) {
			return
		}
		for _, ch := range channels {
			if err := b.herald.MaybeNotify(ctx, ch, newNick.String(), now); err != nil {
				b.log.Error("herald nick failed",
					zap.String("old", oldNick.String()),
					zap.String("nick", newNick.String()),
					zap.Error(err),
				)
			}
		}
	})
}

// replyTarget is the channel a message was sent to, or the sender for
// private queries.
func replyTarget(m *irc.Message) string {
	target := m.Params.Get(1)
	if strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&") {
		return target
	}
	return m.Source.Nick.String()
}
