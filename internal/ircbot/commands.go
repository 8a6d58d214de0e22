package ircbot

import (
	"context"
	"errors"
	"strings"

	"github.com/Travis-Britz/irc"
	"go.uber.org/zap"

	"github.com/macports/portbot/internal/domain"
	"github.com/macports/portbot/internal/lookup"
	"github.com/macports/portbot/internal/registry"
)

const (
	replyOkay  = "okay"
	replyOops  = "sorry, something went wrong"
	helpIndex  = "port (MacPorts) commands: info, maintainer, version, herald, remember, forget, whois, whereis; also ticket"
	portPrefix = "port"
)

var helpTopics = map[string]string{
	"info":       "info <portname> => show info for port <portname>",
	"maintainer": "maintainer <portname> => show maintainer of port <portname>",
	"version":    "version <portname> => show version of port <portname>",
	"herald":     "herald enable|disable => enable or disable heralding by port",
	"remember":   "remember <nick> email|timezone|location <value> => remember a detail about <nick>",
	"forget":     "forget <nick> [email|timezone|location] => forget one or all details about <nick>",
	"whois":      "whois <nick> => show email and maintained ports of <nick>",
	"whereis":    "whereis <nick> => show location and local time of <nick>",
	"ticket":     "ticket <#1234|1234> => link to a Trac ticket",
}

// command is a parsed "port ..." request.
type command struct {
	target string // reply target
	sender string
	args   []string // words after "port"
}

func (b *Bot) onPort(_ irc.MessageWriter, m *irc.Message) {
	text, _ := m.Text()
	words := strings.Fields(strings.TrimPrefix(text, b.cfg.Prefix))
	if len(words) == 0 || words[0] != portPrefix {
		return
	}
	cmd := command{
		target: replyTarget(m),
		sender: m.Source.Nick.String(),
		args:   words[1:],
	}
	name := "port"
	if len(cmd.args) > 0 {
		name += " " + cmd.args[0]
	}
	b.submit(name, func(ctx context.Context) { b.runPort(ctx, cmd) })
}

func (b *Bot) onTicket(_ irc.MessageWriter, m *irc.Message) {
	text, _ := m.Text()
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, b.cfg.Prefix), "ticket"))
	target := replyTarget(m)
	b.submit("ticket", func(ctx context.Context) {
		n, err := domain.ParseTicket(arg)
		if err != nil {
			b.say.Say(target, "Use either #1234 or 1234 for ticket number")
			return
		}
		b.say.Say(target, domain.TicketURL(b.cfg.TracURL, n))
	})
}

func (b *Bot) runPort(ctx context.Context, c command) {
	if len(c.args) == 0 {
		b.say.Say(c.target, helpIndex)
		return
	}
	sub, rest := c.args[0], c.args[1:]
	switch sub {
	case "info":
		b.portInfo(ctx, c.target, rest)
	case "maintainer":
		b.portInfo(ctx, c.target, rest, "--maintainer")
	case "version":
		b.portInfo(ctx, c.target, rest, "--version")
	case "herald":
		b.switchHerald(ctx, c, rest)
	case "remember":
		b.remember(ctx, c, rest)
	case "forget":
		b.forget(ctx, c, rest)
	case "whois":
		if len(rest) != 1 {
			b.say.Say(c.target, helpTopics["whois"])
			return
		}
		if err := b.herald.Whois(ctx, c.target, rest[0]); err != nil {
			b.fail(c, err)
		}
	case "whereis":
		if len(rest) != 1 {
			b.say.Say(c.target, helpTopics["whereis"])
			return
		}
		b.herald.WhereisReply(ctx, c.target, rest[0])
	case "help":
		topic := ""
		if len(rest) > 0 {
			topic = rest[0]
		}
		b.say.Say(c.target, help(topic))
	default:
		b.say.Say(c.target, helpIndex)
	}
}

func help(topic string) string {
	if h, ok := helpTopics[topic]; ok {
		return h
	}
	return helpIndex
}

func (b *Bot) portInfo(ctx context.Context, target string, rest []string, flags ...string) {
	if len(rest) != 1 {
		b.say.Say(target, "which port?")
		return
	}
	name := rest[0]
	out, err := b.ports.Info(ctx, name, flags...)
	if err != nil {
		if !errors.Is(err, lookup.ErrNoOutput) {
			b.log.Warn("port info failed", zap.String("port", name), zap.Error(err))
		}
		b.say.Say(target, "no information about "+name)
		return
	}
	b.say.Say(target, out)
}

func (b *Bot) switchHerald(ctx context.Context, c command, rest []string) {
	if len(rest) != 1 || (rest[0] != "enable" && rest[0] != "disable") {
		b.say.Say(c.target, helpTopics["herald"])
		return
	}
	if err := b.reg.SetHeraldEnabled(ctx, rest[0] == "enable"); err != nil {
		b.fail(c, err)
		return
	}
	b.log.Info("herald switched", zap.String("by", c.sender), zap.String("state", rest[0]))
	b.say.Say(c.target, replyOkay)
}

// remember handles "remember <nick> <field> <value...>". The legacy form
// "remember <nick> <address>" is taken as an email.
func (b *Bot) remember(ctx context.Context, c command, rest []string) {
	if len(rest) < 2 {
		b.say.Say(c.target, helpTopics["remember"])
		return
	}
	nick, field, value := rest[0], rest[1], strings.Join(rest[2:], " ")
	if len(rest) == 2 && strings.Contains(rest[1], "@") {
		field, value = registry.FieldEmail, rest[1]
	}
	if value == "" {
		b.say.Say(c.target, helpTopics["remember"])
		return
	}

	err := b.reg.SetField(ctx, nick, field, value)
	if errors.Is(err, registry.ErrUnknownField) {
		b.say.Say(c.target, helpTopics["remember"])
		return
	}
	if err != nil {
		b.fail(c, err)
		return
	}

	switch field {
	case registry.FieldEmail:
		b.say.Say(c.target, "okay, "+nick+" is "+value)
	case registry.FieldTimezone:
		b.say.Say(c.target, "okay, "+nick+"'s timezone is "+value)
	case registry.FieldLocation:
		b.say.Say(c.target, "okay, "+nick+" is in "+value)
	}
}

func (b *Bot) forget(ctx context.Context, c command, rest []string) {
	var err error
	switch len(rest) {
	case 1:
		err = b.reg.ClearAll(ctx, rest[0])
	case 2:
		err = b.reg.ClearField(ctx, rest[0], rest[1])
	default:
		b.say.Say(c.target, helpTopics["forget"])
		return
	}
	if errors.Is(err, registry.ErrUnknownField) {
		b.say.Say(c.target, helpTopics["forget"])
		return
	}
	if err != nil {
		b.fail(c, err)
		return
	}
	b.say.Say(c.target, replyOkay)
}

func (b *Bot) fail(c command, err error) {
	b.log.Error("command failed",
		zap.String("sender", c.sender),
		zap.Strings("args", c.args),
		zap.Error(err),
	)
	b.say.Say(c.target, replyOops)
}
