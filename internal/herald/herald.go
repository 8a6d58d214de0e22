// Package herald announces known maintainers when they show up in a channel.
//
// A presence event for a nick with a remembered email is throttled per
// email: the stamp for that email is refreshed on every event, and a line
// is only emitted when the previous stamp is older than the window. Rapid
// rejoins therefore stay silent until the nick has been away for a full
// window, not merely since the last announcement.
package herald

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/macports/portbot/internal/domain"
	"github.com/macports/portbot/internal/registry"
)

// ShowMax is the number of maintained ports named in one line.
const ShowMax = 4

// PortLookup lists ports maintained by an email. Failures yield an empty list.
type PortLookup interface {
	MaintainedPorts(ctx context.Context, email string) []string
}

// TimeLookup formats the current time in a timezone.
type TimeLookup interface {
	LocalTime(ctx context.Context, tz string) (string, bool)
}

// Emitter sends a line of text to a channel or nick.
type Emitter interface {
	Say(target, text string)
}

// Options tune a Herald. Zero values pick defaults.
type Options struct {
	MinInterval time.Duration
	Rand        domain.Rand
	Metrics     *Metrics
}

type Herald struct {
	reg         *registry.Registry
	ports       PortLookup
	clock       TimeLookup
	emit        Emitter
	log         *zap.Logger
	minInterval time.Duration
	rand        domain.Rand
	metrics     *Metrics
}

func New(reg *registry.Registry, ports PortLookup, clock TimeLookup, emit Emitter, log *zap.Logger, opts Options) *Herald {
	if opts.MinInterval <= 0 {
		opts.MinInterval = domain.DefaultMinInterval
	}
	if opts.Rand == nil {
		opts.Rand = domain.NewLockedRand(time.Now().UnixNano())
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	return &Herald{
		reg:         reg,
		ports:       ports,
		clock:       clock,
		emit:        emit,
		log:         log,
		minInterval: opts.MinInterval,
		rand:        opts.Rand,
		metrics:     opts.Metrics,
	}
}

// MaybeNotify handles a join or nick change of nick in channel at now.
// The email's stamp is refreshed whether or not a line is emitted.
func (h *Herald) MaybeNotify(ctx context.Context, channel, nick string, now time.Time) error {
	email, ok, err := h.reg.GetField(ctx, nick, registry.FieldEmail)
	if err != nil {
		return fmt.Errorf("email of %s: %w", nick, err)
	}
	if !ok {
		return nil
	}

	last, err := h.reg.LastNotified(ctx, email)
	if errors.Is(err, registry.ErrBadStamp) {
		h.log.Warn("ignoring herald stamp", zap.String("email", email), zap.Error(err))
		last, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("last herald of %s: %w", email, err)
	}
	d := domain.Allow(now, last, h.minInterval)

	if err := h.reg.SetLastNotified(ctx, email, now); err != nil {
		return fmt.Errorf("stamp %s: %w", email, err)
	}

	if !d.Allow {
		h.metrics.Suppressed.Inc()
		h.log.Debug("herald suppressed",
			zap.String("nick", nick),
			zap.String("channel", channel),
			zap.String("reason", d.Reason),
		)
		return nil
	}
	return h.Announce(ctx, channel, nick)
}

// MarkPart stamps the email of a departing nick without announcing anything.
func (h *Herald) MarkPart(ctx context.Context, nick string, now time.Time) error {
	email, ok, err := h.reg.GetField(ctx, nick, registry.FieldEmail)
	if err != nil || !ok {
		return err
	}
	return h.reg.SetLastNotified(ctx, email, now)
}

// Announce emits "<nick> is <email> and maintainer of ..." to channel.
// Nicks without an email are skipped silently.
func (h *Herald) Announce(ctx context.Context, channel, nick string) error {
	email, ok, err := h.reg.GetField(ctx, nick, registry.FieldEmail)
	if err != nil {
		return fmt.Errorf("email of %s: %w", nick, err)
	}
	if !ok {
		return nil
	}

	start := time.Now()
	ports := h.ports.MaintainedPorts(ctx, email)
	h.metrics.LookupDuration.Observe(time.Since(start).Seconds())

	some := domain.Sample(ports, ShowMax, h.rand)
	msg := Compose(nick, email, len(ports), some)
	if where, ok := h.Whereis(ctx, nick); ok {
		msg += " and " + where
	}

	h.emit.Say(channel, msg)
	h.metrics.Announcements.Inc()
	return nil
}

// Compose builds the base herald line for nick from the total number of
// maintained ports and the sampled subset to name.
func Compose(nick, email string, total int, some []string) string {
	base := nick + " is " + email
	switch {
	case total == 0:
		return base
	case total <= ShowMax:
		return base + " and maintainer of " + domain.TextEnumeration(some)
	default:
		return base + " and maintainer of " + domain.TextEnumeration(some) +
			" (of " + strconv.Itoa(total) + " total)"
	}
}

// Whereis describes where nick is and their local time. ok is false when
// neither a location nor a usable timezone is known.
func (h *Herald) Whereis(ctx context.Context, nick string) (string, bool) {
	location, hasLoc := h.field(ctx, nick, registry.FieldLocation)

	var localTime string
	hasTime := false
	if tz, ok := h.field(ctx, nick, registry.FieldTimezone); ok {
		localTime, hasTime = h.clock.LocalTime(ctx, tz)
	}

	switch {
	case hasLoc && hasTime:
		return "is in " + location + "; local time is " + localTime, true
	case hasLoc:
		return "is in " + location, true
	case hasTime:
		return "is at local time " + localTime, true
	default:
		return "", false
	}
}

// Whois replies with the herald line for nick, without throttling.
func (h *Herald) Whois(ctx context.Context, target, nick string) error {
	if _, ok, err := h.reg.GetField(ctx, nick, registry.FieldEmail); err != nil {
		return fmt.Errorf("email of %s: %w", nick, err)
	} else if !ok {
		h.emit.Say(target, "I don't know "+nick)
		return nil
	}
	return h.Announce(ctx, target, nick)
}

// WhereisReply answers a whereis query for nick.
func (h *Herald) WhereisReply(ctx context.Context, target, nick string) {
	if where, ok := h.Whereis(ctx, nick); ok {
		h.emit.Say(target, nick+" "+where)
		return
	}
	h.emit.Say(target, "I don't know where "+nick+" is")
}

// field reads a profile field, logging store errors as absent data.
func (h *Herald) field(ctx context.Context, nick, field string) (string, bool) {
	v, ok, err := h.reg.GetField(ctx, nick, field)
	if err != nil {
		h.log.Warn("profile read failed",
			zap.String("nick", nick),
			zap.String("field", field),
			zap.Error(err),
		)
		return "", false
	}
	return v, ok
}
