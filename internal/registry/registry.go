// Package registry keeps per-nick profile fields and per-email herald
// stamps on top of a store.KV.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/macports/portbot/internal/store"
)

// Profile fields.
const (
	FieldEmail    = "email"
	FieldTimezone = "timezone"
	FieldLocation = "location"
)

// Fields lists every per-nick field, in ClearAll order.
var Fields = []string{FieldEmail, FieldTimezone, FieldLocation}

var (
	// ErrUnknownField is returned for field names outside Fields.
	ErrUnknownField = errors.New("unknown profile field")
	// ErrBadStamp is returned when a stored herald stamp cannot be parsed.
	ErrBadStamp = errors.New("unreadable herald stamp")
)

const (
	lastHeraldPrefix = "lastherald_"
	heraldEnableKey  = "herald_enable"
)

// Registry provides namespaced accessors over a KV store.
// Values are stored as given; nothing is validated.
type Registry struct {
	kv store.KV
}

func New(kv store.KV) *Registry {
	return &Registry{kv: kv}
}

func fieldKey(nick, field string) (string, error) {
	switch field {
	case FieldEmail, FieldTimezone, FieldLocation:
		return field + "_" + nick, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// SetField stores value for nick, overwriting silently.
func (r *Registry) SetField(ctx context.Context, nick, field, value string) error {
	key, err := fieldKey(nick, field)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, value)
}

// GetField returns the field value; ok is false when it was never set or was forgotten.
func (r *Registry) GetField(ctx context.Context, nick, field string) (string, bool, error) {
	key, err := fieldKey(nick, field)
	if err != nil {
		return "", false, err
	}
	return r.kv.Get(ctx, key)
}

func (r *Registry) ClearField(ctx context.Context, nick, field string) error {
	key, err := fieldKey(nick, field)
	if err != nil {
		return err
	}
	return r.kv.Delete(ctx, key)
}

// ClearAll forgets email, timezone and location for nick. The herald stamp
// is keyed by email and stays.
func (r *Registry) ClearAll(ctx context.Context, nick string) error {
	for _, f := range Fields {
		if err := r.ClearField(ctx, nick, f); err != nil {
			return err
		}
	}
	return nil
}

// LastNotified returns when email was last heralded, or nil. Stamps are
// RFC 3339 with nanoseconds; bare unix seconds from older stores are
// still accepted. An unparsable stamp yields ErrBadStamp.
func (r *Registry) LastNotified(ctx context.Context, email string) (*time.Time, error) {
	v, ok, err := r.kv.Get(ctx, lastHeraldPrefix+email)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		sec, serr := strconv.ParseInt(v, 10, 64)
		if serr != nil {
			return nil, fmt.Errorf("%w for %s: %q", ErrBadStamp, email, v)
		}
		t = time.Unix(sec, 0)
	}
	t = t.UTC()
	return &t, nil
}

func (r *Registry) SetLastNotified(ctx context.Context, email string, t time.Time) error {
	return r.kv.Set(ctx, lastHeraldPrefix+email, t.UTC().Format(time.RFC3339Nano))
}

// HeraldEnabled reports the global herald switch. It defaults to on.
func (r *Registry) HeraldEnabled(ctx context.Context) (bool, error) {
	v, ok, err := r.kv.Get(ctx, heraldEnableKey)
	if err != nil || !ok {
		return true, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true, nil
	}
	return b, nil
}

func (r *Registry) SetHeraldEnabled(ctx context.Context, enabled bool) error {
	return r.kv.Set(ctx, heraldEnableKey, strconv.FormatBool(enabled))
}
