// Package store holds the bot's persistent key-value registry.
//
// Keys are plain strings namespaced by the caller (for example
// "email_<nick>"); values are strings. Writes to the same key from
// concurrent callers are last-writer-wins.
package store

import (
	"context"
	"errors"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// KV is a durable string-to-string mapping.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
