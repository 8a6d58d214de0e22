package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/macports/portbot/internal/store"
)

func TestFields_SetGetClear(t *testing.T) {
	ctx := context.Background()
	r := New(store.NewMemory())

	if _, ok, err := r.GetField(ctx, "alice", FieldEmail); err != nil || ok {
		t.Fatalf("fresh registry: ok=%v err=%v", ok, err)
	}

	for i := 0; i < 2; i++ { // idempotent
		if err := r.SetField(ctx, "alice", FieldEmail, "alice@example.com"); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := r.SetField(ctx, "alice", FieldLocation, "  anywhere, really  "); err != nil {
		t.Fatalf("set location: %v", err)
	}
	v, ok, err := r.GetField(ctx, "alice", FieldLocation)
	if err != nil || !ok || v != "  anywhere, really  " {
		t.Fatalf("location stored as-is: got %q ok=%v err=%v", v, ok, err)
	}

	// Nicks are case-sensitive.
	if _, ok, _ := r.GetField(ctx, "Alice", FieldEmail); ok {
		t.Fatal("Alice should be a different nick from alice")
	}

	if err := r.ClearField(ctx, "alice", FieldLocation); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := r.GetField(ctx, "alice", FieldLocation); ok {
		t.Fatal("location still present")
	}
	if v, ok, _ := r.GetField(ctx, "alice", FieldEmail); !ok || v != "alice@example.com" {
		t.Fatal("clearing location must not touch email")
	}
}

func TestClearAll_KeepsStamp(t *testing.T) {
	ctx := context.Background()
	r := New(store.NewMemory())
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	_ = r.SetField(ctx, "dave", FieldEmail, "dave@example.com")
	_ = r.SetField(ctx, "dave", FieldTimezone, "Europe/Berlin")
	_ = r.SetField(ctx, "dave", FieldLocation, "Berlin")
	_ = r.SetLastNotified(ctx, "dave@example.com", now)

	if err := r.ClearAll(ctx, "dave"); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	for _, f := range Fields {
		if _, ok, _ := r.GetField(ctx, "dave", f); ok {
			t.Errorf("%s still set", f)
		}
	}
	last, err := r.LastNotified(ctx, "dave@example.com")
	if err != nil || last == nil || !last.Equal(now) {
		t.Fatalf("stamp should survive ClearAll: %v %v", last, err)
	}
}

func TestUnknownField(t *testing.T) {
	r := New(store.NewMemory())
	err := r.SetField(context.Background(), "alice", "shoesize", "44")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("want ErrUnknownField, got %v", err)
	}
}

func TestLastNotified(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	r := New(kv)

	last, err := r.LastNotified(ctx, "alice@example.com")
	if err != nil || last != nil {
		t.Fatalf("never notified: %v %v", last, err)
	}

	now := time.Date(2025, time.May, 5, 19, 46, 30, 0, time.FixedZone("MSK", 3*3600))
	if err := r.SetLastNotified(ctx, "alice@example.com", now); err != nil {
		t.Fatalf("set: %v", err)
	}
	last, err = r.LastNotified(ctx, "alice@example.com")
	if err != nil || last == nil || !last.Equal(now) {
		t.Fatalf("want %v, got %v (%v)", now, last, err)
	}

	_ = kv.Set(ctx, "lastherald_broken@example.com", "yesterday")
	if last, err := r.LastNotified(ctx, "broken@example.com"); !errors.Is(err, ErrBadStamp) || last != nil {
		t.Fatalf("want ErrBadStamp for garbage stamp, got %v %v", last, err)
	}
}

func TestLastNotified_KeepsSubSecond(t *testing.T) {
	ctx := context.Background()
	r := New(store.NewMemory())

	now := time.Date(2025, time.May, 5, 12, 0, 0, 900_000_000, time.UTC)
	if err := r.SetLastNotified(ctx, "alice@example.com", now); err != nil {
		t.Fatalf("set: %v", err)
	}
	last, err := r.LastNotified(ctx, "alice@example.com")
	if err != nil || last == nil || !last.Equal(now) {
		t.Fatalf("want %v, got %v (%v)", now, last, err)
	}
}

func TestLastNotified_LegacySeconds(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	r := New(kv)

	_ = kv.Set(ctx, "lastherald_old@example.com", "1746446400")
	last, err := r.LastNotified(ctx, "old@example.com")
	if err != nil || last == nil || !last.Equal(time.Unix(1746446400, 0)) {
		t.Fatalf("legacy stamp: %v %v", last, err)
	}
}

func TestHeraldSwitch(t *testing.T) {
	ctx := context.Background()
	r := New(store.NewMemory())
	if on, _ := r.HeraldEnabled(ctx); !on {
		t.Fatal("herald should default to enabled")
	}
	_ = r.SetHeraldEnabled(ctx, false)
	if on, _ := r.HeraldEnabled(ctx); on {
		t.Fatal("herald should be disabled")
	}
	_ = r.SetHeraldEnabled(ctx, true)
	if on, _ := r.HeraldEnabled(ctx); !on {
		t.Fatal("herald should be enabled again")
	}
}
