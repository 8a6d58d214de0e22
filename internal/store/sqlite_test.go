package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKV_SetGetDelete(t *testing.T) {
	backends := map[string]KV{
		"sqlite": openTestSQLite(t),
		"memory": NewMemory(),
	}
	ctx := context.Background()

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "email_alice"); err != nil || ok {
				t.Fatalf("missing key: ok=%v err=%v", ok, err)
			}
			if err := kv.Set(ctx, "email_alice", "alice@example.com"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set(ctx, "email_alice", "alice@macports.org"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := kv.Get(ctx, "email_alice")
			if err != nil || !ok || v != "alice@macports.org" {
				t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
			}
			if err := kv.Delete(ctx, "email_alice"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := kv.Delete(ctx, "email_alice"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "email_alice"); ok {
				t.Fatal("key still present after delete")
			}
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "location_carol", "Boston"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not re-run applied migrations.
	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, ok, err := s.Get(ctx, "location_carol")
	if err != nil || !ok || v != "Boston" {
		t.Fatalf("want Boston, got v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestSQLite_Keys(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	for _, k := range []string{"email_bob", "email_alice", "timezone_alice"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx, "email_")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "email_alice" || keys[1] != "email_bob" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "etcd"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("want ErrUnknownDriver, got %v", err)
	}
}

func TestSQLite_KeysNonASCIIPrefix(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	for _, k := range []string{"location_zoë", "location_zoëy", "location_zoe", "location_zp"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx, "location_zoë")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "location_zoë" || keys[1] != "location_zoëy" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	all, err := s.Keys(ctx, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("empty prefix: %v %v", all, err)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"email_", "email`", true},
		{"a\xff", "b", true},
		{"\xff\xff", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := prefixUpperBound(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("prefixUpperBound(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
