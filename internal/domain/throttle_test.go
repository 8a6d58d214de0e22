package domain

import (
	"testing"
	"time"
)

func ptr(t time.Time) *time.Time { return &t }

func TestAllow(t *testing.T) {
	base := time.Date(2025, time.May, 5, 19, 46, 0, 0, time.UTC)

	cases := []struct {
		name   string
		now    time.Time
		last   *time.Time
		want   bool
		reason string
	}{
		{"never notified", base, nil, true, "first"},
		{"just notified", base, ptr(base), false, "throttled"},
		{"inside window", base.Add(5 * time.Minute), ptr(base), false, "throttled"},
		{"exactly at window edge", base.Add(DefaultMinInterval), ptr(base), false, "throttled"},
		{"one second past window", base.Add(DefaultMinInterval + time.Second), ptr(base), true, "elapsed"},
		{"clock went backwards", base.Add(-time.Hour), ptr(base), false, "throttled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Allow(tc.now, tc.last, DefaultMinInterval)
			if got.Allow != tc.want || got.Reason != tc.reason {
				t.Fatalf("want %v/%s, got %v/%s", tc.want, tc.reason, got.Allow, got.Reason)
			}
		})
	}
}

func TestAllow_MonotonicInNow(t *testing.T) {
	last := time.Date(2025, time.May, 6, 7, 0, 0, 0, time.UTC)
	allowed := false
	for s := 0; s <= 1200; s += 7 {
		d := Allow(last.Add(time.Duration(s)*time.Second), &last, DefaultMinInterval)
		if allowed && !d.Allow {
			t.Fatalf("decision flipped back to deny at +%ds", s)
		}
		allowed = d.Allow
	}
	if !allowed {
		t.Fatal("expected allow after the window")
	}
}
