package domain

import "time"

// DefaultMinInterval is the herald throttle window.
const DefaultMinInterval = 10 * time.Minute

// Decision is the outcome of a throttle check. It is never persisted.
type Decision struct {
	Allow  bool
	Reason string // first|elapsed|throttled
}

// Allow reports whether another notification may be issued for an identity
// last notified at last. A nil last means the identity was never notified.
// The window is exclusive: exactly minInterval after last is still throttled.
func Allow(now time.Time, last *time.Time, minInterval time.Duration) Decision {
	if last == nil {
		return Decision{Allow: true, Reason: "first"}
	}
	if now.Sub(*last) > minInterval {
		return Decision{Allow: true, Reason: "elapsed"}
	}
	return Decision{Allow: false, Reason: "throttled"}
}
