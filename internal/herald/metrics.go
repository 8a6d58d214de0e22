package herald

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts herald outcomes.
type Metrics struct {
	Announcements  prometheus.Counter
	Suppressed     prometheus.Counter
	LookupDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Announcements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_announcements_total",
			Help: "Herald lines emitted to a channel.",
		}),
		Suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_suppressed_total",
			Help: "Presence events suppressed by the throttle window.",
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_lookup_duration_seconds",
			Help:    "Time spent asking the port CLI for maintained ports.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Announcements, m.Suppressed, m.LookupDuration)
	}
	return m
}
