package lookup

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LocalTimeFormat yields e.g. "Monday 14:05 CEST".
const LocalTimeFormat = "+%A %H:%M %Z"

// Clock asks date(1) for the current time in a timezone.
type Clock struct {
	runner Runner
	bin    string
	log    *zap.Logger
}

func NewClock(runner Runner, bin string, log *zap.Logger) *Clock {
	return &Clock{runner: runner, bin: bin, log: log}
}

// LocalTime returns the formatted local time for tz, running date with
// TZ=<tz> in its environment. ok is false on any failure or empty output.
func (c *Clock) LocalTime(ctx context.Context, tz string) (string, bool) {
	out, code, err := c.runner.Run(ctx, c.bin, []string{LocalTimeFormat}, []string{"TZ=" + tz})
	if err != nil || code != 0 {
		c.log.Warn("local time lookup failed",
			zap.String("tz", tz),
			zap.Int("exit", code),
			zap.Error(err),
		)
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}
