package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/macports/portbot/internal/domain"
)

// ErrNoOutput is returned when the port CLI printed nothing useful.
var ErrNoOutput = errors.New("no output")

// Ports queries the port CLI.
type Ports struct {
	runner Runner
	bin    string
	log    *zap.Logger
}

func NewPorts(runner Runner, bin string, log *zap.Logger) *Ports {
	return &Ports{runner: runner, bin: bin, log: log}
}

// MaintainedPorts lists the ports maintained by email, as returned by
// "port echo maintainer:<email>". Any failure yields an empty list.
func (p *Ports) MaintainedPorts(ctx context.Context, email string) []string {
	out, code, err := p.runner.Run(ctx, p.bin, []string{"echo", "maintainer:" + email}, nil)
	if err != nil || code != 0 {
		p.log.Warn("maintainer lookup failed",
			zap.String("email", email),
			zap.Int("exit", code),
			zap.Error(err),
		)
		return nil
	}
	return domain.SplitPorts(out)
}

// Info runs "port info [flags] <name>" and returns its trimmed output.
func (p *Ports) Info(ctx context.Context, name string, flags ...string) (string, error) {
	args := append([]string{"info"}, flags...)
	args = append(args, name)
	return p.call(ctx, args)
}

func (p *Ports) call(ctx context.Context, args []string) (string, error) {
	out, code, err := p.runner.Run(ctx, p.bin, args, nil)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if code != 0 {
		return "", fmt.Errorf("port %s: exit status %d", strings.Join(args, " "), code)
	}
	if out == "" {
		return "", ErrNoOutput
	}
	return out, nil
}
