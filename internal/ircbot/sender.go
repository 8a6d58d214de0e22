package ircbot

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Travis-Britz/irc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// maxLineText keeps PRIVMSG lines under the length the irc package
	// refuses to marshal.
	maxLineText = 240
	// maxReplyLines caps multi-line replies such as port info output.
	maxReplyLines = 10
)

// Sender writes chat lines through an irc.MessageWriter. Each reply is
// written as a whole, never interleaved with another, and lines are
// paced by a token bucket so bursts of announcements do not get us
// kicked for flooding.
type Sender struct {
	ctx     context.Context
	log     *zap.Logger
	limiter *rate.Limiter

	mu sync.Mutex
	w  irc.MessageWriter
}

// NewSender paces output at perSec lines per second with the given burst.
// Pending writes are abandoned once ctx is done.
func NewSender(ctx context.Context, w irc.MessageWriter, perSec float64, burst int, log *zap.Logger) *Sender {
	if perSec <= 0 {
		perSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Sender{
		ctx:     ctx,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		w:       w,
	}
}

// Say sends text to target, one PRIVMSG per line. Concurrent callers
// wait until the current reply is fully written.
func (s *Sender) Say(target, text string) {
	lines := splitLines(text, maxLineText)
	if len(lines) > maxReplyLines {
		dropped := len(lines) - maxReplyLines
		lines = append(lines[:maxReplyLines], "... ("+strconv.Itoa(dropped)+" more lines)")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		if err := s.limiter.Wait(s.ctx); err != nil {
			s.log.Debug("send abandoned", zap.String("target", target), zap.Error(err))
			return
		}
		s.w.WriteMessage(irc.Msg(target, l))
	}
}

// splitLines breaks text on newlines and wraps long lines at spaces
// (or hard at max bytes when a word is longer than max). Blank lines are dropped.
func splitLines(text string, max int) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		for len(line) > max {
			cut := strings.LastIndexByte(line[:max+1], ' ')
			if cut <= 0 {
				cut = max
				for cut > 0 && !utf8.RuneStart(line[cut]) {
					cut--
				}
			}
			if piece := strings.TrimRight(line[:cut], " "); piece != "" {
				out = append(out, piece)
			}
			line = strings.TrimLeft(line[cut:], " ")
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
