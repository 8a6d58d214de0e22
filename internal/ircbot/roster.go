package ircbot

import (
	"sort"
	"strings"
	"sync"

	"github.com/Travis-Britz/irc"
)

// memberPrefixes are the channel status sigils servers put in front of
// nicks in RPL_NAMREPLY.
const memberPrefixes = "~&@%+"

// Roster tracks which nicks are in which channels, from NAMES replies and
// JOIN/PART/KICK/QUIT/NICK traffic. Nicks and channels compare case-insensitively.
type Roster struct {
	mu       sync.RWMutex
	channels map[string]*channelMembers // folded channel -> members
}

type channelMembers struct {
	name  string              // channel as first seen
	nicks map[string]struct{} // folded nicks
}

func NewRoster() *Roster {
	return &Roster{channels: make(map[string]*channelMembers)}
}

func fold(s string) string { return strings.ToLower(s) }

func (r *Roster) Join(channel, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[fold(channel)]
	if !ok {
		c = &channelMembers{name: channel, nicks: make(map[string]struct{})}
		r.channels[fold(channel)] = c
	}
	c.nicks[fold(nick)] = struct{}{}
}

func (r *Roster) Part(channel, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[fold(channel)]; ok {
		delete(c.nicks, fold(nick))
	}
}

// Forget drops a channel entirely, e.g. when we leave it.
func (r *Roster) Forget(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, fold(channel))
}

// Quit removes nick from every channel.
func (r *Roster) Quit(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		delete(c.nicks, fold(nick))
	}
}

// Rename moves oldNick to newNick in every channel it was in.
func (r *Roster) Rename(oldNick, newNick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if _, ok := c.nicks[fold(oldNick)]; ok {
			delete(c.nicks, fold(oldNick))
			c.nicks[fold(newNick)] = struct{}{}
		}
	}
}

// Names adds the members listed in one RPL_NAMREPLY line.
func (r *Roster) Names(channel, names string) {
	for _, n := range strings.Fields(names) {
		n = strings.TrimLeft(n, memberPrefixes)
		if n != "" {
			r.Join(channel, n)
		}
	}
}

// Reset forgets everything; used on (re)connect.
func (r *Roster) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = make(map[string]*channelMembers)
}

// ChannelsOf returns the channels nick is in, sorted.
func (r *Roster) ChannelsOf(nick string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []string
	for _, c := range r.channels {
		if _, ok := c.nicks[fold(nick)]; ok {
			res = append(res, c.name)
		}
	}
	sort.Strings(res)
	return res
}

// Middleware keeps the roster current before the next handler sees a message.
// self reports our own nickname.
func (r *Roster) Middleware(self func() irc.Nickname) func(irc.Handler) irc.Handler {
	return func(next irc.Handler) irc.Handler {
		return irc.HandlerFunc(func(w irc.MessageWriter, m *irc.Message) {
			r.observe(self(), m)
			next.SpeakIRC(w, m)
		})
	}
}

func (r *Roster) observe(me irc.Nickname, m *irc.Message) {
	nick := m.Source.Nick
	switch strings.ToUpper(m.Command.String()) {
	case irc.RplWelcome:
		r.Reset()
	case irc.RplNamReply:
		r.Names(m.Params.Get(3), m.Params.Get(4))
	case irc.CmdJoin:
		r.Join(m.Params.Get(1), nick.String())
	case irc.CmdPart:
		if nick.Is(me.String()) {
			r.Forget(m.Params.Get(1))
			return
		}
		r.Part(m.Params.Get(1), nick.String())
	case irc.CmdKick:
		if me.Is(m.Params.Get(2)) {
			r.Forget(m.Params.Get(1))
			return
		}
		r.Part(m.Params.Get(1), m.Params.Get(2))
	case irc.CmdQuit:
		r.Quit(nick.String())
	case irc.CmdNick:
		r.Rename(nick.String(), m.Params.Get(1))
	}
}
