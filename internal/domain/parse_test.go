package domain

import (
	"errors"
	"testing"
)

func TestParseTicket(t *testing.T) {
	for in, want := range map[string]string{"1234": "1234", "#42": "42", " #7 ": "7"} {
		got, err := ParseTicket(in)
		if err != nil || got != want {
			t.Errorf("ParseTicket(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "#", "abc", "#12a", "12 34"} {
		if _, err := ParseTicket(in); !errors.Is(err, ErrInvalidTicket) {
			t.Errorf("ParseTicket(%q): want ErrInvalidTicket, got %v", in, err)
		}
	}
}

func TestTicketURL(t *testing.T) {
	if got := TicketURL("https://trac.macports.org/", "42"); got != "https://trac.macports.org/ticket/42" {
		t.Fatalf("unexpected url %q", got)
	}
}
