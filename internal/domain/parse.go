package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidTicket is returned for ticket references other than "1234" or "#1234".
var ErrInvalidTicket = errors.New("use either #1234 or 1234 for ticket number")

var ticketRE = regexp.MustCompile(`^#?(\d+)$`)

// ParseTicket extracts the ticket number from "1234" or "#1234".
func ParseTicket(s string) (string, error) {
	m := ticketRE.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 2 {
		return "", ErrInvalidTicket
	}
	return m[1], nil
}

// TicketURL builds the Trac link for a ticket number.
func TicketURL(base, number string) string {
	return strings.TrimRight(base, "/") + "/ticket/" + number
}
