package domain

import "strings"

// TextEnumeration joins items for a chat line:
// "", "A", "A and B", "A, B, and C".
func TextEnumeration(items []string) string {
	switch n := len(items); n {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:n-1], ", ") + ", and " + items[n-1]
	}
}

// SplitPorts splits raw lookup output on runs of whitespace.
// Duplicates are kept as returned.
func SplitPorts(raw string) []string {
	return strings.Fields(raw)
}
