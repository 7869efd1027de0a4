package probe

import (
	"strings"
	"unicode/utf8"
)

const maxEchoLen = 120

// printable makes a server-supplied value safe to print on a terminal.
// Line breaks are escaped, other control runes (including ESC, which would
// start colour sequences) are dropped, and values longer than maxEchoLen
// runes are cut on a rune boundary.
func printable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7F:
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if utf8.RuneCountInString(out) > maxEchoLen {
		out = string([]rune(out)[:maxEchoLen]) + "..."
	}
	return out
}
