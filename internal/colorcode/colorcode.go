// Package colorcode implements the Line color-escape handling of spec
// §3/§6: stripping ANSI/CSI sequences to compute "real length", and
// wrapping the leftmost regex match span with a highlight sequence.
// Grounded on internal/output/styles.go's lipgloss style table, with
// escape stripping delegated to charmbracelet/x/ansi rather than a
// hand-rolled scanner.
package colorcode

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// recognized 3/4-bit SGR foreground/background codes, per spec §6.
var (
	foreground = func() map[int]bool {
		m := make(map[int]bool, 16)
		for i := 30; i <= 37; i++ {
			m[i] = true
		}
		for i := 90; i <= 97; i++ {
			m[i] = true
		}
		return m
	}()
	background = func() map[int]bool {
		m := make(map[int]bool, 16)
		for i := 40; i <= 47; i++ {
			m[i] = true
		}
		for i := 100; i <= 107; i++ {
			m[i] = true
		}
		return m
	}()
)

// IsKnownSGR reports whether code is a recognized foreground, background,
// or reset SGR parameter. Unknown codes fall back to default per spec §6;
// this predicate is what a renderer would consult to make that call.
func IsKnownSGR(code int) bool {
	return code == 0 || foreground[code] || background[code]
}

// Strip removes ANSI/CSI color-escape sequences from s, leaving the
// printable text spec §3 calls a Line's "real length" basis.
func Strip(s string) string {
	return ansi.Strip(s)
}

// RealLength returns the number of printable runes in s after stripping
// color escapes, per spec §3/§6.
func RealLength(s string) int {
	return len([]rune(Strip(s)))
}

var highlightStyle = lipgloss.NewStyle().Reverse(true).Bold(true)

// Highlight strips color escapes from line, then wraps the leftmost
// match of pattern with a distinguished style, per spec §4.3's
// highlighting rule. If pattern does not match, the stripped line is
// returned unchanged.
func Highlight(line string, pattern *regexp.Regexp) string {
	stripped := Strip(line)
	loc := pattern.FindStringIndex(stripped)
	if loc == nil {
		return stripped
	}
	return stripped[:loc[0]] + highlightStyle.Render(stripped[loc[0]:loc[1]]) + stripped[loc[1]:]
}

// MatchString reports whether pattern matches the color-stripped line,
// the invariant spec §4.3 requires of every Filter Index entry.
func MatchString(pattern *regexp.Regexp, line string) bool {
	return pattern.MatchString(Strip(line))
}
