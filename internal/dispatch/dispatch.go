// Package dispatch implements the Command Dispatcher of spec §4.10:
// parsing colon-prefixed commands and slash-prefixed regex activation,
// then applying them as a pure function of (engine, input) ->
// StateTransition. Grounded on internal/filter/where_expr.go's
// hand-rolled lexer/parser shape, reused here for the `:r` range-list
// grammar instead of field comparisons.
//
// Command handlers never hold a back-reference to the engine (spec §9
// "Cycles and weak references"): Dispatch receives the Engine as a
// parameter, and this package never imports internal/engine. The engine
// uses only the exported parse/dispatch functions and DispatchError.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes the colon commands of spec §4.10.
type Kind int

const (
	Quit Kind = iota
	Poll
	Config
	History
	HistoryOff
	Restart
	Range
)

// Command is the parsed form of a colon-prefixed line.
type Command struct {
	Kind    Kind
	Poll    time.Duration
	HistN   int
	Indices []int // de-duplicated, 1-based->0-based already applied, for Range
}

// ParseColon parses a `:`-prefixed command line (the leading ':' must
// already be stripped by the caller), matching by prefix per spec
// §4.10. An unrecognized command yields an error; the caller should
// treat that as a no-op per spec §7 ("invalid integer in command:
// ignore" generalizes to unknown commands").
func ParseColon(line string) (Command, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "q":
		return Command{Kind: Quit}, nil
	case strings.HasPrefix(line, "poll"):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "poll"))
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			// invalid numbers are ignored silently, per spec §4.10;
			// report this up as a no-op-shaped command rather than an
			// error so the dispatcher doesn't surface anything.
			return Command{Kind: Poll, Poll: 0}, nil
		}
		return Command{Kind: Poll, Poll: time.Duration(f * float64(time.Millisecond))}, nil
	case line == "config":
		return Command{Kind: Config}, nil
	case strings.HasPrefix(line, "history"):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "history"))
		if rest == "off" {
			return Command{Kind: HistoryOff}, nil
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return Command{Kind: History, HistN: -1}, nil // caller substitutes viewport height
		}
		return Command{Kind: History, HistN: n}, nil
	case line == "restart":
		return Command{Kind: Restart}, nil
	case strings.HasPrefix(line, "r "), strings.HasPrefix(line, "r\t"):
		spec := strings.TrimSpace(line[1:])
		idx, err := parseRangeSpec(spec)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Range, Indices: idx}, nil
	default:
		return Command{}, fmt.Errorf("dispatch: unrecognized command %q", line)
	}
}

// parseRangeSpec implements the `:r <spec>` grammar of spec §4.10:
// comma-separated tokens, each an integer or an `a-b` range, converted to
// a de-duplicated, order-of-first-sighting union of 0-based indices.
// Invalid tokens are skipped rather than aborting the whole parse,
// matching spec §7's "invalid integer in command: ignore". A descending
// range (`a-b` with a >= b) is never swapped into ascending order: per
// the original `resolve_delete_command`'s `range(start, end)` plus a
// trailing `append(end)`, a descending or degenerate range contributes
// only its end value.
func parseRangeSpec(spec string) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if lo, hi, ok := splitRange(tok); ok {
			if lo < hi {
				for v := lo; v <= hi; v++ {
					add1Based(&out, seen, v)
				}
			} else {
				add1Based(&out, seen, hi)
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		add1Based(&out, seen, n)
	}
	return out, nil
}

func add1Based(out *[]int, seen map[int]bool, oneBased int) {
	zero := oneBased - 1
	if zero < 0 || seen[zero] {
		return
	}
	seen[zero] = true
	*out = append(*out, zero)
}

func splitRange(tok string) (lo, hi int, ok bool) {
	i := strings.IndexByte(tok, '-')
	if i <= 0 || i == len(tok)-1 {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(strings.TrimSpace(tok[:i]))
	b, err2 := strconv.Atoi(strings.TrimSpace(tok[i+1:]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return a, b, true
}

// SlashKind distinguishes `/pattern` from `/:q`, spec §4.10.
type SlashKind int

const (
	Activate SlashKind = iota
	ClearFilter
)

// SlashCommand is the parsed form of a `/`-prefixed line.
type SlashCommand struct {
	Kind    SlashKind
	Pattern string
}

// ParseSlash parses a `/`-prefixed line (leading '/' already stripped).
func ParseSlash(line string) SlashCommand {
	if line == ":q" {
		return SlashCommand{Kind: ClearFilter}
	}
	return SlashCommand{Kind: Activate, Pattern: line}
}

// DispatchError carries a machine-distinguishable code alongside a
// message, for the status line, grounded on internal/cli/cli_error.go's
// code+message shape.
type DispatchError struct {
	Code    string
	Message string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Engine is the capability set Dispatch needs from the Scheduler, kept
// as an interface (not a concrete *engine.Engine) so this package never
// imports internal/engine — the dispatcher receives its target as a
// parameter, per spec §9 "Cycles and weak references".
type Engine interface {
	Shutdown()
	SetPollRate(d time.Duration)
	OpenConfig()
	ViewHistory(n int)
	ExitHistoryView()
	Restart()
	DeleteSelected(indices []int) error
	ActivateFilter(pattern string) error
	DeactivateFilter()
}

// Dispatch applies cmd to eng. It is a pure function of (engine, input)
// and never retains eng, satisfying the redesign in spec §9.
func Dispatch(cmd Command, eng Engine) error {
	switch cmd.Kind {
	case Quit:
		eng.Shutdown()
	case Poll:
		if cmd.Poll > 0 {
			eng.SetPollRate(cmd.Poll)
		}
	case Config:
		eng.OpenConfig()
	case History:
		eng.ViewHistory(cmd.HistN)
	case HistoryOff:
		eng.ExitHistoryView()
	case Restart:
		eng.Restart()
	case Range:
		return eng.DeleteSelected(cmd.Indices)
	}
	return nil
}

// DispatchSlash applies a SlashCommand to eng.
func DispatchSlash(cmd SlashCommand, eng Engine) error {
	switch cmd.Kind {
	case ClearFilter:
		eng.DeactivateFilter()
		return nil
	default:
		return eng.ActivateFilter(cmd.Pattern)
	}
}
