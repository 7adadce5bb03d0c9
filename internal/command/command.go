// Package command implements the Command Line of spec §4.7: a
// single-line editable buffer with history recall, drawn one line above
// the bottom of the screen. It tracks an insert/overwrite flag, but typed
// text is always inserted; overwrite is not applied. Grounded on
// internal/tui/model.go's m.searching branch of Update, which wraps a
// bubbles/textinput.Model the same way.
package command

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/reagentx/logria-go/internal/history"
)

// Prompt distinguishes the two edit-session triggers of spec §4.7/§4.10.
type Prompt int

const (
	None Prompt = iota
	Regex
	Colon
)

func (p Prompt) String() string {
	switch p {
	case Regex:
		return "/"
	case Colon:
		return ":"
	default:
		return ""
	}
}

// Line is the Command Line of spec §4.7. It owns only the edit-session
// state machine; which keys trigger Open is internal/dispatch's concern.
type Line struct {
	ti      textinput.Model
	prompt  Prompt
	insert  bool
	history *history.Tape
}

// New wraps tape for history recall. A nil tape disables recall.
func New(tape *history.Tape) *Line {
	ti := textinput.New()
	ti.CharLimit = 4096
	ti.Prompt = ""
	return &Line{ti: ti, insert: true, history: tape}
}

// Open enters edit mode with the given prompt, clearing any prior text.
func (l *Line) Open(p Prompt) tea.Cmd {
	l.prompt = p
	l.ti.SetValue("")
	l.ti.Focus()
	return textinput.Blink
}

// Active reports whether the command line currently has focus.
func (l *Line) Active() bool {
	return l.prompt != None
}

// Prompt returns the active prompt, or None if not editing.
func (l *Line) Prompt() Prompt {
	return l.prompt
}

// Value returns the current edit buffer contents.
func (l *Line) Value() string {
	return l.ti.Value()
}

// View renders the prompt and buffer for display one line above the
// footer, per spec §4.7's framed single-line layout.
func (l *Line) View() string {
	return l.prompt.String() + l.ti.View()
}

// Close leaves edit mode without submitting, per the `esc` mode trigger
// of spec §4.7.
func (l *Line) Close() {
	l.prompt = None
	l.ti.Blur()
	l.ti.SetValue("")
}

// HandleKey processes one keystroke while the command line has focus.
// It returns the submitted text and true on enter, or ("", false)
// otherwise (including after esc, which closes the line).
func (l *Line) HandleKey(msg tea.KeyMsg) (submitted string, ok bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		l.Close()
		return "", false, nil
	case "enter":
		v := l.prompt.String() + l.ti.Value()
		if l.history != nil {
			l.history.Add(v)
		}
		l.Close()
		return v, true, nil
	case "up":
		if l.history != nil {
			l.ti.SetValue(l.history.ScrollBack())
			l.ti.CursorEnd()
		}
		return "", false, nil
	case "down":
		if l.history != nil {
			l.ti.SetValue(l.history.ScrollForward())
			l.ti.CursorEnd()
		}
		return "", false, nil
	case "insert":
		// Only the flag flips; editing still inserts.
		l.insert = !l.insert
		l.ti.SetValue(l.ti.Value())
		return "", false, nil
	default:
		var c tea.Cmd
		l.ti, c = l.ti.Update(msg)
		return "", false, c
	}
}
