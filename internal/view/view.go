// Package view implements the View Controller of spec §4.8: selecting
// which derived sequence to render, computing the visible window, and
// deciding when a redraw is actually needed. Grounded on
// internal/tui/model.go's viewport.Model/GotoBottom wiring — Controller
// computes *which* lines are visible; bubbles/viewport performs the
// actual screen paint, the "thin terminal rendering capability" of
// spec §1.
package view

import (
	"hash/fnv"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/reagentx/logria-go/internal/colorcode"
	"github.com/reagentx/logria-go/internal/model"
)

// Controller is the View Controller of spec §4.8.
type Controller struct {
	state model.ViewState
	vp    viewport.Model

	lastStart, lastEnd int
	lastMode           model.ViewMode
	lastHash           uint64
	everRendered       bool
}

// New returns a Controller defaulted to Raw/Out/Tail, per spec §3.
func New() *Controller {
	return &Controller{vp: viewport.New(0, 0)}
}

// State returns the current ViewState.
func (c *Controller) State() model.ViewState {
	return c.state
}

// SetMode switches the active rendered sequence. Per spec §4.8,
// activating a filter while Parsed is active is legal (filter still
// operates on the raw buffer); regex entry while Analytics is active is
// refused by the engine's ActivateFilter, not here.
func (c *Controller) SetMode(m model.ViewMode) {
	c.state.Mode = m
}

// SetChannel swaps the active channel and applies the mode-transition
// invariants of spec §4.8: restore Tail, clear current_end, invalidate
// the render cache.
func (c *Controller) SetChannel(ch model.Channel) {
	c.state.Channel = ch
	c.Reset()
}

// ToggleHighlight flips the highlight flag independent of filter
// activation, per spec §4.3.
func (c *Controller) ToggleHighlight() {
	c.state.Highlight = !c.state.Highlight
}

// ToggleInsertMode flips ViewState.InsertMode. The Command Line keeps its
// own insert flag, toggled by its insert key.
func (c *Controller) ToggleInsertMode() {
	c.state.InsertMode = !c.state.InsertMode
}

// SetFollow sets the follow mode directly, used by the arrow/pgup/pgdn
// key bindings of spec §4.10's follow state machine.
func (c *Controller) SetFollow(f model.Follow) {
	c.state.Follow = f
}

// SetCurrentEnd sets the Manual-mode scroll anchor.
func (c *Controller) SetCurrentEnd(end int) {
	c.state.CurrentEnd = end
}

// Reset restores follow=Tail, current_end=0, invalidates the render
// cache, per the mode-transition invariants of spec §4.8.
func (c *Controller) Reset() {
	c.state.Reset()
	c.lastStart, c.lastEnd = 0, 0
	c.lastMode = c.state.Mode
	c.lastHash = 0
	c.everRendered = false
}

// Window implements the exact algorithm of spec §4.8. S is the active
// sequence; H and W are the viewport's height (rows) and width
// (columns).
func Window(S []model.Line, follow model.Follow, currentEnd, H, W int) (start, end int) {
	n := len(S)
	if n == 0 {
		return -1, 0
	}
	switch follow {
	case model.Tail:
		end = n - 1
	case model.Top:
		if H <= 0 {
			return 0, 0
		}
		rows := 0
		end = 0
		for i := 0; i < n; i++ {
			r := ceilDiv(colorcode.RealLength(string(S[i])), W)
			if rows+r > H {
				break
			}
			rows += r
			end = i
		}
	default: // Manual
		end = currentEnd
		if n < H {
			end = n - 1
		}
		if end < 0 {
			end = 0
		}
		if end > n-1 {
			end = n - 1
		}
	}
	start = end - H - 1
	if start < -1 {
		start = -1
	}
	return start, end
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		b = 1
	}
	if a == 0 {
		return 1
	}
	return (a + b - 1) / b
}

// Visible returns the lines of S that Window selects, in top-to-bottom
// render order, walking end down to start+1 as spec §4.8 prescribes and
// stopping once the available-rows budget is exhausted.
func Visible(S []model.Line, follow model.Follow, currentEnd, H, W int) []model.Line {
	start, end := Window(S, follow, currentEnd, H, W)
	if len(S) == 0 {
		return nil
	}
	var out []model.Line
	budget := H
	for i := end; i > start; i-- {
		if i < 0 || i >= len(S) {
			continue
		}
		r := ceilDiv(colorcode.RealLength(string(S[i])), W)
		budget -= r
		if budget < 0 {
			break
		}
		out = append(out, S[i])
	}
	// reverse into top-to-bottom order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Dirty reports whether a render is actually needed: (start, end),
// mode, or content hash changed since the previous render, or Analytics
// is active (its source sequence is re-derived every pass), per the
// render-scheduling rule of spec §4.8.
func (c *Controller) Dirty(S []model.Line, H, W int) bool {
	if c.state.Mode == model.AnalyticsMode {
		return true
	}
	start, end := Window(S, c.state.Follow, c.state.CurrentEnd, H, W)
	hash := contentHash(S, start, end)
	dirty := !c.everRendered || start != c.lastStart || end != c.lastEnd || c.state.Mode != c.lastMode || hash != c.lastHash
	if dirty {
		c.lastStart, c.lastEnd = start, end
		c.lastMode = c.state.Mode
		c.lastHash = hash
		c.everRendered = true
	}
	return dirty
}

func contentHash(S []model.Line, start, end int) uint64 {
	h := fnv.New64a()
	for i := end; i > start && i >= 0 && i < len(S); i-- {
		h.Write([]byte(S[i]))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Viewport exposes the underlying bubbles/viewport.Model for the
// Scheduler to size and paint, per spec §1's "thin rendering capability".
func (c *Controller) Viewport() *viewport.Model {
	return &c.vp
}

// Paint feeds the currently visible lines into the viewport and, in
// Tail follow mode, pins the scroll position to the bottom so the last
// line of the active sequence is always shown after render, satisfying
// the invariant of spec §8.6.
func (c *Controller) Paint(S []model.Line, content string) {
	c.vp.SetContent(content)
	if c.state.Follow == model.Tail {
		c.vp.GotoBottom()
	}
}
