// Package engine implements the Scheduler/Main Loop of spec §4.9 as a
// bubbletea.Model: it drains the active Source, advances Filter/Parser/
// Analytics incrementally, adapts the poll rate, and renders only when
// the visible window actually changed. Grounded on internal/tui/model.go's
// tickCmd/waitForLog Cmd pump and internal/simulator/streamer.go's
// streamLoop poll-rate handling, generalized from a fixed log-entry feed
// to the spec's Raw/Filtered/Parsed/Analytics pipeline.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reagentx/logria-go/internal/analytics"
	"github.com/reagentx/logria-go/internal/colorcode"
	"github.com/reagentx/logria-go/internal/command"
	"github.com/reagentx/logria-go/internal/dispatch"
	"github.com/reagentx/logria-go/internal/filter"
	"github.com/reagentx/logria-go/internal/history"
	"github.com/reagentx/logria-go/internal/model"
	"github.com/reagentx/logria-go/internal/parser"
	"github.com/reagentx/logria-go/internal/persist"
	"github.com/reagentx/logria-go/internal/source"
	"github.com/reagentx/logria-go/internal/store"
	"github.com/reagentx/logria-go/internal/view"
)

const (
	// FastestPoll and SlowestPoll clamp the adaptive-poll range of
	// spec §4.9/§9.
	FastestPoll = 100 * time.Microsecond
	SlowestPoll = 100 * time.Millisecond
)

type outMsg model.Line
type errMsg model.Line
type tickMsg time.Time
type sourceDoneMsg struct{}

// Options configures a new Engine, standing in for the CLI flags and
// config defaults of spec §6.
type Options struct {
	SmartPoll       bool
	HistoryEnabled  bool
	HistoryPath     string
	InitialPollRate time.Duration
	AnalyticsTopK   int
	Clock           clock.Clock
	ParsersDir      string
	SessionsDir     string
}

// Engine is the Scheduler/Main Loop of spec §4.9, and the single owner
// of state that spec §9 ("Cycles and weak references") calls for:
// command handlers receive it as a parameter rather than holding a
// back-reference to it.
type Engine struct {
	log *zap.SugaredLogger
	clk clock.Clock

	src    source.Source
	cancel context.CancelFunc
	group  *errgroup.Group

	st        *store.Store
	flt       *filter.Index
	prs       *parser.Parser
	analytic  *analytics.Engine
	analyticsTopK int

	hist    *history.Tape
	cmdLine *command.Line
	vc      *view.Controller

	pollRate  time.Duration
	smartPoll bool
	msgsSinceTick int

	activeChosen bool
	quitting     bool

	historyView     bool
	preHistoryMode  model.ViewMode
	historySnapshot []string

	parsersDir    string
	sessionsDir   string
	activeListDir string

	width, height int
}

// New constructs an Engine around src, which has not yet been started.
func New(src source.Source, log *zap.SugaredLogger, opts Options) *Engine {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	var hist *history.Tape
	var err error
	if opts.HistoryEnabled && opts.HistoryPath != "" {
		hist, err = history.Open(opts.HistoryPath)
		if err != nil {
			log.Warnw("failed to load history tape, starting empty", "error", err)
			hist = history.New()
		}
	} else {
		hist = history.New()
	}
	pollRate := opts.InitialPollRate
	if pollRate <= 0 {
		pollRate = source.DefaultPollRate
	}
	topK := opts.AnalyticsTopK
	if topK <= 0 {
		topK = 10
	}
	return &Engine{
		log:           log,
		clk:           clk,
		src:           src,
		st:            store.New(),
		flt:           filter.NewIndex(),
		hist:          hist,
		cmdLine:       command.New(hist),
		vc:            view.New(),
		pollRate:      pollRate,
		smartPoll:     opts.SmartPoll,
		analyticsTopK: topK,
		parsersDir:    opts.ParsersDir,
		sessionsDir:   opts.SessionsDir,
	}
}

// Init starts the Source and begins the tea.Cmd pump, mirroring
// internal/tui/model.go's Init.
func (e *Engine) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	e.group = group
	// A single supervisory member joins the Source's lifetime to the
	// errgroup so Shutdown's group.Wait() has something to wait on,
	// per spec §5's "one reader task per Source" bookkeeping.
	group.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if err := e.src.Start(ctx); err != nil {
		e.log.Errorw("source failed to start", "error", err)
	}
	return tea.Batch(e.waitForOut(), e.waitForErr(), e.tickCmd())
}

func (e *Engine) waitForOut() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-e.src.Out()
		if !ok {
			return sourceDoneMsg{}
		}
		return outMsg(line)
	}
}

func (e *Engine) waitForErr() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-e.src.Err()
		if !ok {
			return sourceDoneMsg{}
		}
		return errMsg(line)
	}
}

// tickCmd schedules the next Scheduler iteration after the current poll
// budget via the injectable clock, so tests can drive iterations
// deterministically with a fake clock instead of real wall-clock sleeps.
func (e *Engine) tickCmd() tea.Cmd {
	d := e.pollRate
	clk := e.clk
	return func() tea.Msg {
		<-clk.After(d)
		return tickMsg(clk.Now())
	}
}

// Update implements the one-iteration algorithm of spec §4.9.
func (e *Engine) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case outMsg:
		e.st.Out.Append(model.Line(msg))
		e.msgsSinceTick++
		e.selectInitialChannel()
		return e, e.waitForOut()

	case errMsg:
		e.st.Err.Append(model.Line(msg))
		e.msgsSinceTick++
		e.selectInitialChannel()
		return e, e.waitForErr()

	case sourceDoneMsg:
		return e, nil

	case tickMsg:
		e.adaptPollRate()
		e.advanceIncremental()
		if e.quitting {
			return e, tea.Quit
		}
		return e, e.tickCmd()

	case tea.WindowSizeMsg:
		e.width, e.height = msg.Width, msg.Height
		bodyHeight := msg.Height - 2
		if bodyHeight < 1 {
			bodyHeight = 1
		}
		e.vc.Viewport().Width = msg.Width
		e.vc.Viewport().Height = bodyHeight
		return e, nil

	case tea.KeyMsg:
		return e.handleKey(msg)
	}
	return e, nil
}

// selectInitialChannel implements spec §4.9 step 4: if no channel has
// ever produced yet and this is the first time one has, pick the
// channel with the larger buffer as active.
func (e *Engine) selectInitialChannel() {
	if e.activeChosen {
		return
	}
	if e.st.Out.Len() == 0 && e.st.Err.Len() == 0 {
		return
	}
	if e.st.Err.Len() > e.st.Out.Len() {
		e.vc.SetChannel(model.Err)
	} else {
		e.vc.SetChannel(model.Out)
	}
	e.activeChosen = true
}

// adaptPollRate implements spec §4.9 step 3: when smart-poll is
// enabled, retarget the poll rate so roughly one iteration covers one
// message, clamped to [FastestPoll, SlowestPoll].
func (e *Engine) adaptPollRate() {
	if !e.smartPoll {
		e.msgsSinceTick = 0
		return
	}
	switch {
	case e.msgsSinceTick > 1:
		e.pollRate = e.pollRate / 2
	case e.msgsSinceTick == 0:
		e.pollRate = e.pollRate * 2
	}
	if e.pollRate < FastestPoll {
		e.pollRate = FastestPoll
	}
	if e.pollRate > SlowestPoll {
		e.pollRate = SlowestPoll
	}
	e.msgsSinceTick = 0
}

// advanceIncremental implements spec §4.9 step 5's non-keystroke branch:
// extend the Filter Index and advance Parser/Analytics by one step.
func (e *Engine) advanceIncremental() {
	buf := e.st.Buffer(e.vc.State().Channel)
	if e.flt.Active() {
		e.flt.Extend(buf)
	}
	if e.prs != nil && e.analytic != nil {
		lines := bufferLines(buf)
		e.analytic.Advance(lines)
	}
}

func bufferLines(buf *store.Buffer) []model.Line {
	n := buf.Len()
	return buf.Slice(0, n)
}

func (e *Engine) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if e.cmdLine.Active() {
		submitted, ok, cmd := e.cmdLine.HandleKey(msg)
		if ok {
			e.submitCommand(submitted)
		}
		return e, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		e.Shutdown()
		return e, tea.Quit
	case "/":
		return e, e.cmdLine.Open(command.Regex)
	case ":":
		return e, e.cmdLine.Open(command.Colon)
	case "h":
		e.vc.ToggleHighlight()
	case "i":
		e.vc.ToggleInsertMode()
	case "s":
		e.vc.SetChannel(e.vc.State().Channel.Other())
		// The new channel's buffer is scanned from index 0.
		if e.flt.Active() {
			_ = e.flt.Activate(e.flt.Source())
		}
		if e.analytic != nil {
			e.analytic.Reset()
		}
	case "p":
		e.OpenParserSelect()
	case "a":
		e.toggleAnalytics()
	case "z":
		e.teardownParser()
	case "up":
		e.vc.SetFollow(model.Manual)
	case "pgup":
		e.vc.SetFollow(model.Top)
	case "right", "pgdown":
		if e.vc.State().Follow == model.Manual {
			e.vc.SetFollow(model.Tail)
		} else if e.vc.State().Follow == model.Top {
			e.vc.SetFollow(model.Manual)
		}
	case "down":
		e.vc.SetFollow(model.Tail)
	}
	return e, nil
}

// submitCommand routes a submitted Command Line value to the
// dispatcher, per spec §4.10.
func (e *Engine) submitCommand(v string) {
	switch {
	case strings.HasPrefix(v, ":"):
		cmd, err := dispatch.ParseColon(strings.TrimPrefix(v, ":"))
		if err != nil {
			e.log.Debugw("dispatch: ignoring unrecognized command", "input", v)
			return
		}
		if err := dispatch.Dispatch(cmd, e); err != nil {
			e.log.Debugw("dispatch failed", "error", err)
		}
	case strings.HasPrefix(v, "/"):
		sc := dispatch.ParseSlash(strings.TrimPrefix(v, "/"))
		if err := dispatch.DispatchSlash(sc, e); err != nil {
			e.log.Debugw("filter activation failed", "error", err)
		}
	}
}

func (e *Engine) toggleAnalytics() {
	if e.prs == nil {
		return
	}
	if e.vc.State().Mode == model.AnalyticsMode {
		e.vc.SetMode(model.Parsed)
		return
	}
	e.vc.SetMode(model.AnalyticsMode)
}

func (e *Engine) teardownParser() {
	e.prs = nil
	e.analytic = nil
	e.vc.SetMode(model.Raw)
	e.vc.Reset()
}

// ActivateParser installs p as the active Parser and resets Analytics,
// per spec §4.4/§4.5's activation semantics.
func (e *Engine) ActivateParser(p *parser.Parser, field int) {
	e.prs = p
	e.analytic = analytics.New(p, e.analyticsTopK)
	e.vc.SetMode(model.Parsed)
	e.vc.Reset()
	_ = field // field is not used: Parsed mode always projects field 0 (see activeSequence); analytics runs over all mapped fields.
}

// --- dispatch.Engine implementation ---

// Shutdown requests the shutdown path of spec §4.10's `:q`: terminate
// every Source, then the main loop exits.
func (e *Engine) Shutdown() {
	e.quitting = true
	if err := e.src.Terminate(); err != nil {
		e.log.Warnw("source terminate failed", "error", err)
	}
	if e.cancel != nil {
		e.cancel()
	}
	if e.group != nil {
		_ = e.group.Wait()
	}
}

// SetPollRate implements `:poll F`.
func (e *Engine) SetPollRate(d time.Duration) {
	e.pollRate = d
	e.src.SetPollRate(d)
}

// OpenConfig implements `:config`. The picker widget itself is an
// external collaborator per spec §1's "Out of scope", but the list it
// would display — saved sessions — is real: this makes the sessions
// directory the target of a subsequent `:r <spec>`, per spec §8's
// scenario 5.
func (e *Engine) OpenConfig() {
	e.activeListDir = e.sessionsDir
	e.log.Debugw("config UI requested", "dir", e.activeListDir)
}

// OpenParserSelect implements the `p` key binding's parser-selection UI.
// Like OpenConfig, the interactive picker itself lives outside this
// module's thin rendering capability, but it makes the parsers
// directory the target of a subsequent `:r <spec>`.
func (e *Engine) OpenParserSelect() {
	e.activeListDir = e.parsersDir
	e.log.Debugw("parser selection UI requested", "dir", e.activeListDir)
}

// ViewHistory implements `:history N`: a read-only snapshot of the last
// N tape entries, taken at activation time per spec §9's ambiguity
// resolution ("Adopt: snapshot of last N at activation time").
func (e *Engine) ViewHistory(n int) {
	if n <= 0 {
		n = e.vc.Viewport().Height
	}
	if !e.historyView {
		e.preHistoryMode = e.vc.State().Mode
	}
	e.historyView = true
	e.historySnapshot = e.hist.Tail(n)
}

// ExitHistoryView implements `:history off`.
func (e *Engine) ExitHistoryView() {
	e.historyView = false
	e.historySnapshot = nil
	e.vc.SetMode(e.preHistoryMode)
}

// Restart implements `:restart` by clearing both buffers and all derived
// state (filter, parser, analytics, view mode). The running Source is not
// terminated and no setup flow is re-entered.
func (e *Engine) Restart() {
	e.st.Reset()
	e.flt = filter.NewIndex()
	e.prs = nil
	e.analytic = nil
	e.activeChosen = false
	e.vc.SetMode(model.Raw)
	e.vc.Reset()
}

// DeleteSelected implements `:r <spec>` against whichever list
// OpenConfig or OpenParserSelect last exposed, via
// persist.DeleteByIndices; with none open it is a no-op, since the base
// engine has nothing addressable by index outside that list.
func (e *Engine) DeleteSelected(indices []int) error {
	if e.activeListDir == "" {
		e.log.Debugw("delete requested with no active selectable list", "indices", indices)
		return nil
	}
	if err := persist.DeleteByIndices(e.activeListDir, indices); err != nil {
		return err
	}
	e.log.Debugw("deleted from active list", "dir", e.activeListDir, "indices", indices)
	return nil
}

// ActivateFilter implements `/pattern`.
func (e *Engine) ActivateFilter(pattern string) error {
	if e.vc.State().Mode == model.AnalyticsMode {
		return &dispatch.DispatchError{Code: "FILTER_BLOCKED", Message: "regex entry is disabled while analytics is active"}
	}
	if err := e.flt.Activate(pattern); err != nil {
		return err
	}
	e.vc.SetMode(model.Filtered)
	return nil
}

// DeactivateFilter implements `/:q`.
func (e *Engine) DeactivateFilter() {
	e.flt.Deactivate()
	if e.vc.State().Mode == model.Filtered {
		e.vc.SetMode(model.Raw)
	}
}

// --- rendering ---

// activeSequence returns the sequence the View Controller should
// render for the current mode, per spec §4.8.
func (e *Engine) activeSequence() []model.Line {
	if e.historyView {
		out := make([]model.Line, len(e.historySnapshot))
		for i, s := range e.historySnapshot {
			out[i] = model.Line(s)
		}
		return out
	}
	buf := e.st.Buffer(e.vc.State().Channel)
	switch e.vc.State().Mode {
	case model.Filtered:
		return e.flt.Render(buf, e.vc.State().Highlight)
	case model.Parsed:
		if e.prs == nil {
			return nil
		}
		lines := bufferLines(buf)
		fields := parser.Project(e.prs, lines, 0)
		out := make([]model.Line, len(fields))
		for i, f := range fields {
			out[i] = model.Line(f)
		}
		return out
	case model.AnalyticsMode:
		if e.analytic == nil {
			return nil
		}
		return e.analytic.RenderDisplay()
	default:
		return bufferLines(buf)
	}
}

// View renders the full screen: header, body, footer, and the command
// line when active, mirroring internal/tui/model.go's View composition.
func (e *Engine) View() string {
	seq := e.activeSequence()
	w := e.vc.Viewport().Width
	if w <= 0 {
		w = 80
	}
	h := e.vc.Viewport().Height
	if h <= 0 {
		h = 1
	}
	if e.vc.Dirty(seq, h, w) {
		visible := view.Visible(seq, e.vc.State().Follow, e.vc.State().CurrentEnd, h, w)
		lines := make([]string, len(visible))
		for i, l := range visible {
			lines[i] = string(l)
		}
		e.vc.Paint(seq, strings.Join(lines, "\n"))
	}

	header := e.renderHeader()
	footer := e.renderFooter(len(seq))
	body := e.vc.Viewport().View()

	if e.cmdLine.Active() {
		return lipgloss.JoinVertical(lipgloss.Left, header, body, e.cmdLine.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func (e *Engine) renderHeader() string {
	st := e.vc.State()
	return headerStyle.Render(fmt.Sprintf(" logria — %s / %s / %s", st.Channel, st.Mode, st.Follow))
}

func (e *Engine) renderFooter(count int) string {
	return fmt.Sprintf(" %d lines  poll=%s", count, e.pollRate)
}

// RealLength exposes the rune-width calculation used by the View
// Controller, kept here so callers outside this package (tests) don't
// need to import internal/colorcode directly for a trivial check.
func RealLength(s string) int {
	return colorcode.RealLength(s)
}
