package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	shutdown       bool
	pollRate       time.Duration
	configOpened   bool
	historyViewN   int
	historyExited  bool
	restarted      bool
	deletedIndices []int
	activated      string
	deactivated    bool
	activateErr    error
}

func (f *fakeEngine) Shutdown()                  { f.shutdown = true }
func (f *fakeEngine) SetPollRate(d time.Duration) { f.pollRate = d }
func (f *fakeEngine) OpenConfig()                { f.configOpened = true }
func (f *fakeEngine) ViewHistory(n int)          { f.historyViewN = n }
func (f *fakeEngine) ExitHistoryView()           { f.historyExited = true }
func (f *fakeEngine) Restart()                   { f.restarted = true }
func (f *fakeEngine) DeleteSelected(indices []int) error {
	f.deletedIndices = indices
	return nil
}
func (f *fakeEngine) ActivateFilter(pattern string) error {
	f.activated = pattern
	return f.activateErr
}
func (f *fakeEngine) DeactivateFilter() { f.deactivated = true }

func TestParseColon_Quit(t *testing.T) {
	cmd, err := ParseColon("q")
	require.NoError(t, err)
	assert.Equal(t, Quit, cmd.Kind)
}

func TestParseColon_Poll(t *testing.T) {
	cmd, err := ParseColon("poll 50")
	require.NoError(t, err)
	assert.Equal(t, Poll, cmd.Kind)
	assert.Equal(t, 50*time.Millisecond, cmd.Poll)
}

func TestParseColon_PollInvalidNumberIsIgnored(t *testing.T) {
	cmd, err := ParseColon("poll not-a-number")
	require.NoError(t, err)
	assert.Equal(t, Poll, cmd.Kind)
	assert.Equal(t, time.Duration(0), cmd.Poll)
}

func TestParseColon_HistoryWithAndWithoutCount(t *testing.T) {
	cmd, err := ParseColon("history 20")
	require.NoError(t, err)
	assert.Equal(t, History, cmd.Kind)
	assert.Equal(t, 20, cmd.HistN)

	cmd, err = ParseColon("history")
	require.NoError(t, err)
	assert.Equal(t, History, cmd.Kind)
	assert.Equal(t, -1, cmd.HistN)

	cmd, err = ParseColon("history off")
	require.NoError(t, err)
	assert.Equal(t, HistoryOff, cmd.Kind)
}

func TestParseColon_Unrecognized(t *testing.T) {
	_, err := ParseColon("bogus")
	assert.Error(t, err)
}

func TestParseColon_RangeUnionsOverlappingTokens(t *testing.T) {
	// spec scenario: "1-3,2-5" unions to {0,1,2,3,4} in first-sighting order.
	cmd, err := ParseColon("r 1-3,2-5")
	require.NoError(t, err)
	assert.Equal(t, Range, cmd.Kind)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, cmd.Indices)
}

func TestParseColon_RangeDescendingTokenKeepsOnlyItsEnd(t *testing.T) {
	// spec scenario: "1-3,5,7-6" -> {0,1,2} from "1-3", {4} from "5", and
	// only {5} (the 0-based form of "7-6"'s end, 6) from the descending
	// range "7-6" — not the full 6..7 span — matching the original
	// resolve_delete_command's range(start, end)+append(end) behavior.
	cmd, err := ParseColon("r 1-3,5,7-6")
	require.NoError(t, err)
	assert.Equal(t, Range, cmd.Kind)
	assert.Equal(t, []int{0, 1, 2, 4, 5}, cmd.Indices)
}

func TestParseColon_RangeIgnoresGarbageTokens(t *testing.T) {
	cmd, err := ParseColon("r 1,x,3")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, cmd.Indices)
}

func TestParseSlash_ActivateAndClear(t *testing.T) {
	sc := ParseSlash("err.*timeout")
	assert.Equal(t, Activate, sc.Kind)
	assert.Equal(t, "err.*timeout", sc.Pattern)

	sc = ParseSlash(":q")
	assert.Equal(t, ClearFilter, sc.Kind)
}

func TestDispatch_Quit(t *testing.T) {
	f := &fakeEngine{}
	require.NoError(t, Dispatch(Command{Kind: Quit}, f))
	assert.True(t, f.shutdown)
}

func TestDispatch_Poll(t *testing.T) {
	f := &fakeEngine{}
	require.NoError(t, Dispatch(Command{Kind: Poll, Poll: 5 * time.Millisecond}, f))
	assert.Equal(t, 5*time.Millisecond, f.pollRate)
}

func TestDispatch_PollZeroIsNoOp(t *testing.T) {
	f := &fakeEngine{}
	require.NoError(t, Dispatch(Command{Kind: Poll, Poll: 0}, f))
	assert.Equal(t, time.Duration(0), f.pollRate)
}

func TestDispatch_Range(t *testing.T) {
	f := &fakeEngine{}
	require.NoError(t, Dispatch(Command{Kind: Range, Indices: []int{1, 3}}, f))
	assert.Equal(t, []int{1, 3}, f.deletedIndices)
}

func TestDispatchSlash_ActivateAndClear(t *testing.T) {
	f := &fakeEngine{}
	require.NoError(t, DispatchSlash(SlashCommand{Kind: Activate, Pattern: "err"}, f))
	assert.Equal(t, "err", f.activated)

	require.NoError(t, DispatchSlash(SlashCommand{Kind: ClearFilter}, f))
	assert.True(t, f.deactivated)
}
