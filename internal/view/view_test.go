package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reagentx/logria-go/internal/model"
)

func lines(ss ...string) []model.Line {
	out := make([]model.Line, len(ss))
	for i, s := range ss {
		out[i] = model.Line(s)
	}
	return out
}

func TestWindow_EmptySequence(t *testing.T) {
	start, end := Window(nil, model.Tail, 0, 10, 80)
	assert.Equal(t, -1, start)
	assert.Equal(t, 0, end)
}

func TestWindow_TailAnchorsAtLastLine(t *testing.T) {
	S := lines("a", "b", "c", "d", "e")
	start, end := Window(S, model.Tail, 0, 2, 80)
	assert.Equal(t, 4, end)
	assert.Equal(t, end-2-1, start)
}

func TestWindow_TopFillsFromStart(t *testing.T) {
	S := lines("a", "b", "c", "d", "e")
	start, end := Window(S, model.Top, 0, 3, 80)
	assert.Equal(t, -1, start)
	assert.Equal(t, 2, end)
}

func TestWindow_ManualClampsToBounds(t *testing.T) {
	S := lines("a", "b", "c")
	_, end := Window(S, model.Manual, 100, 2, 80)
	assert.Equal(t, 2, end)

	_, end = Window(S, model.Manual, -5, 2, 80)
	assert.Equal(t, 0, end)
}

func TestWindow_ManualShortSequenceForcesTailEnd(t *testing.T) {
	S := lines("a", "b")
	_, end := Window(S, model.Manual, 0, 10, 80)
	assert.Equal(t, 1, end)
}

func TestVisible_EmptySequenceIsNil(t *testing.T) {
	assert.Nil(t, Visible(nil, model.Tail, 0, 10, 80))
}

func TestVisible_SingleLineTallerThanViewportStopsRender(t *testing.T) {
	// 500 columns at width 80 needs ceil(500/80) = 7 rows; with only 5
	// available the budget drops below zero and nothing is rendered.
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	S := lines(string(long))
	out := Visible(S, model.Tail, 0, 5, 80)
	assert.Nil(t, out)
}

func TestVisible_TopToBottomOrder(t *testing.T) {
	S := lines("a", "b", "c")
	out := Visible(S, model.Tail, 0, 10, 80)
	assert.Equal(t, S, out)
}

func TestController_DirtyTracksWindowModeAndContent(t *testing.T) {
	c := New()
	S := lines("a", "b", "c")

	assert.True(t, c.Dirty(S, 5, 80), "first render is always dirty")
	assert.False(t, c.Dirty(S, 5, 80), "unchanged window is not dirty")

	S2 := lines("a", "b", "c", "d")
	assert.True(t, c.Dirty(S2, 5, 80), "new content changes the hash")
	assert.False(t, c.Dirty(S2, 5, 80))

	c.SetMode(model.Filtered)
	assert.True(t, c.Dirty(S2, 5, 80), "mode change forces a redraw")
}

func TestController_AnalyticsModeAlwaysDirty(t *testing.T) {
	c := New()
	c.SetMode(model.AnalyticsMode)
	S := lines("label", "value: 1")
	assert.True(t, c.Dirty(S, 5, 80))
	assert.True(t, c.Dirty(S, 5, 80))
}

func TestController_SetChannelResetsFollowAndCache(t *testing.T) {
	c := New()
	c.SetFollow(model.Manual)
	c.SetCurrentEnd(7)
	c.SetChannel(model.Err)

	st := c.State()
	assert.Equal(t, model.Err, st.Channel)
	assert.Equal(t, model.Tail, st.Follow)
	assert.Equal(t, 0, st.CurrentEnd)
}

func TestController_ToggleHighlightIndependentOfFilter(t *testing.T) {
	c := New()
	assert.False(t, c.State().Highlight)
	c.ToggleHighlight()
	assert.True(t, c.State().Highlight)
	c.SetMode(model.Filtered)
	assert.True(t, c.State().Highlight)
}
