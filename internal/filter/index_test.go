package filter

import (
	"testing"

	"github.com/reagentx/logria-go/internal/model"
	"github.com/reagentx/logria-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toLine(s string) model.Line {
	return model.Line(s)
}

func TestIndex_ActivateRejectsBadPattern(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.Activate("err"))
	err := x.Activate("[unclosed")
	assert.Error(t, err)
	assert.True(t, x.Active())
	assert.Equal(t, "err", x.Source())
}

func TestIndex_ExtendMatchesAndStrips(t *testing.T) {
	buf := &store.Buffer{}
	for _, l := range []string{"err1", "info2", "err3"} {
		buf.Append(toLine(l))
	}
	x := NewIndex()
	require.NoError(t, x.Activate("err"))
	added := x.Extend(buf)
	assert.Equal(t, 2, added)
	assert.Equal(t, []int{0, 2}, x.Entries())
	assert.Equal(t, buf.Len(), x.LastRegexed())
}

func TestIndex_ExtendIncremental(t *testing.T) {
	buf := &store.Buffer{}
	x := NewIndex()
	require.NoError(t, x.Activate("err"))
	buf.Append(toLine("err1"))
	x.Extend(buf)
	buf.Append(toLine("info2"))
	buf.Append(toLine("err3"))
	x.Extend(buf)
	assert.Equal(t, []int{0, 2}, x.Entries())
}

func TestIndex_NoMatchesIsEmpty(t *testing.T) {
	buf := &store.Buffer{}
	buf.Append(toLine("alpha"))
	x := NewIndex()
	require.NoError(t, x.Activate("zzz"))
	x.Extend(buf)
	assert.Empty(t, x.Entries())
}

func TestIndex_DeactivateClearsState(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.Activate("a"))
	x.Deactivate()
	assert.False(t, x.Active())
	assert.Nil(t, x.Entries())
}
