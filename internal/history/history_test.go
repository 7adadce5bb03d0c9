package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTape_AddDeduplicatesConsecutiveAndExcluded(t *testing.T) {
	tp := New()
	tp.Add(":poll 10")
	tp.Add(":poll 10") // consecutive duplicate, not appended again
	tp.Add(":history")
	tp.Add(":history off")
	tp.Add("/err")

	assert.Equal(t, 2, tp.Len())
	assert.Equal(t, []string{":poll 10", "/err"}, tp.Tail(10))
}

func TestTape_ScrollBackParksOnFirstCall(t *testing.T) {
	tp := New()
	tp.Add("one")
	tp.Add("two")
	tp.Add("three")

	assert.Equal(t, "three", tp.ScrollBack(), "first scroll parks on the last item")
	assert.Equal(t, "two", tp.ScrollBack())
	assert.Equal(t, "one", tp.ScrollBack())
	assert.Equal(t, "one", tp.ScrollBack(), "scrolling past the start stays put")
}

func TestTape_ScrollForwardPastEndIsEmpty(t *testing.T) {
	tp := New()
	tp.Add("one")
	tp.Add("two")
	tp.GoTo(0)

	assert.Equal(t, "two", tp.ScrollForward())
	assert.Equal(t, "", tp.ScrollForward())
}

func TestTape_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tape")

	tp, err := Open(path)
	require.NoError(t, err)
	tp.Add("first")
	tp.Add("second")

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, reopened.Tail(10))
}

func TestTape_OpenMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")
	tp, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, tp.Len())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "Open must not create the file until the first Add")
}

func TestTape_Tail(t *testing.T) {
	tp := New()
	for _, c := range []string{"a", "b", "c"} {
		tp.Add(c)
	}
	assert.Equal(t, []string{"b", "c"}, tp.Tail(2))
	assert.Equal(t, []string{"a", "b", "c"}, tp.Tail(100))
	assert.Nil(t, tp.Tail(0))
}
