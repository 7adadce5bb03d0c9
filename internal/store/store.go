// Package store implements the Message Store of spec §4.2: two
// append-only per-channel line buffers merging every active Source's
// output in FIFO-per-source order. Generalized from
// internal/simulator/ringbuffer.go's circular-index arithmetic, which
// backs the optional capped mode addressing the Backpressure open
// question in spec §9.
package store

import "github.com/reagentx/logria-go/internal/model"

// Buffer is an ordered, 0-indexed sequence of Lines. Indices are
// logical offsets from the first line ever appended: they remain
// monotonically increasing even when the buffer is capped, so a
// FilterIndex computed before a truncation stays interpretable (entries
// that fell off the front are simply skipped on lookup).
type Buffer struct {
	lines    []model.Line
	cap      int // 0 means uncapped
	dropped  int // logical offset of lines[0]
}

// Append adds line to the end of the buffer, evicting from the front if
// a capacity was set with SetCap.
func (b *Buffer) Append(line model.Line) {
	b.lines = append(b.lines, line)
	if b.cap > 0 && len(b.lines) > b.cap {
		evict := len(b.lines) - b.cap
		b.lines = b.lines[evict:]
		b.dropped += evict
	}
}

// Len returns the logical length of the buffer: the number of lines
// ever appended, including any that have since been evicted.
func (b *Buffer) Len() int {
	return b.dropped + len(b.lines)
}

// At returns the line at logical index i, or false if i refers to a
// line that has been evicted or never existed.
func (b *Buffer) At(i int) (model.Line, bool) {
	j := i - b.dropped
	if j < 0 || j >= len(b.lines) {
		return "", false
	}
	return b.lines[j], true
}

// Slice returns the logical-index range [start, end) as available
// lines, silently clamping to what survives eviction.
func (b *Buffer) Slice(start, end int) []model.Line {
	if start < b.dropped {
		start = b.dropped
	}
	if end > b.dropped+len(b.lines) {
		end = b.dropped + len(b.lines)
	}
	if start >= end {
		return nil
	}
	return b.lines[start-b.dropped : end-b.dropped]
}

// SetCap bounds the buffer to its last n lines, mirroring
// internal/simulator/ringbuffer.go's Push/GetAll eviction. n <= 0
// restores the default uncapped behavior of spec §5.
func (b *Buffer) SetCap(n int) {
	b.cap = n
	if n > 0 && len(b.lines) > n {
		evict := len(b.lines) - n
		b.lines = b.lines[evict:]
		b.dropped += evict
	}
}

// Store holds the two channel buffers of spec §4.2.
type Store struct {
	Out Buffer
	Err Buffer
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Buffer returns the buffer for the given channel.
func (s *Store) Buffer(ch model.Channel) *Buffer {
	if ch == model.Err {
		return &s.Err
	}
	return &s.Out
}

// SetCap applies the same capacity bound to both channel buffers.
func (s *Store) SetCap(n int) {
	s.Out.SetCap(n)
	s.Err.SetCap(n)
}

// Reset discards all buffered lines on both channels, used by :restart.
func (s *Store) Reset() {
	*s = Store{Out: Buffer{cap: s.Out.cap}, Err: Buffer{cap: s.Err.cap}}
}
