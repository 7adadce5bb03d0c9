// Package filter implements the Filter Index of spec §4.3: a
// monotonically growing list of buffer indices matching an activated
// regex, extended incrementally as the buffer grows. Grounded on the
// compiled-regexp matching shape of the teacher's internal/filter
// package (regex.go, pipeline.go), narrowed from a structured-log
// matcher chain down to the single incremental index the spec calls for.
package filter

import (
	"fmt"
	"regexp"

	"github.com/reagentx/logria-go/internal/colorcode"
	"github.com/reagentx/logria-go/internal/model"
	"github.com/reagentx/logria-go/internal/store"
)

// Index is the Filter Index of spec §3/§4.3.
type Index struct {
	pattern     *regexp.Regexp
	source      string
	idx         []int
	lastRegexed int
}

// NewIndex returns an inactive Index.
func NewIndex() *Index {
	return &Index{}
}

// Active reports whether a pattern has been successfully activated.
func (x *Index) Active() bool {
	return x.pattern != nil
}

// Pattern returns the compiled pattern, or nil if inactive.
func (x *Index) Pattern() *regexp.Regexp {
	return x.pattern
}

// Source returns the pattern text last passed to Activate.
func (x *Index) Source() string {
	return x.source
}

// Activate compiles pattern and, only on success, resets the index to
// empty and replaces the active pattern. A failed compile leaves the
// previous filter untouched, per spec §4.3 and the error-handling
// invariant in §7: "invalid regex (reject, keep prior state)".
func (x *Index) Activate(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("filter: invalid pattern %q: %w", pattern, err)
	}
	x.pattern = re
	x.source = pattern
	x.idx = x.idx[:0]
	x.lastRegexed = 0
	return nil
}

// Deactivate clears the filter, returning the engine to Raw mode per
// the `/:q` slash command of spec §4.10.
func (x *Index) Deactivate() {
	x.pattern = nil
	x.source = ""
	x.idx = nil
	x.lastRegexed = 0
}

// Extend scans buf[lastRegexed:] for new matches, stripping color
// escapes before testing each line, and appends their logical indices.
// It is a no-op when the filter is inactive. Returns the number of new
// matches found.
func (x *Index) Extend(buf *store.Buffer) int {
	if x.pattern == nil {
		return 0
	}
	n := buf.Len()
	if x.lastRegexed > n {
		// buffer was reset (:restart); restart the scan from scratch.
		x.lastRegexed = 0
		x.idx = x.idx[:0]
	}
	added := 0
	for i := x.lastRegexed; i < n; i++ {
		line, ok := buf.At(i)
		if !ok {
			continue
		}
		if colorcode.MatchString(x.pattern, string(line)) {
			x.idx = append(x.idx, i)
			added++
		}
	}
	x.lastRegexed = n
	return added
}

// Entries returns the current matched indices. The returned slice is
// owned by the Index and must not be mutated.
func (x *Index) Entries() []int {
	return x.idx
}

// LastRegexed returns the cursor invariant required by spec §8:
// last_index_regexed ≤ len(active_buffer).
func (x *Index) LastRegexed() int {
	return x.lastRegexed
}

// Render returns the matched lines from buf, each stripped of color
// escapes and, if highlight is set, with the leftmost match span
// wrapped, per spec §4.3's highlighting rule.
func (x *Index) Render(buf *store.Buffer, highlight bool) []model.Line {
	if x.pattern == nil {
		return nil
	}
	out := make([]model.Line, 0, len(x.idx))
	for _, i := range x.idx {
		line, ok := buf.At(i)
		if !ok {
			continue
		}
		if highlight {
			out = append(out, model.Line(colorcode.Highlight(string(line), x.pattern)))
		} else {
			out = append(out, model.Line(colorcode.Strip(string(line))))
		}
	}
	return out
}
