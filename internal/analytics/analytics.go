// Package analytics implements the Analytics Engine of spec §4.5:
// per-field Count/Sum/Average accumulators applied incrementally to
// parsed messages, rendered as a multi-line summary. Grounded on
// internal/output/analyzer.go's top-K extraction (samber/lo) and
// normalization pass, narrowed from log-entry summarization to the
// spec's generic per-field accumulator model.
package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/reagentx/logria-go/internal/model"
	"github.com/reagentx/logria-go/internal/parser"
)

// CountAccumulator is a frequency map, per spec §3.
type CountAccumulator struct {
	freq map[string]int
}

func newCountAccumulator() *CountAccumulator {
	return &CountAccumulator{freq: make(map[string]int)}
}

func (a *CountAccumulator) observe(v string) {
	a.freq[v]++
}

// TopK returns the k most frequent values, highest first. Values with
// equal counts keep Go's map iteration order, so their relative order is
// not defined.
func (a *CountAccumulator) TopK(k int) []lo.Entry[string, int] {
	entries := lo.Entries(a.freq)
	sortEntriesByCountDesc(entries)
	if k > 0 && k < len(entries) {
		entries = lo.Slice(entries, 0, k)
	}
	return entries
}

func sortEntriesByCountDesc(entries []lo.Entry[string, int]) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Value > entries[j-1].Value; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// SumAccumulator is a running numeric total, per spec §3.
type SumAccumulator struct {
	total   float64
	integer bool
	seen    bool
}

func newSumAccumulator() *SumAccumulator { return &SumAccumulator{integer: true} }

func (a *SumAccumulator) observe(v string) {
	num, integer, ok := extractNumber(v)
	if !ok {
		return
	}
	a.total += num
	a.integer = a.integer && integer
	a.seen = true
}

// AverageAccumulator tracks {total, count, mean}, per spec §3.
type AverageAccumulator struct {
	total float64
	count int
}

func newAverageAccumulator() *AverageAccumulator { return &AverageAccumulator{} }

func (a *AverageAccumulator) observe(v string) {
	num, _, ok := extractNumber(v)
	if !ok {
		return
	}
	a.total += num
	a.count++
}

func (a *AverageAccumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.total / float64(a.count)
}

// extractNumber keeps digits and '.' from v, per spec §4.5, then parses
// it as an integer if there's no '.', else as a real number.
func extractNumber(v string) (value float64, integer bool, ok bool) {
	var b strings.Builder
	for _, r := range v {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, false, false
	}
	if !strings.Contains(s, ".") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false, false
		}
		return float64(n), true, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return f, false, true
}

// field holds one analytics-mapped field's accumulator, tagged by
// method so Engine can dispatch without a type switch at call sites.
type field struct {
	label  string
	method model.AnalyticsMethod
	count  *CountAccumulator
	sum    *SumAccumulator
	avg    *AverageAccumulator
}

// Engine drives the Analytics Engine of spec §4.5: one accumulator per
// analytics-mapped field index, advanced incrementally as new parsed
// messages arrive.
type Engine struct {
	p                 *parser.Parser
	fields            map[int]*field
	lastIndexProcessed int
	topK              int
}

// New builds an Engine for p's analytics spec. topK bounds the Count
// accumulator's rendered frequency table (spec §4.5's "top-K
// configurable").
func New(p *parser.Parser, topK int) *Engine {
	e := &Engine{p: p, fields: make(map[int]*field), topK: topK}
	labelToIndex := map[string]int{}
	for i, label := range p.AnalyticsOrder() {
		labelToIndex[label] = i
	}
	for i, label := range p.AnalyticsOrder() {
		method, ok := p.AnalyticsMethod(label)
		if !ok {
			continue
		}
		f := &field{label: label, method: method}
		switch method {
		case model.Count:
			f.count = newCountAccumulator()
		case model.Sum:
			f.sum = newSumAccumulator()
		case model.Average:
			f.avg = newAverageAccumulator()
		}
		e.fields[i] = f
	}
	return e
}

// Reset clears every accumulator and the incremental cursor, per the
// "reset_analytics()" call in spec §4.5.
func (e *Engine) Reset() {
	for i, f := range e.fields {
		switch f.method {
		case model.Count:
			f.count = newCountAccumulator()
		case model.Sum:
			f.sum = newSumAccumulator()
		case model.Average:
			f.avg = newAverageAccumulator()
		}
		e.fields[i] = f
	}
	e.lastIndexProcessed = 0
}

// LastIndexProcessed satisfies the cursor invariant of spec §8:
// last_index_processed ≤ len(previous_buffer).
func (e *Engine) LastIndexProcessed() int {
	return e.lastIndexProcessed
}

// Advance consumes lines[lastIndexProcessed:] incrementally, feeding
// each successfully-parsed line's mapped fields to their accumulators.
func (e *Engine) Advance(lines []model.Line) int {
	n := len(lines)
	if e.lastIndexProcessed > n {
		e.lastIndexProcessed = 0
	}
	processed := 0
	for i := e.lastIndexProcessed; i < n; i++ {
		fields, ok := e.p.Parse(lines[i])
		if !ok {
			continue
		}
		for idx, f := range e.fields {
			if idx < 0 || idx >= len(fields) {
				continue
			}
			v := fields[idx]
			switch f.method {
			case model.Count:
				f.count.observe(v)
			case model.Sum:
				f.sum.observe(v)
			case model.Average:
				f.avg.observe(v)
			}
		}
		processed++
	}
	e.lastIndexProcessed = n
	return processed
}

// Render produces the header+body lines of spec §4.5: for each
// analytics-mapped field with a non-empty accumulator, a "label" header
// followed by a type-specific body. Count fields render as plain
// "key: count" lines here; RenderDisplay renders them as an aligned
// table instead, for the TUI's Analytics mode.
func (e *Engine) Render() []model.Line {
	var out []model.Line
	for _, label := range e.p.AnalyticsOrder() {
		idx := indexOf(e.p.AnalyticsOrder(), label)
		f, ok := e.fields[idx]
		if !ok {
			continue
		}
		switch f.method {
		case model.Count:
			if len(f.count.freq) == 0 {
				continue
			}
			out = append(out, model.Line(label))
			for _, entry := range f.count.TopK(e.topK) {
				out = append(out, model.Line(fmt.Sprintf("%s: %d", entry.Key, entry.Value)))
			}
		case model.Sum, model.Average:
			out = append(out, e.renderSumOrAverage(f)...)
		}
	}
	return out
}

// RenderDisplay is the TUI's Analytics-mode rendering: Count fields as an
// aligned olekukonko/tablewriter table (the one place the repo genuinely
// needs tabular alignment), Sum/Average fields as the same plain lines
// Render uses.
func (e *Engine) RenderDisplay() []model.Line {
	var out []model.Line
	if table := e.RenderTable(); strings.TrimSpace(table) != "" {
		for _, line := range strings.Split(strings.TrimRight(table, "\n"), "\n") {
			out = append(out, model.Line(line))
		}
	}
	for _, label := range e.p.AnalyticsOrder() {
		idx := indexOf(e.p.AnalyticsOrder(), label)
		f, ok := e.fields[idx]
		if !ok {
			continue
		}
		switch f.method {
		case model.Sum, model.Average:
			out = append(out, e.renderSumOrAverage(f)...)
		}
	}
	return out
}

func (e *Engine) renderSumOrAverage(f *field) []model.Line {
	switch f.method {
	case model.Sum:
		if !f.sum.seen {
			return nil
		}
		out := []model.Line{model.Line(f.label)}
		if f.sum.integer {
			out = append(out, model.Line(fmt.Sprintf("Total: %d", int64(f.sum.total))))
		} else {
			out = append(out, model.Line(fmt.Sprintf("Total: %g", f.sum.total)))
		}
		return out
	case model.Average:
		if f.avg.count == 0 {
			return nil
		}
		return []model.Line{
			model.Line(f.label),
			model.Line(fmt.Sprintf("average: %g", f.avg.Mean())),
			model.Line(fmt.Sprintf("count: %d", f.avg.count)),
			model.Line(fmt.Sprintf("total: %g", f.avg.total)),
		}
	default:
		return nil
	}
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}

// RenderTable renders the Count accumulators as an aligned table for the
// TUI's Analytics mode, via olekukonko/tablewriter — the one place the
// repo genuinely needs tabular alignment.
func (e *Engine) RenderTable() string {
	var rows [][]string
	for _, label := range e.p.AnalyticsOrder() {
		idx := indexOf(e.p.AnalyticsOrder(), label)
		f, ok := e.fields[idx]
		if !ok || f.method != model.Count {
			continue
		}
		for _, entry := range f.count.TopK(e.topK) {
			rows = append(rows, []string{label, entry.Key, strconv.Itoa(entry.Value)})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	table := tablewriter.NewTable(&b, tablewriter.WithHeader([]string{"Field", "Value", "Count"}))
	for _, row := range rows {
		table.Append(row)
	}
	_ = table.Render()
	return b.String()
}
