// Package parser implements the Parser of spec §4.4: a reusable, immutable
// projection from a Line to an ordered sequence of field strings, either
// by splitting on a separator or by capturing regex groups. Grounded on
// internal/simulator/parser.go's Parse(line) (*Record, error) shape,
// generalized from a fixed NDJSON schema to the spec's user-defined
// split/regex projection.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reagentx/logria-go/internal/model"
)

// Parser is the immutable value object of spec §3/§4.4. Once
// constructed via New, Pattern/Kind/Name/Example/AnalyticsSpec never
// change; a reconfiguration always allocates a new Parser.
type Parser struct {
	pattern string
	kind    model.ParserKind
	name    string
	example string

	re *regexp.Regexp // nil unless kind == RegexKind

	// analyticsSpec maps a field label to its accumulator method.
	// analyticsOrder preserves the insertion order of the original
	// on-disk mapping, since Go maps don't, and field_index_to_label
	// depends on that order (spec §3).
	analyticsSpec  map[string]model.AnalyticsMethod
	analyticsOrder []string
}

// New constructs a Parser and validates, per spec §3/§4.4's invariant,
// that parsing `example` succeeds and yields at least one field per
// analytics label (extra fields are allowed).
func New(pattern string, kind model.ParserKind, name, example string, analyticsOrder []string, analyticsSpec map[string]model.AnalyticsMethod) (*Parser, error) {
	p := &Parser{
		pattern:        pattern,
		kind:           kind,
		name:           name,
		example:        example,
		analyticsSpec:  analyticsSpec,
		analyticsOrder: append([]string(nil), analyticsOrder...),
	}
	if kind == model.RegexKind {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("parser: invalid pattern %q: %w", pattern, err)
		}
		p.re = re
	}
	fields, ok := p.Parse(model.Line(example))
	if !ok {
		return nil, fmt.Errorf("parser: example %q does not parse", example)
	}
	if len(fields) < len(analyticsOrder) {
		return nil, fmt.Errorf("parser: example yields %d fields, fewer than %d analytics labels", len(fields), len(analyticsOrder))
	}
	return p, nil
}

func (p *Parser) Pattern() string                      { return p.pattern }
func (p *Parser) Kind() model.ParserKind                { return p.kind }
func (p *Parser) Name() string                          { return p.name }
func (p *Parser) Example() string                       { return p.example }
func (p *Parser) AnalyticsOrder() []string              { return p.analyticsOrder }
func (p *Parser) AnalyticsMethod(label string) (model.AnalyticsMethod, bool) {
	m, ok := p.analyticsSpec[label]
	return m, ok
}

// Parse implements spec §4.4: Split returns every piece of the line cut
// on pattern (empty pieces retained); Regex returns the ordered
// capturing groups of the first match, or (nil, false) if there is no
// match.
func (p *Parser) Parse(line model.Line) ([]string, bool) {
	s := string(line)
	switch p.kind {
	case model.RegexKind:
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	default:
		if p.pattern == "" {
			return strings.Split(s, ""), true
		}
		return strings.Split(s, p.pattern), true
	}
}

// FieldIndexToLabel derives the {index -> label} mapping from the
// ordered analytics spec, per spec §3. Fields beyond the analytics
// labels are still projectable, just unlabeled for analytics purposes.
func (p *Parser) FieldIndexToLabel() map[int]string {
	out := make(map[int]string, len(p.analyticsOrder))
	for i, label := range p.analyticsOrder {
		out[i] = label
	}
	return out
}

// Project returns parse(line)[field] for every line in lines that parses
// successfully and has that field index, silently skipping the rest, per
// spec §4.4's "IndexError-equivalent is silently skipped" rule.
func Project(p *Parser, lines []model.Line, field int) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields, ok := p.Parse(line)
		if !ok || field < 0 || field >= len(fields) {
			continue
		}
		out = append(out, fields[field])
	}
	return out
}
