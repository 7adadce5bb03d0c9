// Package persist implements the on-disk Parser and Session records of
// spec §3/§6: JSON files under $CONFIG/parsers and $CONFIG/sessions,
// plus the 1-based list/delete-by-index operations the `:config` UI and
// `:r <spec>` command need. Grounded on internal/cli/sessions.go's
// list/show/clean shape, generalized from a fixed xcw session-file
// layout to the spec's generic named-record directories. Malformed JSON
// is pre-validated with tidwall/gjson so it can be surfaced as a
// user-visible line and skipped, per spec §7, rather than aborting the
// whole listing.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/reagentx/logria-go/internal/model"
)

// ParserRecord is the on-disk Parser record of spec §3/§6.
type ParserRecord struct {
	Pattern   string            `json:"pattern"`
	Type      string            `json:"type"` // "split" | "regex"
	Name      string            `json:"name"`
	Example   string            `json:"example"`
	Analytics map[string]string `json:"analytics"` // label -> "count"|"sum"|"average"
}

// Kind returns the record's ParserKind, defaulting to Split on an
// unrecognized or missing type string.
func (r ParserRecord) Kind() model.ParserKind {
	if r.Type == "regex" {
		return model.RegexKind
	}
	return model.Split
}

// SessionRecord is the on-disk Session record of spec §3/§6.
type SessionRecord struct {
	Type     string     `json:"type"` // "command" | "file"
	Commands [][]string `json:"commands"`
}

// LoadError wraps a malformed on-disk record, surfaced as a
// user-visible status line per spec §7 ("malformed JSON on load:
// surface as a user-visible line, continue") rather than aborting the
// directory listing.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("persist: %s: %v", e.Path, e.Err)
}
func (e *LoadError) Unwrap() error { return e.Err }

// LoadParser reads and strictly unmarshals a parser record, after a
// tolerant gjson pre-check that the top-level shape looks plausible.
func LoadParser(path string) (ParserRecord, error) {
	var rec ParserRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, &LoadError{Path: path, Err: err}
	}
	if !gjson.ValidBytes(data) || !gjson.GetBytes(data, "pattern").Exists() {
		return rec, &LoadError{Path: path, Err: fmt.Errorf("not a valid parser record")}
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, &LoadError{Path: path, Err: err}
	}
	return rec, nil
}

// SaveParser writes rec to $CONFIG/parsers/<name>, creating the
// directory if needed.
func SaveParser(dir string, rec ParserRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, rec.Name), data, 0o644)
}

// LoadSession reads and strictly unmarshals a session record, after a
// tolerant gjson pre-check.
func LoadSession(path string) (SessionRecord, error) {
	var rec SessionRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, &LoadError{Path: path, Err: err}
	}
	if !gjson.ValidBytes(data) || !gjson.GetBytes(data, "type").Exists() {
		return rec, &LoadError{Path: path, Err: fmt.Errorf("not a valid session record")}
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, &LoadError{Path: path, Err: err}
	}
	return rec, nil
}

// SaveSession writes rec to $CONFIG/sessions/<name>.
func SaveSession(dir, name string, rec SessionRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// Entry is one file in a listing, 1-based Index matching the `:r <spec>`
// addressing scheme of spec §4.10.
type Entry struct {
	Index int
	Name  string
	Path  string
}

// List returns every regular file directly under dir, sorted by name,
// 1-indexed for the `:config`/`:r` UI. A missing directory yields an
// empty list, not an error.
func List(dir string) ([]Entry, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Index: i + 1, Name: n, Path: filepath.Join(dir, n)}
	}
	return entries, nil
}

// DeleteByIndices deletes the files at the given 0-based indices (as
// produced by dispatch.ParseColon's `:r` parser) from dir's listing,
// skipping any index outside range, per spec §4.10's "invalid tokens
// are skipped".
func DeleteByIndices(dir string, zeroBased []int) error {
	entries, err := List(dir)
	if err != nil {
		return err
	}
	for _, i := range zeroBased {
		if i < 0 || i >= len(entries) {
			continue
		}
		if err := os.Remove(entries[i].Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("persist: deleting %s: %w", entries[i].Path, err)
		}
	}
	return nil
}
