// Package interp implements the environment interpolation table: a name to
// value mapping snapshotted at script-parse time and applied to directive
// payloads at execution time. References use the `${NAME}` form; a reference
// to a name absent from the table is a hard error, never an empty
// substitution.
package interp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnresolved is wrapped by errors reported for `${NAME}` references whose
// name is absent from the snapshot.
var ErrUnresolved = errors.New("interp: unresolved variable")

// Snapshot is an immutable-by-default copy of the environment taken when a
// script is parsed. Entries may still be added explicitly (for example from
// secret sources) before execution; reads and writes are safe for concurrent
// use.
type Snapshot struct {
	mux    sync.RWMutex
	values map[string]string
}

// New returns a snapshot holding the supplied entries.
func New(values map[string]string) *Snapshot {
	s := &Snapshot{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// NewFromEnviron builds a snapshot from "KEY=VALUE" pairs as returned by
// os.Environ.
func NewFromEnviron(environ []string) *Snapshot {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			values[kv[:i]] = kv[i+1:]
		}
	}
	return &Snapshot{values: values}
}

// Set adds or replaces one entry.
func (s *Snapshot) Set(name, value string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.values[name] = value
}

// Lookup returns the value bound to name.
func (s *Snapshot) Lookup(name string) (string, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// Names returns the sorted names bound in the snapshot.
func (s *Snapshot) Names() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every `${NAME}` reference in text resolves against the
// snapshot. It is called at parse time so a missing variable fails the script
// before anything is spawned.
func (s *Snapshot) Validate(text string) error {
	for _, seg := range split(text) {
		if seg.name == "" {
			continue
		}
		if _, ok := s.Lookup(seg.name); !ok {
			return fmt.Errorf("%w: ${%s}", ErrUnresolved, seg.name)
		}
	}
	return nil
}

// Expand substitutes every `${NAME}` reference in text with its snapshot
// value. Substitution happens at execution time so entries added after parse
// are honored. A missing name is an error even here; Validate should have
// caught it already unless the snapshot shrank.
func (s *Snapshot) Expand(text string) (string, error) {
	segments := split(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range segments {
		if seg.name == "" {
			b.WriteString(seg.literal)
			continue
		}
		value, ok := s.Lookup(seg.name)
		if !ok {
			return "", fmt.Errorf("%w: ${%s}", ErrUnresolved, seg.name)
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// References returns the distinct variable names referenced by text, in order
// of first appearance.
func References(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, seg := range split(text) {
		if seg.name == "" || seen[seg.name] {
			continue
		}
		seen[seg.name] = true
		names = append(names, seg.name)
	}
	return names
}
