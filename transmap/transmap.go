// Package transmap manages the accumulated translation table: a JSON
// mapping of namespace -> source text -> translated text that grows
// across pipeline runs.
//
// Once a (namespace, source) pair is mapped, later runs reuse it unless
// the table file is edited by hand. New translations discovered during a
// run (cross-namespace or pattern-derived) are merged back and persisted
// so the next run finds them directly.
package transmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zxsj-tools/locpipe/identity"
)

// Map is the translation table: namespace -> source text -> translation.
type Map map[string]map[string]string

// Load reads a translation table from a JSON file. A missing file yields
// an empty table; a present but unparsable file is an error. Namespace
// names and source keys are BOM-cleaned on load.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m := make(Map, len(raw))
	for ns, pairs := range raw {
		cleaned := make(map[string]string, len(pairs))
		for src, trans := range pairs {
			cleaned[identity.CleanBOM(src)] = trans
		}
		m[identity.CleanBOM(ns)] = cleaned
	}
	return m, nil
}

// Save writes the table as JSON with sorted namespaces and keys and
// 4-space indentation, creating parent directories as needed. HTML
// characters stay unescaped; the table is edited by hand and its values
// carry markup tags.
func (m Map) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("marshaling translation table: %w", err)
	}
	data := buf.Bytes()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Lookup returns the exact per-namespace translation for a source text.
func (m Map) Lookup(namespace, source string) (string, bool) {
	pairs, ok := m[namespace]
	if !ok {
		return "", false
	}
	t, ok := pairs[source]
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// Record stores a translation, creating the namespace bucket on demand.
func (m Map) Record(namespace, source, translation string) {
	pairs, ok := m[namespace]
	if !ok {
		pairs = make(map[string]string)
		m[namespace] = pairs
	}
	pairs[source] = translation
}

// Merge folds another table into this one. Incoming values win: a run's
// freshly used translations overwrite what the table held before.
func (m Map) Merge(other Map) {
	for ns, pairs := range other {
		for src, trans := range pairs {
			m.Record(ns, src, trans)
		}
	}
}

// Len returns the total number of (namespace, source) pairs.
func (m Map) Len() int {
	n := 0
	for _, pairs := range m {
		n += len(pairs)
	}
	return n
}
