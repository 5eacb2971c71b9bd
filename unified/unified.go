// Package unified reads and writes the unified source data table: a JSON
// mapping of namespace -> key -> source text produced by the archive
// extraction stage.
//
// Values that are not plain strings (nested structures left over from
// extraction) are not translatable units; they are dropped on load with a
// count so the caller can log them.
package unified

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zxsj-tools/locpipe/identity"
)

// Table is the unified source data: namespace -> key -> source text.
type Table map[string]map[string]string

// Load reads a unified data JSON file. Namespace and key strings are
// BOM-cleaned and trimmed. Returns the table and the number of non-string
// values that were skipped.
func Load(path string) (Table, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := make(Table, len(raw))
	skipped := 0
	for ns, pairs := range raw {
		cleaned := make(map[string]string, len(pairs))
		for key, v := range pairs {
			s, ok := v.(string)
			if !ok {
				skipped++
				continue
			}
			cleaned[normalizeKey(key)] = s
		}
		table[normalizeKey(ns)] = cleaned
	}
	return table, skipped, nil
}

// Save writes the table as JSON with sorted namespaces and keys, 4-space
// indentation, and HTML characters unescaped.
func (t Table) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("marshaling table: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Get returns the source text for (namespace, key).
func (t Table) Get(namespace, key string) (string, bool) {
	pairs, ok := t[namespace]
	if !ok {
		return "", false
	}
	s, ok := pairs[key]
	return s, ok
}

// Set stores a value, creating the namespace bucket on demand.
func (t Table) Set(namespace, key, value string) {
	pairs, ok := t[namespace]
	if !ok {
		pairs = make(map[string]string)
		t[namespace] = pairs
	}
	pairs[key] = value
}

// Len returns the total number of (namespace, key) pairs.
func (t Table) Len() int {
	n := 0
	for _, pairs := range t {
		n += len(pairs)
	}
	return n
}

func normalizeKey(s string) string {
	return strings.TrimSpace(identity.CleanBOM(s))
}
