// Package manifest loads the per-key hash manifest: the CSV that defines
// which (namespace, key) pairs are binary-resource-capable, carries their
// precomputed hashes, and fixes the canonical namespace order for encoding.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zxsj-tools/locpipe/identity"
)

// Entry is one manifest row: a key that may be written to the binary
// channel, with the hashes the runtime will look it up by.
type Entry struct {
	Namespace     string
	Key           string
	SourceValue   string
	NamespaceHash uint32
	KeyHash       uint32
	SourceHash    uint32
}

// ComputeEntry derives a manifest entry from the identity hashes. Used for
// keys that have no extracted hashes, such as UI asset strings routed into
// a synthetic namespace.
func ComputeEntry(namespace, key, source string) Entry {
	return Entry{
		Namespace:     namespace,
		Key:           key,
		SourceValue:   source,
		NamespaceHash: identity.KeyHash(namespace),
		KeyHash:       identity.KeyHash(key),
		SourceHash:    identity.SourceStringHash(source),
	}
}

// Manifest indexes entries by (namespace, key) and remembers the order in
// which namespaces first appeared.
type Manifest struct {
	entries map[string]map[string]Entry
	nsOrder []string
	nsHash  map[string]uint32
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{
		entries: make(map[string]map[string]Entry),
		nsHash:  make(map[string]uint32),
	}
}

const (
	colNamespace  = "Namespace"
	colKey        = "Key"
	colSource     = "SourceValue"
	colNSHash     = "NamespaceHash"
	colKeyHash    = "KeyHash_of_KeyString"
	colSourceHash = "SourceStringHash_of_SourceText"
)

// Load reads a manifest CSV. Malformed rows (missing fields, non-integer
// hashes) are skipped and reported as warnings rather than aborting the
// load; a namespace whose later rows disagree on the namespace hash keeps
// the first hash and warns.
func Load(path string) (*Manifest, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("manifest %s is empty", path)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{colNamespace, colKey, colSource, colNSHash, colKeyHash, colSourceHash} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("manifest %s: missing required column %q", path, required)
		}
	}

	m := New()
	var warnings []string
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		entry, err := parseRow(row, cols)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("manifest row %d skipped: %v", rowNum, err))
			continue
		}
		if prev, ok := m.nsHash[entry.Namespace]; ok && prev != entry.NamespaceHash {
			warnings = append(warnings, fmt.Sprintf(
				"manifest row %d: namespace %q hash %d conflicts with %d, keeping first",
				rowNum, entry.Namespace, entry.NamespaceHash, prev))
			entry.NamespaceHash = prev
		}
		m.Add(entry)
	}
	return m, warnings, nil
}

func parseRow(row []string, cols map[string]int) (Entry, error) {
	get := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(row) {
			return "", fmt.Errorf("missing field %q", name)
		}
		return row[idx], nil
	}
	getHash := func(name string) (uint32, error) {
		s, err := get(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("field %q is not a 32-bit hash: %q", name, s)
		}
		return uint32(v), nil
	}

	var e Entry
	var err error
	if e.Namespace, err = get(colNamespace); err != nil {
		return Entry{}, err
	}
	if e.Key, err = get(colKey); err != nil {
		return Entry{}, err
	}
	if e.SourceValue, err = get(colSource); err != nil {
		return Entry{}, err
	}
	if e.NamespaceHash, err = getHash(colNSHash); err != nil {
		return Entry{}, err
	}
	if e.KeyHash, err = getHash(colKeyHash); err != nil {
		return Entry{}, err
	}
	if e.SourceHash, err = getHash(colSourceHash); err != nil {
		return Entry{}, err
	}
	e.Namespace = identity.CleanBOM(e.Namespace)
	e.Key = identity.CleanBOM(e.Key)
	return e, nil
}

// Add inserts an entry, registering its namespace at the end of the
// canonical order on first sight.
func (m *Manifest) Add(e Entry) {
	if _, ok := m.nsHash[e.Namespace]; !ok {
		m.nsHash[e.Namespace] = e.NamespaceHash
		m.nsOrder = append(m.nsOrder, e.Namespace)
		m.entries[e.Namespace] = make(map[string]Entry)
	}
	m.entries[e.Namespace][e.Key] = e
}

// Lookup returns the manifest entry for (namespace, key).
func (m *Manifest) Lookup(namespace, key string) (Entry, bool) {
	e, ok := m.entries[namespace][key]
	return e, ok
}

// Namespaces returns namespace names in canonical first-seen order.
func (m *Manifest) Namespaces() []string {
	out := make([]string, len(m.nsOrder))
	copy(out, m.nsOrder)
	return out
}

// NamespaceHash returns the hash registered for a namespace.
func (m *Manifest) NamespaceHash(namespace string) (uint32, bool) {
	h, ok := m.nsHash[namespace]
	return h, ok
}

// Keys returns the keys of one namespace in unspecified order.
func (m *Manifest) Keys(namespace string) []string {
	pairs := m.entries[namespace]
	out := make([]string, 0, len(pairs))
	for k := range pairs {
		out = append(out, k)
	}
	return out
}

// Len returns the total number of entries.
func (m *Manifest) Len() int {
	n := 0
	for _, pairs := range m.entries {
		n += len(pairs)
	}
	return n
}
