// Package origins loads the key source origins table: for every
// (namespace, key), the list of output channels the key was extracted from
// and therefore must be written back to.
//
// Entries come in two shapes: a bare string naming the kind, or an object
// {"type": ..., "metadata": {...}} carrying per-entry flags and notes for
// the JSON channel. Both normalize to Source at ingestion.
package origins

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zxsj-tools/locpipe/identity"
)

// Kind names one output channel.
type Kind string

const (
	KindLocRes     Kind = "LocRes"
	KindFormatTxt  Kind = "FormatString_Txt"
	KindFormatJSON Kind = "FormatString_Json"
	KindUIAssets   Kind = "UI_Assets"
)

// Metadata carries the per-entry flags and note of a JSON-channel source.
type Metadata struct {
	Flags string `json:"flags"`
	Note  string `json:"note"`
}

// Source is one normalized origin record.
type Source struct {
	Kind     Kind
	Metadata *Metadata
}

// UnmarshalJSON accepts both the bare-string and the structured form.
func (s *Source) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		s.Kind = Kind(kind)
		s.Metadata = nil
		return nil
	}

	var structured struct {
		Type     string    `json:"type"`
		Metadata *Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("origin entry is neither a string nor an object: %w", err)
	}
	if structured.Type == "" {
		return fmt.Errorf("origin object has no type field")
	}
	s.Kind = Kind(structured.Type)
	s.Metadata = structured.Metadata
	return nil
}

// MarshalJSON writes the compact form the loader accepts: a bare string
// unless metadata is attached.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.Metadata == nil {
		return json.Marshal(string(s.Kind))
	}
	return json.Marshal(struct {
		Type     string    `json:"type"`
		Metadata *Metadata `json:"metadata"`
	}{Type: string(s.Kind), Metadata: s.Metadata})
}

// Table maps namespace -> key -> origin sources.
type Table map[string]map[string][]Source

// Load reads an origins JSON file. Namespace and key strings are
// BOM-cleaned.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var raw map[string]map[string][]Source
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := make(Table, len(raw))
	for ns, keys := range raw {
		cleaned := make(map[string][]Source, len(keys))
		for key, sources := range keys {
			cleaned[identity.CleanBOM(key)] = sources
		}
		table[identity.CleanBOM(ns)] = cleaned
	}
	return table, nil
}

// Kinds returns the distinct kinds among sources.
func Kinds(sources []Source) map[Kind]bool {
	kinds := make(map[Kind]bool, len(sources))
	for _, s := range sources {
		kinds[s.Kind] = true
	}
	return kinds
}

// OnlyUIAssets reports whether every source is a UI asset. Such keys
// cannot reach the binary channel and are diverted to a dedicated text
// file.
func OnlyUIAssets(sources []Source) bool {
	if len(sources) == 0 {
		return false
	}
	for _, s := range sources {
		if s.Kind != KindUIAssets {
			return false
		}
	}
	return true
}
