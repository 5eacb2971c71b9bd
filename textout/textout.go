// Package textout writes the text-channel artifacts: plain "key = value"
// files (UTF-8, CRLF line endings) and their structured JSON variant
// carrying per-entry metadata.
//
// Namespaces and complex keys embed path segments: a key "a/b/c" under
// namespace "ns" lands in ns/b.txt with key c. Keys of the root namespace
// collect into a dedicated file, as do UI-asset keys that cannot reach the
// binary channel.
package textout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zxsj-tools/locpipe/identity"
	"github.com/zxsj-tools/locpipe/origins"
)

const (
	// UIAssetsNamespace is the synthetic namespace that collects UI-only
	// keys rejected from the binary channel.
	UIAssetsNamespace = "_UI_ASSETS_TARGET_NAMESPACE_"

	// uiAssetsFilename matches what the runtime patch layout expects for
	// the UI-asset collection file.
	uiAssetsFilename = ".txt"

	rootStringsTxt  = "_ROOT_STRINGS.txt"
	rootStringsJSON = "_ROOT_STRINGS.json"
)

type pair struct {
	key   string
	value string
}

// WriteTxtFiles renders data as key = value text files under baseDir.
// Returns the number of files written plus warnings for skipped entries.
func WriteTxtFiles(data map[string]map[string]string, baseDir string) (int, []string, error) {
	buffers := make(map[string][]pair)
	var warnings []string

	namespaces := sortedKeys(data)
	for _, ns := range namespaces {
		items := data[ns]
		if len(items) == 0 {
			continue
		}

		switch ns {
		case UIAssetsNamespace:
			path := filepath.Join(baseDir, uiAssetsFilename)
			for key, value := range items {
				buffers[path] = append(buffers[path], pair{key, value})
			}
			continue
		case "":
			path := filepath.Join(baseDir, rootStringsTxt)
			for key, value := range items {
				buffers[path] = append(buffers[path], pair{key, value})
			}
			continue
		}

		for complexKey, value := range items {
			keySegs := splitPath(complexKey)
			if len(keySegs) == 0 {
				warnings = append(warnings, fmt.Sprintf("skipping text entry with empty key in namespace %q", ns))
				continue
			}
			nsSegs := splitPath(ns)

			var dirSegs []string
			var stem, actualKey string
			if len(keySegs) == 1 {
				actualKey = keySegs[0]
				if len(nsSegs) > 0 {
					stem = nsSegs[len(nsSegs)-1]
					dirSegs = nsSegs[:len(nsSegs)-1]
				} else {
					stem = ns
					if stem == "" {
						stem = actualKey
					}
				}
			} else {
				actualKey = keySegs[len(keySegs)-1]
				stem = keySegs[len(keySegs)-2]
				dirSegs = append(dirSegs, nsSegs...)
				dirSegs = append(dirSegs, keySegs[:len(keySegs)-2]...)
			}

			stem = strings.ReplaceAll(stem, "/", "_")
			if stem == "" {
				stem = "unknown_formatstring_file"
			}

			parts := append([]string{baseDir}, dirSegs...)
			parts = append(parts, stem+".txt")
			path := filepath.Join(parts...)
			buffers[path] = append(buffers[path], pair{actualKey, value})
		}
	}

	written := 0
	for _, path := range sortedKeys(buffers) {
		pairs := buffers[path]
		sort.SliceStable(pairs, func(i, j int) bool {
			return naturalLess(pairs[i].key, pairs[j].key)
		})

		var b strings.Builder
		for _, p := range pairs {
			value := identity.NormalizeLF(identity.CleanBOM(p.value))
			value = strings.ReplaceAll(value, "\n", `\n`)
			fmt.Fprintf(&b, "%s = %s\r\n", p.key, value)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, warnings, fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
			return written, warnings, fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}
	return written, warnings, nil
}

// JSONEntry is one structured text-channel value.
type JSONEntry struct {
	Text     string           `json:"text"`
	Metadata origins.Metadata `json:"metadata"`
}

// WriteJSONFiles renders the structured channel: one JSON file per
// namespace, entries in natural key order, 4-space indentation.
func WriteJSONFiles(data map[string]map[string]JSONEntry, baseDir string) (int, error) {
	written := 0
	for _, ns := range sortedKeys(data) {
		entries := data[ns]
		if len(entries) == 0 {
			continue
		}

		parts := splitPath(ns)
		var path string
		switch len(parts) {
		case 0:
			path = filepath.Join(baseDir, rootStringsJSON)
		case 1:
			path = filepath.Join(baseDir, parts[0]+".json")
		default:
			dir := append([]string{baseDir}, parts[:len(parts)-1]...)
			path = filepath.Join(append(dir, parts[len(parts)-1]+".json")...)
		}

		keys := sortedKeys(entries)
		sort.SliceStable(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })

		body, err := marshalOrdered(keys, entries)
		if err != nil {
			return written, fmt.Errorf("marshaling %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, body, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

func splitPath(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
