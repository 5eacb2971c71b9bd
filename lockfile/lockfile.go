// Package lockfile implements locpipe.lock — a lock file that tracks
// MD5 checksums of source strings per namespace. This lets the pipeline
// report which strings are new or changed since the previous run, so
// translators can focus review on the delta instead of the full table.
//
// The lock file is stored alongside locpipe.yaml as locpipe.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "locpipe.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the locpipe.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // namespace -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// SourceContent builds the content string hashed for one table entry.
// The key is included so re-keying a string triggers a change report.
func SourceContent(key, value string) string {
	return key + "\x00" + value
}

// IsChanged checks if a source string has changed since the last run.
// Returns true if the string is new or its content has changed.
func (lf *LockFile) IsChanged(namespace, key, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[namespace]
	if !ok {
		return true
	}
	oldHash, ok := keys[key]
	if !ok {
		return true
	}
	return oldHash != Hash(content)
}

// Update records the checksum of a source string.
func (lf *LockFile) Update(namespace, key, content string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[namespace] == nil {
		lf.Checksums[namespace] = make(map[string]string)
	}
	lf.Checksums[namespace][key] = Hash(content)
}

// UpdateBatch records checksums for multiple keys at once.
func (lf *LockFile) UpdateBatch(namespace string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[namespace] == nil {
		lf.Checksums[namespace] = make(map[string]string)
	}
	for key, content := range entries {
		lf.Checksums[namespace][key] = Hash(content)
	}
}

// FilterChanged returns only the keys whose content has changed since the
// last run. The input is a map of key -> content. Returns a map of
// key -> content for changed entries only.
func (lf *LockFile) FilterChanged(namespace string, entries map[string]string) map[string]string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[namespace]
	changed := make(map[string]string)

	for key, content := range entries {
		hash := Hash(content)
		if existing == nil || existing[key] != hash {
			changed[key] = content
		}
	}

	return changed
}

// Clean removes entries from the lock file that are no longer present in
// the current set of keys. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(namespace string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[namespace]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// RemoveNamespace removes all checksums for a namespace.
func (lf *LockFile) RemoveNamespace(namespace string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, namespace)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of namespaces and total keys in the lock file.
func (lf *LockFile) Stats() (namespaces, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	namespaces = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Namespaces returns the sorted list of tracked namespaces.
func (lf *LockFile) Namespaces() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	namespaces := make([]string, 0, len(lf.Checksums))
	for ns := range lf.Checksums {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	return namespaces
}

// ---------------------------------------------------------------------------
// Human-readable summary
// ---------------------------------------------------------------------------

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	namespaces, keys := lf.Stats()
	if namespaces == 0 {
		return "empty"
	}

	var parts []string
	for _, ns := range lf.Namespaces() {
		n := len(lf.Checksums[ns])
		parts = append(parts, fmt.Sprintf("%s: %d keys", ns, n))
	}
	return fmt.Sprintf("%d namespaces, %d keys (%s)", namespaces, keys, strings.Join(parts, ", "))
}
