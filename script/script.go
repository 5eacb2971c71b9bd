// Package script converts Chinese text between Simplified and Traditional
// variants. The resolver uses it to retry lookups against the other script
// when a source string has no direct match.
package script

import (
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// Converter converts text between the two Chinese scripts. A conversion
// that fails or does not apply returns the input unchanged.
type Converter interface {
	ToTraditional(s string) string
	ToSimplified(s string) string
}

// OpenCC is a Converter backed by the OpenCC dictionaries, with an
// internal cache keyed by input string. Safe for concurrent use.
type OpenCC struct {
	s2t *opencc.OpenCC
	t2s *opencc.OpenCC

	mu    sync.Mutex
	cache map[string][2]string // input -> {traditional, simplified}
}

// NewOpenCC loads the s2t and t2s conversion dictionaries.
func NewOpenCC() (*OpenCC, error) {
	s2t, err := opencc.New("s2t")
	if err != nil {
		return nil, fmt.Errorf("loading s2t dictionary: %w", err)
	}
	t2s, err := opencc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("loading t2s dictionary: %w", err)
	}
	return &OpenCC{s2t: s2t, t2s: t2s, cache: make(map[string][2]string)}, nil
}

// ToTraditional converts Simplified text to Traditional.
func (c *OpenCC) ToTraditional(s string) string {
	return c.convert(s)[0]
}

// ToSimplified converts Traditional text to Simplified.
func (c *OpenCC) ToSimplified(s string) string {
	return c.convert(s)[1]
}

func (c *OpenCC) convert(s string) [2]string {
	c.mu.Lock()
	if got, ok := c.cache[s]; ok {
		c.mu.Unlock()
		return got
	}
	c.mu.Unlock()

	trad, err := c.s2t.Convert(s)
	if err != nil {
		trad = s
	}
	simp, err := c.t2s.Convert(s)
	if err != nil {
		simp = s
	}
	result := [2]string{trad, simp}

	c.mu.Lock()
	c.cache[s] = result
	c.mu.Unlock()
	return result
}

// Identity is a Converter that never converts. Used in tests and when the
// OpenCC dictionaries are unavailable.
type Identity struct{}

func (Identity) ToTraditional(s string) string { return s }
func (Identity) ToSimplified(s string) string  { return s }
