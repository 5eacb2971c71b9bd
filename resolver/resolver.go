// Package resolver finds the best available prior translation for a source
// string that has no exact per-namespace entry in the translation table.
//
// An Index is built once per run. Lookups try, in order: exact match on the
// normalized form, pattern match (numeric runs masked to a template, then
// substituted back), and the same two steps against the Simplified and
// Traditional conversions of the input. Hits and misses are both memoized
// for the remainder of the run.
package resolver

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/zxsj-tools/locpipe/identity"
	"github.com/zxsj-tools/locpipe/script"
	"github.com/zxsj-tools/locpipe/transmap"
)

// ErrNotFound is returned when no table entry, pattern, or script variant
// yields a translation. The caller records the string for external
// re-translation and passes the source text through verbatim.
var ErrNotFound = errors.New("no translation found")

// Method records which resolution step produced a translation.
type Method string

const (
	MethodNamespaceExact Method = "namespace_exact"
	MethodGlobalExact    Method = "global_exact"
	MethodPattern        Method = "pattern"
	MethodScriptExact    Method = "script_exact"
	MethodScriptPattern  Method = "script_pattern"
)

var (
	numberRE   = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?%?`)
	blankRunRE = regexp.MustCompile(`\n{2,}`)
)

// Normalize produces the matching key for the exact index: line endings
// collapsed to LF, the boilerplate rich-text tag stripped, runs of blank
// lines collapsed, surrounding whitespace trimmed.
func Normalize(s string) string {
	s = identity.NormalizeLF(s)
	s = strings.ReplaceAll(s, "<RTP_Default></>", "")
	s = blankRunRE.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// NumberPattern masks every numeric run in the normalized form of s with
// "{}" and returns the resulting template together with the numeric tokens
// as they appear in the raw input.
func NumberPattern(s string) (template string, numbers []string) {
	numbers = numberRE.FindAllString(s, -1)
	template = numberRE.ReplaceAllString(Normalize(s), "{}")
	return template, numbers
}

// ContainsChineseOrCyrillic reports whether s holds at least one Han or
// Cyrillic character. Only such strings are translation candidates.
func ContainsChineseOrCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// Candidate is one pattern-index entry: a known source string and its
// translation, both still carrying their numeric tokens.
type Candidate struct {
	Source      string
	Translation string
}

// Index holds the per-run lookup structures built from a translation table.
type Index struct {
	exact   map[string]string
	pattern map[string][]Candidate
}

// BuildIndex constructs the exact and pattern indexes from the full table.
// Namespaces and sources are visited in sorted order so that when two
// entries normalize to the same key, the lexicographically smallest one
// wins deterministically.
func BuildIndex(table transmap.Map) *Index {
	idx := &Index{
		exact:   make(map[string]string),
		pattern: make(map[string][]Candidate),
	}

	namespaces := make([]string, 0, len(table))
	for ns := range table {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		pairs := table[ns]
		sources := make([]string, 0, len(pairs))
		for src := range pairs {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		for _, src := range sources {
			translation := pairs[src]
			if translation == "" {
				continue
			}
			normalized := Normalize(src)
			if _, ok := idx.exact[normalized]; !ok {
				idx.exact[normalized] = translation
			}
			if template, numbers := NumberPattern(src); template != "" && len(numbers) > 0 {
				idx.pattern[template] = append(idx.pattern[template], Candidate{
					Source:      src,
					Translation: translation,
				})
			}
		}
	}

	// Candidates sharing a template are tried smallest-source-first so
	// that resolution does not depend on table iteration order.
	for _, cands := range idx.pattern {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].Source != cands[j].Source {
				return cands[i].Source < cands[j].Source
			}
			return cands[i].Translation < cands[j].Translation
		})
	}
	return idx
}

// lookupPattern tries every candidate sharing s's template, in candidate
// order, and returns the first successful numeric substitution.
func (idx *Index) lookupPattern(s string) (string, bool) {
	template, numbers := NumberPattern(s)
	if template == "" || len(numbers) == 0 {
		return "", false
	}
	for _, cand := range idx.pattern[template] {
		if adapted, ok := substituteNumbers(s, cand.Source, cand.Translation); ok {
			return adapted, true
		}
	}
	return "", false
}

// substituteNumbers adapts a candidate translation to the numbers of the
// requested source. The source and candidate must share a template, and the
// numeric token counts of source, candidate, and translation must all
// agree. Each candidate token is replaced by the corresponding source
// token, word-bounded, one occurrence per token.
func substituteNumbers(source, candSource, candTranslation string) (string, bool) {
	srcTemplate, srcNumbers := NumberPattern(source)
	candTemplate, candNumbers := NumberPattern(candSource)
	_, transNumbers := NumberPattern(candTranslation)

	if srcTemplate != candTemplate {
		return "", false
	}
	if len(srcNumbers) != len(candNumbers) || len(srcNumbers) != len(transNumbers) {
		return "", false
	}

	result := candTranslation
	for i, old := range transNumbers {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(old) + `\b`)
		if err != nil {
			return "", false
		}
		if loc := re.FindStringIndex(result); loc != nil {
			result = result[:loc[0]] + srcNumbers[i] + result[loc[1]:]
		}
	}
	return result, true
}

type memoEntry struct {
	translation string
	method      Method
	found       bool
}

// Resolver resolves source strings against a translation table, trying
// progressively looser matches. Not safe for concurrent use; the pipeline
// resolves sequentially and only parallelizes the later correction stage.
type Resolver struct {
	table transmap.Map
	index *Index
	conv  script.Converter
	memo  map[string]memoEntry
}

// New builds a Resolver over the given table. The converter supplies
// Simplified/Traditional variants for the fallback steps; pass
// script.Identity{} to disable them.
func New(table transmap.Map, conv script.Converter) *Resolver {
	return &Resolver{
		table: table,
		index: BuildIndex(table),
		conv:  conv,
		memo:  make(map[string]memoEntry),
	}
}

// Resolve finds a translation for source, preferring the exact
// per-namespace entry, then the global fallbacks. It returns ErrNotFound
// when nothing matches.
func (r *Resolver) Resolve(namespace, source string) (string, Method, error) {
	if t, ok := r.table.Lookup(namespace, source); ok {
		return t, MethodNamespaceExact, nil
	}
	return r.resolveGlobal(source)
}

// resolveGlobal runs the namespace-independent steps with memoization.
// Identical source strings resolve identically and are only computed once.
func (r *Resolver) resolveGlobal(source string) (string, Method, error) {
	if source == "" {
		return "", "", ErrNotFound
	}
	if m, ok := r.memo[source]; ok {
		if !m.found {
			return "", "", ErrNotFound
		}
		return m.translation, m.method, nil
	}

	translation, method, found := r.search(source)
	r.memo[source] = memoEntry{translation: translation, method: method, found: found}
	if !found {
		return "", "", ErrNotFound
	}
	return translation, method, nil
}

func (r *Resolver) search(source string) (string, Method, bool) {
	if t, ok := r.index.exact[Normalize(source)]; ok {
		return t, MethodGlobalExact, true
	}
	if t, ok := r.index.lookupPattern(source); ok {
		return t, MethodPattern, true
	}

	variants := []string{r.conv.ToTraditional(source), r.conv.ToSimplified(source)}
	for _, variant := range variants {
		if variant == source {
			continue
		}
		if t, ok := r.index.exact[Normalize(variant)]; ok {
			return t, MethodScriptExact, true
		}
		if t, ok := r.index.lookupPattern(variant); ok {
			return t, MethodScriptPattern, true
		}
	}
	return "", "", false
}
