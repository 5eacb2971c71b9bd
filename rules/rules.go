// Package rules implements the prioritized, conflict-aware text correction
// engine. Rules pair a Chinese source substring (in both scripts) with a
// bad/good replacement on the translated side; a rule only fires on entries
// whose original source text actually contains its Chinese substring.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// Rule is one correction: when SimpSource or TradSource occurs in an
// entry's original source text, occurrences of BadTarget in the translated
// value are rewritten to GoodTarget.
type Rule struct {
	ID         int
	SimpSource string
	TradSource string
	BadTarget  string
	GoodTarget string
}

// appliesTo reports whether the rule's source side occurs in the original
// source text. The traditional form is only consulted when it differs from
// the simplified one.
func (r Rule) appliesTo(original string) bool {
	if r.SimpSource != "" && strings.Contains(original, r.SimpSource) {
		return true
	}
	if r.TradSource != "" && r.TradSource != r.SimpSource && strings.Contains(original, r.TradSource) {
		return true
	}
	return false
}

// Prioritize orders rules by descending simplified-source length, then
// descending bad-target length, and assigns IDs in that order. Longer,
// more specific rules fire first. The sort is stable so equal-length rules
// keep their file order.
func Prioritize(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(sorted[i].SimpSource), utf8.RuneCountInString(sorted[j].SimpSource)
		if li != lj {
			return li > lj
		}
		return utf8.RuneCountInString(sorted[i].BadTarget) > utf8.RuneCountInString(sorted[j].BadTarget)
	})
	for i := range sorted {
		sorted[i].ID = i
	}
	return sorted
}

// Malformed returns the rules with an empty bad target. They never fire;
// the caller is expected to warn about them.
func Malformed(rules []Rule) []Rule {
	var bad []Rule
	for _, r := range rules {
		if r.BadTarget == "" {
			bad = append(bad, r)
		}
	}
	return bad
}

// Substitution is one individual replacement, recorded for auditability.
type Substitution struct {
	RuleID    int    `json:"rule_id"`
	Bad       string `json:"bad_translation"`
	Good      string `json:"good_translation"`
	Position  int    `json:"position"`
	Before    string `json:"text_before"`
	After     string `json:"text_after"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Source    string `json:"original_source"`
}

// Engine holds a prioritized ruleset and an Aho-Corasick automaton over
// every rule's source-side substrings, so per-entry evaluation only sees
// the rules whose Chinese substring actually occurs.
type Engine struct {
	rules   []Rule
	matcher *ahocorasick.Matcher
	// patternRules maps automaton dictionary index -> indices into rules.
	patternRules [][]int
}

// NewEngine builds the engine from already-prioritized rules.
func NewEngine(rules []Rule) *Engine {
	byPattern := make(map[string][]int)
	var patterns []string
	add := func(pattern string, ruleIdx int) {
		if _, seen := byPattern[pattern]; !seen {
			patterns = append(patterns, pattern)
		}
		byPattern[pattern] = append(byPattern[pattern], ruleIdx)
	}
	for i, r := range rules {
		if r.SimpSource != "" {
			add(r.SimpSource, i)
		}
		if r.TradSource != "" && r.TradSource != r.SimpSource {
			add(r.TradSource, i)
		}
	}

	patternRules := make([][]int, len(patterns))
	for i, p := range patterns {
		patternRules[i] = byPattern[p]
	}
	return &Engine{
		rules:        rules,
		matcher:      ahocorasick.NewStringMatcher(patterns),
		patternRules: patternRules,
	}
}

// Rules returns the engine's prioritized ruleset.
func (e *Engine) Rules() []Rule { return e.rules }

// Subset returns the rules whose source substring occurs in original, in
// priority order. Not safe for concurrent use; the coordinator filters
// sequentially before fanning work out.
func (e *Engine) Subset(original string) []Rule {
	if len(e.patternRules) == 0 || original == "" {
		return nil
	}
	hits := e.matcher.Match([]byte(original))
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	var indices []int
	for _, h := range hits {
		for _, ri := range e.patternRules[h] {
			if !seen[ri] {
				seen[ri] = true
				indices = append(indices, ri)
			}
		}
	}
	sort.Ints(indices)
	subset := make([]Rule, len(indices))
	for i, ri := range indices {
		subset[i] = e.rules[ri]
	}
	return subset
}

// Apply rewrites value using the filtered, priority-sorted rule subset for
// one entry. It guarantees that text inserted by one rule is never rewritten
// by another: every inserted good target is locked, and a rule whose bad
// target equals a different active rule's good target is refused unless the
// rule is a self-consistent no-op (bad == good).
//
// Each rule scans left to right over unlocked regions and repeats to a
// fixed point, so one rule may fire several times on the same string.
func Apply(original, value string, subset []Rule, namespace, key string) (string, []Substitution) {
	if value == "" || len(subset) == 0 {
		return value, nil
	}

	chars := []rune(value)
	locks := make([]bool, len(chars))

	// Good targets claimed by rules active on this entry. A bad target that
	// matches someone else's good target must not undo their fix.
	owners := make(map[string][]int)
	for _, r := range subset {
		if r.GoodTarget != "" && r.appliesTo(original) {
			owners[r.GoodTarget] = append(owners[r.GoodTarget], r.ID)
		}
	}

	var subs []Substitution
	for _, rule := range subset {
		if rule.BadTarget == "" || !rule.appliesTo(original) {
			continue
		}
		bad := []rune(rule.BadTarget)
		good := []rune(rule.GoodTarget)

		if conflictsWithOwner(rule, owners) {
			continue
		}

		for changed := true; changed; {
			changed = false
			i := 0
			for i <= len(chars)-len(bad) {
				if !runesEqual(chars[i:i+len(bad)], bad) || anyLocked(locks[i:i+len(bad)]) {
					i++
					continue
				}

				before := string(chars)
				chars = splice(chars, i, len(bad), good)
				after := string(chars)
				if before != after {
					changed = true
					subs = append(subs, Substitution{
						RuleID:    rule.ID,
						Bad:       rule.BadTarget,
						Good:      rule.GoodTarget,
						Position:  i,
						Before:    before,
						After:     after,
						Namespace: namespace,
						Key:       key,
						Source:    original,
					})
				}

				locks = spliceLocks(locks, i, len(bad), len(good))
				for j := i; j < i+len(good); j++ {
					locks[j] = true
				}
				i += len(good)
			}
		}
	}
	return string(chars), subs
}

// conflictsWithOwner reports whether the rule's bad target is another
// active rule's good target. Self-consistent no-op rules are exempt.
func conflictsWithOwner(rule Rule, owners map[string][]int) bool {
	if rule.BadTarget == rule.GoodTarget {
		return false
	}
	for _, owner := range owners[rule.BadTarget] {
		if owner != rule.ID {
			return true
		}
	}
	return false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func anyLocked(locks []bool) bool {
	for _, l := range locks {
		if l {
			return true
		}
	}
	return false
}

// splice replaces chars[at:at+oldLen] with repl.
func splice(chars []rune, at, oldLen int, repl []rune) []rune {
	out := make([]rune, 0, len(chars)-oldLen+len(repl))
	out = append(out, chars[:at]...)
	out = append(out, repl...)
	out = append(out, chars[at+oldLen:]...)
	return out
}

// spliceLocks resizes the lock mask in step with a replacement: inserted
// positions start unlocked (the caller locks them), deleted positions drop
// out of the mask.
func spliceLocks(locks []bool, at, oldLen, newLen int) []bool {
	out := make([]bool, 0, len(locks)-oldLen+newLen)
	out = append(out, locks[:at]...)
	out = append(out, make([]bool, newLen)...)
	out = append(out, locks[at+oldLen:]...)
	return out
}

// validateHeader checks a loader header row for the four required columns
// and returns their indices.
func validateHeader(header []string, source string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colSimp, colTrad, colGood, colBad} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", source, required)
		}
	}
	return cols, nil
}

const (
	colSimp = "Simp Chinese"
	colTrad = "Trad Chinese"
	colGood = "Good Translation"
	colBad  = "Bad Translation"
)

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func rulesFromRows(rows [][]string, source string) ([]Rule, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty ruleset", source)
	}
	cols, err := validateHeader(rows[0], source)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	for _, row := range rows[1:] {
		r := Rule{
			SimpSource: cell(row, cols[colSimp]),
			TradSource: cell(row, cols[colTrad]),
			GoodTarget: cell(row, cols[colGood]),
			BadTarget:  cell(row, cols[colBad]),
		}
		if r.SimpSource == "" && r.TradSource == "" && r.BadTarget == "" && r.GoodTarget == "" {
			continue
		}
		rules = append(rules, r)
	}
	return Prioritize(rules), nil
}
