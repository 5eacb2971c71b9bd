package rules

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// entryWork is one (namespace, key) pair with its pre-filtered rule subset.
type entryWork struct {
	namespace string
	key       string
	original  string
	value     string
	subset    []Rule
}

type entryResult struct {
	value    string
	subs     []Substitution
	panicked bool
}

// CorrectAll applies the ruleset to every translated entry that has an
// original source counterpart. Rule filtering runs sequentially in the
// coordinator; the per-entry rewrites fan out over a bounded worker group
// and are merged back by (namespace, key). A panicking entry is passed
// through unmodified and counted.
//
// The returned map contains every entry of translated, corrected or not.
func (e *Engine) CorrectAll(ctx context.Context, translated, source map[string]map[string]string) (map[string]map[string]string, []Substitution, int, error) {
	corrected := make(map[string]map[string]string, len(translated))
	for ns, pairs := range translated {
		out := make(map[string]string, len(pairs))
		for key, value := range pairs {
			out[key] = value
		}
		corrected[ns] = out
	}

	var work []entryWork
	for ns, pairs := range translated {
		for key, value := range pairs {
			original, ok := source[ns][key]
			if !ok {
				continue
			}
			subset := e.Subset(original)
			if len(subset) == 0 {
				continue
			}
			work = append(work, entryWork{
				namespace: ns,
				key:       key,
				original:  original,
				value:     value,
				subset:    subset,
			})
		}
	}
	if len(work) == 0 {
		return corrected, nil, 0, nil
	}
	// Stable work order keeps the audit log reproducible across runs.
	sort.Slice(work, func(i, j int) bool {
		if work[i].namespace != work[j].namespace {
			return work[i].namespace < work[j].namespace
		}
		return work[i].key < work[j].key
	})

	results := make([]entryResult, len(work))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range work {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			results[i] = correctEntry(work[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}
	// The group context is canceled once Wait returns, so only the caller's
	// context tells us whether the run was interrupted.
	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}

	var subs []Substitution
	panics := 0
	for i, res := range results {
		if res.panicked {
			panics++
			continue
		}
		corrected[work[i].namespace][work[i].key] = res.value
		subs = append(subs, res.subs...)
	}
	return corrected, subs, panics, nil
}

// correctEntry isolates a single rewrite so that a panic in the rule
// machinery loses one entry, not the batch.
func correctEntry(w entryWork) (res entryResult) {
	defer func() {
		if r := recover(); r != nil {
			res = entryResult{value: w.value, panicked: true}
		}
	}()
	value, subs := Apply(w.original, w.value, w.subset, w.namespace, w.key)
	return entryResult{value: value, subs: subs}
}
