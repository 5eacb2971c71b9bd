package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// previewCap bounds the per-change instance previews in the audit report.
const previewCap = 10

// ChangeDetail groups a rule's applications by the concrete before/after
// pair, with a capped preview of individual instances.
type ChangeDetail struct {
	Change        string         `json:"change_made"`
	InstanceCount int            `json:"specific_instance_count"`
	Preview       []Substitution `json:"instances_preview"`
}

// RuleReport summarizes every application of one rule.
type RuleReport struct {
	RuleID           int            `json:"rule_id"`
	SimpSource       string         `json:"simp_chinese"`
	TradSource       string         `json:"trad_chinese"`
	BadTarget        string         `json:"bad_translation"`
	GoodTarget       string         `json:"good_translation"`
	ApplicationCount int            `json:"application_count"`
	Details          []ChangeDetail `json:"applications_details"`
}

// BuildReport aggregates the substitution log into per-rule entries,
// most-applied rules first.
func BuildReport(subs []Substitution, rules []Rule) []RuleReport {
	if len(subs) == 0 {
		return nil
	}
	byRule := make(map[int][]Substitution)
	for _, s := range subs {
		byRule[s.RuleID] = append(byRule[s.RuleID], s)
	}
	ruleByID := make(map[int]Rule, len(rules))
	for _, r := range rules {
		ruleByID[r.ID] = r
	}

	ids := make([]int, 0, len(byRule))
	for id := range byRule {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(byRule[ids[i]]) != len(byRule[ids[j]]) {
			return len(byRule[ids[i]]) > len(byRule[ids[j]])
		}
		return ids[i] < ids[j]
	})

	report := make([]RuleReport, 0, len(ids))
	for _, id := range ids {
		applications := byRule[id]
		rule := ruleByID[id]
		entry := RuleReport{
			RuleID:           id,
			SimpSource:       rule.SimpSource,
			TradSource:       rule.TradSource,
			BadTarget:        rule.BadTarget,
			GoodTarget:       rule.GoodTarget,
			ApplicationCount: len(applications),
		}

		type changeKey struct{ bad, good string }
		groups := make(map[changeKey][]Substitution)
		var order []changeKey
		for _, app := range applications {
			k := changeKey{app.Bad, app.Good}
			if _, seen := groups[k]; !seen {
				order = append(order, k)
			}
			groups[k] = append(groups[k], app)
		}
		for _, k := range order {
			instances := groups[k]
			preview := instances
			if len(preview) > previewCap {
				preview = preview[:previewCap]
			}
			entry.Details = append(entry.Details, ChangeDetail{
				Change:        fmt.Sprintf("%s → %s", k.bad, k.good),
				InstanceCount: len(instances),
				Preview:       preview,
			})
		}
		report = append(report, entry)
	}
	return report
}

// SaveReport writes the audit report as indented JSON. An empty report
// writes nothing.
func SaveReport(report []RuleReport, path string) error {
	if len(report) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling audit report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
