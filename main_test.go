package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zxsj-tools/locpipe/manifest"
	"github.com/zxsj-tools/locpipe/origins"
	"github.com/zxsj-tools/locpipe/resolver"
	"github.com/zxsj-tools/locpipe/script"
	"github.com/zxsj-tools/locpipe/textout"
	"github.com/zxsj-tools/locpipe/transmap"
	"github.com/zxsj-tools/locpipe/unified"
)

func TestResolveAll(t *testing.T) {
	tmap := transmap.Map{
		"Quests": {"确认": "Confirm"},
		"Items":  {"造成100点伤害": "Deals 100 damage"},
	}
	res := resolver.New(tmap, script.Identity{})

	table := unified.Table{
		"Quests": {
			"q1": "确认",
			"q2": "plain english",
			"q3": "icon.data/path",
			"q4": "造成250点伤害",
			"q5": "未知文本",
		},
	}

	translated, untranslated, used, stats := resolveAll(res, table)

	wantTranslated := unified.Table{
		"Quests": {
			"q1": "Confirm",
			"q2": "plain english",
			"q3": "icon.data/path",
			"q4": "Deals 250 damage",
			"q5": "未知文本",
		},
	}
	if diff := cmp.Diff(wantTranslated, translated); diff != "" {
		t.Errorf("translated mismatch (-want +got):\n%s", diff)
	}

	if _, ok := untranslated["Quests"]["未知文本"]; !ok {
		t.Error("missing string not recorded in untranslated excerpt")
	}
	if got := used["Quests"]["造成250点伤害"]; got != "Deals 250 damage" {
		t.Errorf("pattern hit not recorded for reuse: %q", got)
	}

	if stats.processed != 5 || stats.skippedKeyword != 1 || stats.skippedScript != 1 || stats.missing != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.byMethod[resolver.MethodNamespaceExact] != 1 {
		t.Errorf("namespace exact count = %d", stats.byMethod[resolver.MethodNamespaceExact])
	}
	if stats.byMethod[resolver.MethodPattern] != 1 {
		t.Errorf("pattern count = %d", stats.byMethod[resolver.MethodPattern])
	}
}

func buildManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m := manifest.New()
	m.Add(manifest.Entry{
		Namespace: "ST_UI", Key: "Confirm", SourceValue: "确认",
		NamespaceHash: 100, KeyHash: 11, SourceHash: 21,
	})
	m.Add(manifest.Entry{
		Namespace: "ST_Item", Key: "Sword", SourceValue: "剑",
		NamespaceHash: 200, KeyHash: 12, SourceHash: 22,
	})
	return m
}

func TestRouteOutputs(t *testing.T) {
	m := buildManifest(t)

	org := origins.Table{
		"ST_Item": {
			"Sword": {{Kind: origins.KindLocRes}, {Kind: origins.KindLocRes}},
		},
		"ST_UI": {
			"Confirm": {{Kind: origins.KindLocRes}, {Kind: origins.KindFormatTxt}},
		},
		"Dialogue": {
			"line1": {
				{Kind: origins.KindFormatJSON, Metadata: &origins.Metadata{Flags: "f", Note: "n"}},
			},
			"line2": {{Kind: origins.KindFormatTxt}},
		},
		"Art": {
			"banner": {{Kind: origins.KindUIAssets}},
		},
	}

	data := unified.Table{
		"ST_UI":    {"Confirm": "Confirm"},
		"ST_Item":  {"Sword": "Sword\r\nBlade"},
		"Dialogue": {"line1": "Hello", "line2": "Bye"},
		"Art":      {"banner": "Grand Opening"},
	}

	r, warnings := routeOutputs(data, m, org)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	// Locres namespaces follow manifest order: ST_UI first.
	if len(r.locres) != 2 {
		t.Fatalf("locres namespaces = %d, want 2", len(r.locres))
	}
	if r.locres[0].Name != "ST_UI" || r.locres[1].Name != "ST_Item" {
		t.Errorf("namespace order = %s, %s", r.locres[0].Name, r.locres[1].Name)
	}
	if r.locres[0].Hash != 100 {
		t.Errorf("ST_UI hash = %d", r.locres[0].Hash)
	}

	// Duplicate LocRes origin records produce a single entry.
	if len(r.locres[1].Entries) != 1 {
		t.Fatalf("ST_Item entries = %d, want 1", len(r.locres[1].Entries))
	}
	sword := r.locres[1].Entries[0]
	if sword.KeyHash != 12 || sword.SourceHash != 22 {
		t.Errorf("Sword hashes = %d, %d", sword.KeyHash, sword.SourceHash)
	}
	if sword.Value != "Sword\nBlade" {
		t.Errorf("Sword value not LF-normalized: %q", sword.Value)
	}

	// Confirm goes to both the binary and text channels.
	if r.txt["ST_UI"]["Confirm"] != "Confirm" {
		t.Errorf("txt routing = %v", r.txt["ST_UI"])
	}

	if got := r.json["Dialogue"]["line1"]; got.Text != "Hello" || got.Metadata.Flags != "f" || got.Metadata.Note != "n" {
		t.Errorf("json routing = %+v", got)
	}
	if r.txt["Dialogue"]["line2"] != "Bye" {
		t.Errorf("txt routing for Dialogue = %v", r.txt["Dialogue"])
	}

	// UI-only keys land in the placeholder namespace.
	if r.txt[textout.UIAssetsNamespace]["banner"] != "Grand Opening" {
		t.Errorf("UI-only routing = %v", r.txt[textout.UIAssetsNamespace])
	}
	if r.uiOnly != 1 {
		t.Errorf("uiOnly = %d", r.uiOnly)
	}
}

func TestRouteOutputsMissingTranslation(t *testing.T) {
	m := buildManifest(t)
	org := origins.Table{
		"ST_UI": {"Confirm": {{Kind: origins.KindLocRes}}},
	}

	r, _ := routeOutputs(unified.Table{}, m, org)
	if r.missing != 1 {
		t.Errorf("missing = %d, want 1", r.missing)
	}
	if len(r.locres) != 0 {
		t.Errorf("locres = %v", r.locres)
	}
}

func TestRouteOutputsLocResWithoutManifestEntry(t *testing.T) {
	m := buildManifest(t)
	org := origins.Table{
		"Unknown": {"key": {{Kind: origins.KindLocRes}, {Kind: origins.KindFormatTxt}}},
	}
	data := unified.Table{"Unknown": {"key": "value"}}

	r, warnings := routeOutputs(data, m, org)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	// Not locres-capable, but the text channel still carries it.
	if len(r.locres) != 0 {
		t.Errorf("locres = %v", r.locres)
	}
	if r.txt["Unknown"]["key"] != "value" {
		t.Errorf("txt = %v", r.txt)
	}
	// Not UI-only, so no placeholder entry either.
	if _, ok := r.txt[textout.UIAssetsNamespace]; ok {
		t.Error("unexpected placeholder routing")
	}
}
