package transmap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty table, got %v", m)
	}
}

func TestLoadCleansBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	content := "\ufeff{\"\ufeffQuests\": {\"\ufeff确认\": \"Confirm\"}}"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, ok := m.Lookup("Quests", "确认"); !ok || got != "Confirm" {
		t.Errorf("Lookup after BOM clean = %q, %v", got, ok)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	m := Map{
		"Quests": {"确认": "Confirm", "取消": "Cancel"},
		"Buffs":  {"灼烧": "Burn</>"},
	}

	path := filepath.Join(t.TempDir(), "sub", "map.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Markup in values stays unescaped.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if !strings.Contains(string(data), "Burn</>") {
		t.Error("markup value not written verbatim")
	}
	if strings.Contains(string(data), "\\u003c") {
		t.Error("HTML escaping applied to markup value")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	m := Map{"Quests": {"确认": "Confirm", "空的": ""}}

	if got, ok := m.Lookup("Quests", "确认"); !ok || got != "Confirm" {
		t.Errorf("Lookup hit = %q, %v", got, ok)
	}
	if _, ok := m.Lookup("Quests", "没有"); ok {
		t.Error("Lookup miss reported as hit")
	}
	if _, ok := m.Lookup("Items", "确认"); ok {
		t.Error("Lookup in unknown namespace reported as hit")
	}
	// Empty translations count as absent.
	if _, ok := m.Lookup("Quests", "空的"); ok {
		t.Error("empty translation reported as hit")
	}
}

func TestRecordAndMerge(t *testing.T) {
	m := Map{"Quests": {"确认": "Confirm"}}
	m.Record("Items", "剑", "Sword")

	other := Map{
		"Quests": {"确认": "Confirmed", "取消": "Cancel"},
	}
	m.Merge(other)

	want := Map{
		"Quests": {"确认": "Confirmed", "取消": "Cancel"},
		"Items":  {"剑": "Sword"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
}
