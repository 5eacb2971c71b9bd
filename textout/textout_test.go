package textout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zxsj-tools/locpipe/origins"
)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"item2", "item10", true},
		{"item10", "item2", false},
		{"Item2", "item10", true},
		{"2", "10", true},
		{"abc", "abd", true},
		{"2a", "10", true},
		{"a", "a1", true},
		{"148470-name", "148471-name", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestWriteTxtFiles(t *testing.T) {
	base := t.TempDir()
	data := map[string]map[string]string{
		"Quests": {
			"10-name": "Second\nline",
			"2-name":  "First",
		},
	}

	written, warnings, err := WriteTxtFiles(data, base)
	if err != nil {
		t.Fatalf("WriteTxtFiles: %v", err)
	}
	if written != 1 || len(warnings) != 0 {
		t.Errorf("written = %d, warnings = %v", written, warnings)
	}

	got := readFile(t, filepath.Join(base, "Quests.txt"))
	want := "2-name = First\r\n10-name = Second\\nline\r\n"
	if got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestWriteTxtFilesComplexKeys(t *testing.T) {
	base := t.TempDir()
	data := map[string]map[string]string{
		"gamedata/dialog": {
			"chapter1/line5": "Hello",
		},
	}

	if _, _, err := WriteTxtFiles(data, base); err != nil {
		t.Fatalf("WriteTxtFiles: %v", err)
	}

	got := readFile(t, filepath.Join(base, "gamedata", "dialog", "chapter1.txt"))
	if got != "line5 = Hello\r\n" {
		t.Errorf("file content = %q", got)
	}
}

func TestWriteTxtFilesRootAndUIAssets(t *testing.T) {
	base := t.TempDir()
	data := map[string]map[string]string{
		"": {
			"165069BD4B390D739B401B8230D776DD": "SWAN",
		},
		UIAssetsNamespace: {
			"UIKEY": "Menu",
		},
	}

	written, _, err := WriteTxtFiles(data, base)
	if err != nil {
		t.Fatalf("WriteTxtFiles: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	root := readFile(t, filepath.Join(base, "_ROOT_STRINGS.txt"))
	if root != "165069BD4B390D739B401B8230D776DD = SWAN\r\n" {
		t.Errorf("root file = %q", root)
	}
	ui := readFile(t, filepath.Join(base, ".txt"))
	if ui != "UIKEY = Menu\r\n" {
		t.Errorf("ui assets file = %q", ui)
	}
}

func TestWriteJSONFiles(t *testing.T) {
	base := t.TempDir()
	data := map[string]map[string]JSONEntry{
		"Quests": {
			"10": {Text: "has <tag></>", Metadata: origins.Metadata{Flags: "f", Note: "n"}},
			"2":  {Text: "first"},
		},
	}

	written, err := WriteJSONFiles(data, base)
	if err != nil {
		t.Fatalf("WriteJSONFiles: %v", err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}

	got := readFile(t, filepath.Join(base, "Quests.json"))
	if !strings.Contains(got, `"text": "has <tag></>"`) {
		t.Errorf("markup was escaped:\n%s", got)
	}
	if strings.Index(got, `"2"`) > strings.Index(got, `"10"`) {
		t.Errorf("keys not in natural order:\n%s", got)
	}
	if !strings.Contains(got, `"flags": "f"`) || !strings.Contains(got, `"note": "n"`) {
		t.Errorf("metadata missing:\n%s", got)
	}
}

func TestWriteJSONFilesNestedAndRoot(t *testing.T) {
	base := t.TempDir()
	data := map[string]map[string]JSONEntry{
		"":    {"K": {Text: "root"}},
		"a/b": {"K": {Text: "nested"}},
	}

	written, err := WriteJSONFiles(data, base)
	if err != nil {
		t.Fatalf("WriteJSONFiles: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	if _, err := os.Stat(filepath.Join(base, "_ROOT_STRINGS.json")); err != nil {
		t.Errorf("root JSON missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "a", "b.json")); err != nil {
		t.Errorf("nested JSON missing: %v", err)
	}
}
