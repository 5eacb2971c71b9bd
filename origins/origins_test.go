package origins

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMixedShapes(t *testing.T) {
	content := `{
  "ST_UI": {
    "K1": ["LocRes"],
    "K2": ["LocRes", "FormatString_Txt"],
    "K3": [{"type": "FormatString_Json", "metadata": {"flags": "hidden", "note": "tooltip"}}]
  },
  "": {
    "HASHKEY": ["UI_Assets"]
  }
}`
	path := filepath.Join(t.TempDir(), "origins.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	k1 := table["ST_UI"]["K1"]
	if len(k1) != 1 || k1[0].Kind != KindLocRes || k1[0].Metadata != nil {
		t.Errorf("K1 = %+v", k1)
	}

	k3 := table["ST_UI"]["K3"]
	if len(k3) != 1 || k3[0].Kind != KindFormatJSON {
		t.Fatalf("K3 = %+v", k3)
	}
	if k3[0].Metadata == nil || k3[0].Metadata.Flags != "hidden" || k3[0].Metadata.Note != "tooltip" {
		t.Errorf("K3 metadata = %+v", k3[0].Metadata)
	}

	if got := table[""]["HASHKEY"]; len(got) != 1 || got[0].Kind != KindUIAssets {
		t.Errorf("root namespace entry = %+v", got)
	}
}

func TestLoadRejectsMalformedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origins.json")
	if err := os.WriteFile(path, []byte(`{"ns": {"k": [42]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject a numeric origin entry")
	}
}

func TestOnlyUIAssets(t *testing.T) {
	tests := []struct {
		sources []Source
		want    bool
	}{
		{[]Source{{Kind: KindUIAssets}}, true},
		{[]Source{{Kind: KindUIAssets}, {Kind: KindUIAssets}}, true},
		{[]Source{{Kind: KindUIAssets}, {Kind: KindLocRes}}, false},
		{[]Source{{Kind: KindFormatTxt}}, false},
		{nil, false},
	}
	for i, tt := range tests {
		if got := OnlyUIAssets(tt.sources); got != tt.want {
			t.Errorf("case %d: OnlyUIAssets = %v, want %v", i, got, tt.want)
		}
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds([]Source{{Kind: KindLocRes}, {Kind: KindFormatTxt}, {Kind: KindLocRes}})
	if len(kinds) != 2 || !kinds[KindLocRes] || !kinds[KindFormatTxt] {
		t.Errorf("Kinds = %v", kinds)
	}
}
