package identity

import "testing"

func TestKeyHashFixtures(t *testing.T) {
	// Fixed constants verified against the runtime's own loader. These must
	// never change: the binary resource format depends on them.
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 433114012},
		{"Hello", 1601856161},
		{"Game", 3138701429},
		{"造成100点伤害", 2384459171},
	}
	for _, tt := range tests {
		if got := KeyHash(tt.in); got != tt.want {
			t.Errorf("KeyHash(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKeyHashLineEndingInvariance(t *testing.T) {
	lf := KeyHash("line1\nline2")
	crlf := KeyHash("line1\r\nline2")
	cr := KeyHash("line1\rline2")
	if lf != crlf || lf != cr {
		t.Fatalf("KeyHash must normalize line endings: lf=%d crlf=%d cr=%d", lf, crlf, cr)
	}
}

func TestKeyHashStable(t *testing.T) {
	const s = "ST_UI/Widget/Button"
	first := KeyHash(s)
	for i := 0; i < 10; i++ {
		if got := KeyHash(s); got != first {
			t.Fatalf("KeyHash(%q) unstable: %d then %d", s, first, got)
		}
	}
}

func TestSourceStringHashFixtures(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 1104745215},
		{"Hello", 3779286485},
		{"Game", 994037567},
		{"造成100点伤害", 3715976128},
	}
	for _, tt := range tests {
		if got := SourceStringHash(tt.in); got != tt.want {
			t.Errorf("SourceStringHash(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSourceStringHashSensitiveToLineEndings(t *testing.T) {
	// Unlike KeyHash, the source-string hash covers the text verbatim.
	if SourceStringHash("a\nb") == SourceStringHash("a\r\nb") {
		t.Fatal("SourceStringHash should not normalize line endings")
	}
}

func TestUTF16LEBytes(t *testing.T) {
	got := UTF16LEBytes("A汉")
	want := []byte{0x41, 0x00, 0x49, 0x6C}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestCleanBOM(t *testing.T) {
	if got := CleanBOM("\ufeffkey"); got != "key" {
		t.Errorf("CleanBOM = %q, want key", got)
	}
	if got := CleanBOM("key"); got != "key" {
		t.Errorf("CleanBOM should pass through, got %q", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a\nb", "a\r\nb"},
		{"a\r\nb", "a\r\nb"},
		{"a\rb", "a\r\nb"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := NormalizeCRLF(tt.in); got != tt.want {
			t.Errorf("NormalizeCRLF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
