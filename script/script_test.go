package script

import "testing"

func TestIdentityConverter(t *testing.T) {
	var c Converter = Identity{}
	if got := c.ToTraditional("后台"); got != "后台" {
		t.Errorf("ToTraditional = %q, want input unchanged", got)
	}
	if got := c.ToSimplified("後臺"); got != "後臺" {
		t.Errorf("ToSimplified = %q, want input unchanged", got)
	}
}

func TestOpenCCConversion(t *testing.T) {
	c, err := NewOpenCC()
	if err != nil {
		t.Skipf("opencc dictionaries unavailable: %v", err)
	}
	if got := c.ToTraditional("体"); got == "体" {
		t.Errorf("ToTraditional(体) = %q, want a traditional form", got)
	}
	if got := c.ToSimplified("體"); got != "体" {
		t.Errorf("ToSimplified(體) = %q, want 体", got)
	}
}

func TestOpenCCCacheStable(t *testing.T) {
	c, err := NewOpenCC()
	if err != nil {
		t.Skipf("opencc dictionaries unavailable: %v", err)
	}
	first := c.ToTraditional("头发")
	for i := 0; i < 3; i++ {
		if got := c.ToTraditional("头发"); got != first {
			t.Fatalf("cached conversion changed: %q then %q", first, got)
		}
	}
}
