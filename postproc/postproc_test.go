package postproc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRemoveAccents(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Pokémon café", "Pokemon cafe"},
		{"àéîõü", "aeiou"},
		{"no accents", "no accents"},
		{"造成100点伤害", "造成100点伤害"},
	}
	for _, tt := range tests {
		if got := RemoveAccents(tt.in); got != tt.want {
			t.Errorf("RemoveAccents(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBreakAtSpaces(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"The quick brown fox", 10, "The quick\nbrown fox"},
		{"short", 10, "short"},
		{"abcdefghij", 4, "abcd\nefgh\nij"},
		{"", 5, ""},
		{"exactly ten", 11, "exactly ten"},
	}
	for _, tt := range tests {
		if got := BreakAtSpaces(tt.in, tt.max); got != tt.want {
			t.Errorf("BreakAtSpaces(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestSmartQuotes(t *testing.T) {
	tests := []struct{ in, want string }{
		{`He said "hi" and "bye"`, "He said “hi” and “bye”"},
		{`"start<RTP_Default>mid"</>`, "“start<RTP_Default>mid”</>"},
		{"no quotes", "no quotes"},
	}
	for _, tt := range tests {
		if got := SmartQuotes(tt.in); got != tt.want {
			t.Errorf("SmartQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBulletToHyphen(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a·b", "a - b"},
		{"a · b", "a - b"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := BulletToHyphen(tt.in); got != tt.want {
			t.Errorf("BulletToHyphen(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixPossessive(t *testing.T) {
	if got := FixPossessive("the boss's lair"); got != "the boss' lair" {
		t.Errorf("FixPossessive = %q", got)
	}
}

func TestColonSpacing(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Level:", "Level: "},
		{"Level:</>", "Level: </>"},
		{"Level: already", "Level: already"},
	}
	for _, tt := range tests {
		if got := ColonSpacing(tt.in); got != tt.want {
			t.Errorf("ColonSpacing(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMidSpaces(t *testing.T) {
	if got := MidSpaces("a b c"); got != "a b c" {
		t.Errorf("MidSpaces = %q", got)
	}
}

func TestShortenActivityName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Harvest Moon Fest", "HMF"},
		{"Anniversary", "Anniv."},
		{"Dragon Boat Festival", "Dragon Boat Festival"},
		{"", ""},
		{"Egg", "Egg."},
	}
	for _, tt := range tests {
		if got := ShortenActivityName(tt.in); got != tt.want {
			t.Errorf("ShortenActivityName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapNameAcronym(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hehuan valley", "HHV"},
		{"Qingyun peak", "QYP"},
		{"old battle ground", "OBG"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := MapNameAcronym(tt.in); got != tt.want {
			t.Errorf("MapNameAcronym(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuffIDSuffix(t *testing.T) {
	got, changed := BuffIDSuffix("12345-TipBuffEffect", "Burns the target")
	if !changed || got != "Burns the target\nID: 12345" {
		t.Errorf("BuffIDSuffix = %q, %v", got, changed)
	}
	if _, changed := BuffIDSuffix("abc-TipBuffEffect", "x"); changed {
		t.Error("non-numeric prefix should not change")
	}
	if _, changed := BuffIDSuffix("12345-Other", "x"); changed {
		t.Error("other keys should not change")
	}
}

func TestHealTagsUnnesting(t *testing.T) {
	got := HealTags("<RTP_Default>a<RTP_SkillTitleName>b</></>")
	want := "<RTP_Default>a</> <RTP_SkillTitleName>b</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsNormalizesNames(t *testing.T) {
	tests := []struct{ in, want string }{
		{"<default>x</>", "<RTP_Default>x</>"},
		{"<RTp_Default>x</>", "<RTP_Default>x</>"},
		{"<rtp_SkillPower>y</>", "<RTP_SkillPower>y</>"},
	}
	for _, tt := range tests {
		if got := HealTags(tt.in); got != tt.want {
			t.Errorf("HealTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHealTagsDropsEmptyTags(t *testing.T) {
	if got := HealTags("<RTP_Default> </>text"); got != " text" {
		t.Errorf("HealTags = %q, want %q", got, " text")
	}
}

func TestHealTagsMovesNewlineOutside(t *testing.T) {
	got := HealTags("<RTP_Default>a\nb</>")
	want := "<RTP_Default>a</>\n<RTP_Default>b</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsAmpersand(t *testing.T) {
	got := HealTags("<RTP_Default>a&b</>")
	want := "<RTP_Default>a</>and <RTP_Default>b</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
	// Adjacent to a newline the ampersand survives.
	if got := HealTags("a\n&\nb"); got != "a\n&\nb" {
		t.Errorf("HealTags newline ampersand = %q", got)
	}
}

func TestHealTagsMergesDigitRuns(t *testing.T) {
	got := HealTags("<RTP_SkillTitleName>1</> <RTP_SkillTitleName>2</> <RTP_SkillTitleName>3</>")
	want := "<RTP_SkillTitleName>123</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsPlusException(t *testing.T) {
	in := "<RTP_Default>+</><RTP_SkillTitleName>2</>"
	if got := HealTags(in); got != in {
		t.Errorf("HealTags = %q, want unchanged %q", got, in)
	}
}

func TestHealTagsMergesHyphenTags(t *testing.T) {
	got := HealTags("<RTP_SkillPower>5</> <RTP_SkillPower>-minute cooldown</>")
	want := "<RTP_SkillPower>5-minute cooldown</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsSingleLetterTag(t *testing.T) {
	got := HealTags("<RTP_Default>Lasts 3</> <RTP_Default>s.</>")
	want := "<RTP_Default>Lasts 3</><RTP_Default>s.</>"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsPunctuationTag(t *testing.T) {
	got := HealTags("<RTP_Default>Done</> <RTP_Default>:</>more")
	want := "<RTP_Default>Done</><RTP_Default>:</>more"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestHealTagsCleansLines(t *testing.T) {
	got := HealTags("a  b , c\nd  e")
	want := "a b, c\nd e"
	if got != want {
		t.Errorf("HealTags = %q, want %q", got, want)
	}
}

func TestProcessAll(t *testing.T) {
	p := NewProcessor()
	p.Namespaces["RareEquipmentShop"] = NamespaceConfig{LineBreakMax: 10}
	p.Namespaces["FZCTmplTaskTalk"] = NamespaceConfig{MidSpaces: true}
	p.Overrides = map[string]map[string]string{
		"RareEquipmentShop": {"forced": "Fixed text"},
	}
	p.Deletions = [][2]string{{"RareEquipmentShop", "doomed"}}

	data := map[string]map[string]string{
		"RareEquipmentShop": {
			"long":   "The quick brown fox",
			"doomed": "bye",
		},
		"FZCTmplTaskTalk": {
			"talk": "a b",
		},
		"LimitedTimeActivityConfig": {
			"act": "Harvest Moon Fest",
		},
		"ZCTooltipBuffDoc": {
			"101-TipBuffEffect": "Burns",
		},
		"MapEditorMapName": {
			"m1": "qingyun peak",
		},
		"Quests": {
			"q1": "café boss's",
			"q2": "Deals <RTP_SkillPower>100</><RTP_Default>damage</>",
		},
	}

	stats := p.ProcessAll(data)

	want := map[string]map[string]string{
		"RareEquipmentShop": {
			"long":   "The quick\nbrown fox",
			"forced": "Fixed text",
		},
		"FZCTmplTaskTalk": {
			"talk": "a b",
		},
		"LimitedTimeActivityConfig": {
			"act": "HMF",
		},
		"ZCTooltipBuffDoc": {
			"101-TipBuffEffect": "Burns\nID: 101",
		},
		"MapEditorMapName": {
			"m1": "QYP",
		},
		"Quests": {
			"q1": "cafe boss'",
			"q2": "Deals <RTP_SkillPower>100</> <RTP_Default>damage</>",
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("ProcessAll mismatch (-want +got):\n%s", diff)
	}

	if stats.LineBreaks != 1 || stats.MidSpaces != 1 || stats.ActivityShortens != 1 ||
		stats.BuffIDs != 1 || stats.MapAcronyms != 1 || stats.Overrides != 1 ||
		stats.Deletions != 1 || stats.AccentRemovals != 1 || stats.Possessives != 1 ||
		stats.TagHeals != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
