// Package postproc applies the presentation-level cleanup pass that runs
// after translation and rule correction: accent stripping, per-namespace
// line wrapping, smart quotes, markup tag healing, and the handful of
// namespace-specific rewrites the client UI needs.
package postproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NamespaceConfig tunes the pass for one namespace.
type NamespaceConfig struct {
	// LineBreakMax wraps values at spaces to at most this many characters
	// per line. Zero disables wrapping.
	LineBreakMax int `yaml:"line_break_max"`
	// MidSpaces replaces ordinary spaces with four-per-em spaces, for UI
	// panels whose widths were designed around CJK glyphs.
	MidSpaces bool `yaml:"mid_spaces"`
}

// Stats counts how many values each transform touched.
type Stats struct {
	AccentRemovals   int
	LineBreaks       int
	SmartQuotes      int
	Bullets          int
	Possessives      int
	TagHeals         int
	ColonSpaces      int
	MidSpaces        int
	ActivityShortens int
	BuffIDs          int
	MapAcronyms      int
	Overrides        int
	Deletions        int
}

// Processor holds the per-namespace configuration plus the explicit
// override and deletion lists applied at the end of the pass.
type Processor struct {
	Namespaces map[string]NamespaceConfig
	Overrides  map[string]map[string]string
	Deletions  [][2]string
	DebugIDs   bool

	// Namespaces with dedicated rewrites.
	ActivityNamespace string
	TooltipNamespace  string
	MapNameNamespace  string
}

// NewProcessor returns a Processor with the client's special namespaces
// preset.
func NewProcessor() *Processor {
	return &Processor{
		Namespaces:        make(map[string]NamespaceConfig),
		ActivityNamespace: "LimitedTimeActivityConfig",
		TooltipNamespace:  "ZCTooltipBuffDoc",
		MapNameNamespace:  "MapEditorMapName",
	}
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// RemoveAccents replaces accented Latin letters with their base letter by
// decomposing and dropping the combining marks.
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// BreakAtSpaces wraps text so no line exceeds max characters, breaking at
// the last space inside the window and hard-breaking words longer than the
// window.
func BreakAtSpaces(text string, max int) string {
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	var lines []string
	start := 0
	for start < len(r) {
		if len(r)-start <= max {
			lines = append(lines, string(r[start:]))
			break
		}
		breakAt := -1
		hi := start + max
		if hi > len(r)-1 {
			hi = len(r) - 1
		}
		for i := hi; i > start; i-- {
			if r[i] == ' ' {
				breakAt = i
				break
			}
		}
		if breakAt > start {
			lines = append(lines, string(r[start:breakAt]))
			start = breakAt + 1
		} else {
			lines = append(lines, string(r[start:start+max]))
			start += max
		}
	}
	return strings.Join(lines, "\n")
}

// SmartQuotes replaces straight double quotes with alternating curly
// quotes, skipping markup tags so a quote split across tags still pairs.
func SmartQuotes(text string) string {
	if !strings.Contains(text, `"`) {
		return text
	}
	var out strings.Builder
	opening := true
	for _, part := range splitKeepingTags(text) {
		if isTag(part) {
			out.WriteString(part)
			continue
		}
		for i, seg := range strings.Split(part, `"`) {
			if i > 0 {
				if opening {
					out.WriteString("“")
				} else {
					out.WriteString("”")
				}
				opening = !opening
			}
			out.WriteString(seg)
		}
	}
	return out.String()
}

// BulletToHyphen rewrites the CJK middle-dot separator as a spaced hyphen
// and collapses the resulting space runs.
func BulletToHyphen(text string) string {
	if !strings.Contains(text, "·") {
		return text
	}
	text = strings.ReplaceAll(text, "·", " - ")
	return spaceRunRE.ReplaceAllString(text, " ")
}

// FixPossessive corrects the common mistranslation "s's" to "s'".
func FixPossessive(text string) string {
	return strings.ReplaceAll(text, "s's", "s'")
}

// ColonSpacing pads a trailing colon so the client does not butt the next
// UI element against it. A colon just inside a trailing close tag gets the
// space inside the tag.
func ColonSpacing(text string) string {
	if strings.HasSuffix(text, ":") {
		return text + " "
	}
	if strings.HasSuffix(text, ":</>") {
		return text[:len(text)-3] + " </>"
	}
	return text
}

// MidSpaces narrows every ordinary space to a four-per-em space.
func MidSpaces(text string) string {
	return strings.ReplaceAll(text, " ", " ")
}

// ShortenActivityName compresses short activity titles that overflow their
// fixed-width banner: multi-word titles become initial acronyms, single
// words are truncated.
func ShortenActivityName(text string) string {
	r := []rune(text)
	if len(r) == 0 || len(r) >= 19 {
		return text
	}
	if strings.Contains(strings.TrimSpace(text), " ") {
		var b strings.Builder
		for _, word := range strings.Fields(text) {
			first := []rune(word)[0]
			b.WriteRune(unicode.ToUpper(first))
		}
		return b.String()
	}
	if len(r) > 5 {
		r = r[:5]
	}
	return string(r) + "."
}

// mapNameSpecials maps romanized faction names to their established
// abbreviations.
var mapNameSpecials = map[string]string{
	"hehuan":   "HH",
	"guiwang":  "GW",
	"qingyun":  "QY",
	"lingxi":   "LX",
	"fenxiang": "FX",
	"heyang":   "HY",
}

// MapNameAcronym abbreviates a map name to its initials, with the faction
// names replaced by their two-letter forms.
func MapNameAcronym(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	var parts []string
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		if abbr, ok := mapNameSpecials[strings.ToLower(word)]; ok {
			parts = append(parts, abbr)
			continue
		}
		first := []rune(word)[0]
		parts = append(parts, string(unicode.ToUpper(first)))
	}
	return strings.Join(parts, "")
}

// BuffIDSuffix appends the numeric buff ID from a "<id>-TipBuffEffect" key
// to its effect description, so testers can match tooltips to data rows.
func BuffIDSuffix(key, value string) (string, bool) {
	if !strings.HasSuffix(key, "-TipBuffEffect") {
		return value, false
	}
	id := strings.SplitN(key, "-", 2)[0]
	if id == "" || strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		return value, false
	}
	return value + "\nID: " + id, true
}

// ProcessAll runs the full pass over data in place and returns transform
// counts.
func (p *Processor) ProcessAll(data map[string]map[string]string) Stats {
	var stats Stats

	for ns, values := range data {
		if ns == p.ActivityNamespace {
			for key, value := range values {
				if shortened := ShortenActivityName(value); shortened != value {
					values[key] = shortened
					stats.ActivityShortens++
				}
			}
		}

		cfg := p.Namespaces[ns]
		for key, value := range values {
			if strings.TrimSpace(value) == "" {
				continue
			}
			text := value

			if p.DebugIDs {
				text = ns + "_" + key + " " + text
			}

			if stripped := RemoveAccents(text); stripped != text {
				text = stripped
				stats.AccentRemovals++
			}
			if cfg.LineBreakMax > 0 {
				if wrapped := BreakAtSpaces(text, cfg.LineBreakMax); wrapped != text {
					text = wrapped
					stats.LineBreaks++
				}
			}
			if quoted := SmartQuotes(text); quoted != text {
				text = quoted
				stats.SmartQuotes++
			}
			if hyphened := BulletToHyphen(text); hyphened != text {
				text = hyphened
				stats.Bullets++
			}
			if fixed := FixPossessive(text); fixed != text {
				text = fixed
				stats.Possessives++
			}
			if (strings.Contains(text, "RTP") || strings.Contains(text, "<Def>")) && ns != "WildCardHandlers" {
				if healed := HealTags(text); healed != text {
					text = healed
					stats.TagHeals++
				}
			} else if spaced := ColonSpacing(text); spaced != text {
				text = spaced
				stats.ColonSpaces++
			}
			if cfg.MidSpaces {
				if mid := MidSpaces(text); mid != text {
					text = mid
					stats.MidSpaces++
				}
			}

			values[key] = text
		}
	}

	if tooltip, ok := data[p.TooltipNamespace]; ok {
		for key, value := range tooltip {
			if suffixed, changed := BuffIDSuffix(key, value); changed {
				tooltip[key] = suffixed
				stats.BuffIDs++
			}
		}
	}

	if mapNames, ok := data[p.MapNameNamespace]; ok {
		for key, value := range mapNames {
			if value == "" {
				continue
			}
			if acronym := MapNameAcronym(value); acronym != value {
				mapNames[key] = acronym
				stats.MapAcronyms++
			}
		}
	}

	for ns, pairs := range p.Overrides {
		values, ok := data[ns]
		if !ok {
			values = make(map[string]string)
			data[ns] = values
		}
		for key, value := range pairs {
			values[key] = value
			stats.Overrides++
		}
	}
	for _, nsKey := range p.Deletions {
		ns, key := nsKey[0], nsKey[1]
		if values, ok := data[ns]; ok {
			if _, ok := values[key]; ok {
				delete(values, key)
				stats.Deletions++
				if len(values) == 0 {
					delete(data, ns)
				}
			}
		}
	}
	return stats
}
