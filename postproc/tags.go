package postproc

import (
	"regexp"
	"strings"
)

var (
	spaceRunRE = regexp.MustCompile(` +`)

	tagTokenRE = regexp.MustCompile(`<\s*/\s*>|<\s*[^>]+>`)
	closeTagRE = regexp.MustCompile(`^<\s*/\s*>$`)
	anyTagRE   = regexp.MustCompile(`<[^>\n]*>`)
	fullTagRE  = regexp.MustCompile(`^<[^>\n]*>$`)

	tagBreakRE = regexp.MustCompile(`\r\n|\r|\n|&`)
	newlineRE  = regexp.MustCompile(`^(?:\r\n|\r|\n)$`)

	quoteBeforeTaggedApostropheRE = regexp.MustCompile(`(</>)[ ]+(<[^>]+>')`)
	closeThenOpenRE               = regexp.MustCompile(`</><(RTP_[^>]+)>`)
	digitCloseOpenRE              = regexp.MustCompile(`([0-9:])</>[ ]*<`)
	hyphenMergeRE                 = regexp.MustCompile(`<(RTP_[^>]+)>([0-9]+)</>\s+<(RTP_[^>]+)>-([^<\n]*)</>`)
	digitMergeRE                  = regexp.MustCompile(`<RTP_SkillTitleName>([0-9]+)</>\s+<RTP_SkillTitleName>([0-9])</>`)
	singleLetterTagRE             = regexp.MustCompile(`([0-9:])</> <([^>]+)>([A-Za-z])([%;,.:!'"]?)</>`)
	letterBeforeTagRE             = regexp.MustCompile(`([A-Za-z])<(RTP_[^>]+)>`)
	spaceAfterOpenRE              = regexp.MustCompile(`(<RTP_[^>]+>) `)
	spaceBeforeCommaTagRE         = regexp.MustCompile(`</>[ ]+<(RTP_[^>]+)>,`)
	spaceBeforePunctTagRE         = regexp.MustCompile(`</>[ ]+<(RTP_[^>]+)>([%;,.:!'"])</>`)
	spaceBeforePunctOpenRE        = regexp.MustCompile(`</>[ ]+<(RTP_[^>]+)>([:;,.!%'"])`)
	multiSpaceRE                  = regexp.MustCompile(` {2,}`)
	spaceBeforePunctRE            = regexp.MustCompile(` ([%,'";.:!])`)
)

const (
	openTok = iota
	closeTok
	textTok
)

type tagToken struct {
	kind int
	// tag name for openTok, raw text for textTok
	val string
}

// HealTags repairs a string carrying RTP-style markup (<RTP_Name>text</>):
// it normalizes tag names, un-nests tags, drops empty ones, moves newlines
// and ampersands outside tags, and then runs a series of spacing fixups so
// punctuation and adjacent tags render cleanly.
func HealTags(input string) string {
	tokens := tokenizeTags(input)
	raw := rebuildTags(unnestTags(tokens))

	raw = replaceLoneAmpersands(raw)
	raw = quoteBeforeTaggedApostropheRE.ReplaceAllString(raw, "$1$2")

	raw = replaceUnlessPrecededBy(raw, closeThenOpenRE, '+', func(m string) string {
		return closeThenOpenRE.ReplaceAllString(m, "</> <$1>")
	})
	raw = replaceUnlessPrecededBy(raw, digitCloseOpenRE, '+', func(m string) string {
		return digitCloseOpenRE.ReplaceAllString(m, "$1</> <")
	})

	// Merge "<TAG>5</> <TAG>-minute</>" into "<TAG>5-minute</>" when both
	// tags carry the same name.
	raw = hyphenMergeRE.ReplaceAllStringFunc(raw, func(m string) string {
		g := hyphenMergeRE.FindStringSubmatch(m)
		if g[1] != g[3] {
			return m
		}
		return "<" + g[1] + ">" + g[2] + "-" + g[4] + "</>"
	})

	// Collapse runs of single-digit skill title tags into one tag.
	for {
		merged := digitMergeRE.ReplaceAllString(raw, "<RTP_SkillTitleName>$1$2</>")
		if merged == raw {
			break
		}
		raw = merged
	}

	raw = singleLetterTagRE.ReplaceAllString(raw, "$1</><$2>$3$4</>")
	raw = letterBeforeTagRE.ReplaceAllString(raw, "$1 <$2>")
	raw = spaceAfterOpenRE.ReplaceAllString(raw, "$1")
	raw = strings.ReplaceAll(raw, " </>", "</>")
	raw = spaceBeforeCommaTagRE.ReplaceAllString(raw, "</><$1>,")
	raw = spaceBeforePunctTagRE.ReplaceAllString(raw, "</><$1>$2</>")
	raw = spaceBeforePunctOpenRE.ReplaceAllString(raw, "</><$1>$2")

	return cleanLines(raw)
}

func tokenizeTags(input string) []tagToken {
	var tokens []tagToken
	for _, part := range splitKeep(tagTokenRE, input) {
		switch {
		case closeTagRE.MatchString(part):
			tokens = append(tokens, tagToken{kind: closeTok})
		case strings.HasPrefix(part, "<") && strings.HasSuffix(part, ">"):
			tokens = append(tokens, tagToken{kind: openTok, val: normalizeTagName(part)})
		default:
			tokens = append(tokens, tagToken{kind: textTok, val: part})
		}
	}
	return tokens
}

func normalizeTagName(tag string) string {
	raw := strings.TrimSpace(tag[1 : len(tag)-1])
	lower := strings.ToLower(raw)
	switch {
	case lower == "default" || lower == "rtp_default":
		return "RTP_Default"
	case strings.HasPrefix(lower, "rtp_"):
		_, suffix, _ := strings.Cut(raw, "_")
		return "RTP_" + suffix
	default:
		return raw
	}
}

// unnestTags rewrites the token stream so tags never nest, empty tags
// disappear, and newlines and ampersands always sit outside tags.
func unnestTags(tokens []tagToken) []tagToken {
	var result []tagToken
	openName := ""
	isOpen := false
	openIndex := -1
	buffered := ""

	closeCurrent := func() {
		if buffered == "" || strings.TrimSpace(buffered) == "" {
			result = append(result[:openIndex], result[openIndex+1:]...)
		} else {
			result = append(result, tagToken{kind: closeTok})
		}
		isOpen = false
		openIndex = -1
		buffered = ""
	}
	reopen := func(name string) {
		result = append(result, tagToken{kind: openTok, val: name})
		isOpen = true
		openName = name
		openIndex = len(result) - 1
		buffered = ""
	}

	for _, tok := range tokens {
		switch tok.kind {
		case openTok:
			if isOpen {
				closeCurrent()
			}
			reopen(tok.val)
		case closeTok:
			// Stray </> without a matching open is dropped.
			if isOpen {
				closeCurrent()
			}
		case textTok:
			if !isOpen {
				result = append(result, tok)
				continue
			}
			for _, seg := range splitKeep(tagBreakRE, tok.val) {
				switch {
				case newlineRE.MatchString(seg), seg == "&":
					name := openName
					closeCurrent()
					result = append(result, tagToken{kind: textTok, val: seg})
					reopen(name)
				default:
					buffered += seg
					result = append(result, tagToken{kind: textTok, val: seg})
				}
			}
		}
	}
	if isOpen {
		closeCurrent()
	}
	return result
}

func rebuildTags(tokens []tagToken) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.kind {
		case openTok:
			b.WriteString("<" + tok.val + ">")
		case closeTok:
			b.WriteString("</>")
		default:
			b.WriteString(tok.val)
		}
	}
	return b.String()
}

// replaceLoneAmpersands turns every & not adjacent to a newline into "and".
func replaceLoneAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			b.WriteByte(s[i])
			continue
		}
		prevNL := i > 0 && (s[i-1] == '\r' || s[i-1] == '\n')
		nextNL := i+1 < len(s) && (s[i+1] == '\r' || s[i+1] == '\n')
		if prevNL || nextNL {
			b.WriteByte('&')
		} else {
			b.WriteString("and")
		}
	}
	return b.String()
}

// replaceUnlessPrecededBy applies repl to each match of re whose preceding
// byte is not prev. Stands in for a negative lookbehind.
func replaceUnlessPrecededBy(s string, re *regexp.Regexp, prev byte, repl func(string) string) string {
	locs := re.FindAllStringIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] > 0 && s[loc[0]-1] == prev {
			continue
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl(s[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// cleanLines collapses space runs and strips spaces before punctuation,
// line by line so newlines survive untouched.
func cleanLines(s string) string {
	var b strings.Builder
	for _, line := range splitLinesKeepEnds(s) {
		content, nl := line, ""
		if strings.HasSuffix(content, "\r\n") {
			content, nl = content[:len(content)-2], "\r\n"
		} else if strings.HasSuffix(content, "\n") || strings.HasSuffix(content, "\r") {
			content, nl = content[:len(content)-1], content[len(content)-1:]
		}
		content = multiSpaceRE.ReplaceAllString(content, " ")
		content = spaceBeforePunctRE.ReplaceAllString(content, "$1")
		b.WriteString(content)
		b.WriteString(nl)
	}
	return b.String()
}

func splitLinesKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i+1])
			start = i + 1
		case '\r':
			end := i + 1
			if end < len(s) && s[end] == '\n' {
				end++
				i++
			}
			lines = append(lines, s[start:end])
			start = end
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// splitKeep splits s by re, keeping the matches interleaved with the text
// between them. Empty segments are dropped.
func splitKeep(re *regexp.Regexp, s string) []string {
	var parts []string
	last := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			parts = append(parts, s[last:loc[0]])
		}
		parts = append(parts, s[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(s) {
		parts = append(parts, s[last:])
	}
	return parts
}

func splitKeepingTags(s string) []string {
	return splitKeep(anyTagRE, s)
}

func isTag(s string) bool {
	return fullTagRE.MatchString(s)
}
