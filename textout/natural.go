package textout

import (
	"strings"

	"github.com/zxsj-tools/locpipe/identity"
)

type token struct {
	numeric bool
	number  uint64
	text    string
}

// tokenize splits s into alternating text and digit-run tokens. Digit runs
// compare numerically so "entry2" sorts before "entry10"; text compares
// case-insensitively.
func tokenize(s string) []token {
	s = identity.CleanBOM(s)
	var tokens []token
	i := 0
	for i < len(s) {
		j := i
		if isDigit(s[i]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			tokens = append(tokens, token{numeric: true, number: parseRun(s[i:j]), text: s[i:j]})
		} else {
			for j < len(s) && !isDigit(s[j]) {
				j++
			}
			tokens = append(tokens, token{text: strings.ToLower(s[i:j])})
		}
		i = j
	}
	return tokens
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseRun converts a digit run, saturating instead of failing on runs
// longer than uint64.
func parseRun(s string) uint64 {
	var n uint64
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if n > (^uint64(0)-d)/10 {
			return ^uint64(0)
		}
		n = n*10 + d
	}
	return n
}

// naturalLess orders strings with embedded numbers the way a human reads
// them. Numeric tokens sort before text tokens at the same position.
func naturalLess(a, b string) bool {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		x, y := ta[i], tb[i]
		switch {
		case x.numeric && y.numeric:
			if x.number != y.number {
				return x.number < y.number
			}
			if x.text != y.text {
				return x.text < y.text
			}
		case x.numeric != y.numeric:
			return x.numeric
		default:
			if x.text != y.text {
				return x.text < y.text
			}
		}
	}
	return len(ta) < len(tb)
}
