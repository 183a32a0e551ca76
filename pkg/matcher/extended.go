package matcher

import (
	"regexp"
	"strings"
)

var (
	commentGroup = regexp.MustCompile(`\(\?#[^)]*\)`)
	leadingFlags = regexp.MustCompile(`^\(\?([imsx]+)\)`)
)

// portablePattern rewrites a regexp2 rule pattern for engines that reject
// inline flag groups and free-spacing syntax. Leading (?imsx) groups are
// removed; caseless reports whether (?i) was among them. (?s) and (?m) are
// dropped because those engines run with DotAll and MultiLine set.
func portablePattern(pattern string) (expr string, caseless bool) {
	expr = strings.TrimSpace(pattern)

	extended := false
	for {
		m := leadingFlags.FindStringSubmatch(expr)
		if m == nil {
			break
		}
		caseless = caseless || strings.Contains(m[1], "i")
		extended = extended || strings.Contains(m[1], "x")
		expr = expr[len(m[0]):]
	}

	if extended {
		expr = stripFreeSpacing(commentGroup.ReplaceAllString(expr, ""))
	}
	return expr, caseless
}

// stripFreeSpacing drops unescaped whitespace and # comments outside
// character classes.
func stripFreeSpacing(pattern string) string {
	var b strings.Builder
	escaped, inClass, inComment := false, false, false

	for _, c := range pattern {
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
			continue
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '#':
			inComment = true
			continue
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
