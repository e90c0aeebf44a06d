package ingest

import (
	"regexp"
	"strings"
)

// strategy turns raw provider text into a candidate JSON document.
// ok is false when the strategy does not apply to the text.
type strategy struct {
	name    string
	extract func(raw string) (candidate string, ok bool)
}

// strategies are tried in order; the first candidate that decodes wins.
var strategies = []strategy{
	{name: "direct", extract: direct},
	{name: "strip-fences", extract: stripFences},
	{name: "balanced-span", extract: balancedSpan},
}

func direct(raw string) (string, bool) {
	return strings.TrimSpace(raw), true
}

var fenceRe = regexp.MustCompile("```[A-Za-z]*")

func stripFences(raw string) (string, bool) {
	if !strings.Contains(raw, "```") {
		return "", false
	}
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, "")), true
}

// balancedSpan returns the first complete top-level {...} object in raw,
// skipping braces that appear inside string literals.
func balancedSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
