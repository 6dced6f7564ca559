package ai

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)```")
	jsonStringRegex  = regexp.MustCompile(`"(?:\\.|[^"\\])*"`)
)

// ExtractJSON pulls a JSON object out of model output that wraps it in
// a markdown fence or surrounds it with prose. The largest valid object wins.
// ok is false when no object could be recovered.
func ExtractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if best := largestFencedObject(text); best != "" {
		return best, true
	}
	if best := largestBalancedObject(text); best != "" {
		return best, true
	}

	sanitized := SanitizeJSON(text)
	if isJSONObject(sanitized) {
		return sanitized, true
	}
	return "", false
}

func largestFencedObject(text string) string {
	var best string
	for _, m := range fencedBlockRegex.FindAllStringSubmatch(text, -1) {
		candidate := SanitizeJSON(strings.TrimSpace(m[1]))
		if isJSONObject(candidate) && len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

func largestBalancedObject(text string) string {
	var best string
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start == -1 {
			break
		}
		start += i

		end := matchingBrace(text, start)
		if end == -1 {
			i = start + 1
			continue
		}

		candidate := SanitizeJSON(text[start : end+1])
		if isJSONObject(candidate) && len(candidate) > len(best) {
			best = candidate
		}
		i = end + 1
	}
	return best
}

// matchingBrace returns the index of the brace closing the one at start,
// ignoring braces inside string literals, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for j := start; j < len(text); j++ {
		c := text[j]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// SanitizeJSON escapes raw newlines that models sometimes leave inside
// string literals.
func SanitizeJSON(s string) string {
	return jsonStringRegex.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, "\n", "\\n")
	})
}

func isJSONObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}
