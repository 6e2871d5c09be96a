package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("```(?:json)?")
)

// sanitize removes reasoning blocks and markdown code fences the model wraps
// around its output despite being told not to.
func sanitize(raw string) string {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	s = codeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// balancedObjects returns every balanced {...} substring of s, ordered by
// opening brace position. The scan is string-aware so braces inside JSON
// string literals do not affect nesting. An object whose closing brace was
// truncated away produces no candidate; its balanced inner objects still do,
// which lets a truncated response degrade instead of failing outright.
func balancedObjects(s string) []string {
	type span struct{ start, end int }
	var spans []span
	starts := make([]int, 0, 4)
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
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
			starts = append(starts, i)
		case '}':
			if len(starts) > 0 {
				open := starts[len(starts)-1]
				starts = starts[:len(starts)-1]
				spans = append(spans, span{open, i + 1})
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	candidates := make([]string, 0, len(spans))
	for _, sp := range spans {
		candidates = append(candidates, s[sp.start:sp.end])
	}
	return candidates
}
