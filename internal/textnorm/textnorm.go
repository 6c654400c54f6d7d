// Package textnorm cleans raw extracted ticket text into a canonical line
// stream for the parser. It is a pure function over its input: unparseable or
// empty input degrades to an empty or partial sequence, never an error,
// because absence of content is meaningful downstream.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var spaceRe = regexp.MustCompile(`\s+`)

// amountRe matches a decimal-comma amount, the telltale of a line that
// carries data rather than page furniture.
var amountRe = regexp.MustCompile(`\d+,\d{2}`)

// Normalize turns raw extracted text into an ordered sequence of trimmed
// lines with collapsed whitespace, rejoined soft hyphenation, and repeated
// page headers/footers removed.
func Normalize(raw string) []string {
	if raw == "" {
		return nil
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.ReplaceAll(raw, "\f", "\n")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = norm.NFC.String(raw)

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = spaceRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	lines = joinHyphenated(lines)
	return dropRepeatedFurniture(lines)
}

// joinHyphenated rejoins words split across a line break by PDF extraction
// ("MANZA-" + "NA" → "MANZANA").
func joinHyphenated(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for strings.HasSuffix(line, "-") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "-") + lines[i]
		}
		out = append(out, line)
	}
	return out
}

// dropRepeatedFurniture removes page headers and footers that repeat across a
// multi-page document. A line is treated as furniture when the exact text
// occurs more than once and carries no amount; only the first occurrence is
// kept, so header anchors still resolve while the product block stays one
// continuous stream.
func dropRepeatedFurniture(lines []string) []string {
	counts := make(map[string]int, len(lines))
	for _, line := range lines {
		counts[line]++
	}

	seen := make(map[string]bool)
	var out []string
	for _, line := range lines {
		if counts[line] > 1 && !amountRe.MatchString(line) {
			if seen[line] {
				continue
			}
			seen[line] = true
		}
		out = append(out, line)
	}
	return out
}
