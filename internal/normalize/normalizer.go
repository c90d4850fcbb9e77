// Package normalize turns raw extracted invoice text into a clean, ordered
// sequence of lines. It is pure: any byte sequence is accepted, unrecognized
// characters pass through, and nothing is logged or mutated.
package normalize

import (
	"strings"
	"unicode"

	"github.com/millworks/tariffmill/internal/models"
)

// Lines splits text into trimmed, whitespace-collapsed lines in original
// order. Blank lines are dropped; form feeds (page breaks from PDF
// extraction) are treated as line breaks. Line numbers refer to positions in
// the returned sequence.
func Lines(text string) []models.RawLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	var lines []models.RawLine
	for _, raw := range strings.Split(text, "\n") {
		cleaned := collapse(raw)
		if cleaned == "" {
			continue
		}
		lines = append(lines, models.RawLine{
			Number: len(lines) + 1,
			Text:   cleaned,
		})
	}
	return lines
}

// collapse trims a line and squeezes runs of whitespace into single spaces.
// PDF extraction artifacts such as NBSP, zero-width spaces and the BOM are
// stripped; everything else passes through untouched.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case r == '\ufeff', r == '\u200b', r == '\u200c', r == '\u200d':
			// zero-width artifacts
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
