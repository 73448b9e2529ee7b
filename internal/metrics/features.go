package metrics

import (
	"strings"
	"unicode/utf8"
)

// Features are size counts of a message body, recorded instead of the text.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures returns byte, rune, word and line counts for s.
// Words split on Unicode whitespace; an empty string has zero lines.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}
