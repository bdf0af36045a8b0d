package indexer

import (
	"regexp"
	"strings"
	"unicode"
)

// hyphenBreak matches a word broken across lines by OCR ("volu-\nme").
var hyphenBreak = regexp.MustCompile(`(\p{L})-\s*\n\s*(\p{L})`)

// Preprocess normalizes extracted page text before chunking: rejoins hyphenated line
// breaks, then trims and collapses all whitespace runs to a single space.
func Preprocess(text string) string {
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
