package text

import (
	"regexp"
	"strings"
)

var (
	// punctuation is replaced with a single space before word extraction.
	punctuation = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")
	multiSpace  = regexp.MustCompile(`\s{2,}`)
	// wordPattern uses RE2's ASCII \w ([0-9A-Za-z_]) and \b.
	wordPattern = regexp.MustCompile(`\b\w+\b`)
)

// Tokenize splits raw text into lowercase word tokens.
//
// Punctuation from the replacement set becomes whitespace, whitespace runs
// collapse to a single space, the text is lowercased and every maximal run of
// ASCII word characters is returned in order. Apostrophes are neither
// replaced nor word characters, so "don't" yields "don" and "t". Input with no
// word characters yields a nil slice.
func Tokenize(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = punctuation.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	return wordPattern.FindAllString(s, -1)
}
