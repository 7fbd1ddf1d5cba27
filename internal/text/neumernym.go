package text

import (
	"strconv"
	"unicode/utf8"
)

// minNeumernymLetters is the fewest ASCII letters a word needs to be encoded.
const minNeumernymLetters = 4

// Neumernym abbreviates a word as its first letter, the number of letters
// between the first and last, and its last letter: "international" becomes
// "i11l".
//
// Words of at most four runes are returned unchanged. Only ASCII letters take
// part in the encoding; a longer word with fewer than four letters (such as
// "a1b2c3") is also returned unchanged rather than reported as an error.
// Letter case is preserved.
func Neumernym(word string) string {
	if utf8.RuneCountInString(word) <= 4 {
		return word
	}

	letters := make([]byte, 0, len(word))
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			letters = append(letters, c)
		}
	}
	if len(letters) < minNeumernymLetters {
		return word
	}

	n := len(letters)
	return string(letters[0]) + strconv.Itoa(n-2) + string(letters[n-1])
}
