package text

// CountSyllables estimates the syllable count of a single word.
//
// The estimate counts maximal runs of the vowels a, e, i, o, u and y in the
// word's ASCII letters, drops one for a trailing silent "e" (but not "le"),
// and reports at least one syllable for any word that has letters. Words
// without ASCII letters count zero. This is a heuristic and intentionally
// disagrees with dictionaries on words like "recipe".
func CountSyllables(word string) int {
	letters := lowerLetters(word)
	if len(letters) == 0 {
		return 0
	}

	count := 0
	prevVowel := false
	for _, c := range letters {
		v := isVowel(c)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	n := len(letters)
	if count > 1 && letters[n-1] == 'e' && !(n >= 2 && letters[n-2] == 'l') {
		count--
	}

	return max(1, count)
}

// lowerLetters returns the a-z letters of s after lowercasing A-Z.
// Every other byte, including multi-byte UTF-8 sequences, is dropped.
func lowerLetters(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		}
	}
	return out
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
