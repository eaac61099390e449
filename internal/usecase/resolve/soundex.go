package resolve

import (
	"strings"
	"unicode"
)

// soundexCode maps a letter to its Soundex digit, or 0 for vowels and the
// letters h/w/y which separate or merge adjacent codes.
func soundexCode(r rune) byte {
	switch r {
	case 'b', 'f', 'p', 'v':
		return '1'
	case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
		return '2'
	case 'd', 't':
		return '3'
	case 'l':
		return '4'
	case 'm', 'n':
		return '5'
	case 'r':
		return '6'
	}
	return 0
}

// soundexWord computes the classic 4-character Soundex key of a single word.
// Non-letter runes are ignored; an empty or letterless word keys to "".
func soundexWord(word string) string {
	letters := make([]rune, 0, len(word))
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	key := make([]byte, 0, 4)
	key = append(key, byte(unicode.ToUpper(letters[0])))
	prev := soundexCode(letters[0])

	for _, r := range letters[1:] {
		code := soundexCode(r)
		// h and w do not reset the previous code; vowels do
		if code == 0 {
			if r != 'h' && r != 'w' {
				prev = 0
			}
			continue
		}
		if code != prev {
			key = append(key, code)
			if len(key) == 4 {
				break
			}
		}
		prev = code
	}

	for len(key) < 4 {
		key = append(key, '0')
	}
	return string(key)
}

// PhoneticKey maps a name span to a coarse sound-alike key: the Soundex of
// each word joined with a dash. Spans sharing a key are candidates for
// similarity scoring; the same function drives fuzzy index lookups.
func PhoneticKey(span string) string {
	words := strings.Fields(span)
	if len(words) == 0 {
		return ""
	}
	keys := make([]string, 0, len(words))
	for _, w := range words {
		if k := soundexWord(w); k != "" {
			keys = append(keys, k)
		}
	}
	return strings.Join(keys, "-")
}
