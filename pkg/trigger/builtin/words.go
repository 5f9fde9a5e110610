package builtin

import "unicode"

// isWordRune reports whether r is part of a word: letters, digits,
// and underscore. Everything else, punctuation included, is a
// boundary, so "sword," still contains a whole-word "sword".
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// foldRunes lowers a string rune by rune, preserving rune count so
// occurrence indexes line up between the folded and original text.
func foldRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

// wordOccurrences returns the rune indexes of every case-insensitive
// whole-word occurrence of word in text, in order.
func wordOccurrences(text, word string) []int {
	t := foldRunes(text)
	w := foldRunes(word)
	if len(w) == 0 || len(w) > len(t) {
		return nil
	}

	var occ []int
scan:
	for i := 0; i+len(w) <= len(t); i++ {
		for j, r := range w {
			if t[i+j] != r {
				continue scan
			}
		}
		if i > 0 && isWordRune(t[i-1]) {
			continue
		}
		if end := i + len(w); end < len(t) && isWordRune(t[end]) {
			continue
		}
		occ = append(occ, i)
	}
	return occ
}

// wordToken is a word extracted from text, with its rune offset.
type wordToken struct {
	text string
	pos  int
}

// wordTokens splits text into its word tokens (maximal runs of word
// runes), preserving original case.
func wordTokens(text string) []wordToken {
	rs := []rune(text)
	var tokens []wordToken
	start := -1
	for i, r := range rs {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, wordToken{text: string(rs[start:i]), pos: start})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, wordToken{text: string(rs[start:]), pos: start})
	}
	return tokens
}
