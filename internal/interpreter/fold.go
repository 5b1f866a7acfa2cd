package interpreter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// normalize returns s in NFC form with runs of whitespace collapsed to a single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// folded is a lower-cased copy of a string that remembers where each of its
// bytes came from, so matches found in text can be sliced out of the original.
type folded struct {
	text string
	orig []int
	src  string
}

// fold lower-cases s one rune at a time. s should already be normalized.
func fold(s string) folded {
	var b strings.Builder
	b.Grow(len(s))
	orig := make([]int, 0, len(s)+1)

	for i, r := range s {
		n, _ := b.WriteRune(unicode.ToLower(r))
		for range n {
			orig = append(orig, i)
		}
	}
	orig = append(orig, len(s))

	return folded{text: b.String(), orig: orig, src: s}
}

// offset maps a byte offset in f.text back to the original string.
func (f folded) offset(i int) int {
	return f.orig[i]
}

// slice returns the original text between folded offsets i and j.
func (f folded) slice(i, j int) string {
	return f.src[f.offset(i):f.offset(j)]
}

// hasPrefixWord reports whether f starts with the word sequence p followed by a space.
func (f folded) hasPrefixWord(p string) bool {
	return strings.HasPrefix(f.text, p+" ")
}

// foldKeyword normalizes a lexicon entry the same way utterances are folded.
func foldKeyword(s string) string {
	return fold(normalize(s)).text
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
