package rootmeaning

import (
	"strings"
	"unicode/utf8"

	"sefariaproxy/internal/cachekey"
)

const (
	maqaf = '־'
	vav   = 'ו'

	minRootLetters = 2
	maxRootLetters = 15
	// Roots up to this length are displayed with a maqaf between letters.
	maxDisplayLetters = 4
)

var (
	digraphs = map[string]rune{
		"ch": 'ח', "kh": 'ח', "sh": 'ש', "ts": 'צ', "tz": 'צ',
	}
	// Latin letters without a Hebrew counterpart (u) are dropped.
	transliteration = map[rune]rune{
		'a': 'א', 'b': 'ב', 'c': 'כ', 'd': 'ד', 'e': 'ה', 'f': 'פ', 'g': 'ג',
		'h': 'ה', 'i': 'י', 'j': 'י', 'k': 'כ', 'l': 'ל', 'm': 'מ', 'n': 'נ',
		'o': 'ו', 'p': 'פ', 'q': 'ק', 'r': 'ר', 's': 'ש', 't': 'ת', 'v': 'ו',
		'w': 'ו', 'x': 'ח', 'y': 'י', 'z': 'ז',
	}
)

func isHebrewLetter(r rune) bool {
	return (r >= 0x05D0 && r <= 0x05EA) || (r >= 0xFB1D && r <= 0xFB4F)
}

func isNiqqud(r rune) bool {
	return (r >= 0x0591 && r <= 0x05BD) || (r >= 0x05BF && r <= 0x05C7)
}

func isSeparator(r rune) bool { return r == maqaf || r == '-' }

// Normalize reduces a root or word to bare Hebrew letters. Input may be
// Hebrew with or without maqaf or niqqud (ק־ד־שׁ, קדש) or a Latin
// transliteration (K-D-Sh). A two-part hyphenated form keeps the second word
// (אֶל־מֹשֶׁה → משה) and a leading conjunctive vav is dropped. It reports false
// when fewer than 2 or more than 15 letters remain.
func Normalize(input string) (string, bool) {
	s := cachekey.Normalize(input)
	if s == "" {
		return "", false
	}
	s = stripLeadingVav(substantiveWord(s))

	var b strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case isHebrewLetter(r):
			b.WriteRune(r)
		case i+2 <= len(s) && digraphs[strings.ToLower(s[i:i+2])] != 0:
			b.WriteRune(digraphs[strings.ToLower(s[i:i+2])])
			size = 2
		default:
			if h, ok := transliteration[toLowerASCII(r)]; ok {
				b.WriteRune(h)
			}
		}
		i += size
	}

	out := b.String()
	if n := utf8.RuneCountInString(out); n < minRootLetters || n > maxRootLetters {
		return "", false
	}
	return out, true
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// substantiveWord returns the word after a single prefix separator. Roots
// spelled with a separator between every letter are kept whole.
func substantiveWord(s string) string {
	parts := splitNonEmpty(s, func(r rune) bool { return r == maqaf })
	switch {
	case len(parts) == 2:
		return parts[1]
	case len(parts) > 2:
		return s
	}
	if parts = splitNonEmpty(s, isSeparator); len(parts) == 2 {
		return parts[1]
	}
	return s
}

func splitNonEmpty(s string, sep func(rune) bool) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripLeadingVav(s string) string {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, string(vav))
	if !ok {
		return s
	}
	rest = strings.TrimSpace(strings.TrimLeftFunc(rest, isNiqqud))
	if rest == "" {
		return s
	}
	return rest
}

// Display formats normalized letters for prompts and UI: short roots are
// joined with maqaf (ק־ד־ש), longer words are returned as is.
func Display(root string) string {
	letters := []rune(root)
	if len(letters) < minRootLetters || len(letters) > maxDisplayLetters {
		return root
	}
	parts := make([]string, len(letters))
	for i, r := range letters {
		parts[i] = string(r)
	}
	return strings.Join(parts, string(maqaf))
}
