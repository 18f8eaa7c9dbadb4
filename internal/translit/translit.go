// Package translit converts Serbian Cyrillic text to Latin script.
package translit

import (
	"regexp"
	"strings"
)

// cyrillicToLatin is the full Serbian alphabet. Digraph targets (Lj, Nj, Dj,
// Dz) follow the spelling used on printed fiscal receipts.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'ђ': "dj", 'е': "e", 'ж': "z",
	'з': "z", 'и': "i", 'ј': "j", 'к': "k", 'л': "l", 'љ': "lj", 'м': "m", 'н': "n",
	'њ': "nj", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'ћ': "c", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "c", 'џ': "dz", 'ш': "s",
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Ђ': "Dj", 'Е': "E", 'Ж': "Z",
	'З': "Z", 'И': "I", 'Ј': "J", 'К': "K", 'Л': "L", 'Љ': "Lj", 'М': "M", 'Н': "N",
	'Њ': "Nj", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'Ћ': "C", 'У': "U",
	'Ф': "F", 'Х': "H", 'Ц': "C", 'Ч': "C", 'Џ': "Dz", 'Ш': "S",
}

var reSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Transliterate maps every Serbian Cyrillic rune to its Latin sequence and
// passes all other runes through unchanged. Total over any input; applying it
// to already-Latin text is a no-op.
func Transliterate(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug turns arbitrary label text into a stable snake_case key: transliterate,
// lowercase, collapse non-alphanumeric runs into single underscores, trim.
func Slug(text string) string {
	s := strings.ToLower(Transliterate(text))
	s = reSlugRuns.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
