// Package genre handles the free-text genre labels carried by catalog records.
package genre

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks: "Ciência" -> "Ciencia".
var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify reduces a label to the key used to compare genres. Letters and
// digits are lowercased, accents dropped, and every other run collapses to
// a single hyphen.
//
//	"Science Fiction"  -> "science-fiction"
//	"Sci-Fi & Fantasy" -> "sci-fi-fantasy"
func Slugify(label string) string {
	folded, _, err := transform.String(foldAccents, label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	b.Grow(len(folded))
	gap := false
	for _, r := range strings.ToLower(folded) {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			gap = b.Len() > 0
			continue
		}
		if gap {
			b.WriteByte('-')
			gap = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
