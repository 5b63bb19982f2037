package vectorize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minTokenLength is the shortest token kept, in runes.
const minTokenLength = 2

// Tokenizer splits text into lowercase word tokens.
// Any rune that is neither a letter nor a digit is a boundary.
type Tokenizer struct {
	stop StopWordSet
}

// NewTokenizer creates a tokenizer that drops the given stopwords.
// A nil set falls back to StopWords.
func NewTokenizer(stop StopWordSet) *Tokenizer {
	if stop == nil {
		stop = StopWords
	}
	return &Tokenizer{stop: stop}
}

// Tokenize returns the surviving tokens of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	text = norm.NFC.String(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}
		f = strings.ToLower(f)
		if t.stop.Contains(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
