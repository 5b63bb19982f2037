// Package normalize provides utilities for normalizing and sanitizing catalog text.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TitleKey returns the lookup key for a title: NFC-normalized, trimmed and
// lowercased. " The Hobbit " and "the hobbit" share a key.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(title)))
}

// ContainsFold reports whether substr occurs in s, ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Field cleans a raw cell read from a source: null bytes and other control
// characters are dropped and surrounding whitespace trimmed. Spreadsheet
// exports of missing values ("nan", "NaN", "None") become empty.
func Field(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}
