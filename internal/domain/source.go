package domain

import "strings"

// Source identifies which upstream catalog a record came from.
type Source string

// Known catalog sources.
const (
	SourceGoodreads Source = "Goodreads"
	SourceKindle    Source = "Kindle"
)

// Sources lists every known source in catalog load order.
var Sources = []Source{SourceGoodreads, SourceKindle}

// ParseSource resolves a source name case-insensitively.
// Returns false for unknown names.
func ParseSource(s string) (Source, bool) {
	s = strings.TrimSpace(s)
	for _, src := range Sources {
		if strings.EqualFold(s, string(src)) {
			return src, true
		}
	}
	return "", false
}

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	_, ok := ParseSource(string(s))
	return ok && string(s) != ""
}

// String returns the display name of the source.
func (s Source) String() string {
	return string(s)
}
