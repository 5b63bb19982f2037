package engine

import (
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/normalize"
)

// Filters narrows a result set. Zero-valued fields do not filter.
type Filters struct {
	// Genre keeps records whose genre field contains it, ignoring case.
	Genre string
	// Source keeps records from this source only.
	Source domain.Source
}

// IsZero reports whether the filters keep every record.
func (f Filters) IsZero() bool {
	return f.Genre == "" && f.Source == ""
}

// Match reports whether rec passes every set filter.
func (f Filters) Match(rec *domain.BookRecord) bool {
	if f.Genre != "" && !normalize.ContainsFold(rec.Genre, f.Genre) {
		return false
	}
	if f.Source != "" && rec.Source != f.Source {
		return false
	}
	return true
}
