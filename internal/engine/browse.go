package engine

import (
	"slices"
	"strings"

	"github.com/bookwise/bookwise-server/internal/domain"
	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
)

// BrowseSort selects the order of browse results.
type BrowseSort string

// Browse orders.
const (
	// SortNone keeps catalog order.
	SortNone BrowseSort = "none"
	// SortRatingDesc orders known ratings highest first, then unknown
	// ratings. Ties keep catalog order.
	SortRatingDesc BrowseSort = "rating"
)

// ParseBrowseSort parses a sort name. The empty string means SortNone.
func ParseBrowseSort(s string) (BrowseSort, error) {
	switch BrowseSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNone:
		return SortNone, nil
	case SortRatingDesc, "rating_desc":
		return SortRatingDesc, nil
	default:
		return "", domainerrors.Validationf("unknown sort %q (want %q or %q)", s, SortNone, SortRatingDesc)
	}
}

// Browse returns every record passing f, ordered by sort.
func (s *Snapshot) Browse(f Filters, sort BrowseSort) []domain.BookRecord {
	out := make([]domain.BookRecord, 0)
	for i := range s.records {
		if f.Match(&s.records[i]) {
			out = append(out, s.records[i])
		}
	}

	if sort == SortRatingDesc {
		slices.SortStableFunc(out, compareRatingDesc)
	}
	return out
}

// compareRatingDesc orders known ratings descending with unknown ratings
// last.
func compareRatingDesc(a, b domain.BookRecord) int {
	av, aok := a.Rating.Value()
	bv, bok := b.Rating.Value()
	switch {
	case aok && bok:
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

// Paginate returns the window of items starting at offset holding at most
// limit elements. A non-positive limit means no upper bound.
func Paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
