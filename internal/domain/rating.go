package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Rating is an optional numeric rating. The zero value is the unknown rating.
type Rating struct {
	value float64
	known bool
}

// KnownRating returns a rating with the given value.
func KnownRating(v float64) Rating {
	return Rating{value: v, known: true}
}

// UnknownRating returns the unknown rating sentinel.
func UnknownRating() Rating {
	return Rating{}
}

// ParseRating parses a raw rating cell. Anything that is not a finite
// number ("", "N/A", "nan", "4.5 stars") becomes the unknown rating.
func ParseRating(s string) Rating {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UnknownRatingLabel) {
		return UnknownRating()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return UnknownRating()
	}
	return KnownRating(v)
}

// Value returns the rating and whether it is known.
func (r Rating) Value() (float64, bool) {
	return r.value, r.known
}

// IsKnown reports whether the rating holds a number.
func (r Rating) IsKnown() bool {
	return r.known
}

// String renders the rating, or "N/A" when unknown.
func (r Rating) String() string {
	if !r.known {
		return UnknownRatingLabel
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

// MarshalJSON encodes a known rating as a number and an unknown one as null.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.known {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (r *Rating) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*r = UnknownRating()
		return nil
	}
	*r = ParseRating(s)
	return nil
}
