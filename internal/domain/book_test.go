package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		known bool
	}{
		{"4.27", 4.27, true},
		{" 4.5 ", 4.5, true},
		{"0", 0, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"n/a", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{"4.5 stars", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := ParseRating(tt.input)
			v, ok := r.Value()
			assert.Equal(t, tt.known, ok)
			if tt.known {
				assert.InDelta(t, tt.want, v, 1e-9)
			}
		})
	}
}

func TestRating_String(t *testing.T) {
	assert.Equal(t, "4.27", KnownRating(4.27).String())
	assert.Equal(t, "N/A", UnknownRating().String())
	assert.Equal(t, "N/A", Rating{}.String())
}

func TestRating_JSON(t *testing.T) {
	data, err := json.Marshal(BookRecord{Title: "Dune", Source: SourceKindle, Rating: KnownRating(4.5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rating":4.5`)
	assert.NotContains(t, string(data), "ComposedText")

	data, err = json.Marshal(BookRecord{Title: "Dune", Source: SourceKindle})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rating":null`)

	var r Rating
	require.NoError(t, json.Unmarshal([]byte(`"3.9"`), &r))
	assert.True(t, r.IsKnown())
	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.False(t, r.IsKnown())
}

func TestParseSource(t *testing.T) {
	src, ok := ParseSource("kindle")
	require.True(t, ok)
	assert.Equal(t, SourceKindle, src)

	src, ok = ParseSource(" GOODREADS ")
	require.True(t, ok)
	assert.Equal(t, SourceGoodreads, src)

	_, ok = ParseSource("audible")
	assert.False(t, ok)

	assert.True(t, SourceKindle.IsValid())
	assert.False(t, Source("").IsValid())
	assert.False(t, Source("Audible").IsValid())
}
