package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookwise-server/internal/vectorize"
)

func buildIndex(t *testing.T, corpus []string) (*vectorize.Matrix, *BruteForce) {
	t.Helper()
	_, m, err := vectorize.Build(corpus, vectorize.Options{})
	require.NoError(t, err)
	return m, NewBruteForce(m)
}

func TestBruteForce_SelfIsBestMatch(t *testing.T) {
	m, idx := buildIndex(t, []string{
		"Dune by Frank Herbert - Category: Science Fiction",
		"Dune Messiah by Frank Herbert - Category: Science Fiction",
		"The Hobbit by J.R.R. Tolkien - Category: Fantasy",
	})

	hits := idx.Query(m.Row(0), 3)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].Row)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, 1, hits[1].Row)
	assert.Equal(t, 2, hits[2].Row)
	assert.Less(t, hits[2].Score, hits[1].Score)
}

func TestBruteForce_OrderedByScoreThenRow(t *testing.T) {
	// Rows 1 and 3 are identical and tie; the lower row must come first.
	m, idx := buildIndex(t, []string{
		"alpha beta",
		"alpha gamma",
		"delta epsilon",
		"alpha gamma",
	})

	hits := idx.Query(m.Row(0), 4)
	require.Len(t, hits, 4)

	for i := 1; i < len(hits); i++ {
		prev, cur := hits[i-1], hits[i]
		assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.Row < cur.Row),
			"hit %d out of order: %+v before %+v", i, prev, cur)
	}
	assert.Equal(t, []int{0, 1, 3, 2}, rows(hits))
}

func TestBruteForce_TruncatesToK(t *testing.T) {
	m, idx := buildIndex(t, []string{"alpha", "alpha beta", "beta", "gamma"})

	assert.Len(t, idx.Query(m.Row(0), 2), 2)
	assert.Len(t, idx.Query(m.Row(0), 10), 4)
	assert.Empty(t, idx.Query(m.Row(0), 0))
	assert.Equal(t, 4, idx.Len())
}

func TestBruteForce_ZeroQuery(t *testing.T) {
	_, idx := buildIndex(t, []string{"alpha", "beta", "gamma"})

	hits := idx.Query(vectorize.Vector{}, 3)
	assert.Equal(t, []int{0, 1, 2}, rows(hits))
	for _, h := range hits {
		assert.Zero(t, h.Score)
	}
}

func rows(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Row
	}
	return out
}
