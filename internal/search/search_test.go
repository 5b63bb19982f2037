package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestIndex creates a title index for testing.
func setupTestIndex(t *testing.T, titles []string) *TitleIndex {
	t.Helper()

	index, err := NewTitleIndex(titles, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestNewTitleIndex(t *testing.T) {
	index := setupTestIndex(t, []string{"Dune", "The Hobbit", "Dune"})

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestNewTitleIndex_Empty(t *testing.T) {
	index := setupTestIndex(t, nil)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	got, err := index.Suggest(context.Background(), "dune", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTitleIndex_Suggest(t *testing.T) {
	index := setupTestIndex(t, []string{
		"Dune",                // 0
		"The Hobbit",          // 1
		"Dune Messiah",        // 2
		"Children of Dune",    // 3
		"Dune",                // 4 duplicate title
		"Harry Potter",        // 5
		"God Emperor of Dune", // 6
	})

	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		limit int
		want  []string
	}{
		{
			name:  "prefix matches before substring matches",
			input: "dune",
			limit: 10,
			want:  []string{"Dune", "Dune Messiah", "Children of Dune", "God Emperor of Dune"},
		},
		{
			name:  "case and surrounding space are ignored",
			input: "  DUNE ",
			limit: 10,
			want:  []string{"Dune", "Dune Messiah", "Children of Dune", "God Emperor of Dune"},
		},
		{
			name:  "limit truncates",
			input: "dune",
			limit: 3,
			want:  []string{"Dune", "Dune Messiah", "Children of Dune"},
		},
		{
			name:  "substring spanning words",
			input: "of dune",
			limit: 10,
			want:  []string{"Children of Dune", "God Emperor of Dune"},
		},
		{
			name:  "wildcard characters are stripped",
			input: "hob*",
			limit: 10,
			want:  []string{"The Hobbit"},
		},
		{
			name:  "no match",
			input: "zzz",
			limit: 10,
			want:  []string{},
		},
		{
			name:  "blank input",
			input: "   ",
			limit: 10,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := index.Suggest(ctx, tt.input, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitleIndex_Suggest_PagesPastFirstBatch(t *testing.T) {
	titles := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		titles = append(titles, "Repeated")
	}
	titles = append(titles, "Repeated Again")

	index := setupTestIndex(t, titles)

	got, err := index.Suggest(context.Background(), "rep", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Repeated", "Repeated Again"}, got)
}

func TestTitleIndex_Suggest_RowOrder(t *testing.T) {
	titles := make([]string, 20)
	for i := range titles {
		titles[i] = fmt.Sprintf("Volume %02d", 19-i)
	}
	index := setupTestIndex(t, titles)

	got, err := index.Suggest(context.Background(), "volume", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Volume 19", "Volume 18", "Volume 17"}, got)
}

func TestTitleIndex_Closed(t *testing.T) {
	index, err := NewTitleIndex([]string{"Dune"}, Options{})
	require.NoError(t, err)
	require.NoError(t, index.Close())
	require.NoError(t, index.Close())

	_, err = index.Suggest(context.Background(), "dune", 5)
	assert.Error(t, err)
}
