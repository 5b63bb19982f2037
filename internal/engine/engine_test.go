package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookwise-server/internal/domain"
	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
)

func book(title, author string, src domain.Source, rating domain.Rating, genre string) domain.BookRecord {
	text := title + " by " + author
	if src == domain.SourceKindle {
		text += " - Category: " + genre
	}
	return domain.BookRecord{
		Title:        title,
		ComposedText: text,
		Source:       src,
		Rating:       rating,
		Genre:        genre,
	}
}

// scenarioCatalog is the three-book catalog used by the acceptance scenarios.
func scenarioCatalog() []domain.BookRecord {
	return []domain.BookRecord{
		book("Dune", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.5), "Science Fiction"),
		book("The Hobbit", "J.R.R. Tolkien", domain.SourceGoodreads, domain.KnownRating(4.27), "Fantasy, Adventure"),
		book("Dune Messiah", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.1), "Science Fiction"),
	}
}

// largerCatalog has distinct titles across both sources.
func largerCatalog() []domain.BookRecord {
	return []domain.BookRecord{
		book("Dune", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.5), "Science Fiction"),
		book("The Hobbit", "J.R.R. Tolkien", domain.SourceGoodreads, domain.KnownRating(4.27), "Fantasy, Adventure"),
		book("Dune Messiah", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.1), "Science Fiction"),
		book("The Fellowship of the Ring", "J.R.R. Tolkien", domain.SourceGoodreads, domain.KnownRating(4.36), "Fantasy"),
		book("The Two Towers", "J.R.R. Tolkien", domain.SourceKindle, domain.UnknownRating(), "Fantasy"),
		book("Children of Dune", "Frank Herbert", domain.SourceGoodreads, domain.KnownRating(3.9), "Science Fiction"),
		book("Foundation", "Isaac Asimov", domain.SourceKindle, domain.KnownRating(4.2), "Science Fiction"),
		book("Mistborn", "Brandon Sanderson", domain.SourceGoodreads, domain.UnknownRating(), "Fantasy|Epic"),
		book("Elantris", "Brandon Sanderson", domain.SourceKindle, domain.KnownRating(4.2), "Fantasy"),
	}
}

func buildSnapshot(t *testing.T, records []domain.BookRecord) *Snapshot {
	t.Helper()
	snap, err := Build(records, Options{ID: "snap-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })
	return snap
}

func titles(records []domain.BookRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestRecommend_ScenarioDune(t *testing.T) {
	snap := buildSnapshot(t, scenarioCatalog())

	got, err := snap.Recommend("Dune", 1, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune Messiah"}, titles(got))
}

func TestRecommend_TitleNotFound(t *testing.T) {
	snap := buildSnapshot(t, scenarioCatalog())

	got, err := snap.Recommend("Nonexistent Title", 5, Filters{})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTitleNotFound))
	assert.Nil(t, got)
}

func TestRecommend_InvalidK(t *testing.T) {
	snap := buildSnapshot(t, scenarioCatalog())

	for _, k := range []int{0, -1} {
		_, err := snap.Recommend("Dune", k, Filters{})
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidK), "k=%d", k)
	}
}

func TestRecommend_SelfExclusion(t *testing.T) {
	records := largerCatalog()
	snap := buildSnapshot(t, records)

	for _, rec := range records {
		got, err := snap.Recommend(rec.Title, len(records), Filters{})
		require.NoError(t, err)
		assert.NotContains(t, titles(got), rec.Title)
	}
}

func TestRecommend_BoundedOutput(t *testing.T) {
	records := largerCatalog()
	snap := buildSnapshot(t, records)

	for _, k := range []int{1, 3, len(records) - 1, len(records), 50} {
		got, err := snap.Recommend("Dune", k, Filters{})
		require.NoError(t, err)
		assert.Len(t, got, min(k, len(records)-1), "k=%d", k)
	}
}

func TestRecommend_NormalizationInvariance(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	a, err := snap.Recommend(" The Hobbit ", 4, Filters{})
	require.NoError(t, err)
	b, err := snap.Recommend("the hobbit", 4, Filters{})
	require.NoError(t, err)
	c, err := snap.Recommend("THE HOBBIT", 4, Filters{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestRecommend_GenreFilter(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got, err := snap.Recommend("The Hobbit", 8, Filters{Genre: "Fantasy"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Contains(t, strings.ToLower(r.Genre), "fantasy")
	}

	got, err = snap.Recommend("The Hobbit", 8, Filters{Genre: "fAnTaSy"})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestRecommend_SourceFilter(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got, err := snap.Recommend("Dune", 8, Filters{Source: domain.SourceGoodreads})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Equal(t, domain.SourceGoodreads, r.Source)
	}
}

func TestRecommend_FiltersApplyAfterTruncation(t *testing.T) {
	snap := buildSnapshot(t, scenarioCatalog())

	// The single nearest neighbour of Dune is Dune Messiah, which is not
	// fantasy, so the filtered result is empty rather than The Hobbit.
	got, err := snap.Recommend("Dune", 1, Filters{Genre: "Fantasy"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestRecommend_Deterministic(t *testing.T) {
	a := buildSnapshot(t, largerCatalog())
	b := buildSnapshot(t, largerCatalog())

	for _, rec := range largerCatalog() {
		ra, err := a.RecommendScored(rec.Title, 5, Filters{})
		require.NoError(t, err)
		rb, err := b.RecommendScored(rec.Title, 5, Filters{})
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}

func TestRecommendScored(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	res, err := snap.RecommendScored("dune", 3, Filters{})
	require.NoError(t, err)

	assert.Equal(t, "Dune", res.Query.Title)
	assert.Equal(t, 0, res.Query.Row)
	require.Len(t, res.Items, 3)
	for i := 1; i < len(res.Items); i++ {
		assert.GreaterOrEqual(t, res.Items[i-1].Score, res.Items[i].Score)
	}
	assert.Equal(t, "Dune Messiah", res.Items[0].Record.Title)
}

func TestRecommend_DuplicateTitlesFirstRowWins(t *testing.T) {
	records := []domain.BookRecord{
		book("Dune", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.5), "Science Fiction"),
		book("Dune Messiah", "Frank Herbert", domain.SourceKindle, domain.KnownRating(4.1), "Science Fiction"),
		book("Dune", "Frank Herbert", domain.SourceGoodreads, domain.KnownRating(4.25), ""),
	}
	snap := buildSnapshot(t, records)

	res, err := snap.RecommendScored("DUNE", 2, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Query.Row)
	assert.Equal(t, domain.SourceKindle, res.Query.Source)

	for _, item := range res.Items {
		assert.NotEqual(t, 0, item.Record.Row)
	}
}

func TestSimilarToText(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got, err := snap.SimilarToText("a new novel by Brandon Sanderson", 2, Filters{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"Mistborn", "Elantris"}, []string{got[0].Record.Title, got[1].Record.Title})

	got, err = snap.SimilarToText("zzzz qqqq", 2, Filters{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = snap.SimilarToText("dune", 0, Filters{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidK))
}

func TestBrowse_ScenarioFantasy(t *testing.T) {
	snap := buildSnapshot(t, scenarioCatalog())

	got := snap.Browse(Filters{Genre: "Fantasy"}, SortNone)
	assert.Equal(t, []string{"The Hobbit"}, titles(got))
}

func TestBrowse_Idempotent(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	first := snap.Browse(Filters{Genre: "fantasy"}, SortNone)
	second := snap.Browse(Filters{Genre: "fantasy"}, SortNone)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"The Hobbit", "The Fellowship of the Ring", "The Two Towers", "Mistborn", "Elantris"}, titles(first))
}

func TestBrowse_SortRatingDesc(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got := snap.Browse(Filters{}, SortRatingDesc)
	assert.Equal(t, []string{
		"Dune",                       // 4.5
		"The Fellowship of the Ring", // 4.36
		"The Hobbit",                 // 4.27
		"Foundation",                 // 4.2, earlier row
		"Elantris",                   // 4.2
		"Dune Messiah",               // 4.1
		"Children of Dune",           // 3.9
		"The Two Towers",             // unknown, earlier row
		"Mistborn",                   // unknown
	}, titles(got))
}

func TestBrowse_SourceFilter(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got := snap.Browse(Filters{Source: domain.SourceKindle, Genre: "science"}, SortNone)
	assert.Equal(t, []string{"Dune", "Dune Messiah", "Foundation"}, titles(got))

	got = snap.Browse(Filters{Genre: "horror"}, SortRatingDesc)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestParseBrowseSort(t *testing.T) {
	tests := []struct {
		input   string
		want    BrowseSort
		wantErr bool
	}{
		{"", SortNone, false},
		{"none", SortNone, false},
		{"rating", SortRatingDesc, false},
		{" Rating_Desc ", SortRatingDesc, false},
		{"title", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBrowseSort(tt.input)
			if tt.wantErr {
				assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	assert.Equal(t, []int{0, 1}, Paginate(items, 0, 2))
	assert.Equal(t, []int{3, 4}, Paginate(items, 3, 10))
	assert.Equal(t, []int{2, 3, 4}, Paginate(items, 2, 0))
	assert.Equal(t, []int{}, Paginate(items, 5, 2))
	assert.Equal(t, []int{0}, Paginate(items, -1, 1))
}

func TestBuild_DegenerateCorpus(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDegenerateCorpus))

	// Records too short to index are all rejected.
	_, err = Build([]domain.BookRecord{{Title: "It", ComposedText: "It by Me"}}, Options{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDegenerateCorpus))
}

func TestBuild_RejectsInvalidRecords(t *testing.T) {
	records := append(scenarioCatalog(),
		domain.BookRecord{Title: "   ", ComposedText: "untitled by nobody at all"},
		domain.BookRecord{Title: "Short", ComposedText: "Short by X"},
	)

	snap, err := Build(records, Options{ID: "snap-x", Rejected: 4})
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, 3, snap.Len())
	for row := 0; row < snap.Len(); row++ {
		rec, ok := snap.Record(row)
		require.True(t, ok)
		assert.Equal(t, row, rec.Row)
	}
	_, ok := snap.Record(3)
	assert.False(t, ok)

	assert.Equal(t, 6, snap.Stats().Rejected)
}

func TestSnapshot_Stats(t *testing.T) {
	builtAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap, err := Build(scenarioCatalog(), Options{
		ID:  "snap-abc",
		Now: func() time.Time { return builtAt },
	})
	require.NoError(t, err)
	defer snap.Close()

	stats := snap.Stats()
	assert.Equal(t, "snap-abc", stats.SnapshotID)
	assert.Equal(t, builtAt, stats.BuiltAt)
	assert.Equal(t, 3, stats.Books)
	assert.Equal(t, map[domain.Source]int{domain.SourceGoodreads: 1, domain.SourceKindle: 2}, stats.BySource)
	assert.Greater(t, stats.Vocabulary, 0)
	assert.Equal(t, 3, stats.Genres)
	assert.Equal(t, 0, stats.Rejected)
}

func TestSnapshot_Genres(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())
	assert.Equal(t, []string{"Adventure", "Epic", "Fantasy", "Science Fiction"}, snap.Genres())
}

func TestSnapshot_Suggest(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	got, err := snap.Suggest(context.Background(), "dune", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Dune Messiah", "Children of Dune"}, got)
}

func TestSnapshot_ConcurrentQueries(t *testing.T) {
	snap := buildSnapshot(t, largerCatalog())

	want, err := snap.Recommend("Dune", 3, Filters{})
	require.NoError(t, err)

	done := make(chan []domain.BookRecord, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			got, _ := snap.Recommend("Dune", 3, Filters{})
			done <- got
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, want, <-done)
	}
}
