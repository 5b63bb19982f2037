package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/engine"
	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
	"github.com/bookwise/bookwise-server/internal/sse"
)

// recordingEmitter collects emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(sse.Event))
}

const testGoodreadsCSV = `title,authors,average_rating,image_url,genres
The Hobbit,J.R.R. Tolkien,4.27,,Fantasy
The Fellowship of the Ring,J.R.R. Tolkien,4.36,,Fantasy|Adventure
Emma,Jane Austen,4.0,,Classics
Pride and Prejudice,Jane Austen,4.28,,Classics;Romance
`

const testKindleCSV = `title,author,category_name,stars,imgUrl
Dune,Frank Herbert,Science Fiction,4.5,
Dune Messiah,Frank Herbert,Science Fiction,4.1,
Children of Dune,Frank Herbert,Science Fiction,4.0,
`

func intPtr(n int) *int { return &n }

func writeCatalog(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalog.GoodreadsFileName), []byte(testGoodreadsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalog.KindleFileName), []byte(testKindleCSV), 0o644))
}

func newTestCatalogService(t *testing.T, opts CatalogOptions) (*CatalogService, string) {
	t.Helper()
	dir := t.TempDir()
	writeCatalog(t, dir)

	svc := NewCatalogService(catalog.NewLoader(nil, catalog.DirSources(dir, "", "")...), opts, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, dir
}

func builtService(t *testing.T) *CatalogService {
	t.Helper()
	svc, _ := newTestCatalogService(t, CatalogOptions{DefaultK: 2, MaxK: 5, PageSize: 2})
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	return svc
}

func titlesOf(records []domain.BookRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestCatalogService_NotReadyBeforeBuild(t *testing.T) {
	svc, _ := newTestCatalogService(t, CatalogOptions{})
	ctx := context.Background()

	assert.False(t, svc.Ready())
	assert.False(t, svc.Status().Ready)

	_, err := svc.Recommend(ctx, RecommendRequest{Title: "Dune"})
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)

	_, err = svc.Browse(ctx, BrowseRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)

	_, err = svc.Suggest(ctx, SuggestRequest{Query: "du"})
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)

	_, err = svc.Genres(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)

	_, err = svc.Stats(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)
}

func TestCatalogService_Rebuild(t *testing.T) {
	svc, _ := newTestCatalogService(t, CatalogOptions{})

	stats, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Books)
	assert.Equal(t, 4, stats.BySource[domain.SourceGoodreads])
	assert.Equal(t, 3, stats.BySource[domain.SourceKindle])
	assert.Contains(t, stats.SnapshotID, "snap-")
	assert.True(t, svc.Ready())

	st := svc.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, stats.SnapshotID, st.SnapshotID)
	assert.Equal(t, 7, st.Books)
	assert.Empty(t, st.LastError)
}

func TestCatalogService_Recommend(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	resp, err := svc.Recommend(ctx, RecommendRequest{Title: "  dune "})
	require.NoError(t, err)
	assert.Equal(t, "Dune", resp.Query.Title)
	require.Len(t, resp.Items, 2) // configured default k

	got := []string{resp.Items[0].Record.Title, resp.Items[1].Record.Title}
	assert.ElementsMatch(t, []string{"Dune Messiah", "Children of Dune"}, got)
	assert.GreaterOrEqual(t, resp.Items[0].Score, resp.Items[1].Score)
	assert.NotEmpty(t, resp.SnapshotID)

	resp, err = svc.Recommend(ctx, RecommendRequest{Title: "The Hobbit", K: intPtr(1), Genre: "fantasy"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "The Fellowship of the Ring", resp.Items[0].Record.Title)

	resp, err = svc.Recommend(ctx, RecommendRequest{Title: "The Hobbit", K: intPtr(1), Source: "kindle"})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.NotNil(t, resp.Items)
}

func TestCatalogService_RecommendErrors(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RecommendRequest
		want error
	}{
		{"unknown title", RecommendRequest{Title: "Nonexistent Book"}, domainerrors.ErrTitleNotFound},
		{"zero k", RecommendRequest{Title: "Dune", K: intPtr(0)}, domainerrors.ErrInvalidK},
		{"negative k", RecommendRequest{Title: "Dune", K: intPtr(-3)}, domainerrors.ErrInvalidK},
		{"k above max", RecommendRequest{Title: "Dune", K: intPtr(6)}, domainerrors.ErrInvalidK},
		{"missing title", RecommendRequest{}, domainerrors.ErrValidation},
		{"unknown source", RecommendRequest{Title: "Dune", Source: "Audible"}, domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Recommend(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, resp)
		})
	}
}

func TestCatalogService_RecommendByText(t *testing.T) {
	svc := builtService(t)

	resp, err := svc.RecommendByText(context.Background(), TextRecommendRequest{Text: "a novel by jane austen", K: intPtr(3)})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		assert.Contains(t, item.Record.ComposedText, "Jane Austen")
	}

	resp, err = svc.RecommendByText(context.Background(), TextRecommendRequest{Text: "zzzz qqqq"})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestCatalogService_Browse(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	resp, err := svc.Browse(ctx, BrowseRequest{Source: "Kindle", Sort: "rating"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Dune Messiah"}, titlesOf(resp.Books))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Limit) // configured page size
	assert.True(t, resp.HasMore)

	resp, err = svc.Browse(ctx, BrowseRequest{Source: "Kindle", Sort: "rating", Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Children of Dune"}, titlesOf(resp.Books))
	assert.False(t, resp.HasMore)

	resp, err = svc.Browse(ctx, BrowseRequest{Genre: "classics", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma", "Pride and Prejudice"}, titlesOf(resp.Books))

	resp, err = svc.Browse(ctx, BrowseRequest{Genre: "poetry"})
	require.NoError(t, err)
	assert.Empty(t, resp.Books)
	assert.NotNil(t, resp.Books)
	assert.Zero(t, resp.Total)
}

func TestCatalogService_BrowseValidation(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	for _, req := range []BrowseRequest{
		{Sort: "title"},
		{Limit: -1},
		{Limit: MaxPageSize + 1},
		{Offset: -5},
		{Source: "library"},
	} {
		_, err := svc.Browse(ctx, req)
		assert.ErrorIs(t, err, domainerrors.ErrValidation, "request %+v", req)
	}
}

func TestCatalogService_Suggest(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	resp, err := svc.Suggest(ctx, SuggestRequest{Query: "dun"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Dune Messiah", "Children of Dune"}, resp.Titles)

	resp, err = svc.Suggest(ctx, SuggestRequest{Query: "dun", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, resp.Titles)

	_, err = svc.Suggest(ctx, SuggestRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCatalogService_GenresAndStats(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	genres, err := svc.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adventure", "Classics", "Fantasy", "Romance", "Science Fiction"}, genres)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Books)
	assert.Equal(t, 5, stats.Genres)
	assert.Equal(t, 7, stats.Load.Loaded)
	require.Len(t, stats.Load.Batches, 2)
	assert.Equal(t, domain.SourceGoodreads, stats.Load.Batches[0].Source)
}

func TestCatalogService_FailedRebuildKeepsSnapshot(t *testing.T) {
	svc, dir := newTestCatalogService(t, CatalogOptions{})
	ctx := context.Background()

	first, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, catalog.GoodreadsFileName)))
	require.NoError(t, os.Remove(filepath.Join(dir, catalog.KindleFileName)))

	_, err = svc.Rebuild(ctx)
	require.ErrorIs(t, err, domainerrors.ErrDegenerateCorpus)

	st := svc.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, first.SnapshotID, st.SnapshotID)
	assert.NotEmpty(t, st.LastError)

	resp, err := svc.Recommend(ctx, RecommendRequest{Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, first.SnapshotID, resp.SnapshotID)
}

func TestCatalogService_EmitsRebuildEvents(t *testing.T) {
	svc, dir := newTestCatalogService(t, CatalogOptions{})
	events := &recordingEmitter{}
	svc.SetEventEmitter(events)
	ctx := context.Background()

	stats, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, catalog.GoodreadsFileName)))
	require.NoError(t, os.Remove(filepath.Join(dir, catalog.KindleFileName)))
	_, err = svc.Rebuild(ctx)
	require.Error(t, err)

	require.Len(t, events.events, 2)

	rebuilt := events.events[0]
	assert.Equal(t, sse.EventCatalogRebuilt, rebuilt.Type)
	data, ok := rebuilt.Data.(sse.CatalogRebuiltEventData)
	require.True(t, ok)
	assert.Equal(t, stats.SnapshotID, data.SnapshotID)
	assert.Equal(t, 7, data.Books)
	assert.Equal(t, map[string]int{"Goodreads": 4, "Kindle": 3}, data.BySource)

	failed := events.events[1]
	assert.Equal(t, sse.EventCatalogRebuildFailed, failed.Type)
	failure, ok := failed.Data.(sse.CatalogRebuildFailedEventData)
	require.True(t, ok)
	assert.Equal(t, stats.SnapshotID, failure.ServingSnapshotID)
	assert.NotEmpty(t, failure.Error)
}

func TestCatalogService_SwapRetiresOldSnapshot(t *testing.T) {
	svc, _ := newTestCatalogService(t, CatalogOptions{RetireAfter: 10 * time.Millisecond})
	ctx := context.Background()

	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	old, err := svc.Snapshot()
	require.NoError(t, err)

	second, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID(), second.SnapshotID)

	current, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, second.SnapshotID, current.ID())

	// Queries holding the old snapshot keep working until it is retired.
	_, err = old.Recommend("Dune", 1, engine.Filters{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := old.Suggest(ctx, "dune", 1)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	titles, err := current.Suggest(ctx, "dune", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles)
}

func TestCatalogService_ConcurrentQueriesDuringRebuild(t *testing.T) {
	svc := builtService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				resp, err := svc.Recommend(ctx, RecommendRequest{Title: "Dune", K: intPtr(2)})
				if assert.NoError(t, err) {
					assert.Len(t, resp.Items, 2)
				}
			}
		}()
	}
	for i := 0; i < 3; i++ {
		_, err := svc.Rebuild(ctx)
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestCatalogService_CloseMakesNotReady(t *testing.T) {
	svc := builtService(t)
	require.NoError(t, svc.Close())
	assert.False(t, svc.Ready())
	require.NoError(t, svc.Close())
}

func TestCatalogOptions_Defaults(t *testing.T) {
	opts := CatalogOptions{DefaultK: 80, MaxK: 20, PageSize: 500}.withDefaults()
	assert.Equal(t, 20, opts.DefaultK)
	assert.Equal(t, MaxPageSize, opts.PageSize)
	assert.Equal(t, 10, opts.SuggestionLimit)
	assert.Equal(t, DefaultRetireAfter, opts.RetireAfter)
}

var kindleRows = []catalog.RawRow{
	catalog.KindleRow{Title: "Dune", Author: "Frank Herbert", CategoryName: "Science Fiction"},
	catalog.KindleRow{Title: "Dune Messiah", Author: "Frank Herbert", CategoryName: "Science Fiction"},
	catalog.KindleRow{Title: "Children of Dune", Author: "Frank Herbert", CategoryName: "Science Fiction"},
	catalog.KindleRow{Title: "Hyperion", Author: "Dan Simmons", CategoryName: "Science Fiction"},
	catalog.KindleRow{Title: "Foundation", Author: "Isaac Asimov", CategoryName: "Science Fiction"},
}

// gatedSource serves kindleRows. While blocking is set, Load signals
// entered and waits for release.
type gatedSource struct {
	blocking atomic.Bool
	entered  chan struct{}
	release  chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) Load(ctx context.Context) ([]catalog.Batch, error) {
	if g.blocking.Load() {
		g.entered <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []catalog.Batch{{Source: domain.SourceKindle, Origin: "gated", Rows: kindleRows}}, nil
}

func TestCatalogService_StatusDoesNotWaitForRebuild(t *testing.T) {
	src := newGatedSource()
	svc := NewCatalogService(catalog.NewLoader(nil, src), CatalogOptions{}, nil)
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	before := svc.Status()

	src.blocking.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := svc.Rebuild(ctx)
		done <- err
	}()
	<-src.entered

	reads := make(chan Status, 1)
	go func() { reads <- svc.Status() }()

	select {
	case st := <-reads:
		assert.True(t, st.Ready)
		assert.Equal(t, before.SnapshotID, st.SnapshotID)
		assert.Equal(t, before.LastAttempt, st.LastAttempt)
	case <-time.After(time.Second):
		t.Fatal("Status waited for the rebuild in progress")
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Books)

	close(src.release)
	require.NoError(t, <-done)
	assert.NotEqual(t, before.SnapshotID, svc.Status().SnapshotID)
}

// alternatingSource serves three rows on odd loads and five on even ones.
type alternatingSource struct {
	calls atomic.Int64
}

func (a *alternatingSource) Name() string { return "alternating" }

func (a *alternatingSource) Load(context.Context) ([]catalog.Batch, error) {
	rows := kindleRows
	if a.calls.Add(1)%2 == 1 {
		rows = kindleRows[:3]
	}
	return []catalog.Batch{{Source: domain.SourceKindle, Origin: "alternating", Rows: rows}}, nil
}

func TestCatalogService_StatsMatchServingSnapshot(t *testing.T) {
	svc := NewCatalogService(catalog.NewLoader(nil, &alternatingSource{}), CatalogOptions{}, nil)
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				stats, err := svc.Stats(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, stats.Books, stats.Load.Loaded, "stats of one load reported with another")
			}
		}()
	}

	for range 10 {
		_, err := svc.Rebuild(ctx)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
