// Package engine builds immutable catalog snapshots and answers
// recommendation, browse and suggestion queries against them.
//
// A Snapshot ties together the catalog records, the TF-IDF model learned from
// their composed texts, the similarity index over the resulting matrix and a
// title index for autocompletion. Row i of the catalog is row i of the matrix
// and of the index for the lifetime of the snapshot. Snapshots are never
// mutated after Build returns, so every query method is safe to call from any
// number of goroutines without locking.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/genre"
	"github.com/bookwise/bookwise-server/internal/normalize"
	"github.com/bookwise/bookwise-server/internal/search"
	"github.com/bookwise/bookwise-server/internal/similarity"
	"github.com/bookwise/bookwise-server/internal/vectorize"
)

// Options configures a snapshot build.
type Options struct {
	// ID identifies the snapshot in stats and logs.
	ID string
	// MaxFeatures caps the vocabulary size. Zero means unlimited.
	MaxFeatures int
	// Rejected is the number of source rows dropped before the records
	// reached Build. It is reported in Stats alongside rows Build itself drops.
	Rejected int
	// Now returns the build timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is one immutable build of the catalog.
type Snapshot struct {
	id      string
	builtAt time.Time

	records   []domain.BookRecord
	titleRows map[string]int
	bySource  map[domain.Source]int
	genres    []string
	rejected  int

	vectorizer *vectorize.Vectorizer
	matrix     *vectorize.Matrix
	index      similarity.Index
	titles     *search.TitleIndex
}

// Build constructs a snapshot from records.
//
// Records are renumbered in input order. Records without a title or with a
// composed text that is too short are dropped and counted as rejected.
// Returns a DegenerateCorpus error when nothing indexable remains.
func Build(records []domain.BookRecord, opts Options) (*Snapshot, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Snapshot{
		id:        opts.ID,
		records:   make([]domain.BookRecord, 0, len(records)),
		titleRows: make(map[string]int, len(records)),
		bySource:  make(map[domain.Source]int),
		rejected:  opts.Rejected,
	}

	for _, rec := range records {
		if !indexable(rec) {
			s.rejected++
			continue
		}
		rec.Row = len(s.records)
		s.records = append(s.records, rec)
	}

	corpus := make([]string, len(s.records))
	titles := make([]string, len(s.records))
	genreFields := make([]string, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		corpus[i] = rec.ComposedText
		titles[i] = rec.Title
		genreFields[i] = rec.Genre
		s.bySource[rec.Source]++

		key := normalize.TitleKey(rec.Title)
		if _, exists := s.titleRows[key]; !exists {
			s.titleRows[key] = i
		}
	}

	vectorizer, matrix, err := vectorize.Build(corpus, vectorize.Options{MaxFeatures: opts.MaxFeatures})
	if err != nil {
		return nil, fmt.Errorf("vectorize catalog: %w", err)
	}
	s.vectorizer = vectorizer
	s.matrix = matrix
	s.index = similarity.NewBruteForce(matrix)

	titleIndex, err := search.NewTitleIndex(titles, search.Options{})
	if err != nil {
		return nil, fmt.Errorf("index titles: %w", err)
	}
	s.titles = titleIndex

	s.genres = genre.Labels(genreFields)
	s.builtAt = now()

	return s, nil
}

// indexable reports whether rec satisfies the catalog record invariants.
func indexable(rec domain.BookRecord) bool {
	if normalize.TitleKey(rec.Title) == "" {
		return false
	}
	return len([]rune(rec.ComposedText)) > domain.MinComposedTextLength
}

// ID returns the snapshot identifier.
func (s *Snapshot) ID() string {
	return s.id
}

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Len returns the number of records in the catalog.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Record returns the record at row.
func (s *Snapshot) Record(row int) (domain.BookRecord, bool) {
	if row < 0 || row >= len(s.records) {
		return domain.BookRecord{}, false
	}
	return s.records[row], true
}

// Lookup resolves a title to its record. Matching ignores case and
// surrounding whitespace; when several records share a title the first one
// in catalog order wins.
func (s *Snapshot) Lookup(title string) (domain.BookRecord, bool) {
	row, ok := s.titleRows[normalize.TitleKey(title)]
	if !ok {
		return domain.BookRecord{}, false
	}
	return s.records[row], true
}

// Genres returns the distinct genre labels present in the catalog.
func (s *Snapshot) Genres() []string {
	out := make([]string, len(s.genres))
	copy(out, s.genres)
	return out
}

// Suggest returns up to limit distinct titles matching input, prefix matches
// first.
func (s *Snapshot) Suggest(ctx context.Context, input string, limit int) ([]string, error) {
	return s.titles.Suggest(ctx, input, limit)
}

// TitleIndex returns the suggestion index.
func (s *Snapshot) TitleIndex() *search.TitleIndex {
	return s.titles
}

// Close releases the snapshot's title index. Queries other than Suggest keep
// working after Close.
func (s *Snapshot) Close() error {
	return s.titles.Close()
}
