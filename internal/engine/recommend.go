package engine

import (
	"github.com/bookwise/bookwise-server/internal/domain"
	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
)

// Recommendation is one recommended record with its cosine similarity to the
// query record.
type Recommendation struct {
	Record domain.BookRecord `json:"record"`
	Score  float64           `json:"score"`
}

// Result is the outcome of a recommendation query.
type Result struct {
	// Query is the catalog record the title resolved to.
	Query domain.BookRecord `json:"query"`
	// Items are the recommendations, most similar first.
	Items []Recommendation  `json:"items"`
}

// Recommend returns up to k records most similar to the record titled title,
// most similar first. See RecommendScored for the exact semantics.
func (s *Snapshot) Recommend(title string, k int, f Filters) ([]domain.BookRecord, error) {
	res, err := s.RecommendScored(title, k, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BookRecord, len(res.Items))
	for i, item := range res.Items {
		out[i] = item.Record
	}
	return out, nil
}

// RecommendScored resolves title, takes the k nearest neighbours of its row
// excluding the row itself, then applies f to those k. Filters therefore
// narrow the neighbourhood rather than widen the search, and an empty result
// is not an error.
//
// Fails with InvalidK when k <= 0 and TitleNotFound when no record carries
// title.
func (s *Snapshot) RecommendScored(title string, k int, f Filters) (Result, error) {
	if k <= 0 {
		return Result{}, domainerrors.InvalidKf("k must be positive, got %d", k)
	}

	query, ok := s.Lookup(title)
	if !ok {
		return Result{}, domainerrors.TitleNotFoundf("no book titled %q", title)
	}

	hits := s.index.Query(s.matrix.Row(query.Row), k+1)

	items := make([]Recommendation, 0, k)
	for _, hit := range hits {
		if hit.Row == query.Row {
			continue
		}
		if len(items) == k {
			break
		}
		items = append(items, Recommendation{Record: s.records[hit.Row], Score: hit.Score})
	}

	if !f.IsZero() {
		kept := items[:0]
		for _, item := range items {
			if f.Match(&item.Record) {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	return Result{Query: query, Items: items}, nil
}

// SimilarToText ranks catalog records against free text that need not be in
// the catalog. Text sharing no vocabulary with the catalog yields no results.
func (s *Snapshot) SimilarToText(text string, k int, f Filters) ([]Recommendation, error) {
	if k <= 0 {
		return nil, domainerrors.InvalidKf("k must be positive, got %d", k)
	}

	q := s.vectorizer.Transform(text)
	if q.IsZero() {
		return []Recommendation{}, nil
	}

	hits := s.index.Query(q, k)
	items := make([]Recommendation, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= 0 {
			continue
		}
		rec := s.records[hit.Row]
		if !f.Match(&rec) {
			continue
		}
		items = append(items, Recommendation{Record: rec, Score: hit.Score})
	}
	return items, nil
}
