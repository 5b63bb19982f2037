package service

import (
	"context"
	"time"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/engine"
)

// RecommendRequest asks for books similar to a catalog title.
type RecommendRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	K      *int   `json:"k,omitempty"` // nil uses the configured default
	Genre  string `json:"genre,omitempty" validate:"max=200"`
	Source string `json:"source,omitempty" validate:"source"`
}

// RecommendResponse carries the resolved query record and its neighbours.
type RecommendResponse struct {
	engine.Result
	SnapshotID string `json:"snapshot_id"`
}

// Recommend returns the books most similar to req.Title.
func (s *CatalogService) Recommend(_ context.Context, req RecommendRequest) (resp *RecommendResponse, err error) {
	start := time.Now()
	defer func() { s.observe(OpRecommend, start, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	k, err := s.resolveK(req.K)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	res, err := snap.RecommendScored(req.Title, k, filtersFor(req.Genre, req.Source))
	if err != nil {
		return nil, err
	}
	return &RecommendResponse{Result: res, SnapshotID: snap.ID()}, nil
}

// TextRecommendRequest asks for catalog books similar to free text.
type TextRecommendRequest struct {
	Text   string `json:"text" validate:"required,max=2000"`
	K      *int   `json:"k,omitempty"`
	Genre  string `json:"genre,omitempty" validate:"max=200"`
	Source string `json:"source,omitempty" validate:"source"`
}

// TextRecommendResponse lists books ranked against free text.
type TextRecommendResponse struct {
	Items      []engine.Recommendation `json:"items"`
	SnapshotID string                  `json:"snapshot_id"`
}

// RecommendByText ranks catalog books against arbitrary text.
func (s *CatalogService) RecommendByText(_ context.Context, req TextRecommendRequest) (resp *TextRecommendResponse, err error) {
	start := time.Now()
	defer func() { s.observe(OpRecommendByText, start, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	k, err := s.resolveK(req.K)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	items, err := snap.SimilarToText(req.Text, k, filtersFor(req.Genre, req.Source))
	if err != nil {
		return nil, err
	}
	return &TextRecommendResponse{Items: items, SnapshotID: snap.ID()}, nil
}

// BrowseRequest filters and pages the catalog.
type BrowseRequest struct {
	Genre  string `json:"genre,omitempty" validate:"max=200"`
	Source string `json:"source,omitempty" validate:"source"`
	Sort   string `json:"sort,omitempty" validate:"omitempty,oneof=none rating rating_desc"`
	Limit  int    `json:"limit,omitempty" validate:"gte=0,lte=100"` // 0 uses the configured page size
	Offset int    `json:"offset,omitempty" validate:"gte=0"`
}

// BrowseResponse is one page of a browse query.
type BrowseResponse struct {
	Books      []domain.BookRecord `json:"books"`
	Total      int                 `json:"total"`
	Offset     int                 `json:"offset"`
	Limit      int                 `json:"limit"`
	HasMore    bool                `json:"has_more"`
	SnapshotID string              `json:"snapshot_id"`
}

// Browse returns one page of the records matching the request filters.
func (s *CatalogService) Browse(_ context.Context, req BrowseRequest) (resp *BrowseResponse, err error) {
	start := time.Now()
	defer func() { s.observe(OpBrowse, start, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	sort, err := engine.ParseBrowseSort(req.Sort)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.opts.PageSize
	}

	all := snap.Browse(filtersFor(req.Genre, req.Source), sort)
	page := engine.Paginate(all, req.Offset, limit)
	return &BrowseResponse{
		Books:      page,
		Total:      len(all),
		Offset:     req.Offset,
		Limit:      limit,
		HasMore:    req.Offset+len(page) < len(all),
		SnapshotID: snap.ID(),
	}, nil
}

// SuggestRequest asks for title completions.
type SuggestRequest struct {
	Query string `json:"q" validate:"required,max=200"`
	Limit int    `json:"limit,omitempty" validate:"gte=0,lte=50"` // 0 uses the configured limit
}

// SuggestResponse lists matching titles, prefix matches first.
type SuggestResponse struct {
	Titles []string `json:"titles"`
}

// Suggest completes a partial title.
func (s *CatalogService) Suggest(ctx context.Context, req SuggestRequest) (resp *SuggestResponse, err error) {
	start := time.Now()
	defer func() { s.observe(OpSuggest, start, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.opts.SuggestionLimit
	}

	titles, err := snap.Suggest(ctx, req.Query, limit)
	if err != nil {
		return nil, err
	}
	return &SuggestResponse{Titles: titles}, nil
}

// Genres returns the distinct genre labels of the serving snapshot.
func (s *CatalogService) Genres(_ context.Context) (genres []string, err error) {
	start := time.Now()
	defer func() { s.observe(OpGenres, start, err) }()

	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Genres(), nil
}

// CatalogStats combines snapshot statistics with the report of the load
// that produced it.
type CatalogStats struct {
	engine.Stats
	Load catalog.LoadReport `json:"load"`
}

// Stats describes the serving snapshot.
func (s *CatalogService) Stats(_ context.Context) (stats *CatalogStats, err error) {
	start := time.Now()
	defer func() { s.observe(OpStats, start, err) }()

	cur, err := s.load()
	if err != nil {
		return nil, err
	}
	return &CatalogStats{Stats: cur.snap.Stats(), Load: cur.report}, nil
}
