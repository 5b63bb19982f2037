package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookwise/bookwise-server/internal/engine"
	"github.com/bookwise/bookwise-server/internal/service"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recommendByTitle",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Recommend by title",
		Description: "Returns the books most similar to the given title, excluding the title itself",
		Tags:        []string{"Recommendations"},
	}, s.handleRecommend)

	huma.Register(s.api, huma.Operation{
		OperationID: "recommendByText",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations/text",
		Summary:     "Recommend by free text",
		Description: "Returns the books most similar to an arbitrary description",
		Tags:        []string{"Recommendations"},
	}, s.handleRecommendByText)

	huma.Register(s.api, huma.Operation{
		OperationID: "browseBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "Browse books",
		Description: "Returns a page of catalog books, optionally filtered and sorted by rating",
		Tags:        []string{"Books"},
	}, s.handleBrowse)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTitles",
		Method:      http.MethodGet,
		Path:        "/api/v1/suggestions",
		Summary:     "Suggest titles",
		Description: "Returns catalog titles matching a partial input, prefix matches first",
		Tags:        []string{"Books"},
	}, s.handleSuggest)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns the distinct genre labels in the catalog, sorted",
		Tags:        []string{"Books"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "catalogStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/stats",
		Summary:     "Catalog statistics",
		Description: "Returns counts for the serving snapshot and the load that produced it",
		Tags:        []string{"Catalog"},
	}, s.handleStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalog/rebuild",
		Summary:     "Rebuild catalog",
		Description: "Reloads every source and swaps in a new snapshot. The old snapshot keeps serving if the build fails",
		Tags:        []string{"Catalog"},
	}, s.handleRebuild)
}

// === DTOs ===

// RecommendInput contains parameters for title recommendations.
type RecommendInput struct {
	Title  string             `query:"title" doc:"Exact catalog title to find similar books for"`
	K      OptionalParam[int] `query:"k" doc:"Number of recommendations; defaults to the server setting"`
	Genre  string             `query:"genre" doc:"Only return books whose genre contains this text"`
	Source string             `query:"source" doc:"Only return books from this source (Goodreads or Kindle)"`
}

// RecommendOutput wraps the recommendation result for Huma.
type RecommendOutput struct {
	Body service.RecommendResponse
}

// TextRecommendRequest is the body of a free-text recommendation.
type TextRecommendRequest struct {
	Text   string `json:"text" doc:"Description to match against the catalog"`
	K      *int   `json:"k,omitempty" doc:"Number of recommendations; defaults to the server setting"`
	Genre  string `json:"genre,omitempty" doc:"Only return books whose genre contains this text"`
	Source string `json:"source,omitempty" doc:"Only return books from this source"`
}

// TextRecommendInput wraps the text request for Huma.
type TextRecommendInput struct {
	Body TextRecommendRequest
}

// TextRecommendOutput wraps the text recommendation result for Huma.
type TextRecommendOutput struct {
	Body service.TextRecommendResponse
}

// BrowseInput contains browse parameters.
type BrowseInput struct {
	Genre  string `query:"genre" doc:"Only return books whose genre contains this text"`
	Source string `query:"source" doc:"Only return books from this source"`
	Sort   string `query:"sort" doc:"none, rating or rating_desc"`
	Limit  int    `query:"limit" doc:"Page size; defaults to the server setting"`
	Offset int    `query:"offset" doc:"Number of books to skip"`
}

// BrowseOutput wraps a page of books for Huma.
type BrowseOutput struct {
	Body service.BrowseResponse
}

// SuggestInput contains suggestion parameters.
type SuggestInput struct {
	Query string `query:"q" doc:"Partial title"`
	Limit int    `query:"limit" doc:"Maximum number of titles"`
}

// SuggestOutput wraps title suggestions for Huma.
type SuggestOutput struct {
	Body service.SuggestResponse
}

// GenresResponse lists catalog genres.
type GenresResponse struct {
	Genres []string `json:"genres" doc:"Distinct genre labels, sorted"`
}

// GenresOutput wraps the genre list for Huma.
type GenresOutput struct {
	Body GenresResponse
}

// StatsOutput wraps catalog statistics for Huma.
type StatsOutput struct {
	Body service.CatalogStats
}

// RebuildOutput wraps the stats of the new snapshot for Huma.
type RebuildOutput struct {
	Body engine.Stats
}

// === Handlers ===

func (s *Server) handleRecommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	resp, err := s.catalog.Recommend(ctx, service.RecommendRequest{
		Title:  input.Title,
		K:      input.K.Ptr(),
		Genre:  input.Genre,
		Source: input.Source,
	})
	if err != nil {
		return nil, toAPIError(err, s.logger, "recommend")
	}
	return &RecommendOutput{Body: *resp}, nil
}

func (s *Server) handleRecommendByText(ctx context.Context, input *TextRecommendInput) (*TextRecommendOutput, error) {
	resp, err := s.catalog.RecommendByText(ctx, service.TextRecommendRequest{
		Text:   input.Body.Text,
		K:      input.Body.K,
		Genre:  input.Body.Genre,
		Source: input.Body.Source,
	})
	if err != nil {
		return nil, toAPIError(err, s.logger, "recommend_text")
	}
	return &TextRecommendOutput{Body: *resp}, nil
}

func (s *Server) handleBrowse(ctx context.Context, input *BrowseInput) (*BrowseOutput, error) {
	resp, err := s.catalog.Browse(ctx, service.BrowseRequest{
		Genre:  input.Genre,
		Source: input.Source,
		Sort:   input.Sort,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, toAPIError(err, s.logger, "browse")
	}
	return &BrowseOutput{Body: *resp}, nil
}

func (s *Server) handleSuggest(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	resp, err := s.catalog.Suggest(ctx, service.SuggestRequest{
		Query: input.Query,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, toAPIError(err, s.logger, "suggest")
	}
	return &SuggestOutput{Body: *resp}, nil
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*GenresOutput, error) {
	genres, err := s.catalog.Genres(ctx)
	if err != nil {
		return nil, toAPIError(err, s.logger, "genres")
	}
	return &GenresOutput{Body: GenresResponse{Genres: genres}}, nil
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return nil, toAPIError(err, s.logger, "stats")
	}
	return &StatsOutput{Body: *stats}, nil
}

func (s *Server) handleRebuild(ctx context.Context, _ *struct{}) (*RebuildOutput, error) {
	stats, err := s.catalog.Rebuild(ctx)
	if err != nil {
		return nil, toAPIError(err, s.logger, "rebuild")
	}
	s.logger.Info("Catalog rebuilt on request", "snapshot_id", stats.SnapshotID, "books", stats.Books)
	return &RebuildOutput{Body: stats}, nil
}
