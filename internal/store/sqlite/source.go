package sqlite

import (
	"context"
	"fmt"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
)

var _ catalog.Source = (*Store)(nil)

// Name implements catalog.Source.
func (s *Store) Name() string {
	return fmt.Sprintf("sqlite (%s)", s.path)
}

// Load implements catalog.Source. It returns one batch per source table,
// Goodreads first.
func (s *Store) Load(ctx context.Context) ([]catalog.Batch, error) {
	goodreads, err := s.ListGoodreadsRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goodreads rows: %w", err)
	}
	kindle, err := s.ListKindleRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kindle rows: %w", err)
	}

	return []catalog.Batch{
		{Source: domain.SourceGoodreads, Origin: goodreadsTable, Rows: goodreads},
		{Source: domain.SourceKindle, Origin: kindleTable, Rows: kindle},
	}, nil
}
