package sqlite

import (
	"context"
	"fmt"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
)

// Table names holding each source's rows.
const (
	goodreadsTable = "goodreads_books"
	kindleTable    = "kindle_books"
)

// goodreadsColumns is the ordered list of columns selected in Goodreads
// queries. Must match the scan order in ListGoodreadsRows.
const goodreadsColumns = `COALESCE(title, ''), COALESCE(authors, ''),
	COALESCE(CAST(average_rating AS TEXT), ''), COALESCE(image_url, ''), COALESCE(genres, '')`

// kindleColumns is the ordered list of columns selected in Kindle queries.
// Must match the scan order in ListKindleRows.
const kindleColumns = `COALESCE(title, ''), COALESCE(author, ''),
	COALESCE(category_name, ''), COALESCE(CAST(stars AS TEXT), ''), COALESCE(img_url, '')`

// ListGoodreadsRows returns all Goodreads rows in insertion order.
func (s *Store) ListGoodreadsRows(ctx context.Context) ([]catalog.RawRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goodreadsColumns+` FROM `+goodreadsTable+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.RawRow, 0)
	for rows.Next() {
		var r catalog.GoodreadsRow
		if err := rows.Scan(&r.Title, &r.Authors, &r.AverageRating, &r.ImageURL, &r.Genres); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListKindleRows returns all Kindle rows in insertion order.
func (s *Store) ListKindleRows(ctx context.Context) ([]catalog.RawRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+kindleColumns+` FROM `+kindleTable+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.RawRow, 0)
	for rows.Next() {
		var r catalog.KindleRow
		if err := rows.Scan(&r.Title, &r.Author, &r.CategoryName, &r.Stars, &r.ImgURL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportRows appends rows to their source tables in a single transaction.
// When replace is set, the existing rows of every source are deleted first.
func (s *Store) ImportRows(ctx context.Context, rows []catalog.RawRow, replace bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if replace {
		for _, table := range []string{goodreadsTable, kindleTable} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return 0, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	goodreads, err := tx.PrepareContext(ctx, `INSERT INTO `+goodreadsTable+`
		(title, authors, average_rating, image_url, genres) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare goodreads insert: %w", err)
	}
	defer goodreads.Close()

	kindle, err := tx.PrepareContext(ctx, `INSERT INTO `+kindleTable+`
		(title, author, category_name, stars, img_url) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare kindle insert: %w", err)
	}
	defer kindle.Close()

	n := 0
	for _, row := range rows {
		switch r := row.(type) {
		case catalog.GoodreadsRow:
			_, err = goodreads.ExecContext(ctx, r.Title, r.Authors, r.AverageRating, r.ImageURL, r.Genres)
		case catalog.KindleRow:
			_, err = kindle.ExecContext(ctx, r.Title, r.Author, r.CategoryName, r.Stars, r.ImgURL)
		default:
			err = fmt.Errorf("unsupported row type %T", row)
		}
		if err != nil {
			return n, fmt.Errorf("insert row %d: %w", n, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("imported catalog rows", "rows", n, "replace", replace)
	return n, nil
}

// CountRows returns the number of stored rows per source.
func (s *Store) CountRows(ctx context.Context) (map[domain.Source]int, error) {
	counts := make(map[domain.Source]int, 2)
	for src, table := range map[domain.Source]string{
		domain.SourceGoodreads: goodreadsTable,
		domain.SourceKindle:    kindleTable,
	} {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[src] = n
	}
	return counts, nil
}
