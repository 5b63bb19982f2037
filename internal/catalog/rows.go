// Package catalog loads raw book rows from heterogeneous sources and
// normalizes them into domain.BookRecord values.
//
// Each source has its own row schema. RawRow is a closed sum over those
// schemas and every variant maps to a record through a total function that
// applies the documented defaults, so no source-specific handling leaks past
// this package.
package catalog

import (
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/normalize"
)

// RawRow is one row as read from a source, before normalization.
// It is implemented only by GoodreadsRow and KindleRow.
type RawRow interface {
	// Source returns the source the row belongs to.
	Source() domain.Source
	// Record maps the row to a catalog record. ok is false when the row
	// cannot produce a valid record and must be dropped.
	Record() (rec domain.BookRecord, ok bool)

	rawRow()
}

// GoodreadsRow is a row of the Goodreads books export.
type GoodreadsRow struct {
	Title         string
	Authors       string
	AverageRating string
	ImageURL      string
	Genres        string
}

// KindleRow is a row of the Kindle store export.
type KindleRow struct {
	Title        string
	Author       string
	CategoryName string
	Stars        string
	ImgURL       string
}

func (GoodreadsRow) rawRow() {}
func (KindleRow) rawRow()    {}

// Source implements RawRow.
func (GoodreadsRow) Source() domain.Source { return domain.SourceGoodreads }

// Source implements RawRow.
func (KindleRow) Source() domain.Source { return domain.SourceKindle }

// Record implements RawRow. The composed text is "<title> by <authors>".
func (r GoodreadsRow) Record() (domain.BookRecord, bool) {
	title := normalize.Field(r.Title)
	authors := orDefault(normalize.Field(r.Authors), domain.UnknownAuthor)

	rec := domain.BookRecord{
		Title:        title,
		ComposedText: title + " by " + authors,
		Source:       domain.SourceGoodreads,
		Rating:       domain.ParseRating(r.AverageRating),
		ImageURL:     normalize.Field(r.ImageURL),
		Genre:        normalize.Field(r.Genres),
	}
	return rec, valid(rec)
}

// Record implements RawRow. The composed text is
// "<title> by <author> - Category: <category>" and the category doubles as
// the genre.
func (r KindleRow) Record() (domain.BookRecord, bool) {
	title := normalize.Field(r.Title)
	author := orDefault(normalize.Field(r.Author), domain.UnknownAuthor)
	category := normalize.Field(r.CategoryName)

	rec := domain.BookRecord{
		Title:        title,
		ComposedText: title + " by " + author + " - Category: " + category,
		Source:       domain.SourceKindle,
		Rating:       domain.ParseRating(r.Stars),
		ImageURL:     normalize.Field(r.ImgURL),
		Genre:        category,
	}
	return rec, valid(rec)
}

// valid reports whether rec can enter the catalog: it needs a title and a
// composed text longer than domain.MinComposedTextLength.
func valid(rec domain.BookRecord) bool {
	if rec.Title == "" {
		return false
	}
	return len([]rune(rec.ComposedText)) > domain.MinComposedTextLength
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Normalize maps rows to records in order, dropping rows that cannot produce
// a valid record. It returns the records and the number of rows dropped.
func Normalize(rows []RawRow) ([]domain.BookRecord, int) {
	records := make([]domain.BookRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, ok := row.Record()
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}
