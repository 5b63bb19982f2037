package sqlite

import (
	"context"
	"testing"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
)

func sampleRows() []catalog.RawRow {
	return []catalog.RawRow{
		catalog.GoodreadsRow{Title: "The Hobbit", Authors: "J.R.R. Tolkien", AverageRating: "4.27", Genres: "Fantasy, Adventure"},
		catalog.KindleRow{Title: "Dune", Author: "Frank Herbert", CategoryName: "Science Fiction", Stars: "4.5", ImgURL: "http://img/dune.jpg"},
		catalog.GoodreadsRow{Title: "Emma", Authors: "Jane Austen", AverageRating: "N/A"},
		catalog.KindleRow{Title: "Dune Messiah", Author: "Frank Herbert", CategoryName: "Science Fiction", Stars: "4.1"},
	}
}

func TestImportRows_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.ImportRows(ctx, sampleRows(), false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 rows imported, got %d", n)
	}

	goodreads, err := s.ListGoodreadsRows(ctx)
	if err != nil {
		t.Fatalf("list goodreads: %v", err)
	}
	if len(goodreads) != 2 {
		t.Fatalf("expected 2 goodreads rows, got %d", len(goodreads))
	}
	want := catalog.GoodreadsRow{Title: "The Hobbit", Authors: "J.R.R. Tolkien", AverageRating: "4.27", Genres: "Fantasy, Adventure"}
	if goodreads[0] != want {
		t.Errorf("expected %+v, got %+v", want, goodreads[0])
	}
	if got := goodreads[1].(catalog.GoodreadsRow).AverageRating; got != "N/A" {
		t.Errorf("expected rating N/A to round-trip, got %q", got)
	}

	kindle, err := s.ListKindleRows(ctx)
	if err != nil {
		t.Fatalf("list kindle: %v", err)
	}
	if len(kindle) != 2 {
		t.Fatalf("expected 2 kindle rows, got %d", len(kindle))
	}
	if got := kindle[0].(catalog.KindleRow).ImgURL; got != "http://img/dune.jpg" {
		t.Errorf("expected image url to round-trip, got %q", got)
	}
}

func TestImportRows_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportRows(ctx, sampleRows(), false); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := s.ImportRows(ctx, sampleRows()[:1], true); err != nil {
		t.Fatalf("replace import: %v", err)
	}

	counts, err := s.CountRows(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[domain.SourceGoodreads] != 1 || counts[domain.SourceKindle] != 0 {
		t.Errorf("unexpected counts after replace: %v", counts)
	}
}

func TestListRows_NullColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, `INSERT INTO kindle_books (title, stars) VALUES ('Foundation', 4.2)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := s.ListKindleRows(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0].(catalog.KindleRow)
	if row.Author != "" || row.CategoryName != "" || row.ImgURL != "" {
		t.Errorf("expected NULL columns to scan as empty strings, got %+v", row)
	}

	rec, ok := row.Record()
	if !ok {
		t.Fatal("expected row to normalize")
	}
	if rec.ComposedText != "Foundation by Unknown Author - Category: " {
		t.Errorf("unexpected composed text %q", rec.ComposedText)
	}
	if v, known := rec.Rating.Value(); !known || v != 4.2 {
		t.Errorf("expected rating 4.2, got %v (known=%v)", v, known)
	}
}

func TestStore_Load(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ImportRows(ctx, sampleRows(), false); err != nil {
		t.Fatalf("import: %v", err)
	}

	records, report, err := catalog.NewLoader(nil, s).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if report.Loaded != 4 || report.Dropped != 0 {
		t.Errorf("unexpected report: %+v", report)
	}

	wantOrder := []string{"The Hobbit", "Emma", "Dune", "Dune Messiah"}
	for i, title := range wantOrder {
		if records[i].Title != title {
			t.Errorf("record %d: expected %q, got %q", i, title, records[i].Title)
		}
	}
}
