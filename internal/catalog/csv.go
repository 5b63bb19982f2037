package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bookwise/bookwise-server/internal/domain"
)

// Default file names of the CSV exports inside a data directory.
const (
	GoodreadsFileName = "books.csv"
	KindleFileName    = "kindle_data-v2.csv"
)

// header maps lowercased column names to their position.
type header map[string]int

func newHeader(fields []string) header {
	h := make(header, len(fields))
	for i, f := range fields {
		if i == 0 {
			f = strings.TrimPrefix(f, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(f))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// get returns the value of column name in record, or "" when the column is
// absent.
func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// decoders build a source's RawRow from a CSV record.
var decoders = map[domain.Source]func(h header, record []string) RawRow{
	domain.SourceGoodreads: func(h header, record []string) RawRow {
		return GoodreadsRow{
			Title:         h.get(record, "title"),
			Authors:       h.get(record, "authors"),
			AverageRating: h.get(record, "average_rating"),
			ImageURL:      h.get(record, "image_url"),
			Genres:        h.get(record, "genres"),
		}
	},
	domain.SourceKindle: func(h header, record []string) RawRow {
		return KindleRow{
			Title:        h.get(record, "title"),
			Author:       h.get(record, "author"),
			CategoryName: h.get(record, "category_name"),
			Stars:        h.get(record, "stars"),
			ImgURL:       h.get(record, "imgurl"),
		}
	},
}

// ReadCSV decodes the CSV export of src from r.
//
// Column lookup is case-insensitive. Records whose field count differs from
// the header, or that fail to parse, are skipped and counted as malformed.
// An input without a header row yields no rows.
func ReadCSV(r io.Reader, src domain.Source) (rows []RawRow, malformed int, err error) {
	decode, ok := decoders[src]
	if !ok {
		return nil, 0, fmt.Errorf("no csv decoder for source %q", src)
	}

	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	fields, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []RawRow{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(fields)

	rows = make([]RawRow, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				malformed++
				continue
			}
			return nil, malformed, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, decode(h, record))
	}

	return rows, malformed, nil
}
