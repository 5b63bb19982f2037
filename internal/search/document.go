// Package search provides title autocompletion backed by an in-memory Bleve
// index. Every catalog row is indexed under its normalized title key so
// prefix and substring lookups run against the index instead of scanning the
// catalog.
package search

import (
	"fmt"
	"strconv"

	"github.com/bookwise/bookwise-server/internal/normalize"
)

// TitleDocument is the indexed form of one catalog row.
type TitleDocument struct {
	Row   int
	Title string
}

// docID returns the Bleve document ID for a row. IDs are zero padded so
// lexical ID order equals row order.
func docID(row int) string {
	return fmt.Sprintf("%09d", row)
}

// rowFromID parses a document ID back into its row.
func rowFromID(id string) (int, bool) {
	row, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return row, true
}

// ToMap converts the document to the field layout expected by the mapping.
func (d TitleDocument) ToMap() map[string]any {
	return map[string]any{
		"key": normalize.TitleKey(d.Title),
	}
}
