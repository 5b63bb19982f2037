// Package domain contains the core entities of the BookWise catalog.
package domain

// Defaults applied by the catalog normalizer when a source row lacks a field.
const (
	// UnknownAuthor stands in for a missing author when composing descriptive text.
	UnknownAuthor = "Unknown Author"
	// UnknownRatingLabel is how an unknown rating is rendered.
	UnknownRatingLabel = "N/A"
	// MinComposedTextLength is the length a composed text must exceed to be indexed.
	// Shorter texts produce near-empty vectors and are excluded from the catalog.
	MinComposedTextLength = 10
)

// BookRecord is one canonical catalog entry, regardless of where it came from.
type BookRecord struct {
	// Row is the position of the record within one build. It is the join key
	// between the catalog, the TF-IDF matrix and the similarity index.
	Row          int    `json:"row"`
	Title        string `json:"title"`
	ComposedText string `json:"-"` // vectorizer input only
	Source       Source `json:"source"`
	Rating       Rating `json:"rating"`
	ImageURL     string `json:"image_url,omitempty"`
	Genre        string `json:"genre,omitempty"`
}

// HasImage reports whether the record carries a cover reference.
func (b *BookRecord) HasImage() bool {
	return b.ImageURL != ""
}
