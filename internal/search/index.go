package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// TitleIndex wraps an in-memory Bleve index of catalog titles.
//
// A TitleIndex belongs to one catalog snapshot and is never mutated after
// NewTitleIndex returns. All public methods are safe for concurrent use.
type TitleIndex struct {
	index  bleve.Index
	titles []string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index against use after Close
	closed bool
}

// Options configures the title index.
type Options struct {
	Logger *slog.Logger // Logger for operations (uses discard if nil)
}

// batchSize bounds the number of documents committed per Bleve batch.
const batchSize = 500

// NewTitleIndex indexes titles, where titles[i] is the title of row i.
func NewTitleIndex(titles []string, opts Options) (*TitleIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &TitleIndex{
		index:  index,
		titles: titles,
		logger: logger,
	}

	docs := make([]TitleDocument, len(titles))
	for row, title := range titles {
		docs[row] = TitleDocument{Row: row, Title: title}
	}
	if err := s.indexDocuments(docs); err != nil {
		_ = index.Close()
		return nil, err
	}

	logger.Debug("built title index", "documents", len(docs))

	return s, nil
}

// indexDocuments indexes docs in chunks of batchSize.
func (s *TitleIndex) indexDocuments(docs []TitleDocument) error {
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(docID(doc.Row), doc.ToMap()); err != nil {
				return fmt.Errorf("batch index row %d: %w", doc.Row, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *TitleIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errClosed
	}
	return s.index.DocCount()
}

// Close releases the index. Later calls fail with an error.
func (s *TitleIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}
