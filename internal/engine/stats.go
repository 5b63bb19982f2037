package engine

import (
	"time"

	"github.com/bookwise/bookwise-server/internal/domain"
)

// Stats summarizes a snapshot for informational display.
type Stats struct {
	SnapshotID string                `json:"snapshot_id"`
	BuiltAt    time.Time             `json:"built_at"`
	Books      int                   `json:"books"`
	BySource   map[domain.Source]int `json:"by_source"`
	Vocabulary int                   `json:"vocabulary"`
	Genres     int                   `json:"genres"`
	Rejected   int                   `json:"rejected"`
}

// Stats returns the snapshot's catalog counts.
func (s *Snapshot) Stats() Stats {
	bySource := make(map[domain.Source]int, len(domain.Sources))
	for _, src := range domain.Sources {
		bySource[src] = s.bySource[src]
	}
	return Stats{
		SnapshotID: s.id,
		BuiltAt:    s.builtAt,
		Books:      len(s.records),
		BySource:   bySource,
		Vocabulary: s.vectorizer.VocabularySize(),
		Genres:     len(s.genres),
		Rejected:   s.rejected,
	}
}
