package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bookwise/bookwise-server/internal/domain"
)

// SourceReport describes what one batch contributed to a load.
type SourceReport struct {
	Source    domain.Source `json:"source"`
	Origin    string        `json:"origin"`
	Rows      int           `json:"rows"`
	Loaded    int           `json:"loaded"`
	Malformed int           `json:"malformed"`
	Dropped   int           `json:"dropped"`
	Missing   bool          `json:"missing,omitempty"`
}

// LoadReport aggregates the batches of one load.
type LoadReport struct {
	Batches []SourceReport `json:"batches"`
	Loaded  int            `json:"loaded"`
	// Dropped counts malformed rows plus rows that failed normalization.
	Dropped int `json:"dropped"`
}

// Loader reads every configured source concurrently and concatenates the
// normalized records in source order.
type Loader struct {
	sources []Source
	logger  *slog.Logger
}

// NewLoader creates a loader over sources. Records keep the order of sources
// regardless of which finishes first.
func NewLoader(logger *slog.Logger, sources ...Source) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{sources: sources, logger: logger}
}

// Load reads all sources. Any source error aborts the load; missing files and
// malformed rows do not.
func (l *Loader) Load(ctx context.Context) ([]domain.BookRecord, LoadReport, error) {
	results := make([][]Batch, len(l.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range l.sources {
		g.Go(func() error {
			batches, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Name(), err)
			}
			results[i] = batches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, LoadReport{}, err
	}

	var (
		records []domain.BookRecord
		report  LoadReport
	)
	for _, batches := range results {
		for _, batch := range batches {
			recs, dropped := Normalize(batch.Rows)
			records = append(records, recs...)

			sr := SourceReport{
				Source:    batch.Source,
				Origin:    batch.Origin,
				Rows:      len(batch.Rows) + batch.Malformed,
				Loaded:    len(recs),
				Malformed: batch.Malformed,
				Dropped:   dropped + batch.Malformed,
				Missing:   batch.Missing,
			}
			report.Batches = append(report.Batches, sr)
			report.Loaded += sr.Loaded
			report.Dropped += sr.Dropped

			if batch.Missing {
				l.logger.Warn("catalog source not found, skipping",
					"source", batch.Source,
					"origin", batch.Origin,
				)
				continue
			}
			l.logger.Info("loaded catalog source",
				"source", batch.Source,
				"origin", batch.Origin,
				"rows", sr.Rows,
				"loaded", sr.Loaded,
				"dropped", sr.Dropped,
			)
		}
	}

	if records == nil {
		records = []domain.BookRecord{}
	}
	return records, report, nil
}
