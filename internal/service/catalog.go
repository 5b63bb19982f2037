package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/engine"
	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
	"github.com/bookwise/bookwise-server/internal/id"
	"github.com/bookwise/bookwise-server/internal/metrics"
	"github.com/bookwise/bookwise-server/internal/sse"
	"github.com/bookwise/bookwise-server/internal/validation"
)

// EventEmitter receives catalog lifecycle events.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(any) {}

// Query operation names used in logs and metrics.
const (
	OpRecommend       = "recommend"
	OpRecommendByText = "recommend_text"
	OpBrowse          = "browse"
	OpSuggest         = "suggest"
	OpGenres          = "genres"
	OpStats           = "stats"
)

// DefaultRetireAfter is how long a replaced snapshot stays open for queries
// that loaded it before the swap.
const DefaultRetireAfter = 30 * time.Second

// MaxPageSize bounds browse pages.
const MaxPageSize = 100

// CatalogOptions tunes the catalog service.
type CatalogOptions struct {
	MaxFeatures     int
	DefaultK        int
	MaxK            int
	SuggestionLimit int
	PageSize        int
	// RetireAfter delays closing a replaced snapshot. Defaults to DefaultRetireAfter.
	RetireAfter time.Duration
}

func (o CatalogOptions) withDefaults() CatalogOptions {
	if o.DefaultK <= 0 {
		o.DefaultK = 5
	}
	if o.MaxK <= 0 {
		o.MaxK = 50
	}
	if o.DefaultK > o.MaxK {
		o.DefaultK = o.MaxK
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = 10
	}
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.RetireAfter <= 0 {
		o.RetireAfter = DefaultRetireAfter
	}
	return o
}

// serving pairs a snapshot with the report of the load that produced it.
// Both are swapped in together.
type serving struct {
	snap   *engine.Snapshot
	report catalog.LoadReport
}

// buildOutcome records the most recent rebuild attempt.
type buildOutcome struct {
	at  time.Time
	err error
}

// CatalogService owns the current catalog snapshot and answers queries
// against it.
//
// Queries and Status load atomic pointers and never block on a rebuild.
// Rebuild builds a complete replacement and swaps it in; a failed rebuild
// leaves the previous snapshot serving.
type CatalogService struct {
	loader    *catalog.Loader
	opts      CatalogOptions
	validator *validation.Validator
	events    EventEmitter
	logger    *slog.Logger

	current atomic.Pointer[serving]
	outcome atomic.Pointer[buildOutcome]

	// buildMu serializes Rebuild and Close.
	buildMu sync.Mutex
}

// NewCatalogService creates a catalog service. No snapshot exists until the
// first successful Rebuild; queries fail with NOT_READY until then.
func NewCatalogService(loader *catalog.Loader, opts CatalogOptions, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{
		loader:    loader,
		opts:      opts.withDefaults(),
		validator: validation.New(),
		events:    NoopEmitter{},
		logger:    logger,
	}
}

// SetEventEmitter sets where rebuild outcomes are published. Call before the
// first Rebuild.
func (s *CatalogService) SetEventEmitter(events EventEmitter) {
	if events == nil {
		events = NoopEmitter{}
	}
	s.events = events
}

// Rebuild loads every source, builds a new snapshot and swaps it in.
// Concurrent calls are serialized.
func (s *CatalogService) Rebuild(ctx context.Context) (engine.Stats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	snap, report, err := s.build(ctx)
	elapsed := time.Since(start)
	metrics.RecordBuild(elapsed, err)

	s.outcome.Store(&buildOutcome{at: start, err: err})
	if err != nil {
		s.logger.Error("catalog rebuild failed",
			"error", err,
			"duration", elapsed,
			"serving", s.servingID(),
		)
		s.events.Emit(sse.NewCatalogRebuildFailedEvent(err, s.servingID()))
		return engine.Stats{}, err
	}

	if old := s.current.Swap(&serving{snap: snap, report: report}); old != nil {
		s.retire(old.snap)
	}

	stats := snap.Stats()
	bySource := make(map[string]int, len(stats.BySource))
	for src, n := range stats.BySource {
		bySource[src.String()] = n
	}
	metrics.SetSnapshot(bySource, stats.Vocabulary, stats.Rejected, stats.BuiltAt)

	s.logger.Info("catalog snapshot built",
		"snapshot_id", stats.SnapshotID,
		"books", stats.Books,
		"vocabulary", stats.Vocabulary,
		"genres", stats.Genres,
		"dropped", stats.Rejected,
		"duration", elapsed,
	)
	s.events.Emit(sse.NewCatalogRebuiltEvent(sse.CatalogRebuiltEventData{
		BuiltAt:    stats.BuiltAt,
		BySource:   bySource,
		SnapshotID: stats.SnapshotID,
		Books:      stats.Books,
		Vocabulary: stats.Vocabulary,
		Genres:     stats.Genres,
		Dropped:    stats.Rejected,
		DurationMS: elapsed.Milliseconds(),
	}))
	return stats, nil
}

func (s *CatalogService) build(ctx context.Context) (*engine.Snapshot, catalog.LoadReport, error) {
	records, report, err := s.loader.Load(ctx)
	if err != nil {
		return nil, catalog.LoadReport{}, fmt.Errorf("load catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, catalog.LoadReport{}, err
	}

	snapID, err := id.NewSnapshotID()
	if err != nil {
		return nil, catalog.LoadReport{}, fmt.Errorf("generate snapshot id: %w", err)
	}

	snap, err := engine.Build(records, engine.Options{
		ID:          snapID,
		MaxFeatures: s.opts.MaxFeatures,
		Rejected:    report.Dropped,
	})
	if err != nil {
		return nil, catalog.LoadReport{}, fmt.Errorf("build snapshot: %w", err)
	}
	return snap, report, nil
}

// retire closes a replaced snapshot once in-flight queries have had time to
// finish with it.
func (s *CatalogService) retire(old *engine.Snapshot) {
	time.AfterFunc(s.opts.RetireAfter, func() {
		if err := old.Close(); err != nil {
			s.logger.Warn("failed to close retired snapshot", "snapshot_id", old.ID(), "error", err)
			return
		}
		s.logger.Debug("retired snapshot closed", "snapshot_id", old.ID())
	})
}

func (s *CatalogService) servingID() string {
	if cur := s.current.Load(); cur != nil {
		return cur.snap.ID()
	}
	return ""
}

func (s *CatalogService) load() (*serving, error) {
	cur := s.current.Load()
	if cur == nil {
		return nil, domainerrors.NotReady("catalog has not been built yet")
	}
	return cur, nil
}

// Snapshot returns the snapshot currently serving queries.
func (s *CatalogService) Snapshot() (*engine.Snapshot, error) {
	cur, err := s.load()
	if err != nil {
		return nil, err
	}
	return cur.snap, nil
}

// Ready reports whether a snapshot is serving.
func (s *CatalogService) Ready() bool {
	return s.current.Load() != nil
}

// Status describes the service's build state for health checks.
type Status struct {
	Ready       bool      `json:"ready"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitzero"`
	Books       int       `json:"books"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// Status returns the current build state. It does not wait for a rebuild
// in progress.
func (s *CatalogService) Status() Status {
	var st Status
	if cur := s.current.Load(); cur != nil {
		st.Ready = true
		st.SnapshotID = cur.snap.ID()
		st.BuiltAt = cur.snap.BuiltAt()
		st.Books = cur.snap.Len()
	}
	if o := s.outcome.Load(); o != nil {
		st.LastAttempt = o.at
		if o.err != nil {
			st.LastError = o.err.Error()
		}
	}
	return st
}

// Close closes the serving snapshot. The service is not ready afterwards.
func (s *CatalogService) Close() error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if cur := s.current.Swap(nil); cur != nil {
		return cur.snap.Close()
	}
	return nil
}

// observe records a query in metrics and logs unexpected failures.
func (s *CatalogService) observe(op string, start time.Time, err error) {
	metrics.RecordQuery(op, time.Since(start), err)
	if err == nil {
		return
	}
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		return
	}
	s.logger.Error("catalog query failed", "operation", op, "error", err)
}

// resolveK applies the default to a missing k and enforces the bounds.
func (s *CatalogService) resolveK(k *int) (int, error) {
	if k == nil {
		return s.opts.DefaultK, nil
	}
	if *k <= 0 || *k > s.opts.MaxK {
		return 0, domainerrors.InvalidKf("k must be between 1 and %d, got %d", s.opts.MaxK, *k)
	}
	return *k, nil
}

func filtersFor(genre, source string) engine.Filters {
	f := engine.Filters{Genre: genre}
	if src, ok := domain.ParseSource(source); ok {
		f.Source = src
	}
	return f
}
