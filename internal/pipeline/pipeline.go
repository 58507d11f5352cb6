package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
	"github.com/couchcryptid/geotelemetry-etl/internal/observability"
)

// FileDecoder decodes one input file of a source type. CleaningStats reports
// the outcome counts of the most recent DecodeFile call.
type FileDecoder[T any] interface {
	DecodeFile(ctx context.Context, path string) (domain.Batch[T], error)
	CleaningStats() domain.CleaningStats
}

// Store persists the document between runs.
type Store interface {
	Load() (*domain.Document, bool)
	Save(doc *domain.Document) error
	Invalidate() error
}

// Publisher forwards the records of a completed run downstream.
type Publisher interface {
	Publish(ctx context.Context, doc *domain.Document) error
}

// Options are the input lists and recency window of a run.
type Options struct {
	VesselFiles   []string
	AircraftFiles []string
	MaxDataAge    time.Duration
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithPublisher forwards every emitted record after a run completes.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithGeocoder labels coverage areas with place names.
func WithGeocoder(g domain.Geocoder) Option {
	return func(p *Pipeline) { p.geocoder = g }
}

// Pipeline turns the configured input files into a standardized document.
// Runs are serialized; the most recent document is kept in memory.
type Pipeline struct {
	vessels   FileDecoder[domain.VesselRecord]
	aircraft  FileDecoder[domain.AircraftRecord]
	store     Store
	publisher Publisher
	geocoder  domain.Geocoder
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options

	mu      sync.Mutex
	current atomic.Pointer[domain.Document]
	ready   atomic.Bool
}

// New creates a Pipeline.
func New(
	vessels FileDecoder[domain.VesselRecord],
	aircraft FileDecoder[domain.AircraftRecord],
	store Store,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts Options,
	options ...Option,
) *Pipeline {
	p := &Pipeline{
		vessels:  vessels,
		aircraft: aircraft,
		store:    store,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// CheckReadiness returns nil once a document is available, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no document has been produced or loaded yet")
	}
	return nil
}

// Current returns the most recent document, or nil before the first run and
// after Invalidate.
func (p *Pipeline) Current() *domain.Document {
	return p.current.Load()
}

// Invalidate deletes the cached document and forgets the in-memory copy.
func (p *Pipeline) Invalidate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current.Store(nil)
	return p.store.Invalidate()
}

// ProcessAll returns a document for the configured inputs. Unless force is
// set a valid cached document is returned as is. Otherwise every file is
// decoded; a failing file is recorded in the file status and skipped.
// Cancellation between files aborts the run without producing a document.
func (p *Pipeline) ProcessAll(ctx context.Context, force bool) (*domain.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !force {
		if doc, ok := p.store.Load(); ok {
			p.metrics.CacheLookups.WithLabelValues("hit").Inc()
			p.current.Store(doc)
			p.ready.Store(true)
			return doc, nil
		}
		p.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := p.clock.Now()
	doc, err := p.run(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())

	p.current.Store(doc)
	p.ready.Store(true)
	return doc, nil
}

func (p *Pipeline) run(ctx context.Context) (*domain.Document, error) {
	runID := uuid.NewString()
	now := p.clock.Now().UTC()
	logger := p.logger.With("run_id", runID)
	logger.Info("processing run started",
		"vessel_files", len(p.opts.VesselFiles),
		"aircraft_files", len(p.opts.AircraftFiles),
	)

	fp := sha256.New()

	vessels, vesselStats, vesselFiles, err := decodeAll(ctx, p, logger, fp, domain.SourceVessel, p.opts.VesselFiles, p.vessels)
	if err != nil {
		return nil, err
	}
	aircraft, aircraftStats, aircraftFiles, err := decodeAll(ctx, p, logger, fp, domain.SourceAircraft, p.opts.AircraftFiles, p.aircraft)
	if err != nil {
		return nil, err
	}

	sources := map[domain.SourceType][]string{
		domain.SourceVessel:   p.opts.VesselFiles,
		domain.SourceAircraft: p.opts.AircraftFiles,
	}
	coverage := domain.ComputeCoverage(vessels, aircraft, sources, now)
	if p.geocoder != nil {
		coverage = domain.LabelCoverage(ctx, coverage, p.geocoder, logger)
	}

	doc := domain.BuildDocument(domain.BuildInput{
		RunID:         runID,
		Now:           now,
		Fingerprint:   hex.EncodeToString(fp.Sum(nil)),
		MaxDataAge:    p.opts.MaxDataAge,
		Vessels:       vessels,
		Aircraft:      aircraft,
		VesselStats:   vesselStats,
		AircraftStats: aircraftStats,
		Coverage:      coverage,
		Files:         append(vesselFiles, aircraftFiles...),
	})

	if err := p.store.Save(&doc); err != nil {
		p.metrics.CacheWrites.WithLabelValues("error").Inc()
		logger.Error("cache save failed", "error", err)
	} else {
		p.metrics.CacheWrites.WithLabelValues("success").Inc()
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, &doc); err != nil {
			p.metrics.PublishErrors.Inc()
			logger.Error("publish records failed", "error", err)
		} else {
			p.metrics.RecordsPublished.Add(float64(doc.Metadata.TotalRecords))
		}
	}

	logger.Info("processing run complete",
		"vessels", doc.Metadata.Counts.Vessel,
		"aircraft", doc.Metadata.Counts.Aircraft,
		"errors", doc.Metadata.DataCleaning.Total.ErrorRecords,
		"warnings", doc.Metadata.DataCleaning.Total.WarningRecords,
		"coverage_areas", len(doc.CoverageLayers),
	)
	return &doc, nil
}

// decodeAll runs dec over paths in order and merges per-file results.
func decodeAll[T any](
	ctx context.Context,
	p *Pipeline,
	logger *slog.Logger,
	fp hash.Hash,
	source domain.SourceType,
	paths []string,
	dec FileDecoder[T],
) ([]T, domain.CleaningStats, []domain.FileStatus, error) {
	records := []T{}
	total := domain.NewCleaningStats()
	files := make([]domain.FileStatus, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, total, nil, fmt.Errorf("run aborted: %w", err)
		}

		status := domain.FileStatus{
			Path:        path,
			Source:      source,
			Format:      domain.FormatUnknown,
			Stats:       domain.NewCleaningStats(),
			Diagnostics: map[domain.DiagnosticKind]int{},
		}
		status.Exists = fingerprint(fp, path)

		batch, err := dec.DecodeFile(ctx, path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, total, nil, fmt.Errorf("run aborted: %w", ctxErr)
		}
		if err != nil {
			status.Error = err.Error()
			files = append(files, status)
			p.metrics.FileErrors.WithLabelValues(string(source)).Inc()
			logger.Error("file processing failed", "source", source, "path", path, "error", err)
			continue
		}

		stats := dec.CleaningStats()
		if !stats.Reconciled() {
			logger.Error("cleaning stats do not reconcile", "path", path,
				"total", stats.TotalRecords, "valid", stats.ValidRecords,
				"warning", stats.WarningRecords, "error", stats.ErrorRecords)
		}
		total = total.Merge(stats)
		records = append(records, batch.Records...)

		status.Format = batch.Format
		status.Degraded = batch.Degraded
		status.RecordCount = len(batch.Records)
		status.Stats = stats.Merge(domain.CleaningStats{})
		status.Diagnostics = domain.CountDiagnostics(batch.Diagnostics)
		files = append(files, status)

		p.observe(source, stats, status.Diagnostics)
	}
	return records, total, files, nil
}

func (p *Pipeline) observe(source domain.SourceType, stats domain.CleaningStats, diags map[domain.DiagnosticKind]int) {
	src := string(source)
	p.metrics.RecordsProcessed.WithLabelValues(src, string(domain.StatusNormal)).Add(float64(stats.ValidRecords))
	p.metrics.RecordsProcessed.WithLabelValues(src, string(domain.StatusWarning)).Add(float64(stats.WarningRecords))
	p.metrics.RecordsProcessed.WithLabelValues(src, string(domain.StatusError)).Add(float64(stats.ErrorRecords))
	for cat, n := range stats.ErrorsByType {
		p.metrics.CleaningFindings.WithLabelValues(src, string(cat)).Add(float64(n))
	}
	for cat, n := range stats.WarningsByType {
		p.metrics.CleaningFindings.WithLabelValues(src, string(cat)).Add(float64(n))
	}
	for kind, n := range diags {
		p.metrics.Diagnostics.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// fingerprint feeds a file's path and content into fp and reports whether the
// file could be opened.
func fingerprint(fp hash.Hash, path string) bool {
	_, _ = io.WriteString(fp, path)
	_, _ = fp.Write([]byte{0})

	f, err := os.Open(path)
	if err != nil {
		_, _ = io.WriteString(fp, "missing")
		return false
	}
	defer f.Close()
	_, _ = io.Copy(fp, f)
	return true
}
