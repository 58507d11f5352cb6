package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// aircraftColumns maps aircraft tabular headers and JSON keys to canonical
// field names. Timestamp parts pass through unchanged.
var aircraftColumns = map[string]string{
	"aircraft_id":      domain.FieldAircraftID,
	"latitude":         domain.FieldLat,
	"longitude":        domain.FieldLon,
	"altitude_ft":      domain.FieldAltitude,
	"ground_speed_kts": domain.FieldGroundSpeed,
	"heading_deg":      domain.FieldHeadingDeg,
	"aircraft_tail":    domain.FieldAircraftTail,
	"timestamp":        domain.FieldTimestamp,
	"year":             "year",
	"month":            "month",
	"day":              "day",
	"hour":             "hour",
	"minute":           "minute",
	"second":           "second",
}

// AircraftReader decodes aircraft feeds. It is not safe for concurrent use.
type AircraftReader struct {
	clock  clockwork.Clock
	logger *slog.Logger
	stats  domain.CleaningStats
}

// NewAircraftReader creates an aircraft feed reader.
func NewAircraftReader(clock clockwork.Clock, logger *slog.Logger) *AircraftReader {
	return &AircraftReader{
		clock:  clock,
		logger: logger,
		stats:  domain.NewCleaningStats(),
	}
}

// CleaningStats returns the statistics of the most recent DecodeFile call.
func (r *AircraftReader) CleaningStats() domain.CleaningStats {
	return r.stats
}

// DecodeFile sniffs, decodes and cleans one aircraft file.
func (r *AircraftReader) DecodeFile(ctx context.Context, path string) (domain.Batch[domain.AircraftRecord], error) {
	r.stats = domain.NewCleaningStats()
	batch := domain.Batch[domain.AircraftRecord]{Path: path, Records: []domain.AircraftRecord{}}

	content, err := readContent(path)
	if err != nil {
		return batch, err
	}
	lines := splitLines(content)

	batch.Format, batch.Degraded = resolve(domain.SourceAircraft, lines)
	if batch.Degraded {
		batch.Diagnose(domain.DiagDegradedFormat, 0, "format not recognized, decoding as JSON lines")
		r.logger.Warn("aircraft format ambiguous, using JSON lines decoder", "path", path)
	}

	now := r.clock.Now().UTC()
	if batch.Format == domain.FormatAircraftTabular {
		err = r.decodeTabular(ctx, content, now, &batch)
	} else {
		err = r.decodeJSONL(ctx, lines, now, &batch)
	}
	if err != nil {
		return batch, fmt.Errorf("decode %s: %w", path, err)
	}

	r.logger.Info("aircraft file decoded",
		"path", path,
		"format", batch.Format,
		"records", len(batch.Records),
		"errors", r.stats.ErrorRecords,
		"warnings", r.stats.WarningRecords,
	)
	return batch, nil
}

func (r *AircraftReader) decodeJSONL(ctx context.Context, lines []string, now time.Time, batch *domain.Batch[domain.AircraftRecord]) error {
	for i, line := range lines {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil || obj == nil {
			r.stats.Record(domain.MalformedOutcome(fmt.Sprintf("line %d: not a JSON object", i+1)))
			continue
		}

		raw := make(domain.RawRecord, len(obj))
		for k, v := range obj {
			if name, ok := aircraftColumns[k]; ok {
				raw[name] = v
			}
		}
		r.accept(domain.NormalizeAircraft(raw, domain.FormatAircraftJSONL, now), batch)
	}
	return nil
}

func (r *AircraftReader) decodeTabular(ctx context.Context, content string, now time.Time, batch *domain.Batch[domain.AircraftRecord]) error {
	return readTable(ctx, content, aircraftColumns, func(rw row) error {
		if rw.err != nil {
			r.stats.Record(domain.MalformedOutcome(fmt.Sprintf("line %d: %v", rw.line, rw.err)))
			return nil
		}
		r.accept(domain.NormalizeAircraft(rw.record, domain.FormatAircraftTabular, now), batch)
		return nil
	})
}

func (r *AircraftReader) accept(n domain.Normalized[domain.AircraftRecord], batch *domain.Batch[domain.AircraftRecord]) {
	r.stats.Record(n.Outcome)
	if n.Outcome.Emitted() {
		batch.Records = append(batch.Records, n.Record)
	}
}
