package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// vesselColumns maps tabular vessel headers to canonical field names.
var vesselColumns = map[string]string{
	"MMSI":             domain.FieldMMSI,
	"BaseDateTime":     domain.FieldTimestamp,
	"LAT":              domain.FieldLat,
	"LON":              domain.FieldLon,
	"SOG":              domain.FieldSOG,
	"COG":              domain.FieldCOG,
	"Heading":          domain.FieldHeading,
	"VesselName":       domain.FieldVesselName,
	"IMO":              domain.FieldIMO,
	"CallSign":         domain.FieldCallSign,
	"VesselType":       domain.FieldVesselType,
	"Status":           domain.FieldNavStatus,
	"Length":           domain.FieldLength,
	"Width":            domain.FieldWidth,
	"Draft":            domain.FieldDraft,
	"Cargo":            domain.FieldCargo,
	"TransceiverClass": domain.FieldTransceiverClass,
}

// VesselReader decodes vessel feeds. It is not safe for concurrent use.
type VesselReader struct {
	decoder domain.PayloadDecoder
	clock   clockwork.Clock
	logger  *slog.Logger
	stats   domain.CleaningStats
}

// NewVesselReader creates a reader that hands reassembled sentence messages
// to decoder.
func NewVesselReader(decoder domain.PayloadDecoder, clock clockwork.Clock, logger *slog.Logger) *VesselReader {
	return &VesselReader{
		decoder: decoder,
		clock:   clock,
		logger:  logger,
		stats:   domain.NewCleaningStats(),
	}
}

// CleaningStats returns the statistics of the most recent DecodeFile call.
func (r *VesselReader) CleaningStats() domain.CleaningStats {
	return r.stats
}

// DecodeFile sniffs, decodes and cleans one vessel file.
func (r *VesselReader) DecodeFile(ctx context.Context, path string) (domain.Batch[domain.VesselRecord], error) {
	r.stats = domain.NewCleaningStats()
	batch := domain.Batch[domain.VesselRecord]{Path: path, Records: []domain.VesselRecord{}}

	content, err := readContent(path)
	if err != nil {
		return batch, err
	}
	lines := splitLines(content)

	batch.Format, batch.Degraded = resolve(domain.SourceVessel, lines)
	if batch.Degraded {
		batch.Diagnose(domain.DiagDegradedFormat, 0, "format not recognized, decoding as sentences")
		r.logger.Warn("vessel format ambiguous, using sentence decoder", "path", path)
	}

	now := r.clock.Now().UTC()
	if batch.Format == domain.FormatVesselTabular {
		err = r.decodeTabular(ctx, content, now, &batch)
	} else {
		err = r.decodeSentences(ctx, lines, now, &batch)
	}
	if err != nil {
		return batch, fmt.Errorf("decode %s: %w", path, err)
	}

	r.logger.Info("vessel file decoded",
		"path", path,
		"format", batch.Format,
		"records", len(batch.Records),
		"errors", r.stats.ErrorRecords,
		"warnings", r.stats.WarningRecords,
		"diagnostics", len(batch.Diagnostics),
	)
	return batch, nil
}

func (r *VesselReader) decodeSentences(ctx context.Context, lines []string, now time.Time, batch *domain.Batch[domain.VesselRecord]) error {
	re := domain.NewReassembler()

	for i, line := range lines {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 1

		f, err := domain.ParseSentence(line)
		switch {
		case errors.Is(err, domain.ErrNotSentence):
			batch.Diagnose(domain.DiagNotSentence, lineNo, truncate(line))
			continue
		case err != nil:
			batch.Diagnose(domain.DiagMalformedSentence, lineNo, err.Error())
			continue
		}
		f.Line = lineNo

		msg, complete := re.Add(f)
		if !complete {
			continue
		}

		raw, err := r.decoder.Decode(msg)
		switch {
		case errors.Is(err, domain.ErrNoResult):
			batch.Diagnose(domain.DiagNoPosition, msg.FirstLine, err.Error())
			continue
		case err != nil:
			batch.Diagnose(domain.DiagDecodeFailed, msg.FirstLine, err.Error())
			continue
		}
		r.accept(domain.NormalizeVessel(raw, domain.FormatVesselSentence, now), batch)
	}

	for _, inc := range re.Flush() {
		batch.Diagnose(domain.DiagIncompleteMessage, inc.FirstLine,
			fmt.Sprintf("seq %q channel %q: %d of %d fragments", inc.Seq, inc.Channel, inc.Received, inc.Total))
	}
	return nil
}

func (r *VesselReader) decodeTabular(ctx context.Context, content string, now time.Time, batch *domain.Batch[domain.VesselRecord]) error {
	return readTable(ctx, content, vesselColumns, func(rw row) error {
		if rw.err != nil {
			r.stats.Record(domain.MalformedOutcome(fmt.Sprintf("line %d: %v", rw.line, rw.err)))
			return nil
		}
		r.accept(domain.NormalizeVessel(rw.record, domain.FormatVesselTabular, now), batch)
		return nil
	})
}

func (r *VesselReader) accept(n domain.Normalized[domain.VesselRecord], batch *domain.Batch[domain.VesselRecord]) {
	r.stats.Record(n.Outcome)
	if n.Outcome.Emitted() {
		batch.Records = append(batch.Records, n.Record)
	}
}

func truncate(s string) string {
	const limit = 50
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit]) + "..."
}
