package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geotelemetry-etl/internal/config"
	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// publishChunk bounds the number of messages per WriteMessages call.
const publishChunk = 500

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per emitted record of a document.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every vessel and aircraft record of doc and writes them
// in chunks. Records keep their source type in the key so a key-hash balancer
// groups one vessel or aircraft on one partition.
func (w *Writer) Publish(ctx context.Context, doc *domain.Document) error {
	msgs, err := documentMessages(doc)
	if err != nil {
		return err
	}
	for start := 0; start < len(msgs); start += publishChunk {
		end := min(start+publishChunk, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("write messages %d-%d: %w", start, end, err)
		}
	}
	w.logger.Info("records published", "run_id", doc.Metadata.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func documentMessages(doc *domain.Document) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(doc.VesselData)+len(doc.AircraftData))
	meta := doc.Metadata
	for i := range doc.VesselData {
		v := &doc.VesselData[i]
		msg, err := serializeToMessage("vessel:"+v.MMSI, v, domain.SourceVessel, v.SourceFormat, v.DataStatus, meta)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for i := range doc.AircraftData {
		a := &doc.AircraftData[i]
		msg, err := serializeToMessage("aircraft:"+a.AircraftID, a, domain.SourceAircraft, a.SourceFormat, a.DataStatus, meta)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals one record into a Kafka message.
func serializeToMessage(key string, record any, source domain.SourceType, format domain.SourceFormat, status domain.Status, meta domain.Metadata) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record: %w", source, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_type", Value: []byte(source)},
			{Key: "source_format", Value: []byte(format)},
			{Key: "data_status", Value: []byte(status)},
			{Key: "run_id", Value: []byte(meta.RunID)},
			{Key: "processed_at", Value: []byte(meta.ProcessingTime.Format(time.RFC3339))},
		},
	}, nil
}
