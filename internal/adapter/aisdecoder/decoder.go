// Package aisdecoder decodes the AIS position report payloads carried by
// !AIVDM/!AIVDO sentences (ITU-R M.1371 message types 1, 2, 3, 18, 19 and
// 27) into raw vessel field maps.
package aisdecoder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	ais "github.com/BertoldVdb/go-ais"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

var (
	// ErrInvalidPayload is returned when a payload holds characters outside the
	// AIS six-bit armoring alphabet.
	ErrInvalidPayload = errors.New("invalid payload character")

	// ErrTruncated is returned when a payload is shorter than its message type requires.
	ErrTruncated = errors.New("payload truncated")
)

// "Not available" raw values.
const (
	latNotAvailable     = 91 * 600000
	lonNotAvailable     = 181 * 600000
	sogNotAvailable     = 1023
	cogNotAvailable     = 3600
	headingNotAvailable = 511
	navStatusUndefined  = 15
	longLatNotAvailable = 91 * 600
	longLonNotAvailable = 181 * 600
	longSOGNotAvailable = 63
	longCOGNotAvailable = 511
	rotNotAvailable     = -128
)

// PositionReport is the decoded content of one position-bearing message.
// Unavailable speed and course are negative; an unavailable heading is 511.
type PositionReport struct {
	Type      int
	MMSI      uint32
	NavStatus int
	SOG       float64
	COG       float64
	Heading   int
	Lat       float64
	Lon       float64
	Second    int
	ShipType  int    // type 19 only
	Name      string // type 19 only
}

// Decoder implements domain.PayloadDecoder for position reports.
type Decoder struct {
	codec *ais.Codec
}

// New returns a Decoder.
func New() *Decoder {
	return &Decoder{codec: newCodec()}
}

// Non-strict decoding accepts over-long payloads; short ones come back with
// Valid unset.
func newCodec() *ais.Codec {
	return ais.CodecNew(false, true)
}

// Decode turns a reassembled message into a raw vessel record. Messages that
// carry no position, or whose position is flagged not available, yield
// domain.ErrNoResult.
func (d *Decoder) Decode(msg domain.Message) (domain.RawRecord, error) {
	r, err := d.decode(msg.Payload, msg.Fill)
	if err != nil {
		return nil, err
	}
	return r.rawRecord(), nil
}

// DecodePayload de-armors a payload and decodes it as a position report.
func DecodePayload(payload string, fill int) (PositionReport, error) {
	return New().decode(payload, fill)
}

func (d *Decoder) decode(payload string, fill int) (PositionReport, error) {
	b, err := unarmor(payload, fill)
	if err != nil {
		return PositionReport{}, err
	}
	if len(b) < 38 {
		return PositionReport{}, fmt.Errorf("%w: %d bits", ErrTruncated, len(b))
	}

	msgType := int(b[0])<<5 | int(b[1])<<4 | int(b[2])<<3 | int(b[3])<<2 | int(b[4])<<1 | int(b[5])
	if !supported(msgType) {
		return PositionReport{}, fmt.Errorf("message type %d: %w", msgType, domain.ErrNoResult)
	}

	var r PositionReport
	switch p := d.codec.DecodePacket(b).(type) {
	case *ais.PositionReport:
		r, err = fromClassA(p)
	case *ais.StandardClassBPositionReport:
		r, err = fromClassB(p)
	case *ais.ExtendedClassBPositionReport:
		r, err = fromExtendedClassB(p)
	case *ais.LongRangeAisBroadcastMessage:
		r, err = fromLongRange(p)
	default:
		return PositionReport{}, fmt.Errorf("%w: type %d, %d bits", ErrTruncated, msgType, len(b))
	}
	if err != nil {
		return PositionReport{}, err
	}
	r.Type = msgType
	return r, nil
}

func supported(msgType int) bool {
	switch msgType {
	case 1, 2, 3, 18, 19, 27:
		return true
	}
	return false
}

func fromClassA(p *ais.PositionReport) (PositionReport, error) {
	if !p.Valid {
		return PositionReport{}, fmt.Errorf("%w: type %d", ErrTruncated, p.MessageID)
	}
	lat, lon := float64(p.Latitude), float64(p.Longitude)
	if fineNotAvailable(lat, lon) {
		return PositionReport{}, fmt.Errorf("position not available: %w", domain.ErrNoResult)
	}
	return PositionReport{
		MMSI:      uint32(p.UserID),
		NavStatus: int(p.NavigationalStatus),
		SOG:       tenths(float64(p.Sog), sogNotAvailable),
		COG:       tenths(float64(p.Cog), cogNotAvailable),
		Heading:   int(p.TrueHeading),
		Lat:       lat,
		Lon:       lon,
		Second:    int(p.Timestamp),
	}, nil
}

func fromClassB(p *ais.StandardClassBPositionReport) (PositionReport, error) {
	if !p.Valid {
		return PositionReport{}, fmt.Errorf("%w: type 18", ErrTruncated)
	}
	lat, lon := float64(p.Latitude), float64(p.Longitude)
	if fineNotAvailable(lat, lon) {
		return PositionReport{}, fmt.Errorf("position not available: %w", domain.ErrNoResult)
	}
	return PositionReport{
		MMSI:      uint32(p.UserID),
		NavStatus: navStatusUndefined,
		SOG:       tenths(float64(p.Sog), sogNotAvailable),
		COG:       tenths(float64(p.Cog), cogNotAvailable),
		Heading:   int(p.TrueHeading),
		Lat:       lat,
		Lon:       lon,
		Second:    int(p.Timestamp),
	}, nil
}

func fromExtendedClassB(p *ais.ExtendedClassBPositionReport) (PositionReport, error) {
	if !p.Valid {
		return PositionReport{}, fmt.Errorf("%w: type 19", ErrTruncated)
	}
	lat, lon := float64(p.Latitude), float64(p.Longitude)
	if fineNotAvailable(lat, lon) {
		return PositionReport{}, fmt.Errorf("position not available: %w", domain.ErrNoResult)
	}
	return PositionReport{
		MMSI:      uint32(p.UserID),
		NavStatus: navStatusUndefined,
		SOG:       tenths(float64(p.Sog), sogNotAvailable),
		COG:       tenths(float64(p.Cog), cogNotAvailable),
		Heading:   int(p.TrueHeading),
		Lat:       lat,
		Lon:       lon,
		Second:    int(p.Timestamp),
		Name:      strings.TrimSpace(strings.TrimRight(p.Name, "@")),
		ShipType:  int(p.Type),
	}, nil
}

func fromLongRange(p *ais.LongRangeAisBroadcastMessage) (PositionReport, error) {
	if !p.Valid {
		return PositionReport{}, fmt.Errorf("%w: type 27", ErrTruncated)
	}
	lat, lon := float64(p.Latitude), float64(p.Longitude)
	if math.Round(lat*600) == longLatNotAvailable || math.Round(lon*600) == longLonNotAvailable {
		return PositionReport{}, fmt.Errorf("position not available: %w", domain.ErrNoResult)
	}
	r := PositionReport{
		MMSI:      uint32(p.UserID),
		NavStatus: int(p.NavigationalStatus),
		Lat:       lat,
		Lon:       lon,
		SOG:       -1,
		COG:       -1,
		Heading:   headingNotAvailable,
	}
	if p.Sog != longSOGNotAvailable {
		r.SOG = float64(p.Sog)
	}
	if p.Cog != longCOGNotAvailable {
		r.COG = float64(p.Cog)
	}
	return r, nil
}

func fineNotAvailable(lat, lon float64) bool {
	return math.Round(lat*600000) == latNotAvailable || math.Round(lon*600000) == lonNotAvailable
}

// tenths returns -1 when the scaled value carries the raw not-available code.
func tenths(v float64, notAvailable int) float64 {
	if int(math.Round(v*10)) == notAvailable {
		return -1
	}
	return v
}

// rawRecord maps a report to canonical vessel fields, omitting values the
// transmitter flagged as not available.
func (r PositionReport) rawRecord() domain.RawRecord {
	raw := domain.RawRecord{
		domain.FieldMMSI:      strconv.FormatUint(uint64(r.MMSI), 10),
		domain.FieldLat:       r.Lat,
		domain.FieldLon:       r.Lon,
		domain.FieldNavStatus: r.NavStatus,
	}
	if r.SOG >= 0 {
		raw[domain.FieldSOG] = r.SOG
	}
	if r.COG >= 0 {
		raw[domain.FieldCOG] = r.COG
	}
	if r.Heading != headingNotAvailable {
		raw[domain.FieldHeading] = float64(r.Heading)
	}
	if r.Type == 19 {
		raw[domain.FieldVesselType] = r.ShipType
		if r.Name != "" {
			raw[domain.FieldVesselName] = r.Name
		}
	}
	return raw
}

// unarmor expands a sentence payload into the one-bit-per-byte form the codec
// reads, dropping the trailing fill bits.
func unarmor(payload string, fill int) ([]byte, error) {
	out := make([]byte, 0, len(payload)*6)
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c < '0' || c > 'w' || (c > 'W' && c < '`') {
			return nil, fmt.Errorf("%w %q at %d", ErrInvalidPayload, c, i)
		}
		v := c - '0'
		if v > 40 {
			v -= 8
		}
		for shift := 5; shift >= 0; shift-- {
			out = append(out, (v>>shift)&1)
		}
	}
	if fill > 0 && fill <= 5 && fill <= len(out) {
		out = out[:len(out)-fill]
	}
	return out, nil
}
