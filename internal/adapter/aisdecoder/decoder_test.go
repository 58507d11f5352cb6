package aisdecoder

import (
	"errors"
	"testing"

	ais "github.com/BertoldVdb/go-ais"
	"github.com/BertoldVdb/go-ais/aisnmea"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_ClassA(t *testing.T) {
	r, err := DecodePayload("15M67FC000G?ufbE`FepT@3n00Sa", 0)

	require.NoError(t, err)
	assert.Equal(t, 1, r.Type)
	assert.Equal(t, uint32(366053209), r.MMSI)
	assert.Equal(t, 3, r.NavStatus)
	assert.Equal(t, 0.0, r.SOG)
	assert.InDelta(t, 37.802118, r.Lat, 1e-6)
	assert.InDelta(t, -122.341618, r.Lon, 1e-6)
	assert.InDelta(t, 219.3, r.COG, 1e-9)
	assert.Equal(t, 1, r.Heading)
	assert.Equal(t, 59, r.Second)
}

func TestDecoder_Decode(t *testing.T) {
	raw, err := New().Decode(domain.Message{Payload: "15M67FC000G?ufbE`FepT@3n00Sa"})

	require.NoError(t, err)
	assert.Equal(t, "366053209", raw[domain.FieldMMSI])
	assert.InDelta(t, 37.802118, raw[domain.FieldLat], 1e-6)
	assert.InDelta(t, -122.341618, raw[domain.FieldLon], 1e-6)
	assert.Equal(t, 0.0, raw[domain.FieldSOG])
	assert.Equal(t, 1.0, raw[domain.FieldHeading])
	assert.Equal(t, 3, raw[domain.FieldNavStatus])
	assert.NotContains(t, raw, domain.FieldVesselType)
}

func TestDecoder_NotAvailableValues(t *testing.T) {
	// Type 1 with lat 91 / lon 181.
	_, err := New().Decode(domain.Message{Payload: "11mg=5@P?w<tSF0l4Q@>4?wp0000"})
	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestDecoder_OmitsUnavailableSpeedCourseHeading(t *testing.T) {
	payload, fill, err := Encode(PositionReport{
		Type: 1, MMSI: 211000001, SOG: -1, COG: -1, Heading: 511, Lat: 54.1, Lon: 10.2,
	})
	require.NoError(t, err)

	raw, err := New().Decode(domain.Message{Payload: payload, Fill: fill})

	require.NoError(t, err)
	assert.NotContains(t, raw, domain.FieldSOG)
	assert.NotContains(t, raw, domain.FieldCOG)
	assert.NotContains(t, raw, domain.FieldHeading)
}

func TestDecodePayload_ExtendedClassB(t *testing.T) {
	r, err := DecodePayload("C52MJh00EEkvlH6kj`0qdeg0V:30VPTB`:0000000000BP000000", 0)

	require.NoError(t, err)
	assert.Equal(t, 19, r.Type)
	assert.Equal(t, uint32(338123456), r.MMSI)
	assert.InDelta(t, 8.5, r.SOG, 1e-9)
	assert.InDelta(t, 47.6, r.Lat, 1e-9)
	assert.InDelta(t, -122.35, r.Lon, 1e-9)
	assert.InDelta(t, 92.3, r.COG, 1e-9)
	assert.Equal(t, 91, r.Heading)
	assert.Equal(t, "SEA SPRITE", r.Name)
	assert.Equal(t, 37, r.ShipType)
}

func TestDecodePayload_LongRange(t *testing.T) {
	payload, fill, err := Encode(PositionReport{
		Type: 27, MMSI: 503000123, NavStatus: 1, SOG: 11, COG: 270, Lat: -33.85, Lon: 151.2,
	})
	require.NoError(t, err)
	assert.Len(t, payload, 16)

	r, err := DecodePayload(payload, fill)

	require.NoError(t, err)
	assert.Equal(t, 27, r.Type)
	assert.Equal(t, uint32(503000123), r.MMSI)
	assert.Equal(t, 1, r.NavStatus)
	assert.InDelta(t, -33.85, r.Lat, 1.0/600)
	assert.InDelta(t, 151.2, r.Lon, 1.0/600)
	assert.Equal(t, 11.0, r.SOG)
	assert.Equal(t, 270.0, r.COG)
	assert.Equal(t, 511, r.Heading)
}

func TestDecodePayload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"invalid character", "15M67FC000G?ufbE`Fe~T@3n00Sa", ErrInvalidPayload},
		{"too short", "15M67", ErrTruncated},
		{"truncated class A", "15M67FC000G?ufbE", ErrTruncated},
		{"static voyage data", "55O0W7`00001L@gCWGA2uItLth@DqtL5@F22220j1h742t0Ht0000000", domain.ErrNoResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.payload, 0)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEncode_ClassAMatchesReference(t *testing.T) {
	payload, fill, err := Encode(PositionReport{
		Type: 1, MMSI: 227006760, SOG: 12.3, COG: 45.6, Heading: 44, Lat: 49.475, Lon: 0.13138, Second: 20,
	})

	require.NoError(t, err)
	assert.Equal(t, "13HOI:0P1s00VOHLCm21j1H`0000", payload)
	assert.Equal(t, 0, fill)
}

func TestEncode_UnsupportedType(t *testing.T) {
	_, _, err := Encode(PositionReport{Type: 5})
	assert.Error(t, err)
}

func TestSentences(t *testing.T) {
	t.Run("single part matches a real sentence", func(t *testing.T) {
		got := Sentences("15M67FC000G?ufbE`FepT@3n00Sa", 0, 0, "B", 60)
		assert.Equal(t, []string{"!AIVDM,1,1,,B,15M67FC000G?ufbE`FepT@3n00Sa,0*5C"}, got)
	})

	t.Run("multi part", func(t *testing.T) {
		got := Sentences("C52MJh00EEkvlH6kj`0qdeg0V:30VPTB`:0000000000BP000000", 0, 3, "A", 30)
		assert.Equal(t, []string{
			"!AIVDM,2,1,3,A,C52MJh00EEkvlH6kj`0qdeg0V:30VP,0*2D",
			"!AIVDM,2,2,3,A,TB`:0000000000BP000000,0*4B",
		}, got)
	})
}

func TestSentences_ReassembleAndDecode(t *testing.T) {
	lines := Sentences("C52MJh00EEkvlH6kj`0qdeg0V:30VPTB`:0000000000BP000000", 0, 7, "B", 20)
	require.Len(t, lines, 3)

	r := domain.NewReassembler()
	var msg domain.Message
	var complete bool
	for i := len(lines) - 1; i >= 0; i-- {
		f, err := domain.ParseSentence(lines[i])
		require.NoError(t, err)
		f.Line = i + 1
		msg, complete = r.Add(f)
	}
	require.True(t, complete)

	raw, err := New().Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, "338123456", raw[domain.FieldMMSI])
	assert.Equal(t, "SEA SPRITE", raw[domain.FieldVesselName])
	assert.Equal(t, 37, raw[domain.FieldVesselType])
}

func TestEncode_ClassBRoundTrip(t *testing.T) {
	payload, fill, err := Encode(PositionReport{
		Type: 18, MMSI: 367000003, SOG: 4.2, COG: 181.5, Heading: 180, Lat: 29.95, Lon: -90.07, Second: 12,
	})
	require.NoError(t, err)
	assert.Len(t, payload, 28)

	r, err := DecodePayload(payload, fill)

	require.NoError(t, err)
	assert.Equal(t, 18, r.Type)
	assert.Equal(t, uint32(367000003), r.MMSI)
	assert.Equal(t, navStatusUndefined, r.NavStatus)
	assert.InDelta(t, 4.2, r.SOG, 1e-9)
	assert.InDelta(t, 181.5, r.COG, 1e-9)
	assert.InDelta(t, 29.95, r.Lat, 1e-6)
	assert.InDelta(t, -90.07, r.Lon, 1e-6)
	assert.Equal(t, 180, r.Heading)
	assert.Equal(t, 12, r.Second)
}

func TestSentences_ReadableByNMEACodec(t *testing.T) {
	payload, fill, err := Encode(PositionReport{
		Type: 1, MMSI: 227006760, SOG: 12.3, COG: 45.6, Heading: 44, Lat: 49.475, Lon: 0.13138, Second: 20,
	})
	require.NoError(t, err)
	lines := Sentences(payload, fill, 0, "A", 60)
	require.Len(t, lines, 1)

	nm := aisnmea.NMEACodecNew(ais.CodecNew(false, true))
	vdm, err := nm.ParseSentence(lines[0])

	require.NoError(t, err)
	require.NotNil(t, vdm)
	pr, ok := vdm.Packet.(*ais.PositionReport)
	require.True(t, ok, "got %T", vdm.Packet)
	assert.Equal(t, uint32(227006760), uint32(pr.UserID))
	assert.InDelta(t, 49.475, float64(pr.Latitude), 1e-6)
	assert.InDelta(t, 12.3, float64(pr.Sog), 1e-9)
}

type countingDecoder struct {
	calls int
}

func (d *countingDecoder) Decode(msg domain.Message) (domain.RawRecord, error) {
	d.calls++
	if msg.Payload == "bad" {
		return nil, domain.ErrNoResult
	}
	return domain.RawRecord{domain.FieldMMSI: msg.Payload}, nil
}

func TestCachedDecoder(t *testing.T) {
	inner := &countingDecoder{}
	c := NewCachedDecoder(inner, 10)

	r1, err := c.Decode(domain.Message{Payload: "abc"})
	require.NoError(t, err)
	r1[domain.FieldLat] = 1.0 // callers may mutate their copy

	r2, err := c.Decode(domain.Message{Payload: "abc"})
	require.NoError(t, err)
	assert.NotContains(t, r2, domain.FieldLat)
	assert.Equal(t, 1, inner.calls, "should only call inner once")

	_, err = c.Decode(domain.Message{Payload: "abc", Fill: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "fill bits are part of the key")

	_, err = c.Decode(domain.Message{Payload: "bad"})
	assert.ErrorIs(t, err, domain.ErrNoResult)
	_, err = c.Decode(domain.Message{Payload: "bad"})
	assert.ErrorIs(t, err, domain.ErrNoResult)
	assert.Equal(t, 3, inner.calls, "errors are cached too")
}
