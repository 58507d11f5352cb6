package feed

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/aisdecoder"
	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

var runTime = time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newVesselReader() *VesselReader {
	return NewVesselReader(aisdecoder.New(), clockwork.NewFakeClockAt(runTime), discardLogger())
}

func newAircraftReader() *AircraftReader {
	return NewAircraftReader(clockwork.NewFakeClockAt(runTime), discardLogger())
}

const sentenceFeed = `!AIVDM,1,1,,B,15M67FC000G?ufbE` + "`" + `FepT@3n00Sa,0*5C
!AIVDM,2,2,3,A,TB` + "`" + `:0000000000BP000000,0*4B
garbage line
!AIVDM,2,1,3,A,C52MJh00EEkvlH6kj` + "`" + `0qdeg0V:30VP,0*2D
!AIVDM,1,1
!AIVDM,2,7,3,A,ZZZZ,0*00
!AIVDM,2,1,9,B,15M67FC000G?ufbE,0*00
!AIVDM,1,1,,A,55O0W7` + "`" + `00001L@gCWGA2uItLth@DqtL5@F22220j1h742t0Ht0000000,0*00
`

func TestVesselReader_Sentences(t *testing.T) {
	r := newVesselReader()
	path := writeFile(t, "AIS.txt", sentenceFeed)

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatVesselSentence, batch.Format)
	assert.False(t, batch.Degraded)
	require.Len(t, batch.Records, 2)

	first := batch.Records[0]
	assert.Equal(t, "366053209", first.MMSI)
	assert.InDelta(t, 37.802118, first.Latitude, 1e-6)
	assert.Equal(t, "Restricted maneuverability", first.NavStatus)
	assert.Equal(t, runTime, first.Timestamp)
	assert.Equal(t, domain.StatusNormal, first.DataStatus)
	assert.Equal(t, domain.Unknown, first.CallSign)

	second := batch.Records[1]
	assert.Equal(t, "338123456", second.MMSI)
	assert.Equal(t, "SEA SPRITE", second.VesselName)
	assert.Equal(t, 37, second.VesselTypeCode)

	stats := r.CleaningStats()
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 2, stats.ValidRecords)
	assert.True(t, stats.Reconciled())

	counts := domain.CountDiagnostics(batch.Diagnostics)
	assert.Equal(t, 1, counts[domain.DiagNotSentence])
	assert.Equal(t, 2, counts[domain.DiagMalformedSentence], "short sentence and out-of-range fragment index")
	assert.Equal(t, 1, counts[domain.DiagNoPosition])
	assert.Equal(t, 1, counts[domain.DiagIncompleteMessage])
}

func TestVesselReader_Tabular(t *testing.T) {
	content := strings.Join([]string{
		"MMSI,BaseDateTime,LAT,LON,SOG,COG,Heading,VesselName,IMO,CallSign,VesselType,Status,Length,Width,Draft,Cargo,TransceiverClass",
		"367000001,2024-01-15T10:00:00,29.9,-90.1,10.5,180.0,179,EVER GIVEN,IMO9811000,WDC1234,70,0,120,20,5.5,70,A",
		"367000002,2024-01-15T10:01:00,30.0,-90.0,5,90,90,TUG,,,52,0,30,10,3,,B",
		"367000003,2024-01-15T10:02:00,95.0,-90.0,5,90,90,X,,CS,52,0,30,10,3,,B",
		`367000004,2024"x,30,-90`,
		"",
		"367000005,2024-01-15T10:04:00,30.2,-90.2,150,90,90,FAST,,CS5,40,0,30,10,3,,A",
	}, "\r\n")
	r := newVesselReader()
	path := writeFile(t, "AIS.csv", content)

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatVesselTabular, batch.Format)
	require.Len(t, batch.Records, 3)

	good := batch.Records[0]
	assert.Equal(t, "367000001", good.MMSI)
	assert.Equal(t, "EVER GIVEN", good.VesselName)
	assert.Equal(t, "WDC1234", good.CallSign)
	assert.Equal(t, "IMO9811000", good.IMO)
	assert.Equal(t, "A", good.TransceiverClass)
	assert.Equal(t, 120.0, good.Length)
	assert.Equal(t, 70, good.VesselTypeCode)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), good.Timestamp)
	assert.Equal(t, domain.StatusNormal, good.DataStatus)

	noCall := batch.Records[1]
	assert.Equal(t, domain.StatusWarning, noCall.DataStatus)
	assert.Equal(t, domain.Unknown, noCall.CallSign)
	assert.Equal(t, domain.Unknown, noCall.IMO)

	fast := batch.Records[2]
	assert.Equal(t, domain.MaxVesselSOG, fast.SOG)

	stats := r.CleaningStats()
	assert.Equal(t, 5, stats.TotalRecords)
	assert.Equal(t, 1, stats.ValidRecords)
	assert.Equal(t, 2, stats.WarningRecords)
	assert.Equal(t, 2, stats.ErrorRecords)
	assert.Equal(t, 1, stats.ErrorsByType[domain.CatLatitudeOutOfRange])
	assert.Equal(t, 1, stats.ErrorsByType[domain.CatMalformedRecord])
	assert.Equal(t, 1, stats.WarningsByType[domain.CatMissingCallSign])
	assert.Equal(t, 1, stats.WarningsByType[domain.CatSpeedAboveMax])
}

func TestVesselReader_Degraded(t *testing.T) {
	r := newVesselReader()
	path := writeFile(t, "vessels.txt", `{"latitude": 1, "longitude": 2}`+"\n")

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, batch.Degraded)
	assert.Equal(t, domain.FormatVesselSentence, batch.Format)
	assert.Empty(t, batch.Records)
	counts := domain.CountDiagnostics(batch.Diagnostics)
	assert.Equal(t, 1, counts[domain.DiagDegradedFormat])
	assert.Equal(t, 1, counts[domain.DiagNotSentence])
}

func TestVesselReader_ByteOrderMark(t *testing.T) {
	r := newVesselReader()
	path := writeFile(t, "AIS.txt", "\ufeff!AIVDM,1,1,,B,15M67FC000G?ufbE`FepT@3n00Sa,0*5C\r\n")

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, batch.Degraded)
	assert.Len(t, batch.Records, 1)
}

func TestVesselReader_StatsResetPerFile(t *testing.T) {
	r := newVesselReader()
	first := writeFile(t, "a.txt", sentenceFeed)
	second := writeFile(t, "b.txt", "!AIVDM,1,1,,B,15M67FC000G?ufbE`FepT@3n00Sa,0*5C\n")

	_, err := r.DecodeFile(context.Background(), first)
	require.NoError(t, err)
	_, err = r.DecodeFile(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 1, r.CleaningStats().TotalRecords)
}

func TestVesselReader_MissingFile(t *testing.T) {
	r := newVesselReader()

	batch, err := r.DecodeFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))

	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, batch.Records)
	assert.Zero(t, r.CleaningStats().TotalRecords)
}

func TestVesselReader_InvalidEncoding(t *testing.T) {
	r := newVesselReader()
	path := writeFile(t, "AIS.txt", "!AIVDM,1,1,,B,\xff\xfe,0*00\n")

	_, err := r.DecodeFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadableEncoding)
}

func TestVesselReader_Cancelled(t *testing.T) {
	r := newVesselReader()
	path := writeFile(t, "AIS.txt", sentenceFeed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.DecodeFile(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAircraftReader_JSONL(t *testing.T) {
	content := strings.Join([]string{
		`{"aircraft_id":"A1","latitude":40.0,"longitude":-74.0,"altitude_ft":35000,"ground_speed_kts":450,"heading_deg":90,"aircraft_tail":"N123","year":2024,"month":1,"day":15,"hour":12,"minute":30,"second":15.5}`,
		`{"aircraft_id":"A2","latitude":41,"longitude":-73,"altitude_ft":-100,"ground_speed_kts":200,"heading_deg":10,"aircraft_tail":"N2"}`,
		`not json`,
		`{"aircraft_id":"A3","latitude":42,"longitude":-72,"altitude_ft":70000,"ground_speed_kts":900,"heading_deg":370,"aircraft_tail":"N3","timestamp":"2024-01-15T12:00:00Z"}`,
		``,
	}, "\n")
	r := newAircraftReader()
	path := writeFile(t, "ADSB.jsonl", content)

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatAircraftJSONL, batch.Format)
	require.Len(t, batch.Records, 2)

	a1 := batch.Records[0]
	assert.Equal(t, "A1", a1.AircraftID)
	assert.Equal(t, "N123", a1.AircraftTail)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 30, 15, 500000000, time.UTC), a1.Timestamp)
	assert.Equal(t, domain.StatusNormal, a1.DataStatus)

	a3 := batch.Records[1]
	assert.Equal(t, domain.StatusWarning, a3.DataStatus)
	assert.Equal(t, domain.MaxAircraftAltitude, a3.AltitudeFt)
	assert.Equal(t, domain.MaxAircraftSpeed, a3.GroundSpeedKts)
	assert.Equal(t, 10.0, a3.HeadingDeg)

	stats := r.CleaningStats()
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 1, stats.ValidRecords)
	assert.Equal(t, 1, stats.WarningRecords)
	assert.Equal(t, 2, stats.ErrorRecords)
	assert.Equal(t, 1, stats.ErrorsByType[domain.CatNegativeAltitude])
	assert.Equal(t, 1, stats.ErrorsByType[domain.CatMalformedRecord])
	assert.True(t, stats.Reconciled())
}

func TestAircraftReader_Tabular(t *testing.T) {
	content := "aircraft_id,latitude,longitude,altitude_ft,ground_speed_kts,heading_deg,aircraft_tail,timestamp\n" +
		"B1,51.5,-0.12,12000,300,270,G-ABCD,2024-01-15T08:00:00Z\n" +
		"B2,51.6,-0.1,12000,300,270,,2024-01-15T08:00:00Z\n"
	r := newAircraftReader()
	path := writeFile(t, "ADSB.csv", content)

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatAircraftTabular, batch.Format)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, "G-ABCD", batch.Records[0].AircraftTail)
	assert.Equal(t, domain.Unknown, batch.Records[1].AircraftTail)
	assert.Equal(t, 1, r.CleaningStats().WarningsByType[domain.CatMissingTailNumber])
}

func TestAircraftReader_Degraded(t *testing.T) {
	r := newAircraftReader()
	path := writeFile(t, "ADSB.txt", "MMSI,LAT,LON\n1,2,3\n")

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, batch.Degraded)
	assert.Equal(t, domain.FormatAircraftJSONL, batch.Format)
	assert.Empty(t, batch.Records)
	assert.Equal(t, 2, r.CleaningStats().ErrorsByType[domain.CatMalformedRecord])
}

func TestAircraftReader_EmptyFile(t *testing.T) {
	r := newAircraftReader()
	path := writeFile(t, "ADSB.jsonl", "")

	batch, err := r.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, batch.Records)
	assert.Zero(t, r.CleaningStats().TotalRecords)
}
