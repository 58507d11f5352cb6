package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func validVesselRaw() RawRecord {
	return RawRecord{
		FieldMMSI:       "367123450",
		FieldLat:        "37.8",
		FieldLon:        "-122.4",
		FieldSOG:        "12.5",
		FieldCOG:        "181.2",
		FieldHeading:    "180",
		FieldNavStatus:  "0",
		FieldVesselType: "70",
		FieldTimestamp:  "2024-06-01T11:30:00",
		FieldCallSign:   "WDA1234",
		FieldVesselName: "PACIFIC TRADER",
		FieldLength:     "180.5",
	}
}

func validAircraftRaw() RawRecord {
	return RawRecord{
		FieldAircraftID:   "A1B2C3",
		FieldLat:          40.64,
		FieldLon:          -73.78,
		FieldAltitude:     35000.0,
		FieldGroundSpeed:  450.0,
		FieldHeadingDeg:   90.0,
		FieldAircraftTail: "N12345",
		FieldTimestamp:    "2024-06-01T11:59:00Z",
	}
}

func TestNormalizeVessel_Valid(t *testing.T) {
	got := NormalizeVessel(validVesselRaw(), FormatVesselTabular, runTime)

	assert.Equal(t, StatusNormal, got.Outcome.Status)
	assert.Empty(t, got.Outcome.Categories)
	assert.Empty(t, got.Record.CleaningNotes)
	assert.NotNil(t, got.Record.CleaningNotes)

	rec := got.Record
	assert.Equal(t, "367123450", rec.MMSI)
	assert.Equal(t, 37.8, rec.Latitude)
	assert.Equal(t, -122.4, rec.Longitude)
	assert.Equal(t, 12.5, rec.SOG)
	assert.Equal(t, 181.2, rec.COG)
	assert.Equal(t, 180.0, rec.Heading)
	assert.Equal(t, "Under way using engine", rec.NavStatus)
	assert.Equal(t, "Cargo", rec.VesselType)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 30, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, "PACIFIC TRADER", rec.VesselName)
	assert.Equal(t, "WDA1234", rec.CallSign)
	assert.Equal(t, Unknown, rec.IMO)
	assert.Equal(t, 180.5, rec.Length)
	assert.Equal(t, StatusNormal, rec.DataStatus)
	assert.Equal(t, FormatVesselTabular, rec.SourceFormat)
}

func TestNormalizeVessel_PositionGates(t *testing.T) {
	tests := []struct {
		name string
		lat  any
		lon  any
		want Category
	}{
		{"latitude too high", "90.5", "10", CatLatitudeOutOfRange},
		{"latitude too low", -91.0, 10.0, CatLatitudeOutOfRange},
		{"longitude too high", "10", "180.01", CatLongitudeOutOfRange},
		{"longitude too low", 10.0, -200.0, CatLongitudeOutOfRange},
		{"missing latitude", nil, "10", CatMissingPosition},
		{"blank longitude", "10", " ", CatMissingPosition},
		{"non-numeric latitude", "abc", "10", CatInvalidPosition},
		{"unsupported type", true, "10", CatInvalidPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validVesselRaw()
			raw[FieldLat] = tt.lat
			raw[FieldLon] = tt.lon
			if tt.lat == nil {
				delete(raw, FieldLat)
			}

			got := NormalizeVessel(raw, FormatVesselTabular, runTime)

			assert.Equal(t, StatusError, got.Outcome.Status)
			assert.False(t, got.Outcome.Emitted())
			assert.Equal(t, []Category{tt.want}, got.Outcome.Categories)
		})
	}
}

func TestNormalizeVessel_ErrorStopsChain(t *testing.T) {
	raw := validVesselRaw()
	raw[FieldLat] = "95"
	delete(raw, FieldMMSI)
	raw[FieldSOG] = "-3"

	got := NormalizeVessel(raw, FormatVesselTabular, runTime)

	assert.Equal(t, StatusError, got.Outcome.Status)
	assert.Equal(t, []Category{CatLatitudeOutOfRange}, got.Outcome.Categories)
	assert.Len(t, got.Outcome.Notes, 1)
}

func TestNormalizeVessel_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(RawRecord)
		want   []Category
		check  func(t *testing.T, rec VesselRecord)
	}{
		{
			name:   "missing MMSI",
			mutate: func(r RawRecord) { delete(r, FieldMMSI) },
			want:   []Category{CatMissingIdentifier},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, Unknown, rec.MMSI) },
		},
		{
			name:   "null island",
			mutate: func(r RawRecord) { r[FieldLat] = "0"; r[FieldLon] = "0" },
			want:   []Category{CatNullIsland},
		},
		{
			name:   "negative speed",
			mutate: func(r RawRecord) { r[FieldSOG] = "-1.5" },
			want:   []Category{CatNegativeSpeed},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, 0.0, rec.SOG) },
		},
		{
			name:   "speed above max",
			mutate: func(r RawRecord) { r[FieldSOG] = "150" },
			want:   []Category{CatSpeedAboveMax},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, MaxVesselSOG, rec.SOG) },
		},
		{
			name:   "course 370",
			mutate: func(r RawRecord) { r[FieldCOG] = "370" },
			want:   []Category{CatCourseOutOfRange},
			check:  func(t *testing.T, rec VesselRecord) { assert.InDelta(t, 10.0, rec.COG, 1e-9) },
		},
		{
			name:   "heading -10",
			mutate: func(r RawRecord) { r[FieldHeading] = "-10" },
			want:   []Category{CatHeadingOutOfRange},
			check:  func(t *testing.T, rec VesselRecord) { assert.InDelta(t, 350.0, rec.Heading, 1e-9) },
		},
		{
			name:   "heading exactly 360 kept",
			mutate: func(r RawRecord) { r[FieldHeading] = "360" },
			want:   nil,
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, 360.0, rec.Heading) },
		},
		{
			name:   "missing timestamp",
			mutate: func(r RawRecord) { delete(r, FieldTimestamp) },
			want:   []Category{CatMissingTimestamp},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, runTime, rec.Timestamp) },
		},
		{
			name:   "invalid timestamp",
			mutate: func(r RawRecord) { r[FieldTimestamp] = "yesterday" },
			want:   []Category{CatInvalidTimestamp},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, runTime, rec.Timestamp) },
		},
		{
			name:   "missing call sign",
			mutate: func(r RawRecord) { delete(r, FieldCallSign) },
			want:   []Category{CatMissingCallSign},
			check:  func(t *testing.T, rec VesselRecord) { assert.Equal(t, Unknown, rec.CallSign) },
		},
		{
			name: "several findings keep chain order",
			mutate: func(r RawRecord) {
				delete(r, FieldMMSI)
				r[FieldSOG] = "-1"
				r[FieldCOG] = "400"
			},
			want: []Category{CatMissingIdentifier, CatNegativeSpeed, CatCourseOutOfRange},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validVesselRaw()
			tt.mutate(raw)

			got := NormalizeVessel(raw, FormatVesselTabular, runTime)

			if tt.want == nil {
				assert.Equal(t, StatusNormal, got.Outcome.Status)
				assert.Empty(t, got.Outcome.Categories)
			} else {
				assert.Equal(t, StatusWarning, got.Outcome.Status)
				assert.Equal(t, tt.want, got.Outcome.Categories)
				assert.Len(t, got.Record.CleaningNotes, len(tt.want))
				assert.Equal(t, StatusWarning, got.Record.DataStatus)
			}
			assert.True(t, got.Outcome.Emitted())
			if tt.check != nil {
				tt.check(t, got.Record)
			}
		})
	}
}

func TestNormalizeVessel_SentenceFormat(t *testing.T) {
	raw := RawRecord{
		FieldMMSI:       "227006760",
		FieldLat:        49.475,
		FieldLon:        0.13138,
		FieldSOG:        0.0,
		FieldNavStatus:  5,
		FieldVesselType: 0,
	}

	got := NormalizeVessel(raw, FormatVesselSentence, runTime)

	require.Equal(t, StatusNormal, got.Outcome.Status, got.Outcome.Notes)
	assert.Equal(t, runTime, got.Record.Timestamp)
	assert.Equal(t, "Moored", got.Record.NavStatus)
	assert.Equal(t, Unknown, got.Record.CallSign, "no call sign warning outside the tabular format")
	assert.Equal(t, Unknown, got.Record.VesselName)
}

func TestNormalizeVessel_MissingCodesDefault(t *testing.T) {
	raw := validVesselRaw()
	delete(raw, FieldNavStatus)
	delete(raw, FieldVesselType)

	got := NormalizeVessel(raw, FormatVesselTabular, runTime)

	assert.Equal(t, StatusNormal, got.Outcome.Status)
	assert.Equal(t, 15, got.Record.NavStatusCode)
	assert.Equal(t, "Undefined", got.Record.NavStatus)
	assert.Equal(t, "Not available", got.Record.VesselType)
}

func TestNormalizeVessel_HugeCodesDefault(t *testing.T) {
	raw := validVesselRaw()
	raw[FieldNavStatus] = "1e30"
	raw[FieldVesselType] = -1e30

	got := NormalizeVessel(raw, FormatVesselTabular, runTime)

	assert.Equal(t, StatusNormal, got.Outcome.Status)
	assert.Equal(t, 15, got.Record.NavStatusCode)
	assert.Equal(t, "Undefined", got.Record.NavStatus)
	assert.Equal(t, 0, got.Record.VesselTypeCode)
}

func TestNormalizeAircraft_Valid(t *testing.T) {
	got := NormalizeAircraft(validAircraftRaw(), FormatAircraftJSONL, runTime)

	require.Equal(t, StatusNormal, got.Outcome.Status, got.Outcome.Notes)
	rec := got.Record
	assert.Equal(t, "A1B2C3", rec.AircraftID)
	assert.Equal(t, 40.64, rec.Latitude)
	assert.Equal(t, 35000.0, rec.AltitudeFt)
	assert.Equal(t, 450.0, rec.GroundSpeedKts)
	assert.Equal(t, 90.0, rec.HeadingDeg)
	assert.Equal(t, "N12345", rec.AircraftTail)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 59, 0, 0, time.UTC), rec.Timestamp)
	assert.Empty(t, rec.CleaningNotes)
}

func TestNormalizeAircraft_Findings(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(RawRecord)
		wantStatus Status
		want       []Category
		check      func(t *testing.T, rec AircraftRecord)
	}{
		{
			name:       "negative altitude drops",
			mutate:     func(r RawRecord) { r[FieldAltitude] = -50.0 },
			wantStatus: StatusError,
			want:       []Category{CatNegativeAltitude},
		},
		{
			name: "negative altitude wins over later warnings",
			mutate: func(r RawRecord) {
				r[FieldAltitude] = -1.0
				delete(r, FieldAircraftID)
				r[FieldGroundSpeed] = 900.0
			},
			wantStatus: StatusError,
			want:       []Category{CatNegativeAltitude},
		},
		{
			name:       "altitude above max clamps",
			mutate:     func(r RawRecord) { r[FieldAltitude] = 75000.0 },
			wantStatus: StatusWarning,
			want:       []Category{CatAltitudeAboveMax},
			check:      func(t *testing.T, rec AircraftRecord) { assert.Equal(t, MaxAircraftAltitude, rec.AltitudeFt) },
		},
		{
			name:       "speed above max clamps",
			mutate:     func(r RawRecord) { r[FieldGroundSpeed] = 950.0 },
			wantStatus: StatusWarning,
			want:       []Category{CatSpeedAboveMax},
			check:      func(t *testing.T, rec AircraftRecord) { assert.Equal(t, MaxAircraftSpeed, rec.GroundSpeedKts) },
		},
		{
			name:       "missing tail number",
			mutate:     func(r RawRecord) { r[FieldAircraftTail] = "" },
			wantStatus: StatusWarning,
			want:       []Category{CatMissingTailNumber},
			check:      func(t *testing.T, rec AircraftRecord) { assert.Equal(t, Unknown, rec.AircraftTail) },
		},
		{
			name:       "heading 370",
			mutate:     func(r RawRecord) { r[FieldHeadingDeg] = 370.0 },
			wantStatus: StatusWarning,
			want:       []Category{CatHeadingOutOfRange},
			check:      func(t *testing.T, rec AircraftRecord) { assert.InDelta(t, 10.0, rec.HeadingDeg, 1e-9) },
		},
		{
			name:       "latitude out of range",
			mutate:     func(r RawRecord) { r[FieldLat] = 91.0 },
			wantStatus: StatusError,
			want:       []Category{CatLatitudeOutOfRange},
		},
		{
			name: "timestamp from parts",
			mutate: func(r RawRecord) {
				delete(r, FieldTimestamp)
				r["year"] = 2024.0
				r["month"] = 3.0
				r["day"] = 15.0
				r["hour"] = 8.0
				r["minute"] = 30.0
				r["second"] = 12.25
			},
			wantStatus: StatusNormal,
			check: func(t *testing.T, rec AircraftRecord) {
				assert.Equal(t, time.Date(2024, 3, 15, 8, 30, 12, 250000000, time.UTC), rec.Timestamp)
			},
		},
		{
			name: "partial timestamp parts default the rest",
			mutate: func(r RawRecord) {
				delete(r, FieldTimestamp)
				r["hour"] = 5.0
			},
			wantStatus: StatusNormal,
			check: func(t *testing.T, rec AircraftRecord) {
				assert.Equal(t, time.Date(2023, 1, 1, 5, 0, 0, 0, time.UTC), rec.Timestamp)
			},
		},
		{
			name: "impossible date parts",
			mutate: func(r RawRecord) {
				delete(r, FieldTimestamp)
				r["month"] = 2.0
				r["day"] = 31.0
			},
			wantStatus: StatusWarning,
			want:       []Category{CatInvalidTimestamp},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validAircraftRaw()
			tt.mutate(raw)

			got := NormalizeAircraft(raw, FormatAircraftJSONL, runTime)

			assert.Equal(t, tt.wantStatus, got.Outcome.Status)
			if tt.want == nil {
				assert.Empty(t, got.Outcome.Categories)
			} else {
				assert.Equal(t, tt.want, got.Outcome.Categories)
			}
			if tt.check != nil {
				tt.check(t, got.Record)
			}
		})
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{370, 10},
		{-10, 350},
		{720, 0},
		{-360, 0},
		{359.5, 359.5},
		{-0.5, 359.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeAngle(tt.in), 1e-9, "NormalizeAngle(%v)", tt.in)
	}
}

func TestNavStatusAndVesselTypeLabels(t *testing.T) {
	assert.Equal(t, "At anchor", NavStatusLabel(1))
	assert.Equal(t, "AIS-SART active", NavStatusLabel(14))
	assert.Equal(t, "Unknown (42)", NavStatusLabel(42))

	assert.Equal(t, "Fishing", VesselTypeLabel(30))
	assert.Equal(t, "Passenger", VesselTypeLabel(65))
	assert.Equal(t, "Tanker", VesselTypeLabel(84))
	assert.Equal(t, "Wing in ground", VesselTypeLabel(25))
	assert.Equal(t, "Unknown (38)", VesselTypeLabel(38))
	assert.Equal(t, "Unknown (120)", VesselTypeLabel(120))
}
