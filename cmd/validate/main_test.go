package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

var now = time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

func consistentDoc() domain.Document {
	vessels := []domain.VesselRecord{
		{MMSI: "367000001", Latitude: 29.5, Longitude: -89.5, Timestamp: now.Add(-time.Hour),
			SourceFormat: domain.FormatVesselSentence, DataStatus: domain.StatusNormal},
		{MMSI: "367000002", Latitude: 30.1, Longitude: -88.9, Timestamp: now.Add(-48 * time.Hour),
			SourceFormat: domain.FormatVesselTabular, DataStatus: domain.StatusWarning},
	}
	aircraft := []domain.AircraftRecord{
		{AircraftID: "ABC123", Latitude: 40.6, Longitude: -73.8, Timestamp: now.Add(-time.Minute),
			SourceFormat: domain.FormatAircraftJSONL, DataStatus: domain.StatusNormal},
	}
	vesselStats := domain.CleaningStats{
		TotalRecords: 3, ValidRecords: 1, WarningRecords: 1, ErrorRecords: 1,
		ErrorsByType:   map[domain.Category]int{domain.CatMissingPosition: 1},
		WarningsByType: map[domain.Category]int{domain.CatMissingCallSign: 1},
	}
	aircraftStats := domain.CleaningStats{
		TotalRecords: 1, ValidRecords: 1,
		ErrorsByType: map[domain.Category]int{}, WarningsByType: map[domain.Category]int{},
	}
	sources := map[domain.SourceType][]string{
		domain.SourceVessel:   {"AIS.txt"},
		domain.SourceAircraft: {"ADSB.jsonl"},
	}
	return domain.BuildDocument(domain.BuildInput{
		RunID:         "run-1",
		Now:           now,
		MaxDataAge:    24 * time.Hour,
		Vessels:       vessels,
		Aircraft:      aircraft,
		VesselStats:   vesselStats,
		AircraftStats: aircraftStats,
		Coverage:      domain.ComputeCoverage(vessels, aircraft, sources, now),
		Files: []domain.FileStatus{
			{Path: "AIS.txt", Source: domain.SourceVessel, Stats: vesselStats},
			{Path: "ADSB.jsonl", Source: domain.SourceAircraft, Stats: aircraftStats},
		},
	})
}

func TestPhases_ConsistentDocument(t *testing.T) {
	doc := consistentDoc()
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	for _, p := range []*phase{
		validateShape(data),
		validateStats(&doc),
		validateRecords(&doc),
		validateSummary(&doc, 24*time.Hour),
		validateCoverage(&doc),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name string
		data string
		ok   bool
	}{
		{"not an object", `[1,2]`, false},
		{"missing key", `{"metadata":{},"vessel_data":[],"coverage_layers":[],"status_summary":{}}`, false},
		{"wrong type", `{"metadata":[],"vessel_data":[],"aircraft_data":[],"coverage_layers":[],"status_summary":{}}`, false},
		{"minimal", `{"metadata":{},"vessel_data":[],"aircraft_data":[],"coverage_layers":[],"status_summary":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, validateShape([]byte(tt.data)).passed())
		})
	}
}

func TestValidateStats_Unreconciled(t *testing.T) {
	doc := consistentDoc()
	doc.Metadata.DataCleaning.Vessel.ErrorRecords = 0

	p := validateStats(&doc)
	assert.False(t, p.passed())
	assert.Contains(t, p.errors[0], "vessel: total 3")
}

func TestValidateRecords_ErrorStatusEmitted(t *testing.T) {
	doc := consistentDoc()
	doc.VesselData[0].DataStatus = domain.StatusError
	doc.AircraftData[0].SourceFormat = domain.FormatVesselTabular

	p := validateRecords(&doc)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], `data_status "error"`)
	assert.Contains(t, p.errors[1], "is not a aircraft format")
}

func TestValidateSummary_MaxAgeMismatch(t *testing.T) {
	doc := consistentDoc()

	p := validateSummary(&doc, 72*time.Hour)
	assert.False(t, p.passed(), "the two-day-old vessel counts as online with a 72h window")
}

func TestValidateCoverage_OpenRing(t *testing.T) {
	doc := consistentDoc()
	ring := doc.CoverageLayers[0].Coordinates
	ring[len(ring)-1] = [2]float64{0, 0}

	p := validateCoverage(&doc)
	assert.False(t, p.passed())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed_data.json")
	data, err := json.Marshal(consistentDoc())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	assert.Equal(t, 0, run(path, 24*time.Hour))
	assert.Equal(t, 1, run(filepath.Join(dir, "missing.json"), 24*time.Hour))

	require.NoError(t, os.WriteFile(path, []byte(`{"metadata":{}}`), 0o600))
	assert.Equal(t, 1, run(path, 24*time.Hour))
}
