package domain

import (
	"fmt"
	"time"
)

// Document schema constants.
const (
	DocumentVersion  = "3.0"
	CoordinateSystem = "WGS-84"
)

// Top-level document keys a cache loader requires.
const (
	KeyMetadata     = "metadata"
	KeyVesselData   = "vessel_data"
	KeyAircraftData = "aircraft_data"
)

// Document is the standardized output of one processing run.
type Document struct {
	Metadata       Metadata         `json:"metadata"`
	VesselData     []VesselRecord   `json:"vessel_data"`
	AircraftData   []AircraftRecord `json:"aircraft_data"`
	CoverageLayers []CoverageArea   `json:"coverage_layers"`
	StatusSummary  StatusSummary    `json:"status_summary"`
}

// Metadata summarizes a run.
type Metadata struct {
	Version          string                  `json:"version"`
	RunID            string                  `json:"run_id"`
	ProcessingTime   time.Time               `json:"processing_time"`
	CoordinateSystem string                  `json:"coordinate_system"`
	InputFingerprint string                  `json:"input_fingerprint"`
	TotalRecords     int                     `json:"total_records"`
	Counts           RecordCounts            `json:"counts"`
	ByFormat         map[SourceFormat]int    `json:"by_format"`
	ByStatus         map[Status]int          `json:"by_status"`
	DataQuality      map[SourceType]Quality  `json:"data_quality"`
	DataCleaning     CleaningSummary         `json:"data_cleaning"`
	DataSources      map[SourceType][]string `json:"data_sources"`
	FileStatus       []FileStatus            `json:"file_status"`
}

// RecordCounts holds emitted record counts.
type RecordCounts struct {
	Vessel   int `json:"vessel"`
	Aircraft int `json:"aircraft"`
}

// Quality holds status shares of one source type, formatted like "97.5%".
type Quality struct {
	Valid   string `json:"valid"`
	Warning string `json:"warning"`
	Error   string `json:"error"`
}

// CleaningSummary carries per-source cleaning stats and their merge.
type CleaningSummary struct {
	Vessel   CleaningStats `json:"vessel"`
	Aircraft CleaningStats `json:"aircraft"`
	Total    CleaningStats `json:"total"`
}

// FileStatus reports what happened to one input file.
type FileStatus struct {
	Path        string                 `json:"path"`
	Source      SourceType             `json:"source"`
	Format      SourceFormat           `json:"format"`
	Degraded    bool                   `json:"degraded"`
	Exists      bool                   `json:"exists"`
	RecordCount int                    `json:"record_count"`
	Stats       CleaningStats          `json:"stats"`
	Diagnostics map[DiagnosticKind]int `json:"diagnostics"`
	Error       string                 `json:"error,omitempty"`
}

// StatusSummary counts emitted records by recency.
type StatusSummary struct {
	Online   int           `json:"online"`
	Offline  int           `json:"offline"`
	Vessel   OnlineOffline `json:"vessel"`
	Aircraft OnlineOffline `json:"aircraft"`
}

// OnlineOffline is the recency split of one source type.
type OnlineOffline struct {
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

// BuildInput is everything a run gathered before the document is assembled.
type BuildInput struct {
	RunID         string
	Now           time.Time
	Fingerprint   string
	MaxDataAge    time.Duration
	Vessels       []VesselRecord
	Aircraft      []AircraftRecord
	VesselStats   CleaningStats
	AircraftStats CleaningStats
	Coverage      []CoverageArea
	Files         []FileStatus
}

// BuildDocument assembles the standardized document from a run's results.
func BuildDocument(in BuildInput) Document {
	vessels := in.Vessels
	if vessels == nil {
		vessels = []VesselRecord{}
	}
	aircraft := in.Aircraft
	if aircraft == nil {
		aircraft = []AircraftRecord{}
	}
	coverage := in.Coverage
	if coverage == nil {
		coverage = []CoverageArea{}
	}
	files := in.Files
	if files == nil {
		files = []FileStatus{}
	}

	total := in.VesselStats.Merge(in.AircraftStats)

	byFormat := map[SourceFormat]int{}
	for _, v := range vessels {
		byFormat[v.SourceFormat]++
	}
	for _, a := range aircraft {
		byFormat[a.SourceFormat]++
	}

	sources := map[SourceType][]string{SourceVessel: {}, SourceAircraft: {}}
	for _, f := range files {
		sources[f.Source] = append(sources[f.Source], f.Path)
	}

	summary := StatusSummary{}
	for _, v := range vessels {
		summary.Vessel.count(in.Now, v.Timestamp, in.MaxDataAge)
	}
	for _, a := range aircraft {
		summary.Aircraft.count(in.Now, a.Timestamp, in.MaxDataAge)
	}
	summary.Online = summary.Vessel.Online + summary.Aircraft.Online
	summary.Offline = summary.Vessel.Offline + summary.Aircraft.Offline

	return Document{
		Metadata: Metadata{
			Version:          DocumentVersion,
			RunID:            in.RunID,
			ProcessingTime:   in.Now,
			CoordinateSystem: CoordinateSystem,
			InputFingerprint: in.Fingerprint,
			TotalRecords:     len(vessels) + len(aircraft),
			Counts:           RecordCounts{Vessel: len(vessels), Aircraft: len(aircraft)},
			ByFormat:         byFormat,
			ByStatus: map[Status]int{
				StatusNormal:  total.ValidRecords,
				StatusWarning: total.WarningRecords,
				StatusError:   total.ErrorRecords,
			},
			DataQuality: map[SourceType]Quality{
				SourceVessel:   QualityOf(in.VesselStats),
				SourceAircraft: QualityOf(in.AircraftStats),
			},
			DataCleaning: CleaningSummary{
				Vessel:   withMaps(in.VesselStats),
				Aircraft: withMaps(in.AircraftStats),
				Total:    total,
			},
			DataSources: sources,
			FileStatus:  files,
		},
		VesselData:     vessels,
		AircraftData:   aircraft,
		CoverageLayers: coverage,
		StatusSummary:  summary,
	}
}

func (o *OnlineOffline) count(now, ts time.Time, maxAge time.Duration) {
	if now.Sub(ts) < maxAge {
		o.Online++
		return
	}
	o.Offline++
}

// QualityOf formats status shares of s. An empty set divides by 1.
func QualityOf(s CleaningStats) Quality {
	denom := float64(max(s.TotalRecords, 1))
	pct := func(n int) string {
		return fmt.Sprintf("%.1f%%", float64(n)/denom*100)
	}
	return Quality{
		Valid:   pct(s.ValidRecords),
		Warning: pct(s.WarningRecords),
		Error:   pct(s.ErrorRecords),
	}
}

// withMaps guarantees non-nil category maps so the document never carries null.
func withMaps(s CleaningStats) CleaningStats {
	return s.Merge(CleaningStats{})
}
