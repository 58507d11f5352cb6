// Command validate checks a processed-data cache document for internal
// consistency: top-level shape, cleaning stat reconciliation, per-record
// invariants, summary blocks and coverage areas.
//
// Usage:
//
//	go run ./cmd/validate -cache data_cache/processed_data.json
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cachePath := flag.String("cache", "data_cache/processed_data.json", "path to the processed-data cache document")
	maxAge := flag.Duration("max-age", 24*time.Hour, "recency window the document was built with")
	flag.Parse()

	if *cachePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*cachePath, *maxAge); code != 0 {
		os.Exit(code)
	}
}

func run(path string, maxAge time.Duration) int {
	fmt.Println("=== Telemetry Cache Integrity Validation ===")
	fmt.Println()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read cache: %v\n", err)
		return 1
	}

	shape := validateShape(data)
	if !shape.passed() {
		report([]*phase{shape})
		return 1
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode cache: %v\n", err)
		return 1
	}

	phases := []*phase{
		shape,
		validateStats(&doc),
		validateRecords(&doc),
		validateSummary(&doc, maxAge),
		validateCoverage(&doc),
	}

	fmt.Printf("Run %s at %s: %d vessel, %d aircraft records\n",
		doc.Metadata.RunID, doc.Metadata.ProcessingTime.Format(time.RFC3339),
		len(doc.VesselData), len(doc.AircraftData))

	if report(phases) {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(phases []*phase) bool {
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}

// ── Phase 1: document shape ──

func validateShape(data []byte) *phase {
	p := &phase{name: "Phase 1: Document shape"}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		p.errorf("not a JSON object: %v", err)
		return p
	}
	want := map[string]byte{
		domain.KeyMetadata:     '{',
		domain.KeyVesselData:   '[',
		domain.KeyAircraftData: '[',
		"coverage_layers":      '[',
		"status_summary":       '{',
	}
	for key, open := range want {
		raw, ok := top[key]
		if !ok {
			p.errorf("missing key %q", key)
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != open {
			p.errorf("key %q: expected value starting with %q", key, open)
		}
	}
	return p
}

// ── Phase 2: cleaning statistics ──

func validateStats(doc *domain.Document) *phase {
	p := &phase{name: "Phase 2: Cleaning statistics"}
	dc := doc.Metadata.DataCleaning

	checkSource := func(name string, s domain.CleaningStats, emitted int) {
		if !s.Reconciled() {
			p.errorf("%s: total %d != valid %d + warning %d + error %d",
				name, s.TotalRecords, s.ValidRecords, s.WarningRecords, s.ErrorRecords)
		}
		if s.Emitted() != emitted {
			p.errorf("%s: valid+warning = %d but %d records emitted", name, s.Emitted(), emitted)
		}
		if n := sum(s.ErrorsByType); n < s.ErrorRecords {
			p.errorf("%s: errors_by_type sums to %d, below error_records %d", name, n, s.ErrorRecords)
		}
		if n := sum(s.WarningsByType); n < s.WarningRecords {
			p.errorf("%s: warnings_by_type sums to %d, below warning_records %d", name, n, s.WarningRecords)
		}
	}
	checkSource("vessel", dc.Vessel, len(doc.VesselData))
	checkSource("aircraft", dc.Aircraft, len(doc.AircraftData))

	merged := dc.Vessel.Merge(dc.Aircraft)
	if merged.TotalRecords != dc.Total.TotalRecords ||
		merged.ValidRecords != dc.Total.ValidRecords ||
		merged.WarningRecords != dc.Total.WarningRecords ||
		merged.ErrorRecords != dc.Total.ErrorRecords {
		p.errorf("total block %+v is not the merge of vessel and aircraft", dc.Total)
	}

	var files domain.CleaningStats
	for _, f := range doc.Metadata.FileStatus {
		files = files.Merge(f.Stats)
	}
	if files.TotalRecords != merged.TotalRecords {
		p.errorf("file_status totals %d, cleaning total %d", files.TotalRecords, merged.TotalRecords)
	}
	return p
}

func sum(m map[domain.Category]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// ── Phase 3: record invariants ──

func validateRecords(doc *domain.Document) *phase {
	p := &phase{name: "Phase 3: Record invariants"}

	checkPosition := func(label string, lat, lon float64) {
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			p.errorf("%s: latitude %v out of range", label, lat)
		}
		if math.IsNaN(lon) || lon < -180 || lon > 180 {
			p.errorf("%s: longitude %v out of range", label, lon)
		}
	}
	checkCommon := func(label string, source domain.SourceType, format domain.SourceFormat, status domain.Status, ts time.Time) {
		if format.Source() != source {
			p.errorf("%s: source_format %q is not a %s format", label, format, source)
		}
		if status != domain.StatusNormal && status != domain.StatusWarning {
			p.errorf("%s: emitted with data_status %q", label, status)
		}
		if ts.IsZero() {
			p.errorf("%s: timestamp is zero", label)
		}
	}

	for i := range doc.VesselData {
		v := &doc.VesselData[i]
		label := fmt.Sprintf("vessel[%d] mmsi=%s", i, v.MMSI)
		if v.MMSI == "" {
			p.errorf("vessel[%d]: mmsi is empty", i)
		}
		checkPosition(label, v.Latitude, v.Longitude)
		checkCommon(label, domain.SourceVessel, v.SourceFormat, v.DataStatus, v.Timestamp)
	}
	for i := range doc.AircraftData {
		a := &doc.AircraftData[i]
		label := fmt.Sprintf("aircraft[%d] id=%s", i, a.AircraftID)
		if a.AircraftID == "" {
			p.errorf("aircraft[%d]: aircraft_id is empty", i)
		}
		checkPosition(label, a.Latitude, a.Longitude)
		checkCommon(label, domain.SourceAircraft, a.SourceFormat, a.DataStatus, a.Timestamp)
	}
	return p
}

// ── Phase 4: summary blocks ──

func validateSummary(doc *domain.Document, maxAge time.Duration) *phase {
	p := &phase{name: "Phase 4: Summary blocks"}
	m := doc.Metadata

	if m.Counts.Vessel != len(doc.VesselData) || m.Counts.Aircraft != len(doc.AircraftData) {
		p.errorf("counts %+v do not match record arrays (%d, %d)", m.Counts, len(doc.VesselData), len(doc.AircraftData))
	}
	if m.TotalRecords != m.Counts.Vessel+m.Counts.Aircraft {
		p.errorf("total_records %d != vessel %d + aircraft %d", m.TotalRecords, m.Counts.Vessel, m.Counts.Aircraft)
	}

	formats := 0
	for _, n := range m.ByFormat {
		formats += n
	}
	if formats != m.TotalRecords {
		p.errorf("by_format sums to %d, total_records %d", formats, m.TotalRecords)
	}

	for source, stats := range map[domain.SourceType]domain.CleaningStats{
		domain.SourceVessel:   m.DataCleaning.Vessel,
		domain.SourceAircraft: m.DataCleaning.Aircraft,
	} {
		if got, want := m.DataQuality[source], domain.QualityOf(stats); got != want {
			p.errorf("data_quality[%s] = %+v, expected %+v", source, got, want)
		}
	}

	s := doc.StatusSummary
	if s.Vessel.Online+s.Vessel.Offline != len(doc.VesselData) {
		p.errorf("vessel online+offline %d != %d records", s.Vessel.Online+s.Vessel.Offline, len(doc.VesselData))
	}
	if s.Aircraft.Online+s.Aircraft.Offline != len(doc.AircraftData) {
		p.errorf("aircraft online+offline %d != %d records", s.Aircraft.Online+s.Aircraft.Offline, len(doc.AircraftData))
	}
	if s.Online != s.Vessel.Online+s.Aircraft.Online || s.Offline != s.Vessel.Offline+s.Aircraft.Offline {
		p.errorf("status_summary totals %d/%d are not the per-source sums", s.Online, s.Offline)
	}

	online := 0
	for i := range doc.VesselData {
		if m.ProcessingTime.Sub(doc.VesselData[i].Timestamp) < maxAge {
			online++
		}
	}
	for i := range doc.AircraftData {
		if m.ProcessingTime.Sub(doc.AircraftData[i].Timestamp) < maxAge {
			online++
		}
	}
	if online != s.Online {
		p.errorf("recomputed %d online records with max age %s, summary says %d", online, maxAge, s.Online)
	}
	return p
}

// ── Phase 5: coverage areas ──

func validateCoverage(doc *domain.Document) *phase {
	p := &phase{name: "Phase 5: Coverage areas"}

	counts := map[domain.SourceType]int{
		domain.SourceVessel:   len(doc.VesselData),
		domain.SourceAircraft: len(doc.AircraftData),
	}
	seen := map[domain.SourceType]bool{}
	for i, area := range doc.CoverageLayers {
		label := fmt.Sprintf("coverage[%d] %s", i, area.ResourceID)
		if seen[area.SourceType] {
			p.errorf("%s: duplicate area for %s", label, area.SourceType)
		}
		seen[area.SourceType] = true

		if area.RecordCount != counts[area.SourceType] {
			p.errorf("%s: record_count %d, %d records emitted", label, area.RecordCount, counts[area.SourceType])
		}
		ring := area.Coordinates
		if len(ring) < 4 {
			p.errorf("%s: ring has %d points", label, len(ring))
			continue
		}
		if ring[0] != ring[len(ring)-1] {
			p.errorf("%s: ring is not closed", label)
		}
		for _, pt := range ring {
			if pt[0] < -180 || pt[0] > 180 || pt[1] < -90 || pt[1] > 90 {
				p.errorf("%s: point %v out of range", label, pt)
				break
			}
		}
	}
	for source, n := range counts {
		if n > 0 && !seen[source] {
			p.errorf("no coverage area for %d %s records", n, source)
		}
	}
	return p
}
