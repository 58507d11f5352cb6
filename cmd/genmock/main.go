// Command genmock writes mock vessel and aircraft feeds in every supported
// format and then runs them through the real feed readers so the printed
// counts can be used in test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out s_data -vessels 200 -aircraft 150 -dirty 0.05
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/aisdecoder"
	"github.com/couchcryptid/geotelemetry-etl/internal/adapter/feed"
	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// Default run time; sentence-format records are stamped with it.
var baseTime = time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)

// Sea areas vessels are scattered over: lat, lon, spread in degrees.
var seaAreas = [][3]float64{
	{29.0, -89.5, 1.5},  // Gulf of Mexico
	{37.7, -122.6, 0.6}, // San Francisco approaches
	{40.4, -73.8, 0.5},  // New York Bight
}

// Airspace boxes aircraft are scattered over.
var airspaces = [][3]float64{
	{40.6, -73.8, 1.0},
	{33.9, -118.4, 1.2},
	{41.9, -87.9, 0.8},
}

var vesselHeader = []string{
	"MMSI", "BaseDateTime", "LAT", "LON", "SOG", "COG", "Heading", "VesselName", "IMO",
	"CallSign", "VesselType", "Status", "Length", "Width", "Draft", "Cargo", "TransceiverClass",
}

var aircraftHeader = []string{
	"aircraft_id", "latitude", "longitude", "altitude_ft", "ground_speed_kts",
	"heading_deg", "aircraft_tail", "timestamp",
}

type options struct {
	out      string
	vessels  int
	aircraft int
	dirty    float64
	seed     uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.out, "out", "s_data", "output directory for the generated feeds")
	flag.IntVar(&opts.vessels, "vessels", 200, "vessels per vessel file")
	flag.IntVar(&opts.aircraft, "aircraft", 150, "aircraft per aircraft file")
	flag.Float64Var(&opts.dirty, "dirty", 0.05, "share of records with an injected defect (0-1)")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.Parse()

	if opts.vessels < 0 || opts.aircraft < 0 || opts.dirty < 0 || opts.dirty > 1 {
		flag.Usage()
		return fmt.Errorf("invalid flags: counts must be non-negative and -dirty within 0-1")
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)) //nolint:gosec // deterministic fixtures

	files := map[string]func(io.Writer) error{
		"AIS.txt":    func(w io.Writer) error { return writeSentences(w, rng, opts) },
		"AIS.csv":    func(w io.Writer) error { return writeVesselTable(w, rng, opts) },
		"ADSB.jsonl": func(w io.Writer) error { return writeAircraftJSONL(w, rng, opts) },
		"ADSB.csv":   func(w io.Writer) error { return writeAircraftTable(w, rng, opts) },
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(opts.out, name)
		if err := writeFile(path, files[name]); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	return printStats(opts.out)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func scatter(rng *rand.Rand, areas [][3]float64) (lat, lon float64) {
	a := areas[rng.IntN(len(areas))]
	return round(a[0]+(rng.Float64()*2-1)*a[2], 5), round(a[1]+(rng.Float64()*2-1)*a[2], 5)
}

func round(v float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return f
}

func writeSentences(w io.Writer, rng *rand.Rand, opts options) error {
	types := []int{1, 2, 3, 18, 19, 27}
	for i := 0; i < opts.vessels; i++ {
		lat, lon := scatter(rng, seaAreas)
		r := aisdecoder.PositionReport{
			Type:      types[rng.IntN(len(types))],
			MMSI:      uint32(367000000 + i), //nolint:gosec // small index
			NavStatus: rng.IntN(9),
			SOG:       round(rng.Float64()*22, 1),
			COG:       round(rng.Float64()*359, 1),
			Heading:   rng.IntN(360),
			Lat:       lat,
			Lon:       lon,
			Second:    rng.IntN(60),
		}
		if r.Type == 19 {
			r.Name = fmt.Sprintf("MOCK VESSEL %d", i)
			r.ShipType = 60 + rng.IntN(30)
		}
		if rng.Float64() < opts.dirty {
			r.Lat, r.Lon = 0, 0
		}
		payload, fill, err := aisdecoder.Encode(r)
		if err != nil {
			return err
		}
		for _, line := range aisdecoder.Sentences(payload, fill, i, "A", 60) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeVesselTable(w io.Writer, rng *rand.Rand, opts options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(vesselHeader); err != nil {
		return err
	}
	for i := 0; i < opts.vessels; i++ {
		lat, lon := scatter(rng, seaAreas)
		// Spread timestamps over two days so some records are offline.
		ts := baseTime.Add(-time.Duration(rng.IntN(48*60)) * time.Minute)
		row := []string{
			strconv.Itoa(368000000 + i),
			ts.Format("2006-01-02T15:04:05"),
			ftoa(lat), ftoa(lon),
			ftoa(round(rng.Float64()*20, 1)),
			ftoa(round(rng.Float64()*359, 1)),
			strconv.Itoa(rng.IntN(360)),
			fmt.Sprintf("TABLE VESSEL %d", i),
			fmt.Sprintf("IMO%07d", 9000000+i),
			fmt.Sprintf("WDA%04d", i),
			strconv.Itoa(60 + rng.IntN(30)),
			strconv.Itoa(rng.IntN(9)),
			strconv.Itoa(30 + rng.IntN(300)),
			strconv.Itoa(8 + rng.IntN(40)),
			ftoa(round(2+rng.Float64()*12, 1)),
			strconv.Itoa(70 + rng.IntN(20)),
			"A",
		}
		if rng.Float64() < opts.dirty {
			injectVesselDefect(rng, row)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func injectVesselDefect(rng *rand.Rand, row []string) {
	switch rng.IntN(4) {
	case 0:
		row[2] = "" // missing latitude
	case 1:
		row[3] = "200.5" // longitude out of range
	case 2:
		row[9] = "" // missing call sign
	default:
		row[4] = "-3" // negative speed
	}
}

type aircraftRow struct {
	AircraftID     string  `json:"aircraft_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AltitudeFt     float64 `json:"altitude_ft"`
	GroundSpeedKts float64 `json:"ground_speed_kts"`
	HeadingDeg     float64 `json:"heading_deg"`
	AircraftTail   string  `json:"aircraft_tail,omitempty"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Day            int     `json:"day"`
	Hour           int     `json:"hour"`
	Minute         int     `json:"minute"`
	Second         float64 `json:"second"`
}

func mockAircraft(rng *rand.Rand, i int, prefix string, dirty float64) aircraftRow {
	lat, lon := scatter(rng, airspaces)
	ts := baseTime.Add(-time.Duration(rng.IntN(36*60)) * time.Minute)
	a := aircraftRow{
		AircraftID:     fmt.Sprintf("%s%04X", prefix, i),
		Latitude:       lat,
		Longitude:      lon,
		AltitudeFt:     float64(1000 + rng.IntN(40000)),
		GroundSpeedKts: round(120+rng.Float64()*400, 1),
		HeadingDeg:     round(rng.Float64()*359, 1),
		AircraftTail:   fmt.Sprintf("N%05d", rng.IntN(100000)),
		Year:           ts.Year(),
		Month:          int(ts.Month()),
		Day:            ts.Day(),
		Hour:           ts.Hour(),
		Minute:         ts.Minute(),
		Second:         round(float64(ts.Second())+rng.Float64(), 3),
	}
	if rng.Float64() < dirty {
		switch rng.IntN(3) {
		case 0:
			a.AltitudeFt = -150
		case 1:
			a.AircraftTail = ""
		default:
			a.Latitude = 95
		}
	}
	return a
}

func writeAircraftJSONL(w io.Writer, rng *rand.Rand, opts options) error {
	enc := json.NewEncoder(w)
	for i := 0; i < opts.aircraft; i++ {
		if err := enc.Encode(mockAircraft(rng, i, "A", opts.dirty)); err != nil {
			return err
		}
	}
	return nil
}

func writeAircraftTable(w io.Writer, rng *rand.Rand, opts options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(aircraftHeader); err != nil {
		return err
	}
	for i := 0; i < opts.aircraft; i++ {
		a := mockAircraft(rng, i, "T", opts.dirty)
		ts := time.Date(a.Year, time.Month(a.Month), a.Day, a.Hour, a.Minute, int(a.Second), 0, time.UTC)
		row := []string{
			a.AircraftID, ftoa(a.Latitude), ftoa(a.Longitude), ftoa(a.AltitudeFt),
			ftoa(a.GroundSpeedKts), ftoa(a.HeadingDeg), a.AircraftTail, ts.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// printStats decodes the generated files with the real readers.
func printStats(dir string) error {
	clock := clockwork.NewFakeClockAt(baseTime)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vessels := feed.NewVesselReader(aisdecoder.New(), clock, logger)
	aircraft := feed.NewAircraftReader(clock, logger)
	ctx := context.Background()

	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, name := range []string{"AIS.txt", "AIS.csv"} {
		batch, err := vessels.DecodeFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return err
		}
		report(name, batch.Format, len(batch.Records), vessels.CleaningStats(), batch.Diagnostics)
	}
	for _, name := range []string{"ADSB.jsonl", "ADSB.csv"} {
		batch, err := aircraft.DecodeFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return err
		}
		report(name, batch.Format, len(batch.Records), aircraft.CleaningStats(), batch.Diagnostics)
	}
	return nil
}

func report(name string, format domain.SourceFormat, emitted int, stats domain.CleaningStats, diags []domain.Diagnostic) {
	fmt.Printf("%s (%s): total=%d emitted=%d valid=%d warning=%d error=%d\n",
		name, format, stats.TotalRecords, emitted, stats.ValidRecords, stats.WarningRecords, stats.ErrorRecords)
	printCounts("  errors", stats.ErrorsByType)
	printCounts("  warnings", stats.WarningsByType)
	if len(diags) > 0 {
		fmt.Printf("  diagnostics: %d\n", len(diags))
	}
}

func printCounts(label string, counts map[domain.Category]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[domain.Category(k)])
	}
	fmt.Printf("%s: %s\n", label, strings.Join(parts, " "))
}
