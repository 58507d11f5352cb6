package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	coverageMarginRatio = 0.1
	coverageMinMargin   = 0.01
)

// CoverageMetadata describes where a coverage area came from.
type CoverageMetadata struct {
	Description string    `json:"description"`
	UpdateTime  time.Time `json:"update_time"`
	DataSources []string  `json:"data_sources"`
	PlaceName   string    `json:"place_name,omitempty"`
}

// CoverageArea is the padded bounding box of emitted positions for one source
// type, as a closed ring of [lon, lat] vertices.
type CoverageArea struct {
	ResourceID  string           `json:"resource_id"`
	SourceType  SourceType       `json:"source_type"`
	Coordinates [][2]float64     `json:"coordinates"`
	RecordCount int              `json:"record_count"`
	Status      string           `json:"status"`
	Label       string           `json:"label"`
	Metadata    CoverageMetadata `json:"metadata"`
}

// Center returns the midpoint of the ring's bounding box.
func (a CoverageArea) Center() (lat, lon float64) {
	if len(a.Coordinates) == 0 {
		return 0, 0
	}
	b := newBounds()
	for _, p := range a.Coordinates {
		b.add(p[1], p[0])
	}
	return (b.minLat + b.maxLat) / 2, (b.minLon + b.maxLon) / 2
}

type bounds struct {
	minLat, maxLat float64
	minLon, maxLon float64
	n              int
}

func newBounds() bounds {
	return bounds{
		minLat: math.Inf(1), maxLat: math.Inf(-1),
		minLon: math.Inf(1), maxLon: math.Inf(-1),
	}
}

func (b *bounds) add(lat, lon float64) {
	b.minLat = math.Min(b.minLat, lat)
	b.maxLat = math.Max(b.maxLat, lat)
	b.minLon = math.Min(b.minLon, lon)
	b.maxLon = math.Max(b.maxLon, lon)
	b.n++
}

// ring pads the box by 10% of each span (at least 0.01 degrees), clamps it to
// valid bounds and returns a closed five-point ring.
func (b bounds) ring() [][2]float64 {
	latPad := math.Max((b.maxLat-b.minLat)*coverageMarginRatio, coverageMinMargin)
	lonPad := math.Max((b.maxLon-b.minLon)*coverageMarginRatio, coverageMinMargin)

	minLat := math.Max(b.minLat-latPad, -90)
	maxLat := math.Min(b.maxLat+latPad, 90)
	minLon := math.Max(b.minLon-lonPad, -180)
	maxLon := math.Min(b.maxLon+lonPad, 180)

	return [][2]float64{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
}

// ComputeCoverage builds one coverage area per source type that has emitted
// records. Source types without records produce no area.
func ComputeCoverage(vessels []VesselRecord, aircraft []AircraftRecord, sources map[SourceType][]string, now time.Time) []CoverageArea {
	var areas []CoverageArea

	vb := newBounds()
	for _, v := range vessels {
		vb.add(v.Latitude, v.Longitude)
	}
	if vb.n > 0 {
		areas = append(areas, newCoverageArea(SourceVessel, vb, sources[SourceVessel], now))
	}

	ab := newBounds()
	for _, a := range aircraft {
		ab.add(a.Latitude, a.Longitude)
	}
	if ab.n > 0 {
		areas = append(areas, newCoverageArea(SourceAircraft, ab, sources[SourceAircraft], now))
	}

	if areas == nil {
		areas = []CoverageArea{}
	}
	return areas
}

func newCoverageArea(source SourceType, b bounds, files []string, now time.Time) CoverageArea {
	if files == nil {
		files = []string{}
	}
	return CoverageArea{
		ResourceID:  string(source) + "_coverage",
		SourceType:  source,
		Coordinates: b.ring(),
		RecordCount: b.n,
		Status:      "active",
		Label:       fmt.Sprintf("%s coverage (%d records)", source, b.n),
		Metadata: CoverageMetadata{
			Description: fmt.Sprintf("Bounding area of %d %s position reports", b.n, source),
			UpdateTime:  now,
			DataSources: files,
		},
	}
}

// LabelCoverage attaches a reverse-geocoded place name to each area's center.
// If geocoder is nil or a lookup fails, the area is returned unlabeled
// (graceful degradation).
func LabelCoverage(ctx context.Context, areas []CoverageArea, geocoder Geocoder, logger *slog.Logger) []CoverageArea {
	if geocoder == nil {
		return areas
	}

	out := make([]CoverageArea, len(areas))
	copy(out, areas)
	for i := range out {
		lat, lon := out[i].Center()
		result, err := geocoder.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"resource_id", out[i].ResourceID,
				"lat", lat,
				"lon", lon,
				"error", err,
			)
			continue
		}
		if result.PlaceName != "" {
			out[i].Metadata.PlaceName = result.PlaceName
		} else if result.FormattedAddress != "" {
			out[i].Metadata.PlaceName = result.FormattedAddress
		}
	}
	return out
}
