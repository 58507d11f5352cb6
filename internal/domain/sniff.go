package domain

import (
	"strings"

	"github.com/goccy/go-json"
)

var sentencePrefixes = []string{"!AIVDM", "!AIVDO"}

var vesselHeaderTokens = map[string]bool{
	"MMSI":         true,
	"BaseDateTime": true,
	"LAT":          true,
	"LON":          true,
	"SOG":          true,
	"COG":          true,
	"Heading":      true,
}

var aircraftHeaderTokens = map[string]bool{
	"aircraft_id":      true,
	"latitude":         true,
	"longitude":        true,
	"altitude_ft":      true,
	"ground_speed_kts": true,
	"heading_deg":      true,
	"aircraft_tail":    true,
	"timestamp":        true,
}

// Sniff classifies a file by its first non-empty line.
func Sniff(line string) SourceFormat {
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if line == "" {
		return FormatUnknown
	}

	for _, p := range sentencePrefixes {
		if strings.HasPrefix(line, p) {
			return FormatVesselSentence
		}
	}

	if strings.HasPrefix(line, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err == nil {
			_, hasLat := obj["latitude"]
			_, hasLon := obj["longitude"]
			if hasLat && hasLon {
				return FormatAircraftJSONL
			}
		}
		return FormatUnknown
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
	}

	if len(fields) > 5 {
		matched := 0
		var lat, lon bool
		for _, f := range fields {
			if aircraftHeaderTokens[f] {
				matched++
			}
			lat = lat || f == "latitude"
			lon = lon || f == "longitude"
		}
		if matched >= 3 && lat && lon {
			return FormatAircraftTabular
		}
	}

	for _, f := range fields {
		if vesselHeaderTokens[f] {
			return FormatVesselTabular
		}
	}

	return FormatUnknown
}

// ResolveFormat picks the decode path for a file of the given source type. A
// sniffed format that does not belong to the source type falls back to the
// most permissive path for that type and reports degraded confidence.
func ResolveFormat(source SourceType, sniffed SourceFormat) (format SourceFormat, degraded bool) {
	if sniffed.Source() == source {
		return sniffed, false
	}
	if source == SourceAircraft {
		return FormatAircraftJSONL, true
	}
	return FormatVesselSentence, true
}
