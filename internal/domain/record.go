package domain

import "time"

// Unknown is the sentinel for identity and text fields a source did not supply.
const Unknown = "unknown"

// SourceType identifies which telemetry family a record belongs to.
type SourceType string

const (
	SourceVessel   SourceType = "vessel"
	SourceAircraft SourceType = "aircraft"
)

// SourceFormat is the on-disk encoding a record was decoded from.
type SourceFormat string

const (
	FormatVesselSentence  SourceFormat = "vessel_sentence"
	FormatVesselTabular   SourceFormat = "vessel_tabular"
	FormatAircraftJSONL   SourceFormat = "aircraft_jsonl"
	FormatAircraftTabular SourceFormat = "aircraft_tabular"
	FormatUnknown         SourceFormat = "unknown"
)

// Source returns the source type a format belongs to, or "" for FormatUnknown.
func (f SourceFormat) Source() SourceType {
	switch f {
	case FormatVesselSentence, FormatVesselTabular:
		return SourceVessel
	case FormatAircraftJSONL, FormatAircraftTabular:
		return SourceAircraft
	default:
		return ""
	}
}

// RawRecord is one format-decoded record keyed by canonical field names.
// Values may be strings (tabular input), float64/bool (JSON input) or typed
// numbers and time.Time (payload decoder).
type RawRecord map[string]any

// Canonical raw field keys.
const (
	FieldMMSI             = "mmsi"
	FieldLat              = "lat"
	FieldLon              = "lon"
	FieldSOG              = "sog"
	FieldCOG              = "cog"
	FieldHeading          = "heading"
	FieldNavStatus        = "nav_status"
	FieldVesselType       = "vessel_type"
	FieldTimestamp        = "timestamp"
	FieldVesselName       = "vessel_name"
	FieldCallSign         = "call_sign"
	FieldIMO              = "imo"
	FieldLength           = "length"
	FieldWidth            = "width"
	FieldDraft            = "draft"
	FieldCargo            = "cargo"
	FieldTransceiverClass = "transceiver_class"

	FieldAircraftID   = "aircraft_id"
	FieldAltitude     = "altitude_ft"
	FieldGroundSpeed  = "ground_speed_kts"
	FieldHeadingDeg   = "heading_deg"
	FieldAircraftTail = "aircraft_tail"
)

// VesselRecord is a cleaned vessel position report.
type VesselRecord struct {
	MMSI           string       `json:"mmsi"`
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	SOG            float64      `json:"sog"`
	COG            float64      `json:"cog"`
	Heading        float64      `json:"heading"`
	NavStatusCode  int          `json:"nav_status_code"`
	NavStatus      string       `json:"nav_status"`
	VesselTypeCode int          `json:"vessel_type_code"`
	VesselType     string       `json:"vessel_type"`
	Timestamp      time.Time    `json:"timestamp"`
	SourceFormat   SourceFormat `json:"source_format"`
	DataStatus     Status       `json:"data_status"`
	CleaningNotes  []string     `json:"cleaning_notes"`

	// Extended fields, supplied only by the tabular format.
	VesselName       string  `json:"vessel_name"`
	CallSign         string  `json:"call_sign"`
	IMO              string  `json:"imo"`
	Length           float64 `json:"length"`
	Width            float64 `json:"width"`
	Draft            float64 `json:"draft"`
	Cargo            string  `json:"cargo"`
	TransceiverClass string  `json:"transceiver_class"`
}

// AircraftRecord is a cleaned aircraft position report.
type AircraftRecord struct {
	AircraftID     string       `json:"aircraft_id"`
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	AltitudeFt     float64      `json:"altitude_ft"`
	GroundSpeedKts float64      `json:"ground_speed_kts"`
	HeadingDeg     float64      `json:"heading_deg"`
	AircraftTail   string       `json:"aircraft_tail"`
	Timestamp      time.Time    `json:"timestamp"`
	SourceFormat   SourceFormat `json:"source_format"`
	DataStatus     Status       `json:"data_status"`
	CleaningNotes  []string     `json:"cleaning_notes"`
}
