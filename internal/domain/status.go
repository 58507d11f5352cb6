package domain

// Status is the tri-state cleaning classification of a single record.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Category tags the reason behind a warning or error finding.
type Category string

// Error categories. A record carrying one of these is dropped.
const (
	CatMissingPosition     Category = "missing_position"
	CatInvalidPosition     Category = "invalid_position"
	CatLatitudeOutOfRange  Category = "latitude_out_of_range"
	CatLongitudeOutOfRange Category = "longitude_out_of_range"
	CatNegativeAltitude    Category = "negative_altitude"
	CatMalformedRecord     Category = "malformed_record"
)

// Warning categories. A record carrying only these is retained.
const (
	CatMissingIdentifier Category = "missing_identifier"
	CatMissingCallSign   Category = "missing_call_sign"
	CatMissingTailNumber Category = "missing_tail_number"
	CatNullIsland        Category = "null_island"
	CatNegativeSpeed     Category = "negative_speed"
	CatSpeedAboveMax     Category = "speed_above_max"
	CatCourseOutOfRange  Category = "course_out_of_range"
	CatHeadingOutOfRange Category = "heading_out_of_range"
	CatAltitudeAboveMax  Category = "altitude_above_max"
	CatMissingTimestamp  Category = "missing_timestamp"
	CatInvalidTimestamp  Category = "invalid_timestamp"
)

// ErrorCategories lists every category that drops a record.
var ErrorCategories = []Category{
	CatMissingPosition,
	CatInvalidPosition,
	CatLatitudeOutOfRange,
	CatLongitudeOutOfRange,
	CatNegativeAltitude,
	CatMalformedRecord,
}

// WarningCategories lists every category that retains a record with a note.
var WarningCategories = []Category{
	CatMissingIdentifier,
	CatMissingCallSign,
	CatMissingTailNumber,
	CatNullIsland,
	CatNegativeSpeed,
	CatSpeedAboveMax,
	CatCourseOutOfRange,
	CatHeadingOutOfRange,
	CatAltitudeAboveMax,
	CatMissingTimestamp,
	CatInvalidTimestamp,
}

// IsError reports whether c is an error category.
func (c Category) IsError() bool {
	for _, e := range ErrorCategories {
		if c == e {
			return true
		}
	}
	return false
}

// Outcome is the cleaning result of one candidate record.
type Outcome struct {
	Status     Status
	Categories []Category
	Notes      []string
}

// MalformedOutcome is the outcome of a row or line that could not be parsed
// into a raw record at all.
func MalformedOutcome(note string) Outcome {
	return Outcome{
		Status:     StatusError,
		Categories: []Category{CatMalformedRecord},
		Notes:      []string{note},
	}
}

// Emitted reports whether the record behind this outcome is kept.
func (o Outcome) Emitted() bool {
	return o.Status != StatusError
}
