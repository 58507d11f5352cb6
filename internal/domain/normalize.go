package domain

import (
	"fmt"
	"math"
	"time"
)

// Cleaning thresholds.
const (
	MaxVesselSOG        = 102.2   // knots; 102.3 is the AIS "not available" value
	MaxAircraftSpeed    = 800.0   // knots
	MaxAircraftAltitude = 60000.0 // feet
)

// cleaner accumulates findings for one record under construction.
type cleaner struct {
	raw    RawRecord
	now    time.Time
	status Status
	cats   []Category
	notes  []string
}

func newCleaner(raw RawRecord, now time.Time) *cleaner {
	return &cleaner{raw: raw, now: now, status: StatusNormal}
}

func (c *cleaner) warn(cat Category, note string) {
	if c.status == StatusNormal {
		c.status = StatusWarning
	}
	c.cats = append(c.cats, cat)
	c.notes = append(c.notes, note)
}

func (c *cleaner) fail(cat Category, note string) {
	c.status = StatusError
	c.cats = append(c.cats, cat)
	c.notes = append(c.notes, note)
}

func (c *cleaner) failed() bool {
	return c.status == StatusError
}

func (c *cleaner) outcome() Outcome {
	return Outcome{Status: c.status, Categories: c.cats, Notes: c.notes}
}

// step is one link of a normalization chain. It reports false when the record
// has been dropped and the chain must stop.
type step[T any] func(c *cleaner, rec *T) bool

func run[T any](c *cleaner, rec *T, steps []step[T]) {
	for _, s := range steps {
		if !s(c, rec) || c.failed() {
			return
		}
	}
}

// position reads and gates lat/lon.
func (c *cleaner) position() (lat, lon float64, ok bool) {
	lat, pLat := c.raw.floatField(FieldLat)
	lon, pLon := c.raw.floatField(FieldLon)
	switch {
	case pLat == absent || pLon == absent:
		c.fail(CatMissingPosition, "missing latitude/longitude")
		return 0, 0, false
	case pLat == malformed || pLon == malformed:
		c.fail(CatInvalidPosition, "non-numeric latitude/longitude")
		return 0, 0, false
	case lat < -90 || lat > 90:
		c.fail(CatLatitudeOutOfRange, fmt.Sprintf("latitude %g out of range", lat))
		return 0, 0, false
	case lon < -180 || lon > 180:
		c.fail(CatLongitudeOutOfRange, fmt.Sprintf("longitude %g out of range", lon))
		return 0, 0, false
	}
	return lat, lon, true
}

func (c *cleaner) nullIsland(lat, lon float64) {
	if lat == 0 && lon == 0 {
		c.warn(CatNullIsland, "position at 0,0")
	}
}

// speed clamps negative values to 0 and values above limit down to limit.
func (c *cleaner) speed(key string, limit float64) float64 {
	v := c.raw.floatOr(key, 0)
	switch {
	case v < 0:
		c.warn(CatNegativeSpeed, fmt.Sprintf("negative speed %g set to 0", v))
		return 0
	case v > limit:
		c.warn(CatSpeedAboveMax, fmt.Sprintf("speed %g clamped to %g", v, limit))
		return limit
	}
	return v
}

// angle normalizes a bearing outside [0, 360] into [0, 360).
func (c *cleaner) angle(key string, cat Category, label string) float64 {
	v := c.raw.floatOr(key, 0)
	if v >= 0 && v <= 360 {
		return v
	}
	n := NormalizeAngle(v)
	c.warn(cat, fmt.Sprintf("%s %g normalized to %g", label, v, n))
	return n
}

// NormalizeAngle maps any finite bearing into [0, 360).
func NormalizeAngle(v float64) float64 {
	n := math.Mod(v, 360)
	if n < 0 {
		n += 360
	}
	if n == 360 {
		n = 0
	}
	return n
}

// timestamp returns the record time. Missing or unparsable values warn and
// fall back to the run time.
func (c *cleaner) timestamp() time.Time {
	ts, p := c.raw.timestampField()
	switch p {
	case absent:
		c.warn(CatMissingTimestamp, "missing timestamp, using processing time")
		return c.now
	case malformed:
		c.warn(CatInvalidTimestamp, "invalid timestamp, using processing time")
		return c.now
	}
	return ts
}

// Normalized pairs a cleaned record with its outcome. Record is meaningful
// only when Outcome.Emitted is true.
type Normalized[T any] struct {
	Record  T
	Outcome Outcome
}

func finish[T any](c *cleaner, rec T) Normalized[T] {
	return Normalized[T]{Record: rec, Outcome: c.outcome()}
}
