package domain

import (
	"fmt"
	"time"
)

var aircraftSteps = []step[AircraftRecord]{
	aircraftPosition,
	aircraftAltitude,
	aircraftIdentifier,
	aircraftTail,
	aircraftNullIsland,
	aircraftSpeed,
	aircraftHeading,
	aircraftTimestamp,
}

// NormalizeAircraft cleans one decoded aircraft record. now is the run time
// used for defaulted timestamps.
func NormalizeAircraft(raw RawRecord, format SourceFormat, now time.Time) Normalized[AircraftRecord] {
	c := newCleaner(raw, now)
	rec := AircraftRecord{SourceFormat: format}
	run(c, &rec, aircraftSteps)
	rec.DataStatus = c.status
	rec.CleaningNotes = c.notes
	if rec.CleaningNotes == nil {
		rec.CleaningNotes = []string{}
	}
	return finish(c, rec)
}

func aircraftPosition(c *cleaner, rec *AircraftRecord) bool {
	lat, lon, ok := c.position()
	rec.Latitude, rec.Longitude = lat, lon
	return ok
}

func aircraftAltitude(c *cleaner, rec *AircraftRecord) bool {
	alt := c.raw.floatOr(FieldAltitude, 0)
	switch {
	case alt < 0:
		c.fail(CatNegativeAltitude, fmt.Sprintf("negative altitude %g", alt))
		return false
	case alt > MaxAircraftAltitude:
		c.warn(CatAltitudeAboveMax, fmt.Sprintf("altitude %g clamped to %g", alt, MaxAircraftAltitude))
		alt = MaxAircraftAltitude
	}
	rec.AltitudeFt = alt
	return true
}

func aircraftIdentifier(c *cleaner, rec *AircraftRecord) bool {
	rec.AircraftID = c.raw.stringField(FieldAircraftID)
	if rec.AircraftID == "" {
		rec.AircraftID = Unknown
		c.warn(CatMissingIdentifier, "missing aircraft id")
	}
	return true
}

func aircraftTail(c *cleaner, rec *AircraftRecord) bool {
	rec.AircraftTail = c.raw.stringField(FieldAircraftTail)
	if rec.AircraftTail == "" {
		rec.AircraftTail = Unknown
		c.warn(CatMissingTailNumber, "missing tail number")
	}
	return true
}

func aircraftNullIsland(c *cleaner, rec *AircraftRecord) bool {
	c.nullIsland(rec.Latitude, rec.Longitude)
	return true
}

func aircraftSpeed(c *cleaner, rec *AircraftRecord) bool {
	rec.GroundSpeedKts = c.speed(FieldGroundSpeed, MaxAircraftSpeed)
	return true
}

func aircraftHeading(c *cleaner, rec *AircraftRecord) bool {
	rec.HeadingDeg = c.angle(FieldHeadingDeg, CatHeadingOutOfRange, "heading")
	return true
}

func aircraftTimestamp(c *cleaner, rec *AircraftRecord) bool {
	rec.Timestamp = c.timestamp()
	return true
}
