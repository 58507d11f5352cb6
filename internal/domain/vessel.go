package domain

import "time"

var vesselSteps = []step[VesselRecord]{
	vesselPosition,
	vesselIdentifier,
	vesselNullIsland,
	vesselSpeed,
	vesselCourse,
	vesselHeading,
	vesselCodes,
	vesselTimestamp,
	vesselExtended,
}

// NormalizeVessel cleans one decoded vessel record. now is the run time used
// for defaulted timestamps.
func NormalizeVessel(raw RawRecord, format SourceFormat, now time.Time) Normalized[VesselRecord] {
	c := newCleaner(raw, now)
	rec := VesselRecord{
		SourceFormat:     format,
		VesselName:       Unknown,
		CallSign:         Unknown,
		IMO:              Unknown,
		Cargo:            Unknown,
		TransceiverClass: Unknown,
	}
	run(c, &rec, vesselSteps)
	rec.DataStatus = c.status
	rec.CleaningNotes = c.notes
	if rec.CleaningNotes == nil {
		rec.CleaningNotes = []string{}
	}
	return finish(c, rec)
}

func vesselPosition(c *cleaner, rec *VesselRecord) bool {
	lat, lon, ok := c.position()
	rec.Latitude, rec.Longitude = lat, lon
	return ok
}

func vesselIdentifier(c *cleaner, rec *VesselRecord) bool {
	rec.MMSI = c.raw.stringField(FieldMMSI)
	if rec.MMSI == "" {
		rec.MMSI = Unknown
		c.warn(CatMissingIdentifier, "missing MMSI")
	}
	return true
}

func vesselNullIsland(c *cleaner, rec *VesselRecord) bool {
	c.nullIsland(rec.Latitude, rec.Longitude)
	return true
}

func vesselSpeed(c *cleaner, rec *VesselRecord) bool {
	rec.SOG = c.speed(FieldSOG, MaxVesselSOG)
	return true
}

func vesselCourse(c *cleaner, rec *VesselRecord) bool {
	rec.COG = c.angle(FieldCOG, CatCourseOutOfRange, "course")
	return true
}

func vesselHeading(c *cleaner, rec *VesselRecord) bool {
	rec.Heading = c.angle(FieldHeading, CatHeadingOutOfRange, "heading")
	return true
}

func vesselCodes(c *cleaner, rec *VesselRecord) bool {
	rec.NavStatusCode = c.raw.intOr(FieldNavStatus, 15)
	rec.NavStatus = NavStatusLabel(rec.NavStatusCode)
	rec.VesselTypeCode = c.raw.intOr(FieldVesselType, 0)
	rec.VesselType = VesselTypeLabel(rec.VesselTypeCode)
	return true
}

func vesselTimestamp(c *cleaner, rec *VesselRecord) bool {
	if rec.SourceFormat == FormatVesselSentence {
		// Sentences carry no time of their own; reception is the run.
		if ts, p := c.raw.timestampField(); p == present {
			rec.Timestamp = ts
		} else {
			rec.Timestamp = c.now
		}
		return true
	}
	rec.Timestamp = c.timestamp()
	return true
}

func vesselExtended(c *cleaner, rec *VesselRecord) bool {
	if rec.SourceFormat != FormatVesselTabular {
		rec.VesselName = c.raw.stringOr(FieldVesselName, Unknown)
		return true
	}
	rec.VesselName = c.raw.stringOr(FieldVesselName, Unknown)
	rec.IMO = c.raw.stringOr(FieldIMO, Unknown)
	rec.Cargo = c.raw.stringOr(FieldCargo, Unknown)
	rec.TransceiverClass = c.raw.stringOr(FieldTransceiverClass, Unknown)
	rec.Length = c.raw.floatOr(FieldLength, 0)
	rec.Width = c.raw.floatOr(FieldWidth, 0)
	rec.Draft = c.raw.floatOr(FieldDraft, 0)

	rec.CallSign = c.raw.stringField(FieldCallSign)
	if rec.CallSign == "" {
		rec.CallSign = Unknown
		c.warn(CatMissingCallSign, "missing call sign")
	}
	return true
}
