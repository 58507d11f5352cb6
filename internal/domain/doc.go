// Package domain models vessel (AIS) and aircraft (ADS-B) position reports and
// the cleaning rules applied to them.
//
// # Data Sources
//
// Vessel reports arrive in two shapes:
//
//	Sentence format: NMEA 0183 "!AIVDM" / "!AIVDO" lines, one per radio burst.
//	  "!AIVDM,<total>,<index>,<seq>,<channel>,<payload>,<fill>*<checksum>"
//	  Long messages are split across <total> fragments that share <seq> and
//	  <channel>. Fragments are joined before the payload is decoded.
//	Tabular format: Marine Cadastre style CSV with a header row, e.g.
//	  MMSI,BaseDateTime,LAT,LON,SOG,COG,Heading,VesselName,IMO,CallSign,...
//
// Aircraft reports arrive as JSON lines (one object per line with latitude,
// longitude, altitude_ft, ground_speed_kts, heading_deg, aircraft_id,
// aircraft_tail and either a timestamp or year/month/day/hour/minute/second
// parts) or as CSV using the same column names.
//
// # Cleaning Status
//
// Every candidate record gets exactly one status:
//
//	normal   all fields present and in range
//	warning  retained, with a value corrected or defaulted and a note appended
//	error    dropped; never emitted, never used for coverage or online counts
//
// Latitude [-90, 90] and longitude [-180, 180] are hard gates: violating either
// is always an error. Error dominates warning. Once a record fails, no further
// checks run for it.
//
// # AIS Conventions
//
// "Not available" sentinels defined by ITU-R M.1371 are removed by the payload
// decoder before normalization:
//
//	latitude 91, longitude 181, SOG 102.3 kn, COG 360, true heading 511
//
// Navigational status codes 0-15 and ship type codes 0-99 are mapped to labels
// by [NavStatusLabel] and [VesselTypeLabel].
//
// # Coverage
//
// Coverage polygons are display approximations: the bounding box of emitted
// coordinates per source type, padded by 10% of the span (minimum 0.01 degrees)
// and clamped to valid bounds. They are not a spatial index.
package domain
