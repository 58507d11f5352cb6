package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// presence describes what a raw field held after coercion.
type presence int

const (
	absent presence = iota
	present
	malformed
)

// floatField coerces a raw value to float64. Empty strings, nil and the
// literal "nan"/"none"/"null" spellings are absent; anything else that does
// not parse is malformed.
func (r RawRecord) floatField(key string) (float64, presence) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, absent
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint32:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if isBlank(s) {
			return 0, absent
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, malformed
		}
		f = p
	default:
		return 0, malformed
	}
	if math.IsNaN(f) {
		return 0, absent
	}
	if math.IsInf(f, 0) {
		return 0, malformed
	}
	return f, present
}

// floatOr returns the field as float64, or def when absent or malformed.
func (r RawRecord) floatOr(key string, def float64) float64 {
	f, p := r.floatField(key)
	if p != present {
		return def
	}
	return f
}

// intOr returns the field truncated to int, or def when absent, malformed or
// outside the int range.
func (r RawRecord) intOr(key string, def int) int {
	f, p := r.floatField(key)
	if p != present || !fitsInt(f) {
		return def
	}
	return int(f)
}

// fitsInt reports whether f truncates to an int without overflow.
func fitsInt(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

// stringField returns the trimmed textual form of a field, or "" when absent.
// Numeric identifiers decoded from JSON are rendered without exponent.
func (r RawRecord) stringField(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case uint32:
		s = strconv.FormatUint(uint64(t), 10)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if isBlank(s) {
		return ""
	}
	return s
}

// stringOr returns the field text or def when it is absent.
func (r RawRecord) stringOr(key, def string) string {
	if s := r.stringField(key); s != "" {
		return s
	}
	return def
}

func isBlank(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "n/a":
		return true
	}
	return false
}

// timestampLayouts are tried in order when a timestamp arrives as text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

// timestampField extracts a timestamp from the record. A time.Time value is
// used as is; strings are parsed against timestampLayouts (naive values are
// UTC); otherwise the year..second parts are composed when any is present.
func (r RawRecord) timestampField() (time.Time, presence) {
	switch t := r[FieldTimestamp].(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, absent
		}
		return t.UTC(), present
	case string:
		s := strings.TrimSpace(t)
		if !isBlank(s) {
			return parseTimestamp(s)
		}
	case nil:
	default:
		return time.Time{}, malformed
	}
	return r.timestampParts()
}

func parseTimestamp(s string) (time.Time, presence) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), present
		}
	}
	return time.Time{}, malformed
}

// timestampParts composes year/month/day/hour/minute/second fields, defaulting
// missing parts to 2023-01-01T00:00:00. A fractional second carries
// microsecond precision.
func (r RawRecord) timestampParts() (time.Time, presence) {
	keys := []string{"year", "month", "day", "hour", "minute", "second"}
	found := false
	for _, k := range keys {
		if _, p := r.floatField(k); p != absent {
			found = true
			break
		}
	}
	if !found {
		return time.Time{}, absent
	}

	defaults := []float64{2023, 1, 1, 0, 0, 0}
	vals := make([]float64, len(keys))
	for i, k := range keys {
		f, p := r.floatField(k)
		switch p {
		case present:
			vals[i] = f
		case malformed:
			return time.Time{}, malformed
		default:
			vals[i] = defaults[i]
		}
	}

	for _, v := range vals[:5] {
		if !fitsInt(v) {
			return time.Time{}, malformed
		}
	}
	year, month, day := int(vals[0]), int(vals[1]), int(vals[2])
	hour, minute := int(vals[3]), int(vals[4])
	sec := vals[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 ||
		minute < 0 || minute > 59 || sec < 0 || sec >= 60 {
		return time.Time{}, malformed
	}
	whole := math.Floor(sec)
	micros := int(math.Round((sec - whole) * 1e6))
	ts := time.Date(year, time.Month(month), day, hour, minute, int(whole), micros*1000, time.UTC)
	if ts.Day() != day {
		return time.Time{}, malformed
	}
	return ts, present
}
