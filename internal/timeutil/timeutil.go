// Package timeutil converts between the 14-digit CDX timestamp convention
// (YYYYMMDDhhmmss) and epoch time, and decodes Common Crawl index names
// into the timestamp of the end of their data window.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sigman78/cdxt/internal/cdxerr"
)

const (
	layout = "20060102150405"

	// TimestampLow and TimestampHigh bound any legal CDX timestamp; short
	// timestamps are right-padded with these before parsing.
	TimestampLow  = "19780101000000"
	TimestampHigh = "29991231235959"
)

// daysInMonth gives a fixed (non-leap-year-aware) day count per month,
// index 0 unused so index == month number.
var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// PadLow right-pads a short timestamp down to the start of its range.
func PadLow(ts string) string {
	if len(ts) >= len(TimestampLow) {
		return ts
	}
	return ts + TimestampLow[len(ts):]
}

// PadHigh right-pads a short timestamp up to the end of its range, clamping
// the day-of-month field to the last valid day for the supplied month (no
// leap-year correction: February is always padded to the 28th).
func PadHigh(ts string) string {
	padded := ts
	if len(padded) < len(TimestampHigh) {
		padded = padded + TimestampHigh[len(padded):]
	}
	if len(padded) < 6 {
		return padded
	}
	month, err := strconv.Atoi(padded[4:6])
	if err != nil || month < 1 || month > 12 {
		return padded
	}
	day, err := strconv.Atoi(padded[6:8])
	if err != nil || day > daysInMonth[month] {
		day = daysInMonth[month]
	}
	return padded[:6] + fmt.Sprintf("%02d", day) + padded[8:]
}

// looks like a unix timestamp if it would parse as a small decimal in
// roughly the 1970-01 .. 2033 range, i.e. someone passed epoch seconds
// where a 14-digit CDX timestamp was expected.
func looksLikeUnixTime(ts string) bool {
	if len(ts) < 9 || len(ts) > 10 {
		return false
	}
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	const unixLow = 0           // 1970-01-01
	const unixHigh = 2000000000 // ~2033-05-18
	return n >= unixLow && n <= unixHigh
}

// ToEpoch parses a (possibly short) CDX timestamp, padded low, as UTC.
func ToEpoch(ts string) (time.Time, error) {
	padded := PadLow(ts)
	t, err := time.ParseInLocation(layout, padded, time.UTC)
	if err != nil {
		if looksLikeUnixTime(ts) {
			return time.Time{}, fmt.Errorf("%w: %q looks like a unix timestamp, not a 14-digit CDX timestamp: %v",
				cdxerr.InvalidTimestamp, ts, err)
		}
		return time.Time{}, fmt.Errorf("%w: %q: %v", cdxerr.BadTimestamp, ts, err)
	}
	return t, nil
}

// FromEpoch formats t in UTC as a 14-digit CDX timestamp.
func FromEpoch(t time.Time) string {
	return t.UTC().Format(layout)
}

var (
	ccMainWeek    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	ccMainSpecial = regexp.MustCompile(`^\d{4}(-\d{4})?$`)
)

// ccPseudoIndexEnd is the hard-coded end-of-data timestamp for the pre-2013
// pseudo-indices that don't carry an ISO week in their name.
var ccPseudoIndexEnd = map[string]string{
	"2012":      "20130101000000",
	"2009-2010": "20110101000000",
	"2008-2009": "20100101000000",
}

// CCIndexNameToEpoch decodes a Common Crawl index-name fragment (the part
// matched out of "CC-MAIN-<fragment>-index" or "CC-MAIN-<fragment>i") into
// the timestamp marking the end of that crawl's data window.
//
// Two shapes are recognised:
//   - "YYYY-WW": an ISO week number, treated as the Sunday of that week.
//   - a hard-coded pre-2013 pseudo-index name ("2012", "2009-2010",
//     "2008-2009").
func CCIndexNameToEpoch(name string) (string, error) {
	if m := ccMainWeek.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		return isoWeekSundayTimestamp(year, week), nil
	}
	if ts, ok := ccPseudoIndexEnd[name]; ok {
		return ts, nil
	}
	return "", fmt.Errorf("%w: unrecognized cc index name fragment %q", cdxerr.BadTimestamp, name)
}

// isoWeekSundayTimestamp returns the CDX timestamp for the Sunday that ends
// ISO week `week` of `year`.
func isoWeekSundayTimestamp(year, week int) string {
	// ISO week 1 is the week containing the first Thursday of the year.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	isoWeekday := int(jan4.Weekday())
	if isoWeekday == 0 {
		isoWeekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(isoWeekday - 1))
	sunday := week1Monday.AddDate(0, 0, (week-1)*7+6)
	return FromEpoch(sunday)
}
