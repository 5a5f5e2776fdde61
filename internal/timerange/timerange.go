// Package timerange implements half-open UTC interval math for availability
// windows and bookings. No state; all comparisons happen in UTC.
package timerange

import (
	"math"
	"time"

	"github.com/slotwise/slotwise/internal/fault"
)

// LocalLayout is the wire format for localized timestamps: a naive local
// time whose zone arrives separately as an IANA name.
const LocalLayout = "2006-01-02T15:04:05"

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether [outerStart,outerEnd) fully covers
// [innerStart,innerEnd).
func Contains(outerStart, outerEnd, innerStart, innerEnd time.Time) bool {
	return !outerStart.After(innerStart) && !outerEnd.Before(innerEnd)
}

// DurationMinutes returns the length of [start,end) in minutes, rounded up.
func DurationMinutes(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Seconds() / 60))
}

// SameDay reports whether both instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseInZone parses a naive local timestamp in the named IANA zone and
// returns the instant in UTC. An unknown zone or a malformed timestamp is a
// validation error, never a panic.
func ParseInZone(value, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fault.Wrap(err, fault.KindValidation, fault.CodeInvalidTimezone,
			"unknown timezone "+tz)
	}
	t, err := time.ParseInLocation(LocalLayout, value, loc)
	if err != nil {
		// RFC3339 input already carries an offset; accept it too.
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fault.Wrap(err, fault.KindValidation, fault.CodeInvalidRange,
				"malformed timestamp "+value)
		}
	}
	return t.UTC(), nil
}

// MonthBucket returns the month number of today shifted by offset months.
// This backs the coarse month_number filter; it deliberately ignores the
// year, matching the stored denormalized column.
func MonthBucket(now time.Time, offsetMonths int) int {
	return int(now.AddDate(0, offsetMonths, 0).Month())
}
