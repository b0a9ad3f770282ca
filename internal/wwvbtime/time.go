// Package wwvbtime models the timestamp carried by a decoded minute
// frame and the calendar arithmetic the broadcast implies: leap years,
// the announced leap second at the end of June or December, DUT1
// bookkeeping, and the US daylight-saving schedule signalled by the DST
// bits.
package wwvbtime

import (
	"fmt"
	"time"
)

// DST is the two-bit daylight-saving indicator broadcast with each
// frame. It describes the whole UTC day the frame falls in.
type DST uint8

const (
	// DSTStandard: standard time is in effect all day.
	DSTStandard DST = 0
	// DSTEnding: daylight saving ends today at 2 AM local daylight
	// time (1 AM standard).
	DSTEnding DST = 1
	// DSTStarting: daylight saving begins today at 2 AM local
	// standard time.
	DSTStarting DST = 2
	// DSTDaylight: daylight saving is in effect all day.
	DSTDaylight DST = 3
)

func (d DST) String() string {
	switch d {
	case DSTStandard:
		return "standard"
	case DSTEnding:
		return "ending"
	case DSTStarting:
		return "starting"
	case DSTDaylight:
		return "daylight"
	}
	return fmt.Sprintf("DST(%d)", uint8(d))
}

// Time is a broadcast timestamp: the instant a minute frame began, in
// UTC, together with the frame's announcement flags. The zero value is
// 2000-01-01 00:00:00 UTC only once YDay is set to 1; decoded frames
// always carry a valid YDay.
//
// Time is a comparable value type; advancing methods take a pointer
// receiver and mutate in place.
type Time struct {
	Year   int // years since 2000, 0..99 as broadcast
	YDay   int // day of year, 1-based
	Hour   int // 0..23
	Minute int // 0..59
	Second int // 0..60; 60 only during a positive leap second

	LeapYear   bool // broadcast leap-year flag
	LeapSecond bool // a leap second ends the current month
	DST        DST
	DUT1       int8 // UT1-UTC in units of 0.1 s, -9..+9
}

// DUT1RelaxStep is the change applied to DUT1 when a leap second is
// consumed, in tenths of a second. A leap second steps UT1-UTC by one
// full second.
var DUT1RelaxStep int8 = 10

// leap reports whether the Gregorian year 2000+Year is a leap year.
func (t Time) leap() bool {
	y := 2000 + t.Year
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysInYear returns 365 or 366 for the current year.
func (t Time) DaysInYear() int {
	if t.leap() {
		return 366
	}
	return 365
}

// lastDayOfJune returns the day-of-year of June 30.
func (t Time) lastDayOfJune() int {
	if t.leap() {
		return 182
	}
	return 181
}

// SecondsInMinute returns the length of the current minute: 60
// ordinarily, 61 or 59 during the announced leap second at 23:59 UTC
// on the last day of June or December. The sign of DUT1 distinguishes
// insertion from deletion; an announced leap second with DUT1 zero is
// nonsense and treated as an ordinary minute.
func (t Time) SecondsInMinute() int {
	if !t.LeapSecond || t.Hour != 23 || t.Minute != 59 {
		return 60
	}
	if t.YDay != t.lastDayOfJune() && t.YDay != t.DaysInYear() {
		return 60
	}
	switch {
	case t.DUT1 < 0:
		return 61
	case t.DUT1 > 0:
		return 59
	}
	return 60
}

// AdvanceSeconds moves the timestamp forward n seconds, honoring
// irregular minute lengths. n must not be negative.
func (t *Time) AdvanceSeconds(n int) {
	t.Second += n
	for limit := t.SecondsInMinute(); t.Second >= limit; limit = t.SecondsInMinute() {
		t.Second -= limit
		t.AdvanceMinutes(1)
	}
}

// AdvanceMinutes moves the timestamp forward n whole minutes, one at a
// time so leap seconds, DST transitions and year boundaries are
// accounted for in order. The seconds field is left untouched.
func (t *Time) AdvanceMinutes(n int) {
	for ; n > 0; n-- {
		t.advanceMinute()
	}
}

func (t *Time) advanceMinute() {
	// Leaving an irregular minute consumes the announcement and steps
	// DUT1 by a full second in the compensating direction.
	if t.SecondsInMinute() != 60 {
		t.LeapSecond = false
		if t.DUT1 < 0 {
			t.DUT1 += DUT1RelaxStep
		} else {
			t.DUT1 -= DUT1RelaxStep
		}
	}

	t.Minute++
	if t.Minute < 60 {
		return
	}
	t.Minute = 0
	t.Hour++
	if t.Hour < 24 {
		return
	}
	t.Hour = 0

	// The DST bits describe a whole day, so the day transitions
	// resolve exactly at midnight UTC.
	switch t.DST {
	case DSTEnding:
		t.DST = DSTStandard
	case DSTStarting:
		t.DST = DSTDaylight
	}

	days := t.DaysInYear()
	t.YDay++
	if t.YDay > days {
		t.YDay = 1
		t.Year++
		if t.Year == 100 {
			// The broadcast year is two digits.
			t.Year = 0
		}
		t.LeapYear = t.leap()
	}
}

// UTC converts the timestamp to a time.Time. A leap second in progress
// is clamped to :59, since time.Time cannot represent :60.
func (t Time) UTC() time.Time {
	sec := t.Second
	if sec == 60 {
		sec = 59
	}
	day1 := time.Date(2000+t.Year, time.January, 1, t.Hour, t.Minute, sec, 0, time.UTC)
	return day1.AddDate(0, 0, t.YDay-1)
}

// Date returns the calendar date of the timestamp.
func (t Time) Date() (year int, month time.Month, day int) {
	return t.UTC().Date()
}

// Civil is a local wall-clock rendering of a Time. Unlike time.Time it
// can carry a leap second, so Second may be 60.
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
	DST    bool // daylight saving was applied
}

func (c Civil) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		c.Year, int(c.Month), c.Day, c.Hour, c.Minute, c.Second)
}

// Local renders the timestamp in a fixed zone west of UTC by zoneHours,
// applying the broadcast DST bits when observeDST is set. On a
// transition day the switch happens at 2 AM local daylight time when
// ending and 2 AM local standard time when starting.
func (t Time) Local(zoneHours int, observeDST bool) Civil {
	u := t.UTC().Add(-time.Duration(zoneHours) * time.Hour)
	switch t.DST {
	case DSTStandard:
		observeDST = false
	case DSTEnding:
		if u.Hour() >= 1 { // past 1 AM standard, daylight has ended
			observeDST = false
		}
	case DSTStarting:
		if u.Hour() < 2 { // before 2 AM standard, daylight not yet begun
			observeDST = false
		}
	case DSTDaylight:
		// In effect all day.
	}
	if observeDST {
		u = u.Add(time.Hour)
	}
	c := Civil{DST: observeDST}
	c.Year, c.Month, c.Day = u.Date()
	c.Hour, c.Minute, c.Second = u.Clock()
	if t.Second == 60 {
		// Reinstate the leap second clamped away by UTC().
		c.Second = 60
	}
	return c
}

// String renders the timestamp as broadcast: year and ordinal day,
// then the time of day.
func (t Time) String() string {
	return fmt.Sprintf("%04d-%03d %02d:%02d:%02d",
		2000+t.Year, t.YDay, t.Hour, t.Minute, t.Second)
}
