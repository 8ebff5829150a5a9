// Package calendar holds civil-date helpers. A civil date is a time.Time at
// 00:00 UTC; the business time zone is only applied when an instant has to be
// mapped onto a date or a wall-clock time has to become an instant.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date builds a civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the civil date of instant t as observed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return Date(l.Year(), l.Month(), l.Day())
}

// Normalize drops any clock component and location from d.
func Normalize(d time.Time) time.Time {
	return Date(d.Year(), d.Month(), d.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Key formats d as YYYY-MM-DD.
func Key(d time.Time) string {
	return d.Format(DateLayout)
}

func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysInclusive counts the dates in [start, end]; zero when end precedes start.
func DaysInclusive(start, end time.Time) int {
	start, end = Normalize(start), Normalize(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay lists every date in [start, end].
func EachDay(start, end time.Time) []time.Time {
	n := DaysInclusive(start, end)
	days := make([]time.Time, 0, n)
	d := Normalize(start)
	for i := 0; i < n; i++ {
		days = append(days, AddDays(d, i))
	}
	return days
}

// IsoWeekday maps Monday=1 .. Sunday=7.
func IsoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsoWeek returns the ISO-8601 week number of d.
func IsoWeek(d time.Time) int {
	_, w := d.ISOWeek()
	return w
}

// StartOfIsoWeek returns the Monday of d's ISO week.
func StartOfIsoWeek(d time.Time) time.Time {
	d = Normalize(d)
	return AddDays(d, 1-IsoWeekday(d))
}

func StartOfMonth(d time.Time) time.Time {
	return Date(d.Year(), d.Month(), 1)
}

func EndOfMonth(d time.Time) time.Time {
	return AddDays(StartOfMonth(d).AddDate(0, 1, 0), -1)
}

// StartOfDayIn returns the instant at which civil date d begins in loc.
func StartOfDayIn(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// CompletedYears counts whole years elapsed from since to asOf.
func CompletedYears(since, asOf time.Time) int {
	since, asOf = Normalize(since), Normalize(asOf)
	if asOf.Before(since) {
		return 0
	}
	years := asOf.Year() - since.Year()
	if AddYears(since, years).After(asOf) {
		years--
	}
	return years
}

// AddYears adds n years, clamping Feb 29 to Feb 28 on non-leap years.
func AddYears(d time.Time, n int) time.Time {
	y := d.Year() + n
	day := d.Day()
	if last := EndOfMonth(Date(y, d.Month(), 1)).Day(); day > last {
		day = last
	}
	return Date(y, d.Month(), day)
}

// ClockTime is a wall-clock time expressed as minutes after midnight.
type ClockTime int

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	return ClockTime(h*60 + m), nil
}

func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at which this clock time occurs on civil date d in loc.
func (c ClockTime) On(d time.Time, loc *time.Location) time.Time {
	return StartOfDayIn(d, loc).Add(time.Duration(c) * time.Minute)
}

// ClockOf returns the wall-clock time of t in loc.
func ClockOf(t time.Time, loc *time.Location) ClockTime {
	l := t.In(loc)
	return ClockTime(l.Hour()*60 + l.Minute())
}

// WholeMinutes truncates d to whole minutes.
func WholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}

// AbsMinutes is the whole-minute magnitude of b - a.
func AbsMinutes(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return WholeMinutes(d)
}
