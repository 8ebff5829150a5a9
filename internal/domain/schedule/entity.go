package schedule

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

type WorkSchedule struct {
	ID        string
	Name      string
	Week      Week
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Detail is the shift for one ISO weekday of a schedule.
type Detail struct {
	DayOfWeek   int // 1=Monday, ..., 7=Sunday
	Start       calendar.ClockTime
	End         calendar.ClockTime
	MealMinutes int
}

// ExpectedMinutes is |end - start| minus the meal allowance, never negative.
func (d Detail) ExpectedMinutes() int {
	span := int(d.End - d.Start)
	if span < 0 {
		span = -span
	}
	expected := span - d.MealMinutes
	if expected < 0 {
		return 0
	}
	return expected
}

// Week maps ISO weekday to its shift. A missing weekday is a rest day.
type Week map[int]Detail

func NewWeek(details []Detail) Week {
	w := make(Week, len(details))
	for _, d := range details {
		w[d.DayOfWeek] = d
	}
	return w
}

// For returns the shift that applies on date.
func (w Week) For(date time.Time) (Detail, bool) {
	d, ok := w[calendar.IsoWeekday(date)]
	return d, ok
}

type EmployeeScheduleAssignment struct {
	ID             string
	EmployeeID     string
	WorkScheduleID string
	StartDate      time.Time
	EndDate        *time.Time
	Week           Week
}

// Covers reports whether the assignment is in force on date.
func (a EmployeeScheduleAssignment) Covers(date time.Time) bool {
	if date.Before(a.StartDate) {
		return false
	}
	return a.EndDate == nil || !date.After(*a.EndDate)
}

// Timeline is an employee's assignment history ordered by start date.
type Timeline []EmployeeScheduleAssignment

// DetailFor resolves the shift for date from the latest assignment in force
// that day. ok is false for rest days and for dates with no assignment.
func (t Timeline) DetailFor(date time.Time) (Detail, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Covers(date) {
			return t[i].Week.For(date)
		}
	}
	return Detail{}, false
}

// HasAssignment reports whether any assignment is in force on date.
func (t Timeline) HasAssignment(date time.Time) bool {
	for _, a := range t {
		if a.Covers(date) {
			return true
		}
	}
	return false
}
