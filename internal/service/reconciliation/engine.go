package reconciliation

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

// ReconcileDay classifies one employee-day and computes its times. It is a
// pure function of its input.
//
// Precedence: incident, rest day, holiday, automatic absence (past days
// only), then a regular work day.
func ReconcileDay(in reconciliation.DayInput) reconciliation.DayResult {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	date := calendar.Normalize(in.Date)
	today := calendar.Normalize(in.Today)

	res := reconciliation.DayResult{
		Date:          date,
		HolidayName:   in.HolidayName,
		HasAttendance: len(in.Events) > 0,
		BeforeHire:    date.Before(calendar.Normalize(in.HireDate)),
	}

	t := computeTimes(in.Events)
	res.EntryTime, res.ExitTime, res.EntryEventID = t.entry, t.exit, t.entryID
	res.Breaks, res.BreakMinutes, res.WorkedMinutes = t.breaks, t.breakMinutes, t.worked
	res.LateIgnored = t.lateIgnored
	res.Defects = t.defects

	if in.Detail != nil {
		expected := in.Detail.ExpectedMinutes()
		res.ExpectedMinutes = &expected
		if res.WorkedMinutes > expected {
			res.ExtraMinutes = res.WorkedMinutes - expected
		}
		if t.entry != nil {
			res.LateMinutes = LateMinutes(*in.Detail, *t.entry, date, loc)
		}
	}

	switch {
	case in.Incident != nil:
		res.Classification = reconciliation.ClassIncident
		id := in.Incident.ID
		res.IncidentID = &id
		res.IncidentName = in.Incident.Type.Name
		res.IncidentCode = in.Incident.Type.Code
	case in.Detail == nil:
		res.Classification = reconciliation.ClassRest
		res.IsRestDay = true
	case in.HolidayName != "":
		if res.HasAttendance {
			res.Classification = reconciliation.ClassHolidayWorked
		} else {
			res.Classification = reconciliation.ClassHoliday
		}
	case !res.HasAttendance && date.Before(today):
		res.Classification = reconciliation.ClassAutoAbsence
		res.IsUnjustifiedAbsence = true
	default:
		if !date.Before(today) && (t.entry == nil || t.exit == nil) {
			res.Classification = reconciliation.ClassIncomplete
		} else {
			res.Classification = reconciliation.ClassWork
		}
	}

	// An open day that is still in progress is not a defect yet.
	if res.Classification == reconciliation.ClassIncomplete {
		res.Defects = withoutDefect(res.Defects, reconciliation.DefectMissingExit)
	}

	return res
}

// LateMinutes returns how many whole minutes entryAt is past the shift start
// on date, or nil when the employee was on time.
func LateMinutes(detail schedule.Detail, entryAt time.Time, date time.Time, loc *time.Location) *int {
	scheduled := detail.Start.On(date, loc)
	if !entryAt.After(scheduled) {
		return nil
	}
	minutes := calendar.WholeMinutes(entryAt.Sub(scheduled))
	if minutes <= 0 {
		return nil
	}
	return &minutes
}

type dayTimes struct {
	entry        *time.Time
	entryID      *string
	exit         *time.Time
	lateIgnored  bool
	breaks       []reconciliation.Break
	breakMinutes int
	worked       int
	defects      []reconciliation.Defect
}

func computeTimes(events []attendance.Event) dayTimes {
	var t dayTimes
	if len(events) == 0 {
		return t
	}

	sorted := make([]attendance.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].OccurredAt.Equal(sorted[j].OccurredAt) {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var entries, exits, starts, ends []attendance.Event
	for _, ev := range sorted {
		switch ev.Type {
		case attendance.EventEntry:
			entries = append(entries, ev)
		case attendance.EventExit:
			exits = append(exits, ev)
		case attendance.EventBreakStart:
			starts = append(starts, ev)
		case attendance.EventBreakEnd:
			ends = append(ends, ev)
		}
	}

	if len(entries) > 1 {
		t.defects = append(t.defects, reconciliation.DefectDuplicateEntry)
	}
	if len(exits) > 1 {
		t.defects = append(t.defects, reconciliation.DefectDuplicateExit)
	}

	if len(entries) > 0 {
		first := entries[0]
		at, id := first.OccurredAt, first.ID
		t.entry, t.entryID = &at, &id
		t.lateIgnored = first.LateIgnored
	} else {
		t.defects = append(t.defects, reconciliation.DefectMissingEntry)
	}
	if len(exits) > 0 {
		at := exits[len(exits)-1].OccurredAt
		t.exit = &at
	} else if t.entry != nil {
		t.defects = append(t.defects, reconciliation.DefectMissingExit)
	}

	// Breaks pair by position: the i-th start with the i-th end.
	for i, s := range starts {
		b := reconciliation.Break{Start: s.OccurredAt}
		if i < len(ends) {
			end := ends[i].OccurredAt
			b.End = &end
			b.Minutes = calendar.AbsMinutes(s.OccurredAt, end)
			t.breakMinutes += b.Minutes
		}
		t.breaks = append(t.breaks, b)
	}
	if len(starts) > len(ends) {
		t.defects = append(t.defects, reconciliation.DefectUnpairedBreakStart)
	}
	if len(ends) > len(starts) {
		t.defects = append(t.defects, reconciliation.DefectUnpairedBreakEnd)
	}

	if t.entry != nil && t.exit != nil {
		if t.exit.Before(*t.entry) {
			t.defects = append(t.defects, reconciliation.DefectExitBeforeEntry)
		}
		worked := calendar.AbsMinutes(*t.entry, *t.exit) - t.breakMinutes
		if worked < 0 {
			t.defects = append(t.defects, reconciliation.DefectBreaksExceedShift)
			worked = 0
		}
		t.worked = worked
	}

	return t
}

func withoutDefect(defects []reconciliation.Defect, drop reconciliation.Defect) []reconciliation.Defect {
	out := defects[:0]
	for _, d := range defects {
		if d != drop {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
