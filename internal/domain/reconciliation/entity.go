package reconciliation

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

// Classification is the single status a day resolves to.
type Classification string

const (
	ClassIncident      Classification = "incident"
	ClassRest          Classification = "rest"
	ClassHoliday       Classification = "holiday"
	ClassHolidayWorked Classification = "holiday_worked"
	ClassAutoAbsence   Classification = "auto_absence"
	ClassWork          Classification = "work"
	ClassIncomplete    Classification = "incomplete"
)

var Classifications = []Classification{
	ClassIncident, ClassRest, ClassHoliday, ClassHolidayWorked, ClassAutoAbsence, ClassWork, ClassIncomplete,
}

// Defect flags a data-quality problem found while reconciling a day. Defects
// never block the computation.
type Defect string

const (
	DefectDuplicateEntry     Defect = "duplicate_entry"
	DefectDuplicateExit      Defect = "duplicate_exit"
	DefectUnpairedBreakStart Defect = "unpaired_break_start"
	DefectUnpairedBreakEnd   Defect = "unpaired_break_end"
	DefectExitBeforeEntry    Defect = "exit_before_entry"
	DefectBreaksExceedShift  Defect = "breaks_exceed_shift"
	DefectMissingEntry       Defect = "missing_entry"
	DefectMissingExit        Defect = "missing_exit"
)

// DayInput carries everything needed to reconcile one employee-day. Today is
// the civil date "now" in the business time zone.
type DayInput struct {
	Date        time.Time
	Today       time.Time
	Location    *time.Location
	HireDate    time.Time
	Detail      *schedule.Detail
	HolidayName string
	Incident    *incident.Incident
	Events      []attendance.Event
}

type Break struct {
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end,omitempty"`
	Minutes int        `json:"minutes"`
}

type DayResult struct {
	Date           time.Time      `json:"date"`
	Classification Classification `json:"classification"`

	EntryTime     *time.Time `json:"entry_time,omitempty"`
	ExitTime      *time.Time `json:"exit_time,omitempty"`
	EntryEventID  *string    `json:"entry_event_id,omitempty"`
	Breaks        []Break    `json:"breaks,omitempty"`
	BreakMinutes  int        `json:"break_minutes"`
	WorkedMinutes int        `json:"worked_minutes"`

	ExpectedMinutes *int `json:"expected_minutes,omitempty"`
	ExtraMinutes    int  `json:"extra_minutes"`
	LateMinutes     *int `json:"late_minutes,omitempty"`
	LateIgnored     bool `json:"late_ignored"`

	IncidentID   *string       `json:"incident_id,omitempty"`
	IncidentName string        `json:"incident_name,omitempty"`
	IncidentCode incident.Code `json:"incident_code,omitempty"`
	HolidayName  string        `json:"holiday_name,omitempty"`

	IsRestDay            bool `json:"is_rest_day"`
	IsUnjustifiedAbsence bool `json:"is_unjustified_absence"`
	HasAttendance        bool `json:"has_attendance"`
	BeforeHire           bool `json:"before_hire"`

	Defects []Defect `json:"defects,omitempty"`
}

// EffectiveLateMinutes is the lateness that counts against bonuses.
func (r DayResult) EffectiveLateMinutes() int {
	if r.LateMinutes == nil || r.LateIgnored {
		return 0
	}
	return *r.LateMinutes
}

// IsUnexcusedAbsence reports a detected absence or a stored unjustified one.
func (r DayResult) IsUnexcusedAbsence() bool {
	if r.Classification == ClassAutoAbsence {
		return !r.BeforeHire
	}
	return r.Classification == ClassIncident && r.IncidentCode == incident.CodeUnjustifiedAbsence
}

// Summary aggregates day results over a range.
type Summary struct {
	EmployeeID        string                 `json:"employee_id"`
	StartDate         time.Time              `json:"start_date"`
	EndDate           time.Time              `json:"end_date"`
	Days              int                    `json:"days"`
	ByClassification  map[Classification]int `json:"by_classification"`
	WorkedMinutes     int                    `json:"worked_minutes"`
	ExtraMinutes      int                    `json:"extra_minutes"`
	LateMinutes       int                    `json:"late_minutes"`
	LateDays          int                    `json:"late_days"`
	UnexcusedAbsences int                    `json:"unexcused_absences"`
	DaysWithDefects   int                    `json:"days_with_defects"`
}

func Summarize(employeeID string, results []DayResult) Summary {
	s := Summary{EmployeeID: employeeID, ByClassification: make(map[Classification]int)}
	for i, r := range results {
		if i == 0 {
			s.StartDate = r.Date
		}
		s.EndDate = r.Date
		s.Days++
		s.ByClassification[r.Classification]++
		s.WorkedMinutes += r.WorkedMinutes
		s.ExtraMinutes += r.ExtraMinutes
		if late := r.EffectiveLateMinutes(); late > 0 {
			s.LateMinutes += late
			s.LateDays++
		}
		if r.IsUnexcusedAbsence() {
			s.UnexcusedAbsences++
		}
		if len(r.Defects) > 0 {
			s.DaysWithDefects++
		}
	}
	return s
}
