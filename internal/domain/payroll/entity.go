package payroll

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

// Period is a weekly payroll window.
type Period struct {
	ID          string
	WeekNumber  int
	StartDate   time.Time
	EndDate     time.Time
	PaymentDate time.Time
	Status      PeriodStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const PeriodLength = 7

// Next returns the open period that follows p: it starts the day after p
// ends, lasts seven days and is paid the day after it ends. The week number
// is the ISO week of the new start date.
func (p Period) Next() Period {
	start := calendar.AddDays(p.EndDate, 1)
	end := calendar.AddDays(start, PeriodLength-1)
	return Period{
		WeekNumber:  calendar.IsoWeek(start),
		StartDate:   start,
		EndDate:     end,
		PaymentDate: calendar.AddDays(end, 1),
		Status:      PeriodStatusOpen,
	}
}

func (p Period) Days() []time.Time {
	return calendar.EachDay(p.StartDate, p.EndDate)
}

// PeriodNote is an administrator comment for one employee in one period.
type PeriodNote struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	PeriodID   string    `json:"payroll_period_id"`
	Comments   string    `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
