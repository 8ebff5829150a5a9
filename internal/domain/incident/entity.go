package incident

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

// Code is the stable key of an incident type.
type Code string

const (
	CodeUnjustifiedAbsence Code = "F_INJUST"
	CodeJustifiedAbsence   Code = "F_JUST"
	CodeLate               Code = "RETARDO"
	CodePaidPermission     Code = "P_GOCE"
	CodeUnpaidPermission   Code = "P_SIN_GOCE"
	CodeSickLeave          Code = "INC_GRAL"
	CodeWorkInjury         Code = "INC_TRAB"
	CodeVacation           Code = "VAC"
	CodeHoliday            Code = "FESTIVO"
	CodeRestDay            Code = "DESC"
	CodeNotEmployed        Code = "NO_EMPLEADO"
)

type Type struct {
	ID   string
	Name string
	Code Code
}

type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
)

// Incident covers every date in [StartDate, EndDate].
type Incident struct {
	ID         string
	EmployeeID string
	TypeID     string
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (i Incident) Covers(date time.Time) bool {
	return !date.Before(i.StartDate) && !date.After(i.EndDate)
}

func (i Incident) Days() []time.Time {
	return calendar.EachDay(i.StartDate, i.EndDate)
}
