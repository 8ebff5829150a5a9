package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	BranchID         string
	BranchName       string
	FaceID           *string
	HireDate         time.Time
	TerminationDate  *time.Time
	EmploymentStatus EmploymentStatus
	VacationBalance  decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

// HiredBy reports whether the employee had started on or before date.
func (e Employee) HiredBy(date time.Time) bool {
	return !e.HireDate.After(date)
}

// ActiveDuring reports whether the employment overlaps [start, end].
func (e Employee) ActiveDuring(start, end time.Time) bool {
	if e.HireDate.After(end) {
		return false
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(start) {
		return false
	}
	return true
}
