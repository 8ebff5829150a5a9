package payroll

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// ConsolidationReport counts the incidents created per category.
type ConsolidationReport struct {
	PeriodID          string          `json:"period_id"`
	EmployeesScanned  int             `json:"employees_scanned"`
	HolidaysCreated   int             `json:"holidays_created"`
	RestDaysCreated   int             `json:"rest_days_created"`
	AbsencesCreated   int             `json:"absences_created"`
	PreHireCreated    int             `json:"pre_hire_created"`
	SkippedCategories []incident.Code `json:"skipped_categories,omitempty"`
	Failures          []EmployeeError `json:"failures,omitempty"`
}

func (r ConsolidationReport) Created() int {
	return r.HolidaysCreated + r.RestDaysCreated + r.AbsencesCreated + r.PreHireCreated
}

type EmployeeError struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type CycleResult struct {
	Closed        PeriodResponse      `json:"closed"`
	Opened        PeriodResponse      `json:"opened"`
	Consolidation ConsolidationReport `json:"consolidation"`
}

type PeriodResponse struct {
	ID          string       `json:"id"`
	WeekNumber  int          `json:"week_number"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	PaymentDate string       `json:"payment_date"`
	Status      PeriodStatus `json:"status"`
}

func ToPeriodResponse(p Period) PeriodResponse {
	return PeriodResponse{
		ID:          p.ID,
		WeekNumber:  p.WeekNumber,
		StartDate:   p.StartDate.Format("2006-01-02"),
		EndDate:     p.EndDate.Format("2006-01-02"),
		PaymentDate: p.PaymentDate.Format("2006-01-02"),
		Status:      p.Status,
	}
}

type IncidentLine struct {
	Name  string        `json:"name"`
	Code  incident.Code `json:"code"`
	Dates []string      `json:"dates"`
}

type PrePayrollRow struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeCode string         `json:"employee_code"`
	FullName     string         `json:"full_name"`
	DaysInPeriod int            `json:"days_in_period"`
	UnpaidDays   int            `json:"unpaid_days"`
	DaysToPay    int            `json:"days_to_pay"`
	LateMinutes  int            `json:"late_minutes"`
	ExtraMinutes int            `json:"extra_minutes"`
	Incidents    []IncidentLine `json:"incidents"`
	Comments     string         `json:"comments,omitempty"`
}

type BranchPrePayroll struct {
	BranchName string          `json:"branch_name"`
	Rows       []PrePayrollRow `json:"rows"`
}

type PrePayrollReport struct {
	Period      PeriodResponse     `json:"period"`
	GeneratedAt time.Time          `json:"generated_at"`
	Branches    []BranchPrePayroll `json:"branches"`
}

type UpsertNoteRequest struct {
	EmployeeID string `json:"employee_id"`
	Comments   string `json:"comments"`
}

func (r *UpsertNoteRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	r.Comments = strings.TrimSpace(r.Comments)
	if r.Comments == "" {
		errs = append(errs, validator.ValidationError{Field: "comments", Message: ErrCommentRequired.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
