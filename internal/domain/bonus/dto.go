package bonus

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

type GenerateResult struct {
	Report Report        `json:"-"`
	Batch  jobrun.Result `json:"batch"`
}

type EmployeeBonusRow struct {
	EmployeeID          string          `json:"employee_id"`
	EmployeeName        string          `json:"employee_name"`
	BranchName          string          `json:"branch_name"`
	PunctualityEarned   bool            `json:"punctuality_earned"`
	AttendanceEarned    bool            `json:"attendance_earned"`
	LateMinutes         int             `json:"late_minutes"`
	UnjustifiedAbsences int             `json:"unjustified_absences"`
	Total               decimal.Decimal `json:"total"`
}

type ReportResponse struct {
	ID          string             `json:"id"`
	Period      string             `json:"period"`
	Status      ReportStatus       `json:"status"`
	GeneratedAt *time.Time         `json:"generated_at,omitempty"`
	FinalizedAt *time.Time         `json:"finalized_at,omitempty"`
	Employees   []EmployeeBonusRow `json:"employees"`
}

type GenerateReportRequest struct {
	Month string `json:"month"`

	ParsedMonth time.Time `json:"-"`
}

func (r *GenerateReportRequest) Validate() error {
	m, ok := validator.IsValidMonth(r.Month)
	if !ok {
		return validator.ValidationErrors{{Field: "month", Message: ErrInvalidMonth.Error()}}
	}
	r.ParsedMonth = m
	return nil
}

// ReportSummary is returned by the endpoints that change a report.
type ReportSummary struct {
	ID          string         `json:"id"`
	Period      string         `json:"period"`
	Status      ReportStatus   `json:"status"`
	GeneratedAt *time.Time     `json:"generated_at,omitempty"`
	FinalizedAt *time.Time     `json:"finalized_at,omitempty"`
	Batch       *jobrun.Result `json:"batch,omitempty"`
}

func ToReportSummary(r Report, batch *jobrun.Result) ReportSummary {
	return ReportSummary{
		ID:          r.ID,
		Period:      r.Period.Format("2006-01"),
		Status:      r.Status,
		GeneratedAt: r.GeneratedAt,
		FinalizedAt: r.FinalizedAt,
		Batch:       batch,
	}
}
