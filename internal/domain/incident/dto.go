package incident

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type CreateDailyIncidentRequest struct {
	EmployeeID     string  `json:"employee_id"`
	Date           string  `json:"date"`
	IncidentTypeID string  `json:"incident_type_id"`
	Notes          *string `json:"notes,omitempty"`

	ParsedDate time.Time `json:"-"`
}

func (r *CreateDailyIncidentRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.IncidentTypeID) {
		errs = append(errs, validator.ValidationError{Field: "incident_type_id", Message: "incident_type_id is required"})
	}
	if d, ok := validator.IsValidDate(r.Date); ok {
		r.ParsedDate = d
	} else {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateDailyAttendanceRequest sets or clears the entry and exit of a day.
// A nil or empty time removes the corresponding event.
type UpdateDailyAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	EntryTime  *string `json:"entry_time"`
	ExitTime   *string `json:"exit_time"`

	ParsedDate time.Time `json:"-"`
}

func (r *UpdateDailyAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if d, ok := validator.IsValidDate(r.Date); ok {
		r.ParsedDate = d
	} else {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if r.EntryTime != nil && *r.EntryTime != "" && !validator.IsValidClock(*r.EntryTime) {
		errs = append(errs, validator.ValidationError{Field: "entry_time", Message: "entry_time must be HH:MM"})
	}
	if r.ExitTime != nil && *r.ExitTime != "" && !validator.IsValidClock(*r.ExitTime) {
		errs = append(errs, validator.ValidationError{Field: "exit_time", Message: "exit_time must be HH:MM"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type IncidentResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	TypeID     string  `json:"incident_type_id"`
	TypeName   string  `json:"incident_type_name"`
	Code       Code    `json:"code"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Status     Status  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
}

func ToIncidentResponse(i Incident) IncidentResponse {
	return IncidentResponse{
		ID:         i.ID,
		EmployeeID: i.EmployeeID,
		TypeID:     i.TypeID,
		TypeName:   i.Type.Name,
		Code:       i.Type.Code,
		StartDate:  i.StartDate.Format("2006-01-02"),
		EndDate:    i.EndDate.Format("2006-01-02"),
		Status:     i.Status,
		Notes:      i.Notes,
	}
}
