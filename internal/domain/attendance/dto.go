package attendance

import (
	"errors"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type ClockRequest struct {
	Image []byte
	Mode  Mode
	// AuthEmployeeID, when set, must match the recognized employee.
	AuthEmployeeID *string
}

func (r *ClockRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Image) == 0 {
		errs = append(errs, validator.ValidationError{Field: "photo", Message: ErrImageRequired.Error()})
	}
	r.Mode = Mode(strings.ToLower(strings.TrimSpace(string(r.Mode))))
	if r.Mode == "" {
		r.Mode = ModeWork
	}
	if r.Mode != ModeWork && r.Mode != ModeBreak {
		errs = append(errs, validator.ValidationError{Field: "mode", Message: ErrInvalidMode.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ClockResponse struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	EventID      string    `json:"event_id"`
	Type         EventType `json:"type"`
	OccurredAt   time.Time `json:"occurred_at"`
	LateMinutes  *int      `json:"late_minutes,omitempty"`
	Message      string    `json:"message"`
}

type UpdateBreakRequest struct {
	StartEventID string `json:"start_event_id"`
	EndEventID   string `json:"end_event_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

func (r UpdateBreakRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.StartEventID) {
		errs = append(errs, validator.ValidationError{Field: "start_event_id", Message: "start_event_id is required"})
	}
	if validator.IsEmpty(r.EndEventID) {
		errs = append(errs, validator.ValidationError{Field: "end_event_id", Message: "end_event_id is required"})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if !validator.IsValidClock(r.StartTime) {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time must be HH:MM"})
	}
	if !validator.IsValidClock(r.EndTime) {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be HH:MM"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RepairReport lists what a repair pass changed.
type RepairReport struct {
	EmployeeID        string   `json:"employee_id"`
	RemovedEventIDs   []string `json:"removed_event_ids"`
	SynthesizedEvents []Event  `json:"synthesized_events"`
}

type DeleteBreakRequest struct {
	StartEventID string `json:"start_event_id"`
	EndEventID   string `json:"end_event_id"`
}

func (r DeleteBreakRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.StartEventID) {
		errs = append(errs, validator.ValidationError{Field: "start_event_id", Message: "start_event_id is required"})
	}
	if validator.IsEmpty(r.EndEventID) {
		errs = append(errs, validator.ValidationError{Field: "end_event_id", Message: "end_event_id is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RepairRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *RepairRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	start, end, err := validator.DateRange(r.StartDate, r.EndDate, 0)
	if err != nil {
		var rangeErrs validator.ValidationErrors
		if errors.As(err, &rangeErrs) {
			errs = append(errs, rangeErrs...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	r.Start, r.End = start, end
	return nil
}

// FeedEvent is one item of the live clocking feed.
type FeedEvent struct {
	Event string        `json:"event"`
	Data  ClockResponse `json:"data"`
}
