package vacation

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SetInitialBalanceRequest struct {
	Days decimal.Decimal `json:"days"`
}

type RecordTakenRequest struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Description    string `json:"description"`
	MirrorIncident bool   `json:"mirror_incident"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *RecordTakenRequest) Validate() error {
	var errs validator.ValidationErrors
	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"})
	}
	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: ErrInvalidRange.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	r.Start, r.End = start, end
	return nil
}

type EntryResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        EntryType       `json:"type"`
	Days        decimal.Decimal `json:"days"`
	Balance     decimal.Decimal `json:"balance"`
	Description string          `json:"description"`
}

type LedgerResponse struct {
	EmployeeID string          `json:"employee_id"`
	Balance    decimal.Decimal `json:"balance"`
	Entries    []EntryResponse `json:"entries"`
}

func ToLedgerResponse(l Ledger) LedgerResponse {
	resp := LedgerResponse{EmployeeID: l.EmployeeID, Balance: l.Balance, Entries: make([]EntryResponse, 0, len(l.Entries))}
	for _, e := range l.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			ID:          e.ID,
			Date:        e.Date.Format("2006-01-02"),
			Type:        e.Type,
			Days:        e.Days,
			Balance:     e.Balance,
			Description: e.Description,
		})
	}
	return resp
}
