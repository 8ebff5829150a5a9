package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type VacationHandler interface {
	GetLedger(w http.ResponseWriter, r *http.Request)
	SetInitialBalance(w http.ResponseWriter, r *http.Request)
	RecordTaken(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
}

type vacationHandlerImpl struct {
	vacationService vacation.VacationService
}

func NewVacationHandler(vacationService vacation.VacationService) VacationHandler {
	return &vacationHandlerImpl{
		vacationService: vacationService,
	}
}

// GetLedger implements VacationHandler.
func (h *vacationHandlerImpl) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.vacationService.GetLedger(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, vacation.ToLedgerResponse(ledger))
}

// SetInitialBalance implements VacationHandler.
func (h *vacationHandlerImpl) SetInitialBalance(w http.ResponseWriter, r *http.Request) {
	var req vacation.SetInitialBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	ledger, err := h.vacationService.SetInitialBalance(r.Context(), chi.URLParam(r, "employeeID"), req.Days)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Initial balance set", vacation.ToLedgerResponse(ledger))
}

// RecordTaken implements VacationHandler.
func (h *vacationHandlerImpl) RecordTaken(w http.ResponseWriter, r *http.Request) {
	var req vacation.RecordTakenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	description := req.Description
	if description == "" {
		description = "Vacation taken"
	}

	entry, err := h.vacationService.RecordTaken(r.Context(), chi.URLParam(r, "employeeID"), req.Start, req.End, description, req.MirrorIncident)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Vacation recorded", vacation.EntryResponse{
		ID:          entry.ID,
		Date:        entry.Date.Format("2006-01-02"),
		Type:        entry.Type,
		Days:        entry.Days,
		Balance:     entry.Balance,
		Description: entry.Description,
	})
}

// Recalculate implements VacationHandler.
func (h *vacationHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	balance, err := h.vacationService.Recalculate(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"employee_id": employeeID,
		"balance":     balance,
	})
}
