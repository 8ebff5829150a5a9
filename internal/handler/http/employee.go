package http

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// maxRangeDays bounds the date ranges accepted by the reporting endpoints.
const maxRangeDays = 366

type EmployeeHandler interface {
	Days(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	reconciliationService reconciliation.ReconciliationService
}

func NewEmployeeHandler(reconciliationService reconciliation.ReconciliationService) EmployeeHandler {
	return &employeeHandlerImpl{
		reconciliationService: reconciliationService,
	}
}

// Days implements EmployeeHandler.
func (h *employeeHandlerImpl) Days(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	start, end, err := validator.DateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"), maxRangeDays)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.reconciliationService.ReconcileRange(r.Context(), employeeID, start, end)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Summary implements EmployeeHandler.
func (h *employeeHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	start, end, err := validator.DateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"), maxRangeDays)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.reconciliationService.SummarizeRange(r.Context(), employeeID, start, end)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}
