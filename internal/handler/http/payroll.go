package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PayrollHandler interface {
	GetOpenPeriod(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)
	Cycle(w http.ResponseWriter, r *http.Request)
	PrePayroll(w http.ResponseWriter, r *http.Request)
	ExportPrePayroll(w http.ResponseWriter, r *http.Request)
	UpsertNote(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	now            func() time.Time
}

func NewPayrollHandler(payrollService payroll.PayrollService, now func() time.Time) PayrollHandler {
	if now == nil {
		now = time.Now
	}
	return &payrollHandlerImpl{
		payrollService: payrollService,
		now:            now,
	}
}

// GetOpenPeriod implements PayrollHandler.
func (h *payrollHandlerImpl) GetOpenPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.payrollService.GetOpenPeriod(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToPeriodResponse(period))
}

// ListPeriods implements PayrollHandler.
func (h *payrollHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	periods, err := h.payrollService.ListPeriods(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, payroll.ToPeriodResponse(p))
	}
	response.Success(w, out)
}

// Cycle implements PayrollHandler.
func (h *payrollHandlerImpl) Cycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.CyclePeriod(r.Context(), h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period closed", result)
}

// PrePayroll implements PayrollHandler.
func (h *payrollHandlerImpl) PrePayroll(w http.ResponseWriter, r *http.Request) {
	report, err := h.payrollService.PrePayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// ExportPrePayroll implements PayrollHandler.
func (h *payrollHandlerImpl) ExportPrePayroll(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.payrollService.ExportPrePayroll(r.Context(), periodID, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("pre-payroll-%s.xlsx", periodID)
	err := response.Attachment(w, xlsxContentType, filename, func(w http.ResponseWriter) error {
		_, err := buf.WriteTo(w)
		return err
	})
	if err != nil {
		slog.Error("Failed to write pre-payroll workbook", "period_id", periodID, "error", err)
	}
}

// UpsertNote implements PayrollHandler.
func (h *payrollHandlerImpl) UpsertNote(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpsertNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	note, err := h.payrollService.UpsertNote(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Note saved", note)
}
