package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type BonusHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type bonusHandlerImpl struct {
	bonusService bonus.BonusService
}

func NewBonusHandler(bonusService bonus.BonusService) BonusHandler {
	return &bonusHandlerImpl{
		bonusService: bonusService,
	}
}

// Generate implements BonusHandler.
func (h *bonusHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req bonus.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.bonusService.GenerateReport(r.Context(), req.ParsedMonth)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bonus report generated", bonus.ToReportSummary(result.Report, &result.Batch))
}

// Recalculate implements BonusHandler.
func (h *bonusHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.bonusService.Recalculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bonus report recalculated", bonus.ToReportSummary(result.Report, &result.Batch))
}

// Finalize implements BonusHandler.
func (h *bonusHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	var userID *string
	if claims, ok := auth.ClaimsFrom(r.Context()); ok && validator.IsValidUUID(claims.Subject) {
		userID = &claims.Subject
	}

	report, err := h.bonusService.Finalize(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bonus report finalized", bonus.ToReportSummary(report, nil))
}

// Get implements BonusHandler.
func (h *bonusHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	month, err := bonus.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.bonusService.GetReport(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}
