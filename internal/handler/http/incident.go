package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type IncidentHandler interface {
	CreateDaily(w http.ResponseWriter, r *http.Request)
	RemoveDaily(w http.ResponseWriter, r *http.Request)
	UpdateDailyAttendance(w http.ResponseWriter, r *http.Request)
}

type incidentHandlerImpl struct {
	incidentService incident.IncidentService
}

func NewIncidentHandler(incidentService incident.IncidentService) IncidentHandler {
	return &incidentHandlerImpl{
		incidentService: incidentService,
	}
}

// CreateDaily implements IncidentHandler.
func (h *incidentHandlerImpl) CreateDaily(w http.ResponseWriter, r *http.Request) {
	var req incident.CreateDailyIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.incidentService.CreateDailyIncident(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Incident recorded", incident.ToIncidentResponse(created))
}

// RemoveDaily implements IncidentHandler.
func (h *incidentHandlerImpl) RemoveDaily(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	dateStr := r.URL.Query().Get("date")

	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	date, ok := validator.IsValidDate(dateStr)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	if err := h.incidentService.RemoveDailyIncident(r.Context(), employeeID, date); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Incident removed", nil)
}

// UpdateDailyAttendance implements IncidentHandler.
func (h *incidentHandlerImpl) UpdateDailyAttendance(w http.ResponseWriter, r *http.Request) {
	var req incident.UpdateDailyAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.incidentService.UpdateDailyAttendance(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated", nil)
}
