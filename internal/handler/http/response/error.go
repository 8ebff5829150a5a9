package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/facematch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var apiErr *facematch.APIError
	if errors.As(err, &apiErr) {
		slog.Error("Face recognition service failed", "status", apiErr.StatusCode, "error", apiErr.Message)
		BadGateway(w, "Face recognition service unavailable")
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, auth.ErrEmployeeClaimMissing):
		Forbidden(w, err.Error())

	// Lookups
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, schedule.ErrWorkScheduleNotFound):
		NotFound(w, "Work schedule not found")
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Attendance event not found")
	case errors.Is(err, incident.ErrIncidentNotFound):
		NotFound(w, "Incident not found")
	case errors.Is(err, incident.ErrIncidentTypeNotFound):
		NotFound(w, "Incident type not found")
	case errors.Is(err, payroll.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payroll.ErrNoOpenPeriod):
		NotFound(w, "No open payroll period")
	case errors.Is(err, bonus.ErrReportNotFound):
		NotFound(w, "Bonus report not found")
	case errors.Is(err, vacation.ErrEntryNotFound):
		NotFound(w, "Vacation entry not found")

	// Clocking
	case errors.Is(err, attendance.ErrFaceNotRecognized):
		NotFound(w, err.Error())
	case errors.Is(err, attendance.ErrFaceMismatch):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrShiftAlreadyFinished),
		errors.Is(err, attendance.ErrEntryRequired),
		errors.Is(err, attendance.ErrBreakOpen):
		Conflict(w, err.Error())

	// State conflicts
	case errors.Is(err, payroll.ErrPeriodConflict),
		errors.Is(err, payroll.ErrPeriodNotOpen),
		errors.Is(err, payroll.ErrPeriodNotEnded),
		errors.Is(err, incident.ErrDayAlreadyCovered),
		errors.Is(err, bonus.ErrReportFinalized),
		errors.Is(err, bonus.ErrNoAutomaticBonuses),
		errors.Is(err, vacation.ErrVacationTypeAbsent):
		Conflict(w, err.Error())

	// Malformed input the validators do not catch
	case errors.Is(err, attendance.ErrInvalidRange),
		errors.Is(err, attendance.ErrInvalidBreak),
		errors.Is(err, attendance.ErrBreakMismatch),
		errors.Is(err, attendance.ErrEventWrongDate),
		errors.Is(err, attendance.ErrNotEntryEvent),
		errors.Is(err, attendance.ErrInvalidMode),
		errors.Is(err, attendance.ErrImageRequired),
		errors.Is(err, incident.ErrInvalidRange),
		errors.Is(err, reconciliation.ErrInvalidRange),
		errors.Is(err, reconciliation.ErrRangeTooLong),
		errors.Is(err, vacation.ErrInvalidRange),
		errors.Is(err, vacation.ErrNegativeInitial),
		errors.Is(err, bonus.ErrInvalidMonth),
		errors.Is(err, payroll.ErrCommentRequired):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
