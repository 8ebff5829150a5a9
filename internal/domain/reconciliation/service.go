package reconciliation

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
)

type ReconciliationService interface {
	// ReconcileRange reconciles every date in [start, end] for the employee
	// as of the service clock.
	ReconcileRange(ctx context.Context, employeeID string, start, end time.Time) ([]DayResult, error)

	// ReconcileEmployee is ReconcileRange for an already loaded employee and
	// an explicit civil "today".
	ReconcileEmployee(ctx context.Context, emp employee.Employee, start, end, today time.Time) ([]DayResult, error)

	SummarizeRange(ctx context.Context, employeeID string, start, end time.Time) (Summary, error)
}
