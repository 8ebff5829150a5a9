package holiday

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
)

type HolidayService interface {
	// Resolve maps each holiday date (YYYY-MM-DD) in [start, end] to its
	// name for the employee's branch.
	Resolve(ctx context.Context, emp employee.Employee, start, end time.Time) (map[string]string, error)
}
