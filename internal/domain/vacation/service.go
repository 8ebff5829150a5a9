package vacation

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/shopspring/decimal"
)

type VacationService interface {
	GetLedger(ctx context.Context, employeeID string) (Ledger, error)

	// Recalculate rewrites running balances and the employee's cached
	// balance while holding a lock on the employee.
	Recalculate(ctx context.Context, employeeID string) (decimal.Decimal, error)

	SetInitialBalance(ctx context.Context, employeeID string, days decimal.Decimal) (Ledger, error)

	// RecordTaken debits one day per calendar date in [start, end].
	RecordTaken(ctx context.Context, employeeID string, start, end time.Time, description string, mirrorIncident bool) (Entry, error)

	RemoveTakenOnDate(ctx context.Context, employeeID string, date time.Time) error

	AddAdjustment(ctx context.Context, employeeID string, date time.Time, days decimal.Decimal, description string) (Entry, error)

	// AccrueWeek credits the weekly share of the annual entitlement to every
	// active employee once per ISO week.
	AccrueWeek(ctx context.Context, now time.Time) (jobrun.Result, error)

	// SetInitialBalancesForAll seeds every active employee with the share of
	// their entitlement accrued since the last anniversary.
	SetInitialBalancesForAll(ctx context.Context, now time.Time) (jobrun.Result, error)
}
