package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// ListApplicable returns active rules that are universal or linked to
	// branchID, in catalog order.
	ListApplicable(ctx context.Context, branchID string) ([]Rule, error)

	// ListConcrete returns concrete dates in [start, end] for the given rules.
	ListConcrete(ctx context.Context, ruleIDs []string, start, end time.Time) ([]ConcreteHoliday, error)
}
