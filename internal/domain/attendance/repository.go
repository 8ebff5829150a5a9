package attendance

import (
	"context"
	"time"
)

// EventRepository defines data access for the time ledger.
type EventRepository interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)

	// ListByEmployee returns events with from <= occurred_at < to ordered by
	// occurred_at then id.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)

	// Update persists OccurredAt, LateMinutes and LateIgnored.
	Update(ctx context.Context, event Event) error

	Delete(ctx context.Context, id string) error

	// DeleteByEmployeeBetween removes events with from <= occurred_at < to.
	DeleteByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) (int64, error)
}
