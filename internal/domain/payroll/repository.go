package payroll

import (
	"context"
)

type PeriodRepository interface {
	GetOpen(ctx context.Context) (Period, error)
	GetByID(ctx context.Context, id string) (Period, error)
	List(ctx context.Context, limit int) ([]Period, error)

	// LockOpen locks the period row if it is still open. Returns
	// ErrPeriodNotOpen otherwise. Must run inside a transaction.
	LockOpen(ctx context.Context, id string) (Period, error)

	Close(ctx context.Context, id string) error

	// Create inserts a period. A second open period is rejected with
	// ErrPeriodConflict.
	Create(ctx context.Context, p Period) (Period, error)
}

type NoteRepository interface {
	Upsert(ctx context.Context, note PeriodNote) (PeriodNote, error)
	ListByPeriod(ctx context.Context, periodID string) (map[string]PeriodNote, error)
}
