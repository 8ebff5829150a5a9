package vacation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerRepository interface {
	// ListByEmployee returns entries ordered by date then id.
	ListByEmployee(ctx context.Context, employeeID string) ([]Entry, error)

	Create(ctx context.Context, entry Entry) (Entry, error)

	// CreateEarnedIfAbsent inserts an earned entry unless one already exists
	// for the same employee and date.
	CreateEarnedIfAbsent(ctx context.Context, entry Entry) (bool, error)

	// UpsertInitial creates or replaces the employee's single initial entry.
	UpsertInitial(ctx context.Context, entry Entry) (Entry, error)

	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error

	// DeleteTakenOnDate removes taken entries dated date.
	DeleteTakenOnDate(ctx context.Context, employeeID string, date time.Time) (int64, error)
}
