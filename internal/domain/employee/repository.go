package employee

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByFaceID(ctx context.Context, faceID string) (Employee, error)

	// GetActiveDuring returns employees hired on or before end and not
	// terminated before start, ordered by branch then name.
	GetActiveDuring(ctx context.Context, start, end time.Time) ([]Employee, error)

	// LockForUpdate takes a row lock on the employee until the surrounding
	// transaction ends. Must be called inside a transaction.
	LockForUpdate(ctx context.Context, id string) error

	UpdateVacationBalance(ctx context.Context, id string, balance decimal.Decimal) error
}
