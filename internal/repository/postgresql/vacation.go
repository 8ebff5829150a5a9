package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	db *database.DB
}

// ListByEmployee implements vacation.LedgerRepository.
func (r *ledgerRepository) ListByEmployee(ctx context.Context, employeeID string) ([]vacation.Entry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, date, type, days, balance, description, created_at, updated_at
		FROM vacation_ledger_entries
		WHERE employee_id = $1
		ORDER BY date, id
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []vacation.Entry
	for rows.Next() {
		var e vacation.Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.Type, &e.Days, &e.Balance, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Create implements vacation.LedgerRepository.
func (r *ledgerRepository) Create(ctx context.Context, entry vacation.Entry) (vacation.Entry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = newID()
	}
	err := q.QueryRow(ctx, `
		INSERT INTO vacation_ledger_entries (id, employee_id, date, type, days, balance, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, entry.ID, entry.EmployeeID, entry.Date, entry.Type, entry.Days, entry.Balance, entry.Description,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return vacation.Entry{}, fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return entry, nil
}

// CreateEarnedIfAbsent implements vacation.LedgerRepository. The partial
// unique index on (employee_id, date) for earned entries makes it idempotent.
func (r *ledgerRepository) CreateEarnedIfAbsent(ctx context.Context, entry vacation.Entry) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO vacation_ledger_entries (id, employee_id, date, type, days, balance, description)
		VALUES ($1, $2, $3, 'earned', $4, 0, $5)
		ON CONFLICT (employee_id, date) WHERE type = 'earned' DO NOTHING
	`, newID(), entry.EmployeeID, entry.Date, entry.Days, entry.Description)
	if err != nil {
		return false, fmt.Errorf("failed to create earned entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertInitial implements vacation.LedgerRepository.
func (r *ledgerRepository) UpsertInitial(ctx context.Context, entry vacation.Entry) (vacation.Entry, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO vacation_ledger_entries (id, employee_id, date, type, days, balance, description)
		VALUES ($1, $2, $3, 'initial', $4, 0, $5)
		ON CONFLICT (employee_id) WHERE type = 'initial' DO UPDATE SET
			date = EXCLUDED.date,
			days = EXCLUDED.days,
			description = EXCLUDED.description,
			updated_at = NOW()
		RETURNING id, type, balance, created_at, updated_at
	`, newID(), entry.EmployeeID, entry.Date, entry.Days, entry.Description,
	).Scan(&entry.ID, &entry.Type, &entry.Balance, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return vacation.Entry{}, fmt.Errorf("failed to upsert initial entry: %w", err)
	}
	return entry, nil
}

// UpdateBalance implements vacation.LedgerRepository.
func (r *ledgerRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE vacation_ledger_entries SET balance = $2, updated_at = NOW()
		WHERE id = $1
	`, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update ledger balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vacation.ErrEntryNotFound
	}
	return nil
}

// DeleteTakenOnDate implements vacation.LedgerRepository.
func (r *ledgerRepository) DeleteTakenOnDate(ctx context.Context, employeeID string, date time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM vacation_ledger_entries
		WHERE employee_id = $1 AND date = $2 AND type = 'taken'
	`, employeeID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete taken entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func NewLedgerRepository(db *database.DB) vacation.LedgerRepository {
	return &ledgerRepository{db: db}
}
