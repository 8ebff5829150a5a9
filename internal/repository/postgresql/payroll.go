package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========== Periods ==========

type periodRepository struct {
	db *database.DB
}

const periodColumns = `id, week_number, start_date, end_date, payment_date, status, created_at, updated_at`

func scanPeriod(row pgx.Row) (payroll.Period, error) {
	var p payroll.Period
	err := row.Scan(&p.ID, &p.WeekNumber, &p.StartDate, &p.EndDate, &p.PaymentDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetOpen implements payroll.PeriodRepository.
func (r *periodRepository) GetOpen(ctx context.Context) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPeriod(q.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE status = 'open'`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrNoOpenPeriod
		}
		return payroll.Period{}, fmt.Errorf("failed to get open period: %w", err)
	}
	return p, nil
}

// GetByID implements payroll.PeriodRepository.
func (r *periodRepository) GetByID(ctx context.Context, id string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPeriod(q.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

// List implements payroll.PeriodRepository.
func (r *periodRepository) List(ctx context.Context, limit int) ([]payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+periodColumns+` FROM payroll_periods ORDER BY start_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate periods: %w", err)
	}
	return periods, nil
}

// LockOpen implements payroll.PeriodRepository.
func (r *periodRepository) LockOpen(ctx context.Context, id string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPeriod(q.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to lock period: %w", err)
	}
	if p.Status != payroll.PeriodStatusOpen {
		return payroll.Period{}, payroll.ErrPeriodNotOpen
	}
	return p, nil
}

// Close implements payroll.PeriodRepository.
func (r *periodRepository) Close(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_periods SET status = 'closed', updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to close period: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPeriodNotOpen
	}
	return nil
}

// Create implements payroll.PeriodRepository.
func (r *periodRepository) Create(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = newID()
	}
	if p.Status == "" {
		p.Status = payroll.PeriodStatusOpen
	}

	err := q.QueryRow(ctx, `
		INSERT INTO payroll_periods (id, week_number, start_date, end_date, payment_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.WeekNumber, p.StartDate, p.EndDate, p.PaymentDate, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "payroll_periods_single_open", "payroll_periods_start_date_key") {
			return payroll.Period{}, payroll.ErrPeriodConflict
		}
		return payroll.Period{}, fmt.Errorf("failed to create period: %w", err)
	}
	return p, nil
}

func NewPeriodRepository(db *database.DB) payroll.PeriodRepository {
	return &periodRepository{db: db}
}

// ========== Notes ==========

type noteRepository struct {
	db *database.DB
}

// Upsert implements payroll.NoteRepository.
func (r *noteRepository) Upsert(ctx context.Context, note payroll.PeriodNote) (payroll.PeriodNote, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO employee_period_notes (id, employee_id, payroll_period_id, comments)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, payroll_period_id) DO UPDATE SET
			comments = EXCLUDED.comments,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, newID(), note.EmployeeID, note.PeriodID, note.Comments).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return payroll.PeriodNote{}, fmt.Errorf("failed to upsert period note: %w", err)
	}
	return note, nil
}

// ListByPeriod implements payroll.NoteRepository. The map is keyed by
// employee id.
func (r *noteRepository) ListByPeriod(ctx context.Context, periodID string) (map[string]payroll.PeriodNote, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, payroll_period_id, comments, created_at, updated_at
		FROM employee_period_notes
		WHERE payroll_period_id = $1
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list period notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]payroll.PeriodNote)
	for rows.Next() {
		var n payroll.PeriodNote
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.PeriodID, &n.Comments, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan period note: %w", err)
		}
		notes[n.EmployeeID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate period notes: %w", err)
	}
	return notes, nil
}

func NewNoteRepository(db *database.DB) payroll.NoteRepository {
	return &noteRepository{db: db}
}
