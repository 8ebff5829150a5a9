package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========== Bonus catalog ==========

type bonusRepository struct {
	db *database.DB
}

// ListAutomatic implements bonus.BonusRepository.
func (r *bonusRepository) ListAutomatic(ctx context.Context) ([]bonus.Bonus, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, description, type, amount, rules, is_active, created_at, updated_at
		FROM bonuses
		WHERE is_active AND type = 'automatic'
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var out []bonus.Bonus
	for rows.Next() {
		var b bonus.Bonus
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Type, &b.Amount, &b.Rules, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonuses: %w", err)
	}
	return out, nil
}

func NewBonusRepository(db *database.DB) bonus.BonusRepository {
	return &bonusRepository{db: db}
}

// ========== Reports ==========

type reportRepository struct {
	db *database.DB
}

const reportColumns = `id, period, status, generated_at, finalized_by, finalized_at, created_at, updated_at`

func scanReport(row pgx.Row) (bonus.Report, error) {
	var rep bonus.Report
	err := row.Scan(&rep.ID, &rep.Period, &rep.Status, &rep.GeneratedAt, &rep.FinalizedBy, &rep.FinalizedAt, &rep.CreatedAt, &rep.UpdatedAt)
	return rep, err
}

// GetByID implements bonus.ReportRepository.
func (r *reportRepository) GetByID(ctx context.Context, id string) (bonus.Report, error) {
	q := GetQuerier(ctx, r.db)

	rep, err := scanReport(q.QueryRow(ctx, `SELECT `+reportColumns+` FROM bonus_reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bonus.Report{}, bonus.ErrReportNotFound
		}
		return bonus.Report{}, fmt.Errorf("failed to get bonus report: %w", err)
	}
	return rep, nil
}

// GetByPeriod implements bonus.ReportRepository.
func (r *reportRepository) GetByPeriod(ctx context.Context, period time.Time) (bonus.Report, error) {
	q := GetQuerier(ctx, r.db)

	rep, err := scanReport(q.QueryRow(ctx, `SELECT `+reportColumns+` FROM bonus_reports WHERE period = $1`, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bonus.Report{}, bonus.ErrReportNotFound
		}
		return bonus.Report{}, fmt.Errorf("failed to get bonus report: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT d.id, d.bonus_report_id, d.employee_id, e.full_name, b.name,
			   d.bonus_id, bo.name, d.calculated_amount, d.calculation_details, d.created_at
		FROM bonus_report_details d
		JOIN employees e ON e.id = d.employee_id
		JOIN branches b ON b.id = e.branch_id
		JOIN bonuses bo ON bo.id = d.bonus_id
		WHERE d.bonus_report_id = $1
		ORDER BY b.name, e.full_name, bo.name
	`, rep.ID)
	if err != nil {
		return bonus.Report{}, fmt.Errorf("failed to list bonus details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d bonus.Detail
		if err := rows.Scan(
			&d.ID, &d.ReportID, &d.EmployeeID, &d.EmployeeName, &d.BranchName,
			&d.BonusID, &d.BonusName, &d.CalculatedAmount, &d.Metrics, &d.CreatedAt,
		); err != nil {
			return bonus.Report{}, fmt.Errorf("failed to scan bonus detail: %w", err)
		}
		rep.Details = append(rep.Details, d)
	}
	if err := rows.Err(); err != nil {
		return bonus.Report{}, fmt.Errorf("failed to iterate bonus details: %w", err)
	}
	return rep, nil
}

// FindOrCreateDraft implements bonus.ReportRepository.
func (r *reportRepository) FindOrCreateDraft(ctx context.Context, period time.Time) (bonus.Report, error) {
	q := GetQuerier(ctx, r.db)

	// The no-op update makes RETURNING yield the existing row on conflict.
	rep, err := scanReport(q.QueryRow(ctx, `
		INSERT INTO bonus_reports (id, period, status)
		VALUES ($1, $2, 'draft')
		ON CONFLICT (period) DO UPDATE SET period = EXCLUDED.period
		RETURNING `+reportColumns, newID(), period))
	if err != nil {
		return bonus.Report{}, fmt.Errorf("failed to find or create bonus report: %w", err)
	}
	return rep, nil
}

// ReplaceDetails implements bonus.ReportRepository.
func (r *reportRepository) ReplaceDetails(ctx context.Context, reportID string, details []bonus.Detail, generatedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM bonus_report_details WHERE bonus_report_id = $1`, reportID); err != nil {
		return fmt.Errorf("failed to clear bonus details: %w", err)
	}

	for _, d := range details {
		_, err := q.Exec(ctx, `
			INSERT INTO bonus_report_details (
				id, bonus_report_id, employee_id, bonus_id, calculated_amount, calculation_details, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, newID(), reportID, d.EmployeeID, d.BonusID, d.CalculatedAmount, d.Metrics, generatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert bonus detail: %w", err)
		}
	}

	tag, err := q.Exec(ctx, `
		UPDATE bonus_reports SET generated_at = $2, updated_at = NOW()
		WHERE id = $1
	`, reportID, generatedAt)
	if err != nil {
		return fmt.Errorf("failed to stamp bonus report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bonus.ErrReportNotFound
	}
	return nil
}

// Finalize implements bonus.ReportRepository.
func (r *reportRepository) Finalize(ctx context.Context, reportID string, userID *string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE bonus_reports
		SET status = 'finalized', finalized_by = $2, finalized_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`, reportID, userID, at)
	if err != nil {
		return fmt.Errorf("failed to finalize bonus report: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, reportID); err != nil {
		return err
	}
	return bonus.ErrReportFinalized
}

func NewReportRepository(db *database.DB) bonus.ReportRepository {
	return &reportRepository{db: db}
}
