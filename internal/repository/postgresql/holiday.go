package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

// ListApplicable implements holiday.HolidayRepository.
func (r *holidayRepository) ListApplicable(ctx context.Context, branchID string) ([]holiday.Rule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT hr.id, hr.name, hr.is_active, hr.definition, hr.position,
			   COALESCE(array_agg(bhr.branch_id::text) FILTER (WHERE bhr.branch_id IS NOT NULL), '{}') AS branch_ids,
			   hr.created_at, hr.updated_at
		FROM holiday_rules hr
		LEFT JOIN branch_holiday_rule bhr ON bhr.holiday_rule_id = hr.id
		WHERE hr.is_active
		GROUP BY hr.id
		HAVING COUNT(bhr.branch_id) = 0
			OR bool_or(bhr.branch_id::text = $1)
		ORDER BY hr.position, hr.id
	`

	rows, err := q.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holiday rules: %w", err)
	}
	defer rows.Close()

	var rules []holiday.Rule
	for rows.Next() {
		var rule holiday.Rule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.IsActive, &rule.Definition, &rule.Position,
			&rule.BranchIDs, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan holiday rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holiday rules: %w", err)
	}
	return rules, nil
}

// ListConcrete implements holiday.HolidayRepository.
func (r *holidayRepository) ListConcrete(ctx context.Context, ruleIDs []string, start, end time.Time) ([]holiday.ConcreteHoliday, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, holiday_rule_id, date
		FROM concrete_holidays
		WHERE holiday_rule_id = ANY($1::uuid[])
		  AND date BETWEEN $2 AND $3
		ORDER BY date
	`, ruleIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list concrete holidays: %w", err)
	}
	defer rows.Close()

	var out []holiday.ConcreteHoliday
	for rows.Next() {
		var c holiday.ConcreteHoliday
		if err := rows.Scan(&c.ID, &c.RuleID, &c.Date); err != nil {
			return nil, fmt.Errorf("failed to scan concrete holiday: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concrete holidays: %w", err)
	}
	return out, nil
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepository{db: db}
}
