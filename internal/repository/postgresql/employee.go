package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	db *database.DB
}

const employeeColumns = `
	e.id, e.employee_code, e.full_name, e.branch_id, b.name, e.face_id,
	e.hire_date, e.termination_date, e.employment_status, e.vacation_balance,
	e.created_at, e.updated_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &emp.BranchID, &emp.BranchName, &emp.FaceID,
		&emp.HireDate, &emp.TerminationDate, &emp.EmploymentStatus, &emp.VacationBalance,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		JOIN branches b ON b.id = e.branch_id
		WHERE e.id = $1
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByFaceID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByFaceID(ctx context.Context, faceID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		JOIN branches b ON b.id = e.branch_id
		WHERE e.face_id = $1
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, faceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrFaceNotEnrolled
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by face: %w", err)
	}
	return emp, nil
}

// GetActiveDuring implements employee.EmployeeRepository.
func (r *employeeRepository) GetActiveDuring(ctx context.Context, start, end time.Time) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		JOIN branches b ON b.id = e.branch_id
		WHERE e.employment_status = 'active'
		  AND e.hire_date <= $2
		  AND (e.termination_date IS NULL OR e.termination_date >= $1)
		ORDER BY b.name, e.full_name
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// LockForUpdate implements employee.EmployeeRepository.
func (r *employeeRepository) LockForUpdate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	var locked string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee: %w", err)
	}
	return nil
}

// UpdateVacationBalance implements employee.EmployeeRepository.
func (r *employeeRepository) UpdateVacationBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees SET vacation_balance = $2, updated_at = NOW()
		WHERE id = $1
	`, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update vacation balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}
