package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds the connection to the integration database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. The
// test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	setup := &TestDatabaseSetup{DB: db}
	ctx := context.Background()
	require.NoError(t, db.ApplySchema(ctx))
	require.NoError(t, setup.TruncateAllTables(ctx))
	return setup
}

// TruncateAllTables removes every row except the seeded incident types.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"job_runs",
		"bonus_report_details",
		"bonus_reports",
		"bonuses",
		"vacation_ledger_entries",
		"employee_period_notes",
		"payroll_periods",
		"incident_days",
		"incidents",
		"attendance_events",
		"concrete_holidays",
		"branch_holiday_rule",
		"holiday_rules",
		"employee_schedule_assignments",
		"work_schedule_details",
		"work_schedules",
		"employees",
		"branches",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// CreateEmployee inserts a branch and an active employee and returns the
// employee id.
func (s *TestDatabaseSetup) CreateEmployee(t *testing.T, ctx context.Context, name, faceID string) string {
	t.Helper()
	branchID := uuid.NewString()
	_, err := s.DB.Exec(ctx, `INSERT INTO branches (id, name) VALUES ($1, $2)`, branchID, "Centro")
	require.NoError(t, err)

	employeeID := uuid.NewString()
	_, err = s.DB.Exec(ctx, `
		INSERT INTO employees (id, employee_code, full_name, branch_id, face_id, hire_date)
		VALUES ($1, $2, $3, $4, $5, '2020-01-06')
	`, employeeID, "E-"+employeeID[:8], name, branchID, faceID)
	require.NoError(t, err)
	return employeeID
}

// IncidentTypeID returns the id of a seeded incident type.
func (s *TestDatabaseSetup) IncidentTypeID(t *testing.T, ctx context.Context, code string) string {
	t.Helper()
	var id string
	require.NoError(t, s.DB.QueryRow(ctx, `SELECT id FROM incident_types WHERE code = $1`, code).Scan(&id))
	return id
}
