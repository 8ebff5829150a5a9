package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_GetByFaceID(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	id := s.CreateEmployee(t, ctx, "Ana Torres", "face-ana")
	repo := postgresql.NewEmployeeRepository(s.DB)

	// Act
	emp, err := repo.GetByFaceID(ctx, "face-ana")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, id, emp.ID)
	assert.Equal(t, "Centro", emp.BranchName)

	_, err = repo.GetByFaceID(ctx, "face-unknown")
	assert.ErrorIs(t, err, employee.ErrFaceNotEnrolled)
}

func TestIncidentRepository_OneIncidentPerDay(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	empID := s.CreateEmployee(t, ctx, "Ana Torres", "face-ana")
	repo := postgresql.NewIncidentRepository(s.DB)

	inc := incident.Incident{
		EmployeeID: empID,
		TypeID:     s.IncidentTypeID(t, ctx, "VAC"),
		StartDate:  calendar.Date(2024, 3, 4),
		EndDate:    calendar.Date(2024, 3, 6),
		Status:     incident.StatusApproved,
	}

	// Act
	created, err := repo.Create(ctx, inc)
	require.NoError(t, err)

	overlap := inc
	overlap.TypeID = s.IncidentTypeID(t, ctx, "F_INJUST")
	overlap.StartDate = calendar.Date(2024, 3, 6)
	overlap.EndDate = calendar.Date(2024, 3, 6)
	_, ok, err := repo.CreateIfDayFree(ctx, overlap)

	// Assert
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, incident.CodeVacation, created.Type.Code)

	_, err = repo.Create(ctx, overlap)
	assert.ErrorIs(t, err, incident.ErrDayAlreadyCovered)

	removed, err := repo.DeleteCoveringDay(ctx, empID, calendar.Date(2024, 3, 5))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, created.ID, removed[0].ID)

	_, ok, err = repo.CreateIfDayFree(ctx, overlap)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPeriodRepository_SingleOpenPeriod(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPeriodRepository(s.DB)

	first := payroll.Period{EndDate: calendar.Date(2024, 3, 3)}.Next()
	open, err := repo.Create(ctx, first)
	require.NoError(t, err)

	// Act
	_, err = repo.Create(ctx, open.Next())

	// Assert
	assert.ErrorIs(t, err, payroll.ErrPeriodConflict)

	require.NoError(t, repo.Close(ctx, open.ID))
	assert.ErrorIs(t, repo.Close(ctx, open.ID), payroll.ErrPeriodNotOpen)

	next, err := repo.Create(ctx, open.Next())
	require.NoError(t, err)
	current, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, current.ID)
	assert.Equal(t, calendar.Date(2024, 3, 11), current.StartDate)
}

func TestLedgerRepository_EarnedAndInitialAreUnique(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	empID := s.CreateEmployee(t, ctx, "Ana Torres", "face-ana")
	repo := postgresql.NewLedgerRepository(s.DB)

	earned := vacation.Entry{EmployeeID: empID, Date: calendar.Date(2024, 3, 4), Days: decimal.RequireFromString("0.2308"), Description: "Weekly accrual"}

	// Act
	first, err := repo.CreateEarnedIfAbsent(ctx, earned)
	require.NoError(t, err)
	second, err := repo.CreateEarnedIfAbsent(ctx, earned)
	require.NoError(t, err)

	_, err = repo.UpsertInitial(ctx, vacation.Entry{EmployeeID: empID, Date: calendar.Date(2024, 1, 1), Days: decimal.NewFromInt(4)})
	require.NoError(t, err)
	initial, err := repo.UpsertInitial(ctx, vacation.Entry{EmployeeID: empID, Date: calendar.Date(2024, 1, 1), Days: decimal.NewFromInt(6)})
	require.NoError(t, err)

	// Assert
	assert.True(t, first)
	assert.False(t, second)
	entries, err := repo.ListByEmployee(ctx, empID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, vacation.EntryInitial, entries[0].Type)
	assert.Equal(t, initial.ID, entries[0].ID)
	assert.True(t, entries[0].Days.Equal(decimal.NewFromInt(6)))
}

func TestReportRepository_FinalizeOnce(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewReportRepository(s.DB)
	month := calendar.Date(2024, 2, 1)

	draft, err := repo.FindOrCreateDraft(ctx, month)
	require.NoError(t, err)
	again, err := repo.FindOrCreateDraft(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID)

	// Act
	require.NoError(t, repo.ReplaceDetails(ctx, draft.ID, nil, calendar.Date(2024, 3, 1)))
	require.NoError(t, repo.Finalize(ctx, draft.ID, nil, calendar.Date(2024, 3, 2)))

	// Assert
	assert.ErrorIs(t, repo.Finalize(ctx, draft.ID, nil, calendar.Date(2024, 3, 2)), bonus.ErrReportFinalized)
	report, err := repo.GetByPeriod(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, bonus.ReportStatusFinalized, report.Status)
	require.NotNil(t, report.GeneratedAt)
}

func TestRunRepository_LastCompleted(t *testing.T) {
	s := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewRunRepository(s.DB)

	_, err := repo.LastCompleted(ctx, jobrun.JobVacationAccrual)
	assert.ErrorIs(t, err, jobrun.ErrRunNotFound)

	// Act
	id, err := repo.Start(ctx, jobrun.JobVacationAccrual)
	require.NoError(t, err)
	require.NoError(t, repo.Finish(ctx, id, jobrun.StatusCompleted, jobrun.Result{Processed: 3}))

	// Assert
	run, err := repo.LastCompleted(ctx, jobrun.JobVacationAccrual)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.JSONEq(t, `{"processed":3,"skipped":0}`, string(run.Details))
	assert.NotNil(t, run.CompletedAt)
}
