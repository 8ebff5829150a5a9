package bonus

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	holidayService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/holiday"
	reconciliationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/reconciliation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	february = calendar.Date(2024, time.February, 1)
	mondays  = []time.Time{
		calendar.Date(2024, time.February, 5),
		calendar.Date(2024, time.February, 12),
		calendar.Date(2024, time.February, 19),
		calendar.Date(2024, time.February, 26),
	}
	testNow = time.Date(2024, time.March, 5, 15, 0, 0, 0, time.UTC)
)

type bonusFixture struct {
	store    *memory.Store
	service  bonus.BonusService
	late     employee.Employee
	absent   employee.Employee
	punctual bonus.Bonus
	presence bonus.Bonus
}

func newBonusFixture(t *testing.T, seedBonuses bool) bonusFixture {
	t.Helper()
	store := memory.NewStore()

	// Only Mondays are scheduled to keep the month small.
	ws := store.SeedSchedule(schedule.WorkSchedule{
		Name: "Lunes",
		Week: schedule.NewWeek([]schedule.Detail{{
			DayOfWeek:   1,
			Start:       calendar.MustClock("09:00"),
			End:         calendar.MustClock("17:00"),
			MealMinutes: 30,
		}}),
	})

	late := store.SeedEmployee(employee.Employee{EmployeeCode: "E001", FullName: "Ana Torres", BranchName: "Centro", HireDate: calendar.Date(2020, time.January, 1)})
	absent := store.SeedEmployee(employee.Employee{EmployeeCode: "E002", FullName: "Luis Perez", BranchName: "Centro", HireDate: calendar.Date(2020, time.January, 1)})
	store.SeedAssignment(late.ID, ws.ID, late.HireDate, nil)
	store.SeedAssignment(absent.ID, ws.ID, absent.HireDate, nil)

	f := bonusFixture{store: store, late: late, absent: absent}
	if seedBonuses {
		f.punctual = store.SeedBonus(bonus.Bonus{
			Name: "Bono de Puntualidad", Type: bonus.TypeAutomatic, IsActive: true,
			Amount: decimal.NewFromInt(300), Rules: bonus.Rules{Type: bonus.RulePunctuality},
		})
		f.presence = store.SeedBonus(bonus.Bonus{
			Name: "Bono de Asistencia", Type: bonus.TypeAutomatic, IsActive: true,
			Amount: decimal.NewFromInt(500), Rules: bonus.Rules{Type: bonus.RuleAttendance},
		})
		store.SeedBonus(bonus.Bonus{
			Name: "Bono manual", Type: bonus.TypeManual, IsActive: true,
			Amount: decimal.NewFromInt(100), Rules: bonus.Rules{Type: bonus.RuleAttendance},
		})
	}

	events := memory.NewEventRepository(store)
	shift := func(emp employee.Employee, day time.Time, in string) {
		for typ, clock := range map[attendance.EventType]string{attendance.EventEntry: in, attendance.EventExit: "17:00"} {
			_, err := events.Create(context.Background(), attendance.Event{
				EmployeeID: emp.ID,
				Type:       typ,
				OccurredAt: calendar.MustClock(clock).On(day, time.UTC),
			})
			require.NoError(t, err)
		}
	}
	// Ana is late 10 minutes twice, 20 in total.
	shift(late, mondays[0], "09:10")
	shift(late, mondays[1], "09:10")
	shift(late, mondays[2], "09:00")
	shift(late, mondays[3], "08:55")
	// Luis is always on time but misses the last Monday.
	shift(absent, mondays[0], "09:00")
	shift(absent, mondays[1], "08:59")
	shift(absent, mondays[2], "09:00")

	clock := func() time.Time { return testNow }
	reconciler := reconciliationService.NewReconciliationService(
		memory.NewEmployeeRepository(store),
		memory.NewWorkScheduleRepository(store),
		memory.NewEventRepository(store),
		memory.NewIncidentRepository(store),
		holidayService.NewHolidayService(memory.NewHolidayRepository(store)),
		time.UTC,
		clock,
	)
	f.service = NewBonusService(
		memory.NewTransactor(store),
		memory.NewBonusRepository(store),
		memory.NewReportRepository(store),
		memory.NewEmployeeRepository(store),
		reconciler,
		time.UTC,
		2,
		clock,
	)
	return f
}

func rowFor(t *testing.T, resp bonus.ReportResponse, employeeID string) bonus.EmployeeBonusRow {
	t.Helper()
	for _, r := range resp.Employees {
		if r.EmployeeID == employeeID {
			return r
		}
	}
	t.Fatalf("no row for employee %s", employeeID)
	return bonus.EmployeeBonusRow{}
}

func TestBonusService_GenerateReport_EvaluatesRules(t *testing.T) {
	ctx := context.Background()
	f := newBonusFixture(t, true)

	// Act
	result, err := f.service.GenerateReport(ctx, calendar.Date(2024, time.February, 17))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Batch.Processed)
	assert.Empty(t, result.Batch.Failures)
	assert.Equal(t, february, result.Report.Period)
	assert.Equal(t, bonus.ReportStatusDraft, result.Report.Status)
	assert.Len(t, result.Report.Details, 4)
	require.NotNil(t, result.Report.GeneratedAt)

	resp, err := f.service.GetReport(ctx, february)
	require.NoError(t, err)
	assert.Equal(t, "2024-02", resp.Period)

	ana := rowFor(t, resp, f.late.ID)
	assert.Equal(t, 20, ana.LateMinutes)
	assert.False(t, ana.PunctualityEarned)
	assert.True(t, ana.AttendanceEarned)
	assert.Equal(t, "500", ana.Total.String())

	luis := rowFor(t, resp, f.absent.ID)
	assert.Equal(t, 0, luis.LateMinutes)
	assert.Equal(t, 1, luis.UnjustifiedAbsences)
	assert.True(t, luis.PunctualityEarned)
	assert.False(t, luis.AttendanceEarned)
	assert.Equal(t, "300", luis.Total.String())
}

func TestBonusService_GenerateReport_IgnoredLatenessDoesNotCount(t *testing.T) {
	ctx := context.Background()
	f := newBonusFixture(t, true)

	events, err := memory.NewEventRepository(f.store).ListByEmployee(ctx, f.late.ID,
		mondays[0], calendar.AddDays(mondays[0], 1))
	require.NoError(t, err)
	for _, ev := range events {
		if ev.Type == attendance.EventEntry {
			ev.LateIgnored = true
			require.NoError(t, memory.NewEventRepository(f.store).Update(ctx, ev))
		}
	}

	_, err = f.service.GenerateReport(ctx, february)
	require.NoError(t, err)

	resp, err := f.service.GetReport(ctx, february)
	require.NoError(t, err)
	ana := rowFor(t, resp, f.late.ID)
	assert.Equal(t, 10, ana.LateMinutes)
	assert.True(t, ana.PunctualityEarned)
}

func TestBonusService_GenerateReport_ReplacesDraftDetails(t *testing.T) {
	ctx := context.Background()
	f := newBonusFixture(t, true)

	first, err := f.service.GenerateReport(ctx, february)
	require.NoError(t, err)

	second, err := f.service.Recalculate(ctx, first.Report.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Report.ID, second.Report.ID)
	assert.Len(t, second.Report.Details, 4)
}

func TestBonusService_Finalize_LocksReport(t *testing.T) {
	ctx := context.Background()
	f := newBonusFixture(t, true)
	admin := "user-1"

	generated, err := f.service.GenerateReport(ctx, february)
	require.NoError(t, err)

	// Act
	final, err := f.service.Finalize(ctx, generated.Report.ID, &admin)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, bonus.ReportStatusFinalized, final.Status)
	require.NotNil(t, final.FinalizedBy)
	assert.Equal(t, admin, *final.FinalizedBy)

	_, err = f.service.Finalize(ctx, generated.Report.ID, &admin)
	assert.ErrorIs(t, err, bonus.ErrReportFinalized)

	_, err = f.service.GenerateReport(ctx, february)
	assert.ErrorIs(t, err, bonus.ErrReportFinalized)

	_, err = f.service.Recalculate(ctx, generated.Report.ID)
	assert.ErrorIs(t, err, bonus.ErrReportFinalized)
}

func TestBonusService_GenerateReport_NoAutomaticBonuses(t *testing.T) {
	f := newBonusFixture(t, false)

	_, err := f.service.GenerateReport(context.Background(), february)

	assert.ErrorIs(t, err, bonus.ErrNoAutomaticBonuses)
}

func TestBonusService_GetReport_NotFound(t *testing.T) {
	f := newBonusFixture(t, true)

	_, err := f.service.GetReport(context.Background(), february)

	assert.ErrorIs(t, err, bonus.ErrReportNotFound)
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	thirty, two := 30, 2
	bonuses := []bonus.Bonus{
		{ID: "p", Amount: decimal.NewFromInt(10), Rules: bonus.Rules{Type: bonus.RulePunctuality, ThresholdMinutes: &thirty}},
		{ID: "a", Amount: decimal.NewFromInt(20), Rules: bonus.Rules{Type: bonus.RuleAttendance, ThresholdAbsences: &two}},
		{ID: "x", Amount: decimal.NewFromInt(99), Rules: bonus.Rules{Type: "unknown"}},
	}

	details := evaluate(employee.Employee{ID: "e"}, bonuses, reconciliationSummary(25, 2))

	require.Len(t, details, 2)
	assert.True(t, details[0].Earned())
	assert.True(t, details[1].Earned())

	details = evaluate(employee.Employee{ID: "e"}, bonuses, reconciliationSummary(31, 3))
	assert.False(t, details[0].Earned())
	assert.False(t, details[1].Earned())
	require.NotNil(t, details[0].Metrics.LateMinutes)
	assert.Equal(t, 31, *details[0].Metrics.LateMinutes)
}
