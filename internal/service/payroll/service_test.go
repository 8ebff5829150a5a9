package payroll

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	holidayService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/holiday"
	reconciliationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	testLoc    = time.FixedZone("CST", -6*60*60)
	weekStart  = calendar.Date(2024, time.March, 4)
	weekEnd    = calendar.Date(2024, time.March, 10)
	afterWeek  = calendar.MustClock("12:00").On(calendar.Date(2024, time.March, 11), testLoc)
	midWeekNow = calendar.MustClock("12:00").On(calendar.Date(2024, time.March, 7), testLoc)
)

type payrollFixture struct {
	store    *memory.Store
	service  payroll.PayrollService
	period   payroll.Period
	types    map[incident.Code]incident.Type
	veteran  employee.Employee
	newHire  employee.Employee
	schedule string
}

func newPayrollFixture(t *testing.T, now time.Time, codes ...incident.Code) payrollFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	if len(codes) == 0 {
		codes = []incident.Code{
			incident.CodeHoliday, incident.CodeRestDay, incident.CodeUnjustifiedAbsence,
			incident.CodeNotEmployed, incident.CodeUnpaidPermission,
		}
	}
	types := store.SeedIncidentTypes(codes...)

	var details []schedule.Detail
	for dow := 1; dow <= 5; dow++ {
		details = append(details, schedule.Detail{
			DayOfWeek:   dow,
			Start:       calendar.MustClock("09:00"),
			End:         calendar.MustClock("18:00"),
			MealMinutes: 60,
		})
	}
	ws := store.SeedSchedule(schedule.WorkSchedule{Name: "Oficina", Week: schedule.NewWeek(details)})

	veteran := store.SeedEmployee(employee.Employee{
		EmployeeCode: "E001",
		FullName:     "Ana Torres",
		BranchID:     "b-centro",
		BranchName:   "Centro",
		HireDate:     calendar.Date(2022, time.January, 10),
	})
	store.SeedAssignment(veteran.ID, ws.ID, veteran.HireDate, nil)

	newHire := store.SeedEmployee(employee.Employee{
		EmployeeCode: "E002",
		FullName:     "Luis Perez",
		BranchID:     "b-norte",
		BranchName:   "Norte",
		HireDate:     calendar.Date(2024, time.March, 6),
	})
	store.SeedAssignment(newHire.ID, ws.ID, newHire.HireDate, nil)

	store.SeedHolidayRule(holiday.Rule{Name: "Asueto", IsActive: true, Definition: holiday.Fixed(time.March, 6)})

	period, err := memory.NewPeriodRepository(store).Create(ctx, payroll.Period{
		WeekNumber:  10,
		StartDate:   weekStart,
		EndDate:     weekEnd,
		PaymentDate: calendar.AddDays(weekEnd, 1),
		Status:      payroll.PeriodStatusOpen,
	})
	require.NoError(t, err)

	clock := func() time.Time { return now }
	reconciler := reconciliationService.NewReconciliationService(
		memory.NewEmployeeRepository(store),
		memory.NewWorkScheduleRepository(store),
		memory.NewEventRepository(store),
		memory.NewIncidentRepository(store),
		holidayService.NewHolidayService(memory.NewHolidayRepository(store)),
		testLoc,
		clock,
	)

	svc := NewPayrollService(
		memory.NewTransactor(store),
		memory.NewPeriodRepository(store),
		memory.NewNoteRepository(store),
		memory.NewEmployeeRepository(store),
		memory.NewIncidentTypeRepository(store),
		memory.NewIncidentRepository(store),
		reconciler,
		Options{Location: testLoc, Workers: 2},
		clock,
	)

	return payrollFixture{store: store, service: svc, period: period, types: types, veteran: veteran, newHire: newHire, schedule: ws.ID}
}

func (f payrollFixture) clock(t *testing.T, emp employee.Employee, typ attendance.EventType, day time.Time, clock string) {
	t.Helper()
	_, err := memory.NewEventRepository(f.store).Create(context.Background(), attendance.Event{
		EmployeeID: emp.ID,
		Type:       typ,
		OccurredAt: calendar.MustClock(clock).On(day, testLoc),
	})
	require.NoError(t, err)
}

// seedVeteranWeek: Monday late, Tuesday absent, Wednesday holiday, Thursday
// unpaid permission, Friday on time.
func (f payrollFixture) seedVeteranWeek(t *testing.T) {
	t.Helper()
	f.clock(t, f.veteran, attendance.EventEntry, weekStart, "09:10")
	f.clock(t, f.veteran, attendance.EventExit, weekStart, "18:00")

	_, err := memory.NewIncidentRepository(f.store).Create(context.Background(), incident.Incident{
		EmployeeID: f.veteran.ID,
		TypeID:     f.types[incident.CodeUnpaidPermission].ID,
		StartDate:  calendar.AddDays(weekStart, 3),
		EndDate:    calendar.AddDays(weekStart, 3),
	})
	require.NoError(t, err)

	fri := calendar.AddDays(weekStart, 4)
	f.clock(t, f.veteran, attendance.EventEntry, fri, "09:00")
	f.clock(t, f.veteran, attendance.EventExit, fri, "18:00")
}

func countOpen(t *testing.T, svc payroll.PayrollService) int {
	t.Helper()
	periods, err := svc.ListPeriods(context.Background(), 100)
	require.NoError(t, err)
	open := 0
	for _, p := range periods {
		if p.Status == payroll.PeriodStatusOpen {
			open++
		}
	}
	return open
}

// ===== PERIOD ROLLOVER =====

func TestPayrollService_ClosePeriod_OpensSuccessor(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)

	// Act
	next, err := f.service.ClosePeriod(ctx, f.period)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, time.March, 11), next.StartDate)
	assert.Equal(t, calendar.Date(2024, time.March, 17), next.EndDate)
	assert.Equal(t, calendar.Date(2024, time.March, 18), next.PaymentDate)
	assert.Equal(t, 11, next.WeekNumber)
	assert.Equal(t, payroll.PeriodStatusOpen, next.Status)
	assert.Equal(t, 1, countOpen(t, f.service))

	open, err := f.service.GetOpenPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, open.ID)
}

func TestPayrollService_ClosePeriod_ConcurrentRunsOpenOnePeriod(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)

	const runs = 5
	var wg sync.WaitGroup
	results := make([]payroll.Period, runs)
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.ClosePeriod(ctx, f.period)
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	assert.Equal(t, 1, countOpen(t, f.service))

	periods, err := f.service.ListPeriods(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestPayrollService_CyclePeriod_NotEnded(t *testing.T) {
	f := newPayrollFixture(t, midWeekNow)

	_, err := f.service.CyclePeriod(context.Background(), midWeekNow)

	assert.ErrorIs(t, err, payroll.ErrPeriodNotEnded)
	assert.Equal(t, 1, countOpen(t, f.service))
}

func TestPayrollService_CyclePeriod_NoOpenPeriod(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	require.NoError(t, memory.NewPeriodRepository(f.store).Close(ctx, f.period.ID))

	_, err := f.service.CyclePeriod(ctx, afterWeek)

	assert.ErrorIs(t, err, payroll.ErrNoOpenPeriod)
}

func TestPayrollService_CyclePeriod_ConsolidatesAndRolls(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	// Act
	result, err := f.service.CyclePeriod(ctx, afterWeek)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.period.ID, result.Closed.ID)
	assert.Equal(t, payroll.PeriodStatusClosed, result.Closed.Status)
	assert.Equal(t, "2024-03-11", result.Opened.StartDate)
	assert.Equal(t, 11, result.Consolidation.Created())
	assert.Equal(t, 1, countOpen(t, f.service))
}

// ===== CONSOLIDATION =====

func TestPayrollService_Consolidate_CreatesIncidentsPerCategory(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	// Act
	report, err := f.service.Consolidate(ctx, f.period, afterWeek)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, report.EmployeesScanned)
	assert.Equal(t, 2, report.HolidaysCreated)
	assert.Equal(t, 6, report.RestDaysCreated)
	assert.Equal(t, 3, report.AbsencesCreated)
	assert.Zero(t, report.PreHireCreated)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.SkippedCategories)

	// Before the first assignment the new hire has no schedule, so those
	// days are rest days.
	incidents, err := memory.NewIncidentRepository(f.store).ListByEmployee(ctx, f.newHire.ID, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, incidents, 7)
	assert.Equal(t, incident.CodeRestDay, incidents[0].Type.Code)
	assert.Equal(t, incident.CodeRestDay, incidents[1].Type.Code)
	assert.Equal(t, incident.CodeHoliday, incidents[2].Type.Code)
	require.NotNil(t, incidents[2].Notes)
	assert.Equal(t, "Asueto", *incidents[2].Notes)
	assert.Equal(t, incident.CodeUnjustifiedAbsence, incidents[3].Type.Code)

	// The permission entered by hand is left alone.
	thu, err := memory.NewIncidentRepository(f.store).ListByEmployee(ctx, f.veteran.ID, calendar.AddDays(weekStart, 3), calendar.AddDays(weekStart, 3))
	require.NoError(t, err)
	require.Len(t, thu, 1)
	assert.Equal(t, incident.CodeUnpaidPermission, thu[0].Type.Code)
}

func TestPayrollService_Consolidate_PreHireOnlyReplacesAbsences(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	hired := f.store.SeedEmployee(employee.Employee{
		EmployeeCode: "E003",
		FullName:     "Marta Ruiz",
		BranchID:     "b-centro",
		BranchName:   "Centro",
		HireDate:     calendar.Date(2024, time.March, 8),
	})
	f.store.SeedAssignment(hired.ID, f.schedule, calendar.Date(2024, time.January, 1), nil)

	// Act
	report, err := f.service.Consolidate(ctx, f.period, afterWeek)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, report.PreHireCreated)

	incidents, err := memory.NewIncidentRepository(f.store).ListByEmployee(ctx, hired.ID, weekStart, weekEnd)
	require.NoError(t, err)
	got := make(map[string]incident.Code, len(incidents))
	for _, inc := range incidents {
		got[calendar.Key(inc.StartDate)] = inc.Type.Code
	}
	assert.Equal(t, map[string]incident.Code{
		"2024-03-04": incident.CodeNotEmployed,
		"2024-03-05": incident.CodeNotEmployed,
		"2024-03-06": incident.CodeHoliday,
		"2024-03-07": incident.CodeNotEmployed,
		"2024-03-08": incident.CodeUnjustifiedAbsence,
		"2024-03-09": incident.CodeRestDay,
		"2024-03-10": incident.CodeRestDay,
	}, got)
}

func TestPayrollService_Consolidate_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	first, err := f.service.Consolidate(ctx, f.period, afterWeek)
	require.NoError(t, err)
	require.Positive(t, first.Created())

	second, err := f.service.Consolidate(ctx, f.period, afterWeek)
	require.NoError(t, err)
	assert.Zero(t, second.Created())

	incidents, err := memory.NewIncidentRepository(f.store).ListByEmployee(ctx, f.veteran.ID, weekStart, weekEnd)
	require.NoError(t, err)
	assert.Len(t, incidents, 5)
}

func TestPayrollService_Consolidate_SkipsMissingCategory(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek, incident.CodeHoliday, incident.CodeUnjustifiedAbsence)
	f.seedVeteranWeekWithoutPermission(t)

	report, err := f.service.Consolidate(ctx, f.period, afterWeek)

	require.NoError(t, err)
	assert.ElementsMatch(t, []incident.Code{incident.CodeRestDay, incident.CodeNotEmployed}, report.SkippedCategories)
	assert.Zero(t, report.RestDaysCreated)
	assert.Zero(t, report.PreHireCreated)
	assert.Equal(t, 2, report.HolidaysCreated)
	assert.Equal(t, 4, report.AbsencesCreated)
}

func (f payrollFixture) seedVeteranWeekWithoutPermission(t *testing.T) {
	t.Helper()
	f.clock(t, f.veteran, attendance.EventEntry, weekStart, "09:10")
	f.clock(t, f.veteran, attendance.EventExit, weekStart, "18:00")
	fri := calendar.AddDays(weekStart, 4)
	f.clock(t, f.veteran, attendance.EventEntry, fri, "09:00")
	f.clock(t, f.veteran, attendance.EventExit, fri, "18:00")
}

// ===== PRE-PAYROLL =====

func TestPayrollService_PrePayroll_RowsPerBranch(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	_, err := f.service.UpsertNote(ctx, f.period.ID, payroll.UpsertNoteRequest{EmployeeID: f.veteran.ID, Comments: "  Bono pendiente "})
	require.NoError(t, err)

	// Act
	report, err := f.service.PrePayroll(ctx, f.period.ID)

	// Assert
	require.NoError(t, err)
	require.Len(t, report.Branches, 2)
	assert.Equal(t, "Centro", report.Branches[0].BranchName)
	assert.Equal(t, "Norte", report.Branches[1].BranchName)

	ana := report.Branches[0].Rows[0]
	assert.Equal(t, 7, ana.DaysInPeriod)
	assert.Equal(t, 2, ana.UnpaidDays)
	assert.Equal(t, 5, ana.DaysToPay)
	assert.Equal(t, 10, ana.LateMinutes)
	assert.Equal(t, 50, ana.ExtraMinutes)
	assert.Equal(t, "Bono pendiente", ana.Comments)

	var detected *payroll.IncidentLine
	for i := range ana.Incidents {
		if ana.Incidents[i].Name == detectedAbsenceName {
			detected = &ana.Incidents[i]
		}
	}
	require.NotNil(t, detected)
	assert.Equal(t, []string{"2024-03-05"}, detected.Dates)

	luis := report.Branches[1].Rows[0]
	assert.Equal(t, 5, luis.DaysInPeriod)
	assert.Equal(t, 2, luis.UnpaidDays)
	assert.Equal(t, 3, luis.DaysToPay)
}

func TestPayrollService_PrePayroll_AfterConsolidationUsesStoredIncidents(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	_, err := f.service.Consolidate(ctx, f.period, afterWeek)
	require.NoError(t, err)

	report, err := f.service.PrePayroll(ctx, f.period.ID)

	require.NoError(t, err)
	ana := report.Branches[0].Rows[0]
	assert.Equal(t, 2, ana.UnpaidDays)
	for _, line := range ana.Incidents {
		assert.NotEqual(t, detectedAbsenceName, line.Name)
	}
}

func TestPayrollService_ExportPrePayroll_OneSheetPerBranch(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)
	f.seedVeteranWeek(t)

	var buf bytes.Buffer
	err := f.service.ExportPrePayroll(ctx, f.period.ID, &buf)
	require.NoError(t, err)

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Centro", "Norte"}, book.GetSheetList())

	code, err := book.GetCellValue("Centro", "A3")
	require.NoError(t, err)
	assert.Equal(t, "E001", code)

	toPay, err := book.GetCellValue("Centro", "E3")
	require.NoError(t, err)
	assert.Equal(t, "5", toPay)
}

func TestPayrollService_ExportPrePayroll_UnknownPeriod(t *testing.T) {
	f := newPayrollFixture(t, afterWeek)

	err := f.service.ExportPrePayroll(context.Background(), "missing", &bytes.Buffer{})

	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)
}

func TestPayrollService_UpsertNote_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, afterWeek)

	_, err := f.service.UpsertNote(ctx, f.period.ID, payroll.UpsertNoteRequest{EmployeeID: f.veteran.ID, Comments: "   "})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = f.service.UpsertNote(ctx, "missing", payroll.UpsertNoteRequest{EmployeeID: f.veteran.ID, Comments: "ok"})
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)

	first, err := f.service.UpsertNote(ctx, f.period.ID, payroll.UpsertNoteRequest{EmployeeID: f.veteran.ID, Comments: "uno"})
	require.NoError(t, err)
	second, err := f.service.UpsertNote(ctx, f.period.ID, payroll.UpsertNoteRequest{EmployeeID: f.veteran.ID, Comments: "dos"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "dos", second.Comments)
}

func TestSheetName_SanitizesAndDeduplicates(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "Sur-Poniente", sheetName("Sur/Poniente", used))
	assert.Equal(t, "No branch", sheetName("  ", used))
	long := sheetName("Sucursal con un nombre demasiado largo", used)
	assert.Len(t, []rune(long), 31)
	again := sheetName("Sucursal con un nombre demasiado largo", used)
	assert.NotEqual(t, long, again)
	assert.LessOrEqual(t, len([]rune(again)), 31)
}

func TestPayrollService_OpenInitialPeriod(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t, midWeekNow)

	// Act: one is already open
	_, err := f.service.OpenInitialPeriod(ctx, calendar.Date(2024, 1, 1))
	assert.ErrorIs(t, err, payroll.ErrPeriodConflict)

	require.NoError(t, memory.NewPeriodRepository(f.store).Close(ctx, f.period.ID))

	// Act
	opened, err := f.service.OpenInitialPeriod(ctx, calendar.Date(2024, 1, 1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, 1, 1), opened.StartDate)
	assert.Equal(t, calendar.Date(2024, 1, 7), opened.EndDate)
	assert.Equal(t, calendar.Date(2024, 1, 8), opened.PaymentDate)
	assert.Equal(t, 1, opened.WeekNumber)
	assert.Equal(t, payroll.PeriodStatusOpen, opened.Status)
}
