package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"golang.org/x/sync/errgroup"
)

// Options tune the payroll engine.
type Options struct {
	Location    *time.Location
	Workers     int
	UnpaidCodes []incident.Code
}

type PayrollServiceImpl struct {
	transactor   database.Transactor
	periodRepo   payroll.PeriodRepository
	noteRepo     payroll.NoteRepository
	employeeRepo employee.EmployeeRepository
	typeRepo     incident.TypeRepository
	incidentRepo incident.IncidentRepository
	reconciler   reconciliation.ReconciliationService
	loc          *time.Location
	workers      int
	unpaid       map[incident.Code]bool
	now          func() time.Time
}

func NewPayrollService(
	transactor database.Transactor,
	periodRepo payroll.PeriodRepository,
	noteRepo payroll.NoteRepository,
	employeeRepo employee.EmployeeRepository,
	typeRepo incident.TypeRepository,
	incidentRepo incident.IncidentRepository,
	reconciler reconciliation.ReconciliationService,
	opts Options,
	now func() time.Time,
) payroll.PayrollService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.UnpaidCodes) == 0 {
		opts.UnpaidCodes = []incident.Code{incident.CodeUnjustifiedAbsence, incident.CodeUnpaidPermission}
	}
	if now == nil {
		now = time.Now
	}
	unpaid := make(map[incident.Code]bool, len(opts.UnpaidCodes))
	for _, code := range opts.UnpaidCodes {
		unpaid[code] = true
	}
	return &PayrollServiceImpl{
		transactor:   transactor,
		periodRepo:   periodRepo,
		noteRepo:     noteRepo,
		employeeRepo: employeeRepo,
		typeRepo:     typeRepo,
		incidentRepo: incidentRepo,
		reconciler:   reconciler,
		loc:          opts.Location,
		workers:      opts.Workers,
		unpaid:       unpaid,
		now:          now,
	}
}

// ========== PERIODS ==========

func (s *PayrollServiceImpl) GetOpenPeriod(ctx context.Context) (payroll.Period, error) {
	return s.periodRepo.GetOpen(ctx)
}

func (s *PayrollServiceImpl) ListPeriods(ctx context.Context, limit int) ([]payroll.Period, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	return s.periodRepo.List(ctx, limit)
}

// OpenInitialPeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) OpenInitialPeriod(ctx context.Context, start time.Time) (payroll.Period, error) {
	_, err := s.periodRepo.GetOpen(ctx)
	switch {
	case err == nil:
		return payroll.Period{}, payroll.ErrPeriodConflict
	case !errors.Is(err, payroll.ErrNoOpenPeriod):
		return payroll.Period{}, fmt.Errorf("failed to get open period: %w", err)
	}

	seed := payroll.Period{EndDate: calendar.AddDays(calendar.Normalize(start), -1)}
	opened, err := s.periodRepo.Create(ctx, seed.Next())
	if err != nil {
		return payroll.Period{}, err
	}
	slog.Info("Initial payroll period opened", "id", opened.ID, "start", calendar.Key(opened.StartDate))
	return opened, nil
}

// ClosePeriod implements payroll.PayrollService.
// The close and the successor insert share one serializable transaction. A
// run that loses a race to another closer returns the period that run opened.
func (s *PayrollServiceImpl) ClosePeriod(ctx context.Context, period payroll.Period) (payroll.Period, error) {
	var opened payroll.Period
	err := s.transactor.WithinSerializableTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.periodRepo.LockOpen(txCtx, period.ID)
		if err != nil {
			return err
		}
		if err := s.periodRepo.Close(txCtx, current.ID); err != nil {
			return fmt.Errorf("failed to close period: %w", err)
		}
		opened, err = s.periodRepo.Create(txCtx, current.Next())
		if err != nil {
			return fmt.Errorf("failed to open next period: %w", err)
		}
		return nil
	})
	if err == nil {
		slog.Info("Payroll period closed", "closed_id", period.ID, "opened_id", opened.ID,
			"week", opened.WeekNumber, "start", calendar.Key(opened.StartDate))
		return opened, nil
	}

	if isPeriodConflict(err) {
		current, openErr := s.periodRepo.GetOpen(ctx)
		if openErr == nil && current.ID != period.ID {
			slog.Info("Payroll period already advanced by another run", "period_id", period.ID, "open_id", current.ID)
			return current, nil
		}
	}
	return payroll.Period{}, fmt.Errorf("failed to roll payroll period: %w", err)
}

func isPeriodConflict(err error) bool {
	return errors.Is(err, payroll.ErrPeriodNotOpen) ||
		errors.Is(err, payroll.ErrPeriodConflict) ||
		database.IsUniqueViolation(err) ||
		database.IsSerializationFailure(err)
}

// CyclePeriod implements payroll.PayrollService.
// Consolidation failures are logged and never keep the next period from
// opening.
func (s *PayrollServiceImpl) CyclePeriod(ctx context.Context, now time.Time) (payroll.CycleResult, error) {
	open, err := s.periodRepo.GetOpen(ctx)
	if err != nil {
		return payroll.CycleResult{}, err
	}
	if !calendar.DateOf(now, s.loc).After(open.EndDate) {
		return payroll.CycleResult{}, payroll.ErrPeriodNotEnded
	}

	report, err := s.Consolidate(ctx, open, now)
	if err != nil {
		slog.Error("Consolidation failed, closing period anyway", "period_id", open.ID, "error", err)
	}

	opened, err := s.ClosePeriod(ctx, open)
	if err != nil {
		return payroll.CycleResult{}, err
	}

	open.Status = payroll.PeriodStatusClosed
	return payroll.CycleResult{
		Closed:        payroll.ToPeriodResponse(open),
		Opened:        payroll.ToPeriodResponse(opened),
		Consolidation: report,
	}, nil
}

// ========== CONSOLIDATION ==========

var consolidationCodes = []incident.Code{
	incident.CodeHoliday,
	incident.CodeRestDay,
	incident.CodeUnjustifiedAbsence,
	incident.CodeNotEmployed,
}

type consolidationCounts struct {
	holidays, rest, absences, preHire int
}

// Consolidate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Consolidate(ctx context.Context, period payroll.Period, now time.Time) (payroll.ConsolidationReport, error) {
	report := payroll.ConsolidationReport{PeriodID: period.ID}

	types, err := s.typeRepo.GetByCodes(ctx, consolidationCodes)
	if err != nil {
		return report, fmt.Errorf("failed to load incident types: %w", err)
	}
	for _, code := range consolidationCodes {
		if _, ok := types[code]; !ok {
			slog.Warn("Incident type missing, skipping consolidation category", "code", code, "period_id", period.ID)
			report.SkippedCategories = append(report.SkippedCategories, code)
		}
	}

	employees, err := s.employeeRepo.GetActiveDuring(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return report, fmt.Errorf("failed to list employees: %w", err)
	}
	report.EmployeesScanned = len(employees)

	today := calendar.DateOf(now, s.loc)
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, emp := range employees {
		g.Go(func() error {
			counts, err := s.consolidateEmployee(gCtx, emp, period, today, types)
			mu.Lock()
			defer mu.Unlock()
			report.HolidaysCreated += counts.holidays
			report.RestDaysCreated += counts.rest
			report.AbsencesCreated += counts.absences
			report.PreHireCreated += counts.preHire
			if err != nil {
				slog.Error("Consolidation failed for employee", "employee_id", emp.ID, "period_id", period.ID, "error", err)
				report.Failures = append(report.Failures, payroll.EmployeeError{EmployeeID: emp.ID, Error: err.Error()})
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	slog.Info("Consolidated payroll period", "period_id", period.ID, "employees", report.EmployeesScanned,
		"created", report.Created(), "failures", len(report.Failures))
	return report, nil
}

func (s *PayrollServiceImpl) consolidateEmployee(ctx context.Context, emp employee.Employee, period payroll.Period, today time.Time, types map[incident.Code]incident.Type) (consolidationCounts, error) {
	var counts consolidationCounts

	results, err := s.reconciler.ReconcileEmployee(ctx, emp, period.StartDate, period.EndDate, today)
	if err != nil {
		return counts, fmt.Errorf("failed to reconcile: %w", err)
	}

	for _, day := range results {
		code, notes, ok := consolidationCode(day)
		if !ok {
			continue
		}
		t, ok := types[code]
		if !ok {
			continue
		}

		_, created, err := s.incidentRepo.CreateIfDayFree(ctx, incident.Incident{
			EmployeeID: emp.ID,
			TypeID:     t.ID,
			StartDate:  day.Date,
			EndDate:    day.Date,
			Status:     incident.StatusApproved,
			Notes:      notes,
		})
		if err != nil {
			return counts, fmt.Errorf("failed to create %s incident on %s: %w", code, calendar.Key(day.Date), err)
		}
		if !created {
			continue
		}

		switch code {
		case incident.CodeHoliday:
			counts.holidays++
		case incident.CodeRestDay:
			counts.rest++
		case incident.CodeUnjustifiedAbsence:
			counts.absences++
		case incident.CodeNotEmployed:
			counts.preHire++
		}
	}

	return counts, nil
}

// consolidationCode maps a reconciled day to the incident that records it.
// Only an absence before the hire date becomes not employed; holidays and
// rest days keep their own codes.
func consolidationCode(day reconciliation.DayResult) (incident.Code, *string, bool) {
	if day.Classification == reconciliation.ClassIncident || day.HasAttendance {
		return "", nil, false
	}

	switch day.Classification {
	case reconciliation.ClassHoliday:
		name := day.HolidayName
		return incident.CodeHoliday, &name, true
	case reconciliation.ClassRest:
		return incident.CodeRestDay, nil, true
	case reconciliation.ClassAutoAbsence:
		if day.BeforeHire {
			return incident.CodeNotEmployed, nil, true
		}
		return incident.CodeUnjustifiedAbsence, nil, true
	}
	return "", nil, false
}

// ========== NOTES ==========

func (s *PayrollServiceImpl) UpsertNote(ctx context.Context, periodID string, req payroll.UpsertNoteRequest) (payroll.PeriodNote, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodNote{}, err
	}
	if _, err := s.periodRepo.GetByID(ctx, periodID); err != nil {
		return payroll.PeriodNote{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.PeriodNote{}, err
	}
	return s.noteRepo.Upsert(ctx, payroll.PeriodNote{
		EmployeeID: req.EmployeeID,
		PeriodID:   periodID,
		Comments:   req.Comments,
	})
}
