package vacation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type VacationServiceImpl struct {
	transactor   database.Transactor
	ledgerRepo   vacation.LedgerRepository
	employeeRepo employee.EmployeeRepository
	typeRepo     incident.TypeRepository
	incidentRepo incident.IncidentRepository
	calculator   *EntitlementCalculator
	loc          *time.Location
	workers      int
}

func NewVacationService(
	transactor database.Transactor,
	ledgerRepo vacation.LedgerRepository,
	employeeRepo employee.EmployeeRepository,
	typeRepo incident.TypeRepository,
	incidentRepo incident.IncidentRepository,
	calculator *EntitlementCalculator,
	loc *time.Location,
	workers int,
) vacation.VacationService {
	if calculator == nil {
		calculator = NewEntitlementCalculator()
	}
	if loc == nil {
		loc = time.UTC
	}
	if workers < 1 {
		workers = 1
	}
	return &VacationServiceImpl{
		transactor:   transactor,
		ledgerRepo:   ledgerRepo,
		employeeRepo: employeeRepo,
		typeRepo:     typeRepo,
		incidentRepo: incidentRepo,
		calculator:   calculator,
		loc:          loc,
		workers:      workers,
	}
}

func (s *VacationServiceImpl) GetLedger(ctx context.Context, employeeID string) (vacation.Ledger, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return vacation.Ledger{}, err
	}
	entries, err := s.ledgerRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return vacation.Ledger{}, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return vacation.Ledger{EmployeeID: emp.ID, Balance: emp.VacationBalance, Entries: entries}, nil
}

// Recalculate implements vacation.VacationService.
func (s *VacationServiceImpl) Recalculate(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		entries, err := s.recalculate(txCtx, employeeID)
		if err != nil {
			return err
		}
		balance = finalBalance(entries)
		return nil
	})
	return balance, err
}

// recalculate is the only writer of running balances. It must run inside a
// transaction so the employee lock is held until commit.
func (s *VacationServiceImpl) recalculate(ctx context.Context, employeeID string) ([]vacation.Entry, error) {
	if err := s.employeeRepo.LockForUpdate(ctx, employeeID); err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].Days)
		if entries[i].Balance.Equal(running) {
			continue
		}
		if err := s.ledgerRepo.UpdateBalance(ctx, entries[i].ID, running); err != nil {
			return nil, fmt.Errorf("failed to update ledger balance: %w", err)
		}
		entries[i].Balance = running
	}

	if err := s.employeeRepo.UpdateVacationBalance(ctx, employeeID, running); err != nil {
		return nil, fmt.Errorf("failed to update employee balance: %w", err)
	}
	return entries, nil
}

func finalBalance(entries []vacation.Entry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	return entries[len(entries)-1].Balance
}

func (s *VacationServiceImpl) SetInitialBalance(ctx context.Context, employeeID string, days decimal.Decimal) (vacation.Ledger, error) {
	if days.IsNegative() {
		return vacation.Ledger{}, vacation.ErrNegativeInitial
	}

	var ledger vacation.Ledger
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		emp, err := s.employeeRepo.GetByID(txCtx, employeeID)
		if err != nil {
			return err
		}
		_, err = s.ledgerRepo.UpsertInitial(txCtx, vacation.Entry{
			EmployeeID:  emp.ID,
			Date:        emp.HireDate,
			Type:        vacation.EntryInitial,
			Days:        days,
			Description: "Initial balance",
		})
		if err != nil {
			return fmt.Errorf("failed to store initial balance: %w", err)
		}
		entries, err := s.recalculate(txCtx, emp.ID)
		if err != nil {
			return err
		}
		ledger = vacation.Ledger{EmployeeID: emp.ID, Balance: finalBalance(entries), Entries: entries}
		return nil
	})
	return ledger, err
}

// RecordTaken implements vacation.VacationService.
func (s *VacationServiceImpl) RecordTaken(ctx context.Context, employeeID string, start, end time.Time, description string, mirrorIncident bool) (vacation.Entry, error) {
	start, end = calendar.Normalize(start), calendar.Normalize(end)
	if end.Before(start) {
		return vacation.Entry{}, vacation.ErrInvalidRange
	}

	var vacType incident.Type
	if mirrorIncident {
		types, err := s.typeRepo.GetByCodes(ctx, []incident.Code{incident.CodeVacation})
		if err != nil {
			return vacation.Entry{}, fmt.Errorf("failed to load incident types: %w", err)
		}
		t, ok := types[incident.CodeVacation]
		if !ok {
			return vacation.Entry{}, vacation.ErrVacationTypeAbsent
		}
		vacType = t
	}

	var created vacation.Entry
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.employeeRepo.GetByID(txCtx, employeeID); err != nil {
			return err
		}

		if mirrorIncident {
			var notes *string
			if description != "" {
				notes = &description
			}
			_, err := s.incidentRepo.Create(txCtx, incident.Incident{
				EmployeeID: employeeID,
				TypeID:     vacType.ID,
				StartDate:  start,
				EndDate:    end,
				Status:     incident.StatusApproved,
				Notes:      notes,
			})
			if err != nil {
				return fmt.Errorf("failed to create vacation incident: %w", err)
			}
		}

		entry, err := s.ledgerRepo.Create(txCtx, vacation.Entry{
			EmployeeID:  employeeID,
			Date:        start,
			Type:        vacation.EntryTaken,
			Days:        decimal.NewFromInt(int64(-calendar.DaysInclusive(start, end))),
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}

		entries, err := s.recalculate(txCtx, employeeID)
		if err != nil {
			return err
		}
		created = entry
		for _, e := range entries {
			if e.ID == entry.ID {
				created = e
			}
		}
		return nil
	})
	return created, err
}

// RemoveTakenOnDate implements vacation.VacationService. Nothing is
// recalculated when no entry was dated on date.
func (s *VacationServiceImpl) RemoveTakenOnDate(ctx context.Context, employeeID string, date time.Time) error {
	return s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := s.ledgerRepo.DeleteTakenOnDate(txCtx, employeeID, calendar.Normalize(date))
		if err != nil {
			return fmt.Errorf("failed to delete taken entries: %w", err)
		}
		if deleted == 0 {
			return nil
		}
		_, err = s.recalculate(txCtx, employeeID)
		return err
	})
}

func (s *VacationServiceImpl) AddAdjustment(ctx context.Context, employeeID string, date time.Time, days decimal.Decimal, description string) (vacation.Entry, error) {
	var created vacation.Entry
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.employeeRepo.GetByID(txCtx, employeeID); err != nil {
			return err
		}
		entry, err := s.ledgerRepo.Create(txCtx, vacation.Entry{
			EmployeeID:  employeeID,
			Date:        calendar.Normalize(date),
			Type:        vacation.EntryAdjustment,
			Days:        days,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("failed to create adjustment: %w", err)
		}
		entries, err := s.recalculate(txCtx, employeeID)
		if err != nil {
			return err
		}
		created = entry
		for _, e := range entries {
			if e.ID == entry.ID {
				created = e
			}
		}
		return nil
	})
	return created, err
}

// ========== BATCHES ==========

// AccrueWeek implements vacation.VacationService.
// The earned entry is dated on the Monday of now's ISO week, so reruns in
// the same week are no-ops.
func (s *VacationServiceImpl) AccrueWeek(ctx context.Context, now time.Time) (jobrun.Result, error) {
	monday := calendar.StartOfIsoWeek(calendar.DateOf(now, s.loc))
	week := calendar.IsoWeek(monday)

	return s.forEachActive(ctx, monday, func(ctx context.Context, emp employee.Employee) (bool, error) {
		serviceYear := s.calculator.ServiceYear(emp.HireDate, monday)
		days := s.calculator.WeeklyAccrual(serviceYear)

		var created bool
		err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			var err error
			created, err = s.ledgerRepo.CreateEarnedIfAbsent(txCtx, vacation.Entry{
				EmployeeID:  emp.ID,
				Date:        monday,
				Type:        vacation.EntryEarned,
				Days:        days,
				Description: fmt.Sprintf("Weekly accrual, week %d, service year %d", week, serviceYear),
			})
			if err != nil {
				return fmt.Errorf("failed to create earned entry: %w", err)
			}
			if !created {
				return nil
			}
			_, err = s.recalculate(txCtx, emp.ID)
			return err
		})
		return created, err
	})
}

// SetInitialBalancesForAll implements vacation.VacationService.
func (s *VacationServiceImpl) SetInitialBalancesForAll(ctx context.Context, now time.Time) (jobrun.Result, error) {
	today := calendar.DateOf(now, s.loc)
	return s.forEachActive(ctx, today, func(ctx context.Context, emp employee.Employee) (bool, error) {
		days := s.calculator.ProportionalInitialBalance(emp.HireDate, today)
		if _, err := s.SetInitialBalance(ctx, emp.ID, days); err != nil {
			return false, err
		}
		slog.Info("Set initial vacation balance", "employee_id", emp.ID, "employee_code", emp.EmployeeCode, "days", days.String())
		return true, nil
	})
}

// forEachActive runs fn for each employee active on date. One employee's
// failure is recorded and the batch carries on.
func (s *VacationServiceImpl) forEachActive(ctx context.Context, date time.Time, fn func(ctx context.Context, emp employee.Employee) (bool, error)) (jobrun.Result, error) {
	employees, err := s.employeeRepo.GetActiveDuring(ctx, date, date)
	if err != nil {
		return jobrun.Result{}, fmt.Errorf("failed to list employees: %w", err)
	}

	var collector jobrun.Collector
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, emp := range employees {
		g.Go(func() error {
			done, err := fn(gCtx, emp)
			switch {
			case err != nil:
				slog.Error("Vacation batch failed for employee", "employee_id", emp.ID, "error", err)
				collector.Failed(emp.ID, err)
			case done:
				collector.Processed()
			default:
				collector.Skipped()
			}
			return nil
		})
	}
	_ = g.Wait()

	return collector.Result(), ctx.Err()
}
