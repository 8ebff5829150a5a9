package bonus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type BonusServiceImpl struct {
	transactor   database.Transactor
	bonusRepo    bonus.BonusRepository
	reportRepo   bonus.ReportRepository
	employeeRepo employee.EmployeeRepository
	reconciler   reconciliation.ReconciliationService
	loc          *time.Location
	workers      int
	now          func() time.Time
}

func NewBonusService(
	transactor database.Transactor,
	bonusRepo bonus.BonusRepository,
	reportRepo bonus.ReportRepository,
	employeeRepo employee.EmployeeRepository,
	reconciler reconciliation.ReconciliationService,
	loc *time.Location,
	workers int,
	now func() time.Time,
) bonus.BonusService {
	if loc == nil {
		loc = time.UTC
	}
	if workers < 1 {
		workers = 1
	}
	if now == nil {
		now = time.Now
	}
	return &BonusServiceImpl{
		transactor:   transactor,
		bonusRepo:    bonusRepo,
		reportRepo:   reportRepo,
		employeeRepo: employeeRepo,
		reconciler:   reconciler,
		loc:          loc,
		workers:      workers,
		now:          now,
	}
}

// GenerateReport implements bonus.BonusService.
// Details of a draft are replaced wholesale; a finalized report is never
// touched again.
func (s *BonusServiceImpl) GenerateReport(ctx context.Context, month time.Time) (bonus.GenerateResult, error) {
	start := calendar.StartOfMonth(calendar.Normalize(month))
	end := calendar.EndOfMonth(start)

	bonuses, err := s.bonusRepo.ListAutomatic(ctx)
	if err != nil {
		return bonus.GenerateResult{}, fmt.Errorf("failed to list bonuses: %w", err)
	}
	if len(bonuses) == 0 {
		return bonus.GenerateResult{}, bonus.ErrNoAutomaticBonuses
	}

	report, err := s.reportRepo.FindOrCreateDraft(ctx, start)
	if err != nil {
		return bonus.GenerateResult{}, fmt.Errorf("failed to load report: %w", err)
	}
	if report.Status == bonus.ReportStatusFinalized {
		return bonus.GenerateResult{}, bonus.ErrReportFinalized
	}

	employees, err := s.employeeRepo.GetActiveDuring(ctx, start, end)
	if err != nil {
		return bonus.GenerateResult{}, fmt.Errorf("failed to list employees: %w", err)
	}

	now := s.now()
	today := calendar.DateOf(now, s.loc)
	perEmployee := make([][]bonus.Detail, len(employees))
	var collector jobrun.Collector

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			results, err := s.reconciler.ReconcileEmployee(gCtx, emp, start, end, today)
			if err != nil {
				slog.Error("Bonus evaluation failed for employee", "employee_id", emp.ID, "period", calendar.Key(start), "error", err)
				collector.Failed(emp.ID, err)
				return nil
			}
			perEmployee[i] = evaluate(emp, bonuses, reconciliation.Summarize(emp.ID, results))
			collector.Processed()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return bonus.GenerateResult{}, err
	}

	var details []bonus.Detail
	for _, d := range perEmployee {
		details = append(details, d...)
	}

	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.reportRepo.ReplaceDetails(txCtx, report.ID, details, now)
	})
	if err != nil {
		return bonus.GenerateResult{}, fmt.Errorf("failed to store bonus details: %w", err)
	}

	stored, err := s.reportRepo.GetByPeriod(ctx, start)
	if err != nil {
		return bonus.GenerateResult{}, err
	}

	result := collector.Result()
	slog.Info("Generated bonus report", "period", calendar.Key(start), "report_id", stored.ID,
		"employees", result.Processed, "failures", len(result.Failures))
	return bonus.GenerateResult{Report: stored, Batch: result}, nil
}

// evaluate decides every automatic bonus for one employee-month.
func evaluate(emp employee.Employee, bonuses []bonus.Bonus, summary reconciliation.Summary) []bonus.Detail {
	details := make([]bonus.Detail, 0, len(bonuses))
	for _, b := range bonuses {
		d := bonus.Detail{
			EmployeeID:       emp.ID,
			EmployeeName:     emp.FullName,
			BranchName:       emp.BranchName,
			BonusID:          b.ID,
			BonusName:        b.Name,
			CalculatedAmount: decimal.Zero,
		}

		earned := false
		switch b.Rules.Type {
		case bonus.RulePunctuality:
			late := summary.LateMinutes
			d.Metrics.LateMinutes = &late
			earned = late <= b.Rules.LateThreshold()
		case bonus.RuleAttendance:
			absences := summary.UnexcusedAbsences
			d.Metrics.UnjustifiedAbsences = &absences
			earned = absences <= b.Rules.AbsenceThreshold()
		default:
			continue
		}
		if earned {
			d.CalculatedAmount = b.Amount
		}
		details = append(details, d)
	}
	return details
}

func (s *BonusServiceImpl) Recalculate(ctx context.Context, reportID string) (bonus.GenerateResult, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return bonus.GenerateResult{}, err
	}
	if report.Status == bonus.ReportStatusFinalized {
		return bonus.GenerateResult{}, bonus.ErrReportFinalized
	}
	return s.GenerateReport(ctx, report.Period)
}

func (s *BonusServiceImpl) Finalize(ctx context.Context, reportID string, userID *string) (bonus.Report, error) {
	if err := s.reportRepo.Finalize(ctx, reportID, userID, s.now()); err != nil {
		return bonus.Report{}, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

func (s *BonusServiceImpl) GetReport(ctx context.Context, month time.Time) (bonus.ReportResponse, error) {
	report, err := s.reportRepo.GetByPeriod(ctx, calendar.StartOfMonth(calendar.Normalize(month)))
	if err != nil {
		return bonus.ReportResponse{}, err
	}

	resp := bonus.ReportResponse{
		ID:          report.ID,
		Period:      report.Period.Format("2006-01"),
		Status:      report.Status,
		GeneratedAt: report.GeneratedAt,
		FinalizedAt: report.FinalizedAt,
		Employees:   []bonus.EmployeeBonusRow{},
	}

	rows := make(map[string]int)
	for _, d := range report.Details {
		idx, ok := rows[d.EmployeeID]
		if !ok {
			idx = len(resp.Employees)
			rows[d.EmployeeID] = idx
			resp.Employees = append(resp.Employees, bonus.EmployeeBonusRow{
				EmployeeID:   d.EmployeeID,
				EmployeeName: d.EmployeeName,
				BranchName:   d.BranchName,
				Total:        decimal.Zero,
			})
		}
		row := &resp.Employees[idx]
		if d.Metrics.LateMinutes != nil {
			row.LateMinutes = *d.Metrics.LateMinutes
			row.PunctualityEarned = row.PunctualityEarned || d.Earned()
		}
		if d.Metrics.UnjustifiedAbsences != nil {
			row.UnjustifiedAbsences = *d.Metrics.UnjustifiedAbsences
			row.AttendanceEarned = row.AttendanceEarned || d.Earned()
		}
		row.Total = row.Total.Add(d.CalculatedAmount)
	}
	return resp, nil
}
