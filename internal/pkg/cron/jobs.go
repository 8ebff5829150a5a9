package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

// PeriodJobs contains the payroll, vacation and bonus batch jobs. Every run
// that does work is recorded in the job run log.
type PeriodJobs struct {
	runRepo           jobrun.RunRepository
	payrollService    payroll.PayrollService
	vacationService   vacation.VacationService
	bonusService      bonus.BonusService
	attendanceService attendance.AttendanceService
	loc               *time.Location
}

func NewPeriodJobs(
	runRepo jobrun.RunRepository,
	payrollService payroll.PayrollService,
	vacationService vacation.VacationService,
	bonusService bonus.BonusService,
	attendanceService attendance.AttendanceService,
	loc *time.Location,
) *PeriodJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodJobs{
		runRepo:           runRepo,
		payrollService:    payrollService,
		vacationService:   vacationService,
		bonusService:      bonusService,
		attendanceService: attendanceService,
		loc:               loc,
	}
}

// RegisterJobs registers the recurring jobs. Each job checks on every tick
// whether it is due.
func (j *PeriodJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(jobrun.JobPayrollCycle, interval, j.PayrollCycle)
	scheduler.AddJob(jobrun.JobVacationAccrual, interval, j.VacationAccrual)
	scheduler.AddJob(jobrun.JobBonusReport, interval, j.BonusReport)
}

// RegisterManualJobs registers jobs that only run on demand.
func (j *PeriodJobs) RegisterManualJobs(scheduler *Scheduler) {
	scheduler.AddJob(jobrun.JobInitialBalances, 24*time.Hour, j.InitialBalances)
}

// ========== Payroll ==========

// PayrollCycle closes the open period once local today is past its end.
func (j *PeriodJobs) PayrollCycle(ctx context.Context, now time.Time) error {
	open, err := j.payrollService.GetOpenPeriod(ctx)
	if err != nil {
		return fmt.Errorf("failed to get open period: %w", err)
	}
	if !calendar.DateOf(now, j.loc).After(open.EndDate) {
		return nil
	}

	return j.record(ctx, jobrun.JobPayrollCycle, func(ctx context.Context) (any, error) {
		result, err := j.payrollService.CyclePeriod(ctx, now)
		if errors.Is(err, payroll.ErrPeriodConflict) || errors.Is(err, payroll.ErrPeriodNotOpen) {
			slog.Info("Payroll period already advanced by another process", "period_id", open.ID)
			return map[string]string{"skipped": err.Error()}, nil
		}
		return result, err
	})
}

// ========== Vacation ==========

type accrualDetails struct {
	WeekStart string        `json:"week_start"`
	Result    jobrun.Result `json:"result"`
}

// VacationAccrual credits the weekly accrual once per ISO week.
func (j *PeriodJobs) VacationAccrual(ctx context.Context, now time.Time) error {
	weekStart := calendar.Key(calendar.StartOfIsoWeek(calendar.DateOf(now, j.loc)))

	var last accrualDetails
	done, err := j.lastDetails(ctx, jobrun.JobVacationAccrual, &last)
	if err != nil {
		return err
	}
	if done && last.WeekStart == weekStart {
		return nil
	}

	return j.record(ctx, jobrun.JobVacationAccrual, func(ctx context.Context) (any, error) {
		result, err := j.vacationService.AccrueWeek(ctx, now)
		return accrualDetails{WeekStart: weekStart, Result: result}, err
	})
}

// InitialBalances seeds every active employee's initial vacation balance.
func (j *PeriodJobs) InitialBalances(ctx context.Context, now time.Time) error {
	return j.record(ctx, jobrun.JobInitialBalances, func(ctx context.Context) (any, error) {
		return j.vacationService.SetInitialBalancesForAll(ctx, now)
	})
}

// ========== Bonuses ==========

type bonusDetails struct {
	Month  string        `json:"month"`
	Result jobrun.Result `json:"result"`
}

// BonusReport generates the previous month's report on the first day of the
// month unless it was already generated or finalized.
func (j *PeriodJobs) BonusReport(ctx context.Context, now time.Time) error {
	today := calendar.DateOf(now, j.loc)
	if today.Day() != 1 {
		return nil
	}
	month := calendar.StartOfMonth(calendar.AddDays(today, -1))

	var last bonusDetails
	done, err := j.lastDetails(ctx, jobrun.JobBonusReport, &last)
	if err != nil {
		return err
	}
	if done && last.Month == month.Format("2006-01") {
		return nil
	}

	report, err := j.bonusService.GetReport(ctx, month)
	switch {
	case err == nil && report.Status == bonus.ReportStatusFinalized:
		return nil
	case err != nil && !errors.Is(err, bonus.ErrReportNotFound):
		return fmt.Errorf("failed to get bonus report: %w", err)
	}

	return j.GenerateBonusReport(ctx, month)
}

// GenerateBonusReport generates the report of month and records the run.
func (j *PeriodJobs) GenerateBonusReport(ctx context.Context, month time.Time) error {
	return j.record(ctx, jobrun.JobBonusReport, func(ctx context.Context) (any, error) {
		result, err := j.bonusService.GenerateReport(ctx, month)
		return bonusDetails{Month: month.Format("2006-01"), Result: result.Batch}, err
	})
}

// ========== Attendance ==========

// RepairAttendance cleans an employee's time ledger over [start, end].
func (j *PeriodJobs) RepairAttendance(ctx context.Context, employeeID string, start, end time.Time) (attendance.RepairReport, error) {
	var report attendance.RepairReport
	err := j.record(ctx, jobrun.JobAttendanceFix, func(ctx context.Context) (any, error) {
		var err error
		report, err = j.attendanceService.RepairRange(ctx, employeeID, start, end)
		return report, err
	})
	return report, err
}

// ========== Run log ==========

func (j *PeriodJobs) record(ctx context.Context, jobType string, fn func(ctx context.Context) (any, error)) error {
	runID, err := j.runRepo.Start(ctx, jobType)
	if err != nil {
		return fmt.Errorf("failed to start job run: %w", err)
	}

	details, jobErr := fn(ctx)
	status := jobrun.StatusCompleted
	if jobErr != nil {
		status = jobrun.StatusFailed
		details = map[string]any{"error": jobErr.Error(), "partial": details}
	}

	if err := j.runRepo.Finish(ctx, runID, status, details); err != nil {
		slog.Error("Failed to record job run", "job", jobType, "run_id", runID, "error", err)
	}
	if jobErr != nil {
		return fmt.Errorf("%s: %w", jobType, jobErr)
	}
	slog.Info("Job completed", "job", jobType, "run_id", runID)
	return nil
}

// lastDetails decodes the details of the last completed run of jobType into
// out and reports whether such a run exists.
func (j *PeriodJobs) lastDetails(ctx context.Context, jobType string, out any) (bool, error) {
	run, err := j.runRepo.LastCompleted(ctx, jobType)
	if err != nil {
		if errors.Is(err, jobrun.ErrRunNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get last %s run: %w", jobType, err)
	}
	if len(run.Details) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(run.Details, out); err != nil {
		slog.Warn("Ignoring unreadable job details", "job", jobType, "run_id", run.ID, "error", err)
		return false, nil
	}
	return true, nil
}
