// Package app wires repositories and services for the binaries.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/facematch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/attendance"
	bonusService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/bonus"
	holidayService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/holiday"
	incidentService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/incident"
	payrollService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/payroll"
	reconciliationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/reconciliation"
	vacationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/vacation"
)

// Services holds every domain service backed by PostgreSQL.
type Services struct {
	Reconciliation reconciliation.ReconciliationService
	Attendance     attendance.AttendanceService
	Incident       incident.IncidentService
	Payroll        payroll.PayrollService
	Vacation       vacation.VacationService
	Bonus          bonus.BonusService
	Runs           jobrun.RunRepository
	Location       *time.Location
	Now            func() time.Time
}

func NewServices(cfg *config.Config, db *database.DB) (*Services, error) {
	loc := cfg.Location()
	now := time.Now
	workers := cfg.Cron.Workers

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	scheduleRepo := postgresql.NewWorkScheduleRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	eventRepo := postgresql.NewEventRepository(db)
	typeRepo := postgresql.NewIncidentTypeRepository(db)
	incidentRepo := postgresql.NewIncidentRepository(db)
	periodRepo := postgresql.NewPeriodRepository(db)
	noteRepo := postgresql.NewNoteRepository(db)
	ledgerRepo := postgresql.NewLedgerRepository(db)
	bonusRepo := postgresql.NewBonusRepository(db)
	reportRepo := postgresql.NewReportRepository(db)
	runRepo := postgresql.NewRunRepository(db)

	if cfg.FaceMatch.URL == "" {
		slog.Warn("FACE_MATCH_URL is not set, clocking will fail to recognize faces")
	}
	matcher := facematch.NewClient(cfg.FaceMatch)

	var photos storage.FileStorage
	if cfg.Storage.PhotoDir != "" {
		local, err := storage.NewLocalStorage(cfg.Storage.PhotoDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open photo storage: %w", err)
		}
		photos = local
	}

	holidays := holidayService.NewHolidayService(holidayRepo)
	reconciler := reconciliationService.NewReconciliationService(
		employeeRepo,
		scheduleRepo,
		eventRepo,
		incidentRepo,
		holidays,
		loc,
		now,
	)
	vacations := vacationService.NewVacationService(
		transactor,
		ledgerRepo,
		employeeRepo,
		typeRepo,
		incidentRepo,
		vacationService.NewEntitlementCalculator(),
		loc,
		workers,
	)

	unpaid := make([]incident.Code, 0, len(cfg.Payroll.UnpaidIncidentCodes))
	for _, code := range cfg.Payroll.UnpaidIncidentCodes {
		unpaid = append(unpaid, incident.Code(code))
	}

	return &Services{
		Reconciliation: reconciler,
		Attendance: attendanceService.NewAttendanceService(
			transactor,
			eventRepo,
			employeeRepo,
			scheduleRepo,
			matcher,
			photos,
			sse.NewHub(),
			loc,
			now,
		),
		Incident: incidentService.NewIncidentService(
			transactor,
			typeRepo,
			incidentRepo,
			eventRepo,
			employeeRepo,
			scheduleRepo,
			vacations,
			loc,
		),
		Payroll: payrollService.NewPayrollService(
			transactor,
			periodRepo,
			noteRepo,
			employeeRepo,
			typeRepo,
			incidentRepo,
			reconciler,
			payrollService.Options{Location: loc, Workers: workers, UnpaidCodes: unpaid},
			now,
		),
		Vacation: vacations,
		Bonus: bonusService.NewBonusService(
			transactor,
			bonusRepo,
			reportRepo,
			employeeRepo,
			reconciler,
			loc,
			workers,
			now,
		),
		Runs:     runRepo,
		Location: loc,
		Now:      now,
	}, nil
}

// Jobs returns the batch jobs and a scheduler with them registered.
func (s *Services) Jobs(interval time.Duration) (*cron.PeriodJobs, *cron.Scheduler) {
	jobs := cron.NewPeriodJobs(s.Runs, s.Payroll, s.Vacation, s.Bonus, s.Attendance, s.Location)
	scheduler := cron.NewScheduler(s.Now)
	jobs.RegisterJobs(scheduler, interval)
	return jobs, scheduler
}
