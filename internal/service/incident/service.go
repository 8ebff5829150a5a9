package incident

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/vacation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	reconciliationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/reconciliation"
)

const vacationFromIncidents = "Vacation recorded from incidents"

type IncidentServiceImpl struct {
	transactor      database.Transactor
	typeRepo        incident.TypeRepository
	incidentRepo    incident.IncidentRepository
	eventRepo       attendance.EventRepository
	employeeRepo    employee.EmployeeRepository
	scheduleRepo    schedule.WorkScheduleRepository
	vacationService vacation.VacationService
	loc             *time.Location
}

func NewIncidentService(
	transactor database.Transactor,
	typeRepo incident.TypeRepository,
	incidentRepo incident.IncidentRepository,
	eventRepo attendance.EventRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WorkScheduleRepository,
	vacationService vacation.VacationService,
	loc *time.Location,
) incident.IncidentService {
	if loc == nil {
		loc = time.UTC
	}
	return &IncidentServiceImpl{
		transactor:      transactor,
		typeRepo:        typeRepo,
		incidentRepo:    incidentRepo,
		eventRepo:       eventRepo,
		employeeRepo:    employeeRepo,
		scheduleRepo:    scheduleRepo,
		vacationService: vacationService,
		loc:             loc,
	}
}

// CreateDailyIncident implements incident.IncidentService.
func (s *IncidentServiceImpl) CreateDailyIncident(ctx context.Context, req incident.CreateDailyIncidentRequest) (incident.Incident, error) {
	if err := req.Validate(); err != nil {
		return incident.Incident{}, err
	}
	date := req.ParsedDate

	incType, err := s.typeRepo.GetByID(ctx, req.IncidentTypeID)
	if err != nil {
		return incident.Incident{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return incident.Incident{}, err
	}

	var created incident.Incident
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.clearDay(txCtx, req.EmployeeID, date); err != nil {
			return err
		}

		created, err = s.incidentRepo.Create(txCtx, incident.Incident{
			EmployeeID: req.EmployeeID,
			TypeID:     incType.ID,
			StartDate:  date,
			EndDate:    date,
			Status:     incident.StatusApproved,
			Notes:      req.Notes,
		})
		if err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}

		if incType.Code == incident.CodeVacation {
			if _, err := s.vacationService.RecordTaken(txCtx, req.EmployeeID, date, date, vacationFromIncidents, false); err != nil {
				return fmt.Errorf("failed to debit vacation ledger: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return incident.Incident{}, err
	}

	slog.Info("Daily incident created", "employee_id", req.EmployeeID, "date", calendar.Key(date), "code", incType.Code)
	return created, nil
}

// clearDay removes the incidents covering date and the events recorded on
// it. Removed vacation incidents give their days back to the ledger.
func (s *IncidentServiceImpl) clearDay(ctx context.Context, employeeID string, date time.Time) error {
	removed, err := s.incidentRepo.DeleteCoveringDay(ctx, employeeID, date)
	if err != nil {
		return fmt.Errorf("failed to clear incidents: %w", err)
	}
	for _, inc := range removed {
		if inc.Type.Code != incident.CodeVacation {
			continue
		}
		if err := s.vacationService.RemoveTakenOnDate(ctx, employeeID, inc.StartDate); err != nil {
			return fmt.Errorf("failed to reverse vacation debit: %w", err)
		}
	}

	from := calendar.StartOfDayIn(date, s.loc)
	to := calendar.StartOfDayIn(calendar.AddDays(date, 1), s.loc)
	if _, err := s.eventRepo.DeleteByEmployeeBetween(ctx, employeeID, from, to); err != nil {
		return fmt.Errorf("failed to clear attendance: %w", err)
	}
	return nil
}

// RemoveDailyIncident implements incident.IncidentService.
func (s *IncidentServiceImpl) RemoveDailyIncident(ctx context.Context, employeeID string, date time.Time) error {
	date = calendar.Normalize(date)
	return s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		inc, err := s.incidentRepo.GetStartingOn(txCtx, employeeID, date)
		if err != nil {
			return err
		}
		if err := s.incidentRepo.Delete(txCtx, inc.ID); err != nil {
			return fmt.Errorf("failed to delete incident: %w", err)
		}
		if inc.Type.Code == incident.CodeVacation {
			if err := s.vacationService.RemoveTakenOnDate(txCtx, employeeID, date); err != nil {
				return fmt.Errorf("failed to reverse vacation debit: %w", err)
			}
		}
		slog.Info("Daily incident removed", "employee_id", employeeID, "date", calendar.Key(date), "code", inc.Type.Code)
		return nil
	})
}

// UpdateDailyAttendance implements incident.IncidentService.
func (s *IncidentServiceImpl) UpdateDailyAttendance(ctx context.Context, req incident.UpdateDailyAttendanceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	date := req.ParsedDate

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return err
	}

	return s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		events, err := s.eventRepo.ListByEmployee(txCtx, req.EmployeeID,
			calendar.StartOfDayIn(date, s.loc), calendar.StartOfDayIn(calendar.AddDays(date, 1), s.loc))
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		if err := s.setDayEvent(txCtx, req.EmployeeID, date, attendance.EventEntry, req.EntryTime, events); err != nil {
			return err
		}
		return s.setDayEvent(txCtx, req.EmployeeID, date, attendance.EventExit, req.ExitTime, events)
	})
}

// setDayEvent moves, creates or deletes the first event of typ on date.
func (s *IncidentServiceImpl) setDayEvent(ctx context.Context, employeeID string, date time.Time, typ attendance.EventType, clock *string, events []attendance.Event) error {
	var existing *attendance.Event
	for i := range events {
		if events[i].Type == typ {
			existing = &events[i]
			break
		}
	}

	if clock == nil || *clock == "" {
		if existing == nil {
			return nil
		}
		if err := s.eventRepo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, attendance.ErrEventNotFound) {
			return fmt.Errorf("failed to delete %s: %w", typ, err)
		}
		return nil
	}

	parsed, err := calendar.ParseClock(*clock)
	if err != nil {
		return err
	}
	at := parsed.On(date, s.loc)

	event := attendance.Event{EmployeeID: employeeID, Type: typ}
	if existing != nil {
		event = *existing
	}
	event.OccurredAt = at
	if typ == attendance.EventEntry {
		late, err := s.lateMinutes(ctx, employeeID, at, date)
		if err != nil {
			return err
		}
		event.LateMinutes = late
		event.LateIgnored = false
	}

	if existing != nil {
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update %s: %w", typ, err)
		}
		return nil
	}
	if _, err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create %s: %w", typ, err)
	}
	return nil
}

func (s *IncidentServiceImpl) lateMinutes(ctx context.Context, employeeID string, at, date time.Time) (*int, error) {
	timeline, err := s.scheduleRepo.GetTimeline(ctx, employeeID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	detail, ok := timeline.DetailFor(date)
	if !ok {
		return nil, nil
	}
	return reconciliationService.LateMinutes(detail, at, date, s.loc), nil
}
