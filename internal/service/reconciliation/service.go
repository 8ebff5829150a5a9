package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/holiday"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

const MaxRangeDays = 366

type ReconciliationServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	scheduleRepo   schedule.WorkScheduleRepository
	eventRepo      attendance.EventRepository
	incidentRepo   incident.IncidentRepository
	holidayService holiday.HolidayService
	loc            *time.Location
	now            func() time.Time
}

// ReconcileRange implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) ReconcileRange(ctx context.Context, employeeID string, start, end time.Time) ([]reconciliation.DayResult, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.ReconcileEmployee(ctx, emp, start, end, calendar.DateOf(s.now(), s.loc))
}

// ReconcileEmployee implements reconciliation.ReconciliationService.
// Every input is loaded once for the whole range.
func (s *ReconciliationServiceImpl) ReconcileEmployee(ctx context.Context, emp employee.Employee, start, end, today time.Time) ([]reconciliation.DayResult, error) {
	start, end = calendar.Normalize(start), calendar.Normalize(end)
	if end.Before(start) {
		return nil, reconciliation.ErrInvalidRange
	}
	if calendar.DaysInclusive(start, end) > MaxRangeDays {
		return nil, reconciliation.ErrRangeTooLong
	}

	timeline, err := s.scheduleRepo.GetTimeline(ctx, emp.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule timeline: %w", err)
	}

	holidays, err := s.holidayService.Resolve(ctx, emp, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve holidays: %w", err)
	}

	from := calendar.StartOfDayIn(start, s.loc)
	to := calendar.StartOfDayIn(calendar.AddDays(end, 1), s.loc)
	events, err := s.eventRepo.ListByEmployee(ctx, emp.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance events: %w", err)
	}

	incidents, err := s.incidentRepo.ListByEmployee(ctx, emp.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load incidents: %w", err)
	}

	eventsByDay := make(map[string][]attendance.Event)
	for _, ev := range events {
		key := calendar.Key(calendar.DateOf(ev.OccurredAt, s.loc))
		eventsByDay[key] = append(eventsByDay[key], ev)
	}

	incidentByDay := make(map[string]*incident.Incident)
	for i := range incidents {
		inc := &incidents[i]
		for _, day := range inc.Days() {
			key := calendar.Key(day)
			if _, taken := incidentByDay[key]; !taken {
				incidentByDay[key] = inc
			}
		}
	}

	days := calendar.EachDay(start, end)
	results := make([]reconciliation.DayResult, 0, len(days))
	for _, day := range days {
		key := calendar.Key(day)
		in := reconciliation.DayInput{
			Date:        day,
			Today:       today,
			Location:    s.loc,
			HireDate:    emp.HireDate,
			HolidayName: holidays[key],
			Incident:    incidentByDay[key],
			Events:      eventsByDay[key],
		}
		if detail, ok := timeline.DetailFor(day); ok {
			d := detail
			in.Detail = &d
		}
		results = append(results, ReconcileDay(in))
	}

	return results, nil
}

// SummarizeRange implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) SummarizeRange(ctx context.Context, employeeID string, start, end time.Time) (reconciliation.Summary, error) {
	results, err := s.ReconcileRange(ctx, employeeID, start, end)
	if err != nil {
		return reconciliation.Summary{}, err
	}
	return reconciliation.Summarize(employeeID, results), nil
}

func NewReconciliationService(
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WorkScheduleRepository,
	eventRepo attendance.EventRepository,
	incidentRepo incident.IncidentRepository,
	holidayService holiday.HolidayService,
	loc *time.Location,
	now func() time.Time,
) reconciliation.ReconciliationService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReconciliationServiceImpl{
		employeeRepo:   employeeRepo,
		scheduleRepo:   scheduleRepo,
		eventRepo:      eventRepo,
		incidentRepo:   incidentRepo,
		holidayService: holidayService,
		loc:            loc,
		now:            now,
	}
}
