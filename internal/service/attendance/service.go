package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/facematch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/storage"
	reconciliationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/reconciliation"
)

type AttendanceServiceImpl struct {
	transactor   database.Transactor
	eventRepo    attendance.EventRepository
	employeeRepo employee.EmployeeRepository
	scheduleRepo schedule.WorkScheduleRepository
	matcher      facematch.Matcher
	photos       storage.FileStorage
	hub          *sse.Hub
	loc          *time.Location
	now          func() time.Time
}

func NewAttendanceService(
	transactor database.Transactor,
	eventRepo attendance.EventRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WorkScheduleRepository,
	matcher facematch.Matcher,
	photos storage.FileStorage,
	hub *sse.Hub,
	loc *time.Location,
	now func() time.Time,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if hub == nil {
		hub = sse.NewHub()
	}
	return &AttendanceServiceImpl{
		transactor:   transactor,
		eventRepo:    eventRepo,
		employeeRepo: employeeRepo,
		scheduleRepo: scheduleRepo,
		matcher:      matcher,
		photos:       photos,
		hub:          hub,
		loc:          loc,
		now:          now,
	}
}

// ========== Clocking ==========

// RecordFromImage implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordFromImage(ctx context.Context, req attendance.ClockRequest) (attendance.ClockResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ClockResponse{}, err
	}

	emp, err := s.findEmployeeByFace(ctx, req.Image)
	if err != nil {
		return attendance.ClockResponse{}, err
	}

	if req.AuthEmployeeID != nil && *req.AuthEmployeeID != emp.ID {
		slog.Warn("Clocking face does not match authenticated employee",
			"face_employee_id", emp.ID, "auth_employee_id", *req.AuthEmployeeID)
		return attendance.ClockResponse{}, attendance.ErrFaceMismatch
	}

	now := s.now()
	today := calendar.DateOf(now, s.loc)

	var created attendance.Event
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Serializes concurrent clockings of the same employee.
		if err := s.employeeRepo.LockForUpdate(txCtx, emp.ID); err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}

		events, err := s.eventRepo.ListByEmployee(txCtx, emp.ID, s.dayStart(today), s.dayStart(calendar.AddDays(today, 1)))
		if err != nil {
			return fmt.Errorf("failed to list today's events: %w", err)
		}
		var last *attendance.Event
		if len(events) > 0 {
			last = &events[len(events)-1]
		}

		next, err := nextEventType(req.Mode, last)
		if err != nil {
			return err
		}

		event := attendance.Event{
			EmployeeID: emp.ID,
			Type:       next,
			OccurredAt: now,
		}
		if next == attendance.EventEntry {
			late, err := s.lateMinutes(txCtx, emp.ID, now, today)
			if err != nil {
				return err
			}
			event.LateMinutes = late
		}

		created, err = s.eventRepo.Create(txCtx, event)
		if err != nil {
			return fmt.Errorf("failed to record attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.ClockResponse{}, err
	}

	slog.Info("Attendance recorded", "employee_id", emp.ID, "type", created.Type, "event_id", created.ID)
	s.archivePhoto(ctx, created, today, req.Image)

	resp := attendance.ClockResponse{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		EventID:      created.ID,
		Type:         created.Type,
		OccurredAt:   created.OccurredAt,
		LateMinutes:  created.LateMinutes,
		Message:      fmt.Sprintf("Hello, %s! Your %s was recorded.", emp.FullName, eventLabel(created.Type)),
	}
	s.hub.Publish(FeedTopic, sse.Event{Event: FeedEventClocking, Data: resp})

	return resp, nil
}

// ========== Live feed ==========

const (
	FeedTopic         = "attendance"
	FeedEventClocking = "clocking"
)

// Subscribe implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Subscribe(ctx context.Context) (<-chan attendance.FeedEvent, func()) {
	ch, cleanup := s.hub.Subscribe(FeedTopic)

	out := make(chan attendance.FeedEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(attendance.ClockResponse)
				if !ok {
					continue
				}
				select {
				case out <- attendance.FeedEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// archivePhoto keeps the clocking image next to its event. The event is
// already committed, so a storage failure is only logged.
func (s *AttendanceServiceImpl) archivePhoto(ctx context.Context, event attendance.Event, date time.Time, image []byte) {
	if s.photos == nil {
		return
	}
	key := PhotoKey(event, date)
	if _, err := s.photos.Upload(ctx, bytes.NewReader(image), key); err != nil {
		slog.Warn("Failed to archive clocking photo", "event_id", event.ID, "key", key, "error", err)
	}
}

// PhotoKey is the storage key of the image captured for a clocking.
func PhotoKey(event attendance.Event, date time.Time) string {
	return fmt.Sprintf("clockings/%s/%s/%s.jpg", calendar.Key(date), event.EmployeeID, event.ID)
}

func (s *AttendanceServiceImpl) findEmployeeByFace(ctx context.Context, image []byte) (employee.Employee, error) {
	faceID, err := s.matcher.MatchFace(ctx, image)
	if err != nil {
		if errors.Is(err, facematch.ErrNoMatch) {
			slog.Info("Face search returned no match")
			return employee.Employee{}, attendance.ErrFaceNotRecognized
		}
		return employee.Employee{}, fmt.Errorf("failed to match face: %w", err)
	}

	emp, err := s.employeeRepo.GetByFaceID(ctx, faceID)
	if err != nil {
		if errors.Is(err, employee.ErrFaceNotEnrolled) {
			slog.Warn("Face matched but is not assigned to any employee", "face_id", faceID)
			return employee.Employee{}, attendance.ErrFaceNotRecognized
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by face: %w", err)
	}
	return emp, nil
}

// nextEventType decides which event a clocking appends given the last event
// of the day.
func nextEventType(mode attendance.Mode, last *attendance.Event) (attendance.EventType, error) {
	if mode == attendance.ModeBreak {
		if last == nil || last.Type == attendance.EventExit {
			return "", attendance.ErrEntryRequired
		}
		if last.Type == attendance.EventBreakStart {
			return attendance.EventBreakEnd, nil
		}
		return attendance.EventBreakStart, nil
	}

	if last == nil {
		return attendance.EventEntry, nil
	}
	switch last.Type {
	case attendance.EventExit:
		return "", attendance.ErrShiftAlreadyFinished
	case attendance.EventBreakStart:
		return "", attendance.ErrBreakOpen
	default:
		return attendance.EventExit, nil
	}
}

// lateMinutes is nil on rest days and for punctual entries.
func (s *AttendanceServiceImpl) lateMinutes(ctx context.Context, employeeID string, at, date time.Time) (*int, error) {
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

func eventLabel(t attendance.EventType) string {
	switch t {
	case attendance.EventEntry:
		return "entry"
	case attendance.EventBreakStart:
		return "break start"
	case attendance.EventBreakEnd:
		return "break end"
	case attendance.EventExit:
		return "exit"
	}
	return "clocking"
}

// ========== Ledger maintenance ==========

// ToggleLateIgnored implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ToggleLateIgnored(ctx context.Context, eventID string) (attendance.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return attendance.Event{}, err
	}
	if event.Type != attendance.EventEntry {
		return attendance.Event{}, attendance.ErrNotEntryEvent
	}

	event.LateIgnored = !event.LateIgnored
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return attendance.Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	slog.Info("Late override toggled", "event_id", event.ID, "employee_id", event.EmployeeID, "late_ignored", event.LateIgnored)
	return event, nil
}

// UpdateBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateBreak(ctx context.Context, req attendance.UpdateBreakRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return err
	}
	startClock, err := calendar.ParseClock(req.StartTime)
	if err != nil {
		return err
	}
	endClock, err := calendar.ParseClock(req.EndTime)
	if err != nil {
		return err
	}
	startAt, endAt := startClock.On(date, s.loc), endClock.On(date, s.loc)
	if !startAt.Before(endAt) {
		return attendance.ErrInvalidBreak
	}

	return s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		start, end, err := s.breakPair(txCtx, req.StartEventID, req.EndEventID)
		if err != nil {
			return err
		}
		if !calendar.DateOf(start.OccurredAt, s.loc).Equal(date) || !calendar.DateOf(end.OccurredAt, s.loc).Equal(date) {
			return attendance.ErrEventWrongDate
		}

		start.OccurredAt, end.OccurredAt = startAt, endAt
		if err := s.eventRepo.Update(txCtx, start); err != nil {
			return fmt.Errorf("failed to update break start: %w", err)
		}
		if err := s.eventRepo.Update(txCtx, end); err != nil {
			return fmt.Errorf("failed to update break end: %w", err)
		}
		return nil
	})
}

// DeleteBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeleteBreak(ctx context.Context, startEventID, endEventID string) error {
	return s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		start, end, err := s.breakPair(txCtx, startEventID, endEventID)
		if err != nil {
			return err
		}
		if err := s.eventRepo.Delete(txCtx, start.ID); err != nil {
			return fmt.Errorf("failed to delete break start: %w", err)
		}
		if err := s.eventRepo.Delete(txCtx, end.ID); err != nil {
			return fmt.Errorf("failed to delete break end: %w", err)
		}
		return nil
	})
}

func (s *AttendanceServiceImpl) breakPair(ctx context.Context, startID, endID string) (attendance.Event, attendance.Event, error) {
	start, err := s.eventRepo.GetByID(ctx, startID)
	if err != nil {
		return attendance.Event{}, attendance.Event{}, err
	}
	end, err := s.eventRepo.GetByID(ctx, endID)
	if err != nil {
		return attendance.Event{}, attendance.Event{}, err
	}
	if start.Type != attendance.EventBreakStart || end.Type != attendance.EventBreakEnd || start.EmployeeID != end.EmployeeID {
		return attendance.Event{}, attendance.Event{}, attendance.ErrBreakMismatch
	}
	return start, end, nil
}

// ========== Repair ==========

// RepairRange implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RepairRange(ctx context.Context, employeeID string, start, end time.Time) (attendance.RepairReport, error) {
	start, end = calendar.Normalize(start), calendar.Normalize(end)
	if end.Before(start) {
		return attendance.RepairReport{}, attendance.ErrInvalidRange
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return attendance.RepairReport{}, err
	}

	report := attendance.RepairReport{
		EmployeeID:        employeeID,
		RemovedEventIDs:   []string{},
		SynthesizedEvents: []attendance.Event{},
	}

	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		events, err := s.eventRepo.ListByEmployee(txCtx, employeeID, s.dayStart(start), s.dayStart(calendar.AddDays(end, 1)))
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		byDay := make(map[string][]attendance.Event)
		var days []string
		for _, ev := range events {
			key := calendar.Key(calendar.DateOf(ev.OccurredAt, s.loc))
			if _, ok := byDay[key]; !ok {
				days = append(days, key)
			}
			byDay[key] = append(byDay[key], ev)
		}

		for _, day := range days {
			kept, removed := dropDuplicates(byDay[day])
			for _, ev := range removed {
				if err := s.eventRepo.Delete(txCtx, ev.ID); err != nil {
					return fmt.Errorf("failed to delete duplicate event: %w", err)
				}
				report.RemovedEventIDs = append(report.RemovedEventIDs, ev.ID)
			}
			for _, ev := range closeOrphanBreaks(kept) {
				created, err := s.eventRepo.Create(txCtx, ev)
				if err != nil {
					return fmt.Errorf("failed to create break end: %w", err)
				}
				report.SynthesizedEvents = append(report.SynthesizedEvents, created)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.RepairReport{}, err
	}

	slog.Info("Attendance repaired", "employee_id", employeeID,
		"start", calendar.Key(start), "end", calendar.Key(end),
		"removed", len(report.RemovedEventIDs), "synthesized", len(report.SynthesizedEvents))
	return report, nil
}

// dropDuplicates keeps the earliest entry and the latest exit of a day.
// events must be chronological.
func dropDuplicates(events []attendance.Event) (kept, removed []attendance.Event) {
	lastExit := -1
	for i, ev := range events {
		if ev.Type == attendance.EventExit {
			lastExit = i
		}
	}

	seenEntry := false
	for i, ev := range events {
		switch {
		case ev.Type == attendance.EventEntry && seenEntry:
			removed = append(removed, ev)
		case ev.Type == attendance.EventExit && i != lastExit:
			removed = append(removed, ev)
		default:
			if ev.Type == attendance.EventEntry {
				seenEntry = true
			}
			kept = append(kept, ev)
		}
	}
	return kept, removed
}

// closeOrphanBreaks returns the break_end events needed to close every
// break_start that is followed by something other than a break_end. The end
// is placed at the time of that following event. A break still open at the
// last event of the day is left alone.
func closeOrphanBreaks(events []attendance.Event) []attendance.Event {
	var synthesized []attendance.Event
	var open *attendance.Event
	for i := range events {
		ev := events[i]
		if ev.Type == attendance.EventBreakEnd {
			open = nil
			continue
		}
		if open != nil {
			synthesized = append(synthesized, attendance.Event{
				EmployeeID: open.EmployeeID,
				Type:       attendance.EventBreakEnd,
				OccurredAt: ev.OccurredAt,
			})
			open = nil
		}
		if ev.Type == attendance.EventBreakStart {
			open = &events[i]
		}
	}
	return synthesized
}

func (s *AttendanceServiceImpl) dayStart(date time.Time) time.Time {
	return calendar.StartOfDayIn(date, s.loc)
}
