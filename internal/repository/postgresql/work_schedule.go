package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workScheduleRepository struct {
	db *database.DB
}

// GetByID implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) GetByID(ctx context.Context, id string) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	var ws schedule.WorkSchedule
	err := q.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM work_schedules
		WHERE id = $1
	`, id).Scan(&ws.ID, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to get work schedule: %w", err)
	}

	weeks, err := r.loadWeeks(ctx, []string{ws.ID})
	if err != nil {
		return schedule.WorkSchedule{}, err
	}
	ws.Week = weeks[ws.ID]
	return ws, nil
}

// GetTimeline implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) GetTimeline(ctx context.Context, employeeID string, start, end time.Time) (schedule.Timeline, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, work_schedule_id, start_date, end_date
		FROM employee_schedule_assignments
		WHERE employee_id = $1
		  AND start_date <= $3
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date, id
	`, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule assignments: %w", err)
	}
	defer rows.Close()

	var timeline schedule.Timeline
	var scheduleIDs []string
	seen := make(map[string]bool)
	for rows.Next() {
		var a schedule.EmployeeScheduleAssignment
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.WorkScheduleID, &a.StartDate, &a.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}
		timeline = append(timeline, a)
		if !seen[a.WorkScheduleID] {
			seen[a.WorkScheduleID] = true
			scheduleIDs = append(scheduleIDs, a.WorkScheduleID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule assignments: %w", err)
	}
	if len(timeline) == 0 {
		return timeline, nil
	}

	weeks, err := r.loadWeeks(ctx, scheduleIDs)
	if err != nil {
		return nil, err
	}
	for i := range timeline {
		timeline[i].Week = weeks[timeline[i].WorkScheduleID]
	}
	return timeline, nil
}

// loadWeeks reads the weekly details of every schedule in one query. TIME
// columns are read as minutes after midnight.
func (r *workScheduleRepository) loadWeeks(ctx context.Context, scheduleIDs []string) (map[string]schedule.Week, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT work_schedule_id, day_of_week,
			   (EXTRACT(EPOCH FROM start_time)::int / 60),
			   (EXTRACT(EPOCH FROM end_time)::int / 60),
			   meal_minutes
		FROM work_schedule_details
		WHERE work_schedule_id = ANY($1)
		ORDER BY work_schedule_id, day_of_week
	`, scheduleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule details: %w", err)
	}
	defer rows.Close()

	weeks := make(map[string]schedule.Week, len(scheduleIDs))
	for rows.Next() {
		var scheduleID string
		var d schedule.Detail
		var startMin, endMin int
		if err := rows.Scan(&scheduleID, &d.DayOfWeek, &startMin, &endMin, &d.MealMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan schedule detail: %w", err)
		}
		d.Start, d.End = calendar.ClockTime(startMin), calendar.ClockTime(endMin)
		if weeks[scheduleID] == nil {
			weeks[scheduleID] = make(schedule.Week)
		}
		weeks[scheduleID][d.DayOfWeek] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule details: %w", err)
	}
	return weeks, nil
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepository{db: db}
}
