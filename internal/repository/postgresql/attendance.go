package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type eventRepository struct {
	db *database.DB
}

// Create implements attendance.EventRepository.
func (r *eventRepository) Create(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	if event.ID == "" {
		event.ID = newID()
	}

	query := `
		INSERT INTO attendance_events (
			id, employee_id, type, occurred_at, late_minutes, late_ignored, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.EmployeeID,
		event.Type,
		event.OccurredAt,
		event.LateMinutes,
		event.LateIgnored,
		event.CreatedBy,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to create attendance event: %w", err)
	}
	return event, nil
}

// GetByID implements attendance.EventRepository.
func (r *eventRepository) GetByID(ctx context.Context, id string) (attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, type, occurred_at, late_minutes, late_ignored,
			   created_by, created_at, updated_at
		FROM attendance_events
		WHERE id = $1
	`

	var ev attendance.Event
	err := q.QueryRow(ctx, query, id).Scan(
		&ev.ID, &ev.EmployeeID, &ev.Type, &ev.OccurredAt, &ev.LateMinutes, &ev.LateIgnored,
		&ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Event{}, attendance.ErrEventNotFound
		}
		return attendance.Event{}, fmt.Errorf("failed to get attendance event: %w", err)
	}
	return ev, nil
}

// ListByEmployee implements attendance.EventRepository.
func (r *eventRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, type, occurred_at, late_minutes, late_ignored,
			   created_by, created_at, updated_at
		FROM attendance_events
		WHERE employee_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		var ev attendance.Event
		if err := rows.Scan(
			&ev.ID, &ev.EmployeeID, &ev.Type, &ev.OccurredAt, &ev.LateMinutes, &ev.LateIgnored,
			&ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}
	return events, nil
}

// Update implements attendance.EventRepository.
func (r *eventRepository) Update(ctx context.Context, event attendance.Event) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE attendance_events
		SET occurred_at = $2, late_minutes = $3, late_ignored = $4, updated_at = NOW()
		WHERE id = $1
	`, event.ID, event.OccurredAt, event.LateMinutes, event.LateIgnored)
	if err != nil {
		return fmt.Errorf("failed to update attendance event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}
	return nil
}

// Delete implements attendance.EventRepository.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}
	return nil
}

// DeleteByEmployeeBetween implements attendance.EventRepository.
func (r *eventRepository) DeleteByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM attendance_events
		WHERE employee_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	`, employeeID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendance events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func NewEventRepository(db *database.DB) attendance.EventRepository {
	return &eventRepository{db: db}
}
