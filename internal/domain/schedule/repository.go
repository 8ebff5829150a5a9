package schedule

import (
	"context"
	"time"
)

type WorkScheduleRepository interface {
	GetByID(ctx context.Context, id string) (WorkSchedule, error)

	// GetTimeline returns the employee's assignments overlapping [start, end]
	// with each assignment's weekly details loaded, ordered by start date.
	GetTimeline(ctx context.Context, employeeID string, start, end time.Time) (Timeline, error)
}
