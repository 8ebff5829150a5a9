package attendance

import (
	"context"
	"time"
)

// AttendanceService defines clocking and time-ledger maintenance.
type AttendanceService interface {
	// RecordFromImage identifies the employee by face and appends the next
	// event of the requested mode.
	RecordFromImage(ctx context.Context, req ClockRequest) (ClockResponse, error)

	// ToggleLateIgnored flips the lateness override on an entry event.
	ToggleLateIgnored(ctx context.Context, eventID string) (Event, error)

	UpdateBreak(ctx context.Context, req UpdateBreakRequest) error
	DeleteBreak(ctx context.Context, startEventID, endEventID string) error

	// RepairRange removes duplicate entries and exits and closes orphan
	// breaks for the employee's events in [start, end].
	RepairRange(ctx context.Context, employeeID string, start, end time.Time) (RepairReport, error)

	// Subscribe streams clockings as they are recorded until ctx is done or
	// cleanup is called.
	Subscribe(ctx context.Context) (<-chan FeedEvent, func())
}
