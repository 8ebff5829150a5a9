package incident

import (
	"context"
	"time"
)

// IncidentService groups day-level corrections made by an administrator.
type IncidentService interface {
	// CreateDailyIncident replaces whatever the day held with a single
	// approved incident. Vacation incidents also debit the vacation ledger.
	CreateDailyIncident(ctx context.Context, req CreateDailyIncidentRequest) (Incident, error)

	// RemoveDailyIncident deletes the incident starting on date and reverses
	// its vacation debit when applicable.
	RemoveDailyIncident(ctx context.Context, employeeID string, date time.Time) error

	// UpdateDailyAttendance edits the entry and exit of a day; the entry's
	// lateness is recomputed and its override cleared.
	UpdateDailyAttendance(ctx context.Context, req UpdateDailyAttendanceRequest) error
}
