package incident

import (
	"context"
	"time"
)

type TypeRepository interface {
	GetByID(ctx context.Context, id string) (Type, error)

	// GetByCodes returns the types found for codes; absent codes are simply
	// missing from the map.
	GetByCodes(ctx context.Context, codes []Code) (map[Code]Type, error)
}

type IncidentRepository interface {
	// Create stores the incident and claims every covered day. Returns
	// ErrDayAlreadyCovered when any day already has an incident.
	Create(ctx context.Context, inc Incident) (Incident, error)

	// CreateIfDayFree behaves like Create but reports created=false instead
	// of failing when a day is already covered.
	CreateIfDayFree(ctx context.Context, inc Incident) (Incident, bool, error)

	// ListByEmployee returns incidents overlapping [start, end] with Type
	// loaded, ordered by start date.
	ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]Incident, error)

	GetStartingOn(ctx context.Context, employeeID string, date time.Time) (Incident, error)

	// DeleteCoveringDay removes every incident covering date and returns them.
	DeleteCoveringDay(ctx context.Context, employeeID string, date time.Time) ([]Incident, error)

	Delete(ctx context.Context, id string) error
}
