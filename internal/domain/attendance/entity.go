package attendance

import (
	"time"
)

type EventType string

const (
	EventEntry      EventType = "entry"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
	EventExit       EventType = "exit"
)

func (t EventType) Valid() bool {
	switch t {
	case EventEntry, EventBreakStart, EventBreakEnd, EventExit:
		return true
	}
	return false
}

// Event is one timestamped clocking. Events are attributed to the civil date
// of OccurredAt in the business time zone.
type Event struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	Type        EventType `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	LateMinutes *int      `json:"late_minutes,omitempty"` // set on entry events only
	LateIgnored bool      `json:"late_ignored"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Mode selects which pair of events a clocking toggles.
type Mode string

const (
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)
