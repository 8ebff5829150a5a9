package incident

import "errors"

var (
	ErrIncidentNotFound     = errors.New("incident not found")
	ErrIncidentTypeNotFound = errors.New("incident type not found")
	ErrDayAlreadyCovered    = errors.New("an incident already covers this day")
	ErrInvalidRange         = errors.New("incident end date precedes start date")
)
