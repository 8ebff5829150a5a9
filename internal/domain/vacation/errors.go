package vacation

import "errors"

var (
	ErrInvalidRange       = errors.New("vacation end date precedes start date")
	ErrNegativeInitial    = errors.New("initial balance cannot be negative")
	ErrVacationTypeAbsent = errors.New("vacation incident type VAC is not configured")
	ErrEntryNotFound      = errors.New("vacation entry not found")
)
