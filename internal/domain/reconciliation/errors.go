package reconciliation

import "errors"

var (
	ErrInvalidRange = errors.New("end date precedes start date")
	ErrRangeTooLong = errors.New("date range exceeds the maximum of 366 days")
)
