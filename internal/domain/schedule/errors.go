package schedule

import "errors"

var (
	ErrWorkScheduleNotFound = errors.New("work schedule not found")
	ErrInvalidDayOfWeek     = errors.New("day of week must be between 1 and 7")
)
