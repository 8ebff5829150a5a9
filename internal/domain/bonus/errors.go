package bonus

import "errors"

var (
	ErrReportNotFound     = errors.New("bonus report not found")
	ErrReportFinalized    = errors.New("bonus report is already finalized")
	ErrNoAutomaticBonuses = errors.New("no automatic bonuses configured")
	ErrInvalidMonth       = errors.New("month must be formatted as YYYY-MM")
)
