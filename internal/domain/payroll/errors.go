package payroll

import "errors"

var (
	ErrNoOpenPeriod    = errors.New("no open payroll period")
	ErrPeriodNotFound  = errors.New("payroll period not found")
	ErrPeriodNotOpen   = errors.New("payroll period is not open")
	ErrPeriodConflict  = errors.New("another process already advanced the payroll period")
	ErrPeriodNotEnded  = errors.New("payroll period has not ended yet")
	ErrCommentRequired = errors.New("comments are required")
)
