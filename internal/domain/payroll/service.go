package payroll

import (
	"context"
	"io"
	"time"
)

type PayrollService interface {
	GetOpenPeriod(ctx context.Context) (Period, error)
	ListPeriods(ctx context.Context, limit int) ([]Period, error)

	// Consolidate materializes holiday, rest-day and absence incidents for
	// every employee active during the period. Safe to run repeatedly.
	Consolidate(ctx context.Context, period Period, now time.Time) (ConsolidationReport, error)

	// OpenInitialPeriod opens the first period starting on start. Fails with
	// ErrPeriodConflict when a period is already open.
	OpenInitialPeriod(ctx context.Context, start time.Time) (Period, error)

	// ClosePeriod atomically closes the open period and opens its successor.
	ClosePeriod(ctx context.Context, period Period) (Period, error)

	// CyclePeriod consolidates and closes the current open period.
	CyclePeriod(ctx context.Context, now time.Time) (CycleResult, error)

	PrePayroll(ctx context.Context, periodID string) (PrePayrollReport, error)
	ExportPrePayroll(ctx context.Context, periodID string, w io.Writer) error

	UpsertNote(ctx context.Context, periodID string, req UpsertNoteRequest) (PeriodNote, error)
}
