package bonus

import (
	"context"
	"time"
)

type BonusService interface {
	// GenerateReport computes automatic bonuses for the month containing
	// month and stores them on a draft report.
	GenerateReport(ctx context.Context, month time.Time) (GenerateResult, error)

	Recalculate(ctx context.Context, reportID string) (GenerateResult, error)
	Finalize(ctx context.Context, reportID string, userID *string) (Report, error)
	GetReport(ctx context.Context, month time.Time) (ReportResponse, error)
}
