package bonus

import (
	"context"
	"time"
)

type BonusRepository interface {
	ListAutomatic(ctx context.Context) ([]Bonus, error)
}

type ReportRepository interface {
	GetByID(ctx context.Context, id string) (Report, error)

	// GetByPeriod loads the report and its details.
	GetByPeriod(ctx context.Context, period time.Time) (Report, error)

	// FindOrCreateDraft returns the report for period, creating a draft if
	// none exists.
	FindOrCreateDraft(ctx context.Context, period time.Time) (Report, error)

	// ReplaceDetails deletes the report's details, inserts details and stamps
	// generated_at.
	ReplaceDetails(ctx context.Context, reportID string, details []Detail, generatedAt time.Time) error

	// Finalize moves a draft report to finalized. Returns ErrReportFinalized
	// if it was not a draft.
	Finalize(ctx context.Context, reportID string, userID *string, at time.Time) error
}
