package jobrun

import (
	"context"
)

type RunRepository interface {
	// Start records a running job and returns its id.
	Start(ctx context.Context, jobType string) (string, error)

	// Finish stores the final status and JSON-encoded details.
	Finish(ctx context.Context, id string, status Status, details any) error

	// LastCompleted returns the most recent completed run of jobType.
	LastCompleted(ctx context.Context, jobType string) (Run, error)
}
