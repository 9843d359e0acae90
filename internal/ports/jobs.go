package ports

import (
	"context"

	"github.com/google/uuid"
)

// SyncJob is one queued model-normalization job, enqueued by the external
// benchmark importer after it lands new evaluations.
type SyncJob struct {
	ID      uuid.UUID
	ModelID uuid.UUID
}

// JobRepository supports claiming and updating model-sync jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, modelID uuid.UUID) (jobID uuid.UUID, err error)
	ClaimNext(ctx context.Context) (job SyncJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error
}
