// Package benchsync runs the background normalization of model benchmark
// scores. The external importer enqueues a job per model after landing new
// evaluations; workers claim jobs one at a time and renormalize. Retry policy
// lives here, in the batch caller, never inside the core: normalization is
// re-entrant, so retrying a partially failed model is safe.
package benchsync

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"maydai/internal/domain"
	"maydai/internal/ports"
)

// Run starts worker goroutines that claim model-sync jobs and process them.
func Run(ctx context.Context, repo ports.JobRepository, normalizer ports.Benchmarks, concurrency int, pollInterval time.Duration) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.SyncJob, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(jobsCh)
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						log.Printf("sync job claim error: %v", err)
						break
					}
					if !found {
						break
					}
					jobsCh <- job
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				if err := normalizeWithRetry(ctx, normalizer, job.ModelID); err != nil {
					_ = repo.MarkFailed(ctx, job.ID, err.Error())
					log.Printf("worker %d: job %s failed: %v", idx, job.ID, err)
					continue
				}
				if err := repo.MarkCompleted(ctx, job.ID); err != nil {
					log.Printf("worker %d: complete err: %v", idx, err)
				}
			}
		}(i)
	}
}

func normalizeWithRetry(ctx context.Context, normalizer ports.Benchmarks, modelID uuid.UUID) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := normalizer.NormalizeModel(ctx, modelID); err != nil {
			if domain.IsValidation(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}

// ProcessInline normalizes one model synchronously through the same job
// bookkeeping the background workers use, for the blocking HTTP path.
func ProcessInline(ctx context.Context, repo ports.JobRepository, normalizer ports.Benchmarks, modelID uuid.UUID) error {
	jobID, err := repo.Enqueue(ctx, modelID)
	if err != nil {
		return err
	}
	if err := normalizeWithRetry(ctx, normalizer, modelID); err != nil {
		_ = repo.MarkFailed(ctx, jobID, err.Error())
		return err
	}
	return repo.MarkCompleted(ctx, jobID)
}
