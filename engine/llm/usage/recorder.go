package usage

import (
	"context"
	"sync"
	"time"

	"github.com/novabase-ai/novabase/pkg/logger"
)

const defaultPersistTimeout = 5 * time.Second

// BestEffortRecorder persists snapshots off the response path. Record
// returns immediately; persistence failures are logged and dropped so
// usage accounting can never fail or slow a user-facing request.
type BestEffortRecorder struct {
	repo    Repository
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewBestEffortRecorder creates a recorder writing to the repository.
func NewBestEffortRecorder(repo Repository) *BestEffortRecorder {
	return &BestEffortRecorder{
		repo:    repo,
		timeout: defaultPersistTimeout,
	}
}

// Record implements Recorder. The write happens on a detached context
// so response-path cancellation does not abort it.
func (r *BestEffortRecorder) Record(ctx context.Context, snapshot *Snapshot) {
	if r == nil || r.repo == nil || snapshot == nil {
		return
	}
	record := NewRecord(snapshot)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.repo.Insert(persistCtx, record); err != nil {
			logger.FromContext(ctx).Warn("Failed to persist usage record",
				"provider", record.Provider,
				"model", record.Model,
				"total_tokens", record.TotalTokens,
				"error", err,
			)
		}
	}()
}

// Wait blocks until all in-flight writes finish. Intended for shutdown
// and tests.
func (r *BestEffortRecorder) Wait() {
	r.wg.Wait()
}

// NopRecorder discards snapshots. Used when usage persistence is not
// configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *Snapshot) {}
