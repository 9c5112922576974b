package worker

import (
	"context"

	"github.com/ppiankov/pacta/internal/pipeline"
)

// Processor runs the post-call pipeline for one session.
type Processor interface {
	Process(ctx context.Context, sessionID string) (*pipeline.Outcome, error)
}

// SessionJob processes one session through the pipeline.
type SessionJob struct {
	Index     int
	SessionID string
	Processor Processor
}

// Execute runs the job.
func (j *SessionJob) Execute(ctx context.Context) Result {
	outcome, err := j.Processor.Process(ctx, j.SessionID)
	return &SessionResult{
		Index:     j.Index,
		SessionID: j.SessionID,
		Outcome:   outcome,
		Error:     err,
	}
}

// SessionResult is the outcome of one session job.
type SessionResult struct {
	Index     int
	SessionID string
	Outcome   *pipeline.Outcome
	Error     error
}

// GetError returns the job error.
func (r *SessionResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many sessions concurrently while keeping the
// output in input order, so batch summaries stay deterministic.
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given concurrency.
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{processor: processor, concurrency: concurrency}
}

// ProcessSessions runs the pipeline over the given sessions. Results are
// indexed by input position regardless of completion order.
func (b *BatchProcessor) ProcessSessions(ctx context.Context, sessionIDs []string) []*SessionResult {
	if len(sessionIDs) == 0 {
		return []*SessionResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for i, id := range sessionIDs {
		pool.Submit(&SessionJob{Index: i, SessionID: id, Processor: b.processor})
	}
	results := pool.Wait()

	ordered := make([]*SessionResult, len(sessionIDs))
	for _, r := range results {
		sr := r.(*SessionResult)
		ordered[sr.Index] = sr
	}
	return ordered
}
