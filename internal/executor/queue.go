package executor

import (
	"context"
	"sync"

	"github.com/rebased/rebased-api/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job priorities and trigger sources.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TriggerAuto  = "auto"
	TriggerUser  = "user"
	TriggerAdmin = "admin"
)

// Job is the queue message produced by the scanner and consumed by workers.
type Job struct {
	StrategyID  uuid.UUID `json:"strategyId"`
	UserAddress string    `json:"userAddress"`
	ChainID     int64     `json:"chainId"`
	DriftBps    int32     `json:"drift"`
	Priority    string    `json:"priority,omitempty"`
	TriggeredBy string    `json:"triggeredBy,omitempty"`

	// receiptHandle is backend bookkeeping (e.g. the SQS receipt), never
	// part of the wire message.
	receiptHandle string
}

// JobQueue is the persistent, retry-capable queue between scanning and
// execution. Implementations guarantee at most one concurrently active job
// per strategy key: enqueueing a strategy that is queued or in flight is a
// no-op, which is the system's only mutual-exclusion discipline.
type JobQueue interface {
	// Enqueue adds a job unless its strategy is already queued or active.
	// Returns false when the job was deduplicated.
	Enqueue(ctx context.Context, job Job) (bool, error)
	// Dequeue blocks until a job is available or ctx is done. The job's
	// strategy stays marked in flight until Finish.
	Dequeue(ctx context.Context) (*Job, error)
	// Finish releases the per-strategy in-flight guard.
	Finish(ctx context.Context, job *Job) error
}

// MemoryQueue is a channel-backed JobQueue for tests and single-process
// deployments.
type MemoryQueue struct {
	jobs chan Job

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool

	logger *zap.Logger
}

var _ JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an in-memory queue with the given buffer size.
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	return &MemoryQueue{
		jobs:     make(chan Job, bufferSize),
		inFlight: make(map[uuid.UUID]bool),
		logger:   logger.Log,
	}
}

// Enqueue implements JobQueue.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) (bool, error) {
	q.mu.Lock()
	if q.inFlight[job.StrategyID] {
		q.mu.Unlock()
		q.logger.Debug("Strategy already queued or in flight, skipping enqueue",
			zap.String("strategy_id", job.StrategyID.String()))
		return false, nil
	}
	q.inFlight[job.StrategyID] = true
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return true, nil
	case <-ctx.Done():
		q.release(job.StrategyID)
		return false, ctx.Err()
	}
}

// Dequeue implements JobQueue.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Finish implements JobQueue.
func (q *MemoryQueue) Finish(_ context.Context, job *Job) error {
	q.release(job.StrategyID)
	return nil
}

func (q *MemoryQueue) release(strategyID uuid.UUID) {
	q.mu.Lock()
	delete(q.inFlight, strategyID)
	q.mu.Unlock()
}
