package executor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/logger"
)

func init() {
	logger.InitLogger()
}

func testJob(strategyID uuid.UUID) Job {
	return Job{
		StrategyID:  strategyID,
		UserAddress: "0x1111111111111111111111111111111111111111",
		ChainID:     10143,
		DriftBps:    620,
		Priority:    PriorityMedium,
		TriggeredBy: TriggerAuto,
	}
}

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	queue := NewMemoryQueue(8)
	strategyID := uuid.New()

	accepted, err := queue.Enqueue(context.Background(), testJob(strategyID))
	require.NoError(t, err)
	assert.True(t, accepted)

	job, err := queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strategyID, job.StrategyID)
	assert.Equal(t, int32(620), job.DriftBps)
	assert.Equal(t, PriorityMedium, job.Priority)
}

func TestMemoryQueueDeduplicatesPerStrategy(t *testing.T) {
	queue := NewMemoryQueue(8)
	strategyID := uuid.New()
	ctx := context.Background()

	accepted, err := queue.Enqueue(ctx, testJob(strategyID))
	require.NoError(t, err)
	require.True(t, accepted)

	// Same strategy again while the first job is still queued.
	accepted, err = queue.Enqueue(ctx, testJob(strategyID))
	require.NoError(t, err)
	assert.False(t, accepted)

	// The guard holds across dequeue: the job is in flight, not finished.
	job, err := queue.Dequeue(ctx)
	require.NoError(t, err)

	accepted, err = queue.Enqueue(ctx, testJob(strategyID))
	require.NoError(t, err)
	assert.False(t, accepted)

	// Finishing releases the strategy for the next scan cycle.
	require.NoError(t, queue.Finish(ctx, job))

	accepted, err = queue.Enqueue(ctx, testJob(strategyID))
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestMemoryQueueDistinctStrategiesDoNotBlock(t *testing.T) {
	queue := NewMemoryQueue(8)
	ctx := context.Background()

	first, err := queue.Enqueue(ctx, testJob(uuid.New()))
	require.NoError(t, err)
	second, err := queue.Enqueue(ctx, testJob(uuid.New()))
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	queue := NewMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := queue.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueueEnqueueReleasesGuardOnFullBuffer(t *testing.T) {
	queue := NewMemoryQueue(1)
	ctx := context.Background()

	accepted, err := queue.Enqueue(ctx, testJob(uuid.New()))
	require.NoError(t, err)
	require.True(t, accepted)

	// Buffer is full; a second strategy's enqueue blocks until the context
	// expires and must not leave that strategy marked in flight.
	blocked := uuid.New()
	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	accepted, err = queue.Enqueue(shortCtx, testJob(blocked))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, accepted)

	// Drain the buffer, then the previously blocked strategy enqueues cleanly.
	job, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, queue.Finish(ctx, job))

	accepted, err = queue.Enqueue(ctx, testJob(blocked))
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestJobVisibilityOutlastsWorstCaseExecution(t *testing.T) {
	// A message must stay invisible to other consumers for as long as a job
	// can legitimately run: every attempt waiting out the full receipt
	// timeout, plus the backoff between attempts. Otherwise a second worker
	// would re-receive the message mid-job and execute the same strategy
	// concurrently.
	worst := time.Duration(constants.MaxExecutionAttempts) * constants.ReceiptWaitTimeout
	for attempt := 2; attempt <= constants.MaxExecutionAttempts; attempt++ {
		worst += time.Duration(attempt-1) * 2 * time.Second
	}

	assert.Greater(t, jobVisibilityTimeout, worst)
}

func TestPriorityForDrift(t *testing.T) {
	tests := []struct {
		name     string
		driftBps int32
		want     string
	}{
		{name: "severe drift", driftBps: 1400, want: PriorityHigh},
		{name: "high boundary", driftBps: 1000, want: PriorityHigh},
		{name: "medium boundary", driftBps: 500, want: PriorityMedium},
		{name: "mild drift", driftBps: 499, want: PriorityLow},
		{name: "no drift", driftBps: 0, want: PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, priorityForDrift(tt.driftBps))
		})
	}
}
