package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rebased/rebased-api/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

// jobVisibilityTimeout hides a received message from other consumers for
// longer than the worst-case job: every execution attempt can wait the full
// receipt timeout, plus inter-attempt backoff. Without this the queue's
// default 30s window lapses mid-job and a second worker would pick up the
// same strategy while the first is still executing it.
const jobVisibilityTimeout = 15 * time.Minute

// SQSQueue is the JobQueue backend for multi-process deployments. It uses a
// FIFO queue with the strategy id as both message group and deduplication
// id: grouping serializes jobs per strategy across workers, deduplication
// collapses repeat enqueues while a matching message is still pending.
type SQSQueue struct {
	client   *sqs.Client
	queueURL string
	logger   *zap.Logger
}

var _ JobQueue = (*SQSQueue)(nil)

// NewSQSQueue creates a queue over the given FIFO queue URL.
func NewSQSQueue(ctx context.Context, queueURL string) (*SQSQueue, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("SQS queue URL is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SQSQueue{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		logger:   logger.Log,
	}, nil
}

// Enqueue implements JobQueue.
func (q *SQSQueue) Enqueue(ctx context.Context, job Job) (bool, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(job.StrategyID.String()),
		MessageDeduplicationId: aws.String(job.StrategyID.String()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"priority": {
				DataType:    aws.String("String"),
				StringValue: aws.String(job.Priority),
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.Debug("Job enqueued",
		zap.String("strategy_id", job.StrategyID.String()),
		zap.String("priority", job.Priority))
	return true, nil
}

// Dequeue implements JobQueue. Long-polls for a single message.
func (q *SQSQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.queueURL),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(jobVisibilityTimeout.Seconds()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to receive message: %w", err)
		}
		if len(out.Messages) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				continue
			}
		}

		msg := out.Messages[0]
		var job Job
		if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &job); err != nil {
			// Poison message: drop it rather than wedging the group.
			q.logger.Error("Dropping malformed job message", zap.Error(err))
			_, _ = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(q.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			})
			continue
		}
		job.receiptHandle = aws.ToString(msg.ReceiptHandle)
		return &job, nil
	}
}

// Finish implements JobQueue by deleting the message, which also releases
// the FIFO group for the next job of the same strategy.
func (q *SQSQueue) Finish(ctx context.Context, job *Job) error {
	if job.receiptHandle == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(job.receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
