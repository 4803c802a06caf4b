package notifications

import (
	"context"
	"time"

	httpClient "github.com/rebased/rebased-api/internal/client/http"
	"github.com/rebased/rebased-api/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a job state transition worth telling the outside world about.
type Event struct {
	Type       string    `json:"type"` // execution_started | execution_succeeded | execution_failed
	StrategyID uuid.UUID `json:"strategy_id"`
	ChainID    int64     `json:"chain_id"`
	TxHash     string    `json:"tx_hash,omitempty"`
	DriftBps   int32     `json:"drift_bps,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event types emitted by the execution coordinator.
const (
	EventExecutionStarted   = "execution_started"
	EventExecutionSucceeded = "execution_succeeded"
	EventExecutionFailed    = "execution_failed"
)

// Sink receives execution events. Implementations must be fire-and-forget:
// a slow or failing sink never blocks or fails execution.
type Sink interface {
	Notify(ctx context.Context, event Event)
}

// NoopSink discards every event.
type NoopSink struct{}

// Notify implements Sink.
func (NoopSink) Notify(context.Context, Event) {}

// WebhookSink POSTs events to a configured endpoint in the background.
type WebhookSink struct {
	httpClient *httpClient.HTTPClient
	logger     *zap.Logger
}

// NewWebhookSink creates a sink that delivers events to webhookURL.
func NewWebhookSink(webhookURL string) *WebhookSink {
	return &WebhookSink{
		httpClient: httpClient.NewHTTPClient(
			httpClient.WithBaseURL(webhookURL),
			httpClient.WithTimeout(5*time.Second),
		),
		logger: logger.Log,
	}
}

// Notify delivers the event asynchronously. Failures are logged and dropped.
func (s *WebhookSink) Notify(ctx context.Context, event Event) {
	go func() {
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		resp, err := s.httpClient.Post(deliverCtx, "/", event)
		if err != nil {
			s.logger.Warn("Notification delivery failed",
				zap.String("event", event.Type),
				zap.String("strategy_id", event.StrategyID.String()),
				zap.Error(err))
			return
		}
		resp.Body.Close()
	}()
}
