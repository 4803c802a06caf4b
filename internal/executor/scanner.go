package executor

import (
	"context"
	"sync"
	"time"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/engine"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"

	"go.uber.org/zap"
)

// Scanner runs the periodic evaluation loop: every interval it fans out the
// analyze/evaluate/plan pipeline across active strategies and enqueues a job
// for each one whose plan wants execution. Strategies evaluate independently
// and concurrently; a slow strategy never delays the others.
type Scanner struct {
	queries   db.Querier
	analyzer  *portfolio.Analyzer
	evaluator *engine.ConditionEvaluator
	planner   *engine.Planner
	queue     JobQueue
	interval  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewScanner creates a scanner. A zero interval falls back to the default.
func NewScanner(queries db.Querier, analyzer *portfolio.Analyzer, evaluator *engine.ConditionEvaluator, planner *engine.Planner, queue JobQueue, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = constants.DefaultScanInterval
	}
	return &Scanner{
		queries:   queries,
		analyzer:  analyzer,
		evaluator: evaluator,
		planner:   planner,
		queue:     queue,
		interval:  interval,
		stopCh:    make(chan struct{}),
		logger:    logger.Log,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start() {
	s.logger.Info("Starting strategy scanner", zap.Duration("interval", s.interval))
	s.wg.Add(1)
	go s.run()
}

// Stop shuts the loop down and waits for the in-progress scan to finish.
func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.logger.Info("Strategy scanner stopped")
	})
}

func (s *Scanner) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First scan immediately rather than waiting a full interval.
	s.ScanOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.ScanOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// ScanOnce evaluates every active strategy once. Exported for manual and
// test-driven triggering.
func (s *Scanner) ScanOnce(ctx context.Context) {
	strategies, err := s.queries.ListActiveStrategies(ctx)
	if err != nil {
		s.logger.Error("Failed to list active strategies", zap.Error(err))
		return
	}
	if len(strategies) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, record := range strategies {
		wg.Add(1)
		go func(record db.Strategy) {
			defer wg.Done()
			s.evaluateStrategy(ctx, record)
		}(record)
	}
	wg.Wait()
}

func (s *Scanner) evaluateStrategy(ctx context.Context, record db.Strategy) {
	graph := strategy.Parse(record)
	if graph == nil {
		s.logger.Warn("Skipping strategy with malformed graph",
			zap.String("strategy_id", record.ID.String()))
		return
	}
	if result := graph.Validate(); !result.Valid {
		s.logger.Warn("Skipping invalid strategy",
			zap.String("strategy_id", record.ID.String()),
			zap.Strings("errors", result.Errors))
		return
	}
	if !record.SmartAccountAddress.Valid || record.SmartAccountAddress.String == "" {
		s.logger.Warn("Skipping strategy without an authorizing account",
			zap.String("strategy_id", record.ID.String()))
		return
	}

	// Only strategies with a live delegation are executable; everything else
	// is monitoring-only.
	if _, err := s.queries.GetActiveDelegationForStrategy(ctx, record.ID); err != nil {
		s.logger.Debug("Strategy has no active delegation, skipping",
			zap.String("strategy_id", record.ID.String()))
		return
	}

	owner := record.SmartAccountAddress.String
	snapshot, err := s.analyzer.Analyze(ctx, graph, owner)
	if err != nil {
		s.logger.Error("Portfolio analysis failed",
			zap.String("strategy_id", record.ID.String()),
			zap.Error(err))
		return
	}

	conditionsMet := s.evaluator.Evaluate(graph, snapshot)
	plan := s.planner.Plan(graph, snapshot, conditionsMet)
	if !plan.ShouldExecute {
		s.logger.Debug("No action required",
			zap.String("strategy_id", record.ID.String()),
			zap.Int32("drift_bps", snapshot.DriftBps),
			zap.String("reason", plan.Reason))
		return
	}

	// The strategy's own drift threshold gates pure-rebalance plans; tactical
	// plans fire on conditions alone.
	onlyRebalance := len(plan.Transfers) == 0 && allRebalance(plan)
	if onlyRebalance && record.DriftThresholdBps > 0 && snapshot.DriftBps < record.DriftThresholdBps {
		s.logger.Debug("Drift below strategy threshold",
			zap.String("strategy_id", record.ID.String()),
			zap.Int32("drift_bps", snapshot.DriftBps),
			zap.Int32("threshold_bps", record.DriftThresholdBps))
		return
	}

	job := Job{
		StrategyID:  record.ID,
		UserAddress: record.OwnerAddress,
		ChainID:     record.ChainID,
		DriftBps:    snapshot.DriftBps,
		Priority:    priorityForDrift(snapshot.DriftBps),
		TriggeredBy: TriggerAuto,
	}
	enqueued, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		s.logger.Error("Failed to enqueue job",
			zap.String("strategy_id", record.ID.String()),
			zap.Error(err))
		return
	}
	if !enqueued {
		// Already in flight; the next scan will pick the drift up again.
		return
	}

	s.logger.Info("Execution job enqueued",
		zap.String("strategy_id", record.ID.String()),
		zap.Int32("drift_bps", snapshot.DriftBps),
		zap.String("priority", job.Priority),
		zap.String("reason", plan.Reason))
}

func allRebalance(plan *engine.ExecutionPlan) bool {
	for _, swap := range plan.Swaps {
		if swap.Reason != engine.ReasonRebalance {
			return false
		}
	}
	return true
}

func priorityForDrift(driftBps int32) string {
	switch {
	case driftBps >= 1000:
		return PriorityHigh
	case driftBps >= 500:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
