package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/rebased/rebased-api/internal/chain"
	"github.com/rebased/rebased-api/internal/client/aggregator"
	"github.com/rebased/rebased-api/internal/client/relay"
	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/engine"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/notifications"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"
)

// erc20TransferSelector is the first four bytes of keccak256("transfer(address,uint256)").
var erc20TransferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// Quoter fetches swap routes. Satisfied by *aggregator.Client.
type Quoter interface {
	GetQuote(ctx context.Context, req aggregator.QuoteRequest) (*aggregator.Quote, error)
}

// Redeemer submits delegated executions. Satisfied by *relay.Client.
type Redeemer interface {
	Redeem(ctx context.Context, req relay.RedeemRequest) (string, error)
}

// ChainClient is the chain surface the coordinator needs beyond reads.
type ChainClient interface {
	chain.Reader
	WaitForReceipt(ctx context.Context, chainID int64, txHash string) (*chain.Receipt, error)
}

// CoordinatorConfig tunes the execution worker pool.
type CoordinatorConfig struct {
	Workers         int
	MaxGasPriceWei  *big.Int // nil disables the gas ceiling
	UsePrivateRelay bool
	ExecutorLabel   string // recorded as executed_by on rebalance records
}

// Coordinator drains the job queue and carries each job through quoting,
// delegated submission and settlement. Retries stay inside a single job;
// terminal outcomes land in rebalance_records.
type Coordinator struct {
	queries    db.Querier
	analyzer   *portfolio.Analyzer
	evaluator  *engine.ConditionEvaluator
	planner    *engine.Planner
	aggregator Quoter
	relay      Redeemer
	chain      ChainClient
	queue      JobQueue
	sink       notifications.Sink
	config     CoordinatorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewCoordinator wires an execution coordinator. A nil sink is replaced with
// a no-op one.
func NewCoordinator(
	queries db.Querier,
	analyzer *portfolio.Analyzer,
	evaluator *engine.ConditionEvaluator,
	planner *engine.Planner,
	quoter Quoter,
	redeemer Redeemer,
	chainClient ChainClient,
	queue JobQueue,
	sink notifications.Sink,
	config CoordinatorConfig,
) *Coordinator {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.ExecutorLabel == "" {
		config.ExecutorLabel = "rebased-executor"
	}
	if sink == nil {
		sink = notifications.NoopSink{}
	}
	return &Coordinator{
		queries:    queries,
		analyzer:   analyzer,
		evaluator:  evaluator,
		planner:    planner,
		aggregator: quoter,
		relay:      redeemer,
		chain:      chainClient,
		queue:      queue,
		sink:       sink,
		config:     config,
		logger:     logger.Log,
	}
}

// Start spawns the worker pool.
func (c *Coordinator) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.logger.Info("Starting execution coordinator", zap.Int("workers", c.config.Workers))
	for i := 0; i < c.config.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}
}

// Stop cancels the workers and waits for in-flight jobs to settle.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("Execution coordinator stopped")
}

func (c *Coordinator) worker(ctx context.Context, id int) {
	defer c.wg.Done()

	for {
		job, err := c.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Dequeue failed", zap.Int("worker", id), zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		c.processJob(ctx, *job)

		if err := c.queue.Finish(ctx, job); err != nil {
			c.logger.Error("Failed to finish job",
				zap.String("strategy_id", job.StrategyID.String()),
				zap.Error(err))
		}
	}
}

// processJob carries one job to a terminal outcome. Everything that can be
// skipped cheaply is checked before any state is written.
func (c *Coordinator) processJob(ctx context.Context, job Job) {
	log := c.logger.With(
		zap.String("strategy_id", job.StrategyID.String()),
		zap.Int64("chain_id", job.ChainID))

	record, err := c.queries.GetStrategy(ctx, job.StrategyID)
	if err != nil {
		log.Warn("Strategy disappeared between enqueue and execution", zap.Error(err))
		return
	}
	if !record.IsActive {
		log.Info("Strategy deactivated, dropping job")
		return
	}

	graph := strategy.Parse(record)
	if graph == nil || !graph.Validate().Valid {
		log.Warn("Strategy graph no longer valid, dropping job")
		return
	}

	delegation, err := c.queries.GetActiveDelegationForStrategy(ctx, record.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Info("Dropping job", zap.Error(ErrNoActiveDelegation))
		} else {
			log.Error("Failed to load delegation", zap.Error(err))
		}
		return
	}

	if err := c.checkCooldown(ctx, record); err != nil {
		log.Info("Skipping execution", zap.String("reason", err.Error()))
		return
	}
	if err := c.checkGasCeiling(ctx, record.ChainID); err != nil {
		log.Info("Skipping execution", zap.String("reason", err.Error()))
		return
	}

	// Re-derive the plan from a fresh snapshot: the state that triggered the
	// job may have drifted back, or worsened, since the scan.
	owner := record.SmartAccountAddress.String
	snapshot, err := c.analyzer.Analyze(ctx, graph, owner)
	if err != nil {
		log.Error("Pre-trade analysis failed", zap.Error(err))
		return
	}
	conditionsMet := c.evaluator.Evaluate(graph, snapshot)
	plan := c.planner.Plan(graph, snapshot, conditionsMet)
	if !plan.ShouldExecute {
		log.Info("Plan empty at execution time, dropping job",
			zap.String("reason", plan.Reason))
		return
	}

	pending, err := c.queries.CreateRebalanceRecord(ctx, db.CreateRebalanceRecordParams{
		ID:             uuid.New(),
		StrategyID:     record.ID,
		ChainID:        record.ChainID,
		DriftBeforeBps: snapshot.DriftBps,
		ExecutedBy:     c.config.ExecutorLabel,
	})
	if err != nil {
		log.Error("Failed to create rebalance record", zap.Error(err))
		return
	}

	c.sink.Notify(ctx, notifications.Event{
		Type:       notifications.EventExecutionStarted,
		StrategyID: record.ID,
		ChainID:    record.ChainID,
		DriftBps:   snapshot.DriftBps,
		OccurredAt: time.Now().UTC(),
	})

	receipt, execErr := c.executeWithRetry(ctx, log, record, delegation, graph, plan, owner)
	if execErr != nil {
		c.settleFailure(ctx, log, pending.ID, record, plan, execErr)
		return
	}
	c.settleSuccess(ctx, log, pending.ID, record, graph, plan, owner, receipt)
}

// checkCooldown enforces the per-strategy minimum interval between successful
// executions. The strategy's own interval applies when it is longer than the
// global floor.
func (c *Coordinator) checkCooldown(ctx context.Context, record db.Strategy) error {
	last, err := c.queries.GetLatestSuccessfulRebalance(ctx, record.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load last rebalance: %w", err)
	}
	if !last.CompletedAt.Valid {
		return nil
	}

	cooldown := constants.MinRebalanceInterval
	if interval := time.Duration(record.RebalanceIntervalSeconds) * time.Second; interval > cooldown {
		cooldown = interval
	}
	if since := time.Since(last.CompletedAt.Time); since < cooldown {
		return fmt.Errorf("%w: %s of %s elapsed", ErrCooldownActive, since.Round(time.Second), cooldown)
	}
	return nil
}

func (c *Coordinator) checkGasCeiling(ctx context.Context, chainID int64) error {
	if c.config.MaxGasPriceWei == nil || c.config.MaxGasPriceWei.Sign() == 0 {
		return nil
	}
	gasPrice, err := c.chain.SuggestGasPrice(ctx, chainID)
	if err != nil {
		return fmt.Errorf("failed to read gas price: %w", err)
	}
	if gasPrice.Cmp(c.config.MaxGasPriceWei) > 0 {
		return fmt.Errorf("%w: %s > %s wei", ErrGasTooHigh, gasPrice, c.config.MaxGasPriceWei)
	}
	return nil
}

// executeWithRetry runs the quote-redeem-confirm sequence up to the attempt
// cap. Each attempt re-quotes so a retry never replays a stale route.
func (c *Coordinator) executeWithRetry(
	ctx context.Context,
	log *zap.Logger,
	record db.Strategy,
	delegation db.Delegation,
	graph *strategy.Graph,
	plan *engine.ExecutionPlan,
	owner string,
) (*chain.Receipt, error) {
	var lastErr error
	for attempt := 1; attempt <= constants.MaxExecutionAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		receipt, err := c.executeOnce(ctx, record, delegation, graph, plan, owner)
		if err == nil {
			return receipt, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		log.Warn("Execution attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", constants.MaxExecutionAttempts),
			zap.Error(err))
	}
	return nil, fmt.Errorf("all %d execution attempts failed: %w", constants.MaxExecutionAttempts, lastErr)
}

func (c *Coordinator) executeOnce(
	ctx context.Context,
	record db.Strategy,
	delegation db.Delegation,
	graph *strategy.Graph,
	plan *engine.ExecutionPlan,
	owner string,
) (*chain.Receipt, error) {
	calls, err := c.buildCalls(ctx, record.ChainID, plan, owner)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, ErrNothingToExecute
	}

	delegationWire, err := marshalDelegation(delegation)
	if err != nil {
		return nil, err
	}

	txHash, err := c.relay.Redeem(ctx, relay.RedeemRequest{
		ChainID:    record.ChainID,
		Delegation: delegationWire,
		Calls:      calls,
		UsePrivate: c.config.UsePrivateRelay,
	})
	if err != nil {
		return nil, err
	}

	receipt, err := c.chain.WaitForReceipt(ctx, record.ChainID, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Reverted {
		return nil, fmt.Errorf("%w: tx %s", ErrTxReverted, txHash)
	}
	return receipt, nil
}

// buildCalls turns the plan into relay calls: one quoted aggregator call per
// swap, one transfer call per planned transfer.
func (c *Coordinator) buildCalls(ctx context.Context, chainID int64, plan *engine.ExecutionPlan, owner string) ([]relay.Call, error) {
	calls := make([]relay.Call, 0, len(plan.Swaps)+len(plan.Transfers))

	for _, swap := range plan.Swaps {
		quote, err := c.aggregator.GetQuote(ctx, aggregator.QuoteRequest{
			ChainID:   chainID,
			FromToken: swap.FromToken,
			ToToken:   swap.ToToken,
			Amount:    swap.FromAmount,
			Taker:     owner,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to quote %s -> %s: %w", swap.FromToken, swap.ToToken, err)
		}
		if quote.Expired() {
			return nil, aggregator.ErrQuoteStale
		}
		calls = append(calls, relay.Call{
			Target:   quote.Target,
			Value:    "0",
			CallData: quote.CallData,
		})
	}

	for _, transfer := range plan.Transfers {
		calls = append(calls, buildTransferCall(transfer))
	}
	return calls, nil
}

// buildTransferCall packs a transfer into a relay call: a bare value send
// for the native token, a hand-packed transfer(address,uint256) otherwise.
func buildTransferCall(transfer engine.PlannedTransfer) relay.Call {
	if constants.IsNativeToken(transfer.Token) {
		return relay.Call{
			Target:   transfer.To,
			Value:    transfer.Amount.String(),
			CallData: "0x",
		}
	}

	data := make([]byte, 0, 4+64)
	data = append(data, erc20TransferSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(transfer.To).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(transfer.Amount.Bytes(), 32)...)

	return relay.Call{
		Target:   transfer.Token,
		Value:    "0",
		CallData: "0x" + common.Bytes2Hex(data),
	}
}

// delegationWire is the signed delegation as the relay expects it.
type delegationWire struct {
	Delegate  string          `json:"delegate"`
	Delegator string          `json:"delegator"`
	Authority string          `json:"authority"`
	Caveats   json.RawMessage `json:"caveats"`
	Salt      string          `json:"salt"`
	Signature string          `json:"signature"`
}

func marshalDelegation(delegation db.Delegation) (json.RawMessage, error) {
	caveats := delegation.Caveats
	if len(caveats) == 0 {
		caveats = json.RawMessage("[]")
	}
	out, err := json.Marshal(delegationWire{
		Delegate:  delegation.Delegate,
		Delegator: delegation.Delegator,
		Authority: delegation.Authority,
		Caveats:   caveats,
		Salt:      delegation.Salt,
		Signature: delegation.Signature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal delegation: %w", err)
	}
	return out, nil
}

func (c *Coordinator) settleSuccess(
	ctx context.Context,
	log *zap.Logger,
	recordID uuid.UUID,
	record db.Strategy,
	graph *strategy.Graph,
	plan *engine.ExecutionPlan,
	owner string,
	receipt *chain.Receipt,
) {
	driftAfter := pgtype.Int4{}
	if after, err := c.analyzer.Analyze(ctx, graph, owner); err == nil {
		driftAfter = pgtype.Int4{Int32: after.DriftBps, Valid: true}
	} else {
		log.Warn("Post-trade analysis failed, drift_after left unset", zap.Error(err))
	}

	params := db.CompleteRebalanceRecordParams{
		ID:            recordID,
		Status:        db.RebalanceStatusSuccess,
		TxHash:        pgtype.Text{String: receipt.TxHash, Valid: true},
		DriftAfterBps: driftAfter,
		GasUsed:       pgtype.Int8{Int64: int64(receipt.GasUsed), Valid: true},
		SwapsExecuted: int32(len(plan.Swaps)),
	}
	if receipt.GasPriceWei != nil {
		params.GasPriceWei = pgtype.Text{String: receipt.GasPriceWei.String(), Valid: true}
	}
	if receipt.GasCostWei != nil {
		params.GasCostWei = pgtype.Text{String: receipt.GasCostWei.String(), Valid: true}
	}
	if _, err := c.queries.CompleteRebalanceRecord(ctx, params); err != nil {
		log.Error("Failed to settle rebalance record", zap.Error(err))
	}

	log.Info("Execution succeeded",
		zap.String("tx_hash", receipt.TxHash),
		zap.Uint64("gas_used", receipt.GasUsed),
		zap.Int("swaps", len(plan.Swaps)),
		zap.Int("transfers", len(plan.Transfers)))

	c.sink.Notify(ctx, notifications.Event{
		Type:       notifications.EventExecutionSucceeded,
		StrategyID: record.ID,
		ChainID:    record.ChainID,
		TxHash:     receipt.TxHash,
		DriftBps:   driftAfter.Int32,
		OccurredAt: time.Now().UTC(),
	})
}

func (c *Coordinator) settleFailure(
	ctx context.Context,
	log *zap.Logger,
	recordID uuid.UUID,
	record db.Strategy,
	plan *engine.ExecutionPlan,
	execErr error,
) {
	status := db.RebalanceStatusFailed
	if errors.Is(execErr, ErrTxReverted) {
		status = db.RebalanceStatusReverted
	}

	if _, err := c.queries.CompleteRebalanceRecord(ctx, db.CompleteRebalanceRecordParams{
		ID:           recordID,
		Status:       status,
		ErrorMessage: pgtype.Text{String: execErr.Error(), Valid: true},
	}); err != nil {
		log.Error("Failed to settle rebalance record", zap.Error(err))
	}

	log.Error("Execution failed",
		zap.String("status", status),
		zap.Int("planned_swaps", len(plan.Swaps)),
		zap.Error(execErr))

	c.sink.Notify(ctx, notifications.Event{
		Type:       notifications.EventExecutionFailed,
		StrategyID: record.ID,
		ChainID:    record.ChainID,
		Error:      execErr.Error(),
		OccurredAt: time.Now().UTC(),
	})
}
