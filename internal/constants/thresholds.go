package constants

import "time"

// Planner and scanner tuning values. These are protocol-level constants, not
// per-deployment configuration.
const (
	// WeightSumTolerance is the allowed deviation from 100 when validating
	// the sum of asset target weights, in percentage points.
	WeightSumTolerance = 0.1

	// DustThresholdUSD is the smallest per-asset rebalance delta worth acting
	// on. Deltas at or below this are ignored for the cycle.
	DustThresholdUSD = 1.0

	// MinRebalanceInterval is the smallest interval a rebalance action block
	// may declare.
	MinRebalanceInterval = time.Minute

	// DefaultScanInterval is how often the executor scans active strategies.
	DefaultScanInterval = 30 * time.Second

	// MaxPriceAge is the advisory freshness bound for off-chain prices.
	// Older quotes are still used but logged.
	MaxPriceAge = 60 * time.Second

	// MaxConfidenceRatio is the advisory bound on a price's confidence
	// interval relative to the price itself.
	MaxConfidenceRatio = 0.01

	// Coarse per-operation gas estimates for the planner's upfront
	// profitability gate. Never submitted on-chain.
	GasPerSwap     = uint64(250_000)
	GasPerTransfer = uint64(65_000)

	// MaxExecutionAttempts bounds retries of transient execution failures.
	MaxExecutionAttempts = 3

	// ReceiptWaitTimeout is how long a single execution attempt waits for a
	// transaction receipt before giving up.
	ReceiptWaitTimeout = 3 * time.Minute
)
