package executor

import "errors"

var (
	// ErrNoActiveDelegation means the strategy has nothing authorizing
	// execution; the job is dropped, not retried.
	ErrNoActiveDelegation = errors.New("strategy has no active delegation")

	// ErrCooldownActive means the strategy executed too recently. The job is
	// dropped; the scanner re-enqueues once the cooldown lapses.
	ErrCooldownActive = errors.New("strategy cooldown has not elapsed")

	// ErrGasTooHigh means the current gas price exceeds the configured
	// ceiling. The job is dropped and retried on a later scan.
	ErrGasTooHigh = errors.New("gas price above configured ceiling")

	// ErrTxReverted means the transaction confirmed but reverted on-chain.
	// Terminal: retrying an identical reverted batch would revert again.
	ErrTxReverted = errors.New("transaction reverted on-chain")

	// ErrNothingToExecute means the fresh pre-trade snapshot no longer
	// produces an actionable plan. The job is finished without a trade.
	ErrNothingToExecute = errors.New("no action required at execution time")
)

// retryable reports whether a failed attempt is worth repeating within the
// same job. Reverts are terminal; transient transport, RPC and stale-quote
// failures are not.
func retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrTxReverted)
}
