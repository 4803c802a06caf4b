package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const rebalanceColumns = `id, strategy_id, chain_id, tx_hash, drift_before_bps,
       drift_after_bps, gas_used, gas_price_wei, gas_cost_wei, swaps_executed,
       status, error_message, executed_by, created_at, completed_at`

func scanRebalance(row interface{ Scan(...interface{}) error }) (RebalanceRecord, error) {
	var r RebalanceRecord
	err := row.Scan(
		&r.ID, &r.StrategyID, &r.ChainID, &r.TxHash, &r.DriftBeforeBps,
		&r.DriftAfterBps, &r.GasUsed, &r.GasPriceWei, &r.GasCostWei, &r.SwapsExecuted,
		&r.Status, &r.ErrorMessage, &r.ExecutedBy, &r.CreatedAt, &r.CompletedAt,
	)
	return r, err
}

// CreateRebalanceRecordParams creates the PENDING record at dequeue time.
type CreateRebalanceRecordParams struct {
	ID             uuid.UUID
	StrategyID     uuid.UUID
	ChainID        int64
	DriftBeforeBps int32
	ExecutedBy     string
}

const createRebalanceRecord = `
INSERT INTO rebalance_records (id, strategy_id, chain_id, drift_before_bps,
                               swaps_executed, status, executed_by, created_at)
VALUES ($1, $2, $3, $4, 0, 'PENDING', $5, now())
RETURNING ` + rebalanceColumns

// CreateRebalanceRecord inserts a PENDING execution record.
func (q *Queries) CreateRebalanceRecord(ctx context.Context, arg CreateRebalanceRecordParams) (RebalanceRecord, error) {
	row := q.db.QueryRow(ctx, createRebalanceRecord,
		arg.ID, arg.StrategyID, arg.ChainID, arg.DriftBeforeBps, arg.ExecutedBy,
	)
	return scanRebalance(row)
}

// CompleteRebalanceRecordParams settles a record into a terminal state.
type CompleteRebalanceRecordParams struct {
	ID            uuid.UUID
	Status        string
	TxHash        pgtype.Text
	DriftAfterBps pgtype.Int4
	GasUsed       pgtype.Int8
	GasPriceWei   pgtype.Text
	GasCostWei    pgtype.Text
	SwapsExecuted int32
	ErrorMessage  pgtype.Text
}

const completeRebalanceRecord = `
UPDATE rebalance_records
SET status = $2, tx_hash = $3, drift_after_bps = $4, gas_used = $5,
    gas_price_wei = $6, gas_cost_wei = $7, swaps_executed = $8,
    error_message = $9, completed_at = now()
WHERE id = $1
RETURNING ` + rebalanceColumns

// CompleteRebalanceRecord transitions a PENDING record to its terminal state
// with gas actuals and post-trade drift.
func (q *Queries) CompleteRebalanceRecord(ctx context.Context, arg CompleteRebalanceRecordParams) (RebalanceRecord, error) {
	row := q.db.QueryRow(ctx, completeRebalanceRecord,
		arg.ID, arg.Status, arg.TxHash, arg.DriftAfterBps, arg.GasUsed,
		arg.GasPriceWei, arg.GasCostWei, arg.SwapsExecuted, arg.ErrorMessage,
	)
	return scanRebalance(row)
}

const getLatestSuccessfulRebalance = `
SELECT ` + rebalanceColumns + `
FROM rebalance_records
WHERE strategy_id = $1 AND status = 'SUCCESS'
ORDER BY completed_at DESC
LIMIT 1
`

// GetLatestSuccessfulRebalance returns the most recent SUCCESS record for a
// strategy, used for the cooldown gate.
func (q *Queries) GetLatestSuccessfulRebalance(ctx context.Context, strategyID uuid.UUID) (RebalanceRecord, error) {
	return scanRebalance(q.db.QueryRow(ctx, getLatestSuccessfulRebalance, strategyID))
}
