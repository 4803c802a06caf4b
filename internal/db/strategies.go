package db

import (
	"context"

	"github.com/google/uuid"
)

const getStrategy = `
SELECT id, user_id, name, chain_id, owner_address, smart_account_address,
       blocks, connections, is_active, rebalance_interval_seconds,
       drift_threshold_bps, created_at, updated_at
FROM strategies
WHERE id = $1
`

// GetStrategy fetches a strategy by id.
func (q *Queries) GetStrategy(ctx context.Context, id uuid.UUID) (Strategy, error) {
	row := q.db.QueryRow(ctx, getStrategy, id)
	var s Strategy
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.ChainID, &s.OwnerAddress, &s.SmartAccountAddress,
		&s.Blocks, &s.Connections, &s.IsActive, &s.RebalanceIntervalSeconds,
		&s.DriftThresholdBps, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const listActiveStrategies = `
SELECT id, user_id, name, chain_id, owner_address, smart_account_address,
       blocks, connections, is_active, rebalance_interval_seconds,
       drift_threshold_bps, created_at, updated_at
FROM strategies
WHERE is_active = true
ORDER BY created_at
`

// ListActiveStrategies returns every strategy eligible for scanning.
func (q *Queries) ListActiveStrategies(ctx context.Context) ([]Strategy, error) {
	rows, err := q.db.Query(ctx, listActiveStrategies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Strategy
	for rows.Next() {
		var s Strategy
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.ChainID, &s.OwnerAddress, &s.SmartAccountAddress,
			&s.Blocks, &s.Connections, &s.IsActive, &s.RebalanceIntervalSeconds,
			&s.DriftThresholdBps, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
