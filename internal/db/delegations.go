package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const delegationColumns = `id, user_id, chain_id, delegator, delegate, authority,
       caveats, salt, signature, strategy_id, is_active, created_at, updated_at`

func scanDelegation(row interface{ Scan(...interface{}) error }) (Delegation, error) {
	var d Delegation
	err := row.Scan(
		&d.ID, &d.UserID, &d.ChainID, &d.Delegator, &d.Delegate, &d.Authority,
		&d.Caveats, &d.Salt, &d.Signature, &d.StrategyID, &d.IsActive,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// CreateDelegationParams holds the verified payload to persist.
type CreateDelegationParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ChainID    int64
	Delegator  string
	Delegate   string
	Authority  string
	Caveats    json.RawMessage
	Salt       string
	Signature  string
	StrategyID pgtype.UUID
}

const createDelegation = `
INSERT INTO delegations (id, user_id, chain_id, delegator, delegate, authority,
                         caveats, salt, signature, strategy_id, is_active,
                         created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, now(), now())
RETURNING ` + delegationColumns

// CreateDelegation persists a verified delegation as active.
func (q *Queries) CreateDelegation(ctx context.Context, arg CreateDelegationParams) (Delegation, error) {
	row := q.db.QueryRow(ctx, createDelegation,
		arg.ID, arg.UserID, arg.ChainID, arg.Delegator, arg.Delegate, arg.Authority,
		arg.Caveats, arg.Salt, arg.Signature, arg.StrategyID,
	)
	return scanDelegation(row)
}

const getDelegation = `
SELECT ` + delegationColumns + `
FROM delegations
WHERE id = $1
`

// GetDelegation fetches a delegation by id.
func (q *Queries) GetDelegation(ctx context.Context, id uuid.UUID) (Delegation, error) {
	return scanDelegation(q.db.QueryRow(ctx, getDelegation, id))
}

const listDelegationsByDelegator = `
SELECT ` + delegationColumns + `
FROM delegations
WHERE lower(delegator) = lower($1)
ORDER BY created_at DESC
`

// ListDelegationsByDelegator returns all delegations authorized by an account.
func (q *Queries) ListDelegationsByDelegator(ctx context.Context, delegator string) ([]Delegation, error) {
	rows, err := q.db.Query(ctx, listDelegationsByDelegator, delegator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const getActiveDelegationForStrategy = `
SELECT ` + delegationColumns + `
FROM delegations
WHERE strategy_id = $1 AND is_active = true
ORDER BY updated_at DESC
LIMIT 1
`

// GetActiveDelegationForStrategy returns the single active delegation linked
// to a strategy.
func (q *Queries) GetActiveDelegationForStrategy(ctx context.Context, strategyID uuid.UUID) (Delegation, error) {
	return scanDelegation(q.db.QueryRow(ctx, getActiveDelegationForStrategy, strategyID))
}

// LinkDelegationToStrategyParams links a delegation to a strategy.
type LinkDelegationToStrategyParams struct {
	ID         uuid.UUID
	StrategyID uuid.UUID
}

const linkDelegationToStrategy = `
UPDATE delegations
SET strategy_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + delegationColumns

// LinkDelegationToStrategy attaches a delegation to a strategy. Callers must
// first deactivate any previously linked delegation so at most one stays
// active per strategy.
func (q *Queries) LinkDelegationToStrategy(ctx context.Context, arg LinkDelegationToStrategyParams) (Delegation, error) {
	return scanDelegation(q.db.QueryRow(ctx, linkDelegationToStrategy, arg.ID, arg.StrategyID))
}

const deactivateStrategyDelegations = `
UPDATE delegations
SET is_active = false, updated_at = now()
WHERE strategy_id = $1 AND is_active = true
`

// DeactivateStrategyDelegations soft-revokes every active delegation linked to
// the strategy.
func (q *Queries) DeactivateStrategyDelegations(ctx context.Context, strategyID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deactivateStrategyDelegations, strategyID)
	return err
}

const revokeDelegation = `
UPDATE delegations
SET is_active = false, updated_at = now()
WHERE id = $1
RETURNING ` + delegationColumns

// RevokeDelegation flips the active flag. On-chain withdrawal is the caller's
// own wallet action; this record merely stops being considered.
func (q *Queries) RevokeDelegation(ctx context.Context, id uuid.UUID) (Delegation, error) {
	return scanDelegation(q.db.QueryRow(ctx, revokeDelegation, id))
}
