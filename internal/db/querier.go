package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the store access interface consumed by services. Mocked in unit
// tests via internal/mocks.
type Querier interface {
	// Users
	GetUserByAddress(ctx context.Context, walletAddress string) (User, error)
	UpsertUserByAddress(ctx context.Context, walletAddress string) (User, error)

	// Strategies
	GetStrategy(ctx context.Context, id uuid.UUID) (Strategy, error)
	ListActiveStrategies(ctx context.Context) ([]Strategy, error)

	// Delegations
	CreateDelegation(ctx context.Context, arg CreateDelegationParams) (Delegation, error)
	GetDelegation(ctx context.Context, id uuid.UUID) (Delegation, error)
	ListDelegationsByDelegator(ctx context.Context, delegator string) ([]Delegation, error)
	GetActiveDelegationForStrategy(ctx context.Context, strategyID uuid.UUID) (Delegation, error)
	LinkDelegationToStrategy(ctx context.Context, arg LinkDelegationToStrategyParams) (Delegation, error)
	DeactivateStrategyDelegations(ctx context.Context, strategyID uuid.UUID) error
	RevokeDelegation(ctx context.Context, id uuid.UUID) (Delegation, error)

	// Rebalance records
	CreateRebalanceRecord(ctx context.Context, arg CreateRebalanceRecordParams) (RebalanceRecord, error)
	CompleteRebalanceRecord(ctx context.Context, arg CompleteRebalanceRecordParams) (RebalanceRecord, error)
	GetLatestSuccessfulRebalance(ctx context.Context, strategyID uuid.UUID) (RebalanceRecord, error)
}

var _ Querier = (*Queries)(nil)
