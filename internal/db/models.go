package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Rebalance record statuses.
const (
	RebalanceStatusPending  = "PENDING"
	RebalanceStatusSuccess  = "SUCCESS"
	RebalanceStatusFailed   = "FAILED"
	RebalanceStatusReverted = "REVERTED"
)

// User is the owning account for strategies and delegations, keyed by wallet
// address.
type User struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Strategy is a stored block/connection graph plus execution settings.
// Blocks and Connections are opaque JSON here; internal/strategy parses them.
type Strategy struct {
	ID                       uuid.UUID       `json:"id"`
	UserID                   uuid.UUID       `json:"user_id"`
	Name                     string          `json:"name"`
	ChainID                  int64           `json:"chain_id"`
	OwnerAddress             string          `json:"owner_address"`         // EOA that signs delegations
	SmartAccountAddress      pgtype.Text     `json:"smart_account_address"` // authorizing account holding the assets
	Blocks                   json.RawMessage `json:"blocks"`
	Connections              json.RawMessage `json:"connections"`
	IsActive                 bool            `json:"is_active"`
	RebalanceIntervalSeconds int64           `json:"rebalance_interval_seconds"`
	DriftThresholdBps        int32           `json:"drift_threshold_bps"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// Delegation is a persisted signed capability grant.
type Delegation struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	ChainID    int64           `json:"chain_id"`
	Delegator  string          `json:"delegator"`
	Delegate   string          `json:"delegate"`
	Authority  string          `json:"authority"` // bytes32 hex; all-Fs = root grant
	Caveats    json.RawMessage `json:"caveats"`
	Salt       string          `json:"salt"` // uint256 as decimal or 0x-hex string
	Signature  string          `json:"signature"`
	StrategyID pgtype.UUID     `json:"strategy_id"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// RebalanceRecord is the persisted outcome of one execution attempt.
type RebalanceRecord struct {
	ID             uuid.UUID          `json:"id"`
	StrategyID     uuid.UUID          `json:"strategy_id"`
	ChainID        int64              `json:"chain_id"`
	TxHash         pgtype.Text        `json:"tx_hash"`
	DriftBeforeBps int32              `json:"drift_before_bps"`
	DriftAfterBps  pgtype.Int4        `json:"drift_after_bps"`
	GasUsed        pgtype.Int8        `json:"gas_used"`
	GasPriceWei    pgtype.Text        `json:"gas_price_wei"`
	GasCostWei     pgtype.Text        `json:"gas_cost_wei"`
	SwapsExecuted  int32              `json:"swaps_executed"`
	Status         string             `json:"status"`
	ErrorMessage   pgtype.Text        `json:"error_message"`
	ExecutedBy     string             `json:"executed_by"`
	CreatedAt      time.Time          `json:"created_at"`
	CompletedAt    pgtype.Timestamptz `json:"completed_at"`
}
