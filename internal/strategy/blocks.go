package strategy

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates the closed set of graph block kinds.
type BlockType string

const (
	BlockTypeAsset     BlockType = "asset"
	BlockTypeCondition BlockType = "condition"
	BlockTypeAction    BlockType = "action"
)

// ConditionType selects what value a condition block compares.
type ConditionType string

const (
	ConditionPrice          ConditionType = "price"
	ConditionPortfolioValue ConditionType = "portfolioValue"
	ConditionAssetValue     ConditionType = "assetValue"
)

// Operator is the comparison a condition applies.
type Operator string

const (
	OperatorGT Operator = "GT"
	OperatorLT Operator = "LT"
)

// ActionType selects what an action block does.
type ActionType string

const (
	ActionRebalance ActionType = "rebalance"
	ActionSwap      ActionType = "swap"
	ActionTransfer  ActionType = "transfer"
)

// AssetBlock declares a portfolio constituent and its target weight.
type AssetBlock struct {
	Symbol              string  `json:"symbol"`
	Address             string  `json:"address"`
	Decimals            int32   `json:"decimals"`
	TargetWeightPercent float64 `json:"targetWeightPercent"`
}

// ConditionBlock declares a threshold comparison gating tactical actions.
type ConditionBlock struct {
	ConditionType ConditionType `json:"conditionType"`
	Operator      Operator      `json:"operator"`
	ThresholdUSD  float64       `json:"thresholdUSD"`
}

// ActionBlock declares what to do when the strategy fires. Rebalance actions
// carry interval/drift settings; swap and transfer actions carry their own
// parameters.
type ActionBlock struct {
	ActionType ActionType `json:"actionType"`

	// rebalance
	IntervalSeconds   int64 `json:"intervalSeconds,omitempty"`
	DriftThresholdBps int32 `json:"driftThresholdBps,omitempty"`

	// swap
	FromToken  string  `json:"fromToken,omitempty"`
	ToToken    string  `json:"toToken,omitempty"`
	SwapAmount float64 `json:"swapAmount,omitempty"` // token units of FromToken

	// transfer
	Token          string  `json:"token,omitempty"`
	To             string  `json:"to,omitempty"`
	TransferAmount float64 `json:"transferAmount,omitempty"` // token units
}

// Block is a tagged union over {Asset, Condition, Action}. Exactly one of the
// payload pointers is non-nil, matching Type.
type Block struct {
	ID   string
	Type BlockType

	Asset     *AssetBlock
	Condition *ConditionBlock
	Action    *ActionBlock
}

// blockEnvelope is the stored wire form: a type tag plus a payload object.
type blockEnvelope struct {
	ID   string          `json:"id"`
	Type BlockType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the stored envelope into the typed union.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var env blockEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if env.ID == "" {
		return fmt.Errorf("block missing id")
	}

	b.ID = env.ID
	b.Type = env.Type

	switch env.Type {
	case BlockTypeAsset:
		var asset AssetBlock
		if err := json.Unmarshal(env.Data, &asset); err != nil {
			return fmt.Errorf("block %s: invalid asset payload: %w", env.ID, err)
		}
		b.Asset = &asset
	case BlockTypeCondition:
		var cond ConditionBlock
		if err := json.Unmarshal(env.Data, &cond); err != nil {
			return fmt.Errorf("block %s: invalid condition payload: %w", env.ID, err)
		}
		b.Condition = &cond
	case BlockTypeAction:
		var action ActionBlock
		if err := json.Unmarshal(env.Data, &action); err != nil {
			return fmt.Errorf("block %s: invalid action payload: %w", env.ID, err)
		}
		b.Action = &action
	default:
		return fmt.Errorf("block %s: unknown type %q", env.ID, env.Type)
	}
	return nil
}

// MarshalJSON re-encodes the union into the stored envelope form.
func (b Block) MarshalJSON() ([]byte, error) {
	var data interface{}
	switch b.Type {
	case BlockTypeAsset:
		data = b.Asset
	case BlockTypeCondition:
		data = b.Condition
	case BlockTypeAction:
		data = b.Action
	default:
		return nil, fmt.Errorf("block %s: unknown type %q", b.ID, b.Type)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockEnvelope{ID: b.ID, Type: b.Type, Data: payload})
}

// Connection is a directed edge between blocks, by block id. Connections are
// advisory metadata; the evaluator uses them to bind conditions to assets but
// they do not gate evaluation order.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
