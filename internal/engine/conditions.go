package engine

import (
	"strings"

	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"

	"go.uber.org/zap"
)

// ConditionEvaluator evaluates a strategy's condition blocks against a
// snapshot. All conditions must hold (AND); there is no OR or grouping
// construct in this protocol version.
type ConditionEvaluator struct {
	logger *zap.Logger
}

// NewConditionEvaluator creates a condition evaluator.
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{logger: logger.Log}
}

// Evaluate returns the conjunction of every condition block. A strategy with
// no condition blocks is vacuously true.
func (e *ConditionEvaluator) Evaluate(graph *strategy.Graph, snapshot *portfolio.Snapshot) bool {
	for _, block := range graph.ConditionBlocks() {
		if !e.evaluateOne(graph, snapshot, block) {
			return false
		}
	}
	return true
}

func (e *ConditionEvaluator) evaluateOne(graph *strategy.Graph, snapshot *portfolio.Snapshot, block strategy.Block) bool {
	cond := block.Condition

	actual, ok := e.resolveActual(graph, snapshot, block)
	if !ok {
		return false
	}

	var met bool
	switch cond.Operator {
	case strategy.OperatorGT:
		met = actual > cond.ThresholdUSD
	case strategy.OperatorLT:
		met = actual < cond.ThresholdUSD
	default:
		e.logger.Warn("Unknown condition operator",
			zap.String("block_id", block.ID),
			zap.String("operator", string(cond.Operator)))
		return false
	}

	e.logger.Debug("Condition evaluated",
		zap.String("block_id", block.ID),
		zap.String("type", string(cond.ConditionType)),
		zap.Float64("actual", actual),
		zap.Float64("threshold", cond.ThresholdUSD),
		zap.Bool("met", met))
	return met
}

// resolveActual produces the value a condition compares. Price and asset-value
// conditions resolve the asset their graph edge points to; a condition with no
// edge to an asset block fails rather than being bound to an arbitrary token.
func (e *ConditionEvaluator) resolveActual(graph *strategy.Graph, snapshot *portfolio.Snapshot, block strategy.Block) (float64, bool) {
	switch block.Condition.ConditionType {
	case strategy.ConditionPortfolioValue:
		return snapshot.TotalValueUSD, true

	case strategy.ConditionPrice, strategy.ConditionAssetValue:
		asset, ok := graph.ConnectedAsset(block.ID)
		if !ok {
			e.logger.Warn("Condition has no connected asset block",
				zap.String("block_id", block.ID),
				zap.String("type", string(block.Condition.ConditionType)))
			return 0, false
		}
		state, ok := snapshotAsset(snapshot, asset.Address)
		if !ok {
			e.logger.Warn("Condition references asset absent from snapshot",
				zap.String("block_id", block.ID),
				zap.String("token", asset.Address))
			return 0, false
		}
		if block.Condition.ConditionType == strategy.ConditionPrice {
			return state.PriceUSD, true
		}
		return state.ValueUSD, true

	default:
		e.logger.Warn("Unknown condition type",
			zap.String("block_id", block.ID),
			zap.String("type", string(block.Condition.ConditionType)))
		return 0, false
	}
}

func snapshotAsset(snapshot *portfolio.Snapshot, address string) (portfolio.AssetState, bool) {
	for _, a := range snapshot.Assets {
		if strings.EqualFold(a.Address, address) {
			return a, true
		}
	}
	return portfolio.AssetState{}, false
}
