package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"
)

func conditionGraph(cond strategy.ConditionBlock, connections []strategy.Connection) *strategy.Graph {
	return &strategy.Graph{
		Blocks: []strategy.Block{
			{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
				Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 100,
			}},
			{ID: "c1", Type: strategy.BlockTypeCondition, Condition: &cond},
		},
		Connections: connections,
	}
}

func TestEvaluateNoConditionsIsVacuouslyTrue(t *testing.T) {
	graph := &strategy.Graph{Blocks: []strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "WETH", Address: wethAddress, TargetWeightPercent: 100,
		}},
	}}
	snapshot := &portfolio.Snapshot{}

	assert.True(t, NewConditionEvaluator().Evaluate(graph, snapshot))
}

func TestEvaluatePortfolioValueCondition(t *testing.T) {
	snapshot := &portfolio.Snapshot{TotalValueUSD: 1000}

	tests := []struct {
		name      string
		operator  strategy.Operator
		threshold float64
		want      bool
	}{
		{"GT below threshold", strategy.OperatorGT, 1500, false},
		{"GT above threshold", strategy.OperatorGT, 500, true},
		{"GT at threshold is strict", strategy.OperatorGT, 1000, false},
		{"LT below threshold", strategy.OperatorLT, 1500, true},
		{"LT above threshold", strategy.OperatorLT, 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := conditionGraph(strategy.ConditionBlock{
				ConditionType: strategy.ConditionPortfolioValue,
				Operator:      tt.operator,
				ThresholdUSD:  tt.threshold,
			}, nil)
			assert.Equal(t, tt.want, NewConditionEvaluator().Evaluate(graph, snapshot))
		})
	}
}

func TestEvaluatePriceConditionUsesConnectedAsset(t *testing.T) {
	snapshot := &portfolio.Snapshot{
		TotalValueUSD: 600,
		Assets: []portfolio.AssetState{
			{Symbol: "WETH", Address: wethAddress, Balance: big.NewInt(2e17), PriceUSD: 3000, ValueUSD: 600},
		},
	}

	cond := strategy.ConditionBlock{
		ConditionType: strategy.ConditionPrice,
		Operator:      strategy.OperatorGT,
		ThresholdUSD:  2500,
	}

	t.Run("connected asset satisfies condition", func(t *testing.T) {
		graph := conditionGraph(cond, []strategy.Connection{{Source: "c1", Target: "a1"}})
		assert.True(t, NewConditionEvaluator().Evaluate(graph, snapshot))
	})

	t.Run("condition without an edge fails", func(t *testing.T) {
		graph := conditionGraph(cond, nil)
		assert.False(t, NewConditionEvaluator().Evaluate(graph, snapshot))
	})
}

func TestEvaluateAssetValueCondition(t *testing.T) {
	snapshot := &portfolio.Snapshot{
		TotalValueUSD: 600,
		Assets: []portfolio.AssetState{
			{Symbol: "WETH", Address: wethAddress, PriceUSD: 3000, ValueUSD: 600},
		},
	}

	graph := conditionGraph(strategy.ConditionBlock{
		ConditionType: strategy.ConditionAssetValue,
		Operator:      strategy.OperatorLT,
		ThresholdUSD:  1000,
	}, []strategy.Connection{{Source: "a1", Target: "c1"}})

	assert.True(t, NewConditionEvaluator().Evaluate(graph, snapshot))
}

func TestEvaluateIsConjunction(t *testing.T) {
	snapshot := &portfolio.Snapshot{
		TotalValueUSD: 1000,
		Assets: []portfolio.AssetState{
			{Symbol: "WETH", Address: wethAddress, PriceUSD: 3000, ValueUSD: 600},
		},
	}

	// One passing condition and one failing: the conjunction fails.
	graph := &strategy.Graph{
		Blocks: []strategy.Block{
			{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
				Symbol: "WETH", Address: wethAddress, TargetWeightPercent: 100,
			}},
			{ID: "c1", Type: strategy.BlockTypeCondition, Condition: &strategy.ConditionBlock{
				ConditionType: strategy.ConditionPortfolioValue,
				Operator:      strategy.OperatorGT,
				ThresholdUSD:  500, // passes
			}},
			{ID: "c2", Type: strategy.BlockTypeCondition, Condition: &strategy.ConditionBlock{
				ConditionType: strategy.ConditionPrice,
				Operator:      strategy.OperatorGT,
				ThresholdUSD:  5000, // fails: WETH is at 3000
			}},
		},
		Connections: []strategy.Connection{{Source: "c2", Target: "a1"}},
	}

	assert.False(t, NewConditionEvaluator().Evaluate(graph, snapshot))
}

func TestEvaluateUnknownOperatorFails(t *testing.T) {
	graph := conditionGraph(strategy.ConditionBlock{
		ConditionType: strategy.ConditionPortfolioValue,
		Operator:      strategy.Operator("GTE"),
		ThresholdUSD:  10,
	}, nil)
	snapshot := &portfolio.Snapshot{TotalValueUSD: 1000}

	assert.False(t, NewConditionEvaluator().Evaluate(graph, snapshot))
}
