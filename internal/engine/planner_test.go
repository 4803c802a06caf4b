package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"
)

func init() {
	logger.InitLogger()
}

const (
	wethAddress = "0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37"
	usdcAddress = "0xf817257fed379853cde0fa4f97ab987181b1e5ea"
	wbtcAddress = "0xcf5a6076cfa32686c0df13abada2b40dec133f1d"
)

func rebalanceGraph(assets ...strategy.AssetBlock) *strategy.Graph {
	blocks := make([]strategy.Block, 0, len(assets)+1)
	for i, a := range assets {
		asset := a
		blocks = append(blocks, strategy.Block{
			ID:    string(rune('a' + i)),
			Type:  strategy.BlockTypeAsset,
			Asset: &asset,
		})
	}
	blocks = append(blocks, strategy.Block{
		ID:     "act1",
		Type:   strategy.BlockTypeAction,
		Action: &strategy.ActionBlock{ActionType: strategy.ActionRebalance, IntervalSeconds: 3600},
	})
	return &strategy.Graph{Blocks: blocks}
}

// assetState builds a snapshot entry with value derived from balance×price.
func assetState(symbol, address string, decimals int32, balance *big.Int, priceUSD, valueUSD, targetWeight float64) portfolio.AssetState {
	return portfolio.AssetState{
		Symbol:              symbol,
		Address:             address,
		Decimals:            decimals,
		Balance:             balance,
		PriceUSD:            priceUSD,
		ValueUSD:            valueUSD,
		TargetWeightPercent: targetWeight,
	}
}

func snapshotOf(assets ...portfolio.AssetState) *portfolio.Snapshot {
	snapshot := &portfolio.Snapshot{Assets: assets}
	maxDev := 0.0
	for _, a := range assets {
		snapshot.TotalValueUSD += a.ValueUSD
	}
	for i := range snapshot.Assets {
		a := &snapshot.Assets[i]
		if snapshot.TotalValueUSD > 0 {
			a.CurrentWeightPercent = a.ValueUSD / snapshot.TotalValueUSD * 100
		}
		dev := a.CurrentWeightPercent - a.TargetWeightPercent
		if dev < 0 {
			dev = -dev
		}
		if dev > maxDev {
			maxDev = dev
		}
	}
	snapshot.DriftBps = int32(maxDev * 100)
	return snapshot
}

func TestPlanRebalanceMovesValueFromOverweightToUnderweight(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40},
	)
	// $450 WETH / $550 USDC against a 60/40 target on a $1000 portfolio:
	// WETH is $150 short, USDC $150 over.
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(15e16), 3000, 450, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(550e6), 1, 550, 40),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)

	require.True(t, plan.ShouldExecute)
	require.Len(t, plan.Swaps, 1)

	swap := plan.Swaps[0]
	assert.Equal(t, usdcAddress, swap.FromToken)
	assert.Equal(t, wethAddress, swap.ToToken)
	assert.Equal(t, ReasonRebalance, swap.Reason)
	assert.InDelta(t, 150.0, swap.AmountUSD, 0.001)
	// $150 of USDC at $1 and 6 decimals.
	assert.Equal(t, big.NewInt(150e6), swap.FromAmount)
	// $150 of WETH at $3000 is 0.05 WETH.
	assert.Equal(t, big.NewInt(5e16), swap.ExpectedToAmount)
}

func TestPlanRebalanceConservesMatchedValue(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 50},
		strategy.AssetBlock{Symbol: "WBTC", Address: wbtcAddress, Decimals: 8, TargetWeightPercent: 30},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 20},
	)
	// $2000 portfolio: targets are 1000/600/400, holdings 700/800/500.
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(0).SetUint64(233333333333333333), 3000, 700, 50),
		assetState("WBTC", wbtcAddress, 8, big.NewInt(1333333), 60000, 800, 30),
		assetState("USDC", usdcAddress, 6, big.NewInt(500e6), 1, 500, 20),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)
	require.True(t, plan.ShouldExecute)
	require.NotEmpty(t, plan.Swaps)

	// Every matched swap moves equal USD off the sell side and onto the buy
	// side; total matched USD never exceeds the smaller side's imbalance.
	totalUSD := 0.0
	for _, swap := range plan.Swaps {
		assert.Positive(t, swap.AmountUSD)
		totalUSD += swap.AmountUSD
	}
	assert.LessOrEqual(t, totalUSD, 300.001)

	// Largest surplus (WBTC, +$200) pairs with the deepest deficit (WETH, −$300).
	first := plan.Swaps[0]
	assert.Equal(t, wbtcAddress, first.FromToken)
	assert.Equal(t, wethAddress, first.ToToken)
	assert.InDelta(t, 200.0, first.AmountUSD, 0.001)
}

func TestPlanIgnoresDustDeviations(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40},
	)
	// 50 cents off target on each side: below the dust threshold.
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(2e17), 3000, 600.5, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(400e6), 1, 400.5, 40),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)
	assert.False(t, plan.ShouldExecute)
	assert.Empty(t, plan.Swaps)
	assert.Contains(t, plan.Reason, "within drift tolerance")
}

func TestPlanIsIdempotentOnBalancedPortfolio(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40},
	)
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(2e17), 3000, 600, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(400e6), 1, 400, 40),
	)

	planner := NewPlanner()
	first := planner.Plan(graph, snapshot, true)
	second := planner.Plan(graph, snapshot, true)

	assert.False(t, first.ShouldExecute)
	assert.False(t, second.ShouldExecute)
	assert.Empty(t, first.Swaps)
	assert.Equal(t, first.Reason, second.Reason)
}

func TestPlanIsDeterministicForUnchangedSnapshot(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40},
	)
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(15e16), 3000, 450, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(550e6), 1, 550, 40),
	)

	planner := NewPlanner()
	first := planner.Plan(graph, snapshot, true)
	second := planner.Plan(graph, snapshot, true)

	require.True(t, first.ShouldExecute)
	assert.Equal(t, first, second)
}

func TestPlanSkipsPairWithZeroPriceLeg(t *testing.T) {
	usdtAddress := "0x88b8e2161dedc77ef4ab7585569d2415a1c1055d"
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 30},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 20},
		strategy.AssetBlock{Symbol: "WBTC", Address: wbtcAddress, Decimals: 8, TargetWeightPercent: 25},
		strategy.AssetBlock{Symbol: "USDT", Address: usdtAddress, Decimals: 6, TargetWeightPercent: 25},
	)
	// $1000 portfolio, targets 300/200/250/250. WETH's price degraded to zero
	// mid-cycle, so the deepest-deficit pair (WETH funded from WBTC) is
	// dropped while the USDC deficit still gets funded from USDT.
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(0), 0, 0, 30),
		assetState("USDC", usdcAddress, 6, big.NewInt(100e6), 1, 100, 20),
		assetState("WBTC", wbtcAddress, 8, big.NewInt(1000000), 60000, 600, 25),
		assetState("USDT", usdtAddress, 6, big.NewInt(300e6), 1, 300, 25),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)

	require.Len(t, plan.Swaps, 1)
	assert.Equal(t, usdtAddress, plan.Swaps[0].FromToken)
	assert.Equal(t, usdcAddress, plan.Swaps[0].ToToken)
	assert.InDelta(t, 50.0, plan.Swaps[0].AmountUSD, 0.001)
}

func TestPlanWithoutRebalanceActionSkipsDriftCorrection(t *testing.T) {
	// Only a tactical swap action; even a drifted portfolio plans no
	// rebalance swaps.
	graph := &strategy.Graph{Blocks: []strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60,
		}},
		{ID: "a2", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40,
		}},
		{ID: "act1", Type: strategy.BlockTypeAction, Action: &strategy.ActionBlock{
			ActionType: strategy.ActionSwap,
			FromToken:  usdcAddress,
			ToToken:    wethAddress,
			SwapAmount: 100,
		}},
	}}
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(15e16), 3000, 450, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(550e6), 1, 550, 40),
	)

	t.Run("conditions met plans the tactical swap only", func(t *testing.T) {
		plan := NewPlanner().Plan(graph, snapshot, true)
		require.Len(t, plan.Swaps, 1)
		assert.Equal(t, ReasonSwapAction, plan.Swaps[0].Reason)
		assert.Equal(t, big.NewInt(100e6), plan.Swaps[0].FromAmount)
		assert.True(t, plan.ShouldExecute)
	})

	t.Run("conditions unmet plans nothing", func(t *testing.T) {
		plan := NewPlanner().Plan(graph, snapshot, false)
		assert.Empty(t, plan.Swaps)
		assert.False(t, plan.ShouldExecute)
	})
}

func TestTacticalSwapInsufficientBalanceIsSkipped(t *testing.T) {
	graph := &strategy.Graph{Blocks: []strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 100,
		}},
		{ID: "act1", Type: strategy.BlockTypeAction, Action: &strategy.ActionBlock{
			ActionType: strategy.ActionSwap,
			FromToken:  usdcAddress,
			ToToken:    wethAddress,
			SwapAmount: 1000, // more than held
		}},
	}}
	snapshot := snapshotOf(
		assetState("USDC", usdcAddress, 6, big.NewInt(500e6), 1, 500, 100),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)
	assert.Empty(t, plan.Swaps)
	assert.False(t, plan.ShouldExecute)
}

func TestPlanTacticalTransfer(t *testing.T) {
	recipient := "0x2222222222222222222222222222222222222222"
	graph := &strategy.Graph{Blocks: []strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 100,
		}},
		{ID: "act1", Type: strategy.BlockTypeAction, Action: &strategy.ActionBlock{
			ActionType:     strategy.ActionTransfer,
			Token:          usdcAddress,
			To:             recipient,
			TransferAmount: 50,
		}},
	}}
	snapshot := snapshotOf(
		assetState("USDC", usdcAddress, 6, big.NewInt(500e6), 1, 500, 100),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)
	require.Len(t, plan.Transfers, 1)
	assert.Equal(t, recipient, plan.Transfers[0].To)
	assert.Equal(t, big.NewInt(50e6), plan.Transfers[0].Amount)
	assert.True(t, plan.ShouldExecute)
}

func TestPlanEstimatesGas(t *testing.T) {
	graph := rebalanceGraph(
		strategy.AssetBlock{Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: 60},
		strategy.AssetBlock{Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: 40},
	)
	snapshot := snapshotOf(
		assetState("WETH", wethAddress, 18, big.NewInt(15e16), 3000, 450, 60),
		assetState("USDC", usdcAddress, 6, big.NewInt(550e6), 1, 550, 40),
	)

	plan := NewPlanner().Plan(graph, snapshot, true)
	require.Len(t, plan.Swaps, 1)
	assert.Equal(t, uint64(250_000), plan.EstimatedGas)
}
