package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/mocks"
	"github.com/rebased/rebased-api/internal/strategy"
)

func init() {
	logger.InitLogger()
}

const (
	wethAddress = "0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37"
	usdcAddress = "0xf817257fed379853cde0fa4f97ab987181b1e5ea"
	testOwner   = "0x1111111111111111111111111111111111111111"
)

// stubPrices is a fixed price table satisfying oracle.PriceSource.
type stubPrices struct {
	prices map[string]float64
}

func (s stubPrices) GetPrice(_ context.Context, token string, _ int64) (float64, error) {
	price, ok := s.prices[token]
	if !ok {
		return 0, errors.New("no price")
	}
	return price, nil
}

func (s stubPrices) GetPrices(ctx context.Context, tokens []string, chainID int64) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, token := range tokens {
		if price, err := s.GetPrice(ctx, token, chainID); err == nil {
			out[token] = price
		}
	}
	return out, nil
}

func twoAssetGraph(t *testing.T, wethWeight, usdcWeight float64) *strategy.Graph {
	t.Helper()
	blocks := []strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "WETH", Address: wethAddress, Decimals: 18, TargetWeightPercent: wethWeight,
		}},
		{ID: "a2", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "USDC", Address: usdcAddress, Decimals: 6, TargetWeightPercent: usdcWeight,
		}},
		{ID: "act1", Type: strategy.BlockTypeAction, Action: &strategy.ActionBlock{
			ActionType: strategy.ActionRebalance, IntervalSeconds: 3600,
		}},
	}
	raw, err := json.Marshal(blocks)
	require.NoError(t, err)
	graph := strategy.Parse(db.Strategy{ChainID: 10143, Blocks: raw})
	require.NotNil(t, graph)
	return graph
}

// units returns amount * 10^decimals as a big.Int.
func units(amount int64, decimals int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return new(big.Int).Mul(big.NewInt(amount), scale)
}

func TestAnalyzeBalancedPortfolioHasZeroDrift(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	// $600 of WETH at $3000, $400 of USDC at $1 against a 60/40 target.
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), wethAddress, testOwner).
		Return(big.NewInt(2e17), nil) // 0.2 WETH
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), usdcAddress, testOwner).
		Return(units(400, 6), nil)

	analyzer := NewAnalyzer(reader, stubPrices{prices: map[string]float64{
		wethAddress: 3000,
		usdcAddress: 1,
	}})

	snapshot, err := analyzer.Analyze(context.Background(), twoAssetGraph(t, 60, 40), testOwner)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, snapshot.TotalValueUSD, 0.001)
	assert.Equal(t, int32(0), snapshot.DriftBps)

	weth, ok := snapshot.AssetBySymbol("WETH")
	require.True(t, ok)
	assert.InDelta(t, 60.0, weth.CurrentWeightPercent, 0.001)
}

func TestAnalyzeDriftIsSymmetric(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	// $450 WETH / $550 USDC against 60/40: both assets deviate by 15%.
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), wethAddress, testOwner).
		Return(big.NewInt(15e16), nil) // 0.15 WETH at $3000 = $450
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), usdcAddress, testOwner).
		Return(units(550, 6), nil)

	analyzer := NewAnalyzer(reader, stubPrices{prices: map[string]float64{
		wethAddress: 3000,
		usdcAddress: 1,
	}})

	snapshot, err := analyzer.Analyze(context.Background(), twoAssetGraph(t, 60, 40), testOwner)
	require.NoError(t, err)

	// In a two-asset portfolio the deviations mirror each other, so the max
	// deviation is the same seen from either side.
	assert.Equal(t, int32(1500), snapshot.DriftBps)
}

func TestAnalyzeDegradesAssetOnBalanceFailure(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), wethAddress, testOwner).
		Return(nil, errors.New("rpc timeout"))
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), usdcAddress, testOwner).
		Return(units(400, 6), nil)

	analyzer := NewAnalyzer(reader, stubPrices{prices: map[string]float64{
		wethAddress: 3000,
		usdcAddress: 1,
	}})

	snapshot, err := analyzer.Analyze(context.Background(), twoAssetGraph(t, 60, 40), testOwner)
	require.NoError(t, err)

	weth, ok := snapshot.AssetBySymbol("WETH")
	require.True(t, ok)
	assert.True(t, weth.Degraded)
	assert.Zero(t, weth.ValueUSD)
	assert.InDelta(t, 400.0, snapshot.TotalValueUSD, 0.001)
}

func TestAnalyzeEmptyPortfolio(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), wethAddress, testOwner).
		Return(big.NewInt(0), nil)
	reader.EXPECT().TokenBalance(gomock.Any(), int64(10143), usdcAddress, testOwner).
		Return(big.NewInt(0), nil)

	analyzer := NewAnalyzer(reader, stubPrices{prices: map[string]float64{
		wethAddress: 3000,
		usdcAddress: 1,
	}})

	snapshot, err := analyzer.Analyze(context.Background(), twoAssetGraph(t, 60, 40), testOwner)
	require.NoError(t, err)

	assert.Zero(t, snapshot.TotalValueUSD)
	// With no value there are no current weights; drift is the full target
	// deviation, and the planner's dust filter keeps it from trading.
	assert.Equal(t, int32(6000), snapshot.DriftBps)
}

func TestTokenUnits(t *testing.T) {
	assert.Zero(t, tokenUnits(nil, 18))
	assert.Zero(t, tokenUnits(big.NewInt(0), 18))
	assert.InDelta(t, 1.5, tokenUnits(big.NewInt(15e17), 18), 1e-9)
	assert.InDelta(t, 250.0, tokenUnits(units(250, 6), 6), 1e-9)
}
