package portfolio

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/rebased/rebased-api/internal/chain"
	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/oracle"
	"github.com/rebased/rebased-api/internal/strategy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssetState is one asset's slice of a snapshot.
type AssetState struct {
	Symbol               string   `json:"symbol"`
	Address              string   `json:"address"`
	Decimals             int32    `json:"decimals"`
	Balance              *big.Int `json:"balance"` // smallest unit
	PriceUSD             float64  `json:"price_usd"`
	ValueUSD             float64  `json:"value_usd"`
	CurrentWeightPercent float64  `json:"current_weight_percent"`
	TargetWeightPercent  float64  `json:"target_weight_percent"`
	Degraded             bool     `json:"degraded"` // balance or price read failed; zeros substituted
}

// Snapshot is a derived, point-in-time view of a portfolio. Recomputed every
// cycle and never persisted as authoritative state.
type Snapshot struct {
	StrategyID    uuid.UUID    `json:"strategy_id"`
	ChainID       int64        `json:"chain_id"`
	Assets        []AssetState `json:"assets"`
	TotalValueUSD float64      `json:"total_value_usd"`
	DriftBps      int32        `json:"drift_bps"`
	TakenAt       time.Time    `json:"taken_at"`
}

// AssetBySymbol returns the snapshot entry for a symbol.
func (s *Snapshot) AssetBySymbol(symbol string) (AssetState, bool) {
	for _, a := range s.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return AssetState{}, false
}

// Analyzer combines a strategy graph, live balances and the price oracle into
// portfolio snapshots.
type Analyzer struct {
	chain  chain.Reader
	prices oracle.PriceSource
	logger *zap.Logger
}

// NewAnalyzer creates a portfolio analyzer.
func NewAnalyzer(chainReader chain.Reader, prices oracle.PriceSource) *Analyzer {
	return &Analyzer{
		chain:  chainReader,
		prices: prices,
		logger: logger.Log,
	}
}

// Analyze builds a snapshot of current vs target weights for the strategy's
// assets held by ownerAddress. Per-asset failures degrade that asset to zero
// rather than failing the snapshot; partial data still serves monitoring.
// The planner refuses to size swaps off a degraded (zero-price) asset.
func (a *Analyzer) Analyze(ctx context.Context, graph *strategy.Graph, ownerAddress string) (*Snapshot, error) {
	assets := graph.AssetBlocks()
	chainID := graph.Record.ChainID
	states := make([]AssetState, len(assets))

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset strategy.AssetBlock) {
			defer wg.Done()
			states[i] = a.resolveAsset(ctx, chainID, ownerAddress, asset)
		}(i, asset)
	}
	wg.Wait()

	snapshot := &Snapshot{
		StrategyID: graph.Record.ID,
		ChainID:    chainID,
		Assets:     states,
		TakenAt:    time.Now().UTC(),
	}

	for _, s := range states {
		snapshot.TotalValueUSD += s.ValueUSD
	}

	maxDeviation := 0.0
	for i := range snapshot.Assets {
		s := &snapshot.Assets[i]
		if snapshot.TotalValueUSD > 0 {
			s.CurrentWeightPercent = s.ValueUSD / snapshot.TotalValueUSD * 100
		}
		if dev := math.Abs(s.CurrentWeightPercent - s.TargetWeightPercent); dev > maxDeviation {
			maxDeviation = dev
		}
	}
	snapshot.DriftBps = int32(math.Round(maxDeviation * 100))

	return snapshot, nil
}

func (a *Analyzer) resolveAsset(ctx context.Context, chainID int64, ownerAddress string, asset strategy.AssetBlock) AssetState {
	state := AssetState{
		Symbol:              asset.Symbol,
		Address:             asset.Address,
		Decimals:            asset.Decimals,
		Balance:             big.NewInt(0),
		TargetWeightPercent: asset.TargetWeightPercent,
	}

	var balance *big.Int
	var err error
	if constants.IsNativeToken(asset.Address) {
		balance, err = a.chain.NativeBalance(ctx, chainID, ownerAddress)
	} else {
		balance, err = a.chain.TokenBalance(ctx, chainID, asset.Address, ownerAddress)
	}
	if err != nil {
		a.logger.Warn("Balance read failed, degrading asset to zero",
			zap.String("symbol", asset.Symbol),
			zap.String("token", asset.Address),
			zap.Int64("chain_id", chainID),
			zap.Error(err))
		state.Degraded = true
		return state
	}

	price, err := a.prices.GetPrice(ctx, asset.Address, chainID)
	if err != nil {
		a.logger.Warn("Price resolution failed, degrading asset to zero",
			zap.String("symbol", asset.Symbol),
			zap.String("token", asset.Address),
			zap.Int64("chain_id", chainID),
			zap.Error(err))
		state.Degraded = true
		state.Balance = balance
		return state
	}

	state.Balance = balance
	state.PriceUSD = price
	state.ValueUSD = tokenUnits(balance, asset.Decimals) * price
	return state
}

// tokenUnits converts a smallest-unit balance to whole token units.
func tokenUnits(balance *big.Int, decimals int32) float64 {
	if balance == nil || balance.Sign() == 0 {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	units, _ := new(big.Float).Quo(new(big.Float).SetInt(balance), scale).Float64()
	return units
}
