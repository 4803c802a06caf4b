package engine

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SwapReason records why a planned swap exists.
type SwapReason string

const (
	ReasonRebalance  SwapReason = "rebalance"
	ReasonSwapAction SwapReason = "swap_action"
)

// PlannedSwap is one swap of the execution plan.
type PlannedSwap struct {
	FromToken        string     `json:"from_token"`
	ToToken          string     `json:"to_token"`
	FromAmount       *big.Int   `json:"from_amount"`         // smallest units of FromToken
	ExpectedToAmount *big.Int   `json:"expected_to_amount"`  // smallest units of ToToken
	AmountUSD        float64    `json:"amount_usd"`
	Reason           SwapReason `json:"reason"`
}

// PlannedTransfer is one transfer of the execution plan.
type PlannedTransfer struct {
	Token  string   `json:"token"`
	To     string   `json:"to"`
	Amount *big.Int `json:"amount"` // smallest units
}

// ExecutionPlan is the planner's output: produced fresh each cycle and
// consumed immediately by the execution coordinator, never persisted.
type ExecutionPlan struct {
	Swaps         []PlannedSwap     `json:"swaps"`
	Transfers     []PlannedTransfer `json:"transfers"`
	EstimatedGas  uint64            `json:"estimated_gas"`
	ShouldExecute bool              `json:"should_execute"`
	Reason        string            `json:"reason"`
}

// Planner converts drift and evaluated conditions into an execution plan.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner creates an action planner.
func NewPlanner() *Planner {
	return &Planner{logger: logger.Log}
}

// Plan merges two independent planning paths. The rebalance path runs
// regardless of conditionsMet since portfolio maintenance is unconditional;
// the tactical path (declared swap/transfer actions) runs only when the
// strategy's conditions held.
func (p *Planner) Plan(graph *strategy.Graph, snapshot *portfolio.Snapshot, conditionsMet bool) *ExecutionPlan {
	plan := &ExecutionPlan{}

	var rebalanceSwaps []PlannedSwap
	if _, ok := graph.RebalanceAction(); ok {
		rebalanceSwaps = p.planRebalance(snapshot)
		plan.Swaps = append(plan.Swaps, rebalanceSwaps...)
	}

	tacticalCount := 0
	if conditionsMet {
		swaps, transfers := p.planTactical(graph, snapshot)
		plan.Swaps = append(plan.Swaps, swaps...)
		plan.Transfers = append(plan.Transfers, transfers...)
		tacticalCount = len(swaps) + len(transfers)
	}

	plan.EstimatedGas = constants.GasPerSwap*uint64(len(plan.Swaps)) +
		constants.GasPerTransfer*uint64(len(plan.Transfers))
	plan.ShouldExecute = len(rebalanceSwaps) > 0 || (conditionsMet && tacticalCount > 0)

	switch {
	case plan.ShouldExecute && len(rebalanceSwaps) > 0 && tacticalCount > 0:
		plan.Reason = fmt.Sprintf("drift %d bps requires %d rebalance swap(s); conditions met, %d tactical action(s)",
			snapshot.DriftBps, len(rebalanceSwaps), tacticalCount)
	case plan.ShouldExecute && len(rebalanceSwaps) > 0:
		plan.Reason = fmt.Sprintf("drift %d bps requires %d rebalance swap(s)", snapshot.DriftBps, len(rebalanceSwaps))
	case plan.ShouldExecute:
		plan.Reason = fmt.Sprintf("conditions met, %d tactical action(s)", tacticalCount)
	case !conditionsMet && len(graph.ConditionBlocks()) > 0:
		plan.Reason = "conditions not met and portfolio within drift tolerance"
	default:
		plan.Reason = "portfolio within drift tolerance"
	}

	return plan
}

// assetDelta is an asset's distance from target, negative when underweight
// (oversold) and positive when overweight.
type assetDelta struct {
	asset    portfolio.AssetState
	deltaUSD decimal.Decimal // currentValue − targetValue
}

// planRebalance pairs the most-oversold assets with the most-overbought ones,
// sizing each matched swap at min(|sell|, buy) USD so matched sell-side and
// buy-side USD are equal by construction. Residual when the counts differ is
// left for the next cycle.
func (p *Planner) planRebalance(snapshot *portfolio.Snapshot) []PlannedSwap {
	dust := decimal.NewFromFloat(constants.DustThresholdUSD)
	total := decimal.NewFromFloat(snapshot.TotalValueUSD)

	var deltas []assetDelta
	for _, a := range snapshot.Assets {
		target := total.Mul(decimal.NewFromFloat(a.TargetWeightPercent)).Div(decimal.NewFromInt(100))
		delta := decimal.NewFromFloat(a.ValueUSD).Sub(target)
		if delta.Abs().LessThanOrEqual(dust) {
			continue
		}
		deltas = append(deltas, assetDelta{asset: a, deltaUSD: delta})
	}

	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].deltaUSD.LessThan(deltas[j].deltaUSD)
	})

	var underweight, overweight []assetDelta
	for _, d := range deltas {
		if d.deltaUSD.Sign() < 0 {
			underweight = append(underweight, d)
		} else {
			overweight = append(overweight, d)
		}
	}
	// Overweight came out ascending; pair the largest surplus first.
	sort.Slice(overweight, func(i, j int) bool {
		return overweight[i].deltaUSD.GreaterThan(overweight[j].deltaUSD)
	})

	var swaps []PlannedSwap
	pairs := len(underweight)
	if len(overweight) < pairs {
		pairs = len(overweight)
	}
	for i := 0; i < pairs; i++ {
		buy := underweight[i]
		sell := overweight[i]

		if sell.asset.PriceUSD <= 0 || buy.asset.PriceUSD <= 0 {
			// Never size a swap off a degraded zero price; only this pair is
			// abandoned, not the whole plan.
			p.logger.Warn("Skipping rebalance pair with zero price leg",
				zap.String("sell", sell.asset.Symbol),
				zap.String("buy", buy.asset.Symbol))
			continue
		}

		matchedUSD := decimal.Min(sell.deltaUSD, buy.deltaUSD.Abs())
		fromAmount := usdToUnits(matchedUSD, sell.asset.PriceUSD, sell.asset.Decimals)
		toAmount := usdToUnits(matchedUSD, buy.asset.PriceUSD, buy.asset.Decimals)
		amountUSD, _ := matchedUSD.Float64()

		swaps = append(swaps, PlannedSwap{
			FromToken:        sell.asset.Address,
			ToToken:          buy.asset.Address,
			FromAmount:       fromAmount,
			ExpectedToAmount: toAmount,
			AmountUSD:        amountUSD,
			Reason:           ReasonRebalance,
		})
	}
	return swaps
}

// planTactical emits the declared swap and/or transfer actions, validating
// each against the live balance of its source asset. An action with missing
// fields or insufficient balance is skipped and logged, never failing the
// whole plan.
func (p *Planner) planTactical(graph *strategy.Graph, snapshot *portfolio.Snapshot) ([]PlannedSwap, []PlannedTransfer) {
	var swaps []PlannedSwap
	var transfers []PlannedTransfer

	for _, action := range graph.ActionBlocks() {
		switch action.ActionType {
		case strategy.ActionSwap:
			if swap, ok := p.buildTacticalSwap(snapshot, action); ok {
				swaps = append(swaps, swap)
			}
		case strategy.ActionTransfer:
			if transfer, ok := p.buildTacticalTransfer(snapshot, action); ok {
				transfers = append(transfers, transfer)
			}
		case strategy.ActionRebalance:
			// handled by the rebalance path
		}
	}
	return swaps, transfers
}

func (p *Planner) buildTacticalSwap(snapshot *portfolio.Snapshot, action strategy.ActionBlock) (PlannedSwap, bool) {
	if action.FromToken == "" || action.ToToken == "" || action.SwapAmount <= 0 {
		p.logger.Warn("Swap action missing required fields, skipping",
			zap.String("from", action.FromToken),
			zap.String("to", action.ToToken))
		return PlannedSwap{}, false
	}

	from, ok := snapshotAsset(snapshot, action.FromToken)
	if !ok {
		p.logger.Warn("Swap action source is not a portfolio asset, skipping",
			zap.String("from", action.FromToken))
		return PlannedSwap{}, false
	}

	amount := tokenUnitsToSmallest(action.SwapAmount, from.Decimals)
	if from.Balance == nil || from.Balance.Cmp(amount) < 0 {
		p.logger.Warn("Insufficient balance for swap action, skipping",
			zap.String("from", action.FromToken),
			zap.String("required", amount.String()))
		return PlannedSwap{}, false
	}

	swap := PlannedSwap{
		FromToken:  action.FromToken,
		ToToken:    action.ToToken,
		FromAmount: amount,
		AmountUSD:  action.SwapAmount * from.PriceUSD,
		Reason:     ReasonSwapAction,
	}
	if to, ok := snapshotAsset(snapshot, action.ToToken); ok && to.PriceUSD > 0 {
		swap.ExpectedToAmount = usdToUnits(decimal.NewFromFloat(swap.AmountUSD), to.PriceUSD, to.Decimals)
	}
	return swap, true
}

func (p *Planner) buildTacticalTransfer(snapshot *portfolio.Snapshot, action strategy.ActionBlock) (PlannedTransfer, bool) {
	if action.Token == "" || action.To == "" || action.TransferAmount <= 0 {
		p.logger.Warn("Transfer action missing required fields, skipping",
			zap.String("token", action.Token),
			zap.String("to", action.To))
		return PlannedTransfer{}, false
	}

	asset, ok := snapshotAsset(snapshot, action.Token)
	if !ok {
		p.logger.Warn("Transfer action token is not a portfolio asset, skipping",
			zap.String("token", action.Token))
		return PlannedTransfer{}, false
	}

	amount := tokenUnitsToSmallest(action.TransferAmount, asset.Decimals)
	if asset.Balance == nil || asset.Balance.Cmp(amount) < 0 {
		p.logger.Warn("Insufficient balance for transfer action, skipping",
			zap.String("token", action.Token),
			zap.String("required", amount.String()))
		return PlannedTransfer{}, false
	}

	return PlannedTransfer{
		Token:  strings.ToLower(action.Token),
		To:     action.To,
		Amount: amount,
	}, true
}

// usdToUnits converts a USD amount to smallest token units via the token's
// own price and decimals.
func usdToUnits(usd decimal.Decimal, priceUSD float64, decimals int32) *big.Int {
	tokens := usd.Div(decimal.NewFromFloat(priceUSD))
	scaled := tokens.Shift(decimals).Truncate(0)
	return scaled.BigInt()
}

// tokenUnitsToSmallest converts whole token units to smallest units.
func tokenUnitsToSmallest(units float64, decimals int32) *big.Int {
	return decimal.NewFromFloat(units).Shift(decimals).Truncate(0).BigInt()
}
