package strategy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/db"

	"github.com/shopspring/decimal"
)

// Graph is a parsed, typed strategy graph. Built from a stored record with
// Parse; callers that get nil skip the record.
type Graph struct {
	Record      db.Strategy
	Blocks      []Block
	Connections []Connection
}

// Parse decodes a stored strategy's blocks and connections. Malformed input
// yields nil rather than an error so batch scans can skip unusable records.
func Parse(record db.Strategy) *Graph {
	var blocks []Block
	if err := json.Unmarshal(record.Blocks, &blocks); err != nil {
		return nil
	}

	var connections []Connection
	if len(record.Connections) > 0 {
		if err := json.Unmarshal(record.Connections, &connections); err != nil {
			return nil
		}
	}

	return &Graph{
		Record:      record,
		Blocks:      blocks,
		Connections: connections,
	}
}

// ValidationResult reports whether a graph can be activated.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate applies the activation rules: at least one asset, target weights
// summing to 100 within tolerance, at least one action, and a sane rebalance
// interval.
func (g *Graph) Validate() ValidationResult {
	var errs []string

	assets := g.AssetBlocks()
	if len(assets) == 0 {
		errs = append(errs, "strategy requires at least one asset block")
	}

	if len(assets) > 0 {
		sum := decimal.Zero
		for _, a := range assets {
			sum = sum.Add(decimal.NewFromFloat(a.TargetWeightPercent))
		}
		tolerance := decimal.NewFromFloat(constants.WeightSumTolerance)
		if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
			errs = append(errs, fmt.Sprintf("asset target weights must sum to 100, got %s", sum))
		}
	}

	actions := g.ActionBlocks()
	if len(actions) == 0 {
		errs = append(errs, "strategy requires at least one action block")
	}
	for _, a := range actions {
		// A zero interval is not a violation: it defers to the strategy
		// record's rebalance_interval_seconds, and the executor floors the
		// effective cooldown at MinRebalanceInterval either way.
		if a.ActionType == ActionRebalance && a.IntervalSeconds > 0 &&
			float64(a.IntervalSeconds) < constants.MinRebalanceInterval.Seconds() {
			errs = append(errs, fmt.Sprintf("rebalance interval %ds is below the minimum of %s",
				a.IntervalSeconds, constants.MinRebalanceInterval))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// AssetBlocks returns the asset payloads in declaration order.
func (g *Graph) AssetBlocks() []AssetBlock {
	var out []AssetBlock
	for _, b := range g.Blocks {
		if b.Type == BlockTypeAsset && b.Asset != nil {
			out = append(out, *b.Asset)
		}
	}
	return out
}

// ConditionBlocks returns condition blocks with their ids, in declaration order.
func (g *Graph) ConditionBlocks() []Block {
	var out []Block
	for _, b := range g.Blocks {
		if b.Type == BlockTypeCondition && b.Condition != nil {
			out = append(out, b)
		}
	}
	return out
}

// ActionBlocks returns the action payloads in declaration order.
func (g *Graph) ActionBlocks() []ActionBlock {
	var out []ActionBlock
	for _, b := range g.Blocks {
		if b.Type == BlockTypeAction && b.Action != nil {
			out = append(out, *b.Action)
		}
	}
	return out
}

// RebalanceAction returns the first rebalance action block, if any.
func (g *Graph) RebalanceAction() (ActionBlock, bool) {
	for _, a := range g.ActionBlocks() {
		if a.ActionType == ActionRebalance {
			return a, true
		}
	}
	return ActionBlock{}, false
}

// TargetWeights returns the target weight per lowercased asset address.
func (g *Graph) TargetWeights() map[string]float64 {
	weights := make(map[string]float64)
	for _, a := range g.AssetBlocks() {
		weights[strings.ToLower(a.Address)] = a.TargetWeightPercent
	}
	return weights
}

// ConnectedAsset resolves the asset block a condition's edge points to,
// following the graph edge precisely in either direction. ok is false when no
// edge binds the condition to an asset; the evaluator treats that as a failed
// condition rather than guessing.
func (g *Graph) ConnectedAsset(conditionID string) (AssetBlock, bool) {
	byID := make(map[string]Block, len(g.Blocks))
	for _, b := range g.Blocks {
		byID[b.ID] = b
	}

	for _, conn := range g.Connections {
		var otherID string
		switch conditionID {
		case conn.Source:
			otherID = conn.Target
		case conn.Target:
			otherID = conn.Source
		default:
			continue
		}
		if other, ok := byID[otherID]; ok && other.Type == BlockTypeAsset && other.Asset != nil {
			return *other.Asset, true
		}
	}
	return AssetBlock{}, false
}

// TopologicalOrder returns block ids in a dependency-respecting order.
// The current rule set only needs flat extraction by type; this helper exists
// for future multi-stage graphs. Blocks in a cycle are appended after the
// acyclic portion rather than rejected, since connections are advisory.
func (g *Graph) TopologicalOrder() []string {
	indegree := make(map[string]int, len(g.Blocks))
	adj := make(map[string][]string)
	for _, b := range g.Blocks {
		indegree[b.ID] = 0
	}
	for _, c := range g.Connections {
		if _, ok := indegree[c.Source]; !ok {
			continue
		}
		if _, ok := indegree[c.Target]; !ok {
			continue
		}
		adj[c.Source] = append(adj[c.Source], c.Target)
		indegree[c.Target]++
	}

	var queue []string
	for _, b := range g.Blocks {
		if indegree[b.ID] == 0 {
			queue = append(queue, b.ID)
		}
	}

	order := make([]string, 0, len(g.Blocks))
	seen := make(map[string]bool, len(g.Blocks))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		seen[id] = true
		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for _, b := range g.Blocks {
		if !seen[b.ID] {
			order = append(order, b.ID)
		}
	}
	return order
}
