package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rebased/rebased-api/internal/chain"
	"github.com/rebased/rebased-api/internal/client/pyth"
	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/logger"

	"go.uber.org/zap"
)

// ErrPriceUnavailable is returned when every price tier fails for a
// non-stablecoin token. The oracle never fabricates a price.
var ErrPriceUnavailable = errors.New("price unavailable")

// OffchainSource is the free low-latency price tier, satisfied by the Pyth
// Hermes client.
type OffchainSource interface {
	GetLatestPrice(ctx context.Context, feedID string) (*pyth.Quote, error)
	GetLatestPrices(ctx context.Context, feedIDs []string) (map[string]pyth.Quote, error)
}

// PriceSource is the contract the analyzer consumes.
type PriceSource interface {
	GetPrice(ctx context.Context, tokenAddress string, chainID int64) (float64, error)
	GetPrices(ctx context.Context, tokenAddresses []string, chainID int64) (map[string]float64, error)
}

// Oracle resolves token prices through an ordered fallback chain:
// off-chain price service, then an on-chain feed read, then 1.0 for
// registered stablecoins.
type Oracle struct {
	offchain OffchainSource
	chain    chain.Reader
	logger   *zap.Logger
}

var _ PriceSource = (*Oracle)(nil)

// New creates a price oracle over the given tiers.
func New(offchain OffchainSource, chainReader chain.Reader) *Oracle {
	return &Oracle{
		offchain: offchain,
		chain:    chainReader,
		logger:   logger.Log,
	}
}

// GetPrice resolves a token's USD price.
func (o *Oracle) GetPrice(ctx context.Context, tokenAddress string, chainID int64) (float64, error) {
	// Tier 1: off-chain price service
	if feedID, ok := constants.PythFeedID(chainID, tokenAddress); ok {
		quote, err := o.offchain.GetLatestPrice(ctx, feedID)
		if err == nil {
			o.inspectQuote(tokenAddress, quote)
			return quote.PriceUSD, nil
		}
		o.logger.Warn("Off-chain price tier failed, falling back to on-chain feed",
			zap.String("token", tokenAddress),
			zap.Int64("chain_id", chainID),
			zap.Error(err))
	} else {
		o.logger.Debug("No off-chain feed registered for token",
			zap.String("token", tokenAddress),
			zap.Int64("chain_id", chainID))
	}

	// Tier 2: on-chain aggregator read
	if feedAddr, ok := constants.ChainlinkFeed(chainID, tokenAddress); ok {
		price, err := o.chain.ReadPriceFeed(ctx, chainID, feedAddr)
		if err == nil {
			return price, nil
		}
		o.logger.Warn("On-chain price tier failed",
			zap.String("token", tokenAddress),
			zap.String("feed", feedAddr),
			zap.Error(err))
	}

	// Tier 3: registered stablecoins are worth 1 USD as a last resort
	if constants.IsStablecoin(chainID, tokenAddress) {
		o.logger.Warn("All price tiers failed, using stablecoin fallback",
			zap.String("token", tokenAddress),
			zap.Int64("chain_id", chainID))
		return 1.0, nil
	}

	return 0, fmt.Errorf("no price for token %s on chain %d: %w", tokenAddress, chainID, ErrPriceUnavailable)
}

// GetPrices resolves a batch of tokens concurrently. Each token resolves
// independently; a failure for one token does not affect the others, and the
// returned map only contains tokens that resolved.
func (o *Oracle) GetPrices(ctx context.Context, tokenAddresses []string, chainID int64) (map[string]float64, error) {
	type result struct {
		token string
		price float64
		err   error
	}

	results := make(chan result, len(tokenAddresses))
	var wg sync.WaitGroup
	for _, token := range tokenAddresses {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			price, err := o.GetPrice(ctx, token, chainID)
			results <- result{token: token, price: price, err: err}
		}(token)
	}
	wg.Wait()
	close(results)

	prices := make(map[string]float64, len(tokenAddresses))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		prices[r.token] = r.price
	}

	if len(prices) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return prices, nil
}

// inspectQuote applies the advisory freshness and confidence checks. Neither
// rejects the quote; both only log.
func (o *Oracle) inspectQuote(tokenAddress string, quote *pyth.Quote) {
	if age := quote.Age(); age > constants.MaxPriceAge {
		o.logger.Warn("Stale off-chain price accepted",
			zap.String("token", tokenAddress),
			zap.Duration("age", age),
			zap.Float64("price_usd", quote.PriceUSD))
	}
	if quote.PriceUSD > 0 && quote.Confidence/quote.PriceUSD > constants.MaxConfidenceRatio {
		o.logger.Warn("Wide confidence interval on off-chain price",
			zap.String("token", tokenAddress),
			zap.Float64("price_usd", quote.PriceUSD),
			zap.Float64("confidence_usd", quote.Confidence))
	}
}
