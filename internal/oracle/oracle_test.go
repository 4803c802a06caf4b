package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rebased/rebased-api/internal/client/pyth"
	"github.com/rebased/rebased-api/internal/logger"
	"github.com/rebased/rebased-api/internal/mocks"
)

func init() {
	logger.InitLogger()
}

const (
	// Registered tokens from the chain registry.
	wethBase  = "0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37"
	usdcBase  = "0x036cbd53842c5426634e7929541ec2318f3dcf7e"
	usdcMonad = "0xf817257fed379853cde0fa4f97ab987181b1e5ea"
	unknown   = "0x00000000000000000000000000000000000000aa"
)

// stubOffchain satisfies OffchainSource with canned quotes per feed id.
type stubOffchain struct {
	quotes map[string]pyth.Quote
	err    error
}

func (s stubOffchain) GetLatestPrice(_ context.Context, feedID string) (*pyth.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	quote, ok := s.quotes[feedID]
	if !ok {
		return nil, errors.New("feed not found")
	}
	return &quote, nil
}

func (s stubOffchain) GetLatestPrices(ctx context.Context, feedIDs []string) (map[string]pyth.Quote, error) {
	out := make(map[string]pyth.Quote)
	for _, id := range feedIDs {
		if quote, err := s.GetLatestPrice(ctx, id); err == nil {
			out[id] = *quote
		}
	}
	return out, nil
}

func freshQuote(priceUSD float64) pyth.Quote {
	return pyth.Quote{
		PriceUSD:    priceUSD,
		Confidence:  priceUSD * 0.001,
		PublishTime: time.Now(),
	}
}

func TestGetPricePrefersOffchainTier(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	// The on-chain tier must not be touched when the off-chain tier answers.

	wethFeed := "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
	oracle := New(stubOffchain{quotes: map[string]pyth.Quote{
		wethFeed: freshQuote(3150.25),
	}}, reader)

	price, err := oracle.GetPrice(context.Background(), wethBase, 84532)
	require.NoError(t, err)
	assert.InDelta(t, 3150.25, price, 0.001)
}

func TestGetPriceFallsBackToOnchainFeed(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	reader.EXPECT().
		ReadPriceFeed(gomock.Any(), int64(84532), "0xd30e2101a97dcbAeBCBC04F14C3f624E67A35165").
		Return(0.9998, nil)

	oracle := New(stubOffchain{err: errors.New("hermes down")}, reader)

	price, err := oracle.GetPrice(context.Background(), usdcBase, 84532)
	require.NoError(t, err)
	assert.InDelta(t, 0.9998, price, 0.0001)
}

func TestGetPriceStablecoinLastResort(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	reader.EXPECT().
		ReadPriceFeed(gomock.Any(), int64(84532), gomock.Any()).
		Return(0.0, errors.New("rpc down"))

	oracle := New(stubOffchain{err: errors.New("hermes down")}, reader)

	price, err := oracle.GetPrice(context.Background(), usdcBase, 84532)
	require.NoError(t, err)
	assert.Equal(t, 1.0, price)
}

func TestGetPriceStablecoinWithoutOnchainFeed(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)
	// Monad USDC has no on-chain feed registered; the stablecoin tier answers
	// directly after the off-chain failure.

	oracle := New(stubOffchain{err: errors.New("hermes down")}, reader)

	price, err := oracle.GetPrice(context.Background(), usdcMonad, 10143)
	require.NoError(t, err)
	assert.Equal(t, 1.0, price)
}

func TestGetPriceUnavailable(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)

	oracle := New(stubOffchain{err: errors.New("hermes down")}, reader)

	_, err := oracle.GetPrice(context.Background(), unknown, 10143)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestGetPriceAcceptsStaleQuoteWithWarning(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)

	wethFeed := "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
	stale := freshQuote(3000)
	stale.PublishTime = time.Now().Add(-5 * time.Minute)

	oracle := New(stubOffchain{quotes: map[string]pyth.Quote{wethFeed: stale}}, reader)

	// Staleness is advisory: the quote is still served.
	price, err := oracle.GetPrice(context.Background(), wethBase, 84532)
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, price, 0.001)
}

func TestGetPricesPartialResults(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)

	wethFeed := "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
	oracle := New(stubOffchain{quotes: map[string]pyth.Quote{
		wethFeed: freshQuote(3000),
	}}, reader)

	prices, err := oracle.GetPrices(context.Background(), []string{wethBase, unknown}, 84532)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.InDelta(t, 3000.0, prices[wethBase], 0.001)
}

func TestGetPricesAllFailed(t *testing.T) {
	reader := mocks.NewMockReaderForTest(t)

	oracle := New(stubOffchain{err: errors.New("hermes down")}, reader)

	_, err := oracle.GetPrices(context.Background(), []string{unknown}, 10143)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}
