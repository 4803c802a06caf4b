package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	httpClient "github.com/rebased/rebased-api/internal/client/http"
	"github.com/rebased/rebased-api/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second

	// quoteTTL bounds how long a returned route stays usable. Submitting a
	// quote past this window risks execution at a worse price than planned.
	quoteTTL = 30 * time.Second
)

// ErrQuoteStale marks a quote that aged out before submission. Retryable:
// the job fetches a fresh quote on the next attempt.
var ErrQuoteStale = errors.New("swap quote is stale")

// Client talks to the external DEX-aggregation service that finds the best
// swap route. Route construction and MEV handling live entirely on that side.
type Client struct {
	httpClient *httpClient.HTTPClient
	logger     *zap.Logger
}

// NewClient creates an aggregator client for the given base URL.
func NewClient(baseURL, apiKey string) *Client {
	options := []httpClient.ClientOption{
		httpClient.WithBaseURL(baseURL),
		httpClient.WithTimeout(defaultTimeout),
	}
	if apiKey != "" {
		options = append(options, httpClient.WithDefaultHeader("X-API-Key", apiKey))
	}
	return &Client{
		httpClient: httpClient.NewHTTPClient(options...),
		logger:     logger.Log,
	}
}

// QuoteRequest asks for the best route for one swap.
type QuoteRequest struct {
	ChainID   int64
	FromToken string
	ToToken   string
	Amount    *big.Int // smallest units of FromToken
	Taker     string   // smart account that executes the swap
}

// Quote is a priced route ready for execution.
type Quote struct {
	FromToken  string    `json:"fromToken"`
	ToToken    string    `json:"toToken"`
	FromAmount *big.Int  `json:"-"`
	ToAmount   *big.Int  `json:"-"`
	Target     string    `json:"target"`   // contract to call
	CallData   string    `json:"callData"` // hex-encoded swap calldata
	FetchedAt  time.Time `json:"-"`
}

// Expired reports whether the quote aged past its usable window.
func (q *Quote) Expired() bool {
	return time.Since(q.FetchedAt) > quoteTTL
}

type quoteResponse struct {
	ToAmount string `json:"toAmount"`
	Target   string `json:"target"`
	CallData string `json:"callData"`
}

// GetQuote fetches the best available route for the swap.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var resp quoteResponse
	err := c.httpClient.GetJSON(ctx, "/v1/quote", &resp,
		httpClient.WithQueryParam("chainId", fmt.Sprintf("%d", req.ChainID)),
		httpClient.WithQueryParam("sellToken", req.FromToken),
		httpClient.WithQueryParam("buyToken", req.ToToken),
		httpClient.WithQueryParam("sellAmount", req.Amount.String()),
		httpClient.WithQueryParam("taker", req.Taker),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregator quote failed: %w", err)
	}

	toAmount, ok := new(big.Int).SetString(resp.ToAmount, 10)
	if !ok {
		return nil, fmt.Errorf("aggregator returned invalid toAmount %q", resp.ToAmount)
	}

	c.logger.Debug("Swap route quoted",
		zap.Int64("chain_id", req.ChainID),
		zap.String("sell", req.FromToken),
		zap.String("buy", req.ToToken),
		zap.String("to_amount", resp.ToAmount))

	return &Quote{
		FromToken:  req.FromToken,
		ToToken:    req.ToToken,
		FromAmount: req.Amount,
		ToAmount:   toAmount,
		Target:     resp.Target,
		CallData:   resp.CallData,
		FetchedAt:  time.Now(),
	}, nil
}
