package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	httpClient "github.com/rebased/rebased-api/internal/client/http"
	"github.com/rebased/rebased-api/internal/logger"

	"go.uber.org/zap"
)

const defaultTimeout = 3 * time.Minute // blockchain submission can be slow

// Client talks to the execution relay: the external service that redeems a
// delegation on-chain with the prepared batch of calls. When the relay is
// configured with a private mempool endpoint the submission bypasses public
// ordering; that choice is the relay's, not ours.
type Client struct {
	httpClient *httpClient.HTTPClient
	logger     *zap.Logger
}

// NewClient creates a relay client for the given base URL.
func NewClient(baseURL, apiKey string) *Client {
	options := []httpClient.ClientOption{
		httpClient.WithBaseURL(baseURL),
		httpClient.WithTimeout(defaultTimeout),
	}
	if apiKey != "" {
		options = append(options, httpClient.WithDefaultHeader("Authorization", "Bearer "+apiKey))
	}
	return &Client{
		httpClient: httpClient.NewHTTPClient(options...),
		logger:     logger.Log,
	}
}

// Call is one contract invocation executed under the delegation.
type Call struct {
	Target   string `json:"target"`
	Value    string `json:"value"`    // wei, decimal string
	CallData string `json:"callData"` // hex
}

// RedeemRequest asks the relay to execute calls under a signed delegation.
type RedeemRequest struct {
	ChainID    int64           `json:"chainId"`
	Delegation json.RawMessage `json:"delegation"` // signed delegation payload
	Calls      []Call          `json:"calls"`
	UsePrivate bool            `json:"usePrivate"` // prefer a private relay when available
}

type redeemResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error,omitempty"`
}

// Redeem submits the delegated execution and returns the transaction hash.
// Confirmation is the caller's job via the chain client.
func (c *Client) Redeem(ctx context.Context, req RedeemRequest) (string, error) {
	resp, err := c.httpClient.Post(ctx, "/v1/redeem", req)
	if err != nil {
		return "", fmt.Errorf("relay redemption failed: %w", err)
	}
	defer resp.Body.Close()

	var out redeemResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode relay response: %w", err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("relay returned no transaction hash: %s", out.Error)
	}

	c.logger.Info("Delegated execution submitted",
		zap.Int64("chain_id", req.ChainID),
		zap.Int("calls", len(req.Calls)),
		zap.String("tx_hash", out.TxHash))
	return out.TxHash, nil
}
