package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	rpcCallTimeout   = 10 * time.Second
	receiptPollEvery = 2 * time.Second
)

var (
	erc20BalanceOfSelector  = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	latestRoundDataSelector = crypto.Keccak256([]byte("latestRoundData()"))[:4]
	decimalsSelector        = crypto.Keccak256([]byte("decimals()"))[:4]
)

// Reader is the chain read surface the analyzer and oracle depend on.
// Satisfied by *Client; mocked in tests.
type Reader interface {
	NativeBalance(ctx context.Context, chainID int64, owner string) (*big.Int, error)
	TokenBalance(ctx context.Context, chainID int64, token, owner string) (*big.Int, error)
	SuggestGasPrice(ctx context.Context, chainID int64) (*big.Int, error)
	ReadPriceFeed(ctx context.Context, chainID int64, feedAddress string) (float64, error)
}

// Client manages RPC connections per supported network.
type Client struct {
	clients map[int64]*ethclient.Client
	logger  *zap.Logger
}

// NewClient dials every configured network. Networks that fail to connect are
// skipped with a warning; at least one connection is required.
func NewClient(ctx context.Context) (*Client, error) {
	c := &Client{
		clients: make(map[int64]*ethclient.Client),
		logger:  logger.Log,
	}

	for chainID, cfg := range constants.Chains {
		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			c.logger.Warn("Failed to connect to network RPC",
				zap.String("network", cfg.Name),
				zap.Error(err))
			continue
		}
		c.clients[chainID] = client
		c.logger.Info("Connected to network RPC",
			zap.String("network", cfg.Name),
			zap.Int64("chain_id", chainID))
	}

	if len(c.clients) == 0 {
		return nil, fmt.Errorf("no RPC connections established")
	}
	return c, nil
}

// Close releases all RPC connections.
func (c *Client) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}

func (c *Client) client(chainID int64) (*ethclient.Client, error) {
	client, ok := c.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("no RPC client for chain %d", chainID)
	}
	return client, nil
}

// NativeBalance reads the native-asset balance of an account.
func (c *Client) NativeBalance(ctx context.Context, chainID int64, owner string) (*big.Int, error) {
	client, err := c.client(chainID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	balance, err := client.BalanceAt(callCtx, common.HexToAddress(owner), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance for %s: %w", owner, err)
	}
	return balance, nil
}

// TokenBalance reads an ERC-20 balanceOf. The calldata is hand-packed; a full
// ABI binding is overkill for a single view call.
func (c *Client) TokenBalance(ctx context.Context, chainID int64, token, owner string) (*big.Int, error) {
	client, err := c.client(chainID)
	if err != nil {
		return nil, err
	}

	tokenAddr := common.HexToAddress(token)
	data := make([]byte, 0, 4+32)
	data = append(data, erc20BalanceOfSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)...)

	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	out, err := client.CallContract(callCtx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf(%s) on %s: %w", owner, token, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("balanceOf on %s returned empty result", token)
	}
	return new(big.Int).SetBytes(out), nil
}

// SuggestGasPrice returns the current gas price in wei.
func (c *Client) SuggestGasPrice(ctx context.Context, chainID int64) (*big.Int, error) {
	client, err := c.client(chainID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	gasPrice, err := client.SuggestGasPrice(callCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

// ReadPriceFeed reads a Chainlink-style aggregator's latestRoundData and
// scales the answer by the feed's decimals. This is the oracle's on-chain
// tier: slower and a paid RPC call, but authoritative.
func (c *Client) ReadPriceFeed(ctx context.Context, chainID int64, feedAddress string) (float64, error) {
	client, err := c.client(chainID)
	if err != nil {
		return 0, err
	}

	feed := common.HexToAddress(feedAddress)

	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	out, err := client.CallContract(callCtx, ethereum.CallMsg{To: &feed, Data: latestRoundDataSelector}, nil)
	if err != nil {
		return 0, fmt.Errorf("latestRoundData on %s: %w", feedAddress, err)
	}
	// latestRoundData returns (roundId, answer, startedAt, updatedAt, answeredInRound),
	// five 32-byte words; answer is the second.
	if len(out) < 5*32 {
		return 0, fmt.Errorf("short latestRoundData response from %s: %d bytes", feedAddress, len(out))
	}
	answer := new(big.Int).SetBytes(out[32:64])
	if answer.Sign() <= 0 {
		return 0, fmt.Errorf("price feed %s returned non-positive answer", feedAddress)
	}

	decOut, err := client.CallContract(callCtx, ethereum.CallMsg{To: &feed, Data: decimalsSelector}, nil)
	if err != nil {
		return 0, fmt.Errorf("decimals on %s: %w", feedAddress, err)
	}
	if len(decOut) == 0 {
		return 0, fmt.Errorf("empty decimals response from %s", feedAddress)
	}
	decimals := new(big.Int).SetBytes(decOut).Int64()
	if decimals < 0 || decimals > 38 {
		return 0, fmt.Errorf("implausible feed decimals %d from %s", decimals, feedAddress)
	}

	price := new(big.Float).SetInt(answer)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil))
	value, _ := new(big.Float).Quo(price, scale).Float64()
	return value, nil
}

// Receipt summarizes a confirmed transaction's settlement.
type Receipt struct {
	TxHash      string
	Reverted    bool
	GasUsed     uint64
	GasPriceWei *big.Int
	GasCostWei  *big.Int
	BlockNumber uint64
}

// WaitForReceipt polls for the receipt of a submitted transaction until it
// confirms or the wait window elapses.
func (c *Client) WaitForReceipt(ctx context.Context, chainID int64, txHash string) (*Receipt, error) {
	client, err := c.client(chainID)
	if err != nil {
		return nil, err
	}

	hash := common.HexToHash(txHash)
	deadline := time.Now().Add(constants.ReceiptWaitTimeout)

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil {
			return buildReceipt(receipt, txHash), nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("failed to get receipt for %s: %w", txHash, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for receipt of %s", txHash)
		}

		select {
		case <-time.After(receiptPollEvery):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func buildReceipt(receipt *types.Receipt, txHash string) *Receipt {
	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	return &Receipt{
		TxHash:      txHash,
		Reverted:    receipt.Status == types.ReceiptStatusFailed,
		GasUsed:     receipt.GasUsed,
		GasPriceWei: gasPrice,
		GasCostWei:  new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), gasPrice),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
}
