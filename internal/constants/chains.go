package constants

import "strings"

// ChainConfig describes a supported EVM network.
type ChainConfig struct {
	ChainID           int64
	Name              string
	RPCURL            string
	RelayRPCURL       string // optional private relay endpoint, empty = submit via public RPC
	DelegationManager string // delegation framework contract used as the EIP-712 verifying contract
	NativeSymbol      string
	NativeDecimals    int32
	BlockExplorerURL  string
}

// Supported networks. The executor refuses strategies on chains outside this map.
var Chains = map[int64]ChainConfig{
	10143: {
		ChainID:           10143,
		Name:              "monad-testnet",
		RPCURL:            "https://testnet-rpc.monad.xyz",
		DelegationManager: "0xdb9B1e94B5b69Df7e401DDbedE43491141047dB3",
		NativeSymbol:      "MON",
		NativeDecimals:    18,
		BlockExplorerURL:  "https://testnet.monadexplorer.com",
	},
	84532: {
		ChainID:           84532,
		Name:              "base-sepolia",
		RPCURL:            "https://sepolia.base.org",
		DelegationManager: "0xdb9B1e94B5b69Df7e401DDbedE43491141047dB3",
		NativeSymbol:      "ETH",
		NativeDecimals:    18,
		BlockExplorerURL:  "https://sepolia.basescan.org",
	},
}

// GetChain returns the configuration for a chain id.
func GetChain(chainID int64) (ChainConfig, bool) {
	cfg, ok := Chains[chainID]
	return cfg, ok
}

// NativeTokenAddress sentinels. Some token lists use the zero address for the
// native asset, others use the all-Fs convention.
const (
	ZeroAddress       = "0x0000000000000000000000000000000000000000"
	NativeEEEAddress  = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	NativeFFFFAddress = "0xffffffffffffffffffffffffffffffffffffffff"
)

// IsNativeToken reports whether an address denotes the chain's native asset.
func IsNativeToken(address string) bool {
	switch strings.ToLower(address) {
	case ZeroAddress, NativeEEEAddress, NativeFFFFAddress:
		return true
	}
	return false
}

// stablecoins maps chainID -> lowercased token address -> symbol. Used as the
// oracle's last-resort tier: a registered stablecoin is worth exactly 1 USD
// when every price source is down.
var stablecoins = map[int64]map[string]string{
	10143: {
		"0xf817257fed379853cde0fa4f97ab987181b1e5ea": "USDC",
		"0x88b8e2161dedc77ef4ab7585569d2415a1c1055d": "USDT",
	},
	84532: {
		"0x036cbd53842c5426634e7929541ec2318f3dcf7e": "USDC",
	},
}

// IsStablecoin reports whether the token is a registered USD stablecoin on the chain.
func IsStablecoin(chainID int64, address string) bool {
	tokens, ok := stablecoins[chainID]
	if !ok {
		return false
	}
	_, ok = tokens[strings.ToLower(address)]
	return ok
}

// pythFeedIDs maps lowercased token address -> Pyth price feed id (hex, no 0x).
// Feeds are shared across chains; native sentinels resolve per chain below.
var pythFeedIDs = map[string]string{
	// USDC/USD
	"0xf817257fed379853cde0fa4f97ab987181b1e5ea": "eaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a",
	"0x036cbd53842c5426634e7929541ec2318f3dcf7e": "eaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a",
	// USDT/USD
	"0x88b8e2161dedc77ef4ab7585569d2415a1c1055d": "2b89b9dc8fdf9f34709a5b106b472f0f39bb6ca9ce04b0fd7f2e971688e2e53b",
	// WETH/USD
	"0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37": "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
	// WBTC/USD
	"0xcf5a6076cfa32686c0df13abada2b40dec133f1d": "c9d8b075a5c69303365ae23633d4e085199bf5c520a3b90fed1322a0342ffc33",
}

// nativeFeedIDs maps chainID -> Pyth feed id for the chain's native asset.
var nativeFeedIDs = map[int64]string{
	10143: "e786153cc54abd4b0e53b4c246d54d9f8eb3f3b5a34d4fc5a2e9a423b0ba5d6b", // MON/USD
	84532: "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace", // ETH/USD
}

// PythFeedID resolves the Pyth feed identifier for a token. ok is false when
// the token has no registered feed.
func PythFeedID(chainID int64, address string) (string, bool) {
	if IsNativeToken(address) {
		id, ok := nativeFeedIDs[chainID]
		return id, ok
	}
	id, ok := pythFeedIDs[strings.ToLower(address)]
	return id, ok
}

// chainlinkFeeds maps chainID -> lowercased token address -> on-chain
// aggregator contract for the oracle's second tier.
var chainlinkFeeds = map[int64]map[string]string{
	84532: {
		ZeroAddress: "0x4aDC67696bA383F43DD60A9e78F2C97Fbbfc7cb1", // ETH/USD
		"0x036cbd53842c5426634e7929541ec2318f3dcf7e": "0xd30e2101a97dcbAeBCBC04F14C3f624E67A35165", // USDC/USD
	},
}

// ChainlinkFeed resolves the on-chain aggregator address for a token.
func ChainlinkFeed(chainID int64, address string) (string, bool) {
	feeds, ok := chainlinkFeeds[chainID]
	if !ok {
		return "", false
	}
	key := strings.ToLower(address)
	if IsNativeToken(address) {
		key = ZeroAddress
	}
	feed, ok := feeds[key]
	return feed, ok
}
