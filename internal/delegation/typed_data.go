package delegation

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/rebased/rebased-api/internal/constants"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Typed-data domain constants for the delegation framework. This protocol
// version has no deadline field in the struct; deadline restrictions are
// expressed as caveats.
const (
	domainName    = "DelegationManager"
	domainVersion = "1"
)

// RootAuthority is the parent-delegation sentinel for a root grant:
// 32 bytes of 0xff.
const RootAuthority = "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

// Caveat narrows what a delegation permits: an enforcer contract plus its
// encoded terms.
type Caveat struct {
	Enforcer string `json:"enforcer"`
	Terms    string `json:"terms"`
}

// Payload is the signed delegation struct as submitted by a wallet.
type Payload struct {
	ChainID   int64    `json:"chainId"`
	Delegate  string   `json:"delegate"`
	Delegator string   `json:"delegator"`
	Authority string   `json:"authority"`
	Caveats   []Caveat `json:"caveats"`
	Salt      string   `json:"salt"` // uint256, decimal or 0x-hex
	Signature string   `json:"signature"`
}

// CaveatsJSON returns the caveats encoded for persistence. An absent list
// persists as an empty array, never null.
func (p Payload) CaveatsJSON() (json.RawMessage, error) {
	caveats := p.Caveats
	if caveats == nil {
		caveats = []Caveat{}
	}
	return json.Marshal(caveats)
}

// parseSalt accepts a uint256 salt in decimal or 0x-hex form.
func parseSalt(salt string) (*big.Int, error) {
	s := strings.TrimSpace(salt)
	if s == "" {
		return nil, fmt.Errorf("salt is empty")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	value, ok := new(big.Int).SetString(s, base)
	if !ok || value.Sign() < 0 || value.BitLen() > 256 {
		return nil, fmt.Errorf("invalid uint256 salt %q", salt)
	}
	return value, nil
}

// TypedData builds the EIP-712 structure for a delegation payload, using the
// delegation-framework contract for the payload's chain as the verifying
// contract.
func TypedData(payload Payload) (apitypes.TypedData, error) {
	chainCfg, ok := constants.GetChain(payload.ChainID)
	if !ok {
		return apitypes.TypedData{}, fmt.Errorf("unsupported chain %d", payload.ChainID)
	}

	salt, err := parseSalt(payload.Salt)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	caveats := make([]interface{}, 0, len(payload.Caveats))
	for _, c := range payload.Caveats {
		terms := c.Terms
		if terms == "" {
			terms = "0x"
		}
		caveats = append(caveats, map[string]interface{}{
			"enforcer": c.Enforcer,
			"terms":    terms,
		})
	}

	authority := payload.Authority
	if authority == "" {
		authority = RootAuthority
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Delegation": {
				{Name: "delegate", Type: "address"},
				{Name: "delegator", Type: "address"},
				{Name: "authority", Type: "bytes32"},
				{Name: "caveats", Type: "Caveat[]"},
				{Name: "salt", Type: "uint256"},
			},
			"Caveat": {
				{Name: "enforcer", Type: "address"},
				{Name: "terms", Type: "bytes"},
			},
		},
		PrimaryType: "Delegation",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(payload.ChainID),
			VerifyingContract: chainCfg.DelegationManager,
		},
		Message: apitypes.TypedDataMessage{
			"delegate":  payload.Delegate,
			"delegator": payload.Delegator,
			"authority": authority,
			"caveats":   caveats,
			"salt":      (*math.HexOrDecimal256)(salt),
		},
	}, nil
}

// HashTypedData computes the EIP-712 digest:
// keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func HashTypedData(typedData apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash message: %w", err)
	}
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(messageHash)))
	return crypto.Keccak256Hash(rawData), nil
}

// decodeSignature parses a 65-byte hex signature and normalizes V to {0,1}.
func decodeSignature(signature string) ([]byte, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("signature is not valid hex: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	// Wallets emit V as 27/28; go-ethereum recovery expects 0/1.
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return nil, fmt.Errorf("invalid recovery id %d", normalized[64])
	}
	return normalized, nil
}

// RecoverSigner recovers the address that signed the delegation payload.
func RecoverSigner(payload Payload) (common.Address, error) {
	typedData, err := TypedData(payload)
	if err != nil {
		return common.Address{}, err
	}
	digest, err := HashTypedData(typedData)
	if err != nil {
		return common.Address{}, err
	}
	sig, err := decodeSignature(payload.Signature)
	if err != nil {
		return common.Address{}, err
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifySignature independently checks the signature against an expected
// signer. This deliberately takes a different path than RecoverSigner
// (Ecrecover + VerifySignature instead of SigToPub) so implementation drift
// between the two surfaces as a verification failure.
func VerifySignature(payload Payload, expected common.Address) (bool, error) {
	typedData, err := TypedData(payload)
	if err != nil {
		return false, err
	}
	digest, err := HashTypedData(typedData)
	if err != nil {
		return false, err
	}
	sig, err := decodeSignature(payload.Signature)
	if err != nil {
		return false, err
	}

	pubKeyBytes, err := crypto.Ecrecover(digest.Bytes(), sig)
	if err != nil {
		return false, fmt.Errorf("ecrecover failed: %w", err)
	}
	if !crypto.VerifySignature(pubKeyBytes, digest.Bytes(), sig[:64]) {
		return false, nil
	}

	pubKey, err := crypto.UnmarshalPubkey(pubKeyBytes)
	if err != nil {
		return false, fmt.Errorf("recovered public key is malformed: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey) == expected, nil
}
