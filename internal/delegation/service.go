package delegation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rebased/rebased-api/internal/constants"
	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Service verifies, persists and manages delegation grants.
type Service struct {
	queries db.Querier
	logger  *zap.Logger
}

// NewService creates a delegation service.
func NewService(queries db.Querier) *Service {
	return &Service{
		queries: queries,
		logger:  logger.Log,
	}
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// VerifyAndCreate validates a signed delegation payload and persists it.
// When a strategy id is supplied the payload is additionally checked against
// the strategy's owner, authorizing account and chain before the signature is
// re-verified, so the caller gets the precise failure.
func (s *Service) VerifyAndCreate(ctx context.Context, payload Payload, claimedStrategyID *uuid.UUID) (db.Delegation, error) {
	if _, ok := constants.GetChain(payload.ChainID); !ok {
		return db.Delegation{}, fmt.Errorf("chain %d is not supported: %w", payload.ChainID, ErrChainMismatch)
	}

	recovered, err := RecoverSigner(payload)
	if err != nil {
		s.logger.Warn("Delegation signature recovery failed",
			zap.Int64("chain_id", payload.ChainID),
			zap.Error(err))
		return db.Delegation{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	var strategyID pgtype.UUID
	if claimedStrategyID != nil {
		strat, err := s.queries.GetStrategy(ctx, *claimedStrategyID)
		if err != nil {
			return db.Delegation{}, fmt.Errorf("failed to load strategy %s: %w", claimedStrategyID, err)
		}
		if !sameAddress(recovered.Hex(), strat.OwnerAddress) {
			return db.Delegation{}, fmt.Errorf("signer %s is not the strategy owner: %w", recovered.Hex(), ErrOwnershipMismatch)
		}
		if !strat.SmartAccountAddress.Valid || strat.SmartAccountAddress.String == "" {
			return db.Delegation{}, ErrDelegatorMissing
		}
		if !sameAddress(strat.SmartAccountAddress.String, payload.Delegator) {
			return db.Delegation{}, fmt.Errorf("delegator %s does not match the strategy's authorizing account: %w",
				payload.Delegator, ErrOwnershipMismatch)
		}
		if strat.ChainID != payload.ChainID {
			return db.Delegation{}, fmt.Errorf("delegation signed for chain %d, strategy registered on chain %d: %w",
				payload.ChainID, strat.ChainID, ErrChainMismatch)
		}
		strategyID = pgtype.UUID{Bytes: *claimedStrategyID, Valid: true}
	}

	// Defense in depth: verify through a second code path before persisting.
	ok, err := VerifySignature(payload, recovered)
	if err != nil || !ok {
		s.logger.Error("Delegation signature re-verification diverged from recovery",
			zap.String("recovered", recovered.Hex()),
			zap.Error(err))
		return db.Delegation{}, ErrSignatureInvalid
	}

	user, err := s.queries.UpsertUserByAddress(ctx, recovered.Hex())
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	caveats, err := payload.CaveatsJSON()
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to encode caveats: %w", err)
	}

	authority := payload.Authority
	if authority == "" {
		authority = RootAuthority
	}

	record, err := s.queries.CreateDelegation(ctx, db.CreateDelegationParams{
		ID:         uuid.New(),
		UserID:     user.ID,
		ChainID:    payload.ChainID,
		Delegator:  payload.Delegator,
		Delegate:   payload.Delegate,
		Authority:  authority,
		Caveats:    caveats,
		Salt:       payload.Salt,
		Signature:  payload.Signature,
		StrategyID: strategyID,
	})
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to persist delegation: %w", err)
	}

	s.logger.Info("Delegation created",
		zap.String("delegation_id", record.ID.String()),
		zap.Int64("chain_id", record.ChainID),
		zap.String("delegator", record.Delegator),
		zap.String("delegate", record.Delegate))
	return record, nil
}

// LinkToStrategy attaches a delegation to a strategy. The caller must own
// both records and their chain ids must match. Any delegation previously
// linked to the strategy is deactivated so exactly one stays active.
func (s *Service) LinkToStrategy(ctx context.Context, delegationID, strategyID uuid.UUID, callerAddress string) (db.Delegation, error) {
	deleg, err := s.queries.GetDelegation(ctx, delegationID)
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to load delegation %s: %w", delegationID, err)
	}
	strat, err := s.queries.GetStrategy(ctx, strategyID)
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to load strategy %s: %w", strategyID, err)
	}

	if !sameAddress(strat.OwnerAddress, callerAddress) {
		return db.Delegation{}, fmt.Errorf("caller does not own strategy %s: %w", strategyID, ErrOwnershipMismatch)
	}
	callerOwnsDelegation := sameAddress(deleg.Delegator, callerAddress)
	if !callerOwnsDelegation && strat.SmartAccountAddress.Valid {
		// The delegator may be the strategy's smart account rather than the EOA.
		callerOwnsDelegation = sameAddress(deleg.Delegator, strat.SmartAccountAddress.String)
	}
	if !callerOwnsDelegation {
		return db.Delegation{}, fmt.Errorf("caller does not own delegation %s: %w", delegationID, ErrOwnershipMismatch)
	}
	if deleg.ChainID != strat.ChainID {
		return db.Delegation{}, fmt.Errorf("delegation on chain %d, strategy on chain %d: %w",
			deleg.ChainID, strat.ChainID, ErrChainMismatch)
	}

	if err := s.queries.DeactivateStrategyDelegations(ctx, strategyID); err != nil {
		return db.Delegation{}, fmt.Errorf("failed to deactivate previous delegations: %w", err)
	}

	linked, err := s.queries.LinkDelegationToStrategy(ctx, db.LinkDelegationToStrategyParams{
		ID:         delegationID,
		StrategyID: strategyID,
	})
	if err != nil {
		return db.Delegation{}, fmt.Errorf("failed to link delegation: %w", err)
	}

	s.logger.Info("Delegation linked to strategy",
		zap.String("delegation_id", delegationID.String()),
		zap.String("strategy_id", strategyID.String()))
	return linked, nil
}

// RevocationInstructions is what the owner's wallet needs to withdraw the
// capability on-chain. This service only flips the stored active flag; the
// on-chain disable is the user's own transaction.
type RevocationInstructions struct {
	Success                   bool    `json:"success"`
	OnChainRevocationRequired bool    `json:"onChainRevocationRequired"`
	DelegationData            Payload `json:"delegationData"`
	ContractAddress           string  `json:"contractAddress"`
	ChainID                   int64   `json:"chainId"`
}

// Revoke soft-revokes a delegation owned by the caller and returns the
// payload needed for on-chain withdrawal.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID, callerAddress string) (*RevocationInstructions, error) {
	deleg, err := s.queries.GetDelegation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load delegation %s: %w", id, err)
	}
	if !sameAddress(deleg.Delegator, callerAddress) {
		return nil, fmt.Errorf("caller does not own delegation %s: %w", id, ErrOwnershipMismatch)
	}

	revoked, err := s.queries.RevokeDelegation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke delegation: %w", err)
	}

	chainCfg, _ := constants.GetChain(revoked.ChainID)

	var caveats []Caveat
	if len(revoked.Caveats) > 0 {
		if err := json.Unmarshal(revoked.Caveats, &caveats); err != nil {
			return nil, fmt.Errorf("stored caveats are malformed: %w", err)
		}
	}

	s.logger.Info("Delegation revoked",
		zap.String("delegation_id", id.String()),
		zap.Int64("chain_id", revoked.ChainID))

	return &RevocationInstructions{
		Success:                   true,
		OnChainRevocationRequired: true,
		DelegationData: Payload{
			ChainID:   revoked.ChainID,
			Delegate:  revoked.Delegate,
			Delegator: revoked.Delegator,
			Authority: revoked.Authority,
			Caveats:   caveats,
			Salt:      revoked.Salt,
			Signature: revoked.Signature,
		},
		ContractAddress: chainCfg.DelegationManager,
		ChainID:         revoked.ChainID,
	}, nil
}
