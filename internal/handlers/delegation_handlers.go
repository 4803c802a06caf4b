package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rebased/rebased-api/internal/delegation"
)

// DelegationHandler handles delegation-related operations
type DelegationHandler struct {
	common *CommonServices
}

// NewDelegationHandler creates a new DelegationHandler instance
func NewDelegationHandler(common *CommonServices) *DelegationHandler {
	return &DelegationHandler{common: common}
}

// CreateDelegationRequest is the submission body for a signed delegation.
type CreateDelegationRequest struct {
	delegation.Payload
	StrategyID *uuid.UUID `json:"strategyId,omitempty"`
}

// CreateDelegation godoc
// @Summary Submit a signed delegation
// @Description Verifies the typed-data signature and stores the delegation
// @Tags delegations
// @Accept json
// @Produce json
// @Param delegation body CreateDelegationRequest true "Signed delegation"
// @Success 201 {object} db.Delegation
// @Failure 400 {object} ErrorResponse
// @Router /delegations [post]
func (h *DelegationHandler) CreateDelegation(c *gin.Context) {
	var req CreateDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid delegation payload", err)
		return
	}

	record, err := h.common.delegations.VerifyAndCreate(c.Request.Context(), req.Payload, req.StrategyID)
	if err != nil {
		switch {
		// All verification failures on submission are bad requests: the
		// payload itself is wrong for the claimed strategy.
		case errors.Is(err, delegation.ErrSignatureInvalid),
			errors.Is(err, delegation.ErrChainMismatch),
			errors.Is(err, delegation.ErrDelegatorMissing),
			errors.Is(err, delegation.ErrOwnershipMismatch):
			sendError(c, http.StatusBadRequest, err.Error(), err)
		default:
			handleDBError(c, err, "Strategy not found")
		}
		return
	}

	sendSuccess(c, http.StatusCreated, record)
}

// ListDelegations godoc
// @Summary List delegations for a delegator
// @Description Returns every delegation authorized by the given account
// @Tags delegations
// @Produce json
// @Param delegator query string true "Delegator address"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /delegations [get]
func (h *DelegationHandler) ListDelegations(c *gin.Context) {
	delegator := c.Query("delegator")
	if delegator == "" {
		sendError(c, http.StatusBadRequest, "Missing delegator query parameter", nil)
		return
	}

	items, err := h.common.db.ListDelegationsByDelegator(c.Request.Context(), delegator)
	if err != nil {
		handleDBError(c, err, "Delegations not found")
		return
	}
	sendList(c, items)
}

// GetDelegation godoc
// @Summary Get a delegation
// @Tags delegations
// @Produce json
// @Param delegation_id path string true "Delegation ID"
// @Success 200 {object} db.Delegation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /delegations/{delegation_id} [get]
func (h *DelegationHandler) GetDelegation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("delegation_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid delegation ID format", err)
		return
	}

	record, err := h.common.db.GetDelegation(c.Request.Context(), id)
	if err != nil {
		handleDBError(c, err, "Delegation not found")
		return
	}
	sendSuccess(c, http.StatusOK, record)
}

// LinkStrategyRequest attaches an existing delegation to a strategy.
type LinkStrategyRequest struct {
	StrategyID    uuid.UUID `json:"strategyId" binding:"required"`
	CallerAddress string    `json:"callerAddress" binding:"required"`
}

// LinkStrategy godoc
// @Summary Link a delegation to a strategy
// @Description Attaches the delegation to the strategy, deactivating any previous link
// @Tags delegations
// @Accept json
// @Produce json
// @Param delegation_id path string true "Delegation ID"
// @Param body body LinkStrategyRequest true "Link request"
// @Success 200 {object} db.Delegation
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /delegations/{delegation_id}/link-strategy [patch]
func (h *DelegationHandler) LinkStrategy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("delegation_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid delegation ID format", err)
		return
	}

	var req LinkStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid link request", err)
		return
	}

	linked, err := h.common.delegations.LinkToStrategy(c.Request.Context(), id, req.StrategyID, req.CallerAddress)
	if err != nil {
		switch {
		case errors.Is(err, delegation.ErrOwnershipMismatch):
			sendError(c, http.StatusForbidden, err.Error(), err)
		case errors.Is(err, delegation.ErrChainMismatch):
			sendError(c, http.StatusBadRequest, err.Error(), err)
		default:
			handleDBError(c, err, "Delegation or strategy not found")
		}
		return
	}
	sendSuccess(c, http.StatusOK, linked)
}

// RevokeDelegationRequest identifies the caller revoking a delegation.
type RevokeDelegationRequest struct {
	CallerAddress string `json:"callerAddress" binding:"required"`
}

// RevokeDelegation godoc
// @Summary Revoke a delegation
// @Description Deactivates the stored delegation and returns the data needed for on-chain withdrawal
// @Tags delegations
// @Accept json
// @Produce json
// @Param delegation_id path string true "Delegation ID"
// @Param body body RevokeDelegationRequest true "Revocation request"
// @Success 200 {object} delegation.RevocationInstructions
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /delegations/{delegation_id}/revoke [post]
func (h *DelegationHandler) RevokeDelegation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("delegation_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid delegation ID format", err)
		return
	}

	var req RevokeDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid revocation request", err)
		return
	}

	instructions, err := h.common.delegations.Revoke(c.Request.Context(), id, req.CallerAddress)
	if err != nil {
		if errors.Is(err, delegation.ErrOwnershipMismatch) {
			sendError(c, http.StatusForbidden, err.Error(), err)
			return
		}
		handleDBError(c, err, "Delegation not found")
		return
	}
	sendSuccess(c, http.StatusOK, instructions)
}
