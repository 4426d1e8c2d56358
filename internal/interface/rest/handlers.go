package rest

import (
	"net/http"
	"strconv"

	"github.com/0xYaper/Portal/internal/core/application"
	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/gin-gonic/gin"
)

type bridgeOutRequest struct {
	AssetID     uint64 `json:"asset_id"`
	Holder      string `json:"holder" binding:"required"`
	Recipient   string `json:"recipient"`
	Destination string `json:"destination" binding:"required"`
	Payment     uint64 `json:"payment"`
	RefundTo    string `json:"refund_to"`
}

func (s *Server) bridgeOut(c *gin.Context) {
	var req bridgeOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := s.svc.BridgeOut(c.Request.Context(), application.BridgeOutRequest{
		AssetID:     domain.AssetID(req.AssetID),
		Holder:      domain.Address(req.Holder),
		Recipient:   domain.Address(req.Recipient),
		Destination: domain.ChainID(req.Destination),
		Payment:     req.Payment,
		RefundTo:    domain.Address(req.RefundTo),
	})
	if err != nil {
		abortWithBridgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transfer_id":    receipt.TransferId,
		"message_handle": receipt.MessageHandle,
		"fee_paid":       receipt.FeePaid,
	})
}

func (s *Server) getInfo(c *gin.Context) {
	info, err := s.svc.GetInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	schedule := make(map[string]uint64, len(info.FeeSchedule))
	for chain, fee := range info.FeeSchedule {
		schedule[chain.String()] = fee
	}
	c.JSON(http.StatusOK, gin.H{
		"role":           info.Role,
		"chain_id":       info.ChainID,
		"paused":         info.Paused,
		"fee_schedule":   schedule,
		"escrow_balance": info.EscrowBalance,
	})
}

func (s *Server) listTransfers(c *gin.Context) {
	transfers, err := s.svc.ListTransfers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

func (s *Server) getLockStatus(c *gin.Context) {
	assetID, err := domain.ParseAssetID(c.Param("assetId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, getErr := s.custodian.GetLockStatus(c.Request.Context(), assetID)
	if getErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"locked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locked":          true,
		"original_holder": entry.OriginalHolder,
		"destination":     entry.Destination,
		"locked_at":       entry.LockedAt,
	})
}

func (s *Server) getRoyaltyInfo(c *gin.Context) {
	salePrice, err := strconv.ParseUint(c.DefaultQuery("sale_price", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale_price"})
		return
	}
	receiver, amount, getErr := s.issuer.GetRoyaltyInfo(c.Request.Context(), salePrice)
	if getErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"receiver": receiver,
		"amount":   amount,
	})
}

func (s *Server) pause(c *gin.Context) {
	if err := s.svc.Pause(c.Request.Context()); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) unpause(c *gin.Context) {
	if err := s.svc.Unpause(c.Request.Context()); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) setFeeSchedule(c *gin.Context) {
	var req map[string]uint64
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule := make(domain.FeeSchedule, len(req))
	for chain, fee := range req {
		schedule[domain.ChainID(chain)] = fee
	}
	if err := s.svc.SetFeeSchedule(c.Request.Context(), schedule); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_schedule": req})
}

type withdrawFeesRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

func (s *Server) withdrawFees(c *gin.Context) {
	var req withdrawFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := s.svc.WithdrawFees(c.Request.Context(), domain.Address(req.Recipient))
	if err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

type recoverRequest struct {
	AssetID   uint64 `json:"asset_id"`
	Recipient string `json:"recipient" binding:"required"`
}

func (s *Server) emergencyRecover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.EmergencyRecover(
		c.Request.Context(), domain.AssetID(req.AssetID), domain.Address(req.Recipient),
	); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recovered": true})
}

type setValidatorRequest struct {
	Address string `json:"address"`
}

func (s *Server) setTransferValidator(c *gin.Context) {
	var req setValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.issuer.SetTransferValidator(
		c.Request.Context(), domain.Address(req.Address),
	); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"validator": req.Address})
}

type setRoyaltyRequest struct {
	Receiver    string `json:"receiver"`
	BasisPoints uint64 `json:"basis_points"`
}

func (s *Server) setRoyaltyInfo(c *gin.Context) {
	var req setRoyaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.issuer.SetRoyaltyInfo(
		c.Request.Context(), domain.Address(req.Receiver), req.BasisPoints,
	); err != nil {
		abortWithBridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receiver": req.Receiver, "basis_points": req.BasisPoints})
}

func abortWithBridgeError(c *gin.Context, err domain.Error) {
	observeRejection(err)
	c.JSON(statusFromError(err), gin.H{
		"error": err.Error(),
		"code":  err.CodeName(),
		"class": err.Class(),
	})
}

func statusFromError(err domain.Error) int {
	switch err.Class() {
	case domain.PolicyViolation:
		switch err.CodeName() {
		case "UNAUTHORIZED":
			return http.StatusForbidden
		case "BRIDGE_PAUSED":
			return http.StatusServiceUnavailable
		default:
			return http.StatusBadRequest
		}
	case domain.InvariantViolation:
		return http.StatusConflict
	case domain.ExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
