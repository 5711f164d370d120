package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/launchpad"
)

// Init creates the launchpad; the signer must be the upgrade authority when one is configured
func (h *Handler) Init(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.InitParams
	if !bind(c, &req) {
		return
	}
	if err := h.engine.Init(signer, req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"launchpad":          h.engine.LaunchpadAddress(),
		"multisig":           h.engine.MultisigAddress(),
		"transfer_authority": h.engine.TransferAuthority(),
	})
}

func (h *Handler) SetAdminSigners(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetAdminSignersParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetAdminSigners(signer, req)
	quorum(c, status, err)
}

func (h *Handler) SetFees(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetFeesParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetFees(signer, req)
	quorum(c, status, err)
}

func (h *Handler) SetPermissions(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetPermissionsParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetPermissions(signer, req)
	quorum(c, status, err)
}

func (h *Handler) InitCustody(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.InitCustodyParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.InitCustody(signer, req)
	quorum(c, status, err)
}

func (h *Handler) SetOracleConfig(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetOracleConfigParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetOracleConfig(signer, req)
	quorum(c, status, err)
}

func (h *Handler) WithdrawFees(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.WithdrawFeesParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.WithdrawFees(signer, req)
	quorum(c, status, err)
}

func (h *Handler) DeleteAuction(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.DeleteAuctionParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.DeleteAuction(signer, req)
	quorum(c, status, err)
}

func (h *Handler) SetTestOraclePrice(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetTestOraclePriceParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetTestOraclePrice(signer, req)
	quorum(c, status, err)
}

func (h *Handler) SetTestTime(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.SetTestTimeParams
	if !bind(c, &req) {
		return
	}
	status, err := h.engine.SetTestTime(signer, req)
	quorum(c, status, err)
}
