package handlers

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"launchpad/internal/launchpad"
)

type UpdateAuctionRequest struct {
	Auction solana.PublicKey              `json:"auction"`
	Params  launchpad.UpdateAuctionParams `json:"params"`
}

type AuctionRequest struct {
	Auction solana.PublicKey `json:"auction"`
}

type TokensRequest struct {
	Auction solana.PublicKey `json:"auction"`
	Mint    solana.PublicKey `json:"mint"`
	Amount  uint64           `json:"amount"`
}

type WithdrawFundsRequest struct {
	Custody solana.PublicKey `json:"custody"`
	Amount  uint64           `json:"amount"`
}

type WhitelistRequest struct {
	Auction solana.PublicKey   `json:"auction"`
	Bidders []solana.PublicKey `json:"bidders"`
}

func (h *Handler) InitAuction(c *gin.Context) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.InitAuctionParams
	if !bind(c, &req) {
		return
	}
	auction, err := h.engine.InitAuction(seller, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"auction": auction})
}

func (h *Handler) UpdateAuction(c *gin.Context) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req UpdateAuctionRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.UpdateAuction(seller, req.Auction, req.Params); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auction": req.Auction})
}

func (h *Handler) EnableAuction(c *gin.Context) {
	h.toggleAuction(c, h.engine.EnableAuction)
}

func (h *Handler) DisableAuction(c *gin.Context) {
	h.toggleAuction(c, h.engine.DisableAuction)
}

func (h *Handler) toggleAuction(c *gin.Context, op func(seller, auction solana.PublicKey) error) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req AuctionRequest
	if !bind(c, &req) {
		return
	}
	if err := op(seller, req.Auction); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auction": req.Auction})
}

func (h *Handler) AddTokens(c *gin.Context) {
	h.moveTokens(c, h.engine.AddTokens)
}

func (h *Handler) RemoveTokens(c *gin.Context) {
	h.moveTokens(c, h.engine.RemoveTokens)
}

func (h *Handler) moveTokens(c *gin.Context, op func(seller, auction, mint solana.PublicKey, amount uint64) error) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req TokensRequest
	if !bind(c, &req) {
		return
	}
	if err := op(seller, req.Auction, req.Mint, req.Amount); err != nil {
		fail(c, err)
		return
	}
	view, err := h.engine.Auction(req.Auction)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) WithdrawFunds(c *gin.Context) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req WithdrawFundsRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.WithdrawFunds(seller, req.Custody, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"custody": req.Custody, "amount": req.Amount})
}

func (h *Handler) WhitelistAdd(c *gin.Context) {
	h.whitelist(c, h.engine.WhitelistAdd)
}

func (h *Handler) WhitelistRemove(c *gin.Context) {
	h.whitelist(c, h.engine.WhitelistRemove)
}

func (h *Handler) whitelist(c *gin.Context, op func(seller, auction solana.PublicKey, bidders []solana.PublicKey) error) {
	seller, ok := caller(c)
	if !ok {
		return
	}
	var req WhitelistRequest
	if !bind(c, &req) {
		return
	}
	if err := op(seller, req.Auction, req.Bidders); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auction": req.Auction, "bidders": len(req.Bidders)})
}
