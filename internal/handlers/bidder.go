package handlers

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"launchpad/internal/launchpad"
)

type CancelBidRequest struct {
	Auction solana.PublicKey `json:"auction"`
	// Bidder defaults to the signer; an auction owner names the bidder whose bid it cancels
	Bidder solana.PublicKey `json:"bidder"`
}

type AirdropRequest struct {
	Holder solana.PublicKey `json:"holder"`
	Mint   solana.PublicKey `json:"mint"`
	Amount uint64           `json:"amount"`
}

func (h *Handler) PlaceBid(c *gin.Context) {
	bidder, ok := caller(c)
	if !ok {
		return
	}
	var req launchpad.PlaceBidParams
	if !bind(c, &req) {
		return
	}
	result, err := h.engine.PlaceBid(c.Request.Context(), bidder, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CancelBid(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req CancelBidRequest
	if !bind(c, &req) {
		return
	}
	if req.Bidder.IsZero() {
		req.Bidder = signer
	}
	if err := h.engine.CancelBid(signer, req.Bidder, req.Auction); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auction": req.Auction, "bidder": req.Bidder})
}

// Airdrop funds a holder; the engine refuses outside test mode
func (h *Handler) Airdrop(c *gin.Context) {
	signer, ok := caller(c)
	if !ok {
		return
	}
	var req AirdropRequest
	if !bind(c, &req) {
		return
	}
	if req.Holder.IsZero() {
		req.Holder = signer
	}
	if err := h.engine.Airdrop(req.Holder, req.Mint, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"holder":  req.Holder,
		"mint":    req.Mint,
		"balance": h.engine.Balance(req.Holder, req.Mint),
	})
}
