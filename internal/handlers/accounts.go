package handlers

import (
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"launchpad/internal/launchpad"
	lpsolana "launchpad/pkg/solana"
)

func (h *Handler) Addresses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"program_id":         h.engine.Deriver().ProgramID,
		"launchpad":          h.engine.LaunchpadAddress(),
		"multisig":           h.engine.MultisigAddress(),
		"transfer_authority": h.engine.TransferAuthority(),
		"test_mode":          h.engine.Config().TestMode,
	})
}

func (h *Handler) GetLaunchpad(c *gin.Context) {
	lp, err := h.engine.Launchpad()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lp)
}

func (h *Handler) GetMultisig(c *gin.Context) {
	ms, err := h.engine.Multisig()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

func (h *Handler) ListCustodies(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Custodies())
}

func (h *Handler) GetCustody(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	custody, err := h.engine.Custody(key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, launchpad.CustodyView{Address: key, Custody: custody})
}

// GetCustodyPrice returns the validated oracle price used for payment conversion
func (h *Handler) GetCustodyPrice(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	price, err := h.engine.OraclePrice(c.Request.Context(), key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price, "decimal": price.Decimal().String()})
}

func (h *Handler) GetTestOracle(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	price, err := h.engine.TestOracle(key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *Handler) ListAuctions(c *gin.Context) {
	auctions, err := h.engine.Auctions()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, auctions)
}

func (h *Handler) GetAuction(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	view, err := h.engine.Auction(key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func uintQuery(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}

// GetAuctionPrice quotes the price of ?amount units
func (h *Handler) GetAuctionPrice(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	amount, ok := uintQuery(c, "amount")
	if !ok {
		return
	}
	price, err := h.engine.GetAuctionPrice(key, amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount, "price": price})
}

// GetAuctionAmount quotes how many units are available at ?price
func (h *Handler) GetAuctionAmount(c *gin.Context) {
	key, ok := addressParam(c, "address")
	if !ok {
		return
	}
	price, ok := uintQuery(c, "price")
	if !ok {
		return
	}
	amount, err := h.engine.GetAuctionAmount(key, price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price, "amount": amount})
}

// derived resolves an account either from its path address or from the query keys it is derived from
func derived(c *gin.Context, derive func(a, b solana.PublicKey) (lpsolana.PDAResult, error), first, second string) (solana.PublicKey, bool) {
	if c.Param("address") != "" {
		return addressParam(c, "address")
	}
	a, errA := solana.PublicKeyFromBase58(c.Query(first))
	b, errB := solana.PublicKeyFromBase58(c.Query(second))
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide " + first + " and " + second})
		return solana.PublicKey{}, false
	}
	pda, err := derive(a, b)
	if err != nil {
		fail(c, err)
		return solana.PublicKey{}, false
	}
	return pda.Address, true
}

func (h *Handler) GetBid(c *gin.Context) {
	key, ok := derived(c, h.engine.Deriver().BidPDA, "owner", "auction")
	if !ok {
		return
	}
	bid, err := h.engine.Bid(key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": key, "bid": bid})
}

func (h *Handler) GetSellerBalance(c *gin.Context) {
	key, ok := derived(c, h.engine.Deriver().SellerBalancePDA, "owner", "custody")
	if !ok {
		return
	}
	sb, err := h.engine.SellerBalance(key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": key, "seller_balance": sb})
}

// GetBalance reports an asset ledger balance; the mint "sol" selects lamports
func (h *Handler) GetBalance(c *gin.Context) {
	holder, ok := addressParam(c, "holder")
	if !ok {
		return
	}
	mint := launchpad.Lamports
	if m := c.Param("mint"); m != "sol" {
		var err error
		if mint, err = solana.PublicKeyFromBase58(m); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mint format"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"holder": holder, "mint": mint, "amount": h.engine.Balance(holder, mint)})
}
