package launchpad

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

type TokenParams struct {
	Mint  solana.PublicKey `json:"mint"`
	Ratio uint64           `json:"ratio"`
}

type InitAuctionParams struct {
	Enabled     bool          `json:"enabled"`
	Updatable   bool          `json:"updatable"`
	FixedAmount bool          `json:"fixed_amount"`
	Common      CommonParams  `json:"common"`
	Payment     PaymentParams `json:"payment"`
	Pricing     PricingParams `json:"pricing"`
	Tokens      []TokenParams `json:"tokens"`
}

type UpdateAuctionParams struct {
	Common      CommonParams  `json:"common"`
	Payment     PaymentParams `json:"payment"`
	Pricing     PricingParams `json:"pricing"`
	TokenRatios []uint64      `json:"token_ratios"`
}

func validateCommon(c CommonParams, now int64) error {
	if n := len(c.Name); n < MinAuctionNameLen || n > MaxAuctionNameLen {
		return newError(ErrInvalidConfig, CodeInvalidAuctionConfig,
			"name must be %d to %d bytes, got %d", MinAuctionNameLen, MaxAuctionNameLen, n)
	}
	if c.FillLimitRegAddress == 0 && c.FillLimitWlAddress == 0 {
		return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "at least one fill limit must be positive")
	}
	if c.StartTime != 0 || c.EndTime != 0 {
		if c.EndTime <= c.StartTime || c.EndTime <= now {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "end time %d must follow start %d and now %d",
				c.EndTime, c.StartTime, now)
		}
	}
	if c.PresaleStartTime != 0 || c.PresaleEndTime != 0 {
		// an open public window may follow the presale at any time
		publicWindow := c.StartTime != 0 || c.EndTime != 0
		if c.PresaleEndTime <= c.PresaleStartTime || c.PresaleEndTime <= now || (publicWindow && c.PresaleEndTime > c.StartTime) {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "presale [%d, %d) must end by start %d and after now",
				c.PresaleStartTime, c.PresaleEndTime, c.StartTime)
		}
	}
	return nil
}

func validatePricing(p PricingParams) error {
	invalid := func(format string, args ...interface{}) error {
		return newError(ErrInvalidConfig, CodeInvalidPricingConfig, format, args...)
	}
	if !p.PricingModel.Valid() || !p.RepriceFunction.Valid() || !p.AmountFunction.Valid() {
		return invalid("unknown pricing model or function")
	}
	if p.UnitSize == 0 || p.StartPrice == 0 {
		return invalid("unit size and start price must be positive")
	}
	switch p.PricingModel {
	case PricingFixed:
		if p.MinPrice != p.StartPrice || p.MaxPrice != p.StartPrice {
			return invalid("fixed pricing needs min = start = max")
		}
	case PricingDynamicDutchAuction:
		if p.MinPrice > p.StartPrice || p.StartPrice > p.MaxPrice {
			return invalid("prices must satisfy min <= start <= max")
		}
		if p.TickSize == 0 || p.AmountPerLevel == 0 || p.RepriceDelay < 0 {
			return invalid("tick size and amount per level must be positive")
		}
	}
	return nil
}

func (tx *txn) validateAuction(a *Auction, now int64) error {
	if err := validateCommon(a.Common, now); err != nil {
		return err
	}
	if !a.Payment.AcceptSol && !a.Payment.AcceptUsdc && !a.Payment.AcceptOtherTokens {
		return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "no payment method is accepted")
	}
	if err := validatePricing(a.Pricing); err != nil {
		return err
	}
	if !tx.custodies.exists(a.Pricing.Custody) {
		return newError(ErrInvalidConfig, CodeInvalidPricingConfig, "pricing custody %s is not registered", a.Pricing.Custody)
	}
	return nil
}

// chargeSolFee moves a fraction of the fee base from payer to the transfer authority
func (tx *txn) chargeSolFee(payer solana.PublicKey, f Fee) (uint64, error) {
	fee, err := f.Apply(tx.e.cfg.FeeBaseLamports)
	if err != nil {
		return 0, err
	}
	return fee, tx.transfer(Lamports, payer, tx.e.TransferAuthority(), fee)
}

// ownedAuction loads an auction and checks the caller is its seller
func (tx *txn) ownedAuction(key, seller solana.PublicKey) (*Auction, error) {
	a, err := tx.auction(key)
	if err != nil {
		return nil, err
	}
	if a.Owner != seller {
		return nil, newError(ErrNotAuthorized, CodeNotAuctionOwner, "%s does not own auction %s", seller, key)
	}
	return a, nil
}

func (a *Auction) slot(mint solana.PublicKey) (AuctionToken, error) {
	for _, t := range a.activeTokens() {
		if t.Mint == mint {
			return t, nil
		}
	}
	return AuctionToken{}, newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "auction does not dispense %s", mint)
}

// InitAuction creates an auction owned by seller and returns its address
func (e *Engine) InitAuction(seller solana.PublicKey, p InitAuctionParams) (solana.PublicKey, error) {
	var key solana.PublicKey
	fields := logrus.Fields{"seller": seller.String(), "name": p.Common.Name}
	err := e.atomically("init_auction", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		if !lp.Permissions.AllowNewAuctions {
			return newError(ErrPermissionDenied, CodeNewAuctionsNotAllowed, "new auctions are disabled")
		}
		if n := len(p.Common.Name); n < MinAuctionNameLen || n > MaxAuctionNameLen {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig,
				"name must be %d to %d bytes, got %d", MinAuctionNameLen, MaxAuctionNameLen, n)
		}
		pda, err := e.pda.AuctionPDA(p.Common.Name)
		if err != nil {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "%v", err)
		}
		if tx.auctions.exists(pda.Address) {
			return newError(ErrAlreadyInUse, CodeAccountAlreadyInUse, "auction %q already exists", p.Common.Name)
		}
		if len(p.Tokens) == 0 || len(p.Tokens) > MaxTokens {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "need 1 to %d dispensed tokens", MaxTokens)
		}

		now := tx.now()
		if e.cfg.TestMode {
			now = 0
		}
		a := &Auction{
			Owner:        seller,
			Enabled:      p.Enabled,
			Updatable:    p.Updatable,
			FixedAmount:  p.FixedAmount,
			Common:       p.Common,
			Payment:      p.Payment,
			Pricing:      p.Pricing,
			NumTokens:    uint8(len(p.Tokens)),
			CreationTime: now,
			UpdateTime:   now,
			Bump:         pda.Bump,
		}
		a.Stats.WlBidders = newBidderStats()
		a.Stats.RegBidders = newBidderStats()
		mints := mapset.NewThreadUnsafeSet[solana.PublicKey]()
		for i, t := range p.Tokens {
			if t.Mint.IsZero() || !mints.Add(t.Mint) {
				return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "dispensed mint %s is empty or repeated", t.Mint)
			}
			account, err := e.pda.DispensePDA(t.Mint, pda.Address)
			if err != nil {
				return err
			}
			a.Tokens[i] = AuctionToken{Ratio: t.Ratio, Mint: t.Mint, Account: account.Address}
		}
		if err := tx.validateAuction(a, now); err != nil {
			return err
		}

		fee, err := tx.chargeSolFee(seller, lp.Fees.NewAuction)
		if err != nil {
			return err
		}
		if lp.CollectedFees.NewAuctionSol, err = add(lp.CollectedFees.NewAuctionSol, fee); err != nil {
			return err
		}
		if err := tx.createDeposit(seller, pda.Address, auctionRecordSize); err != nil {
			return err
		}
		tx.auctions.put(pda.Address, a)
		key = pda.Address
		return nil
	})
	return key, err
}

// UpdateAuction replaces the configurable parameters of an updatable auction.
// The name is the auction's address seed and cannot change.
func (e *Engine) UpdateAuction(seller, auction solana.PublicKey, p UpdateAuctionParams) error {
	fields := logrus.Fields{"seller": seller.String(), "auction": auction.String()}
	return e.atomically("update_auction", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		if !lp.Permissions.AllowAuctionUpdates {
			return newError(ErrPermissionDenied, CodeAuctionUpdatesNotAllowed, "auction updates are disabled")
		}
		a, err := tx.ownedAuction(auction, seller)
		if err != nil {
			return err
		}
		if !a.Updatable {
			return newError(ErrPermissionDenied, CodeAuctionNotUpdatable, "auction %s is not updatable", auction)
		}
		if p.Common.Name != a.Common.Name {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig, "auction name cannot change")
		}
		if len(p.TokenRatios) != int(a.NumTokens) {
			return newError(ErrInvalidConfig, CodeInvalidAuctionConfig,
				"expected %d token ratios, got %d", a.NumTokens, len(p.TokenRatios))
		}
		now := tx.auctionTime(a)
		a.Common = p.Common
		a.Payment = p.Payment
		a.Pricing = p.Pricing
		for i, r := range p.TokenRatios {
			a.Tokens[i].Ratio = r
		}
		if err := tx.validateAuction(a, now); err != nil {
			return err
		}
		fee, err := tx.chargeSolFee(seller, lp.Fees.AuctionUpdate)
		if err != nil {
			return err
		}
		if lp.CollectedFees.AuctionUpdateSol, err = add(lp.CollectedFees.AuctionUpdateSol, fee); err != nil {
			return err
		}
		a.UpdateTime = now
		return nil
	})
}

func (e *Engine) setEnabled(op string, seller, auction solana.PublicKey, enabled bool) error {
	fields := logrus.Fields{"seller": seller.String(), "auction": auction.String()}
	return e.atomically(op, fields, func(tx *txn) error {
		a, err := tx.ownedAuction(auction, seller)
		if err != nil {
			return err
		}
		a.Enabled = enabled
		return nil
	})
}

func (e *Engine) EnableAuction(seller, auction solana.PublicKey) error {
	return e.setEnabled("enable_auction", seller, auction, true)
}

func (e *Engine) DisableAuction(seller, auction solana.PublicKey) error {
	return e.setEnabled("disable_auction", seller, auction, false)
}

// AddTokens deposits dispensed tokens from the seller into the auction's slot for mint
func (e *Engine) AddTokens(seller, auction, mint solana.PublicKey, amount uint64) error {
	fields := logrus.Fields{"seller": seller.String(), "auction": auction.String(), "mint": mint.String(), "amount": amount}
	return e.atomically("add_tokens", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		a, err := tx.ownedAuction(auction, seller)
		if err != nil {
			return err
		}
		if amount == 0 {
			return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "amount must be positive")
		}
		if a.started(tx.auctionTime(a)) {
			if a.FixedAmount {
				return newError(ErrPermissionDenied, CodeAuctionWithFixedAmount, "auction %s has a fixed amount", auction)
			}
			if !lp.Permissions.AllowAuctionRefills {
				return newError(ErrPermissionDenied, CodeAuctionRefillsNotAllowed, "refills of started auctions are disabled")
			}
		}
		slot, err := a.slot(mint)
		if err != nil {
			return err
		}
		return tx.transfer(mint, seller, slot.Account, amount)
	})
}

// RemoveTokens returns dispensed tokens to the seller
func (e *Engine) RemoveTokens(seller, auction, mint solana.PublicKey, amount uint64) error {
	fields := logrus.Fields{"seller": seller.String(), "auction": auction.String(), "mint": mint.String(), "amount": amount}
	return e.atomically("remove_tokens", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		a, err := tx.ownedAuction(auction, seller)
		if err != nil {
			return err
		}
		if amount == 0 {
			return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "amount must be positive")
		}
		now := tx.auctionTime(a)
		if a.started(now) && !a.ended(now) {
			if a.FixedAmount {
				return newError(ErrPermissionDenied, CodeAuctionWithFixedAmount, "auction %s has a fixed amount", auction)
			}
			if !lp.Permissions.AllowAuctionPullouts {
				return newError(ErrPermissionDenied, CodeAuctionPullOutsNotAllowed, "pull-outs from live auctions are disabled")
			}
		}
		slot, err := a.slot(mint)
		if err != nil {
			return err
		}
		return tx.transfer(mint, slot.Account, seller, amount)
	})
}

// WithdrawFunds pays out the seller's net trade proceeds held in custody
func (e *Engine) WithdrawFunds(seller, custody solana.PublicKey, amount uint64) error {
	fields := logrus.Fields{"seller": seller.String(), "custody": custody.String(), "amount": amount}
	return e.atomically("withdraw_funds", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		if !lp.Permissions.AllowWithdrawals {
			return newError(ErrPermissionDenied, CodeWithdrawalsNotAllowed, "withdrawals are disabled")
		}
		if amount == 0 {
			return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "amount must be positive")
		}
		c, err := tx.custody(custody)
		if err != nil {
			return err
		}
		key, err := e.pda.SellerBalancePDA(seller, custody)
		if err != nil {
			return err
		}
		sb := tx.sellerBalances.get(key.Address)
		if sb == nil {
			return notFound(fmt.Sprintf("seller balance of %s in %s", seller, custody))
		}
		if amount > sb.Balance {
			return newError(ErrInsufficientFunds, CodeInsufficientFunds, "balance %d, requested %d", sb.Balance, amount)
		}
		sb.Balance -= amount
		return tx.transfer(c.Mint, c.TokenAccount, seller, amount)
	})
}

// dispensingBalances are the current balances of each active slot
func (tx *txn) dispensingBalances(a *Auction) []uint64 {
	tokens := a.activeTokens()
	balances := make([]uint64, len(tokens))
	for i, t := range tokens {
		balances[i] = tx.balance(t.Account, t.Mint)
	}
	return balances
}

// inventory is how many whole units the auction can still dispense
func (tx *txn) inventory(a *Auction) uint64 {
	balances := tx.dispensingBalances(a)
	return inventoryUnits(balances, effectiveRatios(a, balances), a.Pricing.UnitSize)
}

// GetAuctionAmount is the amount a bid at price would fill right now
func (e *Engine) GetAuctionAmount(auction solana.PublicKey, price uint64) (uint64, error) {
	var amount uint64
	err := e.read(func(tx *txn) error {
		a, err := tx.auction(auction)
		if err != nil {
			return err
		}
		amount, err = a.AmountAt(price, tx.auctionTime(a), tx.inventory(a))
		return err
	})
	return amount, err
}

// GetAuctionPrice is the price needed to fill amount right now
func (e *Engine) GetAuctionPrice(auction solana.PublicKey, amount uint64) (uint64, error) {
	var price uint64
	err := e.read(func(tx *txn) error {
		a, err := tx.auction(auction)
		if err != nil {
			return err
		}
		price, err = a.PriceAt(amount, tx.auctionTime(a), tx.inventory(a))
		return err
	})
	return price, err
}
