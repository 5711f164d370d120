package launchpad

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	lpsolana "launchpad/pkg/solana"
	"launchpad/pkg/utils"
)

type PlaceBidParams struct {
	Auction        solana.PublicKey `json:"auction"`
	PaymentCustody solana.PublicKey `json:"payment_custody"`
	Price          uint64           `json:"price"`
	Amount         uint64           `json:"amount"`
	BidType        BidType          `json:"bid_type"`
}

// BidResult is what one placeBid did. A zero FillAmount means the bid was recorded unfilled.
type BidResult struct {
	Bid        solana.PublicKey `json:"bid"`
	FillAmount uint64           `json:"fill_amount"`
	FillPrice  uint64           `json:"fill_price"`
	PayAmount  uint64           `json:"pay_amount"`
	Fee        uint64           `json:"fee"`
	Dispensed  []Transfer       `json:"dispensed"`
}

func (a *Auction) acceptsPayment(c *Custody) bool {
	switch {
	case c.Mint == lpsolana.NATIVE_MINT:
		return a.Payment.AcceptSol
	case c.IsStable:
		return a.Payment.AcceptUsdc
	default:
		return a.Payment.AcceptOtherTokens
	}
}

// checkBidWindow applies the public window and the whitelisted presale window
func (a *Auction) checkBidWindow(now int64, whitelisted bool) error {
	c := a.Common
	if a.ended(now) {
		return newError(ErrAuctionClosed, CodeAuctionEnded, "auction ended at %d", c.EndTime)
	}
	if c.PresaleEndTime != 0 && now >= c.PresaleStartTime && now < c.PresaleEndTime {
		if !whitelisted {
			return newError(ErrNotAuthorized, CodeNotWhitelisted, "presale is open to whitelisted bidders only")
		}
		return nil
	}
	if c.StartTime != 0 && now < c.StartTime {
		return newError(ErrAuctionClosed, CodeAuctionNotStarted, "auction starts at %d", c.StartTime)
	}
	return nil
}

func (a *Auction) limits(whitelisted bool) (order, fill uint64) {
	if whitelisted {
		return a.Common.OrderLimitWlAddress, a.Common.FillLimitWlAddress
	}
	return a.Common.OrderLimitRegAddress, a.Common.FillLimitRegAddress
}

// convertPayment turns an amount quoted in the pricing custody into the payment custody's
// units through both oracles, rounding up in the seller's favour
func (tx *txn) convertPayment(ctx context.Context, amount uint64, pricing, payment *Custody, now int64) (uint64, error) {
	if pricing.Mint == payment.Mint {
		return amount, nil
	}
	pricingPrice, err := tx.readPrice(ctx, pricing, now)
	if err != nil {
		return 0, err
	}
	paymentPrice, err := tx.readPrice(ctx, payment, now)
	if err != nil {
		return 0, err
	}
	value := utils.ToUIAmount(amount, pricing.Decimals).Mul(pricingPrice)
	converted := value.DivRound(paymentPrice, 18).Shift(int32(payment.Decimals))
	out, err := utils.DecimalToU64Ceil(converted)
	if err != nil {
		return 0, mathErr(err)
	}
	return out, nil
}

// recordFill folds one fill into a segment's running statistics
func recordFill(s *BidderStats, price, amount uint64) error {
	volume, err := add(s.FillsVolume, amount)
	if err != nil {
		return err
	}
	weighted, err := utils.AddU128(s.WeightedFillsSum, price, amount)
	if err != nil {
		return mathErr(err)
	}
	s.FillsVolume = volume
	s.WeightedFillsSum = weighted
	s.MinFillPrice = utils.MinU64(s.MinFillPrice, price)
	if price > s.MaxFillPrice {
		s.MaxFillPrice = price
	}
	s.NumTrades++
	return nil
}

// AverageFillPrice is the volume weighted fill price of a segment
func (s BidderStats) AverageFillPrice() decimal.Decimal {
	if s.FillsVolume == 0 {
		return decimal.Zero
	}
	return s.WeightedFillsSum.DivRound(utils.U64ToDecimal(s.FillsVolume), 6)
}

// PlaceBid buys up to p.Amount units at no more than p.Price, paying in p.PaymentCustody
func (e *Engine) PlaceBid(ctx context.Context, bidder solana.PublicKey, p PlaceBidParams) (BidResult, error) {
	var result BidResult
	fields := logrus.Fields{
		"bidder":  bidder.String(),
		"auction": p.Auction.String(),
		"price":   p.Price,
		"amount":  p.Amount,
		"type":    p.BidType.String(),
	}
	err := e.atomically("place_bid", fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		if !lp.Permissions.AllowNewBids {
			return newError(ErrPermissionDenied, CodeBidsNotAllowed, "new bids are disabled")
		}
		if p.Amount == 0 {
			return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "amount must be positive")
		}
		if p.Price == 0 {
			return newError(ErrInvalidConfig, CodeBidPriceTooSmall, "price must be positive")
		}
		if !p.BidType.Valid() {
			return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "unknown bid type %d", p.BidType)
		}
		a, err := tx.auction(p.Auction)
		if err != nil {
			return err
		}
		if !a.Enabled {
			return newError(ErrAuctionClosed, CodeAuctionDisabled, "auction %s is disabled", p.Auction)
		}
		now := tx.auctionTime(a)

		bidKey, err := e.pda.BidPDA(bidder, p.Auction)
		if err != nil {
			return err
		}
		bid := tx.bids.get(bidKey.Address)
		whitelisted := bid != nil && bid.Whitelisted
		if err := a.checkBidWindow(now, whitelisted); err != nil {
			return err
		}
		orderLimit, fillLimit := a.limits(whitelisted)
		if fillLimit == 0 {
			return newError(ErrLimitExceeded, CodeFillLimitExceeded, "this bidder segment cannot trade")
		}
		if orderLimit > 0 && p.Amount > orderLimit {
			return newError(ErrLimitExceeded, CodeOrderLimitExceeded, "order of %d exceeds limit %d", p.Amount, orderLimit)
		}
		var filled uint64
		if bid != nil {
			filled = bid.Filled
		}
		total, err := add(filled, p.Amount)
		if err != nil {
			return err
		}
		if total > fillLimit {
			return newError(ErrLimitExceeded, CodeFillLimitExceeded,
				"already filled %d, requested %d, limit %d", filled, p.Amount, fillLimit)
		}

		payment, err := tx.custody(p.PaymentCustody)
		if err != nil {
			return err
		}
		if !a.acceptsPayment(payment) {
			return newError(ErrPermissionDenied, CodePaymentNotAccepted, "auction does not accept %s", payment.Mint)
		}
		pricing, err := tx.custody(a.Pricing.Custody)
		if err != nil {
			return err
		}

		balances := tx.dispensingBalances(a)
		ratios := effectiveRatios(a, balances)
		inventory := inventoryUnits(balances, ratios, a.Pricing.UnitSize)
		available, err := a.AmountAt(p.Price, now, inventory)
		if err != nil {
			return err
		}
		if p.BidType == BidFOK && available < p.Amount {
			return newError(ErrInsufficientAmount, CodeInsufficientAmount,
				"fill-or-kill for %d, only %d available at %d", p.Amount, available, p.Price)
		}
		fill := utils.MinU64(available, p.Amount)

		if bid == nil {
			if err := tx.createDeposit(bidder, bidKey.Address, bidRecordSize); err != nil {
				return err
			}
			bid = &Bid{Owner: bidder, Auction: p.Auction, Bump: bidKey.Bump}
			tx.bids.put(bidKey.Address, bid)
		}
		bid.BidTime = now
		bid.BidPrice = p.Price
		bid.BidAmount = p.Amount
		bid.BidType = p.BidType
		result.Bid = bidKey.Address

		trade := &TradeEvent{
			Bidder:         bidder,
			Bid:            bidKey.Address,
			PaymentCustody: p.PaymentCustody,
			PaymentMint:    payment.Mint,
			Whitelisted:    whitelisted,
			BidType:        p.BidType,
			BidPrice:       p.Price,
			BidAmount:      p.Amount,
		}

		if fill == 0 {
			return tx.chargeInvalidBid(ctx, lp, a, bidder, p, pricing, payment, now, trade, &result)
		}

		quoted, err := mul(fill, p.Price)
		if err != nil {
			return err
		}
		pay, err := tx.convertPayment(ctx, quoted, pricing, payment, now)
		if err != nil {
			return err
		}
		fee, err := lp.Fees.Trade.Apply(pay)
		if err != nil {
			return err
		}
		if err := tx.transfer(payment.Mint, bidder, payment.TokenAccount, pay); err != nil {
			return err
		}
		if err := payment.accrueFee(fee); err != nil {
			return err
		}
		if lp.CollectedFees.TradeTokens, err = add(lp.CollectedFees.TradeTokens, fee); err != nil {
			return err
		}
		if err := tx.creditSeller(a.Owner, bidder, p.PaymentCustody, pay-fee); err != nil {
			return err
		}

		// zero ratios are frozen at the slot balances seen by the first trade
		if !a.traded() {
			for i := range a.activeTokens() {
				a.Tokens[i].Ratio = ratios[i]
			}
		}
		units, err := mul(fill, a.Pricing.UnitSize)
		if err != nil {
			return err
		}
		shares, err := split(units, ratios)
		if err != nil {
			return err
		}
		start := len(tx.transfers)
		for i, t := range a.activeTokens() {
			if err := tx.transfer(t.Mint, t.Account, bidder, shares[i]); err != nil {
				return err
			}
		}
		result.Dispensed = append([]Transfer(nil), tx.transfers[start:]...)

		bid.Filled = total - p.Amount + fill
		bid.FillTime = now
		bid.FillPrice = p.Price
		bid.FillAmount = fill
		if !a.traded() {
			a.Stats.FirstTradeTime = now
		}
		a.Stats.LastTradeTime = now
		a.Stats.LastAmount = fill
		a.Stats.LastPrice = p.Price
		if err := recordFill(a.segmentStats(whitelisted), p.Price, fill); err != nil {
			return err
		}

		result.FillAmount = fill
		result.FillPrice = p.Price
		result.PayAmount = pay
		result.Fee = fee
		trade.FillAmount = fill
		trade.PayAmount = pay
		trade.Fee = fee
		tx.emit(Event{Kind: EventTradeExecuted, Time: now, Auction: p.Auction, Trade: trade})
		return nil
	})
	if err != nil {
		return BidResult{}, err
	}
	return result, nil
}

// chargeInvalidBid records an immediate-or-cancel bid that filled nothing and charges the invalid bid fee
func (tx *txn) chargeInvalidBid(ctx context.Context, lp *Launchpad, a *Auction, bidder solana.PublicKey, p PlaceBidParams,
	pricing, payment *Custody, now int64, trade *TradeEvent, result *BidResult) error {
	notional, err := mul(p.Price, p.Amount)
	if err != nil {
		return err
	}
	fee := uint64(0)
	if lp.Fees.InvalidBid.Numerator > 0 {
		quoted, err := lp.Fees.InvalidBid.Apply(notional)
		if err != nil {
			return err
		}
		if fee, err = tx.convertPayment(ctx, quoted, pricing, payment, now); err != nil {
			return err
		}
	}
	if err := tx.transfer(payment.Mint, bidder, payment.TokenAccount, fee); err != nil {
		return err
	}
	if err := payment.accrueFee(fee); err != nil {
		return err
	}
	if lp.CollectedFees.InvalidBidTokens, err = add(lp.CollectedFees.InvalidBidTokens, fee); err != nil {
		return err
	}
	result.Fee = fee
	result.PayAmount = fee
	trade.PayAmount = fee
	trade.Fee = fee
	tx.emit(Event{Kind: EventBidUnfilled, Time: now, Auction: p.Auction, Trade: trade})
	return nil
}

// creditSeller adds net proceeds to the seller's balance in a custody, creating it on first use
func (tx *txn) creditSeller(seller, payer, custody solana.PublicKey, amount uint64) error {
	key, err := tx.e.pda.SellerBalancePDA(seller, custody)
	if err != nil {
		return err
	}
	sb := tx.sellerBalances.get(key.Address)
	if sb == nil {
		if err := tx.createDeposit(payer, key.Address, sellerBalanceRecordSize); err != nil {
			return err
		}
		sb = &SellerBalance{Owner: seller, Custody: custody, Bump: key.Bump}
		tx.sellerBalances.put(key.Address, sb)
	}
	next, err := add(sb.Balance, amount)
	if err != nil {
		return err
	}
	sb.Balance = next
	return nil
}

// WhitelistAdd marks bidders as whitelisted, creating their bid records at the seller's expense
func (e *Engine) WhitelistAdd(seller, auction solana.PublicKey, bidders []solana.PublicKey) error {
	return e.setWhitelisted("whitelist_add", seller, auction, bidders, true)
}

// WhitelistRemove clears the whitelist flag; bid records are kept
func (e *Engine) WhitelistRemove(seller, auction solana.PublicKey, bidders []solana.PublicKey) error {
	return e.setWhitelisted("whitelist_remove", seller, auction, bidders, false)
}

func (e *Engine) setWhitelisted(op string, seller, auction solana.PublicKey, bidders []solana.PublicKey, whitelisted bool) error {
	fields := logrus.Fields{"seller": seller.String(), "auction": auction.String(), "count": len(bidders)}
	return e.atomically(op, fields, func(tx *txn) error {
		lp, err := tx.launchpad()
		if err != nil {
			return err
		}
		if !lp.Permissions.AllowNewBids {
			return newError(ErrPermissionDenied, CodeBidsNotAllowed, "new bids are disabled")
		}
		a, err := tx.ownedAuction(auction, seller)
		if err != nil {
			return err
		}
		if !a.Enabled {
			return newError(ErrAuctionClosed, CodeAuctionDisabled, "auction %s is disabled", auction)
		}
		seen := mapset.NewThreadUnsafeSet[solana.PublicKey]()
		for _, bidder := range bidders {
			if bidder.IsZero() || !seen.Add(bidder) {
				continue
			}
			key, err := e.pda.BidPDA(bidder, auction)
			if err != nil {
				return err
			}
			bid := tx.bids.get(key.Address)
			if bid == nil {
				if err := tx.createDeposit(seller, key.Address, bidRecordSize); err != nil {
					return err
				}
				bid = &Bid{Owner: bidder, Auction: auction, SellerInitialized: true, Bump: key.Bump}
				tx.bids.put(key.Address, bid)
			}
			bid.Whitelisted = whitelisted
		}
		return nil
	})
}

// CancelBid closes a bid record and refunds its deposit to whoever created it.
// It still works after the auction has been deleted.
func (e *Engine) CancelBid(caller, bidder, auction solana.PublicKey) error {
	fields := logrus.Fields{"caller": caller.String(), "bidder": bidder.String(), "auction": auction.String()}
	return e.atomically("cancel_bid", fields, func(tx *txn) error {
		key, err := e.pda.BidPDA(bidder, auction)
		if err != nil {
			return err
		}
		bid := tx.bids.get(key.Address)
		if bid == nil {
			return notFound(fmt.Sprintf("bid of %s on %s", bidder, auction))
		}
		a := tx.auctions.get(auction)
		if caller != bid.Owner && (a == nil || caller != a.Owner) {
			return newError(ErrNotAuthorized, CodeNotBidParticipant, "%s is neither the bidder nor the seller", caller)
		}
		if a != nil && bid.Filled > 0 && !a.ended(tx.auctionTime(a)) {
			return newError(ErrPermissionDenied, CodeBidHasFills, "bid has fills and the auction is still running")
		}
		receiver := bid.Owner
		if bid.SellerInitialized && a != nil {
			receiver = a.Owner
		}
		if err := tx.closeDeposit(key.Address, receiver); err != nil {
			return err
		}
		tx.bids.remove(key.Address)
		return nil
	})
}
