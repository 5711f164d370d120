package launchpad

import (
	"math"

	"launchpad/pkg/utils"
)

// repriceDrop is how far the curve has fallen after steps reprice intervals
func repriceDrop(fn RepriceFunction, steps, coef, tick uint64) (uint64, error) {
	switch fn {
	case RepriceLinear:
		// coef is per mille of a tick per step
		ticks, err := utils.MulDiv(steps, coef, 1000)
		if err != nil {
			return math.MaxUint64, nil
		}
		drop, err := utils.CheckedMul(ticks, tick)
		if err != nil {
			return math.MaxUint64, nil
		}
		return drop, nil
	default:
		return 0, newError(ErrInvalidConfig, CodeInvalidPricingConfig, "reprice function %s", fn)
	}
}

// ladderAmount is the total amount offered by the first levels of the ladder
func ladderAmount(fn AmountFunction, levels, perLevel uint64) (uint64, error) {
	switch fn {
	case AmountFixed:
		v, err := utils.CheckedMul(levels, perLevel)
		if err != nil {
			return math.MaxUint64, nil
		}
		return v, nil
	default:
		return 0, newError(ErrInvalidConfig, CodeInvalidPricingConfig, "amount function %s", fn)
	}
}

// ladderLevels is the number of levels needed to cover amount
func ladderLevels(fn AmountFunction, amount, perLevel uint64) (uint64, error) {
	switch fn {
	case AmountFixed:
		return utils.CeilDiv(amount, perLevel), nil
	default:
		return 0, newError(ErrInvalidConfig, CodeInvalidPricingConfig, "amount function %s", fn)
	}
}

// repriceSteps counts whole reprice intervals since the auction's reference time.
// Before start, including the presale window, the curve has not moved.
func (a *Auction) repriceSteps(now int64) uint64 {
	ref := a.Common.StartTime
	if ref == 0 {
		ref = a.CreationTime
	}
	if a.Pricing.RepriceDelay <= 0 || now <= ref {
		return 0
	}
	return uint64((now - ref) / a.Pricing.RepriceDelay)
}

// BasePrice is the cheapest price on the ladder at now
func (a *Auction) BasePrice(now int64) (uint64, error) {
	p := a.Pricing
	switch p.PricingModel {
	case PricingFixed:
		return p.StartPrice, nil
	case PricingDynamicDutchAuction:
		drop, err := repriceDrop(p.RepriceFunction, a.repriceSteps(now), p.RepriceCoef, p.TickSize)
		if err != nil {
			return 0, err
		}
		base := p.MinPrice
		if p.StartPrice > drop && p.StartPrice-drop > p.MinPrice {
			base = p.StartPrice - drop
		}
		if base > p.MaxPrice {
			base = p.MaxPrice
		}
		return base, nil
	default:
		return 0, newError(ErrInvalidConfig, CodeInvalidPricingConfig, "pricing model %s", p.PricingModel)
	}
}

// AmountAt is how many units a bid at price can take at now, given inventory units on hand
func (a *Auction) AmountAt(price uint64, now int64, inventory uint64) (uint64, error) {
	p := a.Pricing
	base, err := a.BasePrice(now)
	if err != nil {
		return 0, err
	}
	if price < base {
		return 0, nil
	}
	if p.PricingModel == PricingFixed {
		return inventory, nil
	}
	top := utils.MinU64(price, p.MaxPrice)
	levels := (top-base)/p.TickSize + 1
	amount, err := ladderAmount(p.AmountFunction, levels, p.AmountPerLevel)
	if err != nil {
		return 0, err
	}
	return utils.MinU64(amount, inventory), nil
}

// PriceAt is the lowest price at which amount units can be bought at now
func (a *Auction) PriceAt(amount uint64, now int64, inventory uint64) (uint64, error) {
	p := a.Pricing
	if amount == 0 {
		return 0, newError(ErrInvalidConfig, CodeInvalidTokenAmount, "amount must be positive")
	}
	if amount > inventory {
		return 0, newError(ErrInsufficientAmount, CodeInsufficientAmount, "requested %d, available %d", amount, inventory)
	}
	base, err := a.BasePrice(now)
	if err != nil {
		return 0, err
	}
	if p.PricingModel == PricingFixed {
		return base, nil
	}
	levels, err := ladderLevels(p.AmountFunction, amount, p.AmountPerLevel)
	if err != nil {
		return 0, err
	}
	step, err := utils.CheckedMul(levels-1, p.TickSize)
	if err != nil {
		return 0, newError(ErrInvalidConfig, CodeBidAmountTooLarge, "amount %d is beyond the ladder", amount)
	}
	price, err := utils.CheckedAdd(base, step)
	if err != nil || price > p.MaxPrice {
		return 0, newError(ErrInvalidConfig, CodeBidAmountTooLarge, "amount %d would price above %d", amount, p.MaxPrice)
	}
	return price, nil
}

// effectiveRatios substitutes a zero ratio with the slot's balance until the first trade fixes it
func effectiveRatios(a *Auction, balances []uint64) []uint64 {
	ratios := make([]uint64, a.NumTokens)
	for i, t := range a.activeTokens() {
		ratios[i] = t.Ratio
		if t.Ratio == 0 && !a.traded() {
			ratios[i] = balances[i]
		}
	}
	return ratios
}

// split divides total across slots in proportion to ratios. Each slot gets the floor of
// its share and the rounding residual goes to the last slot with a non-zero ratio, so the
// shares always sum to total.
func split(total uint64, ratios []uint64) ([]uint64, error) {
	var sum uint64
	last := -1
	for i, r := range ratios {
		var err error
		if sum, err = add(sum, r); err != nil {
			return nil, err
		}
		if r > 0 {
			last = i
		}
	}
	if last < 0 {
		return nil, newError(ErrInsufficientAmount, CodeAuctionEmpty, "no dispensing slot has a ratio")
	}
	shares := make([]uint64, len(ratios))
	var given uint64
	for i, r := range ratios {
		share, err := mulDiv(total, r, sum)
		if err != nil {
			return nil, err
		}
		shares[i] = share
		given += share
	}
	shares[last] += total - given
	return shares, nil
}

func fits(units, unitSize uint64, balances, ratios []uint64) bool {
	total, err := utils.CheckedMul(units, unitSize)
	if err != nil {
		return false
	}
	shares, err := split(total, ratios)
	if err != nil {
		return false
	}
	for i, s := range shares {
		if s > balances[i] {
			return false
		}
	}
	return true
}

// inventoryUnits is the largest number of units whose distribution every slot can cover
func inventoryUnits(balances, ratios []uint64, unitSize uint64) uint64 {
	if unitSize == 0 {
		return 0
	}
	var sum uint64
	for _, r := range ratios {
		s, err := utils.CheckedAdd(sum, r)
		if err != nil {
			return 0
		}
		sum = s
	}
	if sum == 0 {
		return 0
	}
	hi := uint64(math.MaxUint64)
	for i, r := range ratios {
		if r == 0 {
			continue
		}
		tokens, err := utils.MulDiv(balances[i], sum, r)
		if err != nil {
			continue
		}
		hi = utils.MinU64(hi, tokens/unitSize)
	}
	lo := uint64(0)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if fits(mid, unitSize, balances, ratios) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
