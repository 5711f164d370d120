package launchpad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dutchAuction() *Auction {
	a := &Auction{
		Common: CommonParams{StartTime: 1_000, EndTime: 10_000},
		Pricing: PricingParams{
			PricingModel:   PricingDynamicDutchAuction,
			StartPrice:     100,
			MaxPrice:       200,
			MinPrice:       50,
			RepriceDelay:   10,
			RepriceCoef:    500,
			AmountPerLevel: 10,
			TickSize:       10,
			UnitSize:       1,
		},
	}
	a.Stats.WlBidders = newBidderStats()
	a.Stats.RegBidders = newBidderStats()
	return a
}

func TestBasePrice(t *testing.T) {
	a := dutchAuction()
	cases := []struct {
		name string
		now  int64
		want uint64
	}{
		{"Before Start", 500, 100},
		{"At Start", 1_000, 100},
		{"Half Tick Per Step", 1_040, 80},
		{"Partial Interval", 1_049, 80},
		{"Floors At Min", 100_000, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.BasePrice(tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("Fixed Model Ignores Time", func(t *testing.T) {
		f := dutchAuction()
		f.Pricing.PricingModel = PricingFixed
		got, err := f.BasePrice(100_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), got)
	})
}

func TestLadder(t *testing.T) {
	a := dutchAuction()
	const now, inventory = 1_000, 1_000

	t.Run("Amount At Price", func(t *testing.T) {
		for price, want := range map[uint64]uint64{99: 0, 100: 10, 109: 10, 110: 20, 200: 110, 500: 110} {
			got, err := a.AmountAt(price, now, inventory)
			require.NoError(t, err)
			assert.Equal(t, want, got, "price %d", price)
		}
	})

	t.Run("Amount Is Capped By Inventory", func(t *testing.T) {
		got, err := a.AmountAt(200, now, 25)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), got)
	})

	t.Run("Price Round Trips Within A Level", func(t *testing.T) {
		for amount := uint64(1); amount <= 110; amount++ {
			price, err := a.PriceAt(amount, now, inventory)
			require.NoError(t, err)
			got, err := a.AmountAt(price, now, inventory)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, amount)
			assert.Less(t, got, amount+a.Pricing.AmountPerLevel)
		}
	})

	t.Run("Price Errors", func(t *testing.T) {
		_, err := a.PriceAt(111, now, inventory)
		assert.Equal(t, CodeBidAmountTooLarge, CodeOf(err))
		_, err = a.PriceAt(50, now, 40)
		assert.ErrorIs(t, err, ErrInsufficientAmount)
		_, err = a.PriceAt(0, now, inventory)
		assert.Equal(t, CodeInvalidTokenAmount, CodeOf(err))
	})

	t.Run("Fixed Model Sells Everything At One Price", func(t *testing.T) {
		f := dutchAuction()
		f.Pricing.PricingModel = PricingFixed
		got, err := f.AmountAt(100, now, inventory)
		require.NoError(t, err)
		assert.Equal(t, uint64(inventory), got)
		price, err := f.PriceAt(700, now, inventory)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), price)
	})
}

func TestDistribution(t *testing.T) {
	t.Run("Shares Sum Exactly", func(t *testing.T) {
		ratios := []uint64{3, 7, 11}
		for total := uint64(0); total < 500; total++ {
			shares, err := split(total, ratios)
			require.NoError(t, err)
			var sum uint64
			for _, s := range shares {
				sum += s
			}
			assert.Equal(t, total, sum)
		}
	})

	t.Run("Residual Goes To Last Active Slot", func(t *testing.T) {
		shares, err := split(10, []uint64{1, 1, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3, 3, 4, 0}, shares)
	})

	t.Run("No Ratio Means Empty Auction", func(t *testing.T) {
		_, err := split(10, []uint64{0, 0})
		assert.Equal(t, CodeAuctionEmpty, CodeOf(err))
	})

	t.Run("Inventory Fits Every Slot", func(t *testing.T) {
		balances := []uint64{1_000, 50}
		ratios := []uint64{10, 1}
		units := inventoryUnits(balances, ratios, 2)
		assert.True(t, fits(units, 2, balances, ratios))
		assert.False(t, fits(units+1, 2, balances, ratios))
		assert.Equal(t, uint64(0), inventoryUnits([]uint64{5}, []uint64{0}, 1))
	})

	t.Run("Zero Ratio Uses Balance Before First Trade", func(t *testing.T) {
		a := dutchAuction()
		a.NumTokens = 2
		a.Tokens[0].Ratio = 0
		a.Tokens[1].Ratio = 4
		assert.Equal(t, []uint64{900, 4}, effectiveRatios(a, []uint64{900, 100}))

		a.Stats.RegBidders.NumTrades = 1
		assert.Equal(t, []uint64{0, 4}, effectiveRatios(a, []uint64{900, 100}))
	})
}

func TestFees(t *testing.T) {
	t.Run("Monotonic In Amount", func(t *testing.T) {
		f := Fee{Numerator: 3, Denominator: 1_000}
		var prev uint64
		for amount := uint64(0); amount < 5_000; amount += 7 {
			got, err := f.Apply(amount)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, prev)
			assert.LessOrEqual(t, got, amount)
			prev = got
		}
	})

	t.Run("Large Amounts Do Not Overflow", func(t *testing.T) {
		got, err := Fee{Numerator: 1, Denominator: 2}.Apply(math.MaxUint64)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64/2), got)
	})

	t.Run("Validity", func(t *testing.T) {
		assert.True(t, Fee{}.Valid())
		assert.False(t, Fee{Numerator: 1}.Valid())
		assert.False(t, Fee{Numerator: 5, Denominator: 5}.Valid())
	})
}
