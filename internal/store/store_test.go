package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/launchpad"
)

func TestNetDeltas(t *testing.T) {
	a, b, c := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	t.Run("Round Trip Cancels Out", func(t *testing.T) {
		deltas := netDeltas([]launchpad.Transfer{
			{Mint: mint, From: a, To: b, Amount: 10},
			{Mint: mint, From: b, To: a, Amount: 10},
		})
		assert.Empty(t, deltas)
	})

	t.Run("Chain Nets Per Holder", func(t *testing.T) {
		deltas := netDeltas([]launchpad.Transfer{
			{Mint: mint, From: a, To: b, Amount: 10},
			{Mint: mint, From: b, To: c, Amount: 4},
			{Mint: launchpad.Lamports, From: c, To: a, Amount: math.MaxUint64},
		})
		assert.Equal(t, "-10", deltas[holding{a.String(), mint.String()}].String())
		assert.Equal(t, "6", deltas[holding{b.String(), mint.String()}].String())
		assert.Equal(t, "4", deltas[holding{c.String(), mint.String()}].String())
		assert.Equal(t, "18446744073709551615", deltas[holding{a.String(), launchpad.Lamports.String()}].String())
	})
}

func TestRecords(t *testing.T) {
	key := solana.NewWallet().PublicKey()

	t.Run("Seller Balance Keeps Full Range", func(t *testing.T) {
		sb := &launchpad.SellerBalance{
			Owner:   solana.NewWallet().PublicKey(),
			Custody: solana.NewWallet().PublicKey(),
			Balance: math.MaxUint64,
			Bump:    254,
		}
		row := sellerBalanceRow(key, sb)
		assert.Equal(t, "18446744073709551615", row.Balance.String())

		gotKey, got, err := sellerBalanceFromRow(row)
		require.NoError(t, err)
		assert.Equal(t, key, gotKey)
		assert.Equal(t, sb, got)
	})

	t.Run("Auction Payload Decodes", func(t *testing.T) {
		a := &launchpad.Auction{
			Owner:     solana.NewWallet().PublicKey(),
			Enabled:   true,
			Common:    launchpad.CommonParams{Name: "genesis-sale", StartTime: 10, EndTime: 20},
			Pricing:   launchpad.PricingParams{PricingModel: launchpad.PricingDynamicDutchAuction, StartPrice: 5},
			NumTokens: 1,
		}
		a.Stats.RegBidders.WeightedFillsSum = decimal.RequireFromString("340282366920938463463374607431768211455")
		row, err := auctionRow(key, a)
		require.NoError(t, err)
		assert.Equal(t, "genesis-sale", row.Name)
		assert.Equal(t, int64(20), row.EndTime)

		var back launchpad.Auction
		gotKey, err := decode(row.Address, row.Data, &back)
		require.NoError(t, err)
		assert.Equal(t, key, gotKey)
		assert.Equal(t, a.Common, back.Common)
		assert.Equal(t, a.Pricing.PricingModel, back.Pricing.PricingModel)
		assert.True(t, a.Stats.RegBidders.WeightedFillsSum.Equal(back.Stats.RegBidders.WeightedFillsSum))
	})

	t.Run("Bad Address Is Rejected", func(t *testing.T) {
		var v launchpad.Bid
		_, err := decode("not-base58!", json.RawMessage(`{}`), &v)
		assert.Error(t, err)
	})
}
