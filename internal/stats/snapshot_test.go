package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/launchpad"
)

type fakeSource struct {
	views     []launchpad.AuctionView
	custodies []launchpad.CustodyView
	prices    map[solana.PublicKey]error
}

func (f *fakeSource) Auctions() ([]launchpad.AuctionView, error) { return f.views, nil }
func (f *fakeSource) Custodies() []launchpad.CustodyView         { return f.custodies }

func (f *fakeSource) OraclePrice(_ context.Context, key solana.PublicKey) (launchpad.OraclePrice, error) {
	return launchpad.OraclePrice{Price: 1}, f.prices[key]
}

func TestSnapshot(t *testing.T) {
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Average Spans Both Segments", func(t *testing.T) {
		view := launchpad.AuctionView{
			Address:   solana.NewWallet().PublicKey(),
			BasePrice: 90,
			Inventory: 940,
		}
		view.Auction.Common.Name = "genesis-sale"
		view.Auction.Enabled = true
		view.Auction.Stats.LastPrice = 110
		view.Auction.Stats.WlBidders.FillsVolume = 20
		view.Auction.Stats.WlBidders.WeightedFillsSum = decimal.NewFromInt(2_000)
		view.Auction.Stats.WlBidders.NumTrades = 1
		view.Auction.Stats.RegBidders.FillsVolume = 40
		view.Auction.Stats.RegBidders.WeightedFillsSum = decimal.NewFromInt(4_400)
		view.Auction.Stats.RegBidders.NumTrades = 2

		snap := Snapshot(view, at)
		assert.Equal(t, view.Address.String(), snap.Auction)
		assert.Equal(t, "genesis-sale", snap.Name)
		assert.Equal(t, "90", snap.BasePrice.String())
		assert.Equal(t, "940", snap.Inventory.String())
		assert.Equal(t, "6400", snap.WeightedFillsSum.String())
		assert.True(t, decimal.RequireFromString("106.666667").Equal(snap.AverageFillPrice))
		assert.Equal(t, uint64(3), snap.NumTrades)
		assert.Equal(t, at, snap.SnapshotTime)
	})

	t.Run("Untraded Auction Averages Zero", func(t *testing.T) {
		view := launchpad.AuctionView{Address: solana.NewWallet().PublicKey()}
		view.Auction.Stats.WlBidders.WeightedFillsSum = decimal.Zero
		view.Auction.Stats.RegBidders.WeightedFillsSum = decimal.Zero
		snap := Snapshot(view, at)
		assert.True(t, snap.AverageFillPrice.IsZero())
	})

	t.Run("One Row Per Auction", func(t *testing.T) {
		src := &fakeSource{views: make([]launchpad.AuctionView, 3)}
		rows, err := Snapshots(src, at)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}

func TestStaleOracles(t *testing.T) {
	fresh, stale, broken := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	src := &fakeSource{
		custodies: []launchpad.CustodyView{{Address: fresh}, {Address: stale}, {Address: broken}},
		prices: map[solana.PublicKey]error{
			stale:  launchpad.ErrStaleOracle,
			broken: errors.New("rpc unavailable"),
		},
	}
	assert.Equal(t, []solana.PublicKey{stale}, StaleOracles(context.Background(), src))
}
