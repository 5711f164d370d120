package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/launchpad"
	"launchpad/pkg/config"
)

func recorderTradeEvent(kind launchpad.EventKind) launchpad.Event {
	return launchpad.Event{
		Kind:    kind,
		Op:      "place_bid",
		Time:    1_700_000_000,
		Auction: solana.NewWallet().PublicKey(),
		Trade: &launchpad.TradeEvent{
			Bidder:      solana.NewWallet().PublicKey(),
			Bid:         solana.NewWallet().PublicKey(),
			Whitelisted: true,
			BidType:     launchpad.BidIOC,
			BidPrice:    120,
			BidAmount:   50,
			FillAmount:  30,
			PayAmount:   3_600,
			Fee:         36,
		},
	}
}

func TestTradeRecordFromEvent(t *testing.T) {
	t.Run("Trade Maps Every Field", func(t *testing.T) {
		ev := recorderTradeEvent(launchpad.EventTradeExecuted)
		rec, ok := TradeRecordFromEvent(ev)
		require.True(t, ok)
		assert.Equal(t, "trade_executed", rec.Kind)
		assert.Equal(t, ev.Auction.String(), rec.Auction)
		assert.Equal(t, ev.Trade.Bidder.String(), rec.Bidder)
		assert.Equal(t, ev.Trade.BidType.String(), rec.BidType)
		assert.True(t, rec.Whitelisted)
		assert.Equal(t, "3600", rec.PayAmount.String())
		assert.Equal(t, "36", rec.Fee.String())
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), rec.TradeTime)
	})

	t.Run("Unfilled Bid Is Recorded", func(t *testing.T) {
		ev := recorderTradeEvent(launchpad.EventBidUnfilled)
		ev.Trade.FillAmount, ev.Trade.PayAmount, ev.Trade.Fee = 0, 0, 1
		rec, ok := TradeRecordFromEvent(ev)
		require.True(t, ok)
		assert.Equal(t, "bid_unfilled", rec.Kind)
		assert.True(t, rec.FillAmount.IsZero())
	})

	t.Run("Other Kinds Are Skipped", func(t *testing.T) {
		_, ok := TradeRecordFromEvent(launchpad.Event{Kind: launchpad.EventQuorumExecuted})
		assert.False(t, ok)
		_, ok = TradeRecordFromEvent(launchpad.Event{Kind: launchpad.EventTradeExecuted})
		assert.False(t, ok)
	})
}

func TestRecorderHandle(t *testing.T) {
	r := NewRecorder(nil)

	t.Run("Malformed Message Is Discarded", func(t *testing.T) {
		err := r.Handle([]byte("{not json"))
		assert.ErrorIs(t, err, config.ErrDiscard)
	})

	t.Run("Non Trade Event Is Acked", func(t *testing.T) {
		msg, err := json.Marshal(launchpad.Event{Kind: launchpad.EventAuctionDeleted, Op: "delete_auction"})
		require.NoError(t, err)
		assert.NoError(t, r.Handle(msg))
	})
}
