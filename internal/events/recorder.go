package events

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"launchpad/internal/launchpad"
	"launchpad/internal/models"
	"launchpad/pkg/config"
	"launchpad/pkg/utils"
)

// TradeRecordFromEvent maps a bid outcome to its history row; other kinds have none
func TradeRecordFromEvent(ev launchpad.Event) (*models.TradeRecord, bool) {
	if ev.Trade == nil || (ev.Kind != launchpad.EventTradeExecuted && ev.Kind != launchpad.EventBidUnfilled) {
		return nil, false
	}
	t := ev.Trade
	return &models.TradeRecord{
		Kind:           string(ev.Kind),
		Auction:        ev.Auction.String(),
		Bidder:         t.Bidder.String(),
		Bid:            t.Bid.String(),
		PaymentCustody: t.PaymentCustody.String(),
		PaymentMint:    t.PaymentMint.String(),
		Whitelisted:    t.Whitelisted,
		BidType:        t.BidType.String(),
		BidPrice:       utils.U64ToDecimal(t.BidPrice),
		BidAmount:      utils.U64ToDecimal(t.BidAmount),
		FillAmount:     utils.U64ToDecimal(t.FillAmount),
		PayAmount:      utils.U64ToDecimal(t.PayAmount),
		Fee:            utils.U64ToDecimal(t.Fee),
		TradeTime:      time.Unix(ev.Time, 0).UTC(),
	}, true
}

// Recorder writes queued bid outcomes into the trade history table
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Handle consumes one queue message. Undecodable messages are discarded,
// database failures are returned so the message is requeued.
func (r *Recorder) Handle(msg []byte) error {
	var ev launchpad.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		return fmt.Errorf("%w: decode event: %v", config.ErrDiscard, err)
	}
	record, ok := TradeRecordFromEvent(ev)
	if !ok {
		log.WithFields(log.Fields{"kind": ev.Kind, "op": ev.Op}).Debug("event has no trade history")
		return nil
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("save trade record: %w", err)
	}
	log.WithFields(log.Fields{
		"auction": record.Auction,
		"bidder":  record.Bidder,
		"fill":    record.FillAmount.String(),
	}).Info("trade recorded")
	return nil
}
