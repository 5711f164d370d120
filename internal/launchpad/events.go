package launchpad

import (
	"github.com/gagliardetto/solana-go"
)

type EventKind string

const (
	EventTradeExecuted   EventKind = "trade_executed"
	EventBidUnfilled     EventKind = "bid_unfilled"
	EventQuorumSigned    EventKind = "quorum_signed"
	EventQuorumExecuted  EventKind = "quorum_executed"
	EventAuctionDeleted  EventKind = "auction_deleted"
	EventCommandRejected EventKind = "command_rejected"
)

// Event is emitted after an operation commits, or after it is rejected
type Event struct {
	Kind      EventKind        `json:"kind"`
	Op        string           `json:"op"`
	Time      int64            `json:"time"`
	Auction   solana.PublicKey `json:"auction"`
	Trade     *TradeEvent      `json:"trade,omitempty"`
	Quorum    *QuorumStatus    `json:"quorum,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`
}

type TradeEvent struct {
	Bidder         solana.PublicKey `json:"bidder"`
	Bid            solana.PublicKey `json:"bid"`
	PaymentCustody solana.PublicKey `json:"payment_custody"`
	PaymentMint    solana.PublicKey `json:"payment_mint"`
	Whitelisted    bool             `json:"whitelisted"`
	BidType        BidType          `json:"bid_type"`
	BidPrice       uint64           `json:"bid_price"`
	BidAmount      uint64           `json:"bid_amount"`
	FillAmount     uint64           `json:"fill_amount"`
	PayAmount      uint64           `json:"pay_amount"`
	Fee            uint64           `json:"fee"`
}

// EventSink receives events outside the engine lock; implementations must not call back into the engine
type EventSink interface {
	Publish(Event)
}

// EventSinks fans an event out to several sinks
type EventSinks []EventSink

func (s EventSinks) Publish(ev Event) {
	for _, sink := range s {
		sink.Publish(ev)
	}
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
