package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one placeBid outcome, written by the worker from the event queue
type TradeRecord struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	Kind           string          `gorm:"size:32;not null" json:"kind"`
	Auction        string          `gorm:"size:64;index;not null" json:"auction"`
	Bidder         string          `gorm:"size:64;index;not null" json:"bidder"`
	Bid            string          `gorm:"size:64;not null" json:"bid"`
	PaymentCustody string          `gorm:"size:64" json:"payment_custody"`
	PaymentMint    string          `gorm:"size:64" json:"payment_mint"`
	Whitelisted    bool            `json:"whitelisted"`
	BidType        string          `gorm:"size:8" json:"bid_type"`
	BidPrice       decimal.Decimal `gorm:"type:numeric(20,0)" json:"bid_price"`
	BidAmount      decimal.Decimal `gorm:"type:numeric(20,0)" json:"bid_amount"`
	FillAmount     decimal.Decimal `gorm:"type:numeric(20,0)" json:"fill_amount"`
	PayAmount      decimal.Decimal `gorm:"type:numeric(20,0)" json:"pay_amount"`
	Fee            decimal.Decimal `gorm:"type:numeric(20,0)" json:"fee"`
	TradeTime      time.Time       `gorm:"index" json:"trade_time"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (TradeRecord) TableName() string {
	return "trade_records"
}

// AuctionStatSnapshot is the periodic view of an auction taken by the scheduler
type AuctionStatSnapshot struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Auction          string          `gorm:"size:64;index;not null" json:"auction"`
	Name             string          `gorm:"size:32" json:"name"`
	Enabled          bool            `json:"enabled"`
	BasePrice        decimal.Decimal `gorm:"type:numeric(20,0)" json:"base_price"`
	Inventory        decimal.Decimal `gorm:"type:numeric(20,0)" json:"inventory"`
	WlFillsVolume    decimal.Decimal `gorm:"type:numeric(20,0)" json:"wl_fills_volume"`
	RegFillsVolume   decimal.Decimal `gorm:"type:numeric(20,0)" json:"reg_fills_volume"`
	WeightedFillsSum decimal.Decimal `gorm:"type:numeric(40,0)" json:"weighted_fills_sum"`
	AverageFillPrice decimal.Decimal `gorm:"type:numeric(40,6)" json:"average_fill_price"`
	NumTrades        uint64          `json:"num_trades"`
	LastPrice        decimal.Decimal `gorm:"type:numeric(20,0)" json:"last_price"`
	SnapshotTime     time.Time       `gorm:"index" json:"snapshot_time"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (AuctionStatSnapshot) TableName() string {
	return "auction_stat_snapshots"
}
