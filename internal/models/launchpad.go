package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LaunchpadAccount stores the singleton launchpad and multisig accounts.
// Kind is "launchpad" or "multisig".
type LaunchpadAccount struct {
	Address   string          `gorm:"primarykey;size:64" json:"address"`
	Kind      string          `gorm:"size:20;not null" json:"kind"`
	Data      json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LaunchpadAccount) TableName() string {
	return "launchpad_accounts"
}

// CustodyAccount is a registered payment/pricing vault for one mint
type CustodyAccount struct {
	Address       string          `gorm:"primarykey;size:64" json:"address"`
	Mint          string          `gorm:"size:64;uniqueIndex;not null" json:"mint"`
	TokenAccount  string          `gorm:"size:64;not null" json:"token_account"`
	Decimals      uint8           `json:"decimals"`
	IsStable      bool            `json:"is_stable"`
	CollectedFees decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"collected_fees"`
	OracleAccount string          `gorm:"size:64" json:"oracle_account"`
	OracleType    string          `gorm:"size:20" json:"oracle_type"`
	Data          json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CustodyAccount) TableName() string {
	return "custody_accounts"
}

// TestOracleAccount holds admin-set prices used in test mode
type TestOracleAccount struct {
	Address     string          `gorm:"primarykey;size:64" json:"address"`
	Price       int64           `json:"price"`
	Expo        int32           `json:"expo"`
	Conf        decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"conf"`
	PublishTime int64           `json:"publish_time"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TestOracleAccount) TableName() string {
	return "test_oracle_accounts"
}

type AuctionAccount struct {
	Address   string          `gorm:"primarykey;size:64" json:"address"`
	Name      string          `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Owner     string          `gorm:"size:64;index;not null" json:"owner"`
	Enabled   bool            `json:"enabled"`
	StartTime int64           `json:"start_time"`
	EndTime   int64           `json:"end_time"`
	Data      json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AuctionAccount) TableName() string {
	return "auction_accounts"
}

type BidAccount struct {
	Address     string          `gorm:"primarykey;size:64" json:"address"`
	Owner       string          `gorm:"size:64;index;not null" json:"owner"`
	Auction     string          `gorm:"size:64;index;not null" json:"auction"`
	Whitelisted bool            `json:"whitelisted"`
	Filled      decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"filled"`
	Data        json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (BidAccount) TableName() string {
	return "bid_accounts"
}

type SellerBalanceAccount struct {
	Address   string          `gorm:"primarykey;size:64" json:"address"`
	Owner     string          `gorm:"size:64;index;not null" json:"owner"`
	Custody   string          `gorm:"size:64;index;not null" json:"custody"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"balance"`
	Bump      uint8           `json:"bump"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SellerBalanceAccount) TableName() string {
	return "seller_balance_accounts"
}

// LedgerBalance is the persisted asset ledger, one row per (holder, mint)
type LedgerBalance struct {
	Holder    string          `gorm:"primarykey;size:64" json:"holder"`
	Mint      string          `gorm:"primarykey;size:64" json:"mint"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,0);not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LedgerBalance) TableName() string {
	return "ledger_balances"
}
