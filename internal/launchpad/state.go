package launchpad

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const (
	MaxSigners = 6
	MaxTokens  = 4

	// UntradedMinFillPrice marks a bidder segment that has never traded.
	// The first fill always lowers it.
	UntradedMinFillPrice uint64 = math.MaxUint64

	MinAuctionNameLen = 6
	MaxAuctionNameLen = 32
)

// Lamports is the pseudo mint under which native SOL balances are held
var Lamports = solana.SystemProgramID

type Permissions struct {
	AllowNewAuctions     bool `json:"allow_new_auctions"`
	AllowAuctionUpdates  bool `json:"allow_auction_updates"`
	AllowAuctionRefills  bool `json:"allow_auction_refills"`
	AllowAuctionPullouts bool `json:"allow_auction_pullouts"`
	AllowNewBids         bool `json:"allow_new_bids"`
	AllowWithdrawals     bool `json:"allow_withdrawals"`
}

// Fee is a fraction; a zero denominator charges nothing
type Fee struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

func (f Fee) Valid() bool {
	if f.Denominator == 0 {
		return f.Numerator == 0
	}
	return f.Numerator < f.Denominator
}

// Apply returns floor(amount * f)
func (f Fee) Apply(amount uint64) (uint64, error) {
	if f.Denominator == 0 || f.Numerator == 0 {
		return 0, nil
	}
	return mulDiv(amount, f.Numerator, f.Denominator)
}

type Fees struct {
	NewAuction    Fee `json:"new_auction"`
	AuctionUpdate Fee `json:"auction_update"`
	InvalidBid    Fee `json:"invalid_bid"`
	Trade         Fee `json:"trade"`
}

func (f Fees) Valid() bool {
	return f.NewAuction.Valid() && f.AuctionUpdate.Valid() && f.InvalidBid.Valid() && f.Trade.Valid()
}

type CollectedFees struct {
	NewAuctionSol    uint64 `json:"new_auction_sol"`
	AuctionUpdateSol uint64 `json:"auction_update_sol"`
	InvalidBidTokens uint64 `json:"invalid_bid_tokens"`
	TradeTokens      uint64 `json:"trade_tokens"`
}

type Launchpad struct {
	Permissions           Permissions   `json:"permissions"`
	Fees                  Fees          `json:"fees"`
	CollectedFees         CollectedFees `json:"collected_fees"`
	TransferAuthorityBump uint8         `json:"transfer_authority_bump"`
	LaunchpadBump         uint8         `json:"launchpad_bump"`
}

type Multisig struct {
	NumSigners             uint8                        `json:"num_signers"`
	NumSigned              uint8                        `json:"num_signed"`
	MinSignatures          uint8                        `json:"min_signatures"`
	InstructionAccountsLen uint8                        `json:"instruction_accounts_len"`
	InstructionDataLen     uint16                       `json:"instruction_data_len"`
	InstructionHash        uint64                       `json:"instruction_hash"`
	Signers                [MaxSigners]solana.PublicKey `json:"signers"`
	Signed                 [MaxSigners]bool             `json:"signed"`
	Bump                   uint8                        `json:"bump"`
}

// OraclePrice is one oracle reading; Price * 10^Expo is the decimal price
type OraclePrice struct {
	Price       int64  `json:"price"`
	Expo        int32  `json:"expo"`
	Conf        uint64 `json:"conf"`
	PublishTime int64  `json:"publish_time"`
}

func (p OraclePrice) Decimal() decimal.Decimal {
	return decimal.New(p.Price, p.Expo)
}

type OracleParams struct {
	OracleAccount        solana.PublicKey `json:"oracle_account"`
	OracleKind           OracleKind       `json:"oracle_type"`
	MaxOraclePriceError  float64          `json:"max_oracle_price_error"`
	MaxOraclePriceAgeSec uint32           `json:"max_oracle_price_age_sec"`
}

func (p OracleParams) Valid() bool {
	return p.OracleKind.Valid() && p.MaxOraclePriceError >= 0 && p.MaxOraclePriceAgeSec > 0 &&
		!math.IsNaN(p.MaxOraclePriceError) && !math.IsInf(p.MaxOraclePriceError, 0)
}

type Custody struct {
	TokenAccount  solana.PublicKey `json:"token_account"`
	Mint          solana.PublicKey `json:"mint"`
	Decimals      uint8            `json:"decimals"`
	IsStable      bool             `json:"is_stable"`
	CollectedFees uint64           `json:"collected_fees"`
	Oracle        OracleParams     `json:"oracle"`
	Bump          uint8            `json:"bump"`
}

type CommonParams struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	AboutSeller          string `json:"about_seller"`
	SellerLink           string `json:"seller_link"`
	StartTime            int64  `json:"start_time"`
	EndTime              int64  `json:"end_time"`
	PresaleStartTime     int64  `json:"presale_start_time"`
	PresaleEndTime       int64  `json:"presale_end_time"`
	FillLimitRegAddress  uint64 `json:"fill_limit_reg_address"`
	FillLimitWlAddress   uint64 `json:"fill_limit_wl_address"`
	OrderLimitRegAddress uint64 `json:"order_limit_reg_address"`
	OrderLimitWlAddress  uint64 `json:"order_limit_wl_address"`
}

type PaymentParams struct {
	AcceptSol         bool `json:"accept_sol"`
	AcceptUsdc        bool `json:"accept_usdc"`
	AcceptOtherTokens bool `json:"accept_other_tokens"`
}

type PricingParams struct {
	Custody         solana.PublicKey `json:"custody"`
	PricingModel    PricingModel     `json:"pricing_model"`
	StartPrice      uint64           `json:"start_price"`
	MaxPrice        uint64           `json:"max_price"`
	MinPrice        uint64           `json:"min_price"`
	RepriceDelay    int64            `json:"reprice_delay"`
	RepriceCoef     uint64           `json:"reprice_coef"`
	RepriceFunction RepriceFunction  `json:"reprice_function"`
	AmountFunction  AmountFunction   `json:"amount_function"`
	AmountPerLevel  uint64           `json:"amount_per_level"`
	TickSize        uint64           `json:"tick_size"`
	UnitSize        uint64           `json:"unit_size"`
}

type BidderStats struct {
	FillsVolume      uint64          `json:"fills_volume"`
	WeightedFillsSum decimal.Decimal `json:"weighted_fills_sum"`
	MinFillPrice     uint64          `json:"min_fill_price"`
	MaxFillPrice     uint64          `json:"max_fill_price"`
	NumTrades        uint64          `json:"num_trades"`
}

func newBidderStats() BidderStats {
	return BidderStats{WeightedFillsSum: decimal.Zero, MinFillPrice: UntradedMinFillPrice}
}

type AuctionStats struct {
	FirstTradeTime int64       `json:"first_trade_time"`
	LastTradeTime  int64       `json:"last_trade_time"`
	LastAmount     uint64      `json:"last_amount"`
	LastPrice      uint64      `json:"last_price"`
	WlBidders      BidderStats `json:"wl_bidders"`
	RegBidders     BidderStats `json:"reg_bidders"`
}

// AuctionToken is one dispensing slot
type AuctionToken struct {
	Ratio   uint64           `json:"ratio"`
	Mint    solana.PublicKey `json:"mint"`
	Account solana.PublicKey `json:"account"`
}

type Auction struct {
	Owner        solana.PublicKey        `json:"owner"`
	Enabled      bool                    `json:"enabled"`
	Updatable    bool                    `json:"updatable"`
	FixedAmount  bool                    `json:"fixed_amount"`
	Common       CommonParams            `json:"common"`
	Payment      PaymentParams           `json:"payment"`
	Pricing      PricingParams           `json:"pricing"`
	Stats        AuctionStats            `json:"stats"`
	Tokens       [MaxTokens]AuctionToken `json:"tokens"`
	NumTokens    uint8                   `json:"num_tokens"`
	CreationTime int64                   `json:"creation_time"`
	UpdateTime   int64                   `json:"update_time"`
	Bump         uint8                   `json:"bump"`
}

func (a *Auction) activeTokens() []AuctionToken {
	return a.Tokens[:a.NumTokens]
}

func (a *Auction) traded() bool {
	return a.Stats.WlBidders.NumTrades+a.Stats.RegBidders.NumTrades > 0
}

// started is true once the public window opened or anyone traded
func (a *Auction) started(now int64) bool {
	return a.traded() || (a.Common.StartTime != 0 && now >= a.Common.StartTime)
}

func (a *Auction) ended(now int64) bool {
	return a.Common.EndTime != 0 && now > a.Common.EndTime
}

func (a *Auction) segmentStats(whitelisted bool) *BidderStats {
	if whitelisted {
		return &a.Stats.WlBidders
	}
	return &a.Stats.RegBidders
}

type Bid struct {
	Owner             solana.PublicKey `json:"owner"`
	Auction           solana.PublicKey `json:"auction"`
	Whitelisted       bool             `json:"whitelisted"`
	SellerInitialized bool             `json:"seller_initialized"`
	BidTime           int64            `json:"bid_time"`
	BidPrice          uint64           `json:"bid_price"`
	BidAmount         uint64           `json:"bid_amount"`
	BidType           BidType          `json:"bid_type"`
	Filled            uint64           `json:"filled"`
	FillTime          int64            `json:"fill_time"`
	FillPrice         uint64           `json:"fill_price"`
	FillAmount        uint64           `json:"fill_amount"`
	Bump              uint8            `json:"bump"`
}

type SellerBalance struct {
	Owner   solana.PublicKey `json:"owner"`
	Custody solana.PublicKey `json:"custody"`
	Balance uint64           `json:"balance"`
	Bump    uint8            `json:"bump"`
}

// Record sizes used for rent deposits
const (
	auctionRecordSize       = 1024
	bidRecordSize           = 8 + 32 + 32 + 1 + 1 + 8 + 8 + 8 + 1 + 8 + 8 + 8 + 8 + 1
	sellerBalanceRecordSize = 8 + 32 + 32 + 8 + 1

	rentOverhead        = 128
	rentLamportsPerByte = 6960
)

// RentDeposit is the lamports held by a record of the given size
func RentDeposit(size int) uint64 {
	return uint64(size+rentOverhead) * rentLamportsPerByte
}

// State is the full set of engine records keyed by their derived addresses
type State struct {
	Launchpads     map[solana.PublicKey]*Launchpad
	Multisigs      map[solana.PublicKey]*Multisig
	Custodies      map[solana.PublicKey]*Custody
	Oracles        map[solana.PublicKey]*OraclePrice
	Auctions       map[solana.PublicKey]*Auction
	Bids           map[solana.PublicKey]*Bid
	SellerBalances map[solana.PublicKey]*SellerBalance
}

func NewState() *State {
	return &State{
		Launchpads:     make(map[solana.PublicKey]*Launchpad),
		Multisigs:      make(map[solana.PublicKey]*Multisig),
		Custodies:      make(map[solana.PublicKey]*Custody),
		Oracles:        make(map[solana.PublicKey]*OraclePrice),
		Auctions:       make(map[solana.PublicKey]*Auction),
		Bids:           make(map[solana.PublicKey]*Bid),
		SellerBalances: make(map[solana.PublicKey]*SellerBalance),
	}
}

func (s *State) String() string {
	return fmt.Sprintf("state{custodies=%d auctions=%d bids=%d balances=%d}",
		len(s.Custodies), len(s.Auctions), len(s.Bids), len(s.SellerBalances))
}
