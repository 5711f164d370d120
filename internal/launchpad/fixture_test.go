package launchpad

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

type switchStore struct {
	fail      bool
	persisted []string
}

func (s *switchStore) Persist(cs *ChangeSet) error {
	if s.fail {
		return errors.New("database unavailable")
	}
	s.persisted = append(s.persisted, cs.Op)
	return nil
}

type fixture struct {
	t      *testing.T
	e      *Engine
	ledger *MemoryLedger
	sink   *recordingSink
	store  *switchStore
	now    int64

	admin   solana.PublicKey
	seller  solana.PublicKey
	bidder  solana.PublicKey
	usdc    solana.PublicKey
	token   solana.PublicKey
	custody solana.PublicKey
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

var allowAll = Permissions{
	AllowNewAuctions:     true,
	AllowAuctionUpdates:  true,
	AllowAuctionRefills:  true,
	AllowAuctionPullouts: true,
	AllowNewBids:         true,
	AllowWithdrawals:     true,
}

// newFixture initializes a launchpad with one admin, funded participants and a USDC custody
func newFixture(t *testing.T, testMode bool) *fixture {
	f := &fixture{
		t:      t,
		ledger: NewMemoryLedger(),
		sink:   &recordingSink{},
		store:  &switchStore{},
		now:    1_000,
		admin:  newKey(),
		seller: newKey(),
		bidder: newKey(),
		usdc:   newKey(),
		token:  newKey(),
	}
	e, err := NewEngine(Config{TestMode: testMode}, f.ledger,
		WithClock(ClockFunc(func() int64 { return f.now })),
		WithEventSink(f.sink),
		WithStore(f.store),
	)
	require.NoError(t, err)
	f.e = e

	require.NoError(t, e.Init(f.admin, InitParams{
		Signers:       []solana.PublicKey{f.admin},
		MinSignatures: 1,
		Permissions:   allowAll,
		Fees: Fees{
			NewAuction:    Fee{Numerator: 1, Denominator: 100},
			AuctionUpdate: Fee{Numerator: 1, Denominator: 1000},
			InvalidBid:    Fee{Numerator: 1, Denominator: 100},
			Trade:         Fee{Numerator: 1, Denominator: 100},
		},
	}))
	f.custody = f.initCustody(f.usdc, 6, true)

	f.fund(f.seller, Lamports, 10_000_000_000)
	f.fund(f.seller, f.token, 1_000_000)
	f.fund(f.bidder, Lamports, 1_000_000_000)
	f.fund(f.bidder, f.usdc, 1_000_000)
	return f
}

func (f *fixture) fund(holder, mint solana.PublicKey, amount uint64) {
	require.NoError(f.t, f.ledger.Mint(holder, mint, amount))
}

func (f *fixture) initCustody(mint solana.PublicKey, decimals uint8, stable bool) solana.PublicKey {
	status, err := f.e.InitCustody(f.admin, InitCustodyParams{
		Mint:     mint,
		Decimals: decimals,
		IsStable: stable,
		Oracle:   OracleParams{OracleKind: OracleTest, MaxOraclePriceAgeSec: 60},
	})
	require.NoError(f.t, err)
	require.True(f.t, status.Executed)
	key, err := f.e.Deriver().CustodyPDA(mint)
	require.NoError(f.t, err)
	return key.Address
}

func (f *fixture) auctionParams(name string) InitAuctionParams {
	return InitAuctionParams{
		Enabled:   true,
		Updatable: true,
		Common: CommonParams{
			Name:                name,
			FillLimitRegAddress: 1_000,
			FillLimitWlAddress:  1_000,
		},
		Payment: PaymentParams{AcceptUsdc: true},
		Pricing: PricingParams{
			Custody:        f.custody,
			PricingModel:   PricingDynamicDutchAuction,
			StartPrice:     100,
			MaxPrice:       200,
			MinPrice:       50,
			RepriceDelay:   10,
			RepriceCoef:    1_000,
			AmountPerLevel: 10,
			TickSize:       10,
			UnitSize:       1,
		},
		Tokens: []TokenParams{{Mint: f.token, Ratio: 1}},
	}
}

// newAuction creates an auction stocked with 1000 units of the fixture token
func (f *fixture) newAuction(p InitAuctionParams) solana.PublicKey {
	key, err := f.e.InitAuction(f.seller, p)
	require.NoError(f.t, err)
	require.NoError(f.t, f.e.AddTokens(f.seller, key, f.token, 1_000))
	return key
}

func (f *fixture) bidKey(owner, auction solana.PublicKey) solana.PublicKey {
	key, err := f.e.Deriver().BidPDA(owner, auction)
	require.NoError(f.t, err)
	return key.Address
}

func (f *fixture) dispenseAccount(auction, mint solana.PublicKey) solana.PublicKey {
	key, err := f.e.Deriver().DispensePDA(mint, auction)
	require.NoError(f.t, err)
	return key.Address
}

func (f *fixture) custodyTokenAccount(mint solana.PublicKey) solana.PublicKey {
	key, err := f.e.Deriver().CustodyTokenAccountPDA(mint)
	require.NoError(f.t, err)
	return key.Address
}

func (f *fixture) setOraclePrice(custody solana.PublicKey, price int64) {
	_, err := f.e.SetTestOraclePrice(f.admin, SetTestOraclePriceParams{Custody: custody, Price: price})
	require.NoError(f.t, err)
}

func (f *fixture) setPermissions(p Permissions) {
	_, err := f.e.SetPermissions(f.admin, SetPermissionsParams{Permissions: p})
	require.NoError(f.t, err)
}

func (f *fixture) bid(bidder, auction solana.PublicKey, price, amount uint64) (BidResult, error) {
	return f.e.PlaceBid(context.Background(), bidder, PlaceBidParams{
		Auction:        auction,
		PaymentCustody: f.custody,
		Price:          price,
		Amount:         amount,
	})
}
