package launchpad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	lpsolana "launchpad/pkg/solana"
)

const DefaultFeeBaseLamports uint64 = 1_000_000_000

type Config struct {
	// ProgramID scopes every derived address; zero selects the default launchpad program
	ProgramID solana.PublicKey
	// TestMode enables the test clock, test oracle prices and airdrops
	TestMode bool
	// FeeBaseLamports is the reference amount SOL fee fractions apply to
	FeeBaseLamports uint64
	// UpgradeAuthority, when set, is the only key allowed to run Init
	UpgradeAuthority solana.PublicKey
}

// Clock returns the current unix time in seconds
type Clock interface {
	Now() int64
}

type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// OracleReader loads live oracle readings (pyth accounts)
type OracleReader interface {
	ReadOracle(ctx context.Context, account solana.PublicKey) (OraclePrice, error)
}

type Option func(*Engine)

func WithClock(c Clock) Option               { return func(e *Engine) { e.clock = c } }
func WithOracleReader(r OracleReader) Option { return func(e *Engine) { e.oracles = r } }
func WithStore(s Store) Option               { return func(e *Engine) { e.store = s } }
func WithEventSink(s EventSink) Option       { return func(e *Engine) { e.sink = s } }
func WithLogger(l *logrus.Entry) Option      { return func(e *Engine) { e.log = l } }

// WithState starts the engine from previously persisted records
func WithState(s *State) Option { return func(e *Engine) { e.state = s } }

// Engine serializes every launchpad operation. Each public method is one
// atomic transaction: it either commits all of its effects or none.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	pda     *lpsolana.Deriver
	assets  AssetLedger
	oracles OracleReader
	store   Store
	sink    EventSink
	clock   Clock
	log     *logrus.Entry
	state   *State

	launchpadKey         lpsolana.PDAResult
	multisigKey          lpsolana.PDAResult
	transferAuthorityKey lpsolana.PDAResult
}

func NewEngine(cfg Config, assets AssetLedger, opts ...Option) (*Engine, error) {
	if assets == nil {
		return nil, errors.New("asset ledger is required")
	}
	if cfg.FeeBaseLamports == 0 {
		cfg.FeeBaseLamports = DefaultFeeBaseLamports
	}
	e := &Engine{
		cfg:    cfg,
		pda:    lpsolana.NewDeriver(cfg.ProgramID),
		assets: assets,
		sink:   nopSink{},
		clock:  systemClock{},
		log:    logrus.WithField("component", "launchpad"),
		state:  NewState(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.launchpadKey, err = e.pda.LaunchpadPDA(); err != nil {
		return nil, err
	}
	if e.multisigKey, err = e.pda.MultisigPDA(); err != nil {
		return nil, err
	}
	if e.transferAuthorityKey, err = e.pda.TransferAuthorityPDA(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Deriver() *lpsolana.Deriver { return e.pda }

func (e *Engine) LaunchpadAddress() solana.PublicKey { return e.launchpadKey.Address }

func (e *Engine) MultisigAddress() solana.PublicKey { return e.multisigKey.Address }

// TransferAuthority holds SOL fees and signs for every custody and dispensing account
func (e *Engine) TransferAuthority() solana.PublicKey { return e.transferAuthorityKey.Address }

// atomically runs fn against staged state. On success the ledger transfers are
// applied, the store persists the change set, and only then is the state swapped in.
func (e *Engine) atomically(op string, fields logrus.Fields, fn func(tx *txn) error) error {
	events, err := e.run(op, fn)
	entry := e.log.WithFields(fields).WithField("op", op)
	if err != nil {
		entry.WithField("code", CodeOf(err)).Warnf("> %s rejected: %v", op, err)
		e.sink.Publish(Event{Kind: EventCommandRejected, Op: op, Time: e.clock.Now(), ErrorCode: CodeOf(err)})
		return err
	}
	entry.Infof("> %s committed", op)
	for _, ev := range events {
		e.sink.Publish(ev)
	}
	return nil
}

func (e *Engine) run(op string, fn func(tx *txn) error) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.begin(op)
	if err := fn(tx); err != nil {
		return nil, err
	}
	if err := e.assets.Apply(tx.transfers); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, newError(ErrInsufficientFunds, CodeInsufficientFunds, "%v", err)
		}
		return nil, fmt.Errorf("apply transfers for %s: %w", op, err)
	}
	if e.store != nil {
		if err := e.store.Persist(tx.changeSet()); err != nil {
			if rbErr := e.assets.Apply(reverseTransfers(tx.transfers)); rbErr != nil {
				e.log.WithField("op", op).Errorf("> failed to roll back transfers: %v", rbErr)
			}
			return nil, fmt.Errorf("persist %s: %w", op, err)
		}
	}
	tx.commit()
	return tx.events, nil
}

// read runs fn under the engine lock without staging writes
func (e *Engine) read(fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.begin("read"))
}

func (tx *txn) launchpad() (*Launchpad, error) {
	lp := tx.launchpads.get(tx.e.launchpadKey.Address)
	if lp == nil {
		return nil, notFound("launchpad is not initialized")
	}
	return lp, nil
}

func (tx *txn) multisig() (*Multisig, error) {
	ms := tx.multisigs.get(tx.e.multisigKey.Address)
	if ms == nil {
		return nil, notFound("multisig is not initialized")
	}
	return ms, nil
}

func (tx *txn) custody(key solana.PublicKey) (*Custody, error) {
	c := tx.custodies.get(key)
	if c == nil {
		return nil, notFound(fmt.Sprintf("custody %s", key))
	}
	return c, nil
}

func (tx *txn) auction(key solana.PublicKey) (*Auction, error) {
	a := tx.auctions.get(key)
	if a == nil {
		return nil, notFound(fmt.Sprintf("auction %s", key))
	}
	return a, nil
}

// auctionTime is the clock an auction runs on; in test mode that is its creation time
func (tx *txn) auctionTime(a *Auction) int64 {
	if tx.e.cfg.TestMode {
		return a.CreationTime
	}
	return tx.e.clock.Now()
}

func (tx *txn) now() int64 {
	return tx.e.clock.Now()
}

func (tx *txn) requireTestMode() error {
	if !tx.e.cfg.TestMode {
		return newError(ErrInvalidEnvironment, CodeInvalidEnvironment, "only available in test mode")
	}
	return nil
}

// createDeposit moves the rent deposit for a new record from payer to the record address
func (tx *txn) createDeposit(payer, record solana.PublicKey, size int) error {
	return tx.transfer(Lamports, payer, record, RentDeposit(size))
}

// closeDeposit returns whatever lamports a record holds to the receiver
func (tx *txn) closeDeposit(record, receiver solana.PublicKey) error {
	return tx.transfer(Lamports, record, receiver, tx.balance(record, Lamports))
}

// Crediter is implemented by stores that persist balances created outside an operation
type Crediter interface {
	Credit(holder, mint solana.PublicKey, amount uint64) error
}

// Airdrop credits a holder in test mode when the ledger supports minting
func (e *Engine) Airdrop(holder, mint solana.PublicKey, amount uint64) error {
	if !e.cfg.TestMode {
		return newError(ErrInvalidEnvironment, CodeInvalidEnvironment, "airdrop is only available in test mode")
	}
	m, ok := e.assets.(Minter)
	if !ok {
		return newError(ErrInvalidEnvironment, CodeInvalidEnvironment, "asset ledger cannot mint")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.store.(Crediter); ok {
		if err := c.Credit(holder, mint, amount); err != nil {
			return fmt.Errorf("persist airdrop: %w", err)
		}
	}
	return m.Mint(holder, mint, amount)
}

// Balance reports a ledger balance
func (e *Engine) Balance(holder, mint solana.PublicKey) uint64 {
	return e.assets.Balance(holder, mint)
}
