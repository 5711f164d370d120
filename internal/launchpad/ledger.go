package launchpad

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Transfer moves Amount of Mint from one holder to another. Lamports use the Lamports mint.
type Transfer struct {
	Mint   solana.PublicKey `json:"mint"`
	From   solana.PublicKey `json:"from"`
	To     solana.PublicKey `json:"to"`
	Amount uint64           `json:"amount"`
}

// AssetLedger is the custody/transfer primitive the engine settles against.
// Apply must be all-or-nothing.
type AssetLedger interface {
	Balance(holder, mint solana.PublicKey) uint64
	Apply(transfers []Transfer) error
}

// Minter is implemented by ledgers that can create balances out of thin air (test environments)
type Minter interface {
	Mint(holder, mint solana.PublicKey, amount uint64) error
}

type holding struct {
	holder solana.PublicKey
	mint   solana.PublicKey
}

// MemoryLedger keeps balances in process
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[holding]uint64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[holding]uint64)}
}

func (l *MemoryLedger) Balance(holder, mint solana.PublicKey) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[holding{holder, mint}]
}

func (l *MemoryLedger) Mint(holder, mint solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := holding{holder, mint}
	next, err := add(l.balances[key], amount)
	if err != nil {
		return err
	}
	l.balances[key] = next
	return nil
}

func (l *MemoryLedger) Apply(transfers []Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	scratch := make(map[holding]uint64)
	get := func(k holding) uint64 {
		if v, ok := scratch[k]; ok {
			return v
		}
		return l.balances[k]
	}
	for _, t := range transfers {
		from, to := holding{t.From, t.Mint}, holding{t.To, t.Mint}
		fromBal := get(from)
		if fromBal < t.Amount {
			return fmt.Errorf("%w: %s holds %d of %s, needs %d",
				ErrInsufficientFunds, t.From, fromBal, t.Mint, t.Amount)
		}
		scratch[from] = fromBal - t.Amount
		toBal, err := add(get(to), t.Amount)
		if err != nil {
			return err
		}
		scratch[to] = toBal
	}
	for k, v := range scratch {
		if v == 0 {
			delete(l.balances, k)
			continue
		}
		l.balances[k] = v
	}
	return nil
}

func reverseTransfers(transfers []Transfer) []Transfer {
	out := make([]Transfer, 0, len(transfers))
	for i := len(transfers) - 1; i >= 0; i-- {
		t := transfers[i]
		out = append(out, Transfer{Mint: t.Mint, From: t.To, To: t.From, Amount: t.Amount})
	}
	return out
}
