package launchpad

import (
	"github.com/gagliardetto/solana-go"
)

// table stages copies of records so an aborted operation leaves base untouched
type table[T any] struct {
	base    map[solana.PublicKey]*T
	staged  map[solana.PublicKey]*T
	deleted map[solana.PublicKey]bool
}

func newTable[T any](base map[solana.PublicKey]*T) *table[T] {
	return &table[T]{
		base:    base,
		staged:  make(map[solana.PublicKey]*T),
		deleted: make(map[solana.PublicKey]bool),
	}
}

// get returns a staged copy that the caller may mutate, or nil
func (t *table[T]) get(key solana.PublicKey) *T {
	if t.deleted[key] {
		return nil
	}
	if v, ok := t.staged[key]; ok {
		return v
	}
	v, ok := t.base[key]
	if !ok {
		return nil
	}
	cp := *v
	t.staged[key] = &cp
	return &cp
}

func (t *table[T]) exists(key solana.PublicKey) bool {
	if t.deleted[key] {
		return false
	}
	if _, ok := t.staged[key]; ok {
		return true
	}
	_, ok := t.base[key]
	return ok
}

func (t *table[T]) put(key solana.PublicKey, v *T) {
	delete(t.deleted, key)
	t.staged[key] = v
}

func (t *table[T]) remove(key solana.PublicKey) {
	delete(t.staged, key)
	if _, ok := t.base[key]; ok {
		t.deleted[key] = true
	}
}

func (t *table[T]) changes() Changes[T] {
	c := Changes[T]{Upserted: make(map[solana.PublicKey]*T, len(t.staged))}
	for k, v := range t.staged {
		c.Upserted[k] = v
	}
	for k := range t.deleted {
		c.Deleted = append(c.Deleted, k)
	}
	return c
}

func (t *table[T]) commit() {
	for k, v := range t.staged {
		t.base[k] = v
	}
	for k := range t.deleted {
		delete(t.base, k)
	}
}

// Changes is what one committed operation wrote to a record kind
type Changes[T any] struct {
	Upserted map[solana.PublicKey]*T
	Deleted  []solana.PublicKey
}

// ChangeSet is handed to the Store before an operation becomes visible
type ChangeSet struct {
	Op             string
	Launchpads     Changes[Launchpad]
	Multisigs      Changes[Multisig]
	Custodies      Changes[Custody]
	Oracles        Changes[OraclePrice]
	Auctions       Changes[Auction]
	Bids           Changes[Bid]
	SellerBalances Changes[SellerBalance]
	Transfers      []Transfer
	Events         []Event
}

// Store persists committed changes. A failed Persist aborts the operation.
type Store interface {
	Persist(cs *ChangeSet) error
}

type txn struct {
	e              *Engine
	op             string
	launchpads     *table[Launchpad]
	multisigs      *table[Multisig]
	custodies      *table[Custody]
	oracles        *table[OraclePrice]
	auctions       *table[Auction]
	bids           *table[Bid]
	sellerBalances *table[SellerBalance]

	transfers []Transfer
	credits   map[holding]uint64
	debits    map[holding]uint64
	events    []Event
}

func (e *Engine) begin(op string) *txn {
	return &txn{
		e:              e,
		op:             op,
		launchpads:     newTable(e.state.Launchpads),
		multisigs:      newTable(e.state.Multisigs),
		custodies:      newTable(e.state.Custodies),
		oracles:        newTable(e.state.Oracles),
		auctions:       newTable(e.state.Auctions),
		bids:           newTable(e.state.Bids),
		sellerBalances: newTable(e.state.SellerBalances),
		credits:        make(map[holding]uint64),
		debits:         make(map[holding]uint64),
	}
}

// balance is the holder's ledger balance with this operation's pending transfers applied
func (tx *txn) balance(holder, mint solana.PublicKey) uint64 {
	k := holding{holder, mint}
	return tx.e.assets.Balance(holder, mint) + tx.credits[k] - tx.debits[k]
}

func (tx *txn) transfer(mint, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if have := tx.balance(from, mint); have < amount {
		return newError(ErrInsufficientFunds, CodeInsufficientFunds,
			"%s holds %d of %s, needs %d", from, have, mint, amount)
	}
	toKey := holding{to, mint}
	credit, err := add(tx.credits[toKey], amount)
	if err != nil {
		return err
	}
	tx.credits[toKey] = credit
	tx.debits[holding{from, mint}] += amount
	tx.transfers = append(tx.transfers, Transfer{Mint: mint, From: from, To: to, Amount: amount})
	return nil
}

func (tx *txn) emit(ev Event) {
	ev.Op = tx.op
	tx.events = append(tx.events, ev)
}

func (tx *txn) changeSet() *ChangeSet {
	return &ChangeSet{
		Op:             tx.op,
		Launchpads:     tx.launchpads.changes(),
		Multisigs:      tx.multisigs.changes(),
		Custodies:      tx.custodies.changes(),
		Oracles:        tx.oracles.changes(),
		Auctions:       tx.auctions.changes(),
		Bids:           tx.bids.changes(),
		SellerBalances: tx.sellerBalances.changes(),
		Transfers:      tx.transfers,
		Events:         tx.events,
	}
}

func (tx *txn) commit() {
	tx.launchpads.commit()
	tx.multisigs.commit()
	tx.custodies.commit()
	tx.oracles.commit()
	tx.auctions.commit()
	tx.bids.commit()
	tx.sellerBalances.commit()
}
