package launchpad

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// AuctionView is an auction together with its live quote
type AuctionView struct {
	Address   solana.PublicKey `json:"address"`
	Auction   Auction          `json:"auction"`
	BasePrice uint64           `json:"base_price"`
	Inventory uint64           `json:"inventory"`
	Balances  []uint64         `json:"balances"`
}

func lookup[T any](t *table[T], key solana.PublicKey, what string) (T, error) {
	var zero T
	v := t.get(key)
	if v == nil {
		return zero, notFound(fmt.Sprintf("%s %s", what, key))
	}
	return *v, nil
}

func (e *Engine) Launchpad() (Launchpad, error) {
	var out Launchpad
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.launchpads, e.launchpadKey.Address, "launchpad")
		return err
	})
	return out, err
}

func (e *Engine) Multisig() (Multisig, error) {
	var out Multisig
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.multisigs, e.multisigKey.Address, "multisig")
		return err
	})
	return out, err
}

func (e *Engine) Custody(key solana.PublicKey) (Custody, error) {
	var out Custody
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.custodies, key, "custody")
		return err
	})
	return out, err
}

// OraclePrice returns the current validated price of a custody, as used for payment conversion
func (e *Engine) OraclePrice(ctx context.Context, key solana.PublicKey) (OraclePrice, error) {
	var out OraclePrice
	err := e.read(func(tx *txn) error {
		c, err := tx.custody(key)
		if err != nil {
			return err
		}
		if out, err = tx.oracleReading(ctx, c); err != nil {
			return err
		}
		_, err = CheckOraclePrice(c, out, tx.now())
		return err
	})
	return out, err
}

// TestOracle returns the raw admin-set reading stored at an oracle account
func (e *Engine) TestOracle(key solana.PublicKey) (OraclePrice, error) {
	var out OraclePrice
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.oracles, key, "test oracle")
		return err
	})
	return out, err
}

func (e *Engine) Bid(key solana.PublicKey) (Bid, error) {
	var out Bid
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.bids, key, "bid")
		return err
	})
	return out, err
}

func (e *Engine) SellerBalance(key solana.PublicKey) (SellerBalance, error) {
	var out SellerBalance
	err := e.read(func(tx *txn) (err error) {
		out, err = lookup(tx.sellerBalances, key, "seller balance")
		return err
	})
	return out, err
}

func (tx *txn) auctionView(key solana.PublicKey, a *Auction) (AuctionView, error) {
	base, err := a.BasePrice(tx.auctionTime(a))
	if err != nil {
		return AuctionView{}, err
	}
	balances := tx.dispensingBalances(a)
	return AuctionView{
		Address:   key,
		Auction:   *a,
		BasePrice: base,
		Inventory: inventoryUnits(balances, effectiveRatios(a, balances), a.Pricing.UnitSize),
		Balances:  balances,
	}, nil
}

func (e *Engine) Auction(key solana.PublicKey) (AuctionView, error) {
	var out AuctionView
	err := e.read(func(tx *txn) error {
		a, err := tx.auction(key)
		if err != nil {
			return err
		}
		out, err = tx.auctionView(key, a)
		return err
	})
	return out, err
}

// Auctions lists every auction ordered by name
func (e *Engine) Auctions() ([]AuctionView, error) {
	var out []AuctionView
	err := e.read(func(tx *txn) error {
		for key, a := range e.state.Auctions {
			v, err := tx.auctionView(key, a)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Auction.Common.Name < out[j].Auction.Common.Name })
	return out, err
}

type CustodyView struct {
	Address solana.PublicKey `json:"address"`
	Custody Custody          `json:"custody"`
}

func (e *Engine) Custodies() []CustodyView {
	var out []CustodyView
	_ = e.read(func(tx *txn) error {
		for key, c := range e.state.Custodies {
			out = append(out, CustodyView{Address: key, Custody: *c})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Custody.Mint.String() < out[j].Custody.Mint.String() })
	return out
}
