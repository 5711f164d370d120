package store

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad/internal/launchpad"
	"launchpad/internal/models"
	"launchpad/pkg/utils"
)

// Store persists engine change sets with gorm. Every Persist is one database transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func upsert(tx *gorm.DB, row interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}

func deleteKeys(tx *gorm.DB, model interface{}, keys []solana.PublicKey) error {
	if len(keys) == 0 {
		return nil
	}
	addresses := make([]string, len(keys))
	for i, k := range keys {
		addresses[i] = k.String()
	}
	return tx.Where("address IN ?", addresses).Delete(model).Error
}

func (s *Store) Persist(cs *launchpad.ChangeSet) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for k, v := range cs.Launchpads.Upserted {
			row, err := launchpadRow(k, kindLaunchpad, v)
			if err != nil {
				return err
			}
			if err := upsert(tx, row); err != nil {
				return err
			}
		}
		for k, v := range cs.Multisigs.Upserted {
			row, err := launchpadRow(k, kindMultisig, v)
			if err != nil {
				return err
			}
			if err := upsert(tx, row); err != nil {
				return err
			}
		}
		for k, v := range cs.Custodies.Upserted {
			row, err := custodyRow(k, v)
			if err != nil {
				return err
			}
			if err := upsert(tx, row); err != nil {
				return err
			}
		}
		for k, v := range cs.Oracles.Upserted {
			if err := upsert(tx, oracleRow(k, v)); err != nil {
				return err
			}
		}
		for k, v := range cs.Auctions.Upserted {
			row, err := auctionRow(k, v)
			if err != nil {
				return err
			}
			if err := upsert(tx, row); err != nil {
				return err
			}
		}
		for k, v := range cs.Bids.Upserted {
			row, err := bidRow(k, v)
			if err != nil {
				return err
			}
			if err := upsert(tx, row); err != nil {
				return err
			}
		}
		for k, v := range cs.SellerBalances.Upserted {
			if err := upsert(tx, sellerBalanceRow(k, v)); err != nil {
				return err
			}
		}

		if err := deleteKeys(tx, &models.AuctionAccount{}, cs.Auctions.Deleted); err != nil {
			return err
		}
		if err := deleteKeys(tx, &models.BidAccount{}, cs.Bids.Deleted); err != nil {
			return err
		}
		if err := deleteKeys(tx, &models.SellerBalanceAccount{}, cs.SellerBalances.Deleted); err != nil {
			return err
		}
		return applyTransfers(tx, cs.Transfers)
	})
	if err != nil {
		return fmt.Errorf("persist %s: %w", cs.Op, err)
	}
	return nil
}

type holding struct {
	holder string
	mint   string
}

// netDeltas folds transfers into one signed change per holding
func netDeltas(transfers []launchpad.Transfer) map[holding]*big.Int {
	deltas := make(map[holding]*big.Int)
	get := func(k holding) *big.Int {
		d, ok := deltas[k]
		if !ok {
			d = new(big.Int)
			deltas[k] = d
		}
		return d
	}
	for _, t := range transfers {
		amount := new(big.Int).SetUint64(t.Amount)
		from := get(holding{t.From.String(), t.Mint.String()})
		from.Sub(from, amount)
		to := get(holding{t.To.String(), t.Mint.String()})
		to.Add(to, amount)
	}
	for k, d := range deltas {
		if d.Sign() == 0 {
			delete(deltas, k)
		}
	}
	return deltas
}

func applyTransfers(tx *gorm.DB, transfers []launchpad.Transfer) error {
	return applyDeltas(tx, netDeltas(transfers))
}

func applyDeltas(tx *gorm.DB, deltas map[holding]*big.Int) error {
	for k, delta := range deltas {
		var row models.LedgerBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("holder = ? AND mint = ?", k.holder, k.mint).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.LedgerBalance{Holder: k.holder, Mint: k.mint, Amount: decimal.Zero}
		case err != nil:
			return err
		}
		next := row.Amount.Add(decimal.NewFromBigInt(delta, 0))
		if next.Sign() < 0 {
			return fmt.Errorf("ledger balance of %s in %s would go negative", k.holder, k.mint)
		}
		if next.IsZero() {
			if err := tx.Where("holder = ? AND mint = ?", k.holder, k.mint).Delete(&models.LedgerBalance{}).Error; err != nil {
				return err
			}
			continue
		}
		row.Amount = next
		if err := upsert(tx, &row); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every persisted account back into engine state
func (s *Store) Load() (*launchpad.State, error) {
	state := launchpad.NewState()

	var accounts []models.LaunchpadAccount
	if err := s.db.Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, row := range accounts {
		switch row.Kind {
		case kindLaunchpad:
			var v launchpad.Launchpad
			key, err := decode(row.Address, row.Data, &v)
			if err != nil {
				return nil, err
			}
			state.Launchpads[key] = &v
		case kindMultisig:
			var v launchpad.Multisig
			key, err := decode(row.Address, row.Data, &v)
			if err != nil {
				return nil, err
			}
			state.Multisigs[key] = &v
		default:
			log.Warnf("> skipping launchpad account %s of unknown kind %q", row.Address, row.Kind)
		}
	}

	var custodies []models.CustodyAccount
	if err := s.db.Find(&custodies).Error; err != nil {
		return nil, err
	}
	for _, row := range custodies {
		var v launchpad.Custody
		key, err := decode(row.Address, row.Data, &v)
		if err != nil {
			return nil, err
		}
		// the column is authoritative for the fee counter
		if v.CollectedFees, err = utils.FromUIAmount(row.CollectedFees, 0); err != nil {
			return nil, err
		}
		state.Custodies[key] = &v
	}

	var oracles []models.TestOracleAccount
	if err := s.db.Find(&oracles).Error; err != nil {
		return nil, err
	}
	for i := range oracles {
		key, v, err := oracleFromRow(&oracles[i])
		if err != nil {
			return nil, err
		}
		state.Oracles[key] = v
	}

	var auctions []models.AuctionAccount
	if err := s.db.Find(&auctions).Error; err != nil {
		return nil, err
	}
	for _, row := range auctions {
		var v launchpad.Auction
		key, err := decode(row.Address, row.Data, &v)
		if err != nil {
			return nil, err
		}
		state.Auctions[key] = &v
	}

	var bids []models.BidAccount
	if err := s.db.Find(&bids).Error; err != nil {
		return nil, err
	}
	for _, row := range bids {
		var v launchpad.Bid
		key, err := decode(row.Address, row.Data, &v)
		if err != nil {
			return nil, err
		}
		state.Bids[key] = &v
	}

	var balances []models.SellerBalanceAccount
	if err := s.db.Find(&balances).Error; err != nil {
		return nil, err
	}
	for i := range balances {
		key, v, err := sellerBalanceFromRow(&balances[i])
		if err != nil {
			return nil, err
		}
		state.SellerBalances[key] = v
	}

	log.Infof("> loaded %s", state)
	return state, nil
}

// LoadLedger seeds an in-memory ledger with the persisted balances
func (s *Store) LoadLedger(ledger launchpad.Minter) error {
	var rows []models.LedgerBalance
	if err := s.db.Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		holder, err := solana.PublicKeyFromBase58(row.Holder)
		if err != nil {
			return fmt.Errorf("ledger holder %q: %w", row.Holder, err)
		}
		mint, err := solana.PublicKeyFromBase58(row.Mint)
		if err != nil {
			return fmt.Errorf("ledger mint %q: %w", row.Mint, err)
		}
		amount, err := utils.FromUIAmount(row.Amount, 0)
		if err != nil {
			return fmt.Errorf("ledger balance %s/%s: %w", row.Holder, row.Mint, err)
		}
		if err := ledger.Mint(holder, mint, amount); err != nil {
			return err
		}
	}
	return nil
}

// Credit adds an externally deposited balance, used by test-mode airdrops so they survive restarts
func (s *Store) Credit(holder, mint solana.PublicKey, amount uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return applyDeltas(tx, map[holding]*big.Int{
			{holder.String(), mint.String()}: new(big.Int).SetUint64(amount),
		})
	})
}
