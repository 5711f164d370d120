package stats

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"launchpad/internal/launchpad"
	"launchpad/internal/models"
	"launchpad/pkg/utils"
)

// Source is the read side of the engine the scheduler works from
type Source interface {
	Auctions() ([]launchpad.AuctionView, error)
	Custodies() []launchpad.CustodyView
	OraclePrice(ctx context.Context, key solana.PublicKey) (launchpad.OraclePrice, error)
}

// Snapshot flattens an auction view into a history row taken at at
func Snapshot(view launchpad.AuctionView, at time.Time) models.AuctionStatSnapshot {
	st := view.Auction.Stats
	weighted := st.WlBidders.WeightedFillsSum.Add(st.RegBidders.WeightedFillsSum)
	volume := utils.U64ToDecimal(st.WlBidders.FillsVolume).Add(utils.U64ToDecimal(st.RegBidders.FillsVolume))

	avg := decimal.Zero
	if !volume.IsZero() {
		avg = weighted.DivRound(volume, 6)
	}
	return models.AuctionStatSnapshot{
		Auction:          view.Address.String(),
		Name:             view.Auction.Common.Name,
		Enabled:          view.Auction.Enabled,
		BasePrice:        utils.U64ToDecimal(view.BasePrice),
		Inventory:        utils.U64ToDecimal(view.Inventory),
		WlFillsVolume:    utils.U64ToDecimal(st.WlBidders.FillsVolume),
		RegFillsVolume:   utils.U64ToDecimal(st.RegBidders.FillsVolume),
		WeightedFillsSum: weighted,
		AverageFillPrice: avg,
		NumTrades:        st.WlBidders.NumTrades + st.RegBidders.NumTrades,
		LastPrice:        utils.U64ToDecimal(st.LastPrice),
		SnapshotTime:     at.UTC(),
	}
}

func Snapshots(src Source, at time.Time) ([]models.AuctionStatSnapshot, error) {
	views, err := src.Auctions()
	if err != nil {
		return nil, err
	}
	out := make([]models.AuctionStatSnapshot, 0, len(views))
	for _, v := range views {
		out = append(out, Snapshot(v, at))
	}
	return out, nil
}

// StaleOracles returns the custodies whose oracle price is too old to trade against.
// Other read failures are logged and skipped.
func StaleOracles(ctx context.Context, src Source) []solana.PublicKey {
	var stale []solana.PublicKey
	for _, c := range src.Custodies() {
		_, err := src.OraclePrice(ctx, c.Address)
		switch {
		case err == nil:
		case errors.Is(err, launchpad.ErrStaleOracle):
			stale = append(stale, c.Address)
		default:
			log.WithFields(log.Fields{
				"custody": c.Address.String(),
				"mint":    c.Custody.Mint.String(),
			}).Errorf("> read oracle price: %v", err)
		}
	}
	return stale
}
