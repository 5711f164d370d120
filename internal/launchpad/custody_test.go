package launchpad

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lpsolana "launchpad/pkg/solana"
)

func TestWithdrawFees(t *testing.T) {
	// one trade of 30 at 120 leaves 36 in trade fees; the new auction fee sits with the transfer authority
	setup := func(t *testing.T) *fixture {
		f := newFixture(t, false)
		key := f.newAuction(f.auctionParams("genesis-sale"))
		_, err := f.bid(f.bidder, key, 120, 50)
		require.NoError(t, err)
		return f
	}

	t.Run("Token Overdraw Is Rejected", func(t *testing.T) {
		f := setup(t)
		receiver := newKey()
		_, err := f.e.WithdrawFees(f.admin, WithdrawFeesParams{Custody: f.custody, Receiver: receiver, TokenAmount: 37})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, CodeInsufficientFunds, CodeOf(err))

		c, err := f.e.Custody(f.custody)
		require.NoError(t, err)
		assert.Equal(t, uint64(36), c.CollectedFees)
		assert.Zero(t, f.e.Balance(receiver, f.usdc))
	})

	t.Run("Sol Overdraw Is Rejected", func(t *testing.T) {
		f := setup(t)
		receiver := newKey()
		held := f.e.Balance(f.e.TransferAuthority(), Lamports)
		_, err := f.e.WithdrawFees(f.admin, WithdrawFeesParams{
			Custody: f.custody, Receiver: receiver, TokenAmount: 10, SolAmount: held + 1,
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		// the token part of the same command is not applied either
		c, err := f.e.Custody(f.custody)
		require.NoError(t, err)
		assert.Equal(t, uint64(36), c.CollectedFees)
		assert.Zero(t, f.e.Balance(receiver, f.usdc))
		assert.Equal(t, held, f.e.Balance(f.e.TransferAuthority(), Lamports))
	})

	t.Run("Pays Receiver", func(t *testing.T) {
		f := setup(t)
		receiver := newKey()
		held := f.e.Balance(f.e.TransferAuthority(), Lamports)
		status, err := f.e.WithdrawFees(f.admin, WithdrawFeesParams{
			Custody: f.custody, Receiver: receiver, TokenAmount: 20, SolAmount: 1,
		})
		require.NoError(t, err)
		assert.True(t, status.Executed)

		assert.Equal(t, uint64(20), f.e.Balance(receiver, f.usdc))
		assert.Equal(t, uint64(1), f.e.Balance(receiver, Lamports))
		assert.Equal(t, held-1, f.e.Balance(f.e.TransferAuthority(), Lamports))
		assert.Equal(t, uint64(3_600-20), f.e.Balance(f.custodyTokenAccount(f.usdc), f.usdc))

		c, err := f.e.Custody(f.custody)
		require.NoError(t, err)
		assert.Equal(t, uint64(16), c.CollectedFees)

		_, err = f.e.WithdrawFees(f.admin, WithdrawFeesParams{Custody: f.custody, Receiver: receiver, TokenAmount: 17})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("Nothing To Withdraw", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.e.WithdrawFees(f.admin, WithdrawFeesParams{Custody: f.custody, Receiver: newKey()})
		assert.Equal(t, CodeInvalidTokenAmount, CodeOf(err))
	})
}

func TestCheckOraclePrice(t *testing.T) {
	t.Run("Wide Confidence Is Rejected", func(t *testing.T) {
		f := newFixture(t, true)
		sol := f.initCustody(lpsolana.NATIVE_MINT, 9, false)
		f.setOraclePrice(f.custody, 1)
		f.fund(f.bidder, lpsolana.NATIVE_MINT, 1_000_000_000)

		_, err := f.e.SetOracleConfig(f.admin, SetOracleConfigParams{Custody: sol, Oracle: OracleParams{
			OracleKind: OracleTest, MaxOraclePriceError: 0.01, MaxOraclePriceAgeSec: 60,
		}})
		require.NoError(t, err)
		_, err = f.e.SetTestOraclePrice(f.admin, SetTestOraclePriceParams{
			Custody: sol, Price: 100, Conf: 50, PublishTime: f.now,
		})
		require.NoError(t, err)

		_, err = f.e.OraclePrice(context.Background(), sol)
		assert.ErrorIs(t, err, ErrOraclePrice)
		assert.Equal(t, CodeInvalidOraclePrice, CodeOf(err))

		p := f.auctionParams("genesis-sale")
		p.Payment.AcceptSol = true
		key := f.newAuction(p)
		_, err = f.e.PlaceBid(context.Background(), f.bidder, PlaceBidParams{
			Auction: key, PaymentCustody: sol, Price: 100, Amount: 10,
		})
		assert.ErrorIs(t, err, ErrOraclePrice)
		assert.Zero(t, f.e.Balance(f.bidder, f.token))

		// a tight reading passes the same bound
		_, err = f.e.SetTestOraclePrice(f.admin, SetTestOraclePriceParams{
			Custody: sol, Price: 100, Conf: 1, PublishTime: f.now,
		})
		require.NoError(t, err)
		_, err = f.e.OraclePrice(context.Background(), sol)
		assert.NoError(t, err)
	})

	t.Run("Non Positive Price Is Rejected", func(t *testing.T) {
		f := newFixture(t, true)
		for _, price := range []int64{0, -5} {
			_, err := f.e.SetTestOraclePrice(f.admin, SetTestOraclePriceParams{
				Custody: f.custody, Price: price, PublishTime: f.now,
			})
			require.NoError(t, err)
			_, err = f.e.OraclePrice(context.Background(), f.custody)
			assert.ErrorIs(t, err, ErrOraclePrice)
		}
	})

	t.Run("Bound Disabled At Zero", func(t *testing.T) {
		c := &Custody{Oracle: OracleParams{OracleKind: OracleTest, MaxOraclePriceAgeSec: 60}}
		price, err := CheckOraclePrice(c, OraclePrice{Price: 100, Conf: 99, PublishTime: 10}, 20)
		require.NoError(t, err)
		assert.Equal(t, "100", price.String())
	})
}
