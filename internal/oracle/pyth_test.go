package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/launchpad"
	lpsolana "launchpad/pkg/solana"
)

type staticSource map[solana.PublicKey]*lpsolana.PythPrice

func (s staticSource) ReadPrice(_ context.Context, account solana.PublicKey) (*lpsolana.PythPrice, error) {
	p, ok := s[account]
	if !ok {
		return nil, errors.New("account not found")
	}
	return p, nil
}

func TestPyth(t *testing.T) {
	feed := solana.NewWallet().PublicKey()
	admin := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	src := staticSource{feed: {Price: 14_250_000_000, Expo: -8, Conf: 1_000_000, PublishTime: 990, Status: lpsolana.PYTH_STATUS_TRADING}}

	t.Run("Maps Reading", func(t *testing.T) {
		got, err := NewPyth(src).ReadOracle(context.Background(), feed)
		require.NoError(t, err)
		assert.Equal(t, launchpad.OraclePrice{Price: 14_250_000_000, Expo: -8, Conf: 1_000_000, PublishTime: 990}, got)
		assert.Equal(t, "142.5", got.Decimal().String())
	})

	t.Run("Serves Engine Custody", func(t *testing.T) {
		e, err := launchpad.NewEngine(launchpad.Config{}, launchpad.NewMemoryLedger(),
			launchpad.WithClock(launchpad.ClockFunc(func() int64 { return 1_000 })),
			launchpad.WithOracleReader(NewPyth(src)),
		)
		require.NoError(t, err)
		require.NoError(t, e.Init(admin, launchpad.InitParams{Signers: []solana.PublicKey{admin}, MinSignatures: 1}))
		_, err = e.InitCustody(admin, launchpad.InitCustodyParams{
			Mint:     mint,
			Decimals: 9,
			Oracle: launchpad.OracleParams{
				OracleAccount:        feed,
				OracleKind:           launchpad.OraclePyth,
				MaxOraclePriceError:  0.01,
				MaxOraclePriceAgeSec: 30,
			},
		})
		require.NoError(t, err)
		custody, err := e.Deriver().CustodyPDA(mint)
		require.NoError(t, err)

		price, err := e.OraclePrice(context.Background(), custody.Address)
		require.NoError(t, err)
		assert.Equal(t, int64(14_250_000_000), price.Price)
	})

	t.Run("Read Failure Is An Oracle Error", func(t *testing.T) {
		e, err := launchpad.NewEngine(launchpad.Config{}, launchpad.NewMemoryLedger(),
			launchpad.WithOracleReader(NewPyth(staticSource{})),
		)
		require.NoError(t, err)
		require.NoError(t, e.Init(admin, launchpad.InitParams{Signers: []solana.PublicKey{admin}, MinSignatures: 1}))
		_, err = e.InitCustody(admin, launchpad.InitCustodyParams{
			Mint:   mint,
			Oracle: launchpad.OracleParams{OracleAccount: feed, OracleKind: launchpad.OraclePyth, MaxOraclePriceAgeSec: 30},
		})
		require.NoError(t, err)
		custody, err := e.Deriver().CustodyPDA(mint)
		require.NoError(t, err)

		_, err = e.OraclePrice(context.Background(), custody.Address)
		assert.ErrorIs(t, err, launchpad.ErrOraclePrice)
		assert.Equal(t, launchpad.CodeInvalidOracleAccount, launchpad.CodeOf(err))
	})
}
