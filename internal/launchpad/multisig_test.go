package launchpad

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuorumEngine(t *testing.T, testMode bool) (*Engine, []solana.PublicKey) {
	e, err := NewEngine(Config{TestMode: testMode}, NewMemoryLedger())
	require.NoError(t, err)
	admins := []solana.PublicKey{newKey(), newKey(), newKey()}
	require.NoError(t, e.Init(admins[0], InitParams{Signers: admins, MinSignatures: 2}))
	return e, admins
}

func TestInit(t *testing.T) {
	t.Run("Runs Once", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		err := e.Init(admins[0], InitParams{Signers: admins, MinSignatures: 2})
		assert.ErrorIs(t, err, ErrAlreadyInUse)
		assert.Equal(t, CodeAlreadyInitialized, CodeOf(err))
	})

	t.Run("Rejects Bad Signer Sets", func(t *testing.T) {
		e, err := NewEngine(Config{}, NewMemoryLedger())
		require.NoError(t, err)
		a := newKey()
		assert.ErrorIs(t, e.Init(a, InitParams{Signers: []solana.PublicKey{a, a}, MinSignatures: 1}), ErrInvalidConfig)
		assert.ErrorIs(t, e.Init(a, InitParams{Signers: []solana.PublicKey{a}, MinSignatures: 2}), ErrInvalidConfig)
		assert.ErrorIs(t, e.Init(a, InitParams{MinSignatures: 1}), ErrInvalidConfig)
	})

	t.Run("Upgrade Authority Gates Init", func(t *testing.T) {
		authority := newKey()
		e, err := NewEngine(Config{UpgradeAuthority: authority}, NewMemoryLedger())
		require.NoError(t, err)
		signers := []solana.PublicKey{newKey()}
		err = e.Init(newKey(), InitParams{Signers: signers, MinSignatures: 1})
		assert.Equal(t, CodeInvalidInitializer, CodeOf(err))
		require.NoError(t, e.Init(authority, InitParams{Signers: signers, MinSignatures: 1}))
	})
}

func TestQuorum(t *testing.T) {
	fees := Fees{Trade: Fee{Numerator: 1, Denominator: 50}}

	t.Run("Executes On Second Signature", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)

		status, err := e.SetFees(admins[0], SetFeesParams{Fees: fees})
		require.NoError(t, err)
		assert.False(t, status.Executed)
		assert.Equal(t, uint8(1), status.SignaturesLeft)
		lp, err := e.Launchpad()
		require.NoError(t, err)
		assert.Equal(t, Fee{}, lp.Fees.Trade)

		status, err = e.SetFees(admins[1], SetFeesParams{Fees: fees})
		require.NoError(t, err)
		assert.True(t, status.Executed)
		lp, err = e.Launchpad()
		require.NoError(t, err)
		assert.Equal(t, fees.Trade, lp.Fees.Trade)

		ms, err := e.Multisig()
		require.NoError(t, err)
		assert.Equal(t, uint8(0), ms.NumSigned)
		assert.Equal(t, uint64(0), ms.InstructionHash)
	})

	t.Run("Resigning Is A No-op", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		_, err := e.SetFees(admins[0], SetFeesParams{Fees: fees})
		require.NoError(t, err)
		status, err := e.SetFees(admins[0], SetFeesParams{Fees: fees})
		require.NoError(t, err)
		assert.False(t, status.Executed)
		assert.Equal(t, uint8(1), status.NumSigned)
	})

	t.Run("Different Proposal Resets Approvals", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		_, err := e.SetFees(admins[0], SetFeesParams{Fees: fees})
		require.NoError(t, err)

		other := Fees{Trade: Fee{Numerator: 1, Denominator: 10}}
		status, err := e.SetFees(admins[1], SetFeesParams{Fees: other})
		require.NoError(t, err)
		assert.True(t, status.Reset)
		assert.False(t, status.Executed)
		assert.Equal(t, uint8(1), status.NumSigned)

		// the first admin's earlier approval was for other arguments and no longer counts
		status, err = e.SetFees(admins[2], SetFeesParams{Fees: other})
		require.NoError(t, err)
		assert.True(t, status.Executed)
		lp, err := e.Launchpad()
		require.NoError(t, err)
		assert.Equal(t, other.Trade, lp.Fees.Trade)
	})

	t.Run("Unknown Signer Is Rejected", func(t *testing.T) {
		e, _ := newQuorumEngine(t, false)
		_, err := e.SetFees(newKey(), SetFeesParams{Fees: fees})
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.Equal(t, CodeMultisigAccountNotAuthorized, CodeOf(err))
	})

	t.Run("Signer Set Replacement", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		next := []solana.PublicKey{newKey()}
		p := SetAdminSignersParams{Signers: next, MinSignatures: 1}
		_, err := e.SetAdminSigners(admins[0], p)
		require.NoError(t, err)
		status, err := e.SetAdminSigners(admins[2], p)
		require.NoError(t, err)
		require.True(t, status.Executed)

		_, err = e.SetFees(admins[0], SetFeesParams{Fees: fees})
		assert.ErrorIs(t, err, ErrNotAuthorized)
		status, err = e.SetFees(next[0], SetFeesParams{Fees: fees})
		require.NoError(t, err)
		assert.True(t, status.Executed)
	})

	t.Run("Invalid Fees Are Rejected Before Signing", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		_, err := e.SetFees(admins[0], SetFeesParams{Fees: Fees{Trade: Fee{Numerator: 2, Denominator: 1}}})
		assert.ErrorIs(t, err, ErrInvalidConfig)
		ms, err := e.Multisig()
		require.NoError(t, err)
		assert.Equal(t, uint8(0), ms.NumSigned)
	})

	t.Run("Test Commands Need Test Mode", func(t *testing.T) {
		e, admins := newQuorumEngine(t, false)
		_, err := e.SetTestTime(admins[0], SetTestTimeParams{Auction: newKey(), Time: 5})
		assert.ErrorIs(t, err, ErrInvalidEnvironment)
		_, err = e.SetTestOraclePrice(admins[0], SetTestOraclePriceParams{Custody: newKey(), Price: 1})
		assert.ErrorIs(t, err, ErrInvalidEnvironment)
		assert.ErrorIs(t, e.Airdrop(admins[0], Lamports, 1), ErrInvalidEnvironment)

		ms, err := e.Multisig()
		require.NoError(t, err)
		assert.Equal(t, uint8(0), ms.NumSigned)
	})
}

func TestFingerprint(t *testing.T) {
	a := SetFeesParams{Fees: Fees{Trade: Fee{Numerator: 1, Denominator: 100}}}
	b := SetFeesParams{Fees: Fees{Trade: Fee{Numerator: 1, Denominator: 101}}}

	ha, accountsLen, dataLen, err := fingerprint(a)
	require.NoError(t, err)
	again, _, _, err := fingerprint(a)
	require.NoError(t, err)
	hb, _, _, err := fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, ha, again)
	assert.NotEqual(t, ha, hb)
	assert.NotZero(t, ha)
	assert.Equal(t, uint8(0), accountsLen)
	// instruction byte plus four fees of two u64 each
	assert.Equal(t, uint16(1+4*16), dataLen)

	x, _, _, err := fingerprint(DeleteAuctionParams{Auction: newKey()})
	require.NoError(t, err)
	y, _, _, err := fingerprint(DeleteAuctionParams{Auction: newKey()})
	require.NoError(t, err)
	assert.NotEqual(t, x, y)
}
