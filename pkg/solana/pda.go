package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Launchpad program constants
var (
	LAUNCHPAD_PROGRAM_ID = solana.MustPublicKeyFromBase58("LPD1BCWvd499Rk7aG5zG8uieUTTqba1JaYkUpXjUN9q")

	// NATIVE_MINT is the wrapped SOL mint
	NATIVE_MINT = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// PDA seeds
var (
	SEED_MULTISIG              = []byte("multisig")
	SEED_TRANSFER_AUTHORITY    = []byte("transfer_authority")
	SEED_LAUNCHPAD             = []byte("launchpad")
	SEED_AUCTION               = []byte("auction")
	SEED_CUSTODY               = []byte("custody")
	SEED_CUSTODY_TOKEN_ACCOUNT = []byte("custody_token_account")
	SEED_ORACLE_ACCOUNT        = []byte("oracle_account")
	SEED_BID                   = []byte("bid")
	SEED_SELLER_BALANCE        = []byte("seller_balance")
	SEED_DISPENSE              = []byte("dispense")
)

// MaxSeedLength is the longest single seed FindProgramAddress accepts
const MaxSeedLength = 32

// PDAResult is a derived address and its bump seed
type PDAResult struct {
	Address solana.PublicKey
	Bump    uint8
}

// Deriver derives launchpad account addresses for one program id
type Deriver struct {
	ProgramID solana.PublicKey
}

func NewDeriver(programID solana.PublicKey) *Deriver {
	if programID.IsZero() {
		programID = LAUNCHPAD_PROGRAM_ID
	}
	return &Deriver{ProgramID: programID}
}

func (d *Deriver) find(name string, seeds ...[]byte) (PDAResult, error) {
	address, bump, err := solana.FindProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find %s PDA: %w", name, err)
	}
	return PDAResult{Address: address, Bump: bump}, nil
}

func (d *Deriver) MultisigPDA() (PDAResult, error) {
	return d.find("multisig", SEED_MULTISIG)
}

func (d *Deriver) TransferAuthorityPDA() (PDAResult, error) {
	return d.find("transfer authority", SEED_TRANSFER_AUTHORITY)
}

func (d *Deriver) LaunchpadPDA() (PDAResult, error) {
	return d.find("launchpad", SEED_LAUNCHPAD)
}

// AuctionPDA keys an auction by its name, so names must fit in one seed
func (d *Deriver) AuctionPDA(name string) (PDAResult, error) {
	if len(name) > MaxSeedLength {
		return PDAResult{}, fmt.Errorf("auction name longer than %d bytes", MaxSeedLength)
	}
	return d.find("auction", SEED_AUCTION, []byte(name))
}

func (d *Deriver) CustodyPDA(mint solana.PublicKey) (PDAResult, error) {
	return d.find("custody", SEED_CUSTODY, mint[:])
}

func (d *Deriver) CustodyTokenAccountPDA(mint solana.PublicKey) (PDAResult, error) {
	return d.find("custody token account", SEED_CUSTODY_TOKEN_ACCOUNT, mint[:])
}

// OraclePDA is the test oracle account bound to a custody
func (d *Deriver) OraclePDA(custody solana.PublicKey) (PDAResult, error) {
	return d.find("oracle", SEED_ORACLE_ACCOUNT, custody[:])
}

func (d *Deriver) BidPDA(owner, auction solana.PublicKey) (PDAResult, error) {
	return d.find("bid", SEED_BID, owner[:], auction[:])
}

func (d *Deriver) SellerBalancePDA(owner, custody solana.PublicKey) (PDAResult, error) {
	return d.find("seller balance", SEED_SELLER_BALANCE, owner[:], custody[:])
}

func (d *Deriver) DispensePDA(mint, auction solana.PublicKey) (PDAResult, error) {
	return d.find("dispense", SEED_DISPENSE, mint[:], auction[:])
}
