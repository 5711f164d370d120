package launchpad

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

type AdminInstruction uint8

const (
	InstructionSetAdminSigners AdminInstruction = iota + 1
	InstructionSetFees
	InstructionSetPermissions
	InstructionInitCustody
	InstructionSetOracleConfig
	InstructionWithdrawFees
	InstructionDeleteAuction
	InstructionSetTestOraclePrice
	InstructionSetTestTime
)

var adminInstructionNames = map[AdminInstruction]string{
	InstructionSetAdminSigners:    "set_admin_signers",
	InstructionSetFees:            "set_fees",
	InstructionSetPermissions:     "set_permissions",
	InstructionInitCustody:        "init_custody",
	InstructionSetOracleConfig:    "set_oracle_config",
	InstructionWithdrawFees:       "withdraw_fees",
	InstructionDeleteAuction:      "delete_auction",
	InstructionSetTestOraclePrice: "set_test_oracle_price",
	InstructionSetTestTime:        "set_test_time",
}

func (i AdminInstruction) String() string { return adminInstructionNames[i] }

// QuorumStatus reports where a proposal stands after one signature
type QuorumStatus struct {
	Instruction    string           `json:"instruction"`
	Signer         solana.PublicKey `json:"signer"`
	NumSigned      uint8            `json:"num_signed"`
	SignaturesLeft uint8            `json:"signatures_left"`
	Executed       bool             `json:"executed"`
	// Reset is set when this proposal replaced a different one and discarded its approvals
	Reset bool `json:"reset"`
}

type adminCommand interface {
	instruction() AdminInstruction
	accounts() []solana.PublicKey
	encode(w *borshWriter)
	validate() error
	execute(tx *txn) error
}

// testOnlyCommand marks commands that are refused outside test mode before any signature is recorded
type testOnlyCommand interface {
	testOnly()
}

type borshWriter struct {
	enc *bin.Encoder
	err error
}

func (w *borshWriter) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *borshWriter) flag(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *borshWriter) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, binary.LittleEndian)
	}
}

func (w *borshWriter) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, binary.LittleEndian)
	}
}

func (w *borshWriter) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, binary.LittleEndian)
	}
}

func (w *borshWriter) key(k solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(k[:], false)
	}
}

func (w *borshWriter) fee(f Fee) {
	w.u64(f.Numerator)
	w.u64(f.Denominator)
}

func (w *borshWriter) oracle(p OracleParams) {
	w.key(p.OracleAccount)
	w.u8(uint8(p.OracleKind))
	w.u64(math.Float64bits(p.MaxOraclePriceError))
	w.u32(p.MaxOraclePriceAgeSec)
}

// fingerprint hashes target accounts and borsh-encoded arguments into a non-zero u64
func fingerprint(cmd adminCommand) (hash uint64, accountsLen uint8, dataLen uint16, err error) {
	var data bytes.Buffer
	w := &borshWriter{enc: bin.NewBorshEncoder(&data)}
	w.u8(uint8(cmd.instruction()))
	cmd.encode(w)
	if w.err != nil {
		return 0, 0, 0, w.err
	}
	accounts := cmd.accounts()
	h := sha256.New()
	for _, a := range accounts {
		h.Write(a[:])
	}
	h.Write(data.Bytes())
	sum := h.Sum(nil)
	hash = binary.LittleEndian.Uint64(sum[:8])
	if hash == 0 {
		hash = 1
	}
	return hash, uint8(len(accounts)), uint16(data.Len()), nil
}

func (m *Multisig) signerIndex(signer solana.PublicKey) int {
	for i := 0; i < int(m.NumSigners); i++ {
		if m.Signers[i] == signer {
			return i
		}
	}
	return -1
}

func (m *Multisig) clearProposal() {
	m.NumSigned = 0
	m.InstructionAccountsLen = 0
	m.InstructionDataLen = 0
	m.InstructionHash = 0
	m.Signed = [MaxSigners]bool{}
}

func validateSigners(signers []solana.PublicKey, minSignatures uint8) error {
	if len(signers) == 0 || len(signers) > MaxSigners {
		return newError(ErrInvalidConfig, CodeInvalidLaunchpadConfig, "need 1 to %d signers, got %d", MaxSigners, len(signers))
	}
	unique := mapset.NewThreadUnsafeSet[solana.PublicKey]()
	for _, s := range signers {
		if s.IsZero() || !unique.Add(s) {
			return newError(ErrInvalidConfig, CodeInvalidLaunchpadConfig, "signer %s is empty or repeated", s)
		}
	}
	if minSignatures == 0 || int(minSignatures) > len(signers) {
		return newError(ErrInvalidConfig, CodeInvalidLaunchpadConfig, "min signatures %d out of range", minSignatures)
	}
	return nil
}

func (m *Multisig) setSigners(signers []solana.PublicKey, minSignatures uint8) {
	m.Signers = [MaxSigners]solana.PublicKey{}
	copy(m.Signers[:], signers)
	m.NumSigners = uint8(len(signers))
	m.MinSignatures = minSignatures
	m.clearProposal()
}

// submit records signer's approval of cmd and executes it once quorum is reached.
// A proposal whose fingerprint differs from the pending one discards all prior approvals.
func (e *Engine) submit(signer solana.PublicKey, cmd adminCommand) (QuorumStatus, error) {
	name := cmd.instruction().String()
	status := QuorumStatus{Instruction: name, Signer: signer}
	err := e.atomically(name, logrus.Fields{"signer": signer.String()}, func(tx *txn) error {
		if _, ok := cmd.(testOnlyCommand); ok {
			if err := tx.requireTestMode(); err != nil {
				return err
			}
		}
		if err := cmd.validate(); err != nil {
			return err
		}
		ms, err := tx.multisig()
		if err != nil {
			return err
		}
		idx := ms.signerIndex(signer)
		if idx < 0 {
			return newError(ErrNotAuthorized, CodeMultisigAccountNotAuthorized, "%s is not an admin signer", signer)
		}
		hash, accountsLen, dataLen, err := fingerprint(cmd)
		if err != nil {
			return err
		}
		if ms.InstructionHash != hash || ms.InstructionAccountsLen != accountsLen || ms.InstructionDataLen != dataLen {
			status.Reset = ms.NumSigned > 0
			ms.clearProposal()
			ms.InstructionHash = hash
			ms.InstructionAccountsLen = accountsLen
			ms.InstructionDataLen = dataLen
		}
		if !ms.Signed[idx] {
			ms.Signed[idx] = true
			ms.NumSigned++
		}
		status.NumSigned = ms.NumSigned
		if ms.NumSigned < ms.MinSignatures {
			status.SignaturesLeft = ms.MinSignatures - ms.NumSigned
			pending := status
			tx.emit(Event{Kind: EventQuorumSigned, Time: tx.now(), Quorum: &pending})
			return nil
		}

		if err := cmd.execute(tx); err != nil {
			return err
		}
		ms.clearProposal()
		status.Executed = true
		executed := status
		tx.emit(Event{Kind: EventQuorumExecuted, Time: tx.now(), Quorum: &executed})
		return nil
	})
	if err != nil {
		return QuorumStatus{}, err
	}
	return status, nil
}

type InitParams struct {
	Signers       []solana.PublicKey `json:"signers"`
	MinSignatures uint8              `json:"min_signatures"`
	Permissions   Permissions        `json:"permissions"`
	Fees          Fees               `json:"fees"`
}

// Init creates the launchpad and its admin multisig. It runs once.
func (e *Engine) Init(caller solana.PublicKey, p InitParams) error {
	return e.atomically("init", logrus.Fields{"caller": caller.String()}, func(tx *txn) error {
		if !e.cfg.UpgradeAuthority.IsZero() && caller != e.cfg.UpgradeAuthority {
			return newError(ErrNotAuthorized, CodeInvalidInitializer, "%s is not the upgrade authority", caller)
		}
		if tx.launchpads.exists(e.launchpadKey.Address) || tx.multisigs.exists(e.multisigKey.Address) {
			return newError(ErrAlreadyInUse, CodeAlreadyInitialized, "launchpad is already initialized")
		}
		if err := validateSigners(p.Signers, p.MinSignatures); err != nil {
			return err
		}
		if !p.Fees.Valid() {
			return newError(ErrInvalidConfig, CodeInvalidLaunchpadConfig, "invalid fees")
		}
		ms := &Multisig{Bump: e.multisigKey.Bump}
		ms.setSigners(p.Signers, p.MinSignatures)
		tx.multisigs.put(e.multisigKey.Address, ms)
		tx.launchpads.put(e.launchpadKey.Address, &Launchpad{
			Permissions:           p.Permissions,
			Fees:                  p.Fees,
			TransferAuthorityBump: e.transferAuthorityKey.Bump,
			LaunchpadBump:         e.launchpadKey.Bump,
		})
		return nil
	})
}

type SetAdminSignersParams struct {
	Signers       []solana.PublicKey `json:"signers"`
	MinSignatures uint8              `json:"min_signatures"`
}

func (p SetAdminSignersParams) instruction() AdminInstruction { return InstructionSetAdminSigners }
func (p SetAdminSignersParams) accounts() []solana.PublicKey  { return nil }
func (p SetAdminSignersParams) validate() error               { return validateSigners(p.Signers, p.MinSignatures) }

func (p SetAdminSignersParams) encode(w *borshWriter) {
	w.u32(uint32(len(p.Signers)))
	for _, s := range p.Signers {
		w.key(s)
	}
	w.u8(p.MinSignatures)
}

func (p SetAdminSignersParams) execute(tx *txn) error {
	ms, err := tx.multisig()
	if err != nil {
		return err
	}
	ms.setSigners(p.Signers, p.MinSignatures)
	return nil
}

// SetAdminSigners replaces the signer set; the current quorum must approve it
func (e *Engine) SetAdminSigners(signer solana.PublicKey, p SetAdminSignersParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type SetFeesParams struct {
	Fees Fees `json:"fees"`
}

func (p SetFeesParams) instruction() AdminInstruction { return InstructionSetFees }
func (p SetFeesParams) accounts() []solana.PublicKey  { return nil }

func (p SetFeesParams) encode(w *borshWriter) {
	w.fee(p.Fees.NewAuction)
	w.fee(p.Fees.AuctionUpdate)
	w.fee(p.Fees.InvalidBid)
	w.fee(p.Fees.Trade)
}

func (p SetFeesParams) validate() error {
	if !p.Fees.Valid() {
		return newError(ErrInvalidConfig, CodeInvalidLaunchpadConfig, "fee numerator must be below denominator")
	}
	return nil
}

func (p SetFeesParams) execute(tx *txn) error {
	lp, err := tx.launchpad()
	if err != nil {
		return err
	}
	lp.Fees = p.Fees
	return nil
}

func (e *Engine) SetFees(signer solana.PublicKey, p SetFeesParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type SetPermissionsParams struct {
	Permissions Permissions `json:"permissions"`
}

func (p SetPermissionsParams) instruction() AdminInstruction { return InstructionSetPermissions }
func (p SetPermissionsParams) accounts() []solana.PublicKey  { return nil }
func (p SetPermissionsParams) validate() error               { return nil }

func (p SetPermissionsParams) encode(w *borshWriter) {
	w.flag(p.Permissions.AllowNewAuctions)
	w.flag(p.Permissions.AllowAuctionUpdates)
	w.flag(p.Permissions.AllowAuctionRefills)
	w.flag(p.Permissions.AllowAuctionPullouts)
	w.flag(p.Permissions.AllowNewBids)
	w.flag(p.Permissions.AllowWithdrawals)
}

func (p SetPermissionsParams) execute(tx *txn) error {
	lp, err := tx.launchpad()
	if err != nil {
		return err
	}
	lp.Permissions = p.Permissions
	return nil
}

func (e *Engine) SetPermissions(signer solana.PublicKey, p SetPermissionsParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type DeleteAuctionParams struct {
	Auction solana.PublicKey `json:"auction"`
}

func (p DeleteAuctionParams) instruction() AdminInstruction { return InstructionDeleteAuction }
func (p DeleteAuctionParams) accounts() []solana.PublicKey  { return []solana.PublicKey{p.Auction} }
func (p DeleteAuctionParams) encode(w *borshWriter)         {}
func (p DeleteAuctionParams) validate() error               { return nil }

func (p DeleteAuctionParams) execute(tx *txn) error {
	a, err := tx.auction(p.Auction)
	if err != nil {
		return err
	}
	for _, t := range a.activeTokens() {
		if bal := tx.balance(t.Account, t.Mint); bal > 0 {
			return newError(ErrAuctionNotEmpty, CodeAuctionNotEmpty, "dispensing account %s still holds %d", t.Account, bal)
		}
	}
	if err := tx.closeDeposit(p.Auction, a.Owner); err != nil {
		return err
	}
	tx.auctions.remove(p.Auction)
	tx.emit(Event{Kind: EventAuctionDeleted, Time: tx.now(), Auction: p.Auction})
	return nil
}

// DeleteAuction removes an auction whose dispensing accounts are all empty
func (e *Engine) DeleteAuction(signer solana.PublicKey, p DeleteAuctionParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type SetTestTimeParams struct {
	Auction solana.PublicKey `json:"auction"`
	Time    int64            `json:"time"`
}

func (p SetTestTimeParams) testOnly()                      {}
func (p SetTestTimeParams) instruction() AdminInstruction { return InstructionSetTestTime }
func (p SetTestTimeParams) accounts() []solana.PublicKey  { return []solana.PublicKey{p.Auction} }
func (p SetTestTimeParams) encode(w *borshWriter)         { w.i64(p.Time) }
func (p SetTestTimeParams) validate() error               { return nil }

func (p SetTestTimeParams) execute(tx *txn) error {
	a, err := tx.auction(p.Auction)
	if err != nil {
		return err
	}
	a.CreationTime = p.Time
	return nil
}

// SetTestTime moves an auction's test clock
func (e *Engine) SetTestTime(signer solana.PublicKey, p SetTestTimeParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}
