package launchpad

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"launchpad/pkg/utils"
)

type InitCustodyParams struct {
	Mint     solana.PublicKey `json:"mint"`
	Decimals uint8            `json:"decimals"`
	IsStable bool             `json:"is_stable"`
	Oracle   OracleParams     `json:"oracle"`
}

func (p InitCustodyParams) instruction() AdminInstruction { return InstructionInitCustody }
func (p InitCustodyParams) accounts() []solana.PublicKey  { return []solana.PublicKey{p.Mint} }

func (p InitCustodyParams) encode(w *borshWriter) {
	w.u8(p.Decimals)
	w.flag(p.IsStable)
	w.oracle(p.Oracle)
}

func (p InitCustodyParams) validate() error {
	if p.Mint.IsZero() || !p.Oracle.Valid() {
		return newError(ErrInvalidConfig, CodeInvalidCustodyConfig, "mint and a valid oracle are required")
	}
	return nil
}

func (p InitCustodyParams) execute(tx *txn) error {
	key, err := tx.e.pda.CustodyPDA(p.Mint)
	if err != nil {
		return err
	}
	if tx.custodies.exists(key.Address) {
		return newError(ErrAlreadyInUse, CodeAccountAlreadyInUse, "custody for %s already exists", p.Mint)
	}
	tokenAccount, err := tx.e.pda.CustodyTokenAccountPDA(p.Mint)
	if err != nil {
		return err
	}
	oracle, err := tx.e.bindOracle(key.Address, p.Oracle)
	if err != nil {
		return err
	}
	tx.custodies.put(key.Address, &Custody{
		TokenAccount: tokenAccount.Address,
		Mint:         p.Mint,
		Decimals:     p.Decimals,
		IsStable:     p.IsStable,
		Oracle:       oracle,
		Bump:         key.Bump,
	})
	return nil
}

// bindOracle fills in the derived test oracle account when none is given
func (e *Engine) bindOracle(custody solana.PublicKey, p OracleParams) (OracleParams, error) {
	if p.OracleKind == OracleTest && p.OracleAccount.IsZero() {
		oracle, err := e.pda.OraclePDA(custody)
		if err != nil {
			return p, err
		}
		p.OracleAccount = oracle.Address
	}
	if p.OracleAccount.IsZero() {
		return p, newError(ErrInvalidConfig, CodeInvalidOracleAccount, "oracle account is required")
	}
	return p, nil
}

// InitCustody registers a vault for one mint
func (e *Engine) InitCustody(signer solana.PublicKey, p InitCustodyParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type SetOracleConfigParams struct {
	Custody solana.PublicKey `json:"custody"`
	Oracle  OracleParams     `json:"oracle"`
}

func (p SetOracleConfigParams) instruction() AdminInstruction { return InstructionSetOracleConfig }
func (p SetOracleConfigParams) accounts() []solana.PublicKey  { return []solana.PublicKey{p.Custody} }
func (p SetOracleConfigParams) encode(w *borshWriter)         { w.oracle(p.Oracle) }

func (p SetOracleConfigParams) validate() error {
	if !p.Oracle.Valid() {
		return newError(ErrInvalidConfig, CodeInvalidCustodyConfig, "invalid oracle config")
	}
	return nil
}

func (p SetOracleConfigParams) execute(tx *txn) error {
	c, err := tx.custody(p.Custody)
	if err != nil {
		return err
	}
	oracle, err := tx.e.bindOracle(p.Custody, p.Oracle)
	if err != nil {
		return err
	}
	c.Oracle = oracle
	return nil
}

func (e *Engine) SetOracleConfig(signer solana.PublicKey, p SetOracleConfigParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type WithdrawFeesParams struct {
	Custody     solana.PublicKey `json:"custody"`
	Receiver    solana.PublicKey `json:"receiver"`
	TokenAmount uint64           `json:"token_amount"`
	SolAmount   uint64           `json:"sol_amount"`
}

func (p WithdrawFeesParams) instruction() AdminInstruction { return InstructionWithdrawFees }

func (p WithdrawFeesParams) accounts() []solana.PublicKey {
	return []solana.PublicKey{p.Custody, p.Receiver}
}

func (p WithdrawFeesParams) encode(w *borshWriter) {
	w.u64(p.TokenAmount)
	w.u64(p.SolAmount)
}

func (p WithdrawFeesParams) validate() error {
	if p.TokenAmount == 0 && p.SolAmount == 0 {
		return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "nothing to withdraw")
	}
	if p.Receiver.IsZero() {
		return newError(ErrInvalidConfig, CodeInvalidTokenAmount, "receiver is required")
	}
	return nil
}

func (p WithdrawFeesParams) execute(tx *txn) error {
	c, err := tx.custody(p.Custody)
	if err != nil {
		return err
	}
	if p.TokenAmount > c.CollectedFees {
		return newError(ErrInsufficientFunds, CodeInsufficientFunds,
			"custody collected %d, requested %d", c.CollectedFees, p.TokenAmount)
	}
	c.CollectedFees -= p.TokenAmount
	if err := tx.transfer(c.Mint, c.TokenAccount, p.Receiver, p.TokenAmount); err != nil {
		return err
	}
	return tx.transfer(Lamports, tx.e.TransferAuthority(), p.Receiver, p.SolAmount)
}

// WithdrawFees pays collected token fees of one custody and SOL fees to an admin receiver
func (e *Engine) WithdrawFees(signer solana.PublicKey, p WithdrawFeesParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

type SetTestOraclePriceParams struct {
	Custody     solana.PublicKey `json:"custody"`
	Price       int64            `json:"price"`
	Expo        int32            `json:"expo"`
	Conf        uint64           `json:"conf"`
	PublishTime int64            `json:"publish_time"`
}

func (p SetTestOraclePriceParams) testOnly() {}

func (p SetTestOraclePriceParams) instruction() AdminInstruction {
	return InstructionSetTestOraclePrice
}

func (p SetTestOraclePriceParams) accounts() []solana.PublicKey {
	return []solana.PublicKey{p.Custody}
}

func (p SetTestOraclePriceParams) encode(w *borshWriter) {
	w.i64(p.Price)
	w.u32(uint32(p.Expo))
	w.u64(p.Conf)
	w.i64(p.PublishTime)
}

func (p SetTestOraclePriceParams) validate() error { return nil }

func (p SetTestOraclePriceParams) execute(tx *txn) error {
	c, err := tx.custody(p.Custody)
	if err != nil {
		return err
	}
	if c.Oracle.OracleKind != OracleTest {
		return newError(ErrInvalidConfig, CodeInvalidOracleAccount, "custody %s does not use a test oracle", p.Custody)
	}
	tx.oracles.put(c.Oracle.OracleAccount, &OraclePrice{
		Price:       p.Price,
		Expo:        p.Expo,
		Conf:        p.Conf,
		PublishTime: p.PublishTime,
	})
	return nil
}

func (e *Engine) SetTestOraclePrice(signer solana.PublicKey, p SetTestOraclePriceParams) (QuorumStatus, error) {
	return e.submit(signer, p)
}

// oracleReading loads the raw reading bound to a custody
func (tx *txn) oracleReading(ctx context.Context, c *Custody) (OraclePrice, error) {
	switch c.Oracle.OracleKind {
	case OracleTest:
		p := tx.oracles.get(c.Oracle.OracleAccount)
		if p == nil {
			return OraclePrice{}, newError(ErrOraclePrice, CodeInvalidOracleState, "test oracle %s has no price", c.Oracle.OracleAccount)
		}
		return *p, nil
	case OraclePyth:
		if tx.e.oracles == nil {
			return OraclePrice{}, newError(ErrOraclePrice, CodeUnsupportedOracle, "no live oracle reader configured")
		}
		p, err := tx.e.oracles.ReadOracle(ctx, c.Oracle.OracleAccount)
		if err != nil {
			return OraclePrice{}, newError(ErrOraclePrice, CodeInvalidOracleAccount, "%v", err)
		}
		return p, nil
	default:
		return OraclePrice{}, newError(ErrOraclePrice, CodeUnsupportedOracle, "oracle type %s", c.Oracle.OracleKind)
	}
}

// CheckOraclePrice validates freshness and confidence of a reading against custody bounds
func CheckOraclePrice(c *Custody, p OraclePrice, now int64) (decimal.Decimal, error) {
	if p.Price <= 0 {
		return decimal.Zero, newError(ErrOraclePrice, CodeInvalidOraclePrice, "non-positive price %d", p.Price)
	}
	if now-p.PublishTime > int64(c.Oracle.MaxOraclePriceAgeSec) {
		return decimal.Zero, newError(ErrStaleOracle, CodeStaleOraclePrice,
			"published at %d, now %d, max age %ds", p.PublishTime, now, c.Oracle.MaxOraclePriceAgeSec)
	}
	if c.Oracle.MaxOraclePriceError > 0 {
		confRatio := utils.U64ToDecimal(p.Conf).Div(decimal.NewFromInt(p.Price))
		if confRatio.GreaterThan(decimal.NewFromFloat(c.Oracle.MaxOraclePriceError)) {
			return decimal.Zero, newError(ErrOraclePrice, CodeInvalidOraclePrice,
				"confidence %s exceeds %v", confRatio.StringFixed(6), c.Oracle.MaxOraclePriceError)
		}
	}
	return p.Decimal(), nil
}

// readPrice returns the normalized price of one whole token of the custody
func (tx *txn) readPrice(ctx context.Context, c *Custody, now int64) (decimal.Decimal, error) {
	p, err := tx.oracleReading(ctx, c)
	if err != nil {
		return decimal.Zero, err
	}
	return CheckOraclePrice(c, p, now)
}

// accrueFee adds a protocol fee to the custody counter; it is never decreased outside WithdrawFees
func (c *Custody) accrueFee(amount uint64) error {
	next, err := add(c.CollectedFees, amount)
	if err != nil {
		return err
	}
	c.CollectedFees = next
	return nil
}
