package launchpad

import (
	"errors"
	"fmt"

	"launchpad/pkg/utils"
)

// Error categories. Every *Error unwraps to exactly one of these.
var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrAlreadyInUse       = errors.New("already in use")
	ErrStaleOracle        = errors.New("stale oracle price")
	ErrOraclePrice        = errors.New("oracle price error")
	ErrAuctionClosed      = errors.New("auction closed")
	ErrLimitExceeded      = errors.New("limit exceeded")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrNotFound           = errors.New("not found")
	ErrInvalidEnvironment = errors.New("invalid environment")
	ErrAuctionNotEmpty    = errors.New("auction not empty")
)

// Stable error codes reported to clients
const (
	CodeMultisigAccountNotAuthorized = "MultisigAccountNotAuthorized"
	CodeNotAuctionOwner              = "NotAuctionOwner"
	CodeNotBidParticipant            = "NotBidParticipant"
	CodeNotWhitelisted               = "NotWhitelisted"
	CodeInvalidInitializer           = "InvalidInitializer"
	CodeAlreadyInitialized           = "AlreadyInitialized"
	CodeAccountAlreadyInUse          = "AccountAlreadyInUse"
	CodeInvalidLaunchpadConfig       = "InvalidLaunchpadConfig"
	CodeInvalidCustodyConfig         = "InvalidCustodyConfig"
	CodeInvalidAuctionConfig         = "InvalidAuctionConfig"
	CodeInvalidPricingConfig         = "InvalidPricingConfig"
	CodeInvalidTokenAmount           = "InvalidTokenAmount"
	CodeNewAuctionsNotAllowed        = "NewAuctionsNotAllowed"
	CodeAuctionUpdatesNotAllowed     = "AuctionUpdatesNotAllowed"
	CodeAuctionRefillsNotAllowed     = "AuctionRefillsNotAllowed"
	CodeAuctionPullOutsNotAllowed    = "AuctionPullOutsNotAllowed"
	CodeBidsNotAllowed               = "BidsNotAllowed"
	CodeWithdrawalsNotAllowed        = "WithdrawalsNotAllowed"
	CodePaymentNotAccepted           = "PaymentNotAccepted"
	CodeAuctionNotUpdatable          = "AuctionNotUpdatable"
	CodeAuctionWithFixedAmount       = "AuctionWithFixedAmount"
	CodeBidHasFills                  = "BidHasFills"
	CodeInvalidEnvironment           = "InvalidEnvironment"
	CodeAuctionDisabled              = "AuctionDisabled"
	CodeAuctionNotStarted            = "AuctionNotStarted"
	CodeAuctionEnded                 = "AuctionEnded"
	CodeAuctionNotEmpty              = "AuctionNotEmpty"
	CodeAuctionEmpty                 = "AuctionEmpty"
	CodeOrderLimitExceeded           = "OrderLimitExceeded"
	CodeFillLimitExceeded            = "FillLimitExceeded"
	CodeInsufficientFunds            = "InsufficientFunds"
	CodeInsufficientAmount           = "InsufficientAmount"
	CodeBidAmountTooLarge            = "BidAmountTooLarge"
	CodeBidPriceTooSmall             = "BidPriceTooSmall"
	CodeUnsupportedOracle            = "UnsupportedOracle"
	CodeInvalidOracleAccount         = "InvalidOracleAccount"
	CodeInvalidOracleState           = "InvalidOracleState"
	CodeStaleOraclePrice             = "StaleOraclePrice"
	CodeInvalidOraclePrice           = "InvalidOraclePrice"
	CodeMathOverflow                 = "MathOverflow"
	CodeAccountNotFound              = "AccountNotFound"
)

// Error is a rejected operation. Nothing it describes was applied.
type Error struct {
	Code string
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, code string, format string, args ...interface{}) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Kind: kind, Msg: msg}
}

// CodeOf returns the error code of err, or "" if err is not an engine error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func notFound(what string) *Error {
	return newError(ErrNotFound, CodeAccountNotFound, "%s", what)
}

func mathErr(err error) error {
	if errors.Is(err, utils.ErrOverflow) || errors.Is(err, utils.ErrDivideByZero) {
		return newError(ErrArithmeticOverflow, CodeMathOverflow, "%v", err)
	}
	return err
}

func add(a, b uint64) (uint64, error) {
	v, err := utils.CheckedAdd(a, b)
	return v, mathErr(err)
}

func sub(a, b uint64) (uint64, error) {
	v, err := utils.CheckedSub(a, b)
	return v, mathErr(err)
}

func mul(a, b uint64) (uint64, error) {
	v, err := utils.CheckedMul(a, b)
	return v, mathErr(err)
}

func mulDiv(a, b, c uint64) (uint64, error) {
	v, err := utils.MulDiv(a, b, c)
	return v, mathErr(err)
}
