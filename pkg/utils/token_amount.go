package utils

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// MaxU128 is 2^128-1, the ceiling for 128-bit accumulators kept as decimals
	MaxU128 = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)), 0)

	maxU64 = U64ToDecimal(math.MaxUint64)
)

// U64ToDecimal converts without going through int64
func U64ToDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// ToUIAmount converts a raw token amount into its human readable form
func ToUIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// FromUIAmount converts a human readable amount into raw token units, rounding down
func FromUIAmount(ui decimal.Decimal, decimals uint8) (uint64, error) {
	return decimalToU64(ui.Shift(int32(decimals)).Floor())
}

// DecimalToU64Ceil rounds a non-negative decimal up to the next integer
func DecimalToU64Ceil(d decimal.Decimal) (uint64, error) {
	return decimalToU64(d.Ceil())
}

func decimalToU64(d decimal.Decimal) (uint64, error) {
	if d.Sign() < 0 || d.GreaterThan(maxU64) {
		return 0, ErrOverflow
	}
	return d.BigInt().Uint64(), nil
}

// AddU128 adds a*b to sum, failing when the result leaves the u128 range
func AddU128(sum decimal.Decimal, a, b uint64) (decimal.Decimal, error) {
	next := sum.Add(U64ToDecimal(a).Mul(U64ToDecimal(b)))
	if next.GreaterThan(MaxU128) {
		return sum, ErrOverflow
	}
	return next, nil
}
