package utils

import (
	"errors"
	"math/bits"
)

var (
	ErrOverflow     = errors.New("math overflow")
	ErrDivideByZero = errors.New("divide by zero")
)

// CheckedAdd returns a+b or ErrOverflow
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrOverflow when b > a
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// CheckedMul returns a*b or ErrOverflow
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// MulDiv computes floor(a*b/c) with a 128-bit intermediate product
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}

// MulDivCeil computes ceil(a*b/c) with a 128-bit intermediate product
func MulDivCeil(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrOverflow
	}
	quo, rem := bits.Div64(hi, lo, c)
	if rem != 0 {
		return CheckedAdd(quo, 1)
	}
	return quo, nil
}

// CeilDiv returns ceil(a/b); b must be non-zero
func CeilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

func MinU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
