package loan

import (
	"math"

	"github.com/holiman/uint256"
)

// BasisPoints is the denominator for every bps-denominated rate.
const BasisPoints = 10_000

// mulDiv returns floor(a*b/denom) computed on a 256-bit intermediate. The
// result must fit back into 64 bits.
func mulDiv(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, ErrDivideByZero
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow {
		return 0, ErrOverflow
	}
	quotient := new(uint256.Int).Div(product, uint256.NewInt(denom))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedAdd32(a, b uint32) (uint32, error) {
	if b > math.MaxUint32-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func checkedSub32(a, b uint32) (uint32, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// BpsOf returns floor(amount*bps/10000).
func BpsOf(amount uint64, bps uint16) (uint64, error) {
	return mulDiv(amount, uint64(bps), BasisPoints)
}
