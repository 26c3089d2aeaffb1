package vault

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

// math.go holds the fixed-width arithmetic shared by the accountant and the
// claim verifier. Stored quantities are u128; intermediates are widened to
// 256 bits so a product of two u128 values can never wrap.

var rayInt = uint256.NewInt(inter.RAY)

func fitsU128(v *uint256.Int) bool {
	return v[2] == 0 && v[3] == 0
}

// mulDiv returns floor(a*b/d). Both factors must fit in 128 bits.
// A zero divisor yields zero; callers rule it out beforehand.
func mulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, vaulterr.ErrArithmeticOverflow
	}
	return new(uint256.Int).Div(prod, d), nil
}

// addU128 returns a+b, failing if the sum leaves the u128 range.
func addU128(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || !fitsU128(sum) {
		return nil, vaulterr.ErrArithmeticOverflow
	}
	return sum, nil
}

// toU64 narrows v to a token amount.
func toU64(v *uint256.Int, what string) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s %s: %w", what, v.ToBig(), vaulterr.ErrAmountTooLarge)
	}
	return v.Uint64(), nil
}

// saturatingAdd64 clamps at the u64 maximum instead of wrapping.
func saturatingAdd64(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
