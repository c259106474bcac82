// Bound calculus: pure interval arithmetic over *big.Int.
//
// Every function returns the tightest closed interval containing all
// possible results of the operator applied to points of the operand
// intervals. Division follows floor semantics (round toward negative
// infinity), matching the target's bounded_int_div_rem on non-negative
// dividends and the usual mathematical convention elsewhere.

package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/field/pool"
)

var bigOne = big.NewInt(1)

// floorDiv sets z = floor(a / b) and returns z. b must be non-zero.
// big.Int.Quo truncates toward zero, so the quotient is corrected when
// the signs differ and the division is inexact.
func floorDiv(z, a, b *big.Int) *big.Int {
	r := pool.BigInt.Get()
	z.QuoRem(a, b, r)
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		z.Sub(z, bigOne)
	}
	pool.BigInt.Put(r)
	return z
}

// floorMod sets z = a - floor(a/b)*b and returns z. The result has the
// sign of b.
func floorMod(z, a, b *big.Int) *big.Int {
	q := pool.BigInt.Get()
	floorDiv(q, a, b)
	q.Mul(q, b)
	z.Sub(a, q)
	pool.BigInt.Put(q)
	return z
}

// AddBounds returns the interval of a+b for a in [aMin,aMax], b in [bMin,bMax].
func AddBounds(aMin, aMax, bMin, bMax *big.Int) (*big.Int, *big.Int) {
	return new(big.Int).Add(aMin, bMin), new(big.Int).Add(aMax, bMax)
}

// SubBounds returns the interval of a-b.
func SubBounds(aMin, aMax, bMin, bMax *big.Int) (*big.Int, *big.Int) {
	return new(big.Int).Sub(aMin, bMax), new(big.Int).Sub(aMax, bMin)
}

// MulBounds returns the interval of a*b. All four corner products are
// considered; once signs differ the extremum is corner-dependent.
func MulBounds(aMin, aMax, bMin, bMax *big.Int) (*big.Int, *big.Int) {
	c1 := pool.BigInt.Get().Mul(aMin, bMin)
	c2 := pool.BigInt.Get().Mul(aMin, bMax)
	c3 := pool.BigInt.Get().Mul(aMax, bMin)
	c4 := pool.BigInt.Get().Mul(aMax, bMax)

	lo, hi := c1, c1
	for _, c := range []*big.Int{c2, c3, c4} {
		if c.Cmp(lo) < 0 {
			lo = c
		}
		if c.Cmp(hi) > 0 {
			hi = c
		}
	}
	rLo := new(big.Int).Set(lo)
	rHi := new(big.Int).Set(hi)

	pool.BigInt.Put(c1)
	pool.BigInt.Put(c2)
	pool.BigInt.Put(c3)
	pool.BigInt.Put(c4)
	return rLo, rHi
}

// QuotientBounds returns the interval of floor(a/b), taking the
// extrema over the corner quotients with zero divisor corners skipped.
// It fails when the divisor interval contains only zero.
func QuotientBounds(aMin, aMax, bMin, bMax *big.Int) (*big.Int, *big.Int, error) {
	var lo, hi *big.Int
	q := pool.BigInt.Get()
	for _, av := range []*big.Int{aMin, aMax} {
		for _, bv := range []*big.Int{bMin, bMax} {
			if bv.Sign() == 0 {
				continue
			}
			floorDiv(q, av, bv)
			if lo == nil || q.Cmp(lo) < 0 {
				lo = new(big.Int).Set(q)
			}
			if hi == nil || q.Cmp(hi) > 0 {
				hi = new(big.Int).Set(q)
			}
		}
	}
	pool.BigInt.Put(q)
	if lo == nil {
		return nil, nil, fmt.Errorf("divisor range includes only zero")
	}
	return lo, hi, nil
}

// RemBound returns max(|bMin|, |bMax|) - 1, the upper remainder bound
// under the non-negative remainder convention.
func RemBound(bMin, bMax *big.Int) *big.Int {
	a := new(big.Int).Abs(bMin)
	b := new(big.Int).Abs(bMax)
	if b.Cmp(a) > 0 {
		a = b
	}
	return a.Sub(a, bigOne)
}
