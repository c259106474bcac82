// Package ntt generates fully unrolled forward and inverse
// number-theoretic transform circuits over Z_q, q = 12289.
//
// A generator recurses over the transform structure at
// trace-construction time only; the finished circuit is a flat
// straight-line operation sequence with no control flow.
package ntt

import (
	"fmt"
	"sync"
)

const (
	// Q is the transform modulus.
	Q = 12289
	// SQR1 is sqrt(-1) mod Q, the primitive twiddle of the size-2 base case.
	SQR1 = 1479
	// I2 is the modular inverse of 2, the inverse transform's scaling factor.
	I2 = 6145

	// MinSize and MaxSize bound the supported transform sizes.
	MinSize = 2
	MaxSize = 1024
)

// The root tables are a process-wide, read-only lookup service,
// initialized once. roots[n] lists the n roots of x^n = -1 mod Q in
// the order the recursive merge consumes them, satisfying
//
//	roots[n][2i]^2 == roots[n/2][i]
//	roots[n][2i+1] == Q - roots[n][2i]
//
// with roots[2] = [SQR1, Q-SQR1]. Merges only ever select
// even-indexed entries.
var (
	rootsOnce sync.Once
	rootTable map[int][]int64
	invTable  map[int][]int64
)

func initRoots() {
	rootTable = make(map[int][]int64)
	invTable = make(map[int][]int64)

	rootTable[2] = []int64{SQR1, Q - SQR1}
	for size := 4; size <= MaxSize; size *= 2 {
		prev := rootTable[size/2]
		cur := make([]int64, size)
		for i, x := range prev {
			r := sqrtMod(x)
			cur[2*i] = r
			cur[2*i+1] = Q - r
		}
		rootTable[size] = cur
	}

	for size, roots := range rootTable {
		inv := make([]int64, len(roots))
		for i, x := range roots {
			inv[i] = invMod(x)
		}
		invTable[size] = inv
	}
}

// Roots returns the root-of-unity table for the given transform size.
// The returned slice is shared and must not be mutated.
func Roots(size int) []int64 {
	rootsOnce.Do(initRoots)
	r, ok := rootTable[size]
	if !ok {
		panic(fmt.Sprintf("no root table for size %d", size))
	}
	return r
}

// InvRoots returns the modular inverses of Roots(size).
func InvRoots(size int) []int64 {
	rootsOnce.Do(initRoots)
	r, ok := invTable[size]
	if !ok {
		panic(fmt.Sprintf("no inverse root table for size %d", size))
	}
	return r
}

// InvSQR1 returns the modular inverse of SQR1.
func InvSQR1() int64 {
	return invMod(SQR1)
}

func mulMod(a, b int64) int64 {
	return a * b % Q
}

func powMod(x, e int64) int64 {
	r := int64(1)
	x %= Q
	for e > 0 {
		if e&1 == 1 {
			r = mulMod(r, x)
		}
		x = mulMod(x, x)
		e >>= 1
	}
	return r
}

func invMod(x int64) int64 {
	return powMod(x, Q-2)
}

// sqrtMod returns the smaller of the two square roots of x mod Q.
// Every chained root has even order dividing 4096, so a root always
// exists. Q is small enough that a scan beats Tonelli-Shanks.
func sqrtMod(x int64) int64 {
	x %= Q
	for r := int64(1); r <= Q/2; r++ {
		if mulMod(r, r) == x {
			return r
		}
	}
	panic(fmt.Sprintf("%d is not a quadratic residue mod %d", x, Q))
}

// validSize checks that n is a power of two within the supported range.
func validSize(n int) error {
	if n < MinSize || n > MaxSize || n&(n-1) != 0 {
		return fmt.Errorf("n must be a power of 2 in [%d, %d], got %d", MinSize, MaxSize, n)
	}
	return nil
}
