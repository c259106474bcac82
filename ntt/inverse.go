package ntt

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/circuit"
)

func (g *Generator) registerInverseConstants(c *circuit.Circuit) {
	c.RegisterConstant(big.NewInt(I2), "I2")
	c.RegisterConstant(big.NewInt(InvSQR1()), "INV_SQR1")
	c.RegisterConstant(big.NewInt(Q), "Q")
	for size := 4; size <= g.n; size *= 2 {
		inv := InvRoots(size)
		for i := 0; i < len(inv); i += 2 {
			value := big.NewInt(inv[i])
			if _, ok := c.ConstantName(value); !ok {
				c.RegisterConstant(value, fmt.Sprintf("INV_W%d_%d", size, i/2))
			}
		}
	}
}

// intt traces the recursive inverse transform: inverse-butterfly split
// in the transform domain, recursion on the halves, then a plain
// interleave in the coefficient domain. Results are left unreduced.
func (g *Generator) intt(c *circuit.Circuit, fNtt []*circuit.Variable) []*circuit.Variable {
	if len(fNtt) == 2 {
		return g.inttBaseCase(c, fNtt[0], fNtt[1])
	}
	f0Ntt, f1Ntt := g.splitNTT(c, fNtt, len(fNtt))
	return interleave(g.intt(c, f0Ntt), g.intt(c, f1Ntt))
}

// inttBaseCase computes, for n=2:
//
//	r0 = i2 * (f0 + f1)
//	r1 = i2 * inv_sqr1 * (f0 - f1)
func (g *Generator) inttBaseCase(c *circuit.Circuit, f0, f1 *circuit.Variable) []*circuit.Variable {
	i2 := c.Constant(big.NewInt(I2), "i2")
	invSqr1 := c.Constant(big.NewInt(InvSQR1()), "inv_sqr1")

	sum := c.Add(f0, f1)
	diff := c.Sub(f0, f1)

	r0 := c.Mul(i2, sum)
	diffScaled := c.Mul(invSqr1, diff)
	r1 := c.Mul(i2, diffScaled)
	return []*circuit.Variable{r0, r1}
}

// splitNTT applies one inverse butterfly per pair:
//
//	f0Ntt[i] = i2 * (fNtt[2i] + fNtt[2i+1])
//	f1Ntt[i] = i2 * (fNtt[2i] - fNtt[2i+1]) * invW[2i]
func (g *Generator) splitNTT(c *circuit.Circuit, fNtt []*circuit.Variable, size int) ([]*circuit.Variable, []*circuit.Variable) {
	inv := InvRoots(size)
	i2 := c.Constant(big.NewInt(I2), "i2")

	half := len(fNtt) / 2
	f0Ntt := make([]*circuit.Variable, 0, half)
	f1Ntt := make([]*circuit.Variable, 0, half)
	for i := 0; i < half; i++ {
		even := fNtt[2*i]
		odd := fNtt[2*i+1]
		invTwiddle := c.Constant(big.NewInt(inv[2*i]), fmt.Sprintf("inv_w%d_%d", size, i))

		sum := c.Add(even, odd)
		diff := c.Sub(even, odd)

		f0Ntt = append(f0Ntt, c.Mul(i2, sum))
		diffScaled := c.Mul(diff, invTwiddle)
		f1Ntt = append(f1Ntt, c.Mul(i2, diffScaled))
	}
	return f0Ntt, f1Ntt
}

func interleave(f0, f1 []*circuit.Variable) []*circuit.Variable {
	result := make([]*circuit.Variable, 0, len(f0)*2)
	for i := range f0 {
		result = append(result, f0[i], f1[i])
	}
	return result
}
