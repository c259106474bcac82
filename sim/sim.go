// Package sim replays a finished circuit trace on concrete integers.
//
// It is a pure numeric oracle: ADD/SUB/MUL run as ordinary integer
// arithmetic, DIV as floor division, and REDUCE/REM as floor-modulo,
// so its outputs are what the emitted Cairo must compute without ever
// invoking the target toolchain.
package sim

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/circuit"
)

// Run executes the trace on the given input values, in circuit input
// order, and returns the output values in circuit output order. It
// fails immediately on an input-arity mismatch.
func Run(c *circuit.Circuit, inputs []*big.Int) ([]*big.Int, error) {
	cin := c.Inputs()
	if len(inputs) != len(cin) {
		return nil, fmt.Errorf("expected %d values, got %d", len(cin), len(inputs))
	}

	values := make([]*big.Int, c.NumVariables())
	for i, inp := range cin {
		values[inp.ID] = new(big.Int).Set(inputs[i])
	}
	// singleton variables with no producer are constants
	for _, v := range c.Variables() {
		if values[v.ID] == nil && v.Source < 0 && v.IsSingleton() {
			values[v.ID] = new(big.Int).Set(v.Min)
		}
	}

	get := func(id int) (*big.Int, error) {
		if values[id] == nil {
			return nil, fmt.Errorf("variable %q used before assignment", c.VarByID(id).Name)
		}
		return values[id], nil
	}

	for _, op := range c.Operations() {
		a, err := get(op.Operands[0])
		if err != nil {
			return nil, err
		}
		var b *big.Int
		if len(op.Operands) > 1 {
			if b, err = get(op.Operands[1]); err != nil {
				return nil, err
			}
		}

		r := new(big.Int)
		switch op.Kind {
		case circuit.OpAdd:
			r.Add(a, b)
		case circuit.OpSub:
			r.Sub(a, b)
		case circuit.OpMul:
			r.Mul(a, b)
		case circuit.OpReduce:
			r.Mod(a, op.Modulus)
		case circuit.OpDiv:
			floorDiv(r, a, b)
		case circuit.OpRem:
			floorMod(r, a, b)
		default:
			return nil, fmt.Errorf("unknown operation kind %s", op.Kind)
		}
		values[op.Result] = r
	}

	outputs := make([]*big.Int, len(c.Outputs()))
	for i, out := range c.Outputs() {
		v, err := get(out.ID)
		if err != nil {
			return nil, err
		}
		outputs[i] = new(big.Int).Set(v)
	}
	return outputs, nil
}

func floorDiv(z, a, b *big.Int) *big.Int {
	var r big.Int
	z.QuoRem(a, b, &r)
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		z.Sub(z, big.NewInt(1))
	}
	return z
}

func floorMod(z, a, b *big.Int) *big.Int {
	var q big.Int
	floorDiv(&q, a, b)
	q.Mul(&q, b)
	return z.Sub(a, &q)
}
