package circuit

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCircuit(t *testing.T) *Circuit {
	t.Helper()
	c, err := New("test", big.NewInt(12289), Config{MaxBound: new(big.Int).Lsh(bigOne, 250)})
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New("bad", big.NewInt(1), Config{MaxBound: big.NewInt(100)})
	require.ErrorContains(t, err, "modulus")

	_, err = New("bad", nil, Config{MaxBound: big.NewInt(100)})
	require.ErrorContains(t, err, "modulus")

	_, err = New("bad", big.NewInt(97), Config{})
	require.ErrorContains(t, err, "threshold")

	_, err = New("bad", big.NewInt(97), Config{MaxBound: big.NewInt(-1)})
	require.ErrorContains(t, err, "threshold")
}

func TestInput(t *testing.T) {
	c := testCircuit(t)

	a, err := c.Input("a", bi(0), bi(12288))
	require.NoError(t, err)
	require.Equal(t, 0, a.ID)
	require.Equal(t, -1, a.Source)

	_, err = c.Input("a", bi(0), bi(10))
	require.ErrorContains(t, err, "already exists")

	_, err = c.Input("b", bi(5), bi(3))
	require.ErrorContains(t, err, "empty interval")

	require.Len(t, c.Inputs(), 1)
}

func TestConstantIdempotent(t *testing.T) {
	c := testCircuit(t)

	k1 := c.Constant(bi(1479), "sqr1")
	k2 := c.Constant(bi(1479), "sqr1")
	require.Same(t, k1, k2)
	require.True(t, k1.IsSingleton())
	require.Equal(t, 1, c.NumVariables())

	// default naming
	k3 := c.Constant(bi(42), "")
	require.Equal(t, "const_42", k3.Name)
	require.Same(t, k3, c.Constant(bi(42), ""))
}

func TestArithmeticBounds(t *testing.T) {
	c := testCircuit(t)
	a, err := c.Input("a", bi(0), bi(255))
	require.NoError(t, err)
	b, err := c.Input("b", bi(-128), bi(127))
	require.NoError(t, err)

	sum := c.Add(a, b)
	require.Equal(t, bi(-128), sum.Min)
	require.Equal(t, bi(382), sum.Max)
	require.Equal(t, OpAdd, c.Operations()[sum.Source].Kind)

	diff := c.Sub(a, b)
	require.Equal(t, bi(-127), diff.Min)
	require.Equal(t, bi(383), diff.Max)

	prod := c.Mul(a, b)
	require.Equal(t, bi(-32640), prod.Min)
	require.Equal(t, bi(32385), prod.Max)

	// the trace is append-only and in dataflow order
	for i, op := range c.Operations() {
		require.Equal(t, i, c.VarByID(op.Result).Source)
		for _, id := range op.Operands {
			require.Less(t, id, op.Result)
		}
	}
}

func TestAutoReduce(t *testing.T) {
	c, err := New("small", big.NewInt(97), Config{MaxBound: big.NewInt(10000)})
	require.NoError(t, err)

	a, err := c.Input("a", bi(0), bi(96))
	require.NoError(t, err)
	b, err := c.Input("b", bi(0), bi(96))
	require.NoError(t, err)

	// 96*96 = 9216 stays under the threshold
	ab := c.Mul(a, b)
	require.Equal(t, bi(9216), ab.Max)
	require.Equal(t, 0, c.AutoReducedCount())

	// 9216*96 = 884736 exceeds it, so the returned variable is the
	// reduction, not the raw product
	abb := c.Mul(ab, b)
	require.Equal(t, 1, c.AutoReducedCount())
	require.Equal(t, OpReduce, c.Operations()[abb.Source].Kind)
	require.Equal(t, bi(0), abb.Min)
	require.Equal(t, bi(96), abb.Max)

	// the raw product is still in the arena, immediately consumed by
	// the reduction
	raw := c.VarByID(c.Operations()[abb.Source].Operands[0])
	require.Equal(t, bi(884736), raw.Max)

	// every over-threshold variable must feed a reduction within the
	// next two trace steps (two because of the shift add)
	for _, v := range c.Variables() {
		if v.Source < 0 || v.AbsBound().Cmp(c.MaxBound()) <= 0 {
			continue
		}
		reduced := false
		for j := v.Source + 1; j <= v.Source+2 && j < len(c.Operations()); j++ {
			if c.Operations()[j].Kind == OpReduce {
				reduced = true
			}
		}
		require.True(t, reduced, "variable %s exceeds the threshold without a reduction", v.Name)
	}
}

func TestReduceNegative(t *testing.T) {
	c, err := New("neg", big.NewInt(97), Config{MaxBound: big.NewInt(1 << 40)})
	require.NoError(t, err)

	a, err := c.Input("a", bi(-500), bi(500))
	require.NoError(t, err)

	r := c.Reduce(a)
	require.Equal(t, bi(0), r.Min)
	require.Equal(t, bi(96), r.Max)

	// ceil(500/97) = 6 copies, shift 582
	name, ok := c.ConstantName(bi(582))
	require.True(t, ok)
	require.Equal(t, "SHIFT_6Q", name)
	name, ok = c.ConstantName(bi(97))
	require.True(t, ok)
	require.Equal(t, "Q", name)

	// trace: shift add, then the reduction of the shifted value
	ops := c.Operations()
	require.Len(t, ops, 2)
	require.Equal(t, OpAdd, ops[0].Kind)
	require.Equal(t, OpReduce, ops[1].Kind)

	shifted := c.VarByID(ops[1].Operands[0])
	require.Equal(t, bi(82), shifted.Min)
	require.Equal(t, bi(1082), shifted.Max)

	// quotient bounds of the shifted dividend are non-negative
	require.Equal(t, bi(0), ops[1].QMin)
	require.Equal(t, bi(11), ops[1].QMax)
}

func TestReduceNonNegativeSkipsShift(t *testing.T) {
	c := testCircuit(t)
	a, err := c.Input("a", bi(0), bi(100000))
	require.NoError(t, err)

	r := c.Reduce(a)
	require.Equal(t, bi(12288), r.Max)
	require.Len(t, c.Operations(), 1)
	require.Equal(t, OpReduce, c.Operations()[0].Kind)
}

func TestDivRemLinks(t *testing.T) {
	c := testCircuit(t)
	a, err := c.Input("a", bi(0), bi(100))
	require.NoError(t, err)
	b, err := c.Input("b", bi(2), bi(10))
	require.NoError(t, err)

	q, r, err := c.DivRem(a, b)
	require.NoError(t, err)
	require.Equal(t, bi(0), q.Min)
	require.Equal(t, bi(50), q.Max)
	require.Equal(t, bi(0), r.Min)
	require.Equal(t, bi(9), r.Max)

	ops := c.Operations()
	require.Len(t, ops, 2)
	require.Equal(t, OpDiv, ops[0].Kind)
	require.Equal(t, OpRem, ops[1].Kind)
	require.Equal(t, 1, ops[0].Rem)
	require.Equal(t, 0, ops[1].Div)
	require.Equal(t, ops[0].Operands, ops[1].Operands)

	// a divisor interval containing only zero fails fast
	zero := c.Constant(bi(0), "")
	_, _, err = c.DivRem(a, zero)
	require.Error(t, err)
}

func TestOutputRename(t *testing.T) {
	c := testCircuit(t)
	a, err := c.Input("a", bi(0), bi(12288))
	require.NoError(t, err)
	b, err := c.Input("b", bi(0), bi(12288))
	require.NoError(t, err)

	sum := c.Add(a, b)
	require.NoError(t, c.Output(sum, "r0"))
	require.Equal(t, "r0", sum.Name)

	diff := c.Sub(a, b)
	require.ErrorContains(t, c.Output(diff, "r0"), "already exists")
	require.NoError(t, c.Output(diff, "r1"))

	outs := c.Outputs()
	require.Len(t, outs, 2)
	require.Equal(t, "r0", outs[0].Name)
	require.Equal(t, "r1", outs[1].Name)
}

func TestRegisteredConstantsSorted(t *testing.T) {
	c := testCircuit(t)
	c.RegisterConstant(bi(12289), "Q")
	c.RegisterConstant(bi(1479), "SQR1")
	c.RegisterConstant(bi(6145), "I2")

	values, names := c.RegisteredConstants()
	require.Equal(t, []*big.Int{bi(1479), bi(6145), bi(12289)}, values)
	require.Equal(t, []string{"SQR1", "I2", "Q"}, names)
}

func TestBoundTypesSorted(t *testing.T) {
	c := testCircuit(t)
	_, err := c.Input("a", bi(0), bi(12288))
	require.NoError(t, err)
	_, err = c.Input("b", bi(-10), bi(10))
	require.NoError(t, err)
	_, err = c.Input("dup", bi(0), bi(12288))
	require.NoError(t, err)

	pairs := c.BoundTypes()
	require.Len(t, pairs, 2)
	require.Equal(t, bi(-10), pairs[0][0])
	require.Equal(t, bi(0), pairs[1][0])
}

func TestStats(t *testing.T) {
	c := testCircuit(t)
	a, err := c.Input("a", bi(0), bi(12288))
	require.NoError(t, err)
	b, err := c.Input("b", bi(0), bi(12288))
	require.NoError(t, err)

	require.NoError(t, c.Output(c.Reduce(c.Mul(a, b)), "r0"))

	stats := c.Stats()
	require.Equal(t, 4, stats.NumVariables)
	require.Equal(t, 2, stats.NumOperations)
	require.Equal(t, 1, stats.NumReductions)
	// widest value is 12288^2 = 150994944, a 28-bit number
	require.Equal(t, 28, stats.MaxBits)
}
