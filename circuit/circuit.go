// Package circuit implements the bounded-integer circuit IR.
//
// A Circuit owns an arena of Variables and an append-only trace of
// Operations. Builder calls propagate exact interval bounds through
// every operation and insert modular reductions automatically whenever
// a propagated bound would exceed the configured threshold. A finished
// trace is a flat dataflow DAG with no control flow; emitters and the
// simulator traverse it in order as read-only passes.
package circuit

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/logger"
)

// Config carries the caller-supplied build policy.
type Config struct {
	// MaxBound is the auto-reduce threshold: after ADD, SUB and MUL,
	// any result whose bound magnitude exceeds it is substituted by
	// its reduction modulo the circuit modulus. The right value
	// depends on the execution target's native width and is therefore
	// the caller's decision.
	MaxBound *big.Int
}

// registeredConstant is a value with a symbolic name for emission.
type registeredConstant struct {
	value *big.Int
	name  string
}

// boundPair is one entry of the deduplicated bound-type registry.
type boundPair struct {
	min, max *big.Int
}

type Circuit struct {
	name     string
	modulus  *big.Int
	maxBound *big.Int

	vars  []*Variable    // arena, Variable.ID is the index
	names map[string]int // variable name -> id
	trace []*Operation

	inputs  []int
	outputs []int

	// value (decimal string) -> registered symbolic name
	constants map[string]registeredConstant

	// deduplicated bound pairs needing a type declaration,
	// keyed "min|max"
	boundTypes map[string]boundPair

	varCounter       int
	autoReducedCount int
}

// New creates an empty circuit. The modulus must be at least 2 and the
// auto-reduce threshold must be a positive caller-supplied policy.
func New(name string, modulus *big.Int, cfg Config) (*Circuit, error) {
	if modulus == nil || modulus.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("modulus must be at least 2")
	}
	if cfg.MaxBound == nil || cfg.MaxBound.Sign() <= 0 {
		return nil, fmt.Errorf("auto-reduce threshold must be positive")
	}
	return &Circuit{
		name:       name,
		modulus:    new(big.Int).Set(modulus),
		maxBound:   new(big.Int).Set(cfg.MaxBound),
		names:      make(map[string]int),
		constants:  make(map[string]registeredConstant),
		boundTypes: make(map[string]boundPair),
	}, nil
}

func (c *Circuit) Name() string          { return c.name }
func (c *Circuit) Modulus() *big.Int     { return c.modulus }
func (c *Circuit) MaxBound() *big.Int    { return c.maxBound }
func (c *Circuit) AutoReducedCount() int { return c.autoReducedCount }

// Operations returns the trace in creation order. Read-only.
func (c *Circuit) Operations() []*Operation { return c.trace }

// Variables returns the variable arena in creation order. Read-only.
func (c *Circuit) Variables() []*Variable { return c.vars }

// VarByID returns the variable with the given arena index.
func (c *Circuit) VarByID(id int) *Variable { return c.vars[id] }

// Inputs returns the ordered input variables.
func (c *Circuit) Inputs() []*Variable { return c.varsByID(c.inputs) }

// Outputs returns the ordered output variables.
func (c *Circuit) Outputs() []*Variable { return c.varsByID(c.outputs) }

func (c *Circuit) varsByID(ids []int) []*Variable {
	out := make([]*Variable, len(ids))
	for i, id := range ids {
		out[i] = c.vars[id]
	}
	return out
}

func (c *Circuit) NumOperations() int { return len(c.trace) }
func (c *Circuit) NumVariables() int  { return len(c.vars) }

func (c *Circuit) nextVarName() string {
	name := fmt.Sprintf("tmp_%d", c.varCounter)
	c.varCounter++
	return name
}

func (c *Circuit) newVariable(name string, min, max *big.Int, source int) *Variable {
	v := &Variable{
		ID:     len(c.vars),
		Name:   name,
		Min:    min,
		Max:    max,
		Source: source,
	}
	c.vars = append(c.vars, v)
	c.names[name] = v.ID
	return v
}

func (c *Circuit) registerBoundType(min, max *big.Int) {
	key := min.String() + "|" + max.String()
	if _, ok := c.boundTypes[key]; !ok {
		c.boundTypes[key] = boundPair{min: min, max: max}
	}
}

// Input creates an input variable with known bounds. Duplicate names
// fail fast.
func (c *Circuit) Input(name string, min, max *big.Int) (*Variable, error) {
	if _, ok := c.names[name]; ok {
		return nil, fmt.Errorf("variable %q already exists", name)
	}
	if min.Cmp(max) > 0 {
		return nil, fmt.Errorf("input %q has empty interval [%s, %s]", name, min, max)
	}
	lo := new(big.Int).Set(min)
	hi := new(big.Int).Set(max)
	v := c.newVariable(name, lo, hi, -1)
	c.inputs = append(c.inputs, v.ID)
	c.registerBoundType(lo, hi)
	return v, nil
}

// Constant returns a singleton-bound variable for value, creating it on
// first use. An empty name defaults to "const_<value>"; repeated calls
// with the same name return the existing variable. Creating a constant
// does not register a symbolic emission name; RegisterConstant does.
func (c *Circuit) Constant(value *big.Int, name string) *Variable {
	if name == "" {
		name = "const_" + value.String()
	}
	if id, ok := c.names[name]; ok {
		return c.vars[id]
	}
	val := new(big.Int).Set(value)
	// constants get their type from the constant registry, not the
	// bound-type table
	return c.newVariable(name, val, new(big.Int).Set(val), -1)
}

// RegisterConstant records a symbolic name for value, used by the
// emitters for constant and type declarations.
func (c *Circuit) RegisterConstant(value *big.Int, name string) {
	c.constants[value.String()] = registeredConstant{
		value: new(big.Int).Set(value),
		name:  name,
	}
}

// ConstantName returns the registered symbolic name for value.
func (c *Circuit) ConstantName(value *big.Int) (string, bool) {
	rc, ok := c.constants[value.String()]
	return rc.name, ok
}

// RegisteredConstants returns (value, name) pairs sorted by value.
func (c *Circuit) RegisteredConstants() ([]*big.Int, []string) {
	values := make([]*big.Int, 0, len(c.constants))
	for _, rc := range c.constants {
		values = append(values, rc.value)
	}
	sortBigInts(values)
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = c.constants[v.String()].name
	}
	return values, names
}

// BoundTypes returns the registered bound pairs sorted by (min, max).
func (c *Circuit) BoundTypes() [][2]*big.Int {
	pairs := make([][2]*big.Int, 0, len(c.boundTypes))
	for _, bp := range c.boundTypes {
		pairs = append(pairs, [2]*big.Int{bp.min, bp.max})
	}
	sortBoundPairs(pairs)
	return pairs
}

// newOp creates the result variable and the operation holding it, and
// appends the operation to the trace. It returns the result variable
// and the operation's trace index.
func (c *Circuit) newOp(op *Operation, min, max *big.Int) (*Variable, int) {
	v := c.newVariable(c.nextVarName(), min, max, len(c.trace))
	op.Result = v.ID
	c.trace = append(c.trace, op)
	c.registerBoundType(min, max)
	return v, len(c.trace) - 1
}

func (c *Circuit) maybeAutoReduce(v *Variable) *Variable {
	if v.Max.Cmp(c.maxBound) <= 0 {
		neg := new(big.Int).Neg(c.maxBound)
		if v.Min.Cmp(neg) >= 0 {
			return v
		}
	}
	c.autoReducedCount++
	r := c.reduce(v, c.modulus)
	logger.Logger().Debug().
		Str("circuit", c.name).
		Str("var", v.Name).
		Str("bounds", fmt.Sprintf("[%s, %s]", v.Min, v.Max)).
		Int("bits", v.BitWidth()).
		Int("reducedBits", r.BitWidth()).
		Msg("auto-reduce")
	return r
}

// addRaw adds without the auto-reduce policy. Reduce uses it for the
// shift step so a single reduction is never turned into two.
func (c *Circuit) addRaw(a, b *Variable) *Variable {
	min, max := AddBounds(a.Min, a.Max, b.Min, b.Max)
	v, _ := c.newOp(newArithOperation(OpAdd, []int{a.ID, b.ID}, 0), min, max)
	return v
}

// Add appends an addition and returns the (possibly auto-reduced) result.
func (c *Circuit) Add(a, b *Variable) *Variable {
	return c.maybeAutoReduce(c.addRaw(a, b))
}

// Sub appends a subtraction and returns the (possibly auto-reduced) result.
func (c *Circuit) Sub(a, b *Variable) *Variable {
	min, max := SubBounds(a.Min, a.Max, b.Min, b.Max)
	v, _ := c.newOp(newArithOperation(OpSub, []int{a.ID, b.ID}, 0), min, max)
	return c.maybeAutoReduce(v)
}

// Mul appends a multiplication and returns the (possibly auto-reduced) result.
func (c *Circuit) Mul(a, b *Variable) *Variable {
	min, max := MulBounds(a.Min, a.Max, b.Min, b.Max)
	v, _ := c.newOp(newArithOperation(OpMul, []int{a.ID, b.ID}, 0), min, max)
	return c.maybeAutoReduce(v)
}

// DivRem appends a linked division/remainder pair sharing the same
// operands. The quotient uses floor semantics; the remainder interval
// is [0, max(|divisor bounds|)-1]. It fails when the divisor interval
// contains only zero.
func (c *Circuit) DivRem(a, b *Variable) (*Variable, *Variable, error) {
	qMin, qMax, err := QuotientBounds(a.Min, a.Max, b.Min, b.Max)
	if err != nil {
		return nil, nil, err
	}
	rMax := RemBound(b.Min, b.Max)

	c.registerBoundType(qMin, qMax)

	quotient, divIdx := c.newOp(
		newDivRemOperation(OpDiv, []int{a.ID, b.ID}, 0, qMin, qMax),
		new(big.Int).Set(qMin), new(big.Int).Set(qMax),
	)
	remainder, remIdx := c.newOp(
		newDivRemOperation(OpRem, []int{a.ID, b.ID}, 0, qMin, qMax),
		new(big.Int), rMax,
	)
	// links are recorded at creation, never discovered by scanning
	c.trace[divIdx].Rem = remIdx
	c.trace[remIdx].Div = divIdx
	return quotient, remainder, nil
}

// Div appends a div/rem pair and returns the quotient.
func (c *Circuit) Div(a, b *Variable) (*Variable, error) {
	q, _, err := c.DivRem(a, b)
	return q, err
}

// Mod appends a div/rem pair and returns the remainder.
func (c *Circuit) Mod(a, b *Variable) (*Variable, error) {
	_, r, err := c.DivRem(a, b)
	return r, err
}

// Reduce appends an explicit modular reduction by the circuit modulus.
// The result's bounds become [0, modulus-1].
func (c *Circuit) Reduce(v *Variable) *Variable {
	return c.reduce(v, c.modulus)
}

// ReduceMod reduces by an explicit modulus.
func (c *Circuit) ReduceMod(v *Variable, modulus *big.Int) *Variable {
	return c.reduce(v, modulus)
}

func (c *Circuit) reduce(v *Variable, modulus *big.Int) *Variable {
	// The target's reduction primitive requires a non-negative
	// dividend, so a value that may be negative is first shifted up by
	// the smallest multiple of the modulus covering its minimum.
	if v.Min.Sign() < 0 {
		if _, ok := c.ConstantName(modulus); !ok {
			c.RegisterConstant(modulus, "Q")
		}
		copies := new(big.Int).Neg(v.Min)
		copies.Add(copies, modulus)
		copies.Sub(copies, bigOne)
		copies.Quo(copies, modulus)
		shift := new(big.Int).Mul(copies, modulus)

		shiftConst := c.Constant(shift, "")
		if _, ok := c.ConstantName(shift); !ok {
			c.RegisterConstant(shift, fmt.Sprintf("SHIFT_%sQ", copies))
		}
		v = c.addRaw(v, shiftConst)
	}

	qMin := floorDiv(new(big.Int), v.Min, modulus)
	qMax := floorDiv(new(big.Int), v.Max, modulus)
	c.registerBoundType(qMin, qMax)

	max := new(big.Int).Sub(modulus, bigOne)
	result, _ := c.newOp(
		newReduceOperation(v.ID, 0, new(big.Int).Set(modulus), qMin, qMax),
		new(big.Int), max,
	)
	return result
}

// SetComment attaches a comment to v's producing operation; emitters
// carry it into the generated statement. No-op for inputs and constants.
func (c *Circuit) SetComment(v *Variable, comment string) {
	if v.Source >= 0 {
		c.trace[v.Source].Comment = comment
	}
}

// Output marks v as the next circuit output. A non-empty name renames
// the variable in place; the output order is preserved end-to-end into
// the emitted return value.
func (c *Circuit) Output(v *Variable, name string) error {
	if name != "" && name != v.Name {
		if _, ok := c.names[name]; ok {
			return fmt.Errorf("variable %q already exists", name)
		}
		delete(c.names, v.Name)
		v.Name = name
		c.names[name] = v.ID
	}
	c.outputs = append(c.outputs, v.ID)
	return nil
}
