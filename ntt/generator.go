package ntt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/polyzk/cairogen/circuit"
	"github.com/polyzk/cairogen/codegen"
	"github.com/polyzk/cairogen/logger"
	"github.com/polyzk/cairogen/sim"
)

// DefaultMaxBound is the auto-reduce threshold the generators use
// unless overridden: two bits of headroom under the felt252 width, so
// generated circuits stay legal for felt-native mode.
func DefaultMaxBound() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 250)
}

// Generator builds one fully unrolled transform circuit for a
// power-of-two size. The same generator serves the forward and inverse
// transforms; direction is fixed at construction.
type Generator struct {
	n        int
	inverse  bool
	maxBound *big.Int
	circ     *circuit.Circuit
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxBound overrides the auto-reduce threshold policy.
func WithMaxBound(b *big.Int) Option {
	return func(g *Generator) {
		g.maxBound = new(big.Int).Set(b)
	}
}

// NewForward returns a generator for the forward transform of size n.
// n must be a power of two in [MinSize, MaxSize].
func NewForward(n int, opts ...Option) (*Generator, error) {
	return newGenerator(n, false, opts)
}

// NewInverse returns a generator for the inverse transform of size n.
func NewInverse(n int, opts ...Option) (*Generator, error) {
	return newGenerator(n, true, opts)
}

func newGenerator(n int, inverse bool, opts []Option) (*Generator, error) {
	if err := validSize(n); err != nil {
		return nil, err
	}
	g := &Generator{
		n:        n,
		inverse:  inverse,
		maxBound: DefaultMaxBound(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Generator) funcName() string {
	if g.inverse {
		return fmt.Sprintf("intt_%d_inner", g.n)
	}
	return fmt.Sprintf("ntt_%d_inner", g.n)
}

// Circuit returns the most recently built circuit, or nil before the
// first Build.
func (g *Generator) Circuit() *circuit.Circuit {
	return g.circ
}

// Build constructs a fresh circuit and traces the whole transform into
// it: constants, inputs f0..f{n-1} bounded by [0, Q-1], the recursive
// butterfly structure, and reduced outputs r0..r{n-1}.
func (g *Generator) Build() (*circuit.Circuit, error) {
	c, err := circuit.New(g.funcName(), big.NewInt(Q), circuit.Config{MaxBound: g.maxBound})
	if err != nil {
		return nil, err
	}
	g.registerConstants(c)

	inputs := make([]*circuit.Variable, g.n)
	for i := range inputs {
		inputs[i], err = c.Input(fmt.Sprintf("f%d", i), big.NewInt(0), big.NewInt(Q-1))
		if err != nil {
			return nil, err
		}
	}

	var outputs []*circuit.Variable
	if g.inverse {
		outputs = g.intt(c, inputs)
	} else {
		outputs = g.ntt(c, inputs)
	}

	for i, out := range outputs {
		if err := c.Output(c.Reduce(out), fmt.Sprintf("r%d", i)); err != nil {
			return nil, err
		}
	}

	c.LogSummary()
	stats := c.Stats()
	logger.Logger().Info().
		Str("circuit", c.Name()).
		Int("ops", stats.NumOperations).
		Int("reductions", stats.NumReductions).
		Int("types", stats.NumTypes).
		Int("maxBits", stats.MaxBits).
		Msg("transform traced")

	g.circ = c
	return c, nil
}

func (g *Generator) registerConstants(c *circuit.Circuit) {
	if g.inverse {
		g.registerInverseConstants(c)
		return
	}
	// SQR1 for the base case, Q for modular reduction, then one
	// even-indexed root per merge level
	c.RegisterConstant(big.NewInt(SQR1), "SQR1")
	c.RegisterConstant(big.NewInt(Q), "Q")
	for size := 4; size <= g.n; size *= 2 {
		roots := Roots(size)
		for i := 0; i < len(roots); i += 2 {
			value := big.NewInt(roots[i])
			if _, ok := c.ConstantName(value); !ok {
				c.RegisterConstant(value, fmt.Sprintf("W%d_%d", size, i/2))
			}
		}
	}
}

// Generate builds a fresh circuit and compiles the inner function.
func (g *Generator) Generate(mode codegen.Mode) (string, error) {
	c, err := g.Build()
	if err != nil {
		return "", err
	}
	return codegen.Compile(c, mode)
}

// GenerateFull produces the complete Cairo file: header, inner
// function, and the public array-interface wrapper.
func (g *Generator) GenerateFull(mode codegen.Mode) (string, error) {
	inner, err := g.Generate(mode)
	if err != nil {
		return "", err
	}
	header := fmt.Sprintf("// Auto-generated %s circuit - DO NOT EDIT MANUALLY\n\n", g.funcName())
	return header + inner + g.wrapper(mode), nil
}

// Simulate replays the traced operations on concrete values, building
// the circuit first if needed.
func (g *Generator) Simulate(values []*big.Int) ([]*big.Int, error) {
	if g.circ == nil {
		if _, err := g.Build(); err != nil {
			return nil, err
		}
	}
	return sim.Run(g.circ, values)
}

// wrapper adapts the fixed-arity inner function to the array calling
// convention, reusing the inner function's input and output names.
func (g *Generator) wrapper(mode codegen.Mode) string {
	elemType := "Zq"
	if mode == codegen.ModeFelt252 {
		elemType = "felt252"
	}

	paramNames := make([]string, g.n)
	outputNames := make([]string, g.n)
	innerArgs := make([]string, g.n)
	for i := 0; i < g.n; i++ {
		paramNames[i] = fmt.Sprintf("f%d", i)
		outputNames[i] = fmt.Sprintf("r%d", i)
		innerArgs[i] = paramNames[i]
	}

	if g.inverse {
		return fmt.Sprintf(`
/// INTT of size %d using Array<%s> interface.
pub fn intt_%d(mut f: Array<%s>) -> Array<%s> {
    let mut f_span = f.span();
    let boxed = f_span.multi_pop_front::<%d>().expect('expected %d elements');
    let [%s] = boxed.unbox();

    let (%s) = intt_%d_inner(%s);

    array![%s]
}
`, g.n, elemType, g.n, elemType, elemType, g.n, g.n,
			strings.Join(paramNames, ", "),
			strings.Join(outputNames, ", "), g.n, strings.Join(innerArgs, ", "),
			strings.Join(outputNames, ", "))
	}

	// in felt252 mode the wrapper keeps the Zq interface and upcasts
	// when calling the inner function
	inputType := elemType
	outputType := elemType
	if mode == codegen.ModeFelt252 {
		inputType = "Zq"
		outputType = "Zq"
		for i := range innerArgs {
			innerArgs[i] = fmt.Sprintf("upcast(f%d)", i)
		}
	}

	return fmt.Sprintf(`
/// NTT of size %d - accepts Span<%s>, returns Array<%s>.
pub fn ntt_%d(mut f: Span<%s>) -> Array<%s> {
    let boxed = f.multi_pop_front::<%d>().expect('expected %d elements');
    let [%s] = boxed.unbox();

    let (%s) = ntt_%d_inner(%s);

    array![%s]
}
`, g.n, inputType, outputType, g.n, inputType, outputType, g.n, g.n,
		strings.Join(paramNames, ", "),
		strings.Join(outputNames, ", "), g.n, strings.Join(innerArgs, ", "),
		strings.Join(outputNames, ", "))
}
