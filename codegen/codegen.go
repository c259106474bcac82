// Package codegen renders a finished circuit trace into Cairo source
// text under one of two backend strategies.
//
// Bounded mode emits typed bounded-integer arithmetic with one explicit
// reduction helper per step. Felt-native mode emits plain felt252
// arithmetic, defers all reduction to the output boundary, and is only
// legal while every accumulated bound stays below the felt252 width.
// Both emitters are read-only passes over the same IR and may be
// invoked repeatedly; identical traces produce byte-identical output.
package codegen

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/circuit"
)

// Mode selects the backend strategy.
type Mode string

const (
	ModeBounded Mode = "bounded"
	ModeFelt252 Mode = "felt252"
)

// Compile renders the circuit to Cairo source. It fails on an unknown
// mode, on a felt-native legality violation, and on a trace using
// operations the requested backend cannot express.
func Compile(c *circuit.Circuit, mode Mode) (string, error) {
	if len(c.Outputs()) == 0 {
		return "", fmt.Errorf("circuit %q has no outputs", c.Name())
	}
	switch mode {
	case ModeBounded:
		return compileBounded(c)
	case ModeFelt252:
		if err := validateFelt252(c); err != nil {
			return "", err
		}
		return compileFelt252(c)
	default:
		return "", fmt.Errorf("unknown compilation mode %q: use %q or %q", mode, ModeBounded, ModeFelt252)
	}
}

// typeName generates the readable Cairo type name for a bound pair.
// The full-modulus range gets the canonical name, a singleton matching
// a registered constant gets that constant's unit type, and everything
// else is named from its bounds with an "n" marker for negatives.
func typeName(c *circuit.Circuit, min, max *big.Int) string {
	if min.Cmp(max) == 0 {
		if name, ok := c.ConstantName(min); ok {
			return name + "Const"
		}
	}
	if min.Sign() == 0 {
		qm1 := new(big.Int).Sub(c.Modulus(), big.NewInt(1))
		if max.Cmp(qm1) == 0 {
			return "Zq"
		}
	}
	return "BInt_" + boundString(min) + "_" + boundString(max)
}

func boundString(b *big.Int) string {
	if b.Sign() < 0 {
		return "n" + new(big.Int).Abs(b).String()
	}
	return b.String()
}
