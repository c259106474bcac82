package codegen

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/polyzk/cairogen/circuit"
)

const felt252Imports = `// Auto-generated felt252 mode - DO NOT EDIT
use corelib_imports::bounded_int::{BoundedInt, DivRemHelper, bounded_int_div_rem, upcast};
use crate::zq::{Zq, QConst, NZ_Q};
`

// shiftConstPrefix marks the synthetic constants inserted by reduce's
// negative-dividend handling; felt-native mode drops the additions
// that use them.
const shiftConstPrefix = "SHIFT_"

// felt252Limit is the width of the target's native field element. It
// is a property of the execution target, not a tunable policy.
var felt252Limit = new(big.Int).Lsh(big.NewInt(1), 252)

// validateFelt252 is the legality pass: felt-native mode is rejected
// wholesale if any variable's bound magnitude reaches the native width.
func validateFelt252(c *circuit.Circuit) error {
	for _, v := range c.Variables() {
		if v.AbsBound().Cmp(felt252Limit) >= 0 {
			return fmt.Errorf(
				"bounds exceed 2^252, cannot use felt252 mode: variable %q has bounds [%s, %s]",
				v.Name, v.Min, v.Max)
		}
	}
	return nil
}

func compileFelt252(c *circuit.Circuit) (string, error) {
	function, err := felt252Function(c)
	if err != nil {
		return "", err
	}
	parts := []string{
		felt252Imports,
		felt252ReductionTypes(c),
		"",
		function,
	}
	return strings.Join(parts, "\n"), nil
}

// computeShift returns the smallest multiple of the modulus that makes
// every variable non-negative when added, or zero if none is negative.
func computeShift(c *circuit.Circuit) *big.Int {
	min := new(big.Int)
	for _, v := range c.Variables() {
		if v.Min.Cmp(min) < 0 {
			min.Set(v.Min)
		}
	}
	if min.Sign() >= 0 {
		return new(big.Int)
	}
	m := c.Modulus()
	shift := new(big.Int).Neg(min)
	shift.Add(shift, m)
	shift.Sub(shift, big.NewInt(1))
	shift.Quo(shift, m)
	return shift.Mul(shift, m)
}

// felt252ReductionTypes emits the terminal reduction machinery: the
// SHIFT constant, the shifted bound type, and its DivRem impl against
// the modulus. Circuit constants become let bindings in the function
// instead of module-level declarations.
func felt252ReductionTypes(c *circuit.Circuit) string {
	shift := computeShift(c)
	maxBound := new(big.Int)
	for _, v := range c.Variables() {
		if v.Max.Cmp(maxBound) > 0 {
			maxBound.Set(v.Max)
		}
	}
	shiftedMax := new(big.Int).Add(shift, maxBound)
	divMax := new(big.Int).Quo(shiftedMax, c.Modulus())

	var b strings.Builder
	fmt.Fprintf(&b, "const SHIFT: felt252 = %s;\n", shift)
	fmt.Fprintf(&b, "type ShiftedT = BoundedInt<0, %s>;\n", shiftedMax)
	b.WriteString("\n")
	b.WriteString("impl DivRem_ShiftedT_QConst of DivRemHelper<ShiftedT, QConst> {\n")
	fmt.Fprintf(&b, "    type DivT = BoundedInt<0, %s>;\n", divMax)
	b.WriteString("    type RemT = Zq;\n")
	b.WriteString("}")
	return b.String()
}

func isShiftConstant(c *circuit.Circuit, v *circuit.Variable) bool {
	if !v.IsSingleton() {
		return false
	}
	name, ok := c.ConstantName(v.Min)
	return ok && strings.HasPrefix(name, shiftConstPrefix)
}

// skipSet marks the trace indices felt-native mode must not emit:
// every REDUCE, and every ADD whose operand is a synthetic shift
// constant supporting bounded-mode's negative-dividend handling.
func skipSet(c *circuit.Circuit) *bitset.BitSet {
	ops := c.Operations()
	skip := bitset.New(uint(len(ops)))
	for i, op := range ops {
		if op.Kind == circuit.OpReduce {
			skip.Set(uint(i))
			continue
		}
		if op.Kind == circuit.OpAdd {
			for _, id := range op.Operands {
				if isShiftConstant(c, c.VarByID(id)) {
					skip.Set(uint(i))
					break
				}
			}
		}
	}
	return skip
}

// felt252OperandName resolves an operand: registered constants keep
// their symbolic (let-bound) name, everything else its variable name.
func felt252OperandName(c *circuit.Circuit, v *circuit.Variable) string {
	if v.IsSingleton() {
		if name, ok := c.ConstantName(v.Min); ok {
			return name
		}
	}
	return v.Name
}

func felt252Statement(c *circuit.Circuit, op *circuit.Operation) (string, error) {
	var sym string
	switch op.Kind {
	case circuit.OpAdd:
		sym = "+"
	case circuit.OpSub:
		sym = "-"
	case circuit.OpMul:
		sym = "*"
	default:
		return "", fmt.Errorf("unsupported operation type for felt252 mode: %s", op.Kind)
	}
	a := felt252OperandName(c, c.VarByID(op.Operands[0]))
	b := felt252OperandName(c, c.VarByID(op.Operands[1]))
	r := c.VarByID(op.Result)
	return fmt.Sprintf("let %s = %s %s %s;", r.Name, a, sym, b), nil
}

// unreducedSource traces an output back through its producer chain,
// unwrapping one REDUCE and, beneath it, one shift-ADD, to recover the
// true unreduced value felt-native mode computed.
func unreducedSource(c *circuit.Circuit, out *circuit.Variable) string {
	ops := c.Operations()
	if out.Source < 0 || ops[out.Source].Kind != circuit.OpReduce {
		return out.Name
	}
	shifted := c.VarByID(ops[out.Source].Operands[0])
	if shifted.Source >= 0 && ops[shifted.Source].Kind == circuit.OpAdd {
		addOp := ops[shifted.Source]
		if isShiftConstant(c, c.VarByID(addOp.Operands[1])) {
			return c.VarByID(addOp.Operands[0]).Name
		}
	}
	return shifted.Name
}

func felt252Function(c *circuit.Circuit) (string, error) {
	var lines []string

	var params []string
	for _, inp := range c.Inputs() {
		params = append(params, inp.Name+": felt252")
	}
	outputs := c.Outputs()
	returnType := "Zq"
	if len(outputs) > 1 {
		zqs := make([]string, len(outputs))
		for i := range zqs {
			zqs[i] = "Zq"
		}
		returnType = "(" + strings.Join(zqs, ", ") + ")"
	}
	lines = append(lines, fmt.Sprintf("pub fn %s(%s) -> %s {", c.Name(), strings.Join(params, ", "), returnType))

	// circuit constants (twiddle factors) as let bindings; the shift
	// constants belong to bounded-mode reduction and are dropped
	values, names := c.RegisteredConstants()
	nbBindings := 0
	for i, v := range values {
		if strings.HasPrefix(names[i], shiftConstPrefix) {
			continue
		}
		lines = append(lines, fmt.Sprintf("    let %s = %s;", names[i], v))
		nbBindings++
	}
	if nbBindings > 0 {
		lines = append(lines, "")
	}

	ops := c.Operations()
	skip := skipSet(c)
	for i, op := range ops {
		if skip.Test(uint(i)) {
			continue
		}
		stmt, err := felt252Statement(c, op)
		if err != nil {
			return "", err
		}
		lines = append(lines, "    "+stmt)
	}
	lines = append(lines, "")

	// one terminal shift-then-divide reduction per output
	for _, out := range outputs {
		src := unreducedSource(c, out)
		lines = append(lines, fmt.Sprintf("    let %s: ShiftedT = (%s + SHIFT).try_into().unwrap();", out.Name, src))
		lines = append(lines, fmt.Sprintf("    let (_, %s) = bounded_int_div_rem(%s, NZ_Q);", out.Name, out.Name))
	}
	lines = append(lines, "")

	if len(outputs) == 1 {
		lines = append(lines, "    "+outputs[0].Name)
	} else {
		outNames := make([]string, len(outputs))
		for i, out := range outputs {
			outNames[i] = out.Name
		}
		lines = append(lines, "    ("+strings.Join(outNames, ", ")+")")
	}
	lines = append(lines, "}")

	return strings.Join(lines, "\n"), nil
}
