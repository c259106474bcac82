package codegen

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/polyzk/cairogen/circuit"
)

const boundedImports = `use corelib_imports::bounded_int::{
    BoundedInt, upcast, downcast, bounded_int_div_rem,
    AddHelper, MulHelper, DivRemHelper, UnitInt,
};
use corelib_imports::bounded_int::bounded_int::{SubHelper, add, sub, mul};`

// boundedEmitter tracks which registered constants the function body
// actually references, in the two independent usage forms the target
// distinguishes: a plain operand form and a non-zero divisor form.
// Constant declarations therefore can only be emitted after the body.
type boundedEmitter struct {
	c           *circuit.Circuit
	usedRegular map[string]bool // decimal value -> plain form referenced
	usedNZ      map[string]bool // decimal value -> NonZero form referenced
}

func compileBounded(c *circuit.Circuit) (string, error) {
	e := &boundedEmitter{
		c:           c,
		usedRegular: make(map[string]bool),
		usedNZ:      make(map[string]bool),
	}

	// body first: it populates the constant usage sets
	function := e.function()

	parts := []string{
		boundedImports,
		e.types(),
		e.helperImpls(),
		e.constants(),
		function,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

func (e *boundedEmitter) typeName(min, max *big.Int) string {
	return typeName(e.c, min, max)
}

// types emits one alias per distinct bound pair plus one unit type per
// registered constant, both in sorted order for diff stability.
func (e *boundedEmitter) types() string {
	var lines []string
	for _, bp := range e.c.BoundTypes() {
		lines = append(lines, fmt.Sprintf("type %s = BoundedInt<%s, %s>;",
			e.typeName(bp[0], bp[1]), bp[0], bp[1]))
	}
	values, names := e.c.RegisteredConstants()
	for i, v := range values {
		lines = append(lines, fmt.Sprintf("type %sConst = UnitInt<%s>;", names[i], v))
	}
	return strings.Join(lines, "\n")
}

// implKey dedups helper impls by arithmetic shape: identical
// (operator, operand-bound-pair) combinations recurring across an
// unrolled trace declare a single impl.
func (e *boundedEmitter) implKey(op *circuit.Operation) string {
	bounds := func(id int) string {
		v := e.c.VarByID(id)
		return v.Min.String() + "," + v.Max.String()
	}
	switch op.Kind {
	case circuit.OpAdd, circuit.OpSub, circuit.OpMul:
		return fmt.Sprintf("%s_%s_%s", op.Kind, bounds(op.Operands[0]), bounds(op.Operands[1]))
	case circuit.OpReduce:
		return fmt.Sprintf("REDUCE_%s_%s", bounds(op.Operands[0]), op.Modulus)
	case circuit.OpDiv, circuit.OpRem:
		return fmt.Sprintf("DIVREM_%s_%s", bounds(op.Operands[0]), bounds(op.Operands[1]))
	}
	return fmt.Sprintf("%s_%d", op.Kind, op.Result)
}

func (e *boundedEmitter) helperImpls() string {
	var lines []string
	seen := make(map[string]bool)
	for _, op := range e.c.Operations() {
		key := e.implKey(op)
		if seen[key] {
			continue
		}
		seen[key] = true

		switch op.Kind {
		case circuit.OpAdd:
			lines = append(lines, e.arithHelper("Add", op))
		case circuit.OpSub:
			lines = append(lines, e.arithHelper("Sub", op))
		case circuit.OpMul:
			lines = append(lines, e.arithHelper("Mul", op))
		case circuit.OpReduce, circuit.OpDiv:
			lines = append(lines, e.divRemHelper(op))
		case circuit.OpRem:
			// declared by the linked DIV
		}
	}
	return strings.Join(lines, "\n\n")
}

func (e *boundedEmitter) arithHelper(trait string, op *circuit.Operation) string {
	a := e.c.VarByID(op.Operands[0])
	b := e.c.VarByID(op.Operands[1])
	r := e.c.VarByID(op.Result)
	aType := e.typeName(a.Min, a.Max)
	bType := e.typeName(b.Min, b.Max)
	rType := e.typeName(r.Min, r.Max)
	return fmt.Sprintf(`impl %s_%s_%s of %sHelper<%s, %s> {
    type Result = %s;
}`, trait, aType, bType, trait, aType, bType, rType)
}

func (e *boundedEmitter) divRemHelper(op *circuit.Operation) string {
	a := e.c.VarByID(op.Operands[0])
	aType := e.typeName(a.Min, a.Max)
	qType := e.typeName(op.QMin, op.QMax)

	var bType, rType string
	if op.Kind == circuit.OpReduce {
		if name, ok := e.c.ConstantName(op.Modulus); ok {
			bType = name + "Const"
		} else {
			bType = fmt.Sprintf("UnitInt<%s>", op.Modulus)
		}
		r := e.c.VarByID(op.Result)
		rType = e.typeName(r.Min, r.Max)
	} else {
		b := e.c.VarByID(op.Operands[1])
		if b.IsSingleton() {
			if name, ok := e.c.ConstantName(b.Min); ok {
				bType = name + "Const"
			}
		}
		if bType == "" {
			bType = e.typeName(b.Min, b.Max)
		}
		rem := e.c.VarByID(e.c.Operations()[op.Rem].Result)
		rType = e.typeName(rem.Min, rem.Max)
	}

	return fmt.Sprintf(`impl DivRem_%s_%s of DivRemHelper<%s, %s> {
    type DivT = %s;
    type RemT = %s;
}`, aType, bType, aType, bType, qType, rType)
}

// operandName resolves an arithmetic operand, rewriting registered
// constants to their declared const binding and recording the usage.
func (e *boundedEmitter) operandName(v *circuit.Variable) string {
	if v.IsSingleton() {
		if name, ok := e.c.ConstantName(v.Min); ok {
			e.usedRegular[v.Min.String()] = true
			return strings.ToLower(name) + "_const"
		}
	}
	return v.Name
}

// nzConstName resolves a constant divisor to its NonZero binding.
func (e *boundedEmitter) nzConstName(value *big.Int) string {
	if name, ok := e.c.ConstantName(value); ok {
		e.usedNZ[value.String()] = true
		return "nz_" + strings.ToLower(name)
	}
	return "nz_" + value.String()
}

// statement emits the Cairo statement for one trace operation, or ""
// for a REM folded into its paired DIV.
func (e *boundedEmitter) statement(op *circuit.Operation) string {
	r := e.c.VarByID(op.Result)
	rType := e.typeName(r.Min, r.Max)

	switch op.Kind {
	case circuit.OpAdd, circuit.OpSub, circuit.OpMul:
		a := e.operandName(e.c.VarByID(op.Operands[0]))
		b := e.operandName(e.c.VarByID(op.Operands[1]))
		fn := strings.ToLower(op.Kind.String())
		return fmt.Sprintf("let %s: %s = %s(%s, %s);", r.Name, rType, fn, a, b)

	case circuit.OpReduce:
		a := e.c.VarByID(op.Operands[0])
		nz := e.nzConstName(op.Modulus)
		return fmt.Sprintf("let (_%s_q, %s): (_, %s) = bounded_int_div_rem(%s, %s);",
			r.Name, r.Name, rType, a.Name, nz)

	case circuit.OpDiv:
		a := e.c.VarByID(op.Operands[0])
		b := e.c.VarByID(op.Operands[1])
		var nz string
		if b.IsSingleton() {
			if _, ok := e.c.ConstantName(b.Min); ok {
				nz = e.nzConstName(b.Min)
			}
		}
		if nz == "" {
			nz = "nz_" + b.Name
		}
		rem := e.c.VarByID(e.c.Operations()[op.Rem].Result)
		remType := e.typeName(rem.Min, rem.Max)
		return fmt.Sprintf("let (%s, %s): (%s, %s) = bounded_int_div_rem(%s, %s);",
			r.Name, rem.Name, rType, remType, a.Name, nz)

	case circuit.OpRem:
		// emitted as part of the paired DIV's destructuring statement
		return ""
	}
	return fmt.Sprintf("// unknown op: %s", op.Kind)
}

// constants emits the declarations for constants referenced by the
// body, one line per usage form actually seen.
func (e *boundedEmitter) constants() string {
	var lines []string
	values, names := e.c.RegisteredConstants()
	for i, v := range values {
		lower := strings.ToLower(names[i])
		if e.usedRegular[v.String()] {
			lines = append(lines, fmt.Sprintf("const %s_const: %sConst = %s;", lower, names[i], v))
		}
		if e.usedNZ[v.String()] {
			lines = append(lines, fmt.Sprintf("const nz_%s: NonZero<%sConst> = %s;", lower, names[i], v))
		}
	}
	return strings.Join(lines, "\n")
}

func (e *boundedEmitter) function() string {
	var params []string
	for _, inp := range e.c.Inputs() {
		params = append(params, fmt.Sprintf("%s: %s", inp.Name, e.typeName(inp.Min, inp.Max)))
	}

	outputs := e.c.Outputs()
	var returns string
	if len(outputs) == 1 {
		returns = e.typeName(outputs[0].Min, outputs[0].Max)
	} else {
		outTypes := make([]string, len(outputs))
		for i, out := range outputs {
			outTypes[i] = e.typeName(out.Min, out.Max)
		}
		returns = "(" + strings.Join(outTypes, ", ") + ")"
	}

	var body []string
	for _, op := range e.c.Operations() {
		line := e.statement(op)
		if line == "" {
			continue
		}
		if op.Comment != "" {
			line += "  // " + op.Comment
		}
		body = append(body, line)
	}

	if len(outputs) == 1 {
		body = append(body, outputs[0].Name)
	} else {
		outNames := make([]string, len(outputs))
		for i, out := range outputs {
			outNames[i] = out.Name
		}
		body = append(body, "("+strings.Join(outNames, ", ")+")")
	}

	return fmt.Sprintf("pub fn %s(%s) -> %s {\n    %s\n}",
		e.c.Name(), strings.Join(params, ", "), returns, strings.Join(body, "\n    "))
}
