package circuit

import "math/big"

// OpKind enumerates the kinds of operations that can appear in a trace.
type OpKind int

const (
	_            = 0
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpReduce
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpRem:
		return "REM"
	case OpReduce:
		return "REDUCE"
	}
	return "UNKNOWN"
}

// Operation records a single step of the trace. Operands and Result
// are variable ids; an operation may reference only previously created
// variables. The remaining fields are kind-specific:
//  1. OpDiv carries the quotient bounds and the trace index of its
//     paired OpRem
//  2. OpRem carries the same quotient bounds and the trace index of
//     its paired OpDiv
//  3. OpReduce carries the modulus and the quotient bounds of the
//     (possibly shifted) input divided by it
type Operation struct {
	Kind     OpKind
	Operands []int
	Result   int

	QMin, QMax *big.Int
	Modulus    *big.Int

	// paired-operation trace indices, -1 when absent
	Div int
	Rem int

	Comment string
}

func newArithOperation(kind OpKind, operands []int, result int) *Operation {
	return &Operation{
		Kind:     kind,
		Operands: operands,
		Result:   result,
		Div:      -1,
		Rem:      -1,
	}
}

func newDivRemOperation(kind OpKind, operands []int, result int, qMin, qMax *big.Int) *Operation {
	return &Operation{
		Kind:     kind,
		Operands: operands,
		Result:   result,
		QMin:     qMin,
		QMax:     qMax,
		Div:      -1,
		Rem:      -1,
	}
}

func newReduceOperation(operand int, result int, modulus, qMin, qMax *big.Int) *Operation {
	return &Operation{
		Kind:     OpReduce,
		Operands: []int{operand},
		Result:   result,
		QMin:     qMin,
		QMax:     qMax,
		Modulus:  modulus,
		Div:      -1,
		Rem:      -1,
	}
}
