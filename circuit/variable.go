package circuit

import (
	"fmt"
	"math/big"
)

// Variable is a single node of the dataflow DAG. Bounds are exact
// signed integer intervals with Min <= Max. A Variable is owned by
// exactly one Circuit and is immutable once created; every derived
// value is a fresh Variable. The only post-creation change is an
// output rename performed by Circuit.Output.
type Variable struct {
	// ID is the creation-order index in the owning circuit's arena.
	ID   int
	Name string
	Min  *big.Int
	Max  *big.Int
	// Source is the trace index of the producing operation, or -1 for
	// inputs and constants.
	Source int
}

// Bounds returns the variable's interval. The returned values are the
// arena-owned integers and must not be mutated.
func (v *Variable) Bounds() (*big.Int, *big.Int) {
	return v.Min, v.Max
}

// BitWidth is the bit length of max(|Min|, |Max|).
func (v *Variable) BitWidth() int {
	a := new(big.Int).Abs(v.Min)
	b := new(big.Int).Abs(v.Max)
	if a.Cmp(b) > 0 {
		return a.BitLen()
	}
	return b.BitLen()
}

// IsSingleton reports whether the interval contains a single value.
func (v *Variable) IsSingleton() bool {
	return v.Min.Cmp(v.Max) == 0
}

// AbsBound returns max(|Min|, |Max|) as a fresh integer.
func (v *Variable) AbsBound() *big.Int {
	a := new(big.Int).Abs(v.Min)
	b := new(big.Int).Abs(v.Max)
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func (v *Variable) Inspect() string {
	return fmt.Sprintf("%s: BoundedInt<%s, %s>", v.Name, v.Min, v.Max)
}

func (v *Variable) String() string {
	return v.Inspect()
}
