package circuit

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/logger"
)

func rangeOf(v *Variable) *big.Int {
	return new(big.Int).Sub(v.Max, v.Min)
}

// Stats summarizes a finished circuit.
type Stats struct {
	NumVariables  int
	NumOperations int
	NumReductions int
	NumTypes      int
	MaxBits       int
}

func (c *Circuit) Stats() Stats {
	nbReduce := 0
	for _, op := range c.trace {
		if op.Kind == OpReduce {
			nbReduce++
		}
	}
	return Stats{
		NumVariables:  len(c.vars),
		NumOperations: len(c.trace),
		NumReductions: nbReduce,
		NumTypes:      len(c.boundTypes),
		MaxBits:       c.MaxBits(),
	}
}

// MaxBits returns the maximum bit-width across all variables.
func (c *Circuit) MaxBits() int {
	max := 0
	for _, v := range c.vars {
		if w := v.BitWidth(); w > max {
			max = w
		}
	}
	return max
}

// VarInfo describes one extremal variable in a BoundsSummary.
type VarInfo struct {
	Name     string
	Min, Max string
	BitWidth int
	Source   string
}

func (c *Circuit) varInfo(v *Variable) *VarInfo {
	if v == nil {
		return nil
	}
	source := "INPUT"
	if v.Source >= 0 {
		source = c.trace[v.Source].Kind.String()
	}
	return &VarInfo{
		Name:     v.Name,
		Min:      v.Min.String(),
		Max:      v.Max.String(),
		BitWidth: v.BitWidth(),
		Source:   source,
	}
}

// BoundsSummary reports the bound extrema of the circuit: the largest
// absolute bound, the widest interval, the widest bit-width, and the
// same extrema restricted to variables not produced by a reduction.
type BoundsSummary struct {
	NumVariables  int
	NumInputs     int
	NumOutputs    int
	NumOperations int

	MaxAbs           *VarInfo
	MaxRange         *VarInfo
	MaxBits          *VarInfo
	MaxAbsUnreduced  *VarInfo
	MaxBitsUnreduced *VarInfo
}

func (c *Circuit) BoundsSummary() BoundsSummary {
	s := BoundsSummary{
		NumVariables:  len(c.vars),
		NumInputs:     len(c.inputs),
		NumOutputs:    len(c.outputs),
		NumOperations: len(c.trace),
	}
	if len(c.vars) == 0 {
		return s
	}

	var maxAbs, maxRange, maxBits *Variable
	var maxAbsUnred, maxBitsUnred *Variable
	for _, v := range c.vars {
		if maxAbs == nil || v.AbsBound().Cmp(maxAbs.AbsBound()) > 0 {
			maxAbs = v
		}
		if maxRange == nil || rangeOf(v).Cmp(rangeOf(maxRange)) > 0 {
			maxRange = v
		}
		if maxBits == nil || v.BitWidth() > maxBits.BitWidth() {
			maxBits = v
		}
		if v.Source >= 0 && c.trace[v.Source].Kind == OpReduce {
			continue
		}
		if maxAbsUnred == nil || v.AbsBound().Cmp(maxAbsUnred.AbsBound()) > 0 {
			maxAbsUnred = v
		}
		if maxBitsUnred == nil || v.BitWidth() > maxBitsUnred.BitWidth() {
			maxBitsUnred = v
		}
	}
	s.MaxAbs = c.varInfo(maxAbs)
	s.MaxRange = c.varInfo(maxRange)
	s.MaxBits = c.varInfo(maxBits)
	s.MaxAbsUnreduced = c.varInfo(maxAbsUnred)
	s.MaxBitsUnreduced = c.varInfo(maxBitsUnred)
	return s
}

// LogSummary logs the circuit's counts and bound extrema.
func (c *Circuit) LogSummary() {
	s := c.BoundsSummary()
	log := logger.Logger().With().Str("circuit", c.name).Logger()
	ev := log.Info().
		Str("modulus", c.modulus.String()).
		Str("maxBound", c.maxBound.String()).
		Int("vars", s.NumVariables).
		Int("inputs", s.NumInputs).
		Int("outputs", s.NumOutputs).
		Int("ops", s.NumOperations).
		Int("autoReduced", c.autoReducedCount)
	for label, info := range map[string]*VarInfo{
		"maxAbs":           s.MaxAbs,
		"maxBits":          s.MaxBits,
		"maxAbsUnreduced":  s.MaxAbsUnreduced,
		"maxBitsUnreduced": s.MaxBitsUnreduced,
	} {
		if info != nil {
			ev = ev.Str(label, fmt.Sprintf("%s [%s, %s] (%d bits, %s)",
				info.Name, info.Min, info.Max, info.BitWidth, info.Source))
		}
	}
	ev.Msg("circuit summary")
}
