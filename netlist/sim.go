package netlist

import (
	"math/bits"

	"bmfapprox/bitmat"

	"github.com/go-air/gini/z"
)

// lane reads literal m from a bit-parallel evaluation.
func (ck *Circuit) lane(vs []uint64, m z.Lit) uint64 {
	switch m {
	case ck.c.T:
		return ^uint64(0)
	case ck.c.F:
		return 0
	}
	v := vs[m.Var()]
	if !m.IsPos() {
		v = ^v
	}
	return v
}

// Simulate evaluates the circuit on each input value, whose most significant
// of len(Inputs) bits drives input 0. It returns one output row per value and
// the mean number of AND gates that switch between consecutive values.
func (ck *Circuit) Simulate(values []uint64) (*bitmat.Matrix, float64) {
	nIn := len(ck.Inputs)
	out := bitmat.New(len(values), len(ck.Outputs))
	gates := ck.cone()
	last := make([]uint64, len(gates))
	var toggles int

	vs := make([]uint64, ck.c.Len())
	for base := 0; base < len(values); base += 64 {
		count := min(64, len(values)-base)
		for i := range vs {
			vs[i] = 0
		}
		for l := 0; l < count; l++ {
			v := values[base+l]
			for i, in := range ck.Inputs {
				vs[in.Var()] |= (v >> uint(nIn-1-i) & 1) << uint(l)
			}
		}
		ck.c.Eval64(vs)

		for o, m := range ck.Outputs {
			x := ck.lane(vs, m)
			for l := 0; l < count; l++ {
				out.Set(base+l, o, uint8(x>>uint(l)&1))
			}
		}

		pairs := uint64(1)<<uint(count-1) - 1
		for g, v := range gates {
			x := vs[v]
			toggles += bits.OnesCount64((x ^ x>>1) & pairs)
			if base > 0 && last[g] != x&1 {
				toggles++
			}
			last[g] = x >> uint(count-1) & 1
		}
	}

	if len(values) < 2 {
		return out, 0
	}
	return out, float64(toggles) / float64(len(values)-1)
}

// Table evaluates the circuit on every input assignment in ascending order.
func (ck *Circuit) Table() *bitmat.Matrix {
	values := make([]uint64, 1<<uint(len(ck.Inputs)))
	for i := range values {
		values[i] = uint64(i)
	}
	out, _ := ck.Simulate(values)
	return out
}
