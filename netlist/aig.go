// Package netlist realizes partition functions as and-inverter graphs so that
// their size, depth and switching activity can be measured.
package netlist

import (
	"bmfapprox/bitmat"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// MaxInputs bounds the width of a realized partition, whose functions are
// given as exhaustive tables.
const MaxInputs = 20

// Circuit is a combinational and-inverter graph with ordered inputs and
// outputs. Input 0 is the most significant bit of a table row index.
type Circuit struct {
	c       *logic.C
	Inputs  []z.Lit
	Outputs []z.Lit
}

type builder struct {
	circuit *Circuit
	memo    map[string]z.Lit
}

func newBuilder(inputs int) *builder {
	c := logic.NewCCap(1 << 10)
	ins := make([]z.Lit, inputs)
	for i := range ins {
		ins[i] = c.Lit()
	}
	return &builder{
		circuit: &Circuit{c: c, Inputs: ins},
		memo:    make(map[string]z.Lit),
	}
}

// shannon builds the function whose truth table over inputs depth.. is col.
// Equal subfunctions at the same depth share one literal.
func (b *builder) shannon(col []uint8, depth int) z.Lit {
	c := b.circuit.c
	ones := 0
	for _, v := range col {
		ones += int(v)
	}
	switch ones {
	case 0:
		return c.F
	case len(col):
		return c.T
	}

	key := make([]byte, 1+len(col))
	key[0] = byte(depth)
	for i, v := range col {
		key[i+1] = '0' + v
	}
	if m, ok := b.memo[string(key)]; ok {
		return m
	}
	half := len(col) / 2
	lo := b.shannon(col[:half], depth+1)
	hi := b.shannon(col[half:], depth+1)
	m := c.Choice(b.circuit.Inputs[depth], hi, lo)
	b.memo[string(key)] = m
	return m
}

func checkTable(inputs, rows int) error {
	if inputs < 0 || inputs > MaxInputs {
		return errors.Errorf("%d inputs, want 0..%d", inputs, MaxInputs)
	}
	if rows != 1<<uint(inputs) {
		return errors.Errorf("table has %d rows, an exhaustive %d-input table has %d", rows, inputs, 1<<uint(inputs))
	}
	return nil
}

// Realize builds every output column of an exhaustive truth table directly.
func Realize(table bitmat.TruthTable) (*Circuit, error) {
	if err := checkTable(table.Inputs, table.Len()); err != nil {
		return nil, err
	}
	b := newBuilder(table.Inputs)
	for c := 0; c < table.Width(); c++ {
		b.circuit.Outputs = append(b.circuit.Outputs, b.shannon(table.Outputs.Col(c), 0))
	}
	return b.circuit, nil
}

// RealizeFactorization builds the compressor S as functions of the inputs and
// the decompressor as XOR trees over the S columns selected by each basis
// column. The circuit computes S·B mod 2.
func RealizeFactorization(inputs int, s, basis *bitmat.Matrix) (*Circuit, error) {
	if err := checkTable(inputs, s.Rows()); err != nil {
		return nil, err
	}
	if s.Cols() != basis.Rows() {
		return nil, errors.Errorf("solver has %d columns, basis has %d rows", s.Cols(), basis.Rows())
	}
	b := newBuilder(inputs)
	c := b.circuit.c
	compressed := make([]z.Lit, s.Cols())
	for j := range compressed {
		compressed[j] = b.shannon(s.Col(j), 0)
	}
	for col := 0; col < basis.Cols(); col++ {
		out := c.F
		for j, on := range basis.Col(col) {
			if on == 1 {
				out = c.Xor(out, compressed[j])
			}
		}
		b.circuit.Outputs = append(b.circuit.Outputs, out)
	}
	return b.circuit, nil
}

func (ck *Circuit) isConst(m z.Lit) bool {
	return m.Var() <= 1
}

// cone lists the AND nodes reachable from the outputs, in index order.
func (ck *Circuit) cone() []z.Var {
	seen := make([]bool, ck.c.Len())
	stack := append([]z.Lit(nil), ck.Outputs...)
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		v := m.Var()
		if ck.isConst(m) || seen[v] {
			continue
		}
		a, b := ck.c.Ins(m)
		if a == z.LitNull {
			continue
		}
		seen[v] = true
		stack = append(stack, a, b)
	}
	out := make([]z.Var, 0)
	for i, ok := range seen {
		if ok {
			out = append(out, z.Var(i))
		}
	}
	return out
}

// Ands counts the AND gates that drive some output.
func (ck *Circuit) Ands() int { return len(ck.cone()) }

// Depth is the largest number of AND gates on a path from an input to an
// output.
func (ck *Circuit) Depth() int {
	level := make([]int, ck.c.Len())
	for _, v := range ck.cone() {
		a, b := ck.c.Ins(v.Pos())
		level[v] = 1 + max(level[a.Var()], level[b.Var()])
	}
	depth := 0
	for _, m := range ck.Outputs {
		if !ck.isConst(m) {
			depth = max(depth, level[m.Var()])
		}
	}
	return depth
}
