package bitmat

import "github.com/pkg/errors"

// TruthTable is a sequence of test vectors. Only the output segment is kept
// as a matrix; Inputs records the width of the input segment so that rows of
// an exhaustive table can be mapped back to input assignments.
type TruthTable struct {
	Inputs  int
	Outputs *Matrix
}

// SplitVectors separates full test vectors (input bits followed by output
// bits) into a truth table.
func SplitVectors(vectors *Matrix, inputs int) (TruthTable, error) {
	if inputs < 0 || inputs > vectors.Cols() {
		return TruthTable{}, errors.Errorf("input width %d out of range for %d-bit vectors", inputs, vectors.Cols())
	}
	out := New(vectors.Rows(), vectors.Cols()-inputs)
	for r := 0; r < vectors.Rows(); r++ {
		copy(out.Row(r), vectors.Row(r)[inputs:])
	}
	return TruthTable{Inputs: inputs, Outputs: out}, nil
}

// Exhaustive reports whether the table lists every input assignment once, in
// ascending order, which is what row lookups by input value rely on.
func (t TruthTable) Exhaustive() bool {
	return t.Inputs < 63 && t.Outputs.Rows() == 1<<uint(t.Inputs)
}

func (t TruthTable) Width() int { return t.Outputs.Cols() }

func (t TruthTable) Len() int { return t.Outputs.Rows() }
