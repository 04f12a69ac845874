package design

import (
	"math/rand/v2"

	"bmfapprox/bitmat"

	"github.com/pkg/errors"
)

// MaxExhaustiveInputs is the widest design whose vectors are enumerated.
const MaxExhaustiveInputs = 16

// ExhaustiveVectors lists every assignment of width inputs in ascending
// order, first column most significant.
func ExhaustiveVectors(width int) *bitmat.Matrix {
	n := 1 << uint(width)
	out := bitmat.New(n, width)
	for r := 0; r < n; r++ {
		bitmat.PutValue(out.Row(r), uint64(r))
	}
	return out
}

// RandomVectors draws n uniform vectors from a generator seeded with seed, so
// a run can be repeated.
func RandomVectors(width, n int, seed uint64) *bitmat.Matrix {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := bitmat.New(n, width)
	for r := 0; r < n; r++ {
		row := out.Row(r)
		for c := range row {
			row[c] = uint8(rng.Uint64() & 1)
		}
	}
	return out
}

// LoadVectors reads a testbench file. Rows may carry expected outputs after
// the inputs; only the first width columns are kept.
func LoadVectors(path string, width int) (*bitmat.Matrix, error) {
	raw, err := bitmat.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if raw.Cols() < width {
		return nil, errors.Errorf("testbench %q has %d columns, design has %d inputs", path, raw.Cols(), width)
	}
	if raw.Cols() == width {
		return raw, nil
	}
	out := bitmat.New(raw.Rows(), width)
	for r := 0; r < raw.Rows(); r++ {
		copy(out.Row(r), raw.Row(r)[:width])
	}
	return out, nil
}

// Vectors picks the test vectors for d: the testbench when one is given,
// every assignment for narrow designs, a seeded sample of samples vectors
// otherwise.
func (d *Design) Vectors(testbench string, samples int, seed uint64) (*bitmat.Matrix, error) {
	width := len(d.Inputs)
	switch {
	case testbench != "":
		return LoadVectors(testbench, width)
	case width <= MaxExhaustiveInputs:
		return ExhaustiveVectors(width), nil
	case samples > 0:
		return RandomVectors(width, samples, seed), nil
	}
	return nil, errors.Errorf("design has %d inputs and no testbench; set a sample count", width)
}
