package bitmat

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// MaxWeightedCols bounds the width of a table read as unsigned integers.
const MaxWeightedCols = 62

var ErrWeightedOverflow = errors.New("weighted sums overflow int64")

// WeightedFits reports whether every weighted sum over a rows×cols table,
// at most rows·(2^cols - 1) in magnitude, fits in an int64 with a bit to
// spare.
func WeightedFits(rows, cols int) bool {
	return cols+bits.Len(uint(rows)) <= MaxWeightedCols
}

func mustSameShape(a, b *Matrix) {
	if !a.SameShape(b) {
		panic(fmt.Sprintf("bitmat: shape mismatch %dx%d vs %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
}

// Hamming counts the entries where a and b differ.
func Hamming(a, b *Matrix) int64 {
	mustSameShape(a, b)
	var d int64
	for i := range a.data {
		if a.data[i] != b.data[i] {
			d++
		}
	}
	return d
}

// Weight returns the significance of column c in an m-column row, 2^(m-1-c).
func Weight(m, c int) int64 {
	return int64(1) << uint(m-1-c)
}

// WeightedHamming sums the positional weight of every differing entry, so a
// flipped most significant bit costs as much as all lower bits together plus one.
func WeightedHamming(a, b *Matrix) int64 {
	mustSameShape(a, b)
	if !WeightedFits(a.rows, a.cols) {
		panic(fmt.Sprintf("bitmat: weighted distance of %dx%d tables overflows", a.rows, a.cols))
	}
	var d int64
	for r := 0; r < a.rows; r++ {
		ra, rb := a.Row(r), b.Row(r)
		for c := range ra {
			if ra[c] != rb[c] {
				d += Weight(a.cols, c)
			}
		}
	}
	return d
}

// RowValue reads a row as an unsigned integer, first entry most significant.
func RowValue(row []uint8) uint64 {
	var v uint64
	for _, b := range row {
		v = v<<1 | uint64(b)
	}
	return v
}

// PutValue writes the low len(row) bits of v into row, most significant first.
func PutValue(row []uint8, v uint64) {
	for i := len(row) - 1; i >= 0; i-- {
		row[i] = uint8(v & 1)
		v >>= 1
	}
}
