// Package bitmat holds dense binary matrices and the truth tables built on
// them. Entries are stored one per byte, row-major, and are always 0 or 1.
package bitmat

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Matrix struct {
	rows int
	cols int
	data []uint8
}

// New returns an all-zero rows×cols matrix.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("bitmat: negative shape %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]uint8, rows*cols)}
}

// FromStrings builds a matrix from rows of '0'/'1' characters. Spaces are
// ignored so both "0110" and "0 1 1 0" are accepted.
func FromStrings(rows ...string) (*Matrix, error) {
	parsed := make([][]uint8, 0, len(rows))
	for i, s := range rows {
		row, err := parseRow(s)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		parsed = append(parsed, row)
	}
	return fromRows(parsed)
}

// MustFromStrings is FromStrings for literals known to be well formed.
func MustFromStrings(rows ...string) *Matrix {
	m, err := FromStrings(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

func fromRows(rows [][]uint8) (*Matrix, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, errors.Errorf("row %d has %d columns, expected %d", r, len(row), cols)
		}
		copy(m.data[r*cols:(r+1)*cols], row)
	}
	return m, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(r, c int) uint8 { return m.data[r*m.cols+c] }

func (m *Matrix) Set(r, c int, v uint8) { m.data[r*m.cols+c] = v & 1 }

// Row returns a view of row r. Writes through the view change the matrix.
func (m *Matrix) Row(r int) []uint8 { return m.data[r*m.cols : (r+1)*m.cols] }

// Col returns a copy of column c.
func (m *Matrix) Col(c int) []uint8 {
	col := make([]uint8, m.rows)
	for r := 0; r < m.rows; r++ {
		col[r] = m.data[r*m.cols+c]
	}
	return col
}

func (m *Matrix) SetCol(c int, col []uint8) {
	if len(col) != m.rows {
		panic(fmt.Sprintf("bitmat: column of length %d for %d rows", len(col), m.rows))
	}
	for r, v := range col {
		m.data[r*m.cols+c] = v & 1
	}
}

func (m *Matrix) SetRow(r int, row []uint8) {
	if len(row) != m.cols {
		panic(fmt.Sprintf("bitmat: row of length %d for %d columns", len(row), m.cols))
	}
	for c, v := range row {
		m.data[r*m.cols+c] = v & 1
	}
}

func (m *Matrix) Clone() *Matrix {
	data := make([]uint8, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

func (m *Matrix) SameShape(o *Matrix) bool {
	return m.rows == o.rows && m.cols == o.cols
}

func (m *Matrix) Equal(o *Matrix) bool {
	if !m.SameShape(o) {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// Ones counts the entries set to 1.
func (m *Matrix) Ones() int {
	n := 0
	for _, v := range m.data {
		n += int(v)
	}
	return n
}

// String renders the matrix as rows of '0'/'1' characters.
func (m *Matrix) String() string {
	var sb strings.Builder
	for r := 0; r < m.rows; r++ {
		for _, v := range m.Row(r) {
			sb.WriteByte('0' + v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Strings returns one '0'/'1' string per row.
func (m *Matrix) Strings() []string {
	out := make([]string, m.rows)
	for r := range out {
		b := make([]byte, m.cols)
		for c, v := range m.Row(r) {
			b[c] = '0' + v
		}
		out[r] = string(b)
	}
	return out
}

// Ints returns the matrix as nested int slices, the shape JSON encoders expect.
func (m *Matrix) Ints() [][]int {
	out := make([][]int, m.rows)
	for r := range out {
		out[r] = make([]int, m.cols)
		for c, v := range m.Row(r) {
			out[r][c] = int(v)
		}
	}
	return out
}

func mustMultiply(a, b *Matrix) {
	if a.cols != b.rows {
		panic(fmt.Sprintf("bitmat: cannot multiply %dx%d by %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
}

// MulMod2 returns a·b over GF(2).
func MulMod2(a, b *Matrix) *Matrix {
	mustMultiply(a, b)
	out := New(a.rows, b.cols)
	for r := 0; r < a.rows; r++ {
		dst := out.Row(r)
		for i, v := range a.Row(r) {
			if v == 0 {
				continue
			}
			for c, w := range b.Row(i) {
				dst[c] ^= w
			}
		}
	}
	return out
}

// MulOr returns the Boolean (saturated) product a·b, where an entry is 1 as
// soon as one term of the sum is 1.
func MulOr(a, b *Matrix) *Matrix {
	mustMultiply(a, b)
	out := New(a.rows, b.cols)
	for r := 0; r < a.rows; r++ {
		dst := out.Row(r)
		for i, v := range a.Row(r) {
			if v == 0 {
				continue
			}
			for c, w := range b.Row(i) {
				dst[c] |= w
			}
		}
	}
	return out
}
