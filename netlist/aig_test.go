package netlist

import (
	"testing"

	"bmfapprox/bitmat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealize(t *testing.T) {
	type testcase struct {
		name   string
		inputs int
		rows   []string
		ands   int
		depth  int
	}

	cases := []testcase{
		{"xor", 2, []string{"0", "1", "1", "0"}, 3, 2},
		{"constant", 2, []string{"1", "1", "1", "1"}, 0, 0},
		{"wire", 2, []string{"0", "0", "1", "1"}, 0, 0},
		{"and", 2, []string{"0", "0", "0", "1"}, 1, 1},
	}

	for _, tc := range cases {
		table := bitmat.TruthTable{Inputs: tc.inputs, Outputs: bitmat.MustFromStrings(tc.rows...)}
		ck, err := Realize(table)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.rows, ck.Table().Strings(), tc.name)
		assert.Equal(t, tc.ands, ck.Ands(), tc.name)
		assert.Equal(t, tc.depth, ck.Depth(), tc.name)
	}
}

func TestRealizeAdder(t *testing.T) {
	// 2-bit + 2-bit adder, 3 output bits
	rows := make([]string, 16)
	for v := range rows {
		sum := v>>2 + v&3
		rows[v] = string([]byte{byte('0' + sum>>2&1), byte('0' + sum>>1&1), byte('0' + sum&1)})
	}
	table := bitmat.TruthTable{Inputs: 4, Outputs: bitmat.MustFromStrings(rows...)}
	ck, err := Realize(table)
	require.NoError(t, err)
	assert.Equal(t, rows, ck.Table().Strings())
	assert.Positive(t, ck.Ands())
}

func TestRealizeFactorization(t *testing.T) {
	s := bitmat.MustFromStrings("10", "10", "01", "01")
	b := bitmat.MustFromStrings("110", "001")
	ck, err := RealizeFactorization(2, s, b)
	require.NoError(t, err)
	assert.Equal(t, bitmat.MulMod2(s, b).Strings(), ck.Table().Strings())
	assert.Equal(t, 0, ck.Ands())

	overlap := bitmat.MustFromStrings("11", "10", "01", "00")
	ck, err = RealizeFactorization(2, overlap, b)
	require.NoError(t, err)
	assert.Equal(t, bitmat.MulMod2(overlap, b).Strings(), ck.Table().Strings())
}

func TestRealizeRejects(t *testing.T) {
	_, err := Realize(bitmat.TruthTable{Inputs: 2, Outputs: bitmat.New(3, 1)})
	assert.Error(t, err)

	_, err = RealizeFactorization(1, bitmat.New(2, 2), bitmat.New(3, 1))
	assert.Error(t, err)
}

func TestSimulateActivity(t *testing.T) {
	xor := bitmat.TruthTable{Inputs: 2, Outputs: bitmat.MustFromStrings("0", "1", "1", "0")}
	ck, err := Realize(xor)
	require.NoError(t, err)

	out, activity := ck.Simulate([]uint64{0, 1, 2, 3})
	assert.Equal(t, []string{"0", "1", "1", "0"}, out.Strings())
	assert.Equal(t, 2.0, activity)

	// spans three 64-lane batches
	values := make([]uint64, 130)
	for i := range values {
		values[i] = uint64(i % 4)
	}
	out, activity = ck.Simulate(values)
	assert.Equal(t, 130, out.Rows())
	assert.Equal(t, uint8(1), out.At(129, 0))
	assert.InDelta(t, 194.0/129.0, activity, 1e-12)

	_, activity = ck.Simulate([]uint64{3})
	assert.Zero(t, activity)
}
