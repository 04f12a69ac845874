package asso

import (
	"strings"
	"testing"

	"bmfapprox/bitmat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssociation(t *testing.T) {
	type testcase struct {
		tau    float64
		expect []string
	}

	table := bitmat.MustFromStrings("11", "10", "10", "01")
	cases := []testcase{
		{0.1, []string{"11", "11"}},
		{0.3, []string{"11", "11"}},
		{0.4, []string{"10", "11"}},
		{0.5, []string{"10", "11"}},
		{0.6, []string{"10", "01"}},
		{0.9, []string{"10", "01"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expect, Association(table, tc.tau).Strings(), "tau %v", tc.tau)
	}
}

func TestAssociationNeverSetColumn(t *testing.T) {
	table := bitmat.MustFromStrings("10", "10")
	assert.Equal(t, []string{"10", "00"}, Association(table, 0.5).Strings())
}

func TestSelectBasis(t *testing.T) {
	table := bitmat.MustFromStrings("110", "110", "001", "001")
	asso := Association(table, 0.5)

	sel, err := SelectBasis(table, 1, asso, DefaultScoring)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1", "0", "0"}, sel.S.Strings())
	assert.Equal(t, []string{"110"}, sel.B.Strings())
	assert.Equal(t, int64(2), bitmat.Hamming(table, sel.Covered))

	sel, err = SelectBasis(table, 2, asso, DefaultScoring)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "10", "01", "01"}, sel.S.Strings())
	assert.Equal(t, []string{"110", "001"}, sel.B.Strings())
	assert.True(t, table.Equal(sel.Covered))
}

func TestSelectBasisRankAboveWidth(t *testing.T) {
	table := bitmat.MustFromStrings("110", "110", "001", "001")
	sel, err := SelectBasis(table, 5, Association(table, 0.5), DefaultScoring)
	require.NoError(t, err)

	assert.Equal(t, 4, sel.S.Rows())
	assert.Equal(t, 5, sel.S.Cols())
	assert.Equal(t, []string{"110", "001", "000", "000", "000"}, sel.B.Strings())
	assert.True(t, table.Equal(sel.Covered))
}

func TestSelectBasisAllZeroTable(t *testing.T) {
	table := bitmat.New(4, 3)
	sel, err := SelectBasis(table, 2, Association(table, 0.1), DefaultScoring)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.S.Ones())
	assert.Equal(t, 0, sel.B.Ones())
}

func TestSelectBasisWeighted(t *testing.T) {
	table := bitmat.MustFromStrings("10", "01", "01")
	asso := Association(table, 0.5)
	require.Equal(t, []string{"10", "01"}, asso.Strings())

	plain, err := SelectBasis(table, 1, asso, DefaultScoring)
	require.NoError(t, err)
	assert.Equal(t, []string{"01"}, plain.B.Strings())

	weighted, err := SelectBasis(table, 1, asso, Scoring{Bonus: 1, Penalty: -1, Weighted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"10"}, weighted.B.Strings())
}

func TestSelectBasisRejectsBadInput(t *testing.T) {
	table := bitmat.MustFromStrings("10", "01")
	_, err := SelectBasis(table, 0, Association(table, 0.5), DefaultScoring)
	assert.Error(t, err)

	_, err = SelectBasis(table, 1, bitmat.New(3, 3), DefaultScoring)
	assert.Error(t, err)
}

func TestSelectBasisWeightedOverflow(t *testing.T) {
	row := strings.Repeat("1", 60)
	table := bitmat.MustFromStrings(row, row, row, row)
	_, err := SelectBasis(table, 1, Association(table, 0.5), Scoring{Bonus: 1, Penalty: -1, Weighted: true})
	assert.ErrorIs(t, err, bitmat.ErrWeightedOverflow)

	_, err = SelectBasis(table, 1, Association(table, 0.5), DefaultScoring)
	assert.NoError(t, err)
}
