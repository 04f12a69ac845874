package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	type testcase struct {
		name      string
		errs      []float64
		areas     []float64
		initial   float64
		threshold float64
		expect    []int
	}

	cases := []testcase{
		{
			name:      "mixed",
			errs:      []float64{0.02, 0, 0.5, 0.02},
			areas:     []float64{8, 12, 5, 6},
			initial:   10,
			threshold: 0.1,
			expect:    []int{1, 3, 0, 2},
		},
		{
			name:      "lossless beats smaller lossy",
			errs:      []float64{0.01, 0},
			areas:     []float64{4, 15},
			initial:   16,
			threshold: 0.1,
			expect:    []int{1, 0},
		},
		{
			name:      "equal gradient keeps area order",
			errs:      []float64{0.01, 0.02},
			areas:     []float64{12, 8},
			initial:   16,
			threshold: 0.1,
			expect:    []int{1, 0},
		},
		{
			name:      "full ties keep input order",
			errs:      []float64{0.01, 0.01, 0.01},
			areas:     []float64{9, 9, 9},
			initial:   10,
			threshold: 0.1,
			expect:    []int{0, 1, 2},
		},
		{
			name:      "all beyond threshold sort by area",
			errs:      []float64{0.3, 0.2, 0.4},
			areas:     []float64{7, 9, 3},
			initial:   10,
			threshold: 0.1,
			expect:    []int{2, 0, 1},
		},
		{
			name:      "empty",
			errs:      []float64{},
			areas:     []float64{},
			initial:   10,
			threshold: 0.1,
			expect:    []int{},
		},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expect, Rank(tc.errs, tc.areas, tc.initial, tc.threshold), tc.name)
	}
}

func TestGradient(t *testing.T) {
	assert.True(t, math.IsInf(Gradient(0, 5, 10, 0.1), -1))
	assert.True(t, math.IsInf(Gradient(0.2, 5, 10, 0.1), 1))
	assert.InDelta(t, -25.0, Gradient(0.02, 8, 16, 0.1), 1e-9)
	// at the threshold the gradient is still finite
	assert.False(t, math.IsInf(Gradient(0.1, 5, 10, 0.1), 0))
}

func TestLeastError(t *testing.T) {
	errs := []float64{0.03, 0.01, 0.01, 0.5}
	areas := []float64{4, 9, 6, 1}
	assert.Equal(t, []int{2, 1, 0, 3}, LeastError(errs, areas, 10, 0.1))
}

func TestNearestNeighbor(t *testing.T) {
	type testcase struct {
		name     string
		errs     []float64
		areas    []float64
		prevErr  float64
		prevArea float64
		expect   []int
	}

	cases := []testcase{
		{"closest first", []float64{0.01, 0.02, 0}, []float64{7, 9, 12}, 0, 10, []int{1, 2, 0}},
		{"ties keep input order", []float64{0, 0}, []float64{8, 12}, 0, 10, []int{0, 1}},
		{"empty", []float64{}, []float64{}, 0, 10, []int{}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expect, NearestNeighbor(tc.errs, tc.areas, tc.prevErr, tc.prevArea), tc.name)
	}
}

func TestIncremental(t *testing.T) {
	type testcase struct {
		name   string
		c      Candidates
		expect []int
	}

	cases := []testcase{
		{
			name: "no extra error first",
			c: Candidates{
				Errors: []float64{0.01, 0.0105, 0.03}, Areas: []float64{9, 7, 6},
				InitialArea: 20, Threshold: 0.1, PrevError: 0.01, PrevArea: 10,
			},
			expect: []int{0, 2, 1},
		},
		{
			name: "slack widens until a candidate fits",
			c: Candidates{
				Errors: []float64{0.004, 0.003, 0.02}, Areas: []float64{6, 8, 2},
				InitialArea: 10, Threshold: 0.1, PrevArea: 10,
			},
			expect: []int{0, 1, 2},
		},
		{
			name: "larger design ranks behind a smaller one",
			c: Candidates{
				Errors: []float64{0.0106, 0.0105}, Areas: []float64{12, 9},
				InitialArea: 20, Threshold: 0.1, PrevError: 0.01, PrevArea: 10,
			},
			expect: []int{1, 0},
		},
		{
			name: "beyond threshold goes last",
			c: Candidates{
				Errors: []float64{0.05, 0.2}, Areas: []float64{5, 1},
				InitialArea: 10, Threshold: 0.1, PrevArea: 10,
			},
			expect: []int{0, 1},
		},
		{
			name: "no previous area ranks by gradient",
			c: Candidates{
				Errors: []float64{0.02, 0, 0.5}, Areas: []float64{5, 8, 3},
				InitialArea: 10, Threshold: 0.1,
			},
			expect: []int{1, 0, 2},
		},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expect, Incremental(tc.c), tc.name)
	}
}

func TestParsePolicy(t *testing.T) {
	c := Candidates{
		Errors: []float64{0.02, 0, 0.5}, Areas: []float64{5, 8, 3},
		InitialArea: 10, Threshold: 0.1, PrevArea: 4,
	}
	type testcase struct {
		name   string
		expect []int
	}

	cases := []testcase{
		{"", []int{1, 0, 2}},
		{GradientPolicy, []int{1, 0, 2}},
		{LeastErrorPolicy, []int{1, 0, 2}},
		{NearestPolicy, []int{0, 2, 1}},
		{IncrementalPolicy, []int{2, 0, 1}},
	}

	require.Len(t, Policies, len(cases)-1)
	for _, tc := range cases {
		p, err := ParsePolicy(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.expect, p(c), tc.name)
	}
	_, err := ParsePolicy("random")
	assert.Error(t, err)
}
