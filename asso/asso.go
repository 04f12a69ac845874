// Package asso implements the association-based greedy basis selection used
// to factorize a binary matrix T (n×m) into S (n×k) and B (k×m).
package asso

import (
	"bmfapprox/bitmat"

	"github.com/pkg/errors"
)

// Scoring weights a covered entry: Bonus when the truth bit is 1, Penalty
// when it is 0. Weighted scales both by the column significance.
type Scoring struct {
	Bonus    int64
	Penalty  int64
	Weighted bool
}

var DefaultScoring = Scoring{Bonus: 1, Penalty: -1}

type Selection struct {
	S       *bitmat.Matrix
	B       *bitmat.Matrix
	Covered *bitmat.Matrix
}

// Association returns the m×m matrix whose entry (i, j) is 1 when, among the
// rows where column i is 1, the fraction where column j is also 1 is at
// least tau. A column that is never 1 yields an all-zero row.
func Association(table *bitmat.Matrix, tau float64) *bitmat.Matrix {
	n, m := table.Rows(), table.Cols()
	counts := make([]int, m*m)
	for r := 0; r < n; r++ {
		row := table.Row(r)
		for i, vi := range row {
			if vi == 0 {
				continue
			}
			for j, vj := range row {
				counts[i*m+j] += int(vj)
			}
		}
	}

	asso := bitmat.New(m, m)
	for i := 0; i < m; i++ {
		support := counts[i*m+i]
		if support == 0 {
			continue
		}
		for j := 0; j < m; j++ {
			if float64(counts[i*m+j])/float64(support) >= tau {
				asso.Set(i, j, 1)
			}
		}
	}
	return asso
}

func coefficients(table *bitmat.Matrix, sc Scoring) []int64 {
	n, m := table.Rows(), table.Cols()
	coef := make([]int64, n*m)
	for r := 0; r < n; r++ {
		for c, v := range table.Row(r) {
			w := sc.Penalty
			if v == 1 {
				w = sc.Bonus
			}
			if sc.Weighted {
				w *= bitmat.Weight(m, c)
			}
			coef[r*m+c] = w
		}
	}
	return coef
}

// SelectBasis runs k greedy rounds. Each round scores every association row
// as a basis candidate: a table row joins the candidate's solver column when
// its score over the still uncovered columns of the candidate is strictly
// positive, and the candidate total is the sum of those positive scores. The
// strictly best candidate wins the round, the first one examined on ties.
// A round where no candidate scores above zero leaves an all-zero basis row.
func SelectBasis(table *bitmat.Matrix, k int, association *bitmat.Matrix, sc Scoring) (Selection, error) {
	n, m := table.Rows(), table.Cols()
	if k < 1 {
		return Selection{}, errors.Errorf("rank %d must be at least 1", k)
	}
	if association.Rows() != m || association.Cols() != m {
		return Selection{}, errors.Errorf("association is %dx%d, expected %dx%d",
			association.Rows(), association.Cols(), m, m)
	}
	if sc.Weighted && !bitmat.WeightedFits(n, m) {
		return Selection{}, errors.Wrapf(bitmat.ErrWeightedOverflow, "%dx%d table", n, m)
	}

	coef := coefficients(table, sc)
	sel := Selection{
		S:       bitmat.New(n, k),
		B:       bitmat.New(k, m),
		Covered: bitmat.New(n, m),
	}
	solver := make([]uint8, n)
	bestSolver := make([]uint8, n)

	for round := 0; round < k; round++ {
		best := -1
		var bestScore int64
		for cand := 0; cand < m; cand++ {
			basis := association.Row(cand)
			var total int64
			for r := 0; r < n; r++ {
				covered := sel.Covered.Row(r)
				var score int64
				for c, on := range basis {
					if on == 1 && covered[c] == 0 {
						score += coef[r*m+c]
					}
				}
				if score > 0 {
					solver[r] = 1
					total += score
				} else {
					solver[r] = 0
				}
			}
			if total > bestScore {
				best, bestScore = cand, total
				copy(bestSolver, solver)
			}
		}
		if best < 0 {
			continue
		}

		basis := association.Row(best)
		sel.B.SetRow(round, basis)
		sel.S.SetCol(round, bestSolver)
		for r, on := range bestSolver {
			if on == 0 {
				continue
			}
			covered := sel.Covered.Row(r)
			for c, v := range basis {
				covered[c] |= v
			}
		}
	}
	return sel, nil
}
