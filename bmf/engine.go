// Package bmf factorizes a binary truth table T (n×m) into a solver matrix S
// (n×k) and a basis B (k×m) whose product over GF(2) approximates T.
package bmf

import (
	"bmfapprox/asso"
	"bmfapprox/bitmat"

	"github.com/pkg/errors"
)

var ErrInvalidRank = errors.New("invalid factorization rank")

// Result is immutable once returned.
type Result struct {
	K              int
	Weighted       bool
	S              *bitmat.Matrix
	B              *bitmat.Matrix
	Reconstruction *bitmat.Matrix
	Score          int64
	// Tau is the association threshold of the retained selection, or 0 when
	// the exact factorization won.
	Tau float64
}

// Taus lists the association thresholds tried, 0.1 through 0.9.
func Taus() []float64 {
	taus := make([]float64, 0, 9)
	for i := 1; i <= 9; i++ {
		taus = append(taus, float64(i)/10)
	}
	return taus
}

// Distance is the objective the factorization minimizes.
func Distance(a, b *bitmat.Matrix, weighted bool) int64 {
	if weighted {
		return bitmat.WeightedHamming(a, b)
	}
	return bitmat.Hamming(a, b)
}

// exact returns T zero-padded to k columns. With B = [I; 0] it reproduces T
// whenever k >= m, so refinement scores it zero. It is considered before the
// threshold scan, which then cannot beat it.
func exact(table *bitmat.Matrix, k int) *bitmat.Matrix {
	s := bitmat.New(table.Rows(), k)
	for r := 0; r < table.Rows(); r++ {
		copy(s.Row(r), table.Row(r))
	}
	return s
}

// Factorize returns the best rank-k factorization found by scanning every
// association threshold. Each selection's solver is refined and the one whose
// reconstruction scores lowest is kept, the earliest on ties.
//
// A selection at rank k+1 extends the rank-k selection of the same threshold
// by one solver column, and refinement may leave that column unused, so the
// score never rises with k.
func Factorize(table *bitmat.Matrix, k int, weighted bool) (Result, error) {
	n, m := table.Rows(), table.Cols()
	if k < 1 || k > MaxRank {
		return Result{}, errors.Wrapf(ErrInvalidRank, "k=%d (want 1..%d)", k, MaxRank)
	}
	if weighted && !bitmat.WeightedFits(n, m) {
		return Result{}, errors.Wrapf(bitmat.ErrWeightedOverflow, "%dx%d table", n, m)
	}

	sc := asso.DefaultScoring
	sc.Weighted = weighted

	var best *Result
	consider := func(s *bitmat.Matrix, tau float64) {
		b := Refine(table, s)
		recon := bitmat.MulMod2(s, b)
		score := Distance(table, recon, weighted)
		if best != nil && score >= best.Score {
			return
		}
		best = &Result{
			K:              k,
			Weighted:       weighted,
			S:              s,
			B:              b,
			Reconstruction: recon,
			Score:          score,
			Tau:            tau,
		}
	}
	if k >= m {
		consider(exact(table, k), 0)
	}
	for _, tau := range Taus() {
		sel, err := asso.SelectBasis(table, k, asso.Association(table, tau), sc)
		if err != nil {
			return Result{}, errors.Wrapf(err, "tau %.1f", tau)
		}
		consider(sel.S, tau)
	}
	return *best, nil
}
