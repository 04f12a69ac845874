package bmf

import (
	"math/bits"

	"bmfapprox/bitmat"
)

// MaxRank bounds k for refinement, which enumerates all 2^k basis columns.
const MaxRank = 24

type pattern struct {
	count int
	ones  []int
}

// Refine recomputes every column of the basis for a fixed solver matrix. For
// each output column it picks, among all 2^k candidate vectors v, the one whose
// product S·v (mod 2) agrees with the truth column in the most rows, lowest v
// first on ties. Vector element j is bit k-1-j of v.
//
// Rows sharing the same solver pattern produce the same product bit for every
// v, so they are counted once per pattern.
func Refine(table, s *bitmat.Matrix) *bitmat.Matrix {
	n, m, k := table.Rows(), table.Cols(), s.Cols()
	if s.Rows() != n {
		panic("bmf: solver rows do not match table rows")
	}

	groups := make(map[uint64]*pattern)
	order := make([]uint64, 0)
	for r := 0; r < n; r++ {
		key := bitmat.RowValue(s.Row(r))
		g, ok := groups[key]
		if !ok {
			g = &pattern{ones: make([]int, m)}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		for c, v := range table.Row(r) {
			g.ones[c] += int(v)
		}
	}

	refined := bitmat.New(k, m)
	best := make([]int, m)
	bestV := make([]uint64, m)
	for c := range best {
		best[c] = -1
	}
	limit := uint64(1) << uint(k)
	for v := uint64(0); v < limit; v++ {
		for c := 0; c < m; c++ {
			matches := 0
			for _, key := range order {
				g := groups[key]
				if bits.OnesCount64(key&v)&1 == 1 {
					matches += g.ones[c]
				} else {
					matches += g.count - g.ones[c]
				}
			}
			if matches > best[c] {
				best[c], bestV[c] = matches, v
			}
		}
	}

	col := make([]uint8, k)
	for c := 0; c < m; c++ {
		bitmat.PutValue(col, bestV[c])
		refined.SetCol(c, col)
	}
	return refined
}
