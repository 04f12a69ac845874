// Package ranking orders evaluated candidates, best first.
package ranking

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Candidates is one batch of evaluated designs. PrevError and PrevArea
// describe the best design of the previous step.
type Candidates struct {
	Errors      []float64
	Areas       []float64
	InitialArea float64
	Threshold   float64
	PrevError   float64
	PrevArea    float64
}

// Policy returns a permutation of candidate indices, best first.
type Policy func(c Candidates) []int

const (
	GradientPolicy    = "gradient"
	LeastErrorPolicy  = "least-error"
	NearestPolicy     = "nearest"
	IncrementalPolicy = "incremental"
)

// Policies lists the accepted policy names.
var Policies = []string{GradientPolicy, LeastErrorPolicy, NearestPolicy, IncrementalPolicy}

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", GradientPolicy:
		return ByGradient, nil
	case LeastErrorPolicy:
		return func(c Candidates) []int {
			return LeastError(c.Errors, c.Areas, c.InitialArea, c.Threshold)
		}, nil
	case NearestPolicy:
		return func(c Candidates) []int {
			return NearestNeighbor(c.Errors, c.Areas, c.PrevError, c.PrevArea)
		}, nil
	case IncrementalPolicy:
		return Incremental, nil
	}
	return nil, errors.Errorf("unknown ranking policy %q", name)
}

// ByGradient is Rank as a Policy.
func ByGradient(c Candidates) []int {
	return Rank(c.Errors, c.Areas, c.InitialArea, c.Threshold)
}

// Gradient is the area change per unit of error. Lossless candidates get -Inf
// and candidates beyond the threshold +Inf.
func Gradient(err, area, initialArea, threshold float64) float64 {
	switch {
	case err == 0:
		return math.Inf(-1)
	case err > threshold:
		return math.Inf(1)
	}
	return (area/initialArea - 1) / err
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func byArea(areas []float64) []int {
	order := identity(len(areas))
	sort.SliceStable(order, func(a, b int) bool {
		return areas[order[a]] < areas[order[b]]
	})
	return order
}

// thenBy sorts candidates by area, then stably by key.
func thenBy(areas, key []float64) []int {
	order := byArea(areas)
	sort.SliceStable(order, func(a, b int) bool {
		return key[order[a]] < key[order[b]]
	})
	return order
}

// Rank sorts candidates by area, then stably by gradient, so candidates with
// equal gradient stay in ascending area order.
func Rank(errs, areas []float64, initialArea, threshold float64) []int {
	grad := make([]float64, len(errs))
	for i := range errs {
		grad[i] = Gradient(errs[i], areas[i], initialArea, threshold)
	}
	return thenBy(areas, grad)
}

// LeastError sorts candidates by area, then stably by raw error. Candidates
// beyond the threshold go last.
func LeastError(errs, areas []float64, initialArea, threshold float64) []int {
	key := make([]float64, len(errs))
	for i, e := range errs {
		key[i] = e
		if e > threshold {
			key[i] = math.Inf(1)
		}
	}
	return thenBy(areas, key)
}

// NearestNeighbor orders candidates by their euclidean distance to the
// previous best in the (error, area) plane. Equal distances keep input order.
func NearestNeighbor(errs, areas []float64, prevErr, prevArea float64) []int {
	dist := make([]float64, len(errs))
	for i := range errs {
		dist[i] = math.Hypot(errs[i]-prevErr, areas[i]-prevArea)
	}
	order := identity(len(errs))
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] < dist[order[b]]
	})
	return order
}

// incrementalSlack is the error budget Incremental widens until at least one
// candidate fits.
var incrementalSlack = []float64{0.0001, 0.0002, 0.0004, 0.0008, 0.001, 0.005, 0.01, math.Inf(1)}

// Incremental ranks against the previous best instead of the original
// design. Candidates within the smallest slack any candidate meets are keyed
// on relative area change and error increase: no extra error at no extra
// area ranks first, a larger design pays its squared area change, a smaller
// one is divided by the squared error increase. The rest go last. Without a
// positive previous area it falls back to ByGradient.
func Incremental(c Candidates) []int {
	if c.PrevArea <= 0 || len(c.Errors) == 0 {
		return ByGradient(c)
	}
	least := math.Inf(1)
	for _, e := range c.Errors {
		least = math.Min(least, e)
	}
	var slack float64
	for _, slack = range incrementalSlack {
		if least <= c.PrevError+slack {
			break
		}
	}

	key := make([]float64, len(c.Errors))
	for i, e := range c.Errors {
		ratio := c.Areas[i]/c.PrevArea - 1
		delta := e - c.PrevError
		switch {
		case e > c.PrevError+slack || e > c.Threshold:
			key[i] = math.Inf(1)
		case ratio > 0:
			key[i] = ratio * ratio / delta
		case delta <= 0:
			key[i] = math.Inf(-1)
		default:
			key[i] = ratio / (delta * delta)
		}
	}
	return thenBy(c.Areas, key)
}
