package search

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Ladder is the queue of error thresholds still to be satisfied, lowest
// first.
type Ladder []float64

// NewLadder validates thresholds. An empty list yields a single +Inf rung, so
// the search only stops once nothing can be reduced.
func NewLadder(thresholds []float64) (Ladder, error) {
	if len(thresholds) == 0 {
		return Ladder{math.Inf(1)}, nil
	}
	for i, th := range thresholds {
		if math.IsNaN(th) || th < 0 {
			return nil, errors.Errorf("threshold %d is %v, want a non-negative number", i, th)
		}
		if i > 0 && th <= thresholds[i-1] {
			return nil, errors.Errorf("thresholds must be strictly increasing, got %v after %v", th, thresholds[i-1])
		}
	}
	l := make(Ladder, len(thresholds))
	copy(l, thresholds)
	return l, nil
}

func (l Ladder) Empty() bool { return len(l) == 0 }

// Head is the current threshold. It is +Inf once the ladder is empty.
func (l Ladder) Head() float64 {
	if len(l) == 0 {
		return math.Inf(1)
	}
	return l[0]
}

// Pop returns the ladder without its head. The receiver is left untouched.
func (l Ladder) Pop() Ladder {
	if len(l) == 0 {
		return l
	}
	out := make(Ladder, len(l)-1)
	copy(out, l[1:])
	return out
}

func ThresholdLabel(th float64) string {
	return strconv.FormatFloat(th, 'g', -1, 64)
}
