// Package search lowers the factorization rank of a design's partitions step
// by step, keeping several candidate lineages alive and checkpointing the
// smallest design that stays under each error threshold.
package search

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrSynthesisFailure marks a candidate that could not be realized, such as
// one whose partitions form a combinational loop. The driver drops the
// candidate and carries on with the rest of the iteration.
var ErrSynthesisFailure = errors.New("synthesis failure")

// KStream holds one factorization rank per partition.
type KStream []int

func (k KStream) Clone() KStream {
	out := make(KStream, len(k))
	copy(out, k)
	return out
}

// Key is the canonical text form used for set membership.
func (k KStream) Key() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (k KStream) String() string { return "[" + k.Key() + "]" }

// AllOnes reports whether no partition can be reduced any further.
func (k KStream) AllOnes() bool {
	for _, v := range k {
		if v > 1 {
			return false
		}
	}
	return true
}

// ParseKStream reads the Key form back.
func ParseKStream(s string) (KStream, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return KStream{}, nil
	}
	fields := strings.Split(s, ",")
	out := make(KStream, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "k-stream entry %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// Partition describes one independently factorized block. Handed to
// NewDriver, Rank is the full rank the search starts from, normally the
// output width. In a State it is the rank of the best design accepted so far.
type Partition struct {
	Name    string
	Inputs  int
	Outputs int
	Rank    int
}

// FullRank returns the starting k-stream.
func FullRank(partitions []Partition) KStream {
	k := make(KStream, len(partitions))
	for i, p := range partitions {
		k[i] = p.Rank
	}
	return k
}

// Metrics is what an evaluation reports. Delay and Power are NaN when timing
// estimation is off.
type Metrics struct {
	Error float64
	Area  float64
	Delay float64
	Power float64
}

func NoTiming(err, area float64) Metrics {
	return Metrics{Error: err, Area: area, Delay: math.NaN(), Power: math.NaN()}
}

// Evaluator realizes a k-stream and measures it. Each call gets its own
// namespace for any files it writes. Calls may run concurrently.
type Evaluator interface {
	Evaluate(ctx context.Context, ks KStream, namespace string) (Metrics, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, ks KStream, namespace string) (Metrics, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, ks KStream, namespace string) (Metrics, error) {
	return f(ctx, ks, namespace)
}

// Namespace names the outputs of one candidate evaluation.
func Namespace(iteration, track, candidate int) string {
	return "iter" + strconv.Itoa(iteration) + "_track" + strconv.Itoa(track) + "_cand" + strconv.Itoa(candidate)
}
