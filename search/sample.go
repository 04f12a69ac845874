package search

import (
	"context"
	"math/rand/v2"
	"strconv"

	"bmfapprox/taskgroup"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SampleStream draws a random reduction of full. The total reduction is
// uniform in [1, sum(full[i]-1)] and every unit is taken from a partition
// picked with probability proportional to full[i]-1, redrawing when that
// partition is already at rank 1. A stream that cannot be reduced is
// returned unchanged.
func SampleStream(rng *rand.Rand, full KStream) KStream {
	ks := full.Clone()
	total := 0
	for _, k := range full {
		total += max(0, k-1)
	}
	if total == 0 {
		return ks
	}
	for left := 1 + rng.IntN(total); left > 0; {
		x := rng.IntN(total)
		p := 0
		for ; x >= max(0, full[p]-1); p++ {
			x -= max(0, full[p]-1)
		}
		if ks[p] > 1 {
			ks[p]--
			left--
		}
	}
	return ks
}

// SampleNamespace names the outputs of the i-th sampled design, counted
// from 1.
func SampleNamespace(i int) string { return "sample" + strconv.Itoa(i) }

// Sample evaluates n random k-streams drawn with SampleStream from a
// generator seeded with seed, as a characterization of the error/area space
// next to the greedy search. Repeated draws are evaluated once and failed
// candidates are dropped; the rest come back in draw order.
func (d *Driver) Sample(ctx context.Context, n int, seed uint64) ([]Record, error) {
	if n < 1 {
		return nil, errors.Errorf("sample count %d must be at least 1", n)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	full := FullRank(d.partitions)
	seen := NewExploredSet()
	streams := make([]KStream, 0, n)
	for i := 0; i < n; i++ {
		if ks := SampleStream(rng, full); seen.Add(ks) {
			streams = append(streams, ks)
		}
	}

	tasks := make([]taskgroup.Task[Metrics], len(streams))
	for i, ks := range streams {
		design := SampleNamespace(i + 1)
		ks := ks.Clone()
		tasks[i] = func(ctx context.Context) (Metrics, error) {
			return d.eval.Evaluate(ctx, ks, design)
		}
	}
	limit := 1
	if d.cfg.Parallel {
		limit = d.cfg.Workers
	}
	d.metrics.Candidates.Add(float64(len(tasks)))
	results := taskgroup.Run(ctx, limit, tasks)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "sampling interrupted")
	}

	records := make([]Record, 0, len(results))
	for i, res := range results {
		design := SampleNamespace(i + 1)
		if res.Err != nil {
			d.metrics.SynthesisFailures.Inc()
			d.logger.Warn("dropping sample", zap.String("design", design), zap.Stringer("kstream", streams[i]), zap.Error(res.Err))
			continue
		}
		records = append(records, Record{
			Iteration: i + 1,
			Design:    design,
			KStream:   streams[i],
			Metrics:   res.Value,
		})
	}
	d.logger.Info("sampled",
		zap.Int("draws", n),
		zap.Int("distinct", len(streams)),
		zap.Int("evaluated", len(records)))
	return records, nil
}
