package evaluator

import (
	"context"
	"math"
	"os"
	"path/filepath"

	"bmfapprox/bitmat"
	"bmfapprox/bmf"
	"bmfapprox/config"
	"bmfapprox/design"
	"bmfapprox/metric"
	"bmfapprox/netlist"
	"bmfapprox/search"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	Metric  metric.Kind
	Samples int
	Seed    uint64
}

// Local is a search.Evaluator that runs entirely in process.
type Local struct {
	ctx     Context
	design  *design.Design
	cache   *bmf.Cache
	library *config.Library
	opts    Options
	logger  *zap.Logger

	vectors *bitmat.Matrix
	golden  *bitmat.Matrix
	exact   []*netlist.Circuit
}

var _ search.Evaluator = (*Local)(nil)

// New loads the library, picks the test vectors and reads or computes the
// golden outputs.
func New(ec Context, d *design.Design, cache *bmf.Cache, opts Options, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(ec.Partitions) != len(d.Partitions) {
		return nil, errors.Errorf("context lists %d partitions, design has %d", len(ec.Partitions), len(d.Partitions))
	}
	lib, err := config.LoadLibrary(ec.Library)
	if err != nil {
		return nil, err
	}
	if err := ec.prepare(); err != nil {
		return nil, errors.Wrap(err, "could not create output directories")
	}

	l := &Local{
		ctx:     ec,
		design:  d,
		cache:   cache,
		library: lib,
		opts:    opts,
		logger:  logger,
	}
	for _, p := range d.Partitions {
		ck, err := netlist.Realize(p.Table)
		if err != nil {
			return nil, errors.Wrapf(err, "partition %s", p.Name)
		}
		l.exact = append(l.exact, ck)
	}

	l.vectors, err = d.Vectors(ec.Testbench, opts.Samples, opts.Seed)
	if err != nil {
		return nil, err
	}
	if l.golden, err = l.loadGolden(); err != nil {
		return nil, err
	}
	logger.Info("evaluator ready",
		zap.String("design", d.Name),
		zap.Int("partitions", len(d.Partitions)),
		zap.Int("vectors", l.vectors.Rows()),
		zap.Stringer("metric", opts.Metric),
		zap.String("library", lib.Name),
		zap.Bool("timing", ec.Timing),
		zap.Any("groups", d.Groups()))
	return l, nil
}

func (l *Local) loadGolden() (*bitmat.Matrix, error) {
	want := len(l.design.Outputs)
	if _, err := os.Stat(l.ctx.Golden); err == nil {
		g, err := bitmat.ReadFile(l.ctx.Golden)
		if err != nil {
			return nil, err
		}
		if g.Rows() != l.vectors.Rows() || g.Cols() != want {
			return nil, errors.Errorf("golden table %q is %dx%d, want %dx%d",
				l.ctx.Golden, g.Rows(), g.Cols(), l.vectors.Rows(), want)
		}
		l.logger.Debug("read golden outputs", zap.String("path", l.ctx.Golden))
		return g, nil
	}

	tr, err := l.design.Simulate(l.design.Tables(), l.vectors)
	if err != nil {
		return nil, errors.Wrap(err, "could not simulate the original design")
	}
	if l.ctx.Golden != "" {
		if err := os.MkdirAll(filepath.Dir(l.ctx.Golden), 0o755); err != nil {
			return nil, errors.Wrap(err, "could not create golden directory")
		}
		if err := bitmat.WriteBitsFile(l.ctx.Golden, tr.Outputs); err != nil {
			return nil, err
		}
	}
	return tr.Outputs, nil
}

// Vectors returns the primary input vectors every candidate is simulated on.
func (l *Local) Vectors() *bitmat.Matrix { return l.vectors }

// Golden returns the exact outputs for Vectors.
func (l *Local) Golden() *bitmat.Matrix { return l.golden }

// FullRank describes the partitions at their starting rank, the output width.
func (l *Local) FullRank() []search.Partition {
	out := make([]search.Partition, len(l.design.Partitions))
	for i, p := range l.design.Partitions {
		out[i] = search.Partition{Name: p.Name, Inputs: len(p.Inputs), Outputs: len(p.Outputs), Rank: len(p.Outputs)}
	}
	return out
}

// realize returns the function and circuit of partition i at rank k.
func (l *Local) realize(i, k int) (*bitmat.Matrix, *netlist.Circuit, error) {
	p := l.design.Partitions[i]
	if k >= len(p.Outputs) {
		return p.Table.Outputs, l.exact[i], nil
	}
	r, err := l.cache.Get(p.Name, p.Table.Outputs, k)
	if err != nil {
		return nil, nil, err
	}
	ck, err := netlist.RealizeFactorization(p.Table.Inputs, r.S, r.B)
	if err != nil {
		return nil, nil, err
	}
	return r.Reconstruction, ck, nil
}

func (l *Local) Evaluate(ctx context.Context, ks search.KStream, namespace string) (search.Metrics, error) {
	if len(ks) != len(l.design.Partitions) {
		return search.Metrics{}, errors.Errorf("k-stream %s has %d entries for %d partitions", ks, len(ks), len(l.design.Partitions))
	}
	funcs := make([]*bitmat.Matrix, len(ks))
	circuits := make([]*netlist.Circuit, len(ks))
	for i, k := range ks {
		if err := ctx.Err(); err != nil {
			return search.Metrics{}, err
		}
		f, ck, err := l.realize(i, k)
		if err != nil {
			return search.Metrics{}, errors.Wrapf(err, "partition %s at rank %d", l.design.Partitions[i].Name, k)
		}
		funcs[i], circuits[i] = f, ck
	}

	tr, err := l.design.Simulate(funcs, l.vectors)
	if err != nil {
		if errors.Is(err, design.ErrCombinationalLoop) {
			return search.Metrics{}, errors.Wrapf(search.ErrSynthesisFailure, "%s: %v", namespace, err)
		}
		return search.Metrics{}, err
	}
	if err := bitmat.WriteBitsFile(filepath.Join(l.ctx.TruthDir(), namespace+".truth"), tr.Outputs); err != nil {
		return search.Metrics{}, err
	}

	dist, err := l.opts.Metric.Distance(l.golden, tr.Outputs)
	if err != nil {
		return search.Metrics{}, err
	}
	and := l.library.And()
	ands := 0
	for _, ck := range circuits {
		ands += ck.Ands()
	}
	m := search.NoTiming(dist, float64(ands)*and.Area)
	if l.ctx.Timing {
		m.Delay, m.Power = l.timing(circuits, tr, and)
	}
	l.logger.Debug("evaluated",
		zap.String("design", namespace),
		zap.Stringer("kstream", ks),
		zap.Int("ands", ands),
		zap.Float64("error", m.Error))
	return m, nil
}

// timing estimates delay as the deepest chain of partition realizations and
// power as the mean switching of their gates over the test vectors.
func (l *Local) timing(circuits []*netlist.Circuit, tr design.Trace, and config.Cell) (float64, float64) {
	order, err := l.design.Order()
	if err != nil {
		return math.NaN(), math.NaN()
	}
	arrival := make([]int, len(circuits))
	longest := 0
	for _, p := range order {
		start := 0
		for _, from := range l.design.Fanin(p) {
			start = max(start, arrival[from])
		}
		arrival[p] = start + circuits[p].Depth()
		longest = max(longest, arrival[p])
	}

	var toggles float64
	for i, ck := range circuits {
		_, activity := ck.Simulate(tr.PartitionInputs[i])
		toggles += activity
	}
	return float64(longest) * and.Delay, toggles * and.Power
}
