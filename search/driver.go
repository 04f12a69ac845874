package search

import (
	"context"
	"math"
	"runtime"

	"bmfapprox/metrics"
	"bmfapprox/ranking"
	"bmfapprox/taskgroup"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	TrackCount int
	StepSize   int
	// Epsilon widens the current threshold when ranking and when deciding
	// that it has been reached.
	Epsilon    float64
	Thresholds []float64
	Parallel   bool
	Workers    int
	// MaxIterations stops the search after that many iterations with a REST
	// checkpoint. Zero means no limit.
	MaxIterations int
	Policy        ranking.Policy
}

func DefaultConfig() Config {
	return Config{
		TrackCount: 3,
		StepSize:   1,
		Epsilon:    0.005,
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		Policy:     ranking.ByGradient,
	}
}

type Driver struct {
	cfg        Config
	partitions []Partition
	eval       Evaluator
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewDriver(cfg Config, partitions []Partition, eval Evaluator, logger *zap.Logger, m *metrics.Metrics) (*Driver, error) {
	if len(partitions) == 0 {
		return nil, errors.New("no partitions to search")
	}
	for i, p := range partitions {
		if p.Rank < 1 {
			return nil, errors.Errorf("partition %d (%s) has rank %d", i, p.Name, p.Rank)
		}
	}
	if cfg.TrackCount < 1 {
		return nil, errors.Errorf("track count %d must be at least 1", cfg.TrackCount)
	}
	if cfg.StepSize < 1 {
		return nil, errors.Errorf("step size %d must be at least 1", cfg.StepSize)
	}
	if cfg.Epsilon < 0 {
		return nil, errors.Errorf("epsilon %v must not be negative", cfg.Epsilon)
	}
	if _, err := NewLadder(cfg.Thresholds); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		cfg.Policy = ranking.ByGradient
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Driver{
		cfg:        cfg,
		partitions: append([]Partition(nil), partitions...),
		eval:       eval,
		logger:     logger,
		metrics:    m,
	}, nil
}

// Init evaluates the unmodified design and seeds the search with it. The
// baseline error is zero by definition.
func (d *Driver) Init(ctx context.Context) (State, error) {
	ladder, err := NewLadder(d.cfg.Thresholds)
	if err != nil {
		return State{}, err
	}
	full := FullRank(d.partitions)
	design := Namespace(0, 0, 0)
	m, err := d.eval.Evaluate(ctx, full.Clone(), design)
	if err != nil {
		return State{}, errors.Wrap(err, "could not evaluate the original design")
	}
	m.Error = 0

	baseline := Record{Design: design, KStream: full, Metrics: m}
	d.logger.Info("baseline",
		zap.Stringer("kstream", full),
		zap.Float64("area", m.Area),
		zap.Float64("delay", m.Delay),
		zap.Float64("power", m.Power),
		zap.Float64s("thresholds", ladder))

	return State{
		Phase:      Searching,
		Transition: Initializing,
		Partitions: append([]Partition(nil), d.partitions...),
		Tracks:     []KStream{full},
		Explored:   NewExploredSet(full),
		Ladder:     ladder,
		History:    []Record{baseline},
	}, nil
}

type candidate struct {
	track   int
	index   int
	kstream KStream
}

// expand lowers each reducible partition of each track by the step size and
// keeps the k-streams that were never generated before.
func (d *Driver) expand(st *State) []candidate {
	cands := make([]candidate, 0)
	for t, track := range st.Tracks {
		index := 0
		for p := range track {
			if track[p] <= 1 {
				continue
			}
			next := track.Clone()
			next[p] = max(1, track[p]-d.cfg.StepSize)
			if !st.Explored.Add(next) {
				continue
			}
			cands = append(cands, candidate{track: t, index: index, kstream: next})
			index++
		}
	}
	return cands
}

func allExhausted(tracks []KStream) bool {
	for _, t := range tracks {
		if !t.AllOnes() {
			return false
		}
	}
	return true
}

func (d *Driver) checkpoint(st *State, label string, threshold float64, reason Phase) {
	best := st.best(threshold)
	st.Checkpoints = append(st.Checkpoints, Checkpoint{
		Label:     label,
		Threshold: threshold,
		Reason:    reason,
		Record:    best,
	})
	d.metrics.Checkpoints.WithLabelValues(reason.String()).Inc()
	d.logger.Info("checkpoint",
		zap.String("label", label),
		zap.Stringer("reason", reason),
		zap.String("design", best.Design),
		zap.Stringer("kstream", best.KStream),
		zap.Float64("error", best.Error),
		zap.Float64("area", best.Area))
}

func (d *Driver) terminate(st State, reason Phase, label string) State {
	d.checkpoint(&st, label, st.Ladder.Head(), reason)
	st.Phase = Terminated
	st.Transition = reason
	return st
}

// Step runs one search iteration on a copy of st and returns the new state.
// A terminated state is returned as is.
func (d *Driver) Step(ctx context.Context, st State) (State, error) {
	if st.Phase == Terminated {
		return st, nil
	}
	if st.Phase != Searching {
		return st, errors.Errorf("cannot step from phase %s", st.Phase)
	}
	next := st.clone()

	if allExhausted(next.Tracks) {
		return d.terminate(next, Exhausted, ThresholdLabel(next.Ladder.Head())), nil
	}
	if d.cfg.MaxIterations > 0 && next.Iteration >= d.cfg.MaxIterations {
		return d.terminate(next, IterationLimit, RestLabel), nil
	}

	iteration := next.Iteration + 1
	cands := d.expand(&next)
	if len(cands) == 0 {
		d.logger.Info("no unexplored candidate", zap.Int("iteration", iteration))
		return d.terminate(next, NoValidCandidate, RestLabel), nil
	}

	tasks := make([]taskgroup.Task[Metrics], len(cands))
	for i, c := range cands {
		design := Namespace(iteration, c.track, c.index)
		ks := c.kstream.Clone()
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
		return st, errors.Wrapf(err, "iteration %d interrupted", iteration)
	}

	survivors := make([]Record, 0, len(results))
	for i, res := range results {
		c := cands[i]
		design := Namespace(iteration, c.track, c.index)
		if res.Err != nil {
			d.metrics.SynthesisFailures.Inc()
			log := d.logger.Error
			if errors.Is(res.Err, ErrSynthesisFailure) {
				log = d.logger.Warn
			}
			log("dropping candidate", zap.String("design", design), zap.Stringer("kstream", c.kstream), zap.Error(res.Err))
			continue
		}
		d.logger.Debug("evaluated",
			zap.String("design", design),
			zap.Stringer("kstream", c.kstream),
			zap.Float64("error", res.Value.Error),
			zap.Float64("area", res.Value.Area))
		survivors = append(survivors, Record{
			Iteration: iteration,
			Track:     c.track,
			Candidate: c.index,
			Design:    design,
			KStream:   c.kstream,
			Metrics:   res.Value,
		})
	}
	if len(survivors) == 0 {
		d.logger.Info("every candidate failed", zap.Int("iteration", iteration), zap.Int("candidates", len(cands)))
		return d.terminate(next, NoValidCandidate, RestLabel), nil
	}

	head := next.Ladder.Head()
	errs := make([]float64, len(survivors))
	areas := make([]float64, len(survivors))
	for i, r := range survivors {
		errs[i], areas[i] = r.Error, r.Area
	}
	prev := st.Leader()
	order := d.cfg.Policy(ranking.Candidates{
		Errors:      errs,
		Areas:       areas,
		InitialArea: next.Baseline().Area,
		Threshold:   head + d.cfg.Epsilon,
		PrevError:   prev.Error,
		PrevArea:    prev.Area,
	})
	keep := min(d.cfg.TrackCount, len(order))

	next.Iteration = iteration
	next.Tracks = make([]KStream, 0, keep)
	for _, idx := range order[:keep] {
		next.Tracks = append(next.Tracks, survivors[idx].KStream.Clone())
		next.History = append(next.History, survivors[idx])
	}
	top := survivors[order[0]]
	for i := range next.Partitions {
		next.Partitions[i].Rank = top.KStream[i]
	}
	d.metrics.Iterations.Inc()
	d.metrics.BestError.Set(top.Error)
	d.metrics.BestArea.Set(top.Area)
	d.logger.Info("iteration",
		zap.Int("iteration", iteration),
		zap.Int("candidates", len(cands)),
		zap.Int("survivors", len(survivors)),
		zap.String("best", top.Design),
		zap.Stringer("kstream", top.KStream),
		zap.Float64("error", top.Error),
		zap.Float64("area", top.Area),
		zap.Float64("threshold", head))

	next.Transition = Searching
	if top.Error >= head+d.cfg.Epsilon && !math.IsInf(head, 1) {
		d.checkpoint(&next, ThresholdLabel(head), head, ThresholdReached)
		next.Ladder = next.Ladder.Pop()
		next.Transition = ThresholdReached
		if next.Ladder.Empty() {
			next.Phase = Terminated
		}
	}
	return next, nil
}

// Run initializes the search and steps until it terminates. Every terminal
// state carries at least one checkpoint.
func (d *Driver) Run(ctx context.Context) (State, error) {
	st, err := d.Init(ctx)
	if err != nil {
		return st, err
	}
	for !st.Done() {
		if st, err = d.Step(ctx, st); err != nil {
			return st, err
		}
	}
	return st, nil
}
