package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"bmfapprox/bmf"
	"bmfapprox/config"
	"bmfapprox/design"
	"bmfapprox/evaluator"
	"bmfapprox/metrics"
	"bmfapprox/ranking"
	"bmfapprox/report"
	"bmfapprox/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	searchOut        string
	searchThresholds []float64
)

var searchCmd = &cobra.Command{
	Use:   "search <manifest>",
	Short: "Search rank reductions of a partitioned design",
	Long: `Search loads a design manifest, lowers the factorization rank of its
partitions greedily over several tracks and records the smallest design under
each error threshold. Results go to <output>/result.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchOut, "out", "o", "", "Output directory (default from config)")
	searchCmd.Flags().Float64SliceVarP(&searchThresholds, "threshold", "t", nil, "Error thresholds, ascending (default from config)")
}

func searchConfig(c *config.Config) (search.Config, error) {
	policy, err := ranking.ParsePolicy(c.Search.Policy)
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{
		TrackCount:    c.Search.Tracks,
		StepSize:      c.Search.StepSize,
		Epsilon:       c.Search.Epsilon,
		Thresholds:    c.Search.Thresholds,
		Parallel:      c.Search.Parallel,
		Workers:       c.Search.Workers,
		MaxIterations: c.Search.MaxIterations,
		Policy:        policy,
	}, nil
}

// run is the wiring shared by the commands that evaluate a design.
type run struct {
	design *design.Design
	cache  *bmf.Cache
	driver *search.Driver
}

func newRun(manifest string, log *zap.Logger) (*run, error) {
	m, err := design.LoadManifest(manifest)
	if err != nil {
		return nil, err
	}
	d, err := m.Build()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	mets := metrics.New(reg)
	ec := evaluator.NewContext(m, d, cfg)
	cacheDir := ""
	if cfg.BMF.Persist {
		cacheDir = ec.FactorDir()
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "could not create factorization directory")
		}
	}
	cache := bmf.NewCache(cacheDir, cfg.BMF.Weighted, log, mets)
	ev, err := evaluator.New(ec, d, cache, evaluator.Options{
		Metric:  cfg.Evaluation.Metric,
		Samples: cfg.Evaluation.Samples,
		Seed:    cfg.Evaluation.Seed,
	}, log)
	if err != nil {
		return nil, err
	}

	scfg, err := searchConfig(cfg)
	if err != nil {
		return nil, err
	}
	drv, err := search.NewDriver(scfg, ev.FullRank(), ev, log, mets)
	if err != nil {
		return nil, err
	}
	return &run{design: d, cache: cache, driver: drv}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchOut != "" {
		cfg.Output.Dir = searchOut
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Search.Thresholds = searchThresholds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cfg.CheckTools(); err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.With(zap.String("run", runID))
	r, err := newRun(args[0], log)
	if err != nil {
		return err
	}
	d, cache, drv := r.design, r.cache, r.driver

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	st, err := drv.Run(ctx)
	if err != nil {
		return err
	}

	summary := report.NewSummary(runID, d.Name, cfg.Evaluation.Metric.String(), st)
	dir := filepath.Join(cfg.Output.Dir, "result")
	if err := report.Write(dir, summary, st.History); err != nil {
		return err
	}
	log.Info("search finished",
		zap.Stringer("reason", st.Transition),
		zap.Int("iterations", st.Iteration),
		zap.Int("checkpoints", len(st.Checkpoints)),
		zap.Stringer("ranks", st.Ranks()),
		zap.Int("factorizations", cache.Len()),
		zap.String("result", dir))
	return report.WriteResult(cmd.OutOrStdout(), summary)
}
