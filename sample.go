package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"bmfapprox/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sampleOut   string
	sampleCount int
	sampleSeed  uint64
)

var sampleCmd = &cobra.Command{
	Use:   "sample <manifest>",
	Short: "Evaluate random rank reductions of a partitioned design",
	Long: `Sample draws random k-streams, lowering partitions with wider outputs
more often, and evaluates each distinct one. The original design and the
samples go to <output>/sample/iteration.csv, which the rank command reads.`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringVarP(&sampleOut, "out", "o", "", "Output directory (default from config)")
	sampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 100, "Number of draws")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 1, "Seed of the k-stream generator")
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleOut != "" {
		cfg.Output.Dir = sampleOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cfg.CheckTools(); err != nil {
		return err
	}

	log := logger.With(zap.String("run", uuid.NewString()))
	r, err := newRun(args[0], log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	st, err := r.driver.Init(ctx)
	if err != nil {
		return err
	}
	samples, err := r.driver.Sample(ctx, sampleCount, sampleSeed)
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.Output.Dir, "sample")
	if err := report.WriteSamples(dir, st.Baseline(), samples); err != nil {
		return err
	}
	log.Info("sampling finished",
		zap.Int("samples", len(samples)),
		zap.Int("factorizations", r.cache.Len()),
		zap.String("result", dir))
	return nil
}
