package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"bmfapprox/ranking"
	"bmfapprox/report"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	rankThreshold float64
	rankPolicy    string
)

var rankCmd = &cobra.Command{
	Use:   "rank <iteration.csv>",
	Short: "Rank the designs of a search history",
	Long: `Rank orders the designs recorded in an iteration history, best first,
with the configured ranking policy. The first row of the history is the
original design. It sets the reference area and is the previous best
for the incremental and nearest policies.`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().Float64VarP(&rankThreshold, "threshold", "t", math.Inf(1), "Error threshold")
	rankCmd.Flags().StringVar(&rankPolicy, "policy", "", "Ranking policy, one of "+strings.Join(ranking.Policies, ", ")+" (default from config)")
}

func runRank(cmd *cobra.Command, args []string) error {
	name := cfg.Search.Policy
	if rankPolicy != "" {
		name = rankPolicy
	}
	policy, err := ranking.ParsePolicy(name)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "could not open %q", args[0])
	}
	defer f.Close()
	records, err := report.ReadIterations(f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.Errorf("%q holds no design", args[0])
	}

	errs := make([]float64, len(records))
	areas := make([]float64, len(records))
	for i, r := range records {
		errs[i], areas[i] = r.Error, r.Area
	}
	initial := records[0].Area

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tdesign\terror\tarea\tgradient\tkstream")
	order := policy(ranking.Candidates{
		Errors:      errs,
		Areas:       areas,
		InitialArea: initial,
		Threshold:   rankThreshold,
		PrevArea:    initial,
	})
	for pos, i := range order {
		r := records[i]
		fmt.Fprintf(tw, "%d\t%s\t%.6f\t%.2f\t%g\t%s\n",
			pos+1, r.Design, r.Error, r.Area, ranking.Gradient(r.Error, r.Area, initial, rankThreshold), r.KStream)
	}
	return tw.Flush()
}
