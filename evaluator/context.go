// Package evaluator measures candidate designs in process: each partition is
// replaced by its rank-k factorization, the design is simulated against the
// golden outputs, and area, delay and power are estimated from and-inverter
// realizations priced with a cell library.
package evaluator

import (
	"os"
	"path/filepath"

	"bmfapprox/config"
	"bmfapprox/design"
)

// PartitionFiles locates one partition's sources.
type PartitionFiles struct {
	Name    string
	Verilog string
	Truth   string
	Inputs  int
	Outputs int
}

// Context carries everything an evaluation reads. It is shared by concurrent
// evaluations and never written after construction.
type Context struct {
	Partitions []PartitionFiles
	Golden     string
	Testbench  string
	Library    string
	Timing     bool
	OutputDir  string
}

// NewContext derives the evaluation context of a loaded design. The golden
// table defaults to <output>/golden.truth.
func NewContext(m *design.Manifest, d *design.Design, cfg *config.Config) Context {
	ec := Context{
		Golden:    m.Path(m.Golden),
		Testbench: m.Path(m.Testbench),
		Library:   cfg.Library.Path,
		Timing:    cfg.Evaluation.Timing,
		OutputDir: cfg.Output.Dir,
	}
	if ec.Golden == "" {
		ec.Golden = filepath.Join(cfg.Output.Dir, "golden.truth")
	}
	for _, p := range d.Partitions {
		ec.Partitions = append(ec.Partitions, PartitionFiles{
			Name:    p.Name,
			Verilog: p.VerilogPath,
			Truth:   p.TruthPath,
			Inputs:  len(p.Inputs),
			Outputs: len(p.Outputs),
		})
	}
	return ec
}

// TruthDir holds the approximate output table of every evaluated candidate.
func (c Context) TruthDir() string { return filepath.Join(c.OutputDir, "truthtable") }

// FactorDir holds persisted factorizations.
func (c Context) FactorDir() string { return filepath.Join(c.OutputDir, "bmf") }

func (c Context) prepare() error {
	for _, dir := range []string{c.OutputDir, c.TruthDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
