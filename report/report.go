// Package report writes the outcome of a search: the iteration history, the
// checkpoints and a human readable summary.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"bmfapprox/search"

	"github.com/pkg/errors"
)

const (
	ResultFile      = "result.txt"
	IterationFile   = "iteration.csv"
	CheckpointsFile = "checkpoints.csv"
)

var iterationHeader = []string{"iteration", "design", "metric", "area", "power", "delay", "kstream"}

var checkpointHeader = []string{"label", "threshold", "reason", "design", "metric", "area", "kstream"}

// Summary is what result.txt is rendered from.
type Summary struct {
	RunID       string
	Design      string
	Metric      string
	Baseline    search.Record
	Checkpoints []search.Checkpoint
}

func NewSummary(runID, design, metric string, st search.State) Summary {
	s := Summary{RunID: runID, Design: design, Metric: metric, Checkpoints: st.Checkpoints}
	if len(st.History) > 0 {
		s.Baseline = st.Baseline()
	}
	return s
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func WriteResult(w io.Writer, s Summary) error {
	out, err := Render(resultTemplate, s)
	if err != nil {
		return errors.Wrap(err, "could not render result")
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteIterations writes one row per retained design, baseline first.
func WriteIterations(w io.Writer, history []search.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(iterationHeader); err != nil {
		return err
	}
	for _, r := range history {
		row := []string{
			strconv.Itoa(r.Iteration),
			r.Design,
			formatFloat(r.Error),
			formatFloat(r.Area),
			formatFloat(r.Power),
			formatFloat(r.Delay),
			r.KStream.Key(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCheckpoints(w io.Writer, cps []search.Checkpoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(checkpointHeader); err != nil {
		return err
	}
	for _, cp := range cps {
		row := []string{
			cp.Label,
			formatFloat(cp.Threshold),
			cp.Reason.String(),
			cp.Design,
			formatFloat(cp.Error),
			formatFloat(cp.Area),
			cp.KStream.Key(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadIterations parses a file written by WriteIterations.
func ReadIterations(r io.Reader) ([]search.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(iterationHeader)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "could not read iterations")
	}
	if len(rows) == 0 {
		return nil, errors.New("iteration file is empty")
	}
	records := make([]search.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseIteration(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseIteration(row []string) (search.Record, error) {
	var (
		rec search.Record
		err error
	)
	if rec.Iteration, err = strconv.Atoi(row[0]); err != nil {
		return rec, err
	}
	rec.Design = row[1]
	floats := []*float64{&rec.Error, &rec.Area, &rec.Power, &rec.Delay}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(row[2+i], 64); err != nil {
			return rec, err
		}
	}
	rec.KStream, err = search.ParseKStream(row[6])
	return rec, err
}

// Write creates dir and writes the three report files into it.
func Write(dir string, s Summary, history []search.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "could not create report directory")
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ResultFile, func(w io.Writer) error { return WriteResult(w, s) }},
		{IterationFile, func(w io.Writer) error { return WriteIterations(w, history) }},
		{CheckpointsFile, func(w io.Writer) error { return WriteCheckpoints(w, s.Checkpoints) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

// WriteSamples writes sampled designs to dir/iteration.csv behind the
// baseline, so the file ranks like a search history.
func WriteSamples(dir string, baseline search.Record, samples []search.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "could not create sample directory")
	}
	history := append([]search.Record{baseline}, samples...)
	return writeFile(filepath.Join(dir, IterationFile), func(w io.Writer) error {
		return WriteIterations(w, history)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "could not write %q", path)
	}
	return f.Close()
}
