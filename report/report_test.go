package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bmfapprox/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() search.State {
	baseline := search.Record{Design: "baseline", KStream: search.KStream{2, 2}, Metrics: search.NoTiming(0, 10)}
	r1 := search.Record{Iteration: 1, Design: "iter1_track0_cand0", KStream: search.KStream{1, 2}, Metrics: search.Metrics{Error: 0.03, Area: 7, Delay: 3, Power: 1.5}}
	r2 := search.Record{Iteration: 2, Design: "iter2_track0_cand1", KStream: search.KStream{1, 1}, Metrics: search.Metrics{Error: 0.12, Area: 4, Delay: 2, Power: 1}}
	return search.State{
		History: []search.Record{baseline, r1, r2},
		Checkpoints: []search.Checkpoint{
			{Label: "0.05", Threshold: 0.05, Reason: search.ThresholdReached, Record: r1},
			{Label: search.RestLabel, Threshold: 0.1, Reason: search.NoValidCandidate, Record: r1},
		},
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, NewSummary("", "adder2", "HD", sampleState())))
	assert.Equal(t, strings.Join([]string{
		"Original chip area 10.00",
		"5% error metric chip area 7.00 (iter1_track0_cand0, k = [1 2], error 0.030000, threshold-reached)",
		"REST error metric chip area 7.00 (iter1_track0_cand0, k = [1 2], error 0.030000, no-valid-candidate)",
		"",
	}, "\n"), buf.String())

	buf.Reset()
	require.NoError(t, WriteResult(&buf, NewSummary("run-1", "adder2", "HD", sampleState())))
	assert.True(t, strings.HasPrefix(buf.String(), "Run run-1: adder2, metric HD\nOriginal chip area 10.00\n"))
}

func TestCheckpointLabel(t *testing.T) {
	type testcase struct {
		cp     search.Checkpoint
		expect string
	}

	cases := []testcase{
		{search.Checkpoint{Label: "0.07", Threshold: 0.07}, "7%"},
		{search.Checkpoint{Label: "0.005", Threshold: 0.005}, "0.5%"},
		{search.Checkpoint{Label: "+Inf", Threshold: math.Inf(1)}, "+Inf"},
		{search.Checkpoint{Label: search.RestLabel, Threshold: 0.2}, "REST"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expect, checkpointLabel(tc.cp))
	}
}

func TestIterationsRoundTrip(t *testing.T) {
	st := sampleState()
	var buf bytes.Buffer
	require.NoError(t, WriteIterations(&buf, st.History))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "iteration,design,metric,area,power,delay,kstream", lines[0])
	assert.Equal(t, `0,baseline,0,10,NaN,NaN,"2,2"`, lines[1])
	assert.Equal(t, `1,iter1_track0_cand0,0.03,7,1.5,3,"1,2"`, lines[2])

	back, err := ReadIterations(&buf)
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.True(t, math.IsNaN(back[0].Power))
	assert.Equal(t, st.History[2], back[2])
}

func TestReadIterationsRejects(t *testing.T) {
	_, err := ReadIterations(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadIterations(strings.NewReader("iteration,design,metric,area,power,delay,kstream\nx,d,0,1,0,0,1\n"))
	assert.ErrorContains(t, err, "row 2")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")
	st := sampleState()
	require.NoError(t, Write(dir, NewSummary("", "adder2", "HD", st), st.History))

	for _, name := range []string{ResultFile, IterationFile, CheckpointsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	data, err := os.ReadFile(filepath.Join(dir, CheckpointsFile))
	require.NoError(t, err)
	assert.Equal(t, "label,threshold,reason,design,metric,area,kstream\n"+
		"0.05,0.05,threshold-reached,iter1_track0_cand0,0.03,7,\"1,2\"\n"+
		"REST,0.1,no-valid-candidate,iter1_track0_cand0,0.03,7,\"1,2\"\n", string(data))
}

func TestWriteSamples(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sample")
	baseline := search.Record{Design: "iter0_track0_cand0", KStream: search.KStream{2, 2}, Metrics: search.Metrics{Area: 10, Delay: 4, Power: 2}}
	samples := []search.Record{
		{Iteration: 1, Design: "sample1", KStream: search.KStream{1, 2}, Metrics: search.Metrics{Error: 0.03, Area: 7, Delay: 3, Power: 1.5}},
		{Iteration: 3, Design: "sample3", KStream: search.KStream{1, 1}, Metrics: search.Metrics{Error: 0.2, Area: 4, Delay: 2, Power: 1}},
	}
	require.NoError(t, WriteSamples(dir, baseline, samples))

	f, err := os.Open(filepath.Join(dir, IterationFile))
	require.NoError(t, err)
	defer f.Close()
	back, err := ReadIterations(f)
	require.NoError(t, err)
	assert.Equal(t, append([]search.Record{baseline}, samples...), back)
}
