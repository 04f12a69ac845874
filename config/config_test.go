package config

import (
	"os"
	"path/filepath"
	"testing"

	"bmfapprox/metric"
	"bmfapprox/ranking"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.Tracks)
	assert.Equal(t, 1, cfg.Search.StepSize)
	assert.Equal(t, 0.005, cfg.Search.Epsilon)
	assert.Equal(t, metric.HammingDistance, cfg.Evaluation.Metric)
	assert.Positive(t, cfg.Search.Workers)
}

func TestParse(t *testing.T) {
	doc := `
search:
  tracks: 2
  thresholds: [0.01, 0.05, 0.1]
  policy: least-error
  max_iterations: 40
bmf:
  weighted: true
evaluation:
  metric: MAE
  timing: true
output:
  dir: /tmp/run
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Search.Tracks)
	assert.Equal(t, 1, cfg.Search.StepSize)
	assert.Equal(t, []float64{0.01, 0.05, 0.1}, cfg.Search.Thresholds)
	assert.Equal(t, "least-error", cfg.Search.Policy)
	assert.Equal(t, 40, cfg.Search.MaxIterations)
	assert.True(t, cfg.BMF.Weighted)
	assert.Equal(t, metric.MeanAbsoluteError, cfg.Evaluation.Metric)
	assert.True(t, cfg.Evaluation.Timing)
	assert.Equal(t, "/tmp/run", cfg.Output.Dir)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Search.Tracks, cfg.Search.Tracks)
}

func TestParseRejects(t *testing.T) {
	type testcase struct {
		name string
		doc  string
	}

	cases := []testcase{
		{"descending thresholds", "search:\n  thresholds: [0.1, 0.05]\n"},
		{"repeated threshold", "search:\n  thresholds: [0.1, 0.1]\n"},
		{"negative threshold", "search:\n  thresholds: [-0.1]\n"},
		{"zero tracks", "search:\n  tracks: 0\n"},
		{"bad policy", "search:\n  policy: random\n"},
		{"bad metric", "evaluation:\n  metric: RMSE\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"unknown key", "serach:\n  tracks: 2\n"},
		{"empty output", "output:\n  dir: \"\"\n"},
	}

	for _, tc := range cases {
		_, err := Parse([]byte(tc.doc))
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%s: %v", tc.name, err)
	}
}

func TestParseAcceptsEveryPolicy(t *testing.T) {
	for _, name := range ranking.Policies {
		cfg, err := Parse([]byte("search:\n  policy: " + name + "\n"))
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.Search.Policy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCheckTools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tools = map[string]string{"shell": "sh"}
	resolved, err := cfg.CheckTools()
	require.NoError(t, err)
	assert.NotEmpty(t, resolved["shell"])

	cfg.Tools["synth"] = "definitely-not-a-real-binary-xyz"
	_, err = cfg.CheckTools()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.ErrorContains(t, err, "synth")
}

func TestLibrary(t *testing.T) {
	lib, err := LoadLibrary("")
	require.NoError(t, err)
	assert.Equal(t, 1.0, lib.And().Area)

	path := filepath.Join(t.TempDir(), "lib.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nangate\ncells:\n  AND2: {area: 1.064, delay: 0.03, power: 0.02}\n  INV: {area: 0.532}\n"), 0o644))
	lib, err = LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, "nangate", lib.Name)
	assert.Equal(t, 1.064, lib.And().Area)

	_, err = LoadLibrary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = ParseLibrary([]byte("name: x\ncells:\n  INV: {area: 1}\n"))
	assert.ErrorContains(t, err, "AND2")
}
