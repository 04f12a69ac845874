package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Candidates.Add(3)
	m.Checkpoints.WithLabelValues("threshold").Inc()
	m.CacheHits.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Candidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues("threshold")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "bmfapprox_search_candidates_evaluated_total")
	assert.Contains(t, names, "bmfapprox_bmf_cache_hits_total")
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.Iterations.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Iterations))
}
