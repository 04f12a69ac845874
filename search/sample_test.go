package search

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleStream(t *testing.T) {
	type testcase struct {
		name string
		full KStream
	}

	cases := []testcase{
		{"single", KStream{4}},
		{"mixed", KStream{3, 1, 5, 2}},
		{"irreducible", KStream{1, 1}},
		{"wide", KStream{8, 8, 8}},
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for _, tc := range cases {
		total := 0
		for _, k := range tc.full {
			total += k - 1
		}
		for i := 0; i < 200; i++ {
			ks := SampleStream(rng, tc.full)
			require.Len(t, ks, len(tc.full), tc.name)
			reduced := 0
			for p, k := range ks {
				assert.GreaterOrEqual(t, k, 1, tc.name)
				assert.LessOrEqual(t, k, tc.full[p], tc.name)
				reduced += tc.full[p] - k
			}
			if total == 0 {
				assert.Equal(t, tc.full, ks, tc.name)
				continue
			}
			assert.GreaterOrEqual(t, reduced, 1, tc.name)
			assert.LessOrEqual(t, reduced, total, tc.name)
		}
	}
}

func TestDriverSample(t *testing.T) {
	parts, eval := twoPartitions()
	d := newDriver(t, DefaultConfig(), parts, eval)

	recs, err := d.Sample(context.Background(), 50, 9)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), 3)

	valid := map[string]bool{"1,2": true, "2,1": true, "1,1": true}
	seen := make(map[string]bool)
	for i, r := range recs {
		assert.True(t, valid[r.KStream.Key()], r.KStream.String())
		assert.False(t, seen[r.KStream.Key()], "k-stream %s sampled twice", r.KStream)
		seen[r.KStream.Key()] = true
		assert.Equal(t, SampleNamespace(i+1), r.Design)
		assert.Equal(t, i+1, r.Iteration)
	}

	again, err := newDriver(t, DefaultConfig(), parts, eval).Sample(context.Background(), 50, 9)
	require.NoError(t, err)
	assert.Equal(t, recs, again)
}

func TestDriverSampleDropsFailures(t *testing.T) {
	parts, eval := twoPartitions()
	eval.fail = func(ks KStream) error {
		if ks.Key() == "1,1" {
			return errors.Wrap(ErrSynthesisFailure, "loop")
		}
		return nil
	}
	cfg := DefaultConfig()
	cfg.Parallel = false
	recs, err := newDriver(t, cfg, parts, eval).Sample(context.Background(), 200, 3)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, "1,1", r.KStream.Key())
	}

	_, err = newDriver(t, cfg, parts, eval).Sample(context.Background(), 0, 3)
	assert.Error(t, err)
}
