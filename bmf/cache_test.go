package bmf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bmfapprox/bitmat"
	"bmfapprox/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var monotone = bitmat.MustFromStrings("110", "110", "001", "001")

func TestWriteFiles(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "p0.truth")
	r, err := Factorize(monotone, 1, false)
	require.NoError(t, err)
	require.NoError(t, WriteFiles(prefix, monotone, r))

	b, err := os.ReadFile(prefix + "_h_1")
	require.NoError(t, err)
	assert.Equal(t, "1 1 0 \n", string(b))

	s, err := os.ReadFile(prefix + "_w_1")
	require.NoError(t, err)
	assert.Equal(t, "1 \n1 \n0 \n0 \n", string(s))

	wh, err := os.ReadFile(prefix + "_wh_1")
	require.NoError(t, err)
	assert.Equal(t, "1 1 0 \n1 1 0 \n0 0 0 \n0 0 0 \n", string(wh))

	back, ok, err := ReadFiles(prefix, monotone, 1, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, back.B.Equal(r.B))
	assert.Equal(t, r.Score, back.Score)

	_, ok, err = ReadFiles(prefix, monotone, 2, false)
	require.NoError(t, err)
	assert.False(t, ok)

	digest, err := os.ReadFile(prefix + "_d_1")
	require.NoError(t, err)
	assert.Equal(t, Digest(monotone)+"\n", string(digest))
}

// other has the shape of monotone but different contents.
var other = bitmat.MustFromStrings("011", "011", "100", "100")

func TestReadFilesRejectsOtherTable(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "p0.truth")
	r, err := Factorize(monotone, 1, false)
	require.NoError(t, err)
	require.NoError(t, WriteFiles(prefix, monotone, r))

	assert.NotEqual(t, Digest(monotone), Digest(other))
	assert.NotEqual(t, Digest(bitmat.MustFromStrings("1100")), Digest(bitmat.MustFromStrings("11", "00")))

	_, ok, err := ReadFiles(prefix, other, 1, false)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStaleFactorization)

	require.NoError(t, os.Remove(prefix+"_d_1"))
	_, ok, err = ReadFiles(prefix, monotone, 1, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRecomputesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCache(dir, false, zap.NewNop(), nil).Get("p0", monotone, 1)
	require.NoError(t, err)

	m := metrics.New(nil)
	got, err := NewCache(dir, false, zap.NewNop(), m).Get("p0", other, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHits))

	want, err := Factorize(other, 1, false)
	require.NoError(t, err)
	assert.True(t, want.Reconstruction.Equal(got.Reconstruction))
	assert.Equal(t, want.Score, got.Score)

	back, ok, err := ReadFiles(filepath.Join(dir, "p0.truth"), other, 1, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, back.S.Equal(got.S))
}

func TestCacheComputesOnce(t *testing.T) {
	m := metrics.New(nil)
	c := NewCache("", false, zap.NewNop(), m)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Get("p0", monotone, 2)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1, c.Len())
	for _, r := range results {
		assert.True(t, r.Reconstruction.Equal(results[0].Reconstruction))
	}

	_, err := c.Get("p0", monotone, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 2, c.Len())
}

func TestCacheReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	first := NewCache(dir, false, zap.NewNop(), nil)
	want, err := first.Get("p0", monotone, 1)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "p0.truth_wh_1"))

	m := metrics.New(nil)
	second := NewCache(dir, false, zap.NewNop(), m)
	got, err := second.Get("p0", monotone, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.True(t, want.S.Equal(got.S))
	assert.True(t, want.B.Equal(got.B))
	assert.Equal(t, want.Score, got.Score)
}
