package localfq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ds := lineDataset(12)
	store, err := Build(ds, seededConfig(31))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "store.zst")
	require.NoError(t, store.Save(path))

	loaded, err := LoadStore(path)
	require.NoError(t, err)

	assert.Equal(t, store.Schema(), loaded.Schema())
	assert.Equal(t, store.NumClusters(), loaded.NumClusters())
	assert.Equal(t, store.PivotIndices(), loaded.PivotIndices())

	queries := []Instance{
		{Values: []float64{0, 0, 0}},   // training point
		{Values: []float64{6.5, 0, 0}}, // interior
		{Values: []float64{100, 0, 0}}, // fallback route
	}
	for i, q := range queries {
		want, err := store.Predict(q)
		require.NoError(t, err)
		got, err := loaded.Predict(q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %d", i)
	}
}

func TestSnapshotKeepsConfiguredMetric(t *testing.T) {
	cfg := seededConfig(32)
	cfg.Metric = ManhattanMetric{}
	store, err := Build(lineDataset(12), cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "store.zst")
	require.NoError(t, store.Save(path))

	loaded, err := LoadStore(path)
	require.NoError(t, err)
	assert.IsType(t, ManhattanMetric{}, loaded.metric)
}

func TestLoadStoreMissingFile(t *testing.T) {
	_, err := LoadStore(filepath.Join(t.TempDir(), "nope.zst"))
	assert.Error(t, err)
}

func TestLoadStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.zst")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	_, err := LoadStore(path)
	assert.Error(t, err)
}
