package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationStats_Percentiles(t *testing.T) {
	stats := NewDurationStats()
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := stats.Snapshot()
	require.Equal(t, 5, snap.Count)
	assert.Equal(t, int64(100), snap.MinMs)
	assert.Equal(t, int64(500), snap.MaxMs)
	assert.InDelta(t, 300, snap.AvgMs, 1e-9)
	assert.InDelta(t, 300, snap.P50Ms, 1e-9)
	assert.InDelta(t, 480, snap.P95Ms, 1e-9)
	assert.InDelta(t, 496, snap.P99Ms, 1e-9)
}

func TestDurationStats_SnapshotDoesNotReorderSamples(t *testing.T) {
	stats := NewDurationStats()
	stats.Record(300 * time.Millisecond)
	stats.Record(100 * time.Millisecond)
	assert.Equal(t, int64(100), stats.Snapshot().MinMs)

	stats.Record(200 * time.Millisecond)
	snap := stats.Snapshot()
	assert.Equal(t, 3, snap.Count)
	assert.InDelta(t, 200, snap.P50Ms, 1e-9)
}

func TestDurationStats_Empty(t *testing.T) {
	assert.Equal(t, StatsSnapshot{}, NewDurationStats().Snapshot())
}

func TestDurationStats_ClampsNegative(t *testing.T) {
	stats := NewDurationStats()
	stats.Record(-time.Second)
	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Zero(t, snap.MaxMs)
}
