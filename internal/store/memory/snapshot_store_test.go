package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshots(t *testing.T, s *SnapshotStore, marketID string, base time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Append(context.Background(), domain.ReserveSnapshot{
			MarketID:  marketID,
			Yes:       5000,
			No:        5000,
			ProbYes:   0.5,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestSnapshotStore_ListByMarket(t *testing.T) {
	s := NewSnapshotStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedSnapshots(t, s, "m1", base, 5)
	seedSnapshots(t, s, "m2", base, 2)

	out, err := s.ListByMarket(context.Background(), "m1", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, out, 5)
	// Newest first.
	assert.Equal(t, base.Add(4*time.Hour), out[0].Timestamp)
	assert.Equal(t, base, out[4].Timestamp)

	out, err = s.ListByMarket(context.Background(), "m1", domain.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, base.Add(3*time.Hour), out[0].Timestamp)
}

func TestSnapshotStore_ListBefore(t *testing.T) {
	s := NewSnapshotStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedSnapshots(t, s, "m1", base, 6)

	out, err := s.ListBefore(context.Background(), base.Add(3*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	// Oldest first, strictly before the cutoff.
	assert.Equal(t, base, out[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Hour), out[2].Timestamp)

	out, err = s.ListBefore(context.Background(), base.Add(3*time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestSnapshotStore_DeleteBefore(t *testing.T) {
	s := NewSnapshotStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedSnapshots(t, s, "m1", base, 6)

	removed, err := s.DeleteBefore(context.Background(), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	out, err := s.ListByMarket(context.Background(), "m1", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, base.Add(4*time.Hour), out[1].Timestamp)
}
