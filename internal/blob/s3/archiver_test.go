package s3blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobWriter captures uploaded objects in memory.
type fakeBlobWriter struct {
	objects map[string]string
	types   map[string]string
}

func newFakeBlobWriter() *fakeBlobWriter {
	return &fakeBlobWriter{objects: make(map[string]string), types: make(map[string]string)}
}

func (f *fakeBlobWriter) Put(_ context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[path] = string(data)
	f.types[path] = contentType
	return nil
}

func TestSnapshotArchive_ArchivesAndDeletes(t *testing.T) {
	ctx := context.Background()
	snapshots := memory.NewSnapshotStore()
	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, snapshots.Append(ctx, domain.ReserveSnapshot{
			MarketID:  "m1",
			Yes:       5000,
			No:        5000,
			ProbYes:   0.5,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	writer := newFakeBlobWriter()
	arch := NewSnapshotArchive(writer, snapshots)

	// Cutoff keeps the two newest snapshots.
	archived, err := arch.ArchiveSnapshots(ctx, base.Add(2*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), archived)

	require.Len(t, writer.objects, 1)
	body, ok := writer.objects["archive/snapshots/2026-05.jsonl"]
	require.True(t, ok)
	assert.Equal(t, "application/x-ndjson", writer.types["archive/snapshots/2026-05.jsonl"])

	// Two JSONL lines, one per archived snapshot.
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"m1"`)

	// The archived rows are gone; the newer ones survive.
	remaining, err := snapshots.ListByMarket(ctx, "m1", domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestSnapshotArchive_NothingToArchive(t *testing.T) {
	writer := newFakeBlobWriter()
	arch := NewSnapshotArchive(writer, memory.NewSnapshotStore())

	archived, err := arch.ArchiveSnapshots(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, archived)
	assert.Empty(t, writer.objects)
}

// failingBlobWriter rejects every upload.
type failingBlobWriter struct{}

func (failingBlobWriter) Put(context.Context, string, io.Reader, string) error {
	return assert.AnError
}

func TestSnapshotArchive_UploadFailureKeepsRows(t *testing.T) {
	ctx := context.Background()
	snapshots := memory.NewSnapshotStore()
	require.NoError(t, snapshots.Append(ctx, domain.ReserveSnapshot{
		MarketID:  "m1",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	arch := NewSnapshotArchive(failingBlobWriter{}, snapshots)

	_, err := arch.ArchiveSnapshots(ctx, time.Now())
	require.Error(t, err)

	// Nothing was deleted: the upload failed before the delete ran.
	remaining, err := snapshots.ListByMarket(ctx, "m1", domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
