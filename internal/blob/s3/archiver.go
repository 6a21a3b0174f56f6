package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// archiveBatchSize caps how many snapshots one archive object holds. Large
// retention backlogs are drained across multiple passes.
const archiveBatchSize = 10_000

// SnapshotArchive implements domain.SnapshotArchiver by draining reserve
// snapshots older than the cutoff into JSONL objects in blob storage and
// deleting the archived rows afterwards.
type SnapshotArchive struct {
	writer    domain.BlobWriter
	snapshots domain.SnapshotStore
}

// NewSnapshotArchive creates a SnapshotArchive.
func NewSnapshotArchive(writer domain.BlobWriter, snapshots domain.SnapshotStore) *SnapshotArchive {
	return &SnapshotArchive{
		writer:    writer,
		snapshots: snapshots,
	}
}

// ArchiveSnapshots uploads all snapshots strictly older than before to
// archive/snapshots/YYYY-MM.jsonl and deletes them from the store. The
// upload happens before the delete so a failure never loses data; at worst
// a retried pass re-uploads the same object.
func (a *SnapshotArchive) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for {
		snaps, err := a.snapshots.ListBefore(ctx, before, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive snapshots query: %w", err)
		}
		if len(snaps) == 0 {
			return total, nil
		}

		buf, err := marshalJSONL(snaps)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
		}

		// Batches are oldest first, so the batch tail bounds the delete.
		batchEnd := snaps[len(snaps)-1].Timestamp

		path := archivePath(batchEnd)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("s3blob: archive snapshots upload: %w", err)
		}

		deleted, err := a.snapshots.DeleteBefore(ctx, batchEnd.Add(time.Nanosecond))
		if err != nil {
			return total, fmt.Errorf("s3blob: archive snapshots delete: %w", err)
		}
		total += deleted

		if len(snaps) < archiveBatchSize {
			return total, nil
		}
	}
}

// archivePath builds the object key, partitioned by the year-month of the
// batch tail, e.g. archive/snapshots/2026-08.jsonl.
func archivePath(batchEnd time.Time) string {
	return fmt.Sprintf("archive/snapshots/%s.jsonl", batchEnd.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.SnapshotArchiver = (*SnapshotArchive)(nil)
