package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// SnapshotArchiver moves old reserve snapshots from the database to cold
// storage, returning how many rows were archived.
type SnapshotArchiver interface {
	ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error)
}
