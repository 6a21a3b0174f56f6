package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotArchiver struct {
	archived int64
	err      error
	calls    int
	lastCut  time.Time
}

func (f *fakeSnapshotArchiver) ArchiveSnapshots(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.lastCut = before
	return f.archived, f.err
}

func TestArchiver_Run(t *testing.T) {
	fake := &fakeSnapshotArchiver{archived: 42}
	a := NewArchiver(fake, 30, slog.New(slog.DiscardHandler))

	err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	// Cutoff sits thirty days back, give or take scheduling slop.
	want := time.Now().UTC().Add(-30 * 24 * time.Hour)
	assert.WithinDuration(t, want, fake.lastCut, time.Minute)
}

func TestArchiver_RunPropagatesError(t *testing.T) {
	fake := &fakeSnapshotArchiver{err: errors.New("bucket gone")}
	a := NewArchiver(fake, 30, slog.New(slog.DiscardHandler))

	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "bucket gone")
}

func TestParseCron(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"daily at 3am", "0 3 * * *", false},
		{"every minute", "* * * * *", false},
		{"value list", "0,30 3,15 * * *", false},
		{"too few fields", "0 3 * *", true},
		{"too many fields", "0 3 * * * *", true},
		{"garbage value", "x 3 * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCron(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextCronTime(t *testing.T) {
	// A Saturday.
	after := time.Date(2026, 1, 3, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"daily at 3am rolls to tomorrow", "0 3 * * *", time.Date(2026, 1, 4, 3, 0, 0, 0, time.UTC)},
		{"later today", "0 18 * * *", time.Date(2026, 1, 3, 18, 0, 0, 0, time.UTC)},
		{"next minute boundary", "* * * * *", time.Date(2026, 1, 3, 14, 31, 0, 0, time.UTC)},
		{"first of month", "0 0 1 * *", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"next monday", "0 9 * * 1", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextCronTime_InvalidExpression(t *testing.T) {
	_, err := nextCronTime("not a cron", time.Now())
	assert.Error(t, err)
}
