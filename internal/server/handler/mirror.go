package handler

import (
	"log/slog"
	"net/http"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// MirrorTracker defines the methods that the mirror handler requires from
// the freeze tracker.
type MirrorTracker interface {
	Snapshot(feedKey string) (domain.MirrorSnapshot, error)
	SnapshotAll() []domain.MirrorSnapshot
	ForceFreeze(feedKey string) (domain.MirrorSnapshot, error)
	ForceUnfreeze(feedKey string) (domain.MirrorSnapshot, error)
}

// MirrorHandler serves the feed-mirror HTTP endpoints, including the
// operator freeze overrides.
type MirrorHandler struct {
	tracker MirrorTracker
	logger  *slog.Logger
}

// NewMirrorHandler creates a MirrorHandler with the given tracker and logger.
func NewMirrorHandler(tracker MirrorTracker, logger *slog.Logger) *MirrorHandler {
	return &MirrorHandler{
		tracker: tracker,
		logger:  logger,
	}
}

// ListMirrors returns the tracked state of every feed subscription.
// GET /api/mirror
func (h *MirrorHandler) ListMirrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mirrors": h.tracker.SnapshotAll(),
	})
}

// GetMirror returns the tracked state of one feed subscription.
// GET /api/mirror/{feedKey}
func (h *MirrorHandler) GetMirror(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "feedKey")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing feed key")
		return
	}

	snap, err := h.tracker.Snapshot(key)
	if err != nil {
		writeServiceError(w, err, "failed to get mirror state")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Freeze pins the displayed probability for a feed key until an operator
// unfreezes it or the failsafe releases it.
// POST /api/mirror/{feedKey}/freeze
func (h *MirrorHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "feedKey")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing feed key")
		return
	}

	snap, err := h.tracker.ForceFreeze(key)
	if err != nil {
		writeServiceError(w, err, "failed to freeze")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: manual freeze",
		slog.String("feed_key", key),
	)
	writeJSON(w, http.StatusOK, snap)
}

// Unfreeze releases a frozen feed key and re-baselines it to the current
// raw probability.
// POST /api/mirror/{feedKey}/unfreeze
func (h *MirrorHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "feedKey")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing feed key")
		return
	}

	snap, err := h.tracker.ForceUnfreeze(key)
	if err != nil {
		writeServiceError(w, err, "failed to unfreeze")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: manual unfreeze",
		slog.String("feed_key", key),
	)
	writeJSON(w, http.StatusOK, snap)
}
