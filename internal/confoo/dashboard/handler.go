package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/daemon"
	"github.com/confoo-planner/confoo/internal/confoo/data"
	confoosync "github.com/confoo-planner/confoo/internal/confoo/sync"
)

// SyncCompleteData describes a finished sync run
type SyncCompleteData struct {
	RunID          string `json:"run_id"`
	Sessions       int    `json:"sessions"`
	Speakers       int    `json:"speakers"`
	Events         int    `json:"events"`
	FailedDetails  int    `json:"failed_details"`
	FailedSpeakers int    `json:"failed_speakers"`
	DurationMS     int64  `json:"duration_ms"`
}

// SyncFailedData carries the error of a failed run
type SyncFailedData struct {
	Error string `json:"error"`
}

// SnapshotUpdatedData describes a snapshot file change
type SnapshotUpdatedData struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// ReloadFunc reopens the schedule source after the underlying data changed.
type ReloadFunc func(ctx context.Context) (data.Source, string)

// Handler turns daemon activity into dashboard messages. It bridges the
// daemon and the file watcher to the WebSocket server.
type Handler struct {
	server *Server
	reload ReloadFunc
	logger *slog.Logger
}

// NewHandler creates a handler for server. reload may be nil, in which case
// the server keeps its current source.
func NewHandler(server *Server, reload ReloadFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		server: server,
		reload: reload,
		logger: logger.With("component", "dashboard-handler"),
	}
}

// OnRun matches daemon.Config.OnRun.
func (h *Handler) OnRun(res *confoosync.Result, err error) {
	if err != nil {
		h.send(MessageTypeSyncFailed, SyncFailedData{Error: err.Error()})
		return
	}
	if res == nil {
		return
	}
	h.swapSource(context.Background())
	h.send(MessageTypeSyncComplete, SyncCompleteData{
		RunID:          res.RunID,
		Sessions:       res.Sessions,
		Speakers:       res.Speakers,
		Events:         res.Events,
		FailedDetails:  res.FailedDetails,
		FailedSpeakers: res.FailedSpeakers,
		DurationMS:     res.Duration().Milliseconds(),
	})
}

// OnSnapshotEvent reloads the source and notifies clients that the snapshot
// file changed.
func (h *Handler) OnSnapshotEvent(ctx context.Context, ev daemon.FileEvent) {
	h.logger.Info("snapshot changed", "path", ev.Path, "op", ev.Op.String())
	h.swapSource(ctx)
	h.send(MessageTypeSnapshotUpdated, SnapshotUpdatedData{Path: ev.Path, Op: ev.Op.String()})
}

// Watch forwards watcher events until ctx is cancelled or the watcher stops.
func (h *Handler) Watch(ctx context.Context, fw *daemon.FileWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events():
			if !ok {
				return
			}
			h.OnSnapshotEvent(ctx, ev)
		case err, ok := <-fw.Errors():
			if !ok {
				return
			}
			h.logger.Warn("snapshot watcher error", "error", err)
		}
	}
}

func (h *Handler) swapSource(ctx context.Context) {
	if h.reload == nil {
		return
	}
	src, name := h.reload(ctx)
	h.server.SetSource(src, name)
}

func (h *Handler) send(t MessageType, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal message data", "type", t, "error", err)
		return
	}
	h.server.Broadcast(Message{Type: t, Timestamp: time.Now(), Data: payload})
}
