package storage

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// mirrorOp is a pending write or delete queued for the remote mirror.
type mirrorOp struct {
	path   string
	data   []byte // nil for deletes
	delete bool
}

// Hybrid treats local storage as the source of truth and mirrors writes to
// remote. Reads, lists, and existence checks are answered from local state.
// Mirroring happens asynchronously through a buffered queue drained by a
// single goroutine; Close flushes the queue. A mirror failure degrades the
// mirror, never the authoritative local write, so it is logged rather than
// returned.
type Hybrid struct {
	local  *Local
	remote Backend
	logger *slog.Logger

	queue chan mirrorOp
	wg    sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewHybrid composes a local and a remote backend.
func NewHybrid(local *Local, remote Backend) *Hybrid {
	h := &Hybrid{
		local:  local,
		remote: remote,
		logger: slog.Default(),
		queue:  make(chan mirrorOp, 256),
	}
	h.wg.Add(1)
	go h.mirrorLoop()
	return h
}

// mirrorLoop drains the mirror queue until Close.
func (h *Hybrid) mirrorLoop() {
	defer h.wg.Done()
	for op := range h.queue {
		ctx := context.Background()
		var err error
		if op.delete {
			err = h.remote.Delete(ctx, op.path)
		} else {
			err = h.remote.Write(ctx, op.path, op.data)
		}
		if err != nil {
			h.logger.Warn("remote mirror operation failed",
				"path", op.path, "delete", op.delete, "error", err)
		}
	}
}

// enqueue hands an operation to the mirror goroutine, blocking if the
// queue is full so writes are never silently dropped. After Close the
// mirror is gone; the local write already succeeded, so the operation is
// logged and skipped rather than panicking on the closed queue.
func (h *Hybrid) enqueue(op mirrorOp) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.logger.Warn("mirror queue closed, remote copy skipped",
			"path", op.path, "delete", op.delete)
		return
	}
	h.queue <- op
}

// Write stores data locally, then queues the remote mirror write.
func (h *Hybrid) Write(ctx context.Context, path string, data []byte) error {
	if err := h.local.Write(ctx, path, data); err != nil {
		return err
	}
	h.enqueue(mirrorOp{path: path, data: data})
	return nil
}

// Read answers from local state.
func (h *Hybrid) Read(ctx context.Context, path string) ([]byte, error) {
	return h.local.Read(ctx, path)
}

// List answers from local state.
func (h *Hybrid) List(ctx context.Context, prefix string) ([]string, error) {
	return h.local.List(ctx, prefix)
}

// Exists answers from local state.
func (h *Hybrid) Exists(ctx context.Context, path string) (bool, error) {
	return h.local.Exists(ctx, path)
}

// Delete removes locally and queues the remote delete.
func (h *Hybrid) Delete(ctx context.Context, path string) error {
	if err := h.local.Delete(ctx, path); err != nil {
		return err
	}
	h.enqueue(mirrorOp{path: path, delete: true})
	return nil
}

// CopyTree copies locally; each copied file is mirrored like any write.
func (h *Hybrid) CopyTree(ctx context.Context, srcRoot, dstRoot string) error {
	paths, err := h.local.List(ctx, srcRoot)
	if err != nil {
		return err
	}
	for _, p := range paths {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, srcRoot), "/")
		data, err := h.local.Read(ctx, p)
		if err != nil {
			return err
		}
		if err := h.Write(ctx, dstRoot+"/"+rel, data); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates the directory locally and mirrors a marker remotely.
func (h *Hybrid) EnsureDir(ctx context.Context, path string) error {
	if err := h.local.EnsureDir(ctx, path); err != nil {
		return err
	}
	h.enqueue(mirrorOp{path: strings.Trim(path, "/") + "/.keep"})
	return nil
}

// Push synchronously mirrors everything under prefix from local to remote.
// Used for on-demand backfills (docvault snapshot push).
func (h *Hybrid) Push(ctx context.Context, prefix string) error {
	paths, err := h.local.List(ctx, prefix)
	if err != nil {
		return err
	}

	g, ctx := newGroup(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			data, err := h.local.Read(ctx, p)
			if err != nil {
				return err
			}
			return h.remote.Write(ctx, p, data)
		})
	}
	return g.Wait()
}

// Pull synchronously copies everything under prefix from remote to local.
// Used to materialize a snapshot created elsewhere (docvault snapshot pull).
func (h *Hybrid) Pull(ctx context.Context, prefix string) error {
	paths, err := h.remote.List(ctx, prefix)
	if err != nil {
		return err
	}

	g, ctx := newGroup(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			data, err := h.remote.Read(ctx, p)
			if err != nil {
				return err
			}
			return h.local.Write(ctx, p, data)
		})
	}
	return g.Wait()
}

// Close flushes the mirror queue and stops the mirror goroutine. Later
// writes still reach local storage but are no longer mirrored.
func (h *Hybrid) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.queue)
	})
	h.wg.Wait()
	return nil
}
