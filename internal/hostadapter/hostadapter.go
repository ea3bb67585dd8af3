// Package hostadapter is the projection host adapter of spec §4.10:
// translates host filesystem callbacks (directory enumeration, file
// info, read ranges) into C7 vfs.Source operations and manages the
// mountId -> vfs instance table, grounded on the teacher's
// internal/daemon (flock-guarded singleton resource, mutex-guarded
// running state) and internal/workflow.Manager lifecycle idioms.
package hostadapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rawmount/internal/mountregistry"
	"rawmount/internal/renderconfig"
	"rawmount/internal/vfs"
)

// MountRequest describes a source ready to be projected. The caller (the
// daemon/CLI entry point) has already built Source from the decoder
// variant appropriate for SourcePath; Adapter only owns lifecycle, never
// decoder selection.
type MountRequest struct {
	SourcePath string
	Variant    mountregistry.Variant
	MountRoot  string
	Source     vfs.Source
}

// MountInfo summarizes one live mount for listing/status output.
type MountInfo struct {
	ID         string
	SourcePath string
	Variant    mountregistry.Variant
	MountRoot  string
}

type mountEntry struct {
	req    MountRequest
	lock   *flock.Flock
	done   chan struct{}
	closed bool
}

// Adapter owns the live mountId -> vfs.Source table plus the host
// binding and the persisted registry. Concurrent List/Find/Read calls
// against different (or the same) mount never block one another beyond
// the brief RLock needed to look the mount up; synchronization below
// that belongs to the shared cache and to each vfs.Source itself.
type Adapter struct {
	mu     sync.RWMutex
	mounts map[string]*mountEntry

	shim     HostShim
	registry *mountregistry.Store
	logger   *slog.Logger
}

// New builds an Adapter. shim may be nil to use this platform's default
// binding (loopback-backed, see shim_<os>.go); registry may be nil to
// run without cross-restart mount persistence.
func New(registry *mountregistry.Store, shim HostShim, logger *slog.Logger) *Adapter {
	if shim == nil {
		shim = newPlatformShim()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		mounts:   make(map[string]*mountEntry),
		shim:     shim,
		registry: registry,
		logger:   logger,
	}
}

// Mount binds req.Source under req.MountRoot, guarding the root with a
// flock so two daemons can't project the same directory concurrently,
// and returns the newly assigned mount ID.
func (a *Adapter) Mount(ctx context.Context, req MountRequest) (string, error) {
	if req.Source == nil {
		return "", fmt.Errorf("hostadapter: mount request has no source")
	}
	if req.MountRoot == "" {
		return "", fmt.Errorf("hostadapter: mount request has no mount root")
	}

	lockPath := req.MountRoot + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("acquire mount lock: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("hostadapter: mount root %q is already in use", req.MountRoot)
	}

	id := uuid.NewString()
	if err := a.shim.Bind(id, req.MountRoot, req.Source); err != nil {
		_ = lock.Unlock()
		return "", fmt.Errorf("bind host shim: %w", err)
	}

	entry := &mountEntry{req: req, lock: lock, done: make(chan struct{})}
	a.mu.Lock()
	a.mounts[id] = entry
	a.mu.Unlock()

	if a.registry != nil {
		if err := a.registry.Insert(ctx, mountregistry.Mount{
			ID:         id,
			SourcePath: req.SourcePath,
			Variant:    req.Variant,
			MountRoot:  req.MountRoot,
			CreatedAt:  time.Now(),
		}); err != nil {
			a.logger.Warn("mount registry persist failed", slog.String("mount_id", id), slog.Any("error", err))
		}
	}

	a.logger.Info("mount created", slog.String("mount_id", id), slog.String("root", req.MountRoot))
	return id, nil
}

// Unmount tears a mount down: unbinds the host shim, releases the mount
// lock, cancels in-flight reads against that mount (per spec §4.10's
// cancellation rule — dropping the completion callback rather than
// returning bytes), and removes the persisted registry row.
func (a *Adapter) Unmount(ctx context.Context, mountID string) error {
	a.mu.Lock()
	entry, ok := a.mounts[mountID]
	if ok {
		delete(a.mounts, mountID)
	}
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("hostadapter: unknown mount %q", mountID)
	}

	close(entry.done)

	if err := a.shim.Unbind(mountID); err != nil {
		a.logger.Warn("unbind host shim failed", slog.String("mount_id", mountID), slog.Any("error", err))
	}
	if err := entry.lock.Unlock(); err != nil {
		a.logger.Warn("release mount lock failed", slog.String("mount_id", mountID), slog.Any("error", err))
	}
	if a.registry != nil {
		if _, err := a.registry.Remove(ctx, mountID); err != nil {
			a.logger.Warn("mount registry remove failed", slog.String("mount_id", mountID), slog.Any("error", err))
		}
	}

	a.logger.Info("mount removed", slog.String("mount_id", mountID))
	return nil
}

// List returns every currently live mount.
func (a *Adapter) List() []MountInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]MountInfo, 0, len(a.mounts))
	for id, entry := range a.mounts {
		out = append(out, MountInfo{
			ID:         id,
			SourcePath: entry.req.SourcePath,
			Variant:    entry.req.Variant,
			MountRoot:  entry.req.MountRoot,
		})
	}
	return out
}

func (a *Adapter) lookup(mountID string) (*mountEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entry, ok := a.mounts[mountID]
	if !ok {
		return nil, fmt.Errorf("hostadapter: unknown mount %q", mountID)
	}
	return entry, nil
}

// ListFiles implements the host's directory enumeration callback.
func (a *Adapter) ListFiles(mountID string, filter func(vfs.Entry) bool) ([]vfs.Entry, error) {
	entry, err := a.lookup(mountID)
	if err != nil {
		return nil, err
	}
	return entry.req.Source.List(filter), nil
}

// FindEntry implements the host's lookup-by-name callback.
func (a *Adapter) FindEntry(mountID, name string) (vfs.Entry, bool, error) {
	entry, err := a.lookup(mountID)
	if err != nil {
		return vfs.Entry{}, false, err
	}
	found, ok := entry.req.Source.Find(name)
	return found, ok, nil
}

// FileInfo implements the host's file-info callback.
func (a *Adapter) FileInfo(mountID string, file vfs.Entry) (vfs.Info, error) {
	entry, err := a.lookup(mountID)
	if err != nil {
		return vfs.Info{}, err
	}
	return entry.req.Source.FileInfo(file)
}

// ReadFile implements the host's read-range callback. The read is bound
// to both the caller's context and the mount's lifetime: an Unmount that
// races a read cancels it, per spec §4.10.
func (a *Adapter) ReadFile(ctx context.Context, mountID string, file vfs.Entry, offset, length int64, dst []byte, cb vfs.AsyncCallback, async bool) (int, error) {
	entry, err := a.lookup(mountID)
	if err != nil {
		return 0, err
	}

	readCtx, cancel := context.WithCancel(ctx)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-entry.done:
			cancel()
		case <-stop:
		}
	}()
	defer cancel()

	return entry.req.Source.Read(readCtx, file, offset, length, dst, cb, async)
}

// UpdateOptions implements the host's render-config change callback.
func (a *Adapter) UpdateOptions(ctx context.Context, mountID string, cfg renderconfig.Config) error {
	entry, err := a.lookup(mountID)
	if err != nil {
		return err
	}
	return entry.req.Source.UpdateOptions(ctx, cfg)
}
