// Package daemon is rawmountd's resident process state: the single-instance
// lock, the shared cache and worker pools, the mount registry, and the
// hostadapter.Adapter they back. It is the business-logic layer internal/ipc
// dispatches onto, grounded on the teacher's internal/daemon (flock-guarded
// singleton lifecycle) and internal/workflow.Manager (owns the shared
// collaborators a long-lived process hands out to each request).
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rawmount/internal/artifactcache"
	"rawmount/internal/calibration"
	"rawmount/internal/config"
	"rawmount/internal/decoder"
	"rawmount/internal/hostadapter"
	"rawmount/internal/mountregistry"
	"rawmount/internal/renderconfig"
	"rawmount/internal/services"
	"rawmount/internal/vfs"
	"rawmount/internal/vfs/directlog"
	"rawmount/internal/vfs/dngseq"
	"rawmount/internal/vfs/mcraw"
	"rawmount/internal/vfs/shared"
)

// DecoderFactory supplies the concrete decoder implementations for each
// variant. Decoding a source container's bitstream is an external
// collaborator (spec §6); rawmount never ships one itself, so a production
// deployment links a real factory in at build time the way a database/sql
// driver registers itself. A zero-value field fails Mount for that variant
// with a services.ErrConfiguration error rather than panicking.
type DecoderFactory struct {
	OpenMCRAW     func(ctx context.Context, path string) (decoder.MCRAWDecoder, error)
	OpenDirectLog func(ctx context.Context, path string) (decoder.DirectLogDecoder, error)
	OpenDNGSeq    func(ctx context.Context, path string) (decoder.DNGSequenceDecoder, error)
}

// Daemon holds the collaborators a rawmountd process shares across every
// IPC request for its lifetime.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *artifactcache.Cache
	ioPool   *shared.Pool
	procPool *shared.Pool
	adapter  *hostadapter.Adapter
	registry *mountregistry.Store
	decoders DecoderFactory

	instanceLock *flock.Flock
	running      atomic.Bool
}

// New builds a Daemon from a loaded configuration. registry may be nil to
// run without cross-restart mount persistence.
func New(cfg *config.Config, logger *slog.Logger, registry *mountregistry.Store, decoders DecoderFactory) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	cache := artifactcache.New(cfg.Cache.MaxMiB * 1024 * 1024)
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		ioPool:   shared.NewPool(cfg.Pools.IOWorkers),
		procPool: shared.NewPool(cfg.Pools.ProcessingWorkers),
		adapter:  hostadapter.New(registry, nil, logger),
		registry: registry,
		decoders: decoders,
	}
}

// Start acquires the single-instance lock that keeps two rawmountd
// processes from racing over the same mount registry and lock directory.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return fmt.Errorf("daemon: already started")
	}
	lock := flock.New(filepath.Join(d.cfg.Paths.LockDir, "rawmountd.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("daemon: acquire instance lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("daemon: another rawmountd instance holds the lock")
	}
	d.instanceLock = lock
	d.running.Store(true)
	d.logger.Info("daemon started")
	return nil
}

// Stop releases the single-instance lock. It does not unmount anything;
// the caller is expected to Unmount everything still live first.
func (d *Daemon) Stop() error {
	if !d.running.CompareAndSwap(true, false) {
		return nil
	}
	if d.instanceLock != nil {
		if err := d.instanceLock.Unlock(); err != nil {
			return fmt.Errorf("daemon: release instance lock: %w", err)
		}
	}
	d.logger.Info("daemon stopped")
	return nil
}

// Config returns the daemon's loaded configuration.
func (d *Daemon) Config() *config.Config { return d.cfg }

// CacheStats returns the artifact cache's current occupancy.
func (d *Daemon) CacheStats() artifactcache.Stats { return d.cache.Stats() }

// CacheClear empties the artifact cache, including failure tombstones.
func (d *Daemon) CacheClear() { d.cache.Clear() }

// Mount opens sourcePath with the decoder registered for variant, wraps it
// as a vfs.Source via that variant's package, and hands it to the host
// adapter. The new mount's RenderConfig starts from cfg.
func (d *Daemon) Mount(ctx context.Context, sourcePath string, variant mountregistry.Variant, mountRoot string, cfg renderconfig.Config) (string, error) {
	calib, err := calibration.Load(sourcePath, d.logger)
	if err != nil {
		d.logger.Warn("calibration sidecar rejected, using defaults", slog.String("source", sourcePath), slog.Any("error", err))
	}

	sourceID := uuid.NewString()
	source, err := d.openSource(ctx, sourceID, sourcePath, variant, calib, cfg)
	if err != nil {
		return "", err
	}

	return d.adapter.Mount(ctx, hostadapter.MountRequest{
		SourcePath: sourcePath,
		Variant:    variant,
		MountRoot:  mountRoot,
		Source:     source,
	})
}

func (d *Daemon) openSource(ctx context.Context, sourceID, path string, variant mountregistry.Variant, calib calibration.Data, cfg renderconfig.Config) (vfs.Source, error) {
	switch variant {
	case mountregistry.VariantMCRAW:
		if d.decoders.OpenMCRAW == nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "Mount", "no MCRAW decoder backend is registered", nil)
		}
		dec, err := d.decoders.OpenMCRAW(ctx, path)
		if err != nil {
			return nil, services.Wrap(services.ErrSourceDecode, "daemon", "Mount", "open MCRAW decoder", err)
		}
		return mcraw.Open(ctx, mcraw.Options{
			SourceID: sourceID, Path: path, Decoder: dec,
			Calibration: calib, Config: cfg,
			Cache: d.cache, IOPool: d.ioPool, ProcessingPool: d.procPool,
			Logger: d.logger,
		})
	case mountregistry.VariantDirectLog:
		if d.decoders.OpenDirectLog == nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "Mount", "no DirectLog decoder backend is registered", nil)
		}
		dec, err := d.decoders.OpenDirectLog(ctx, path)
		if err != nil {
			return nil, services.Wrap(services.ErrSourceDecode, "daemon", "Mount", "open DirectLog decoder", err)
		}
		return directlog.Open(ctx, directlog.Options{
			SourceID: sourceID, Path: path, Decoder: dec,
			Calibration: calib, Config: cfg,
			Cache: d.cache, IOPool: d.ioPool, ProcessingPool: d.procPool,
			Logger: d.logger,
		})
	case mountregistry.VariantDNGSeq:
		if d.decoders.OpenDNGSeq == nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "Mount", "no DNG-sequence decoder backend is registered", nil)
		}
		dec, err := d.decoders.OpenDNGSeq(ctx, path)
		if err != nil {
			return nil, services.Wrap(services.ErrSourceDecode, "daemon", "Mount", "open DNG-sequence decoder", err)
		}
		return dngseq.Open(ctx, dngseq.Options{
			SourceID: sourceID, Path: path, Decoder: dec,
			Calibration: calib, Config: cfg,
			Cache: d.cache, IOPool: d.ioPool, ProcessingPool: d.procPool,
			Logger: d.logger,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "Mount", fmt.Sprintf("unknown variant %q", variant), nil)
	}
}

// Unmount tears the named mount down.
func (d *Daemon) Unmount(ctx context.Context, mountID string) error {
	return d.adapter.Unmount(ctx, mountID)
}

// List returns every currently live mount.
func (d *Daemon) List() []hostadapter.MountInfo { return d.adapter.List() }

// UpdateOptions pushes a new RenderConfig to a live mount.
func (d *Daemon) UpdateOptions(ctx context.Context, mountID string, cfg renderconfig.Config) error {
	return d.adapter.UpdateOptions(ctx, mountID, cfg)
}

// Close stops the daemon and releases the mount registry's database
// handle.
func (d *Daemon) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	if d.registry != nil {
		return d.registry.Close()
	}
	return nil
}

// ValidateConfigFile parses and validates a candidate config file at path
// without adopting it, for the CLI's "config validate" command.
func ValidateConfigFile(path string) error {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return err
	}
	return cfg.Validate()
}
