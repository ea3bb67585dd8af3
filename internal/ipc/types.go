package ipc

import (
	"rawmount/internal/artifactcache"
	"rawmount/internal/hostadapter"
	"rawmount/internal/mountregistry"
	"rawmount/internal/renderconfig"
)

// MountRequest asks the daemon to project sourcePath under mountRoot.
type MountRequest struct {
	SourcePath string                `json:"source_path"`
	Variant    mountregistry.Variant `json:"variant"`
	MountRoot  string                `json:"mount_root"`
	Config     renderconfig.Config   `json:"config"`
}

// MountResponse returns the assigned mount ID.
type MountResponse struct {
	MountID string `json:"mount_id"`
}

// UnmountRequest tears down a mount by ID.
type UnmountRequest struct {
	MountID string `json:"mount_id"`
}

// UnmountResponse confirms the mount was removed.
type UnmountResponse struct {
	Unmounted bool `json:"unmounted"`
}

// ListRequest fetches every live mount.
type ListRequest struct{}

// MountInfo mirrors hostadapter.MountInfo for IPC transport.
type MountInfo = hostadapter.MountInfo

// ListResponse carries every live mount.
type ListResponse struct {
	Mounts []MountInfo `json:"mounts"`
}

// RenderConfigSetRequest pushes a new RenderConfig to a live mount.
type RenderConfigSetRequest struct {
	MountID string              `json:"mount_id"`
	Config  renderconfig.Config `json:"config"`
}

// RenderConfigSetResponse confirms the config change was applied.
type RenderConfigSetResponse struct {
	Applied bool `json:"applied"`
}

// CacheStatsRequest fetches artifact cache occupancy.
type CacheStatsRequest struct{}

// CacheStats mirrors artifactcache.Stats for IPC transport.
type CacheStats = artifactcache.Stats

// CacheStatsResponse carries the cache occupancy snapshot.
type CacheStatsResponse struct {
	Stats CacheStats `json:"stats"`
}

// CacheClearRequest empties the artifact cache.
type CacheClearRequest struct{}

// CacheClearResponse confirms the cache was cleared.
type CacheClearResponse struct {
	Cleared bool `json:"cleared"`
}

// ConfigShowRequest fetches the daemon's loaded configuration.
type ConfigShowRequest struct{}

// ConfigShowResponse carries the daemon's active configuration.
type ConfigShowResponse struct {
	IOWorkers         int    `json:"io_workers"`
	ProcessingWorkers int    `json:"processing_workers"`
	CacheMaxMiB       int64  `json:"cache_max_mib"`
	LogDir            string `json:"log_dir"`
	MountRegistryPath string `json:"mount_registry_path"`
	LockDir           string `json:"lock_dir"`
}

// ConfigValidateRequest asks the daemon to validate a candidate config
// file on disk without adopting it.
type ConfigValidateRequest struct {
	Path string `json:"path"`
}

// ConfigValidateResponse reports whether the candidate config parsed and
// validated cleanly.
type ConfigValidateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
