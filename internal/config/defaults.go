package config

const (
	defaultLogDir            = "~/.local/share/rawmount/logs"
	defaultMountRegistryPath = "~/.local/share/rawmount/mounts.db"
	defaultLockDir           = "~/.local/share/rawmount/locks"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultIOWorkers         = 4
	defaultCacheMaxMiB       = 2048
	defaultDraftScale        = 2
	defaultLevels            = "Dynamic"
	defaultCFRTarget         = "Median (Slowmotion)"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:            defaultLogDir,
			MountRegistryPath: defaultMountRegistryPath,
			LockDir:           defaultLockDir,
		},
		Pools: Pools{
			IOWorkers:         defaultIOWorkers,
			ProcessingWorkers: 0, // 0 means "hardware parallelism" per spec §5; resolved in normalize
		},
		Cache: Cache{
			MaxMiB: defaultCacheMaxMiB,
		},
		RenderDefaults: RenderDefaults{
			DraftScale: defaultDraftScale,
			Levels:     defaultLevels,
			CFRTarget:  defaultCFRTarget,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
