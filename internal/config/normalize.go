package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePools()
	c.normalizeCache()
	c.normalizeRenderDefaults()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.MountRegistryPath == "" {
		c.Paths.MountRegistryPath = defaultMountRegistryPath
	}
	if c.Paths.MountRegistryPath, err = expandPath(c.Paths.MountRegistryPath); err != nil {
		return fmt.Errorf("paths.mount_registry_path: %w", err)
	}
	if c.Paths.LockDir == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePools() {
	if c.Pools.IOWorkers <= 0 {
		c.Pools.IOWorkers = defaultIOWorkers
	}
	if c.Pools.ProcessingWorkers <= 0 {
		c.Pools.ProcessingWorkers = runtime.GOMAXPROCS(0)
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.MaxMiB <= 0 {
		c.Cache.MaxMiB = defaultCacheMaxMiB
	}
}

func (c *Config) normalizeRenderDefaults() {
	if c.RenderDefaults.DraftScale <= 0 {
		c.RenderDefaults.DraftScale = defaultDraftScale
	}
	// Draft scale must round to the nearest even integer, min 2, per spec §4.3.
	if c.RenderDefaults.DraftScale%2 != 0 {
		c.RenderDefaults.DraftScale++
	}
	if c.RenderDefaults.DraftScale < 2 {
		c.RenderDefaults.DraftScale = 2
	}
	c.RenderDefaults.Levels = strings.TrimSpace(c.RenderDefaults.Levels)
	if c.RenderDefaults.Levels == "" {
		c.RenderDefaults.Levels = defaultLevels
	}
	c.RenderDefaults.CFRTarget = strings.TrimSpace(c.RenderDefaults.CFRTarget)
	if c.RenderDefaults.CFRTarget == "" {
		c.RenderDefaults.CFRTarget = defaultCFRTarget
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
