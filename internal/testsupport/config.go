package testsupport

import (
	"path/filepath"
	"testing"

	"rawmount/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MountRegistryPath = filepath.Join(base, "mounts.db")
	cfgVal.Paths.LockDir = filepath.Join(base, "locks")
	cfgVal.Pools.ProcessingWorkers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDraftScale overrides the render default draft scale on the test config.
func WithDraftScale(scale int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RenderDefaults.DraftScale = scale
	}
}

// WithCacheBudget overrides the artifact cache budget on the test config.
func WithCacheBudget(maxMiB int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.MaxMiB = maxMiB
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LockDir)
}
