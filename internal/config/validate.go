package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePools(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRenderDefaults(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePools() error {
	return ensurePositiveMap(map[string]int{
		"pools.io_workers":         c.Pools.IOWorkers,
		"pools.processing_workers": c.Pools.ProcessingWorkers,
	})
}

func (c *Config) validateCache() error {
	if c.Cache.MaxMiB <= 0 {
		return errors.New("cache.max_mib must be positive")
	}
	return nil
}

func (c *Config) validateRenderDefaults() error {
	if c.RenderDefaults.DraftScale < 2 {
		return errors.New("render_defaults.draft_scale must be at least 2")
	}
	if c.RenderDefaults.DraftScale%2 != 0 {
		return errors.New("render_defaults.draft_scale must be even")
	}
	switch c.RenderDefaults.Levels {
	case "Dynamic", "Static":
	default:
		if len(c.RenderDefaults.Levels) < 2 || c.RenderDefaults.Levels[:2] != "W/" {
			return fmt.Errorf("render_defaults.levels %q must be Dynamic, Static, or W/...", c.RenderDefaults.Levels)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
