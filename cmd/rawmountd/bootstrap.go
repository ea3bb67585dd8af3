package main

import (
	"path/filepath"

	"rawmount/internal/config"
	"rawmount/internal/daemon"
)

// buildDecoderFactory returns the decoder backend registered for this
// rawmountd build. Source-container bitstream decoding is an external
// collaborator (spec §6) this module never ships; a real deployment
// replaces this function to link in the MCRAW/DirectLog/DNG-sequence
// parser it actually has, the way a database driver registers itself
// with database/sql. A zero-value factory fails Mount for every variant
// with a clear configuration error instead of panicking.
func buildDecoderFactory(_ *config.Config) daemon.DecoderFactory {
	return daemon.DecoderFactory{}
}

func socketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "rawmountd.sock")
	}
	return filepath.Join(cfg.Paths.LogDir, "rawmountd.sock")
}
