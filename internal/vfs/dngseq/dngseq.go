// Package dngseq is the DNG-sequence virtual filesystem variant (spec
// §4.7): no audio track, per-frame gain-map opcodes passed through
// uninterpreted, wiring decoder.DNGSequenceDecoder into
// internal/vfs/shared.Base.
package dngseq

import (
	"context"
	"fmt"
	"log/slog"

	"rawmount/internal/artifactcache"
	"rawmount/internal/calibration"
	"rawmount/internal/decoder"
	"rawmount/internal/renderconfig"
	"rawmount/internal/vfs/shared"
)

// Options configures one opened DNG-sequence source directory.
type Options struct {
	SourceID string
	Path     string
	Decoder  decoder.DNGSequenceDecoder

	Calibration calibration.Data
	Config      renderconfig.Config

	Cache          *artifactcache.Cache
	IOPool         *shared.Pool
	ProcessingPool *shared.Pool

	DesktopSidecarName    string
	DesktopSidecarContent []byte

	Logger *slog.Logger
}

// Open decodes the source directory's metadata and timestamps and
// builds a ready-to-serve vfs.Source.
func Open(ctx context.Context, opts Options) (*shared.Base, error) {
	if err := opts.Decoder.Open(ctx, opts.Path); err != nil {
		return nil, fmt.Errorf("vfs/dngseq: open %s: %w", opts.Path, err)
	}

	fetch := func(ctx context.Context, index int) (decoder.Frame, error) {
		return opts.Decoder.FrameAt(ctx, index)
	}

	return shared.New(ctx, shared.InitParams{
		SourceID:              opts.SourceID,
		Container:             opts.Decoder.Container(),
		Timestamps:            opts.Decoder.Timestamps(),
		FetchFrame:            fetch,
		Calibration:           opts.Calibration,
		Config:                opts.Config,
		Cache:                 opts.Cache,
		IOPool:                opts.IOPool,
		ProcessingPool:        opts.ProcessingPool,
		DesktopSidecarName:    opts.DesktopSidecarName,
		DesktopSidecarContent: opts.DesktopSidecarContent,
		Logger:                opts.Logger,
	})
}
