// Package directlog is the DirectLog MOV/MP4 virtual filesystem variant
// (spec §4.7): no audio track, wiring decoder.DirectLogDecoder into
// internal/vfs/shared.Base.
package directlog

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

// Options configures one opened DirectLog source.
type Options struct {
	SourceID string
	Path     string
	Decoder  decoder.DirectLogDecoder

	Calibration calibration.Data
	Config      renderconfig.Config

	Cache          *artifactcache.Cache
	IOPool         *shared.Pool
	ProcessingPool *shared.Pool

	DesktopSidecarName    string
	DesktopSidecarContent []byte

	Logger *slog.Logger
}

// Open decodes the DirectLog container's metadata and timestamps and
// builds a ready-to-serve vfs.Source. The HLG flag decoder.Frame carries
// per frame is read straight from opts.Decoder.IsHLG() at decode time;
// rawmount itself never branches on it beyond passing it through Frame.
func Open(ctx context.Context, opts Options) (*shared.Base, error) {
	if err := opts.Decoder.Open(ctx, opts.Path); err != nil {
		return nil, fmt.Errorf("vfs/directlog: open %s: %w", opts.Path, err)
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
