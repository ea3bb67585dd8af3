// Package mcraw is the MCRAW virtual filesystem variant (spec §4.7): the
// only variant that can expose an audio.wav entry, wiring
// decoder.MCRAWDecoder into internal/vfs/shared.Base.
package mcraw

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

// Options configures one opened MCRAW source.
type Options struct {
	SourceID string
	Path     string
	Decoder  decoder.MCRAWDecoder

	Calibration calibration.Data
	Config      renderconfig.Config

	Cache          *artifactcache.Cache
	IOPool         *shared.Pool
	ProcessingPool *shared.Pool

	DesktopSidecarName    string
	DesktopSidecarContent []byte

	Logger *slog.Logger
}

// Open decodes the MCRAW container's metadata and timestamps and builds
// a ready-to-serve vfs.Source.
func Open(ctx context.Context, opts Options) (*shared.Base, error) {
	if err := opts.Decoder.Open(ctx, opts.Path); err != nil {
		return nil, fmt.Errorf("vfs/mcraw: open %s: %w", opts.Path, err)
	}

	fetch := func(ctx context.Context, index int) (decoder.Frame, error) {
		return opts.Decoder.FrameAt(ctx, index)
	}

	var audio shared.AudioFetcher
	if opts.Decoder.HasAudio() {
		audio = func(ctx context.Context) ([]decoder.AudioChunk, int, int, error) {
			return opts.Decoder.AudioChunks(ctx)
		}
	}

	return shared.New(ctx, shared.InitParams{
		SourceID:              opts.SourceID,
		Container:             opts.Decoder.Container(),
		Timestamps:            opts.Decoder.Timestamps(),
		FetchFrame:            fetch,
		Audio:                 audio,
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
