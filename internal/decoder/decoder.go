// Package decoder defines the three source-container contracts rawmount
// consumes (spec §6): MCRAW, a DNG sequence directory, and DirectLog
// MOV/MP4. Each decoder's own bitstream parsing is an external
// collaborator — these interfaces only describe the shapes the rest of
// the pipeline needs out of it.
package decoder

import (
	"context"

	"rawmount/internal/camera"
)

// Frame is one decoded source frame: the raw sample buffer (a single
// Bayer plane, or three planar R,G,B planes concatenated for a
// native-RGB DirectLog source) plus its metadata and capture timestamp.
type Frame struct {
	Buf       []uint16
	Meta      camera.FrameMetadata
	Timestamp int64 // nanoseconds, capture order

	// GainMapOpcodes is the optional per-frame DNG opcode list a DNG
	// sequence source may carry; nil for MCRAW and DirectLog sources.
	// rawmount passes it through uninterpreted (gain-map application is
	// a display-side concern, out of scope per spec.md's Non-goals).
	GainMapOpcodes []byte

	// RawDNG is the exact byte contents of the source DNG file, set only
	// by DNGSequenceDecoder.FrameAt. A DNG-sequence source is already a
	// finished DNG on disk, so spec §8 scenario 5 requires rawmount to
	// serve those bytes unmodified rather than re-encoding through synth
	// — nil for MCRAW and DirectLog, which have no source DNG to pass
	// through.
	RawDNG []byte

	// HLG is set by DirectLogDecoder from the source filename suffix.
	HLG bool
}

// AudioChunk is one decoded block of interleaved PCM audio samples.
type AudioChunk struct {
	Samples   []int16
	Timestamp int64 // nanoseconds, aligned to the same clock as video timestamps
}

// MCRAWDecoder decodes an MCRAW container.
type MCRAWDecoder interface {
	Open(ctx context.Context, path string) error
	Close() error

	Container() camera.ContainerMetadata
	Timestamps() []int64
	FrameAt(ctx context.Context, index int) (Frame, error)

	HasAudio() bool
	AudioChunks(ctx context.Context) (chunks []AudioChunk, sampleRate, channels int, err error)
}

// DNGSequenceDecoder decodes a directory of per-frame DNG files.
type DNGSequenceDecoder interface {
	Open(ctx context.Context, path string) error
	Close() error

	Container() camera.ContainerMetadata
	Timestamps() []int64
	FrameAt(ctx context.Context, index int) (Frame, error)
}

// DirectLogDecoder decodes a DirectLog MOV/MP4.
type DirectLogDecoder interface {
	Open(ctx context.Context, path string) error
	Close() error

	Container() camera.ContainerMetadata
	Timestamps() []int64
	FrameAt(ctx context.Context, index int) (Frame, error)

	IsHLG() bool
}
