// Package decodertest provides in-memory fakes for the three decoder
// contracts, in the style of the teacher's internal/testsupport fixture
// builders: functional options over a struct with sensible defaults.
package decodertest

import (
	"context"
	"fmt"

	"rawmount/internal/camera"
	"rawmount/internal/decoder"
)

// SolidBayerFrame builds a uniform-value width*height single-plane Bayer
// frame, convenient for pipeline tests that don't care about content.
func SolidBayerFrame(width, height int, value uint16, arrangement camera.Arrangement, timestamp int64) decoder.Frame {
	buf := make([]uint16, width*height)
	for i := range buf {
		buf[i] = value
	}
	return decoder.Frame{
		Buf:       buf,
		Timestamp: timestamp,
		Meta: camera.FrameMetadata{
			Width:             width,
			Height:            height,
			SensorWidth:       width,
			SensorHeight:      height,
			SensorArrangement: arrangement,
			BlackLevel:        [4]float64{64, 64, 64, 64},
			WhiteLevel:        1023,
		},
	}
}

// MCRAW is a fake MCRAWDecoder backed by an in-memory frame list.
type MCRAW struct {
	container  camera.ContainerMetadata
	frames     []decoder.Frame
	hasAudio   bool
	audio      []decoder.AudioChunk
	sampleRate int
	channels   int
	opened     bool
}

// MCRAWOption configures a MCRAW fixture.
type MCRAWOption func(*MCRAW)

// WithContainer sets the container metadata returned by Container().
func WithContainer(c camera.ContainerMetadata) MCRAWOption {
	return func(f *MCRAW) { f.container = c }
}

// WithFrames sets the frame list FrameAt/Timestamps serve.
func WithFrames(frames []decoder.Frame) MCRAWOption {
	return func(f *MCRAW) { f.frames = frames }
}

// WithAudio attaches audio chunks plus their sample rate and channel count.
func WithAudio(chunks []decoder.AudioChunk, sampleRate, channels int) MCRAWOption {
	return func(f *MCRAW) {
		f.hasAudio = true
		f.audio = chunks
		f.sampleRate = sampleRate
		f.channels = channels
	}
}

// NewMCRAW builds a fake MCRAWDecoder.
func NewMCRAW(opts ...MCRAWOption) *MCRAW {
	f := &MCRAW{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *MCRAW) Open(_ context.Context, _ string) error { f.opened = true; return nil }
func (f *MCRAW) Close() error                            { f.opened = false; return nil }
func (f *MCRAW) Container() camera.ContainerMetadata      { return f.container }

func (f *MCRAW) Timestamps() []int64 {
	ts := make([]int64, len(f.frames))
	for i, fr := range f.frames {
		ts[i] = fr.Timestamp
	}
	return ts
}

func (f *MCRAW) FrameAt(_ context.Context, index int) (decoder.Frame, error) {
	if index < 0 || index >= len(f.frames) {
		return decoder.Frame{}, fmt.Errorf("decodertest: frame index %d out of range [0,%d)", index, len(f.frames))
	}
	return f.frames[index], nil
}

func (f *MCRAW) HasAudio() bool { return f.hasAudio }

func (f *MCRAW) AudioChunks(_ context.Context) ([]decoder.AudioChunk, int, int, error) {
	return f.audio, f.sampleRate, f.channels, nil
}

// DNGSequence is a fake DNGSequenceDecoder backed by an in-memory frame list.
type DNGSequence struct {
	container camera.ContainerMetadata
	frames    []decoder.Frame
}

// NewDNGSequence builds a fake DNGSequenceDecoder.
func NewDNGSequence(container camera.ContainerMetadata, frames []decoder.Frame) *DNGSequence {
	return &DNGSequence{container: container, frames: frames}
}

func (f *DNGSequence) Open(_ context.Context, _ string) error { return nil }
func (f *DNGSequence) Close() error                            { return nil }
func (f *DNGSequence) Container() camera.ContainerMetadata      { return f.container }

func (f *DNGSequence) Timestamps() []int64 {
	ts := make([]int64, len(f.frames))
	for i, fr := range f.frames {
		ts[i] = fr.Timestamp
	}
	return ts
}

func (f *DNGSequence) FrameAt(_ context.Context, index int) (decoder.Frame, error) {
	if index < 0 || index >= len(f.frames) {
		return decoder.Frame{}, fmt.Errorf("decodertest: frame index %d out of range [0,%d)", index, len(f.frames))
	}
	return f.frames[index], nil
}

// DirectLog is a fake DirectLogDecoder backed by an in-memory frame list.
type DirectLog struct {
	container camera.ContainerMetadata
	frames    []decoder.Frame
	hlg       bool
}

// NewDirectLog builds a fake DirectLogDecoder.
func NewDirectLog(container camera.ContainerMetadata, frames []decoder.Frame, hlg bool) *DirectLog {
	return &DirectLog{container: container, frames: frames, hlg: hlg}
}

func (f *DirectLog) Open(_ context.Context, _ string) error { return nil }
func (f *DirectLog) Close() error                            { return nil }
func (f *DirectLog) Container() camera.ContainerMetadata      { return f.container }
func (f *DirectLog) IsHLG() bool                              { return f.hlg }

func (f *DirectLog) Timestamps() []int64 {
	ts := make([]int64, len(f.frames))
	for i, fr := range f.frames {
		ts[i] = fr.Timestamp
	}
	return ts
}

func (f *DirectLog) FrameAt(_ context.Context, index int) (decoder.Frame, error) {
	if index < 0 || index >= len(f.frames) {
		return decoder.Frame{}, fmt.Errorf("decodertest: frame index %d out of range [0,%d)", index, len(f.frames))
	}
	return f.frames[index], nil
}
