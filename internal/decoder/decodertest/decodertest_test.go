package decodertest

import (
	"context"
	"testing"

	"rawmount/internal/camera"
	"rawmount/internal/decoder"
)

var (
	_ decoder.MCRAWDecoder       = (*MCRAW)(nil)
	_ decoder.DNGSequenceDecoder = (*DNGSequence)(nil)
	_ decoder.DirectLogDecoder   = (*DirectLog)(nil)
)

func TestMCRAWServesFramesAndAudio(t *testing.T) {
	frames := []decoder.Frame{
		SolidBayerFrame(8, 8, 100, camera.ArrangementRGGB, 0),
		SolidBayerFrame(8, 8, 200, camera.ArrangementRGGB, 1_000_000),
	}
	audio := []decoder.AudioChunk{{Samples: []int16{1, 2, 3, 4}, Timestamp: 0}}

	m := NewMCRAW(
		WithContainer(camera.ContainerMetadata{Make: "Test", Model: "Cam"}),
		WithFrames(frames),
		WithAudio(audio, 48000, 2),
	)

	if err := m.Open(context.Background(), "clip.mcraw"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	if got := m.Container().Make; got != "Test" {
		t.Fatalf("Container().Make = %q, want Test", got)
	}
	if ts := m.Timestamps(); len(ts) != 2 || ts[1] != 1_000_000 {
		t.Fatalf("Timestamps = %v", ts)
	}
	frame, err := m.FrameAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if frame.Buf[0] != 200 {
		t.Fatalf("frame value = %d, want 200", frame.Buf[0])
	}
	if !m.HasAudio() {
		t.Fatal("expected HasAudio true")
	}
	chunks, rate, channels, err := m.AudioChunks(context.Background())
	if err != nil || len(chunks) != 1 || rate != 48000 || channels != 2 {
		t.Fatalf("AudioChunks = (%v,%d,%d,%v)", chunks, rate, channels, err)
	}
}

func TestMCRAWFrameAtOutOfRangeErrors(t *testing.T) {
	m := NewMCRAW()
	if _, err := m.FrameAt(context.Background(), 0); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestDirectLogReportsHLG(t *testing.T) {
	d := NewDirectLog(camera.ContainerMetadata{}, nil, true)
	if !d.IsHLG() {
		t.Fatal("expected IsHLG true")
	}
}
