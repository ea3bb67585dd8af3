package directlog

import (
	"context"
	"testing"

	"rawmount/internal/artifactcache"
	"rawmount/internal/camera"
	"rawmount/internal/decoder"
	"rawmount/internal/decoder/decodertest"
	"rawmount/internal/renderconfig"
	"rawmount/internal/vfs/shared"
)

func testFrames(n int) []decoder.Frame {
	frames := make([]decoder.Frame, n)
	for i := range frames {
		frames[i] = decodertest.SolidBayerFrame(8, 8, uint16(100+i), camera.ArrangementRGGB, int64(i)*33_333_333)
	}
	return frames
}

func TestOpenNeverProducesAudioEntry(t *testing.T) {
	fake := decodertest.NewDirectLog(camera.ContainerMetadata{Make: "Test"}, testFrames(2), false)

	base, err := Open(context.Background(), Options{
		SourceID:           "clip",
		Path:               "clip.mov",
		Decoder:            fake,
		Config:             renderconfig.Default(),
		Cache:              artifactcache.New(64 << 20),
		IOPool:             shared.NewPool(1),
		ProcessingPool:     shared.NewPool(1),
		DesktopSidecarName: "desktop.ini",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := base.List(nil)
	if len(entries) != 3 { // desktop.ini + 2 DNG entries
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Name == "audio.wav" {
			t.Fatal("DirectLog sources must never expose audio.wav")
		}
	}
}
