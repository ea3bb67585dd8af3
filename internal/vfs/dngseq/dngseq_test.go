package dngseq

import (
	"bytes"
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
		f := decodertest.SolidBayerFrame(8, 8, uint16(100+i), camera.ArrangementRGGB, int64(i)*33_333_333)
		f.GainMapOpcodes = []byte{0xDE, 0xAD, 0xBE, 0xEF}
		frames[i] = f
	}
	return frames
}

func TestOpenPassesThroughOpaqueEntries(t *testing.T) {
	fake := decodertest.NewDNGSequence(camera.ContainerMetadata{Make: "Test"}, testFrames(2))

	base, err := Open(context.Background(), Options{
		SourceID:           "clip",
		Path:               "clip-dir",
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

	dngEntry, ok := base.Find(func() string {
		for _, e := range entries {
			if e.Name != "desktop.ini" {
				return e.Name
			}
		}
		return ""
	}())
	if !ok {
		t.Fatal("expected to find a DNG entry")
	}

	dst := make([]byte, dngEntry.Size)
	n, err := base.Read(context.Background(), dngEntry, 0, dngEntry.Size, dst, nil, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if int64(n) != dngEntry.Size {
		t.Fatalf("Read returned %d bytes, want %d", n, dngEntry.Size)
	}
	if !bytes.Contains(dst[:n], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatal("expected the gain-map opcode bytes to appear unchanged in the DNG")
	}
}

func rawDNGFrames(sources [][]byte) []decoder.Frame {
	frames := make([]decoder.Frame, len(sources))
	for i, raw := range sources {
		frames[i] = decoder.Frame{
			RawDNG:    raw,
			Timestamp: int64(i) * 33_333_333,
		}
	}
	return frames
}

// TestReadServesSourceBytesUnmodified covers bit-identical passthrough
// (spec §8 scenario 5): when the decoder supplies RawDNG, the bytes read
// back must be the exact source file, not a re-encoded DNG.
func TestReadServesSourceBytesUnmodified(t *testing.T) {
	sourceA := []byte("not a real dng but distinct from sourceB contents entirely")
	sourceB := []byte("a second distinct source file, different length and bytes")
	fake := decodertest.NewDNGSequence(camera.ContainerMetadata{Make: "Test"}, rawDNGFrames([][]byte{sourceA, sourceB}))

	base, err := Open(context.Background(), Options{
		SourceID:       "clip",
		Path:           "clip-dir",
		Decoder:        fake,
		Config:         renderconfig.Default(),
		Cache:          artifactcache.New(64 << 20),
		IOPool:         shared.NewPool(1),
		ProcessingPool: shared.NewPool(1),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := base.List(nil)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	want := [][]byte{sourceA, sourceB}
	for i, entry := range entries {
		if entry.Size != int64(len(want[i])) {
			t.Fatalf("entry %d Size = %d, want %d", i, entry.Size, len(want[i]))
		}
		dst := make([]byte, entry.Size)
		n, err := base.Read(context.Background(), entry, 0, entry.Size, dst, nil, false)
		if err != nil {
			t.Fatalf("Read entry %d: %v", i, err)
		}
		if string(dst[:n]) != string(want[i]) {
			t.Fatalf("entry %d bytes = %q, want %q", i, dst[:n], want[i])
		}
	}
}
