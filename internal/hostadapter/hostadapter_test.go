package hostadapter

import (
	"context"
	"path/filepath"
	"testing"

	"rawmount/internal/mountregistry"
	"rawmount/internal/renderconfig"
	"rawmount/internal/vfs"
)

type fakeSource struct {
	entries        []vfs.Entry
	updateCfg      renderconfig.Config
	updateOptsHits int
}

func (f *fakeSource) List(filter func(vfs.Entry) bool) []vfs.Entry {
	out := make([]vfs.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if filter == nil || filter(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSource) Find(name string) (vfs.Entry, bool) {
	for _, e := range f.entries {
		if e.Name == name {
			return e, true
		}
	}
	return vfs.Entry{}, false
}

func (f *fakeSource) Read(_ context.Context, _ vfs.Entry, _, length int64, dst []byte, cb vfs.AsyncCallback, _ bool) (int, error) {
	n := int(length)
	if n > len(dst) {
		n = len(dst)
	}
	if cb != nil {
		cb(n, nil)
	}
	return n, nil
}

func (f *fakeSource) FileInfo(e vfs.Entry) (vfs.Info, error) {
	return vfs.Info{Size: e.Size}, nil
}

func (f *fakeSource) UpdateOptions(_ context.Context, cfg renderconfig.Config) error {
	f.updateCfg = cfg
	f.updateOptsHits++
	return nil
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return New(nil, newLoopbackShim(), nil)
}

func TestMountThenListFilesRoundTrips(t *testing.T) {
	a := newTestAdapter(t)
	source := &fakeSource{entries: []vfs.Entry{{Kind: vfs.File, Name: "frame_0000.dng", Size: 100}}}

	id, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw",
		Variant:    mountregistry.VariantMCRAW,
		MountRoot:  filepath.Join(t.TempDir(), "mnt"),
		Source:     source,
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	entries, err := a.ListFiles(id, nil)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "frame_0000.dng" {
		t.Fatalf("ListFiles = %+v, want one frame_0000.dng entry", entries)
	}
}

func TestMountRejectsSecondMountAtSameRoot(t *testing.T) {
	a := newTestAdapter(t)
	root := filepath.Join(t.TempDir(), "mnt")

	if _, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip-a.mcraw", Variant: mountregistry.VariantMCRAW, MountRoot: root, Source: &fakeSource{},
	}); err != nil {
		t.Fatalf("first Mount: %v", err)
	}
	if _, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip-b.mcraw", Variant: mountregistry.VariantMCRAW, MountRoot: root, Source: &fakeSource{},
	}); err == nil {
		t.Fatal("expected second mount at the same root to fail")
	}
}

func TestUnmountRemovesMountFromList(t *testing.T) {
	a := newTestAdapter(t)
	id, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw", Variant: mountregistry.VariantMCRAW,
		MountRoot: filepath.Join(t.TempDir(), "mnt"), Source: &fakeSource{},
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := a.Unmount(context.Background(), id); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if len(a.List()) != 0 {
		t.Fatal("expected no mounts after Unmount")
	}
	if _, err := a.ListFiles(id, nil); err == nil {
		t.Fatal("expected ListFiles against an unmounted id to fail")
	}
}

func TestUnmountAllowsRemountingSameRoot(t *testing.T) {
	a := newTestAdapter(t)
	root := filepath.Join(t.TempDir(), "mnt")

	id, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw", Variant: mountregistry.VariantMCRAW, MountRoot: root, Source: &fakeSource{},
	})
	if err != nil {
		t.Fatalf("first Mount: %v", err)
	}
	if err := a.Unmount(context.Background(), id); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if _, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw", Variant: mountregistry.VariantMCRAW, MountRoot: root, Source: &fakeSource{},
	}); err != nil {
		t.Fatalf("remount after unmount: %v", err)
	}
}

func TestReadFileDelegatesToSource(t *testing.T) {
	a := newTestAdapter(t)
	id, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw", Variant: mountregistry.VariantMCRAW,
		MountRoot: filepath.Join(t.TempDir(), "mnt"), Source: &fakeSource{},
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	dst := make([]byte, 16)
	n, err := a.ReadFile(context.Background(), id, vfs.Entry{Name: "x.dng"}, 0, 16, dst, nil, false)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n != 16 {
		t.Fatalf("ReadFile returned %d bytes, want 16", n)
	}
}

func TestUpdateOptionsDelegatesToSource(t *testing.T) {
	a := newTestAdapter(t)
	source := &fakeSource{}
	id, err := a.Mount(context.Background(), MountRequest{
		SourcePath: "clip.mcraw", Variant: mountregistry.VariantMCRAW,
		MountRoot: filepath.Join(t.TempDir(), "mnt"), Source: source,
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	cfg := renderconfig.Default()
	cfg.DraftScale = 4
	if err := a.UpdateOptions(context.Background(), id, cfg); err != nil {
		t.Fatalf("UpdateOptions: %v", err)
	}
	if source.updateOptsHits != 1 || source.updateCfg.DraftScale != 4 {
		t.Fatalf("UpdateOptions not delegated: hits=%d cfg=%+v", source.updateOptsHits, source.updateCfg)
	}
}
