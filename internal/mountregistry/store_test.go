package mountregistry_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"rawmount/internal/mountregistry"
)

func openTestStore(t *testing.T) *mountregistry.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mounts.db")
	store, err := mountregistry.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndGetRoundTrips(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	m := mountregistry.Mount{
		ID:         "mount-1",
		SourcePath: "/clips/a.mcraw",
		Variant:    mountregistry.VariantMCRAW,
		MountRoot:  "/mnt/rawmount/a",
		CreatedAt:  time.Now(),
	}
	if err := store.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Get(ctx, "mount-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.SourcePath != m.SourcePath || got.Variant != m.Variant {
		t.Fatalf("Get = %+v, want matching %+v", got, m)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get = %+v, want nil", got)
	}
}

func TestListReturnsAllInsertedMounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, variant := range []mountregistry.Variant{mountregistry.VariantMCRAW, mountregistry.VariantDirectLog} {
		m := mountregistry.Mount{
			ID:         fmt.Sprintf("mount-%d", i),
			SourcePath: fmt.Sprintf("/clips/%d", i),
			Variant:    variant,
			MountRoot:  fmt.Sprintf("/mnt/rawmount/%d", i),
			CreatedAt:  time.Now(),
		}
		if err := store.Insert(ctx, m); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	mounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mounts) != 2 {
		t.Fatalf("len(mounts) = %d, want 2", len(mounts))
	}
}

func TestRemoveDeletesMount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, mountregistry.Mount{
		ID: "mount-1", SourcePath: "/clips/a", Variant: mountregistry.VariantDNGSeq,
		MountRoot: "/mnt/a", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	removed, err := store.Remove(ctx, "mount-1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected Remove to report a removed row")
	}

	got, err := store.Get(ctx, "mount-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("expected mount to be gone after Remove")
	}
}
