package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rawmount/internal/camera"
	"rawmount/internal/daemon"
	"rawmount/internal/decoder"
	"rawmount/internal/decoder/decodertest"
	"rawmount/internal/ipc"
	"rawmount/internal/logging"
	"rawmount/internal/mountregistry"
	"rawmount/internal/renderconfig"
	"rawmount/internal/testsupport"
)

func testFrames(n int) []decoder.Frame {
	frames := make([]decoder.Frame, n)
	for i := range frames {
		frames[i] = decodertest.SolidBayerFrame(4, 4, 512, camera.ArrangementRGGB, int64(i)*1_000_000)
	}
	return frames
}

func testFactory() daemon.DecoderFactory {
	return daemon.DecoderFactory{
		OpenMCRAW: func(context.Context, string) (decoder.MCRAWDecoder, error) {
			return decodertest.NewMCRAW(decodertest.WithFrames(testFrames(2))), nil
		},
	}
}

func TestIPCServerClientMountLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	d := daemon.New(cfg, logger, nil, testFactory())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "rawmountd.sock")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	root := filepath.Join(t.TempDir(), "mnt")
	mountResp, err := client.Mount(ipc.MountRequest{
		SourcePath: "clip.mcraw",
		Variant:    mountregistry.VariantMCRAW,
		MountRoot:  root,
		Config:     renderconfig.Default(),
	})
	if err != nil {
		t.Fatalf("Mount RPC failed: %v", err)
	}
	if mountResp.MountID == "" {
		t.Fatal("expected a non-empty mount id")
	}

	listResp, err := client.List()
	if err != nil {
		t.Fatalf("List RPC failed: %v", err)
	}
	if len(listResp.Mounts) != 1 || listResp.Mounts[0].ID != mountResp.MountID {
		t.Fatalf("List = %+v, want one mount with id %s", listResp.Mounts, mountResp.MountID)
	}

	cfgResp := renderconfig.Default()
	cfgResp.DraftScale = 4
	if _, err := client.RenderConfigSet(ipc.RenderConfigSetRequest{MountID: mountResp.MountID, Config: cfgResp}); err != nil {
		t.Fatalf("RenderConfigSet RPC failed: %v", err)
	}

	statsResp, err := client.CacheStats()
	if err != nil {
		t.Fatalf("CacheStats RPC failed: %v", err)
	}
	if statsResp.Stats.MaxBytes != cfg.Cache.MaxMiB*1024*1024 {
		t.Fatalf("CacheStats.MaxBytes = %d, want %d", statsResp.Stats.MaxBytes, cfg.Cache.MaxMiB*1024*1024)
	}

	if _, err := client.CacheClear(); err != nil {
		t.Fatalf("CacheClear RPC failed: %v", err)
	}

	showResp, err := client.ConfigShow()
	if err != nil {
		t.Fatalf("ConfigShow RPC failed: %v", err)
	}
	if showResp.MountRegistryPath != cfg.Paths.MountRegistryPath {
		t.Fatalf("ConfigShow.MountRegistryPath = %q, want %q", showResp.MountRegistryPath, cfg.Paths.MountRegistryPath)
	}

	unmountResp, err := client.Unmount(mountResp.MountID)
	if err != nil {
		t.Fatalf("Unmount RPC failed: %v", err)
	}
	if !unmountResp.Unmounted {
		t.Fatal("expected Unmounted=true")
	}

	listResp, err = client.List()
	if err != nil {
		t.Fatalf("List RPC after unmount failed: %v", err)
	}
	if len(listResp.Mounts) != 0 {
		t.Fatalf("expected no mounts after Unmount, got %+v", listResp.Mounts)
	}
}

func TestConfigValidateRPCAcceptsMissingFileAsDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	d := daemon.New(cfg, logger, nil, testFactory())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	socket := filepath.Join(cfg.Paths.LogDir, "rawmountd-validate.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	resp, err := client.ConfigValidate(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("ConfigValidate RPC failed: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected a missing config path to validate against defaults, got invalid: %s", resp.Message)
	}
}
