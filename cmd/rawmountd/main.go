package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rawmount/internal/config"
	"rawmount/internal/daemon"
	"rawmount/internal/ipc"
	"rawmount/internal/logging"
	"rawmount/internal/mountregistry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	registry, err := mountregistry.Open(cfg.Paths.MountRegistryPath)
	if err != nil {
		logger.Error("open mount registry", logging.Error(err))
		os.Exit(1)
	}

	d := daemon.New(cfg, logger, registry, buildDecoderFactory(cfg))
	defer d.Close()

	if err := d.Start(); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	sock := socketPath(cfg)
	ipcServer, err := ipc.NewServer(ctx, sock, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("rawmountd started", slog.String("socket", sock))

	<-ctx.Done()
	logger.Info("rawmountd shutting down")
}
