// Package ipc is rawmount's daemon-control channel (cmd/rawmount talking
// to cmd/rawmountd): JSON-RPC over a Unix domain socket, grounded
// file-for-file on the teacher's internal/ipc (server.go/client.go/types.go)
// using stdlib net/rpc + net/rpc/jsonrpc exactly as the teacher does — the
// teacher's go.mod carries no separate RPC dependency for this concern, so
// neither does rawmount's.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"rawmount/internal/daemon"
	"rawmount/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger}
	if err := rpcServer.RegisterName("Rawmount", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Mount(req MountRequest, resp *MountResponse) error {
	s.log().Debug("mount requested", logging.String(logging.FieldSource, req.SourcePath))
	id, err := s.daemon.Mount(context.Background(), req.SourcePath, req.Variant, req.MountRoot, req.Config)
	if err != nil {
		return err
	}
	resp.MountID = id
	s.log().Info("mount created via IPC",
		logging.String(logging.FieldEventType, "mount"),
		logging.String(logging.FieldMountID, id))
	return nil
}

func (s *service) Unmount(req UnmountRequest, resp *UnmountResponse) error {
	s.log().Debug("unmount requested", logging.String(logging.FieldMountID, req.MountID))
	if err := s.daemon.Unmount(context.Background(), req.MountID); err != nil {
		return err
	}
	resp.Unmounted = true
	s.log().Info("mount removed via IPC",
		logging.String(logging.FieldEventType, "unmount"),
		logging.String(logging.FieldMountID, req.MountID))
	return nil
}

func (s *service) List(_ ListRequest, resp *ListResponse) error {
	resp.Mounts = s.daemon.List()
	return nil
}

func (s *service) RenderConfigSet(req RenderConfigSetRequest, resp *RenderConfigSetResponse) error {
	if err := s.daemon.UpdateOptions(context.Background(), req.MountID, req.Config); err != nil {
		return err
	}
	resp.Applied = true
	s.log().Info("render config updated via IPC",
		logging.String(logging.FieldEventType, "render_config_set"),
		logging.String(logging.FieldMountID, req.MountID))
	return nil
}

func (s *service) CacheStats(_ CacheStatsRequest, resp *CacheStatsResponse) error {
	resp.Stats = s.daemon.CacheStats()
	return nil
}

func (s *service) CacheClear(_ CacheClearRequest, resp *CacheClearResponse) error {
	s.daemon.CacheClear()
	resp.Cleared = true
	s.log().Info("cache cleared via IPC", logging.String(logging.FieldEventType, "cache_clear"))
	return nil
}

func (s *service) ConfigShow(_ ConfigShowRequest, resp *ConfigShowResponse) error {
	cfg := s.daemon.Config()
	resp.IOWorkers = cfg.Pools.IOWorkers
	resp.ProcessingWorkers = cfg.Pools.ProcessingWorkers
	resp.CacheMaxMiB = cfg.Cache.MaxMiB
	resp.LogDir = cfg.Paths.LogDir
	resp.MountRegistryPath = cfg.Paths.MountRegistryPath
	resp.LockDir = cfg.Paths.LockDir
	return nil
}

func (s *service) ConfigValidate(req ConfigValidateRequest, resp *ConfigValidateResponse) error {
	if err := daemon.ValidateConfigFile(req.Path); err != nil {
		resp.Valid = false
		resp.Message = err.Error()
		return nil
	}
	resp.Valid = true
	resp.Message = "ok"
	return nil
}
