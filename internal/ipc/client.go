package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Mount projects a source under a mount root.
func (c *Client) Mount(req MountRequest) (*MountResponse, error) {
	var resp MountResponse
	if err := c.client.Call("Rawmount.Mount", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unmount tears down a live mount by ID.
func (c *Client) Unmount(mountID string) (*UnmountResponse, error) {
	var resp UnmountResponse
	if err := c.client.Call("Rawmount.Unmount", UnmountRequest{MountID: mountID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns every currently live mount.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Rawmount.List", ListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderConfigSet pushes a new RenderConfig to a live mount.
func (c *Client) RenderConfigSet(req RenderConfigSetRequest) (*RenderConfigSetResponse, error) {
	var resp RenderConfigSetResponse
	if err := c.client.Call("Rawmount.RenderConfigSet", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheStats fetches artifact cache occupancy.
func (c *Client) CacheStats() (*CacheStatsResponse, error) {
	var resp CacheStatsResponse
	if err := c.client.Call("Rawmount.CacheStats", CacheStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheClear empties the artifact cache.
func (c *Client) CacheClear() (*CacheClearResponse, error) {
	var resp CacheClearResponse
	if err := c.client.Call("Rawmount.CacheClear", CacheClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigShow fetches the daemon's loaded configuration.
func (c *Client) ConfigShow() (*ConfigShowResponse, error) {
	var resp ConfigShowResponse
	if err := c.client.Call("Rawmount.ConfigShow", ConfigShowRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigValidate asks the daemon to validate a candidate config file.
func (c *Client) ConfigValidate(path string) (*ConfigValidateResponse, error) {
	var resp ConfigValidateResponse
	if err := c.client.Call("Rawmount.ConfigValidate", ConfigValidateRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
