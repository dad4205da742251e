// Package docker wraps the Docker Engine API client with the simplified
// types the rest of the dashboard works in. One Client is constructed per
// process and injected into the services that need it.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/client"
)

// Client wraps the Docker Engine API client with convenience methods.
type Client struct {
	cli *client.Client
}

// NewClient creates a Client connected to the Docker daemon.
// socketPath defaults to /var/run/docker.sock if empty.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		socketPath = "/var/run/docker.sock"
	}
	cli, err := client.NewClientWithOpts(
		client.WithHost("unix://"+socketPath),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli}, nil
}

// Close releases the Docker client resources.
func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping checks if Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// SystemSummary is the engine info summary exposed by the system endpoint.
type SystemSummary struct {
	ServerVersion string `json:"server_version"`
	Containers    int    `json:"containers"`
	Running       int    `json:"running"`
	Paused        int    `json:"paused"`
	Stopped       int    `json:"stopped"`
	Images        int    `json:"images"`
}

// Info returns system-level Docker information.
func (c *Client) Info(ctx context.Context) (*SystemSummary, error) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &SystemSummary{
		ServerVersion: info.ServerVersion,
		Containers:    info.Containers,
		Running:       info.ContainersRunning,
		Paused:        info.ContainersPaused,
		Stopped:       info.ContainersStopped,
		Images:        info.Images,
	}, nil
}

// IsNotFound reports whether err is the engine's "no such object" error.
// Best-effort cleanup paths swallow these instead of propagating them.
func IsNotFound(err error) bool {
	return cerrdefs.IsNotFound(err)
}

// IsUnreachable reports whether err means the daemon could not be reached
// at all, as opposed to rejecting the request.
func IsUnreachable(err error) bool {
	return client.IsErrConnectionFailed(err)
}

// ── Helpers ──

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func portStr(port uint16) string {
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("%d", port)
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
