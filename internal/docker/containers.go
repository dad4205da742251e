package docker

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
)

// ContainerInfo is a simplified container representation for API responses.
type ContainerInfo struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Image   string            `json:"image"`
	State   string            `json:"state"`   // running, exited, paused, etc.
	Status  string            `json:"status"`  // human-readable, e.g. "Up 2 hours"
	Created int64             `json:"created"` // unix timestamp
	Ports   []PortBinding     `json:"ports"`
	Labels  map[string]string `json:"labels"`
}

// PortBinding is a simplified port mapping.
type PortBinding struct {
	HostPort      string `json:"host_port"`
	ContainerPort string `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// ContainerDetail is the inspect-level view used by the stack orchestrator.
type ContainerDetail struct {
	ID      string
	Name    string
	Image   string
	Running bool
	Labels  map[string]string
}

// ContainerSpec describes a container to create. Ports are compose-style
// "host:container" strings, volumes are "source:target[:mode]" binds.
type ContainerSpec struct {
	Name          string
	Image         string
	Env           map[string]string
	Ports         []string
	Binds         []string
	RestartPolicy string // compose restart value: no, always, on-failure, unless-stopped
	Labels        map[string]string
	Networks      []string // network names to attach at create time
}

// ListContainers returns all containers (including stopped when all=true).
func (c *Client) ListContainers(ctx context.Context, all bool) ([]ContainerInfo, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, err
	}

	result := make([]ContainerInfo, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}

		ports := make([]PortBinding, 0)
		for _, p := range ctr.Ports {
			ports = append(ports, PortBinding{
				HostPort:      portStr(p.PublicPort),
				ContainerPort: portStr(p.PrivatePort),
				Protocol:      p.Type,
			})
		}

		result = append(result, ContainerInfo{
			ID:      shortID(ctr.ID),
			Name:    name,
			Image:   ctr.Image,
			State:   ctr.State,
			Status:  ctr.Status,
			Created: ctr.Created,
			Ports:   ports,
			Labels:  ctr.Labels,
		})
	}
	return result, nil
}

// ListContainersByLabel returns all containers carrying the given label.
func (c *Client) ListContainersByLabel(ctx context.Context, key, value string) ([]ContainerDetail, error) {
	f := filters.NewArgs(filters.Arg("label", key+"="+value))
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: f})
	if err != nil {
		return nil, err
	}

	result := make([]ContainerDetail, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}
		result = append(result, ContainerDetail{
			ID:      ctr.ID,
			Name:    name,
			Image:   ctr.Image,
			Running: ctr.State == "running",
			Labels:  ctr.Labels,
		})
	}
	return result, nil
}

// InspectContainer looks up a container by name or id.
func (c *Client) InspectContainer(ctx context.Context, nameOrID string) (*ContainerDetail, error) {
	resp, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	detail := &ContainerDetail{
		ID:   resp.ID,
		Name: strings.TrimPrefix(resp.Name, "/"),
	}
	if resp.Config != nil {
		detail.Image = resp.Config.Image
		detail.Labels = resp.Config.Labels
	}
	if resp.State != nil {
		detail.Running = resp.State.Running
	}
	return detail, nil
}

// CreateContainer creates a container from spec and returns its id. The
// container is attached to spec.Networks at create time (first network) and
// via NetworkConnect for the rest; it is not started.
func (c *Client) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	exposed, bindings, err := nat.ParsePortSpecs(spec.Ports)
	if err != nil {
		return "", err
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          env,
		Labels:       spec.Labels,
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{
		Binds:        spec.Binds,
		PortBindings: bindings,
	}
	if spec.RestartPolicy != "" {
		hostCfg.RestartPolicy = container.RestartPolicy{
			Name: container.RestartPolicyMode(spec.RestartPolicy),
		}
	}

	var netCfg *network.NetworkingConfig
	if len(spec.Networks) > 0 {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Networks[0]: {},
			},
		}
	}

	created, err := c.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, spec.Name)
	if err != nil {
		return "", err
	}

	if len(spec.Networks) > 1 {
		for _, name := range spec.Networks[1:] {
			if err := c.cli.NetworkConnect(ctx, name, created.ID, nil); err != nil {
				return created.ID, err
			}
		}
	}
	return created.ID, nil
}

// StartContainer starts a stopped container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	return c.cli.ContainerStart(ctx, id, container.StartOptions{})
}

// StopContainer stops a running container. timeoutSec is the grace period
// before the engine kills the process; nil means engine default (~10s).
func (c *Client) StopContainer(ctx context.Context, id string, timeoutSec *int) error {
	return c.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: timeoutSec})
}

// RestartContainer restarts a container.
func (c *Client) RestartContainer(ctx context.Context, id string) error {
	timeout := 10
	return c.cli.ContainerRestart(ctx, id, container.StopOptions{Timeout: &timeout})
}

// RemoveContainer removes a container (force).
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	return c.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

// ContainerLogs returns the log output for a container.
func (c *Client) ContainerLogs(ctx context.Context, id string, tail string, follow bool) (io.ReadCloser, error) {
	if tail == "" {
		tail = "200"
	}
	return c.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
		Follow:     follow,
		Timestamps: true,
	})
}

// ContainerStats is a single snapshot of container resource usage.
type ContainerStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsage   uint64  `json:"mem_usage"`
	MemLimit   uint64  `json:"mem_limit"`
	MemPercent float64 `json:"mem_percent"`
	NetRx      uint64  `json:"net_rx"`
	NetTx      uint64  `json:"net_tx"`
}

// GetContainerStats returns a single stats snapshot.
func (c *Client) GetContainerStats(ctx context.Context, id string) (*ContainerStats, error) {
	resp, err := c.cli.ContainerStatsOneShot(ctx, id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := decodeJSON(resp.Body, &stats); err != nil {
		return nil, err
	}

	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage - stats.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(stats.CPUStats.SystemUsage - stats.PreCPUStats.SystemUsage)
	cpuPercent := 0.0
	if sysDelta > 0 && cpuDelta > 0 {
		cpuPercent = (cpuDelta / sysDelta) * float64(stats.CPUStats.OnlineCPUs) * 100.0
	}

	memPercent := 0.0
	if stats.MemoryStats.Limit > 0 {
		memPercent = float64(stats.MemoryStats.Usage) / float64(stats.MemoryStats.Limit) * 100.0
	}

	var netRx, netTx uint64
	for _, v := range stats.Networks {
		netRx += v.RxBytes
		netTx += v.TxBytes
	}

	return &ContainerStats{
		CPUPercent: cpuPercent,
		MemUsage:   stats.MemoryStats.Usage,
		MemLimit:   stats.MemoryStats.Limit,
		MemPercent: memPercent,
		NetRx:      netRx,
		NetTx:      netTx,
	}, nil
}
