package docker

import (
	"context"

	"github.com/docker/docker/api/types/network"
)

// NetworkDetail is the inspect-level network view: identity, IPAM config and
// the set of attached containers.
type NetworkDetail struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Driver     string            `json:"driver"`
	Scope      string            `json:"scope"`
	Internal   bool              `json:"internal"`
	Subnet     string            `json:"subnet"`
	Gateway    string            `json:"gateway"`
	IPRange    string            `json:"ip_range"`
	Labels     map[string]string `json:"labels"`
	Containers int               `json:"containers"`
}

// NetworkSpec describes a network to create.
type NetworkSpec struct {
	Name    string
	Driver  string // defaults to bridge
	Subnet  string // optional CIDR
	Gateway string
	IPRange string
	Labels  map[string]string
}

// defaultNetworks are the engine-managed networks that never get metadata
// rows and are exempt from the oversized heuristic.
var defaultNetworks = map[string]bool{"bridge": true, "host": true, "none": true}

// IsDefaultNetwork reports whether name is one of the engine's built-in
// networks (bridge/host/none).
func IsDefaultNetwork(name string) bool {
	return defaultNetworks[name]
}

func toNetworkDetail(n network.Inspect) NetworkDetail {
	detail := NetworkDetail{
		ID:         n.ID,
		Name:       n.Name,
		Driver:     n.Driver,
		Scope:      n.Scope,
		Internal:   n.Internal,
		Labels:     n.Labels,
		Containers: len(n.Containers),
	}
	if len(n.IPAM.Config) > 0 {
		detail.Subnet = n.IPAM.Config[0].Subnet
		detail.Gateway = n.IPAM.Config[0].Gateway
		detail.IPRange = n.IPAM.Config[0].IPRange
	}
	return detail
}

// ListNetworks returns all Docker networks with their IPAM config.
func (c *Client) ListNetworks(ctx context.Context) ([]NetworkDetail, error) {
	nets, err := c.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, err
	}

	result := make([]NetworkDetail, 0, len(nets))
	for _, n := range nets {
		result = append(result, toNetworkDetail(n))
	}
	return result, nil
}

// InspectNetwork looks up a network by name or id.
func (c *Client) InspectNetwork(ctx context.Context, nameOrID string) (*NetworkDetail, error) {
	n, err := c.cli.NetworkInspect(ctx, nameOrID, network.InspectOptions{})
	if err != nil {
		return nil, err
	}
	detail := toNetworkDetail(n)
	return &detail, nil
}

// CreateNetwork creates a network and returns its engine-assigned id.
func (c *Client) CreateNetwork(ctx context.Context, spec NetworkSpec) (string, error) {
	driver := spec.Driver
	if driver == "" {
		driver = "bridge"
	}
	opts := network.CreateOptions{
		Driver: driver,
		Labels: spec.Labels,
	}
	if spec.Subnet != "" {
		opts.IPAM = &network.IPAM{
			Config: []network.IPAMConfig{{
				Subnet:  spec.Subnet,
				Gateway: spec.Gateway,
				IPRange: spec.IPRange,
			}},
		}
	}
	resp, err := c.cli.NetworkCreate(ctx, spec.Name, opts)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ConnectNetwork attaches a container to a network.
func (c *Client) ConnectNetwork(ctx context.Context, networkID, containerID string) error {
	return c.cli.NetworkConnect(ctx, networkID, containerID, nil)
}

// RemoveNetwork removes a network by name or id.
func (c *Client) RemoveNetwork(ctx context.Context, nameOrID string) error {
	return c.cli.NetworkRemove(ctx, nameOrID)
}
