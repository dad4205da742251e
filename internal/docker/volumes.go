package docker

import (
	"context"

	"github.com/docker/docker/api/types/volume"
)

// VolumeDetail is a simplified volume representation.
type VolumeDetail struct {
	Name       string            `json:"name"`
	Driver     string            `json:"driver"`
	Mountpoint string            `json:"mountpoint"`
	Labels     map[string]string `json:"labels"`
	Options    map[string]string `json:"options"`
	SizeBytes  *int64            `json:"size_bytes"`
	CreatedAt  string            `json:"created_at"`
}

// VolumeSpec describes a volume to create.
type VolumeSpec struct {
	Name    string
	Driver  string
	Labels  map[string]string
	Options map[string]string
}

func toVolumeDetail(v *volume.Volume) VolumeDetail {
	detail := VolumeDetail{
		Name:       v.Name,
		Driver:     v.Driver,
		Mountpoint: v.Mountpoint,
		Labels:     v.Labels,
		Options:    v.Options,
		CreatedAt:  v.CreatedAt,
	}
	if v.UsageData != nil && v.UsageData.Size >= 0 {
		size := v.UsageData.Size
		detail.SizeBytes = &size
	}
	return detail
}

// ListVolumes returns all Docker volumes.
func (c *Client) ListVolumes(ctx context.Context) ([]VolumeDetail, error) {
	resp, err := c.cli.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, err
	}

	result := make([]VolumeDetail, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		result = append(result, toVolumeDetail(v))
	}
	return result, nil
}

// InspectVolume looks up a volume by name.
func (c *Client) InspectVolume(ctx context.Context, name string) (*VolumeDetail, error) {
	v, err := c.cli.VolumeInspect(ctx, name)
	if err != nil {
		return nil, err
	}
	detail := toVolumeDetail(&v)
	return &detail, nil
}

// CreateVolume creates a named volume.
func (c *Client) CreateVolume(ctx context.Context, spec VolumeSpec) (*VolumeDetail, error) {
	v, err := c.cli.VolumeCreate(ctx, volume.CreateOptions{
		Name:       spec.Name,
		Driver:     spec.Driver,
		DriverOpts: spec.Options,
		Labels:     spec.Labels,
	})
	if err != nil {
		return nil, err
	}
	detail := toVolumeDetail(&v)
	return &detail, nil
}

// RemoveVolume removes a volume.
func (c *Client) RemoveVolume(ctx context.Context, name string, force bool) error {
	return c.cli.VolumeRemove(ctx, name, force)
}
