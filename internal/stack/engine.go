package stack

import (
	"context"

	"github.com/dockhaven/dockhaven/internal/docker"
)

// Engine is the slice of the container engine the orchestrator needs.
// *docker.Client satisfies it; tests inject a fake.
type Engine interface {
	InspectNetwork(ctx context.Context, nameOrID string) (*docker.NetworkDetail, error)
	CreateNetwork(ctx context.Context, spec docker.NetworkSpec) (string, error)
	RemoveNetwork(ctx context.Context, nameOrID string) error
	ListNetworks(ctx context.Context) ([]docker.NetworkDetail, error)

	ListVolumes(ctx context.Context) ([]docker.VolumeDetail, error)
	InspectVolume(ctx context.Context, name string) (*docker.VolumeDetail, error)
	CreateVolume(ctx context.Context, spec docker.VolumeSpec) (*docker.VolumeDetail, error)
	RemoveVolume(ctx context.Context, name string, force bool) error

	InspectContainer(ctx context.Context, nameOrID string) (*docker.ContainerDetail, error)
	CreateContainer(ctx context.Context, spec docker.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string, timeoutSec *int) error
	RemoveContainer(ctx context.Context, id string) error
	ListContainersByLabel(ctx context.Context, key, value string) ([]docker.ContainerDetail, error)

	HasImage(ctx context.Context, refStr string) (bool, error)
	PullImage(ctx context.Context, refStr string) error
}
