package stack

import (
	"context"
	"fmt"
	"sync"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/netmgr"
)

// fakeEngine is an in-memory Engine for orchestrator tests. It mimics the
// daemon's observable behavior: inspect by name or id, not-found errors that
// satisfy docker.IsNotFound, containers that must exist before they start.
type fakeEngine struct {
	mu         sync.Mutex
	networks   map[string]*docker.NetworkDetail
	volumes    map[string]*docker.VolumeDetail
	containers map[string]*docker.ContainerDetail // keyed by name
	specs      map[string]docker.ContainerSpec    // create-time specs, keyed by name
	images     map[string]bool
	nextID     int

	pulls []string

	failCreateContainer error
	failCreateNetwork   error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		networks:   map[string]*docker.NetworkDetail{},
		volumes:    map[string]*docker.VolumeDetail{},
		containers: map[string]*docker.ContainerDetail{},
		specs:      map[string]docker.ContainerSpec{},
		images:     map[string]bool{},
	}
}

func notFound(what string) error {
	return fmt.Errorf("no such %s: %w", what, cerrdefs.ErrNotFound)
}

func (f *fakeEngine) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

func (f *fakeEngine) InspectNetwork(ctx context.Context, nameOrID string) (*docker.NetworkDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.networks[nameOrID]; ok {
		return n, nil
	}
	for _, n := range f.networks {
		if n.ID == nameOrID {
			return n, nil
		}
	}
	return nil, notFound("network")
}

func (f *fakeEngine) CreateNetwork(ctx context.Context, spec docker.NetworkSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateNetwork != nil {
		return "", f.failCreateNetwork
	}
	n := &docker.NetworkDetail{
		ID:     f.id("net"),
		Name:   spec.Name,
		Driver: spec.Driver,
		Subnet: spec.Subnet,
		Labels: spec.Labels,
	}
	f.networks[spec.Name] = n
	return n.ID, nil
}

func (f *fakeEngine) RemoveNetwork(ctx context.Context, nameOrID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, n := range f.networks {
		if name == nameOrID || n.ID == nameOrID {
			delete(f.networks, name)
			return nil
		}
	}
	return notFound("network")
}

func (f *fakeEngine) ListNetworks(ctx context.Context) ([]docker.NetworkDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]docker.NetworkDetail, 0, len(f.networks))
	for _, n := range f.networks {
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeEngine) ListVolumes(ctx context.Context) ([]docker.VolumeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]docker.VolumeDetail, 0, len(f.volumes))
	for _, v := range f.volumes {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeEngine) InspectVolume(ctx context.Context, name string) (*docker.VolumeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.volumes[name]; ok {
		return v, nil
	}
	return nil, notFound("volume")
}

func (f *fakeEngine) CreateVolume(ctx context.Context, spec docker.VolumeSpec) (*docker.VolumeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &docker.VolumeDetail{Name: spec.Name, Driver: spec.Driver, Labels: spec.Labels, Options: spec.Options}
	f.volumes[spec.Name] = v
	return v, nil
}

func (f *fakeEngine) RemoveVolume(ctx context.Context, name string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.volumes[name]; !ok {
		return notFound("volume")
	}
	delete(f.volumes, name)
	return nil
}

func (f *fakeEngine) InspectContainer(ctx context.Context, nameOrID string) (*docker.ContainerDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[nameOrID]; ok {
		return c, nil
	}
	for _, c := range f.containers {
		if c.ID == nameOrID {
			return c, nil
		}
	}
	return nil, notFound("container")
}

func (f *fakeEngine) CreateContainer(ctx context.Context, spec docker.ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateContainer != nil {
		return "", f.failCreateContainer
	}
	c := &docker.ContainerDetail{
		ID:     f.id("ctr"),
		Name:   spec.Name,
		Image:  spec.Image,
		Labels: spec.Labels,
	}
	f.containers[spec.Name] = c
	f.specs[spec.Name] = spec
	return c.ID, nil
}

func (f *fakeEngine) StartContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.containers {
		if c.ID == id || c.Name == id {
			c.Running = true
			return nil
		}
	}
	return notFound("container")
}

func (f *fakeEngine) StopContainer(ctx context.Context, id string, timeoutSec *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.containers {
		if c.ID == id || c.Name == id {
			c.Running = false
			return nil
		}
	}
	return notFound("container")
}

func (f *fakeEngine) RemoveContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, c := range f.containers {
		if c.ID == id || name == id {
			delete(f.containers, name)
			return nil
		}
	}
	return notFound("container")
}

func (f *fakeEngine) ListContainersByLabel(ctx context.Context, key, value string) ([]docker.ContainerDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []docker.ContainerDetail
	for _, c := range f.containers {
		if c.Labels[key] == value {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeEngine) HasImage(ctx context.Context, refStr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[refStr], nil
}

func (f *fakeEngine) PullImage(ctx context.Context, refStr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, refStr)
	f.images[refStr] = true
	return nil
}

// acceptAllSubnets is a SubnetValidator that never rejects.
type acceptAllSubnets struct{}

func (acceptAllSubnets) ValidateSubnet(ctx context.Context, cidr string) (*netmgr.ValidationResult, error) {
	return &netmgr.ValidationResult{Valid: true}, nil
}

// rejectSubnets rejects every subnet with a fixed reason.
type rejectSubnets struct{ reason string }

func (r rejectSubnets) ValidateSubnet(ctx context.Context, cidr string) (*netmgr.ValidationResult, error) {
	return &netmgr.ValidationResult{Reason: r.reason}, nil
}
