package netmgr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/database"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/hardware"
	"github.com/dockhaven/dockhaven/internal/model"
)

type fakeNetEngine struct {
	networks map[string]*docker.NetworkDetail
	nextID   int
}

func newFakeNetEngine() *fakeNetEngine {
	return &fakeNetEngine{networks: map[string]*docker.NetworkDetail{}}
}

func (f *fakeNetEngine) ListNetworks(ctx context.Context) ([]docker.NetworkDetail, error) {
	out := make([]docker.NetworkDetail, 0, len(f.networks))
	for _, n := range f.networks {
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeNetEngine) InspectNetwork(ctx context.Context, nameOrID string) (*docker.NetworkDetail, error) {
	if n, ok := f.networks[nameOrID]; ok {
		return n, nil
	}
	for _, n := range f.networks {
		if n.ID == nameOrID {
			return n, nil
		}
	}
	return nil, fmt.Errorf("no such network: %w", cerrdefs.ErrNotFound)
}

func (f *fakeNetEngine) CreateNetwork(ctx context.Context, spec docker.NetworkSpec) (string, error) {
	f.nextID++
	n := &docker.NetworkDetail{
		ID:     fmt.Sprintf("net-%04d", f.nextID),
		Name:   spec.Name,
		Driver: spec.Driver,
		Subnet: spec.Subnet,
		Labels: spec.Labels,
	}
	f.networks[spec.Name] = n
	return n.ID, nil
}

func (f *fakeNetEngine) RemoveNetwork(ctx context.Context, nameOrID string) error {
	for name, n := range f.networks {
		if name == nameOrID || n.ID == nameOrID {
			delete(f.networks, name)
			return nil
		}
	}
	return fmt.Errorf("no such network: %w", cerrdefs.ErrNotFound)
}

func newNetTestService(t *testing.T) (*Service, *fakeNetEngine) {
	t.Helper()
	db := database.Init(filepath.Join(t.TempDir(), "test.db"))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Pin the profile so validation does not depend on the test host.
	db.Create(&model.HostConfig{
		ProfileName:      hardware.ProfileMediumServer,
		CPUCores:         8,
		RAMGB:            16,
		MaxContainers:    50,
		WarningPercent:   80,
		CriticalPercent:  95,
		NetworkSizeLimit: 24,
	})

	engine := newFakeNetEngine()
	return NewService(db, engine, hardware.NewService(db, logger), logger), engine
}

func TestCreateValidatesBeforeEngineMutation(t *testing.T) {
	svc, engine := newNetTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateNetworkRequest{Name: "big", Subnet: "10.0.0.0/8"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if len(engine.networks) != 0 {
		t.Error("invalid subnet must not reach the engine")
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, _ := newNetTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, &CreateNetworkRequest{
		Name:    "media",
		Subnet:  "172.20.0.0/26",
		Purpose: "media containers",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !view.Managed || view.Purpose != "media containers" {
		t.Errorf("mirror metadata missing: %+v", view)
	}

	// A second create with the same name is rejected.
	if _, err := svc.Create(ctx, &CreateNetworkRequest{Name: "media"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("duplicate create: got %v, want validation error", err)
	}
}

func TestCreateRejectsOverlapWithLiveNetwork(t *testing.T) {
	svc, _ := newNetTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateNetworkRequest{Name: "iot", Subnet: "172.20.0.0/24"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, &CreateNetworkRequest{Name: "media", Subnet: "172.20.0.64/26"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error for overlap", err)
	}
}

func TestDeleteDropsMirrorRow(t *testing.T) {
	svc, engine := newNetTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateNetworkRequest{Name: "media", Subnet: "172.20.0.0/26"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "media"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(engine.networks) != 0 {
		t.Error("engine network not removed")
	}
	var count int64
	svc.db.Model(&model.Network{}).Count(&count)
	if count != 0 {
		t.Errorf("mirror rows remaining: %d", count)
	}

	// Deleting again is a no-op, not an error.
	if err := svc.Delete(ctx, "media"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDeleteRefusesDefaultNetworks(t *testing.T) {
	svc, engine := newNetTestService(t)
	ctx := context.Background()
	engine.networks["bridge"] = &docker.NetworkDetail{ID: "net-bridge", Name: "bridge", Subnet: "172.17.0.0/16"}

	if err := svc.Delete(ctx, "bridge"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUsageReportsOversized(t *testing.T) {
	svc, engine := newNetTestService(t)
	ctx := context.Background()
	engine.networks["media"] = &docker.NetworkDetail{
		ID: "net-1", Name: "media", Subnet: "172.20.0.0/24", Containers: 2,
	}

	report, err := svc.Usage(ctx, "media")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if report.UsableHosts != 254 || !report.Oversized {
		t.Errorf("report = %+v, want 254 hosts and oversized", report)
	}
}

func TestValidateSubnetUsesTierLimit(t *testing.T) {
	svc, _ := newNetTestService(t)
	ctx := context.Background()

	// The pinned medium profile caps at /24.
	result, err := svc.ValidateSubnet(ctx, "10.0.0.0/20")
	if err != nil {
		t.Fatalf("ValidateSubnet: %v", err)
	}
	if result.Valid {
		t.Error("/20 should exceed the medium tier limit of /24")
	}

	result, err = svc.ValidateSubnet(ctx, "10.0.0.0/24")
	if err != nil {
		t.Fatalf("ValidateSubnet: %v", err)
	}
	if !result.Valid {
		t.Errorf("/24 should pass, got %q", result.Reason)
	}
}
