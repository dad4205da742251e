package stack

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/database"
	"github.com/dockhaven/dockhaven/internal/model"
)

const webAppCompose = `
services:
  web:
    image: nginx:alpine
    ports:
      - "8080:80"
    environment:
      - NGINX_HOST=localhost
`

const twoServiceCompose = `
services:
  app:
    image: ghcr.io/example/app:1.2
    environment:
      APP_MODE: production
    volumes:
      - appdata:/var/lib/app
    networks:
      - backend
  db:
    image: postgres:16
    networks:
      - backend
volumes:
  appdata:
networks:
  backend:
    ipam:
      config:
        - subnet: 172.22.0.0/26
`

func newTestService(t *testing.T) (*Service, *fakeEngine) {
	t.Helper()
	dir := t.TempDir()
	db := database.Init(filepath.Join(dir, "test.db"))
	engine := newFakeEngine()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(db, engine, acceptAllSubnets{}, dir, logger), engine
}

func TestCreateParsesAndRegisters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, &CreateStackRequest{Name: "web-app", Compose: webAppCompose})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Status != model.StackPending {
		t.Errorf("new stack status = %s, want pending", view.Status)
	}
	if len(view.Services) != 1 || view.Services[0] != "web" {
		t.Errorf("services = %v", view.Services)
	}

	// Compose mirror lands on disk.
	mirror := filepath.Join(svc.dataDir, "stacks", "web-app", "docker-compose.yml")
	if _, err := os.Stat(mirror); err != nil {
		t.Errorf("compose mirror not written: %v", err)
	}

	// Duplicate names are rejected before touching the engine.
	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "web-app", Compose: webAppCompose}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("duplicate create: got %v, want validation error", err)
	}
}

func TestCreateRejectsMalformedCompose(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), &CreateStackRequest{Name: "bad", Compose: "services: {}"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestDeployLifecycle(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "web-app", Compose: webAppCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Deploy(ctx, "web-app")
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if len(result.Containers) != 1 {
		t.Fatalf("containers = %v, want one", result.Containers)
	}
	if len(result.Networks) != 1 || result.Networks[0] != "web-app_default" {
		t.Errorf("networks = %v, want the stack default network", result.Networks)
	}
	if len(engine.pulls) != 1 || engine.pulls[0] != "nginx:alpine" {
		t.Errorf("pulls = %v", engine.pulls)
	}

	view, err := svc.Get(ctx, "web-app")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != model.StackRunning {
		t.Errorf("status = %s, want running", view.Status)
	}
	if view.RunningServices != 1 || view.StoppedServices != 0 {
		t.Errorf("counts = %d running / %d stopped", view.RunningServices, view.StoppedServices)
	}
	if view.DeployedAt == nil {
		t.Error("deployed_at not set")
	}

	// Stop flips intent and the live container state.
	if _, err := svc.Stop(ctx, "web-app"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	view, _ = svc.Get(ctx, "web-app")
	if view.Status != model.StackStopped || view.RunningServices != 0 || view.StoppedServices != 1 {
		t.Errorf("after stop: status=%s running=%d stopped=%d", view.Status, view.RunningServices, view.StoppedServices)
	}

	// Start brings the same container back without recreating it.
	if _, err := svc.Start(ctx, "web-app"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	view, _ = svc.Get(ctx, "web-app")
	if view.Status != model.StackRunning || view.RunningServices != 1 {
		t.Errorf("after start: status=%s running=%d", view.Status, view.RunningServices)
	}
	if len(engine.containers) != 1 {
		t.Errorf("start must not create new containers, have %d", len(engine.containers))
	}
}

func TestDeployIsIdempotent(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "shop", Compose: twoServiceCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := svc.Deploy(ctx, "shop")
	if err != nil {
		t.Fatalf("first deploy: %v", err)
	}
	second, err := svc.Deploy(ctx, "shop")
	if err != nil {
		t.Fatalf("second deploy of a running stack must succeed: %v", err)
	}

	if len(second.Containers) != len(first.Containers) {
		t.Errorf("second deploy containers = %v, want same as first %v", second.Containers, first.Containers)
	}
	if len(engine.containers) != 2 {
		t.Errorf("engine containers = %d, want 2 (one per service, no duplicates)", len(engine.containers))
	}
	if len(engine.networks) != 1 {
		t.Errorf("engine networks = %d, want 1", len(engine.networks))
	}
	if len(engine.volumes) != 1 {
		t.Errorf("engine volumes = %d, want 1", len(engine.volumes))
	}
	if _, ok := engine.volumes["shop_appdata"]; !ok {
		t.Errorf("volume not stack-prefixed: %v", engine.volumes)
	}
}

func TestDeployFailureMarksStackFailed(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()
	engine.failCreateContainer = errors.New("no space left on device")

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "web-app", Compose: webAppCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Deploy(ctx, "web-app")
	if apperr.KindOf(err) != apperr.KindDeployment {
		t.Fatalf("got %v, want deployment error", err)
	}

	view, _ := svc.Get(ctx, "web-app")
	if view.Status != model.StackFailed {
		t.Errorf("status = %s, want failed", view.Status)
	}
	// The network created before the failure is kept for inspection.
	if len(engine.networks) != 1 {
		t.Errorf("partial resources must survive, networks = %d", len(engine.networks))
	}
}

func TestDeployRejectedWhileDeploying(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "web-app", Compose: webAppCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.db.Model(&model.Stack{}).Where("name = ?", "web-app").
		Update("status", model.StackDeploying).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.Deploy(ctx, "web-app")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error for concurrent deploy", err)
	}
}

func TestDeployRejectsInvalidExplicitSubnet(t *testing.T) {
	svc, _ := newTestService(t)
	svc.subnets = rejectSubnets{reason: "overlaps network \"iot\""}
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "shop", Compose: twoServiceCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Deploy(ctx, "shop")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	view, _ := svc.Get(ctx, "shop")
	if view.Status != model.StackFailed {
		t.Errorf("status = %s, want failed", view.Status)
	}
}

func TestStackEnvOverridesServiceEnv(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateStackRequest{
		Name:    "web-app",
		Compose: webAppCompose,
		EnvVars: map[string]string{"NGINX_HOST": "lab.local", "EXTRA": "1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Deploy(ctx, "web-app"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	spec, ok := engine.specs["web-app_web_1"]
	if !ok {
		t.Fatalf("container not created: %v", engine.containers)
	}
	if spec.Env["NGINX_HOST"] != "lab.local" {
		t.Errorf("stack env must win over service env, got %q", spec.Env["NGINX_HOST"])
	}
	if spec.Env["EXTRA"] != "1" {
		t.Errorf("stack-only env missing: %v", spec.Env)
	}
	if spec.Labels[LabelService] != "web" || spec.Labels[LabelStack] != "web-app" {
		t.Errorf("ownership labels missing: %v", spec.Labels)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "shop", Compose: twoServiceCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Deploy(ctx, "shop"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	// One container disappears out of band; delete still succeeds.
	if err := engine.RemoveContainer(ctx, "shop_app_1"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.Delete(ctx, "shop", false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if out.ContainersRemoved != 2 {
		t.Errorf("containers removed = %d, want 2 (missing counts as removed)", out.ContainersRemoved)
	}
	if len(engine.containers) != 0 || len(engine.networks) != 0 {
		t.Errorf("engine not cleaned: %d containers, %d networks", len(engine.containers), len(engine.networks))
	}
	// Volumes are kept unless requested.
	if len(engine.volumes) != 1 {
		t.Errorf("volumes should survive a keep-volumes delete, have %d", len(engine.volumes))
	}

	if _, err := svc.Get(ctx, "shop"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("stack should be gone, got %v", err)
	}
}

func TestDeleteRemovesVolumesWhenAsked(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "shop", Compose: twoServiceCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Deploy(ctx, "shop"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	out, err := svc.Delete(ctx, "shop", true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if out.VolumesRemoved != 1 || len(engine.volumes) != 0 {
		t.Errorf("volumes removed = %d, engine volumes = %d", out.VolumesRemoved, len(engine.volumes))
	}
}

func TestReconcileMirrorsEngineState(t *testing.T) {
	svc, engine := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateStackRequest{Name: "shop", Compose: twoServiceCompose}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Deploy(ctx, "shop"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	var nets []model.Network
	if err := svc.db.Find(&nets).Error; err != nil {
		t.Fatal(err)
	}
	if len(nets) != 1 || !nets[0].Managed {
		t.Fatalf("network mirror rows = %+v, want one managed row", nets)
	}

	// A network removed out of band disappears from the mirror on the
	// next pass.
	if err := engine.RemoveNetwork(ctx, "shop_backend"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if err := svc.db.Find(&nets).Error; err != nil {
		t.Fatal(err)
	}
	if len(nets) != 0 {
		t.Errorf("stale mirror rows survived: %+v", nets)
	}
}
