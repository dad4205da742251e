package stack

import (
	"context"
	"strings"
	"time"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/compose"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/model"
	"github.com/google/uuid"
)

// DeployResult lists the engine resources a deploy ended up owning, in
// creation order. DeployID correlates the result with the deploy's log lines.
type DeployResult struct {
	DeployID   string   `json:"deploy_id"`
	Containers []string `json:"containers"`
	Networks   []string `json:"networks"`
	Volumes    []string `json:"volumes"`
}

// Deploy materializes a stack's compose document: networks first, then
// volumes, then one container per service in declaration order. Resources
// that already exist are reused, which makes a second deploy of an unchanged
// stack a no-op, so deploying an already-running stack is allowed.
//
// There is no rollback. A failure mid-way leaves the stack failed with
// whatever resources were created; the operator inspects and either fixes
// the document and redeploys or deletes the stack.
func (s *Service) Deploy(ctx context.Context, name string) (*DeployResult, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}

	// Single-row check-and-set; a concurrent deploy of the same stack loses.
	claim := s.db.Model(&model.Stack{}).
		Where("id = ? AND status <> ?", row.ID, model.StackDeploying).
		Update("status", model.StackDeploying)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, apperr.Validation("stack %q is already deploying", name)
	}

	doc, err := compose.Parse(row.ComposeDocument)
	if err != nil {
		s.setStatus(row.ID, model.StackFailed)
		return nil, err
	}

	sanitized := Sanitize(row.Name)
	result := &DeployResult{DeployID: uuid.NewString()}
	logger := s.logger.With("stack", name, "deploy", result.DeployID)
	logger.Info("deploy started", "services", len(doc.Services))
	fail := func(err error, step string, resource string) (*DeployResult, error) {
		s.setStatus(row.ID, model.StackFailed)
		logger.Error("deploy failed", "step", step, "resource", resource, "err", err)
		return nil, apperr.Deployment(err, "%s %s", step, resource)
	}

	labels := map[string]string{LabelStack: sanitized, LabelManaged: "true"}

	// Networks. A stack with no top-level network declarations gets a single
	// default network that every service joins.
	decls := doc.Networks
	if len(decls) == 0 {
		decls = []compose.NetworkDecl{{Name: "default"}}
	}
	netByDecl := make(map[string]string, len(decls))
	for _, decl := range decls {
		engineName := ResourceName(row.Name, decl.Name)
		netByDecl[decl.Name] = engineName

		if _, err := s.engine.InspectNetwork(ctx, engineName); err == nil {
			result.Networks = append(result.Networks, engineName)
			continue
		} else if !docker.IsNotFound(err) {
			return fail(err, "inspect network", engineName)
		}

		if decl.Subnet != "" {
			check, err := s.subnets.ValidateSubnet(ctx, decl.Subnet)
			if err != nil {
				return fail(err, "validate subnet for network", engineName)
			}
			if !check.Valid {
				s.setStatus(row.ID, model.StackFailed)
				return nil, apperr.Validation("network %q: %s", decl.Name, check.Reason)
			}
		}

		if _, err := s.engine.CreateNetwork(ctx, docker.NetworkSpec{
			Name:   engineName,
			Driver: decl.Driver,
			Subnet: decl.Subnet,
			Labels: labels,
		}); err != nil {
			return fail(err, "create network", engineName)
		}
		result.Networks = append(result.Networks, engineName)
	}

	// Top-level volumes.
	volByDecl := make(map[string]string, len(doc.Volumes))
	for _, decl := range doc.Volumes {
		engineName := ResourceName(row.Name, decl.Name)
		volByDecl[decl.Name] = engineName

		if _, err := s.engine.InspectVolume(ctx, engineName); err == nil {
			result.Volumes = append(result.Volumes, engineName)
			continue
		} else if !docker.IsNotFound(err) {
			return fail(err, "inspect volume", engineName)
		}

		if _, err := s.engine.CreateVolume(ctx, docker.VolumeSpec{
			Name:   engineName,
			Driver: decl.Driver,
			Labels: labels,
		}); err != nil {
			return fail(err, "create volume", engineName)
		}
		result.Volumes = append(result.Volumes, engineName)
	}

	// Containers, one per service, in declaration order.
	for _, svc := range doc.Services {
		ctrName := ContainerName(row.Name, svc.Name)

		if existing, err := s.engine.InspectContainer(ctx, ctrName); err == nil {
			if !existing.Running {
				if err := s.engine.StartContainer(ctx, existing.ID); err != nil {
					return fail(err, "start container", ctrName)
				}
			}
			result.Containers = append(result.Containers, existing.ID)
			continue
		} else if !docker.IsNotFound(err) {
			return fail(err, "inspect container", ctrName)
		}

		have, err := s.engine.HasImage(ctx, svc.Image)
		if err != nil {
			return fail(err, "inspect image for", ctrName)
		}
		if !have {
			logger.Info("pulling image", "service", svc.Name, "image", svc.Image)
			if err := s.engine.PullImage(ctx, svc.Image); err != nil {
				return fail(err, "pull image for", ctrName)
			}
		}

		env := make(map[string]string, len(svc.Environment)+len(row.EnvVars))
		for k, v := range svc.Environment {
			env[k] = v
		}
		for k, v := range row.EnvVars {
			env[k] = v
		}

		networks := make([]string, 0, len(svc.Networks))
		if len(svc.Networks) == 0 {
			networks = append(networks, result.Networks...)
		} else {
			for _, ref := range svc.Networks {
				if engineName, ok := netByDecl[ref]; ok {
					networks = append(networks, engineName)
				} else {
					// Reference to a network not declared at top level;
					// assume an external, pre-existing engine network.
					networks = append(networks, ref)
				}
			}
		}

		ctrLabels := map[string]string{
			LabelStack:   sanitized,
			LabelService: svc.Name,
			LabelManaged: "true",
		}

		spec := docker.ContainerSpec{
			Name:          ctrName,
			Image:         svc.Image,
			Env:           env,
			Ports:         svc.Ports,
			Binds:         s.translateVolumes(row.Name, svc, volByDecl),
			RestartPolicy: svc.Restart,
			Labels:        ctrLabels,
			Networks:      networks,
		}

		id, err := s.engine.CreateContainer(ctx, spec)
		if err != nil {
			return fail(err, "create container", ctrName)
		}
		if err := s.engine.StartContainer(ctx, id); err != nil {
			return fail(err, "start container", ctrName)
		}
		result.Containers = append(result.Containers, id)
	}

	now := time.Now()
	row.Status = model.StackRunning
	row.Services = doc.ServiceNames()
	row.ContainerIDs = result.Containers
	row.NetworkNames = result.Networks
	row.VolumeNames = result.Volumes
	row.DeployedAt = &now
	if err := s.db.Save(row).Error; err != nil {
		return result, err
	}

	if outcome, err := s.Reconcile(ctx); err != nil {
		logger.Warn("post-deploy reconciliation failed", "err", err)
	} else if len(outcome.Warnings) > 0 {
		logger.Warn("post-deploy reconciliation incomplete", "warnings", strings.Join(outcome.Warnings, "; "))
	}

	return result, nil
}

// translateVolumes turns compose volume entries into engine bind strings.
// Absolute host paths pass through, named volumes get the stack prefix, and
// relative paths are skipped with a warning since there is no project
// directory to resolve them against.
func (s *Service) translateVolumes(stackName string, svc compose.Service, volByDecl map[string]string) []string {
	binds := make([]string, 0, len(svc.Volumes))
	for _, entry := range svc.Volumes {
		src, rest, ok := strings.Cut(entry, ":")
		if !ok {
			// Anonymous volume, let the engine manage it.
			binds = append(binds, entry)
			continue
		}
		switch {
		case strings.HasPrefix(src, "/"):
			binds = append(binds, entry)
		case strings.HasPrefix(src, ".") || strings.Contains(src, "/"):
			s.logger.Warn("skipping relative bind mount", "stack", stackName, "service", svc.Name, "volume", entry)
		default:
			engineName, ok := volByDecl[src]
			if !ok {
				engineName = ResourceName(stackName, src)
			}
			binds = append(binds, engineName+":"+rest)
		}
	}
	return binds
}
