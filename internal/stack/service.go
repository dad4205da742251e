// Package stack is the compose deployment engine: it turns a stack row and
// its compose document into live engine networks, volumes and containers,
// and keeps the metadata mirror in step with what the engine reports.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/compose"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/model"
	"github.com/dockhaven/dockhaven/internal/netmgr"
	"gorm.io/gorm"
)

// SubnetValidator checks explicit compose subnets before network creation.
// *netmgr.Service satisfies it.
type SubnetValidator interface {
	ValidateSubnet(ctx context.Context, cidr string) (*netmgr.ValidationResult, error)
}

// Service owns stack lifecycle: create, deploy, start, stop, update, delete.
type Service struct {
	db      *gorm.DB
	engine  Engine
	subnets SubnetValidator
	dataDir string
	logger  *slog.Logger

	// StopTimeoutSec is the grace period passed to the engine when stopping
	// containers. Zero means engine default.
	StopTimeoutSec int
}

// NewService creates a stack Service. dataDir is where compose documents are
// mirrored on disk, one directory per stack.
func NewService(db *gorm.DB, engine Engine, subnets SubnetValidator, dataDir string, logger *slog.Logger) *Service {
	return &Service{db: db, engine: engine, subnets: subnets, dataDir: dataDir, logger: logger}
}

// CreateStackRequest is the input for registering a new stack.
type CreateStackRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Compose     string            `json:"compose" binding:"required"`
	EnvVars     map[string]string `json:"env_vars"`
}

// UpdateStackRequest is the input for editing a stack. Nil fields are left
// unchanged. When Redeploy is set the stack is stopped and redeployed after
// the edit is persisted.
type UpdateStackRequest struct {
	Description *string            `json:"description"`
	Compose     *string            `json:"compose"`
	EnvVars     *map[string]string `json:"env_vars"`
	Redeploy    bool               `json:"redeploy"`
}

// StackView is a stack row annotated with live per-service container counts.
type StackView struct {
	model.Stack
	RunningServices int `json:"running_services"`
	StoppedServices int `json:"stopped_services"`
}

// Create validates and registers a stack without deploying it. The compose
// document must parse; the stack starts out stopped.
func (s *Service) Create(ctx context.Context, req *CreateStackRequest) (*StackView, error) {
	if Sanitize(req.Name) == "" {
		return nil, apperr.Validation("stack name %q contains no usable characters", req.Name)
	}

	var existing model.Stack
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, apperr.Validation("stack %q already exists", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	doc, err := compose.Parse(req.Compose)
	if err != nil {
		return nil, err
	}

	row := model.Stack{
		Name:            req.Name,
		Description:     req.Description,
		ComposeDocument: req.Compose,
		ComposeVersion:  doc.Version,
		Services:        doc.ServiceNames(),
		EnvVars:         req.EnvVars,
		Status:          model.StackPending,
		Managed:         true,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}

	if err := s.writeComposeFile(row.Name, req.Compose); err != nil {
		s.logger.Warn("compose file mirror failed", "stack", row.Name, "err", err)
	}

	return &StackView{Stack: row}, nil
}

// List returns all stacks with live container counts. Engine unavailability
// degrades to zero counts rather than failing the listing.
func (s *Service) List(ctx context.Context) ([]StackView, error) {
	var rows []model.Stack
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}

	running := map[string]int{}
	stopped := map[string]int{}
	containers, err := s.engine.ListContainersByLabel(ctx, LabelManaged, "true")
	if err != nil {
		s.logger.Warn("container listing unavailable", "err", err)
	} else {
		for _, ctr := range containers {
			owner := ctr.Labels[LabelStack]
			if owner == "" {
				continue
			}
			if ctr.Running {
				running[owner]++
			} else {
				stopped[owner]++
			}
		}
	}

	views := make([]StackView, 0, len(rows))
	for _, row := range rows {
		key := Sanitize(row.Name)
		views = append(views, StackView{
			Stack:           row,
			RunningServices: running[key],
			StoppedServices: stopped[key],
		})
	}
	return views, nil
}

// Get returns one stack by name with live container counts.
func (s *Service) Get(ctx context.Context, name string) (*StackView, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}

	view := &StackView{Stack: *row}
	containers, err := s.engine.ListContainersByLabel(ctx, LabelStack, Sanitize(row.Name))
	if err != nil {
		s.logger.Warn("container listing unavailable", "stack", name, "err", err)
		return view, nil
	}
	for _, ctr := range containers {
		if ctr.Running {
			view.RunningServices++
		} else {
			view.StoppedServices++
		}
	}
	return view, nil
}

// Update edits a stack's description, compose document or environment. A new
// compose document must parse before anything is persisted. With Redeploy
// set, the stack is stopped and deployed again after the edit.
func (s *Service) Update(ctx context.Context, name string, req *UpdateStackRequest) (*StackView, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if row.Status == model.StackDeploying {
		return nil, apperr.Validation("stack %q is deploying, try again later", name)
	}

	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.EnvVars != nil {
		row.EnvVars = *req.EnvVars
	}
	if req.Compose != nil {
		doc, err := compose.Parse(*req.Compose)
		if err != nil {
			return nil, err
		}
		row.ComposeDocument = *req.Compose
		row.ComposeVersion = doc.Version
		row.Services = doc.ServiceNames()
	}

	if err := s.db.Save(row).Error; err != nil {
		return nil, err
	}
	if req.Compose != nil {
		if err := s.writeComposeFile(row.Name, row.ComposeDocument); err != nil {
			s.logger.Warn("compose file mirror failed", "stack", row.Name, "err", err)
		}
	}

	if req.Redeploy {
		if _, err := s.Stop(ctx, name); err != nil {
			return nil, err
		}
		if _, err := s.Deploy(ctx, name); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, name)
}

// Start starts every known container of a stopped stack. Containers the
// engine no longer knows are skipped; a deploy is needed to recreate them.
func (s *Service) Start(ctx context.Context, name string) (*StackView, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if row.Status == model.StackDeploying {
		return nil, apperr.Validation("stack %q is deploying, try again later", name)
	}

	for _, id := range row.ContainerIDs {
		if err := s.engine.StartContainer(ctx, id); err != nil {
			if docker.IsNotFound(err) {
				s.logger.Warn("container missing on start", "stack", name, "container", id)
				continue
			}
			return nil, apperr.Deployment(err, "start container %s", id)
		}
	}

	if err := s.setStatus(row.ID, model.StackRunning); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// Stop stops every known container of a running stack.
func (s *Service) Stop(ctx context.Context, name string) (*StackView, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if row.Status == model.StackDeploying {
		return nil, apperr.Validation("stack %q is deploying, try again later", name)
	}

	var timeout *int
	if s.StopTimeoutSec > 0 {
		t := s.StopTimeoutSec
		timeout = &t
	}
	for _, id := range row.ContainerIDs {
		if err := s.engine.StopContainer(ctx, id, timeout); err != nil {
			if docker.IsNotFound(err) {
				continue
			}
			return nil, apperr.Deployment(err, "stop container %s", id)
		}
	}

	if err := s.setStatus(row.ID, model.StackStopped); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// DeleteOutcome reports a teardown. Teardown is best-effort: individual
// resource failures are collected as warnings, not returned as errors.
type DeleteOutcome struct {
	ContainersRemoved int      `json:"containers_removed"`
	NetworksRemoved   int      `json:"networks_removed"`
	VolumesRemoved    int      `json:"volumes_removed"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Delete tears a stack down: containers first, then networks, then (when
// requested) volumes, then the compose mirror and the database rows. Engine
// resources already gone are treated as removed.
func (s *Service) Delete(ctx context.Context, name string, removeVolumes bool) (*DeleteOutcome, error) {
	row, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if row.Status == model.StackDeploying {
		return nil, apperr.Validation("stack %q is deploying, try again later", name)
	}

	out := &DeleteOutcome{}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		out.Warnings = append(out.Warnings, msg)
		s.logger.Warn("stack teardown", "stack", name, "detail", msg)
	}

	// Discover containers by label rather than trusting the stored ids;
	// a crashed deploy may have created containers the row never saw.
	seen := map[string]bool{}
	containers, err := s.engine.ListContainersByLabel(ctx, LabelStack, Sanitize(row.Name))
	if err != nil {
		warn("container discovery failed: %v", err)
	}
	for _, ctr := range containers {
		seen[ctr.ID] = true
	}
	for _, id := range row.ContainerIDs {
		seen[id] = true
	}
	for id := range seen {
		if err := s.engine.RemoveContainer(ctx, id); err != nil {
			if docker.IsNotFound(err) {
				out.ContainersRemoved++
				continue
			}
			warn("remove container %s: %v", id, err)
			continue
		}
		out.ContainersRemoved++
	}

	for _, netName := range row.NetworkNames {
		if docker.IsDefaultNetwork(netName) {
			continue
		}
		if err := s.engine.RemoveNetwork(ctx, netName); err != nil && !docker.IsNotFound(err) {
			warn("remove network %s: %v", netName, err)
			continue
		}
		out.NetworksRemoved++
		s.db.Where("name = ?", netName).Delete(&model.Network{})
	}

	if removeVolumes {
		for _, volName := range row.VolumeNames {
			if err := s.engine.RemoveVolume(ctx, volName, false); err != nil && !docker.IsNotFound(err) {
				warn("remove volume %s: %v", volName, err)
				continue
			}
			out.VolumesRemoved++
			s.db.Where("name = ?", volName).Delete(&model.Volume{})
		}
	}

	if err := os.RemoveAll(s.stackDir(row.Name)); err != nil {
		warn("remove compose mirror: %v", err)
	}

	if err := s.db.Delete(&model.Stack{}, row.ID).Error; err != nil {
		return out, err
	}
	return out, nil
}

func (s *Service) load(name string) (*model.Stack, error) {
	var row model.Stack
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stack %q not found", name)
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) setStatus(id uint, status string) error {
	return s.db.Model(&model.Stack{}).Where("id = ?", id).Update("status", status).Error
}

func (s *Service) stackDir(name string) string {
	return filepath.Join(s.dataDir, "stacks", Sanitize(name))
}

func (s *Service) writeComposeFile(name, content string) error {
	dir := s.stackDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(content), 0o644)
}
