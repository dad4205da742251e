package netmgr

import (
	"context"
	"log/slog"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/hardware"
	"github.com/dockhaven/dockhaven/internal/model"
	"gorm.io/gorm"
)

// Engine is the slice of the container engine the network manager needs.
type Engine interface {
	ListNetworks(ctx context.Context) ([]docker.NetworkDetail, error)
	InspectNetwork(ctx context.Context, nameOrID string) (*docker.NetworkDetail, error)
	CreateNetwork(ctx context.Context, spec docker.NetworkSpec) (string, error)
	RemoveNetwork(ctx context.Context, nameOrID string) error
}

// Service implements network management over the engine and the metadata
// mirror table.
type Service struct {
	db     *gorm.DB
	engine Engine
	hw     *hardware.Service
	logger *slog.Logger
}

// NewService creates a network Service.
func NewService(db *gorm.DB, engine Engine, hw *hardware.Service, logger *slog.Logger) *Service {
	return &Service{db: db, engine: engine, hw: hw, logger: logger}
}

// NetworkView is an engine network annotated with mirror metadata and the
// oversized heuristic.
type NetworkView struct {
	docker.NetworkDetail
	Purpose   string `json:"purpose"`
	Managed   bool   `json:"managed"`
	Oversized bool   `json:"oversized"`
}

// CreateNetworkRequest is the input for creating a network.
type CreateNetworkRequest struct {
	Name    string `json:"name" binding:"required"`
	Driver  string `json:"driver"`
	Subnet  string `json:"subnet"`
	Gateway string `json:"gateway"`
	IPRange string `json:"ip_range"`
	Purpose string `json:"purpose"`
}

// LiveSubnets returns every subnet configured on a live engine network.
// Networks without IPAM (host, none) are skipped.
func (s *Service) LiveSubnets(ctx context.Context) ([]LiveSubnet, error) {
	nets, err := s.engine.ListNetworks(ctx)
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	subnets := make([]LiveSubnet, 0, len(nets))
	for _, n := range nets {
		if n.Subnet == "" {
			continue
		}
		subnets = append(subnets, LiveSubnet{NetworkName: n.Name, CIDR: n.Subnet})
	}
	return subnets, nil
}

// ValidateSubnet validates a CIDR against syntax, size bounds for the
// detected hardware tier, and overlap with live engine networks.
func (s *Service) ValidateSubnet(ctx context.Context, cidr string) (*ValidationResult, error) {
	cfg, err := s.hw.GetOrCreate()
	if err != nil {
		return nil, err
	}
	live, err := s.LiveSubnets(ctx)
	if err != nil {
		return nil, err
	}
	result := CheckSubnet(cidr, cfg.NetworkSizeLimit, live)
	return &result, nil
}

// Recommend proposes small/large subnets for the detected hardware tier.
func (s *Service) Recommend(ctx context.Context) (*Recommendation, error) {
	cfg, err := s.hw.GetOrCreate()
	if err != nil {
		return nil, err
	}
	live, err := s.LiveSubnets(ctx)
	if err != nil {
		return nil, err
	}
	return RecommendSubnets(cfg.ProfileName, live)
}

// List returns all engine networks annotated with mirror metadata and the
// oversized flag.
func (s *Service) List(ctx context.Context) ([]NetworkView, error) {
	nets, err := s.engine.ListNetworks(ctx)
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	var rows []model.Network
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Network, len(rows))
	for _, r := range rows {
		byID[r.NetworkID] = r
	}

	views := make([]NetworkView, 0, len(nets))
	for _, n := range nets {
		view := NetworkView{NetworkDetail: n}
		if row, ok := byID[n.ID]; ok {
			view.Purpose = row.Purpose
			view.Managed = row.Managed
		}
		if !docker.IsDefaultNetwork(n.Name) && n.Subnet != "" {
			view.Oversized = IsOversized(n.Subnet, n.Containers)
		}
		views = append(views, view)
	}
	return views, nil
}

// Get returns one network by engine name or id.
func (s *Service) Get(ctx context.Context, nameOrID string) (*NetworkView, error) {
	n, err := s.engine.InspectNetwork(ctx, nameOrID)
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	view := NetworkView{NetworkDetail: *n}
	var row model.Network
	if err := s.db.Where("network_id = ?", n.ID).First(&row).Error; err == nil {
		view.Purpose = row.Purpose
		view.Managed = row.Managed
	}
	if !docker.IsDefaultNetwork(n.Name) && n.Subnet != "" {
		view.Oversized = IsOversized(n.Subnet, n.Containers)
	}
	return &view, nil
}

// Create validates the request, creates the engine network and inserts its
// managed mirror row. Validation happens before any engine mutation.
func (s *Service) Create(ctx context.Context, req *CreateNetworkRequest) (*NetworkView, error) {
	if _, err := s.engine.InspectNetwork(ctx, req.Name); err == nil {
		return nil, apperr.Validation("network %q already exists", req.Name)
	} else if !docker.IsNotFound(err) {
		return nil, wrapEngineErr(err)
	}

	if req.Subnet != "" {
		result, err := s.ValidateSubnet(ctx, req.Subnet)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, apperr.Validation("invalid subnet: %s", result.Reason)
		}
	}

	id, err := s.engine.CreateNetwork(ctx, docker.NetworkSpec{
		Name:    req.Name,
		Driver:  req.Driver,
		Subnet:  req.Subnet,
		Gateway: req.Gateway,
		IPRange: req.IPRange,
	})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	row := model.Network{
		NetworkID: id,
		Name:      req.Name,
		Subnet:    req.Subnet,
		Gateway:   req.Gateway,
		IPRange:   req.IPRange,
		Driver:    orDefault(req.Driver, "bridge"),
		Purpose:   req.Purpose,
		Managed:   true,
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Error("network mirror insert failed", "network", req.Name, "err", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a network from the engine and drops its mirror row. A
// network already gone from the engine is not an error.
func (s *Service) Delete(ctx context.Context, nameOrID string) error {
	n, err := s.engine.InspectNetwork(ctx, nameOrID)
	if err != nil {
		if docker.IsNotFound(err) {
			// Engine no longer knows it; still drop any stale mirror row.
			s.db.Where("network_id = ? OR name = ?", nameOrID, nameOrID).Delete(&model.Network{})
			return nil
		}
		return wrapEngineErr(err)
	}
	if docker.IsDefaultNetwork(n.Name) {
		return apperr.Validation("cannot delete engine default network %q", n.Name)
	}

	if err := s.engine.RemoveNetwork(ctx, n.ID); err != nil && !docker.IsNotFound(err) {
		return wrapEngineErr(err)
	}
	return s.db.Where("network_id = ?", n.ID).Delete(&model.Network{}).Error
}

// UsageReport describes a network's address utilization.
type UsageReport struct {
	Name               string `json:"name"`
	Subnet             string `json:"subnet"`
	AttachedContainers int    `json:"attached_containers"`
	UsableHosts        int    `json:"usable_hosts"`
	Oversized          bool   `json:"oversized"`
}

// Usage returns the oversized-network report for one network.
func (s *Service) Usage(ctx context.Context, nameOrID string) (*UsageReport, error) {
	n, err := s.engine.InspectNetwork(ctx, nameOrID)
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	report := &UsageReport{
		Name:               n.Name,
		Subnet:             n.Subnet,
		AttachedContainers: n.Containers,
		UsableHosts:        usableHostsOf(n.Subnet),
	}
	if !docker.IsDefaultNetwork(n.Name) && n.Subnet != "" {
		report.Oversized = IsOversized(n.Subnet, n.Containers)
	}
	return report, nil
}

func wrapEngineErr(err error) error {
	switch {
	case err == nil:
		return nil
	case docker.IsUnreachable(err):
		return apperr.Connection(err)
	case docker.IsNotFound(err):
		return apperr.NotFound("network not found")
	default:
		return err
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
