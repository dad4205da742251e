package stack

import (
	"context"
	"fmt"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/model"
)

// SyncOutcome summarizes one reconciliation pass. Per-resource failures are
// collected as warnings; only a total engine failure aborts the pass.
type SyncOutcome struct {
	NetworksSeen  int      `json:"networks_seen"`
	VolumesSeen   int      `json:"volumes_seen"`
	StacksUpdated int      `json:"stacks_updated"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Reconcile brings the metadata mirror in line with the engine. The engine
// is the source of truth: mirror rows are upserted for live resources,
// dropped for gone ones, and each stack's container id list is refreshed
// from the ownership labels.
func (s *Service) Reconcile(ctx context.Context) (*SyncOutcome, error) {
	out := &SyncOutcome{}
	warn := func(format string, args ...any) {
		out.Warnings = append(out.Warnings, fmt.Sprintf(format, args...))
	}

	if err := s.syncNetworks(ctx, out, warn); err != nil {
		return nil, err
	}
	if err := s.syncVolumes(ctx, out, warn); err != nil {
		return nil, err
	}
	if err := s.syncStacks(ctx, out, warn); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) syncNetworks(ctx context.Context, out *SyncOutcome, warn func(string, ...any)) error {
	nets, err := s.engine.ListNetworks(ctx)
	if err != nil {
		return err
	}

	liveIDs := make(map[string]bool, len(nets))
	for _, n := range nets {
		if docker.IsDefaultNetwork(n.Name) {
			continue
		}
		out.NetworksSeen++
		liveIDs[n.ID] = true

		row := model.Network{
			NetworkID: n.ID,
			Name:      n.Name,
			Subnet:    n.Subnet,
			Gateway:   n.Gateway,
			IPRange:   n.IPRange,
			Driver:    n.Driver,
			Managed:   n.Labels[LabelManaged] == "true",
		}
		var existing model.Network
		if err := s.db.Where("network_id = ?", n.ID).First(&existing).Error; err == nil {
			existing.Name = row.Name
			existing.Subnet = row.Subnet
			existing.Gateway = row.Gateway
			existing.IPRange = row.IPRange
			existing.Driver = row.Driver
			if row.Managed {
				existing.Managed = true
			}
			if err := s.db.Save(&existing).Error; err != nil {
				warn("update network row %s: %v", n.Name, err)
			}
		} else if err := s.db.Create(&row).Error; err != nil {
			warn("insert network row %s: %v", n.Name, err)
		}
	}

	// Drop rows for networks the engine no longer has.
	var stale []model.Network
	if err := s.db.Find(&stale).Error; err != nil {
		warn("load network rows: %v", err)
		return nil
	}
	for _, row := range stale {
		if !liveIDs[row.NetworkID] {
			if err := s.db.Delete(&model.Network{}, row.ID).Error; err != nil {
				warn("delete stale network row %s: %v", row.Name, err)
			}
		}
	}
	return nil
}

func (s *Service) syncVolumes(ctx context.Context, out *SyncOutcome, warn func(string, ...any)) error {
	vols, err := s.engine.ListVolumes(ctx)
	if err != nil {
		return err
	}

	liveNames := make(map[string]bool, len(vols))
	for _, v := range vols {
		out.VolumesSeen++
		liveNames[v.Name] = true

		row := model.Volume{
			VolumeID:   v.Name,
			Name:       v.Name,
			Driver:     v.Driver,
			MountPoint: v.Mountpoint,
			Labels:     v.Labels,
			Options:    v.Options,
			SizeBytes:  v.SizeBytes,
			Managed:    v.Labels[LabelManaged] == "true",
		}
		var existing model.Volume
		if err := s.db.Where("name = ?", v.Name).First(&existing).Error; err == nil {
			existing.Driver = row.Driver
			existing.MountPoint = row.MountPoint
			existing.Labels = row.Labels
			existing.Options = row.Options
			if row.SizeBytes != nil {
				existing.SizeBytes = row.SizeBytes
			}
			if row.Managed {
				existing.Managed = true
			}
			if err := s.db.Save(&existing).Error; err != nil {
				warn("update volume row %s: %v", v.Name, err)
			}
		} else if err := s.db.Create(&row).Error; err != nil {
			warn("insert volume row %s: %v", v.Name, err)
		}
	}

	var stale []model.Volume
	if err := s.db.Find(&stale).Error; err != nil {
		warn("load volume rows: %v", err)
		return nil
	}
	for _, row := range stale {
		if !liveNames[row.Name] {
			if err := s.db.Delete(&model.Volume{}, row.ID).Error; err != nil {
				warn("delete stale volume row %s: %v", row.Name, err)
			}
		}
	}
	return nil
}

// syncStacks refreshes each stack's container id list from the ownership
// labels. Status is intent and is never changed here.
func (s *Service) syncStacks(ctx context.Context, out *SyncOutcome, warn func(string, ...any)) error {
	var rows []model.Stack
	if err := s.db.Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		containers, err := s.engine.ListContainersByLabel(ctx, LabelStack, Sanitize(row.Name))
		if err != nil {
			warn("list containers for stack %s: %v", row.Name, err)
			continue
		}
		ids := make([]string, 0, len(containers))
		for _, ctr := range containers {
			ids = append(ids, ctr.ID)
		}
		if sameStrings(ids, row.ContainerIDs) {
			continue
		}
		if err := s.db.Model(&model.Stack{}).Where("id = ?", row.ID).
			Update("container_ids", ids).Error; err != nil {
			warn("update stack %s: %v", row.Name, err)
			continue
		}
		out.StacksUpdated++
	}
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}
