// Package health samples host and engine utilization on a fixed interval
// and keeps a bounded history for the dashboard's charts and threshold
// warnings.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/model"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// EngineInfo is the slice of the engine client the collector needs.
type EngineInfo interface {
	Info(ctx context.Context) (*docker.SystemSummary, error)
}

// Collector periodically writes HealthSample rows and prunes old ones.
type Collector struct {
	db     *gorm.DB
	engine EngineInfo
	every  time.Duration
	keep   int
	logger *slog.Logger
}

// NewCollector creates a Collector sampling every interval, retaining at
// most keep samples.
func NewCollector(db *gorm.DB, engine EngineInfo, every time.Duration, keep int, logger *slog.Logger) *Collector {
	return &Collector{db: db, engine: engine, every: every, keep: keep, logger: logger}
}

// Run samples until ctx is cancelled. Intended to be launched as a goroutine
// at startup; an unreachable engine or failed probe skips the sample rather
// than stopping the loop.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.every)
	defer ticker.Stop()

	c.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample(ctx)
		}
	}
}

func (c *Collector) sample(ctx context.Context) {
	row := model.HealthSample{}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		c.logger.Warn("cpu probe failed", "err", err)
	} else if len(percents) > 0 {
		row.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		c.logger.Warn("memory probe failed", "err", err)
	} else {
		row.MemPercent = vm.UsedPercent
	}

	if info, err := c.engine.Info(ctx); err != nil {
		c.logger.Warn("engine probe failed", "err", err)
	} else {
		row.ContainersRunning = info.Running
		row.ContainersTotal = info.Containers
	}

	if err := c.db.Create(&row).Error; err != nil {
		c.logger.Warn("health sample insert failed", "err", err)
		return
	}
	c.prune()
}

// prune drops everything but the newest keep samples.
func (c *Collector) prune() {
	var cutoff model.HealthSample
	err := c.db.Order("id desc").Offset(c.keep - 1).Limit(1).First(&cutoff).Error
	if err != nil {
		return
	}
	if err := c.db.Where("id < ?", cutoff.ID).Delete(&model.HealthSample{}).Error; err != nil {
		c.logger.Warn("health sample prune failed", "err", err)
	}
}

// Recent returns the newest n samples, oldest first.
func (c *Collector) Recent(n int) ([]model.HealthSample, error) {
	var rows []model.HealthSample
	if err := c.db.Order("id desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// Level classifies a utilization percentage against the profile thresholds.
func Level(percent float64, cfg *model.HostConfig) string {
	switch {
	case percent >= float64(cfg.CriticalPercent):
		return "critical"
	case percent >= float64(cfg.WarningPercent):
		return "warning"
	default:
		return "ok"
	}
}
