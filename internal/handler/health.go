package handler

import (
	"net/http"
	"strconv"

	"github.com/dockhaven/dockhaven/internal/hardware"
	"github.com/dockhaven/dockhaven/internal/health"
	"github.com/gin-gonic/gin"
)

// HealthHandler exposes the sampled utilization history
type HealthHandler struct {
	collector *health.Collector
	hw        *hardware.Service
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(collector *health.Collector, hw *hardware.Service) *HealthHandler {
	return &HealthHandler{collector: collector, hw: hw}
}

// History returns recent samples, oldest first; ?limit= defaults to 120
func (h *HealthHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "120"))
	rows, err := h.collector.Recent(limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Current returns the newest sample with threshold classification
func (h *HealthHandler) Current(c *gin.Context) {
	rows, err := h.collector.Recent(1)
	if err != nil {
		fail(c, err)
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusOK, gin.H{"sample": nil})
		return
	}
	profile, err := h.hw.GetOrCreate()
	if err != nil {
		fail(c, err)
		return
	}
	sample := rows[0]
	c.JSON(http.StatusOK, gin.H{
		"sample":    sample,
		"cpu_level": health.Level(sample.CPUPercent, profile),
		"mem_level": health.Level(sample.MemPercent, profile),
	})
}
