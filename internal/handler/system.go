package handler

import (
	"net/http"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/hardware"
	"github.com/gin-gonic/gin"
)

// SystemHandler exposes engine info and the hardware profile
type SystemHandler struct {
	cli *docker.Client
	hw  *hardware.Service
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(cli *docker.Client, hw *hardware.Service) *SystemHandler {
	return &SystemHandler{cli: cli, hw: hw}
}

// Info returns the engine summary and the detected hardware profile
func (h *SystemHandler) Info(c *gin.Context) {
	info, err := h.cli.Info(c.Request.Context())
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	profile, err := h.hw.GetOrCreate()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"engine": info, "hardware": profile})
}

// Hardware returns the detected hardware profile and its tier limits
func (h *SystemHandler) Hardware(c *gin.Context) {
	profile, err := h.hw.GetOrCreate()
	if err != nil {
		fail(c, err)
		return
	}
	tier := hardware.TierByName(profile.ProfileName)
	c.JSON(http.StatusOK, gin.H{"profile": profile, "tier": tier})
}

type thresholdsRequest struct {
	WarningPercent  *int `json:"warning_percent"`
	CriticalPercent *int `json:"critical_percent"`
}

// UpdateThresholds adjusts the utilization warning levels
func (h *SystemHandler) UpdateThresholds(c *gin.Context) {
	var req thresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.hw.UpdateThresholds(req.WarningPercent, req.CriticalPercent)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Ping reports whether the engine is reachable
func (h *SystemHandler) Ping(c *gin.Context) {
	if err := h.cli.Ping(c.Request.Context()); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
