package handler

import (
	"net/http"

	"github.com/dockhaven/dockhaven/internal/netmgr"
	"github.com/gin-gonic/gin"
)

// NetworkHandler manages network endpoints
type NetworkHandler struct {
	svc *netmgr.Service
}

// NewNetworkHandler creates a new NetworkHandler
func NewNetworkHandler(svc *netmgr.Service) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

// List returns all engine networks with metadata and the oversized flag
func (h *NetworkHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one network by name or id
func (h *NetworkHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create validates and creates a network
func (h *NetworkHandler) Create(c *gin.Context) {
	var req netmgr.CreateNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Delete removes a network
func (h *NetworkHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type validateSubnetRequest struct {
	Subnet string `json:"subnet" binding:"required"`
}

// ValidateSubnet checks a CIDR without creating anything
func (h *NetworkHandler) ValidateSubnet(c *gin.Context) {
	var req validateSubnetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.ValidateSubnet(c.Request.Context(), req.Subnet)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recommend proposes subnets sized for the detected hardware tier
func (h *NetworkHandler) Recommend(c *gin.Context) {
	rec, err := h.svc.Recommend(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Usage returns the address utilization report for one network
func (h *NetworkHandler) Usage(c *gin.Context) {
	report, err := h.svc.Usage(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
