package handler

import (
	"net/http"

	"github.com/dockhaven/dockhaven/internal/stack"
	"github.com/gin-gonic/gin"
)

// StackHandler manages compose stack endpoints
type StackHandler struct {
	svc *stack.Service
}

// NewStackHandler creates a new StackHandler
func NewStackHandler(svc *stack.Service) *StackHandler {
	return &StackHandler{svc: svc}
}

// List returns all stacks with live container counts
func (h *StackHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Create registers a new stack without deploying it
func (h *StackHandler) Create(c *gin.Context) {
	var req stack.CreateStackRequest
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

// Get returns one stack by name
func (h *StackHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Update edits a stack; with redeploy=true it is stopped and redeployed
func (h *StackHandler) Update(c *gin.Context) {
	var req stack.UpdateStackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.Update(c.Request.Context(), c.Param("name"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete tears a stack down; ?volumes=true also removes its named volumes
func (h *StackHandler) Delete(c *gin.Context) {
	removeVolumes := c.Query("volumes") == "true"
	out, err := h.svc.Delete(c.Request.Context(), c.Param("name"), removeVolumes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Deploy materializes the stack's compose document on the engine
func (h *StackHandler) Deploy(c *gin.Context) {
	name := c.Param("name")
	result, err := h.svc.Deploy(c.Request.Context(), name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stack":   name,
		"deployed": gin.H{
			"containers": len(result.Containers),
			"networks":   len(result.Networks),
			"volumes":    len(result.Volumes),
		},
		"resources": result,
	})
}

// Start starts all containers of a stopped stack
func (h *StackHandler) Start(c *gin.Context) {
	view, err := h.svc.Start(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Stop stops all containers of a running stack
func (h *StackHandler) Stop(c *gin.Context) {
	view, err := h.svc.Stop(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Sync runs a reconciliation pass against the engine
func (h *StackHandler) Sync(c *gin.Context) {
	out, err := h.svc.Reconcile(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
