package handler

import (
	"net/http"
	"strconv"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/gin-gonic/gin"
)

// ImageHandler manages image endpoints
type ImageHandler struct {
	cli *docker.Client
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(cli *docker.Client) *ImageHandler {
	return &ImageHandler{cli: cli}
}

// List returns all local images
func (h *ImageHandler) List(c *gin.Context) {
	images, err := h.cli.ListImages(c.Request.Context())
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, images)
}

type pullRequest struct {
	Image string `json:"image" binding:"required"`
}

// Pull pulls an image from a registry. Blocks until the pull completes.
func (h *ImageHandler) Pull(c *gin.Context) {
	var req pullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cli.PullImage(c.Request.Context(), req.Image); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"pulled": req.Image})
}

// Remove deletes a local image
func (h *ImageHandler) Remove(c *gin.Context) {
	if err := h.cli.RemoveImage(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// Search queries Docker Hub; ?term= is required, ?limit= defaults to 25
func (h *ImageHandler) Search(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	results, err := h.cli.SearchImages(c.Request.Context(), term, limit)
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, results)
}
