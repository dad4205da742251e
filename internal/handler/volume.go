package handler

import (
	"net/http"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VolumeHandler manages volume endpoints
type VolumeHandler struct {
	cli *docker.Client
	db  *gorm.DB
}

// NewVolumeHandler creates a new VolumeHandler
func NewVolumeHandler(cli *docker.Client, db *gorm.DB) *VolumeHandler {
	return &VolumeHandler{cli: cli, db: db}
}

type volumeView struct {
	docker.VolumeDetail
	Managed bool `json:"managed"`
}

// List returns all engine volumes annotated with the managed flag
func (h *VolumeHandler) List(c *gin.Context) {
	vols, err := h.cli.ListVolumes(c.Request.Context())
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}

	var rows []model.Volume
	h.db.Find(&rows)
	managed := make(map[string]bool, len(rows))
	for _, r := range rows {
		managed[r.Name] = r.Managed
	}

	views := make([]volumeView, 0, len(vols))
	for _, v := range vols {
		views = append(views, volumeView{VolumeDetail: v, Managed: managed[v.Name]})
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one volume by name
func (h *VolumeHandler) Get(c *gin.Context) {
	v, err := h.cli.InspectVolume(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	var row model.Volume
	view := volumeView{VolumeDetail: *v}
	if err := h.db.Where("name = ?", v.Name).First(&row).Error; err == nil {
		view.Managed = row.Managed
	}
	c.JSON(http.StatusOK, view)
}

type createVolumeRequest struct {
	Name    string            `json:"name" binding:"required"`
	Driver  string            `json:"driver"`
	Labels  map[string]string `json:"labels"`
	Options map[string]string `json:"options"`
}

// Create creates a volume and its managed mirror row
func (h *VolumeHandler) Create(c *gin.Context) {
	var req createVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := h.cli.CreateVolume(c.Request.Context(), docker.VolumeSpec{
		Name:    req.Name,
		Driver:  req.Driver,
		Labels:  req.Labels,
		Options: req.Options,
	})
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}

	h.db.Create(&model.Volume{
		VolumeID:   v.Name,
		Name:       v.Name,
		Driver:     v.Driver,
		MountPoint: v.Mountpoint,
		Labels:     v.Labels,
		Options:    v.Options,
		Managed:    true,
	})
	c.JSON(http.StatusCreated, volumeView{VolumeDetail: *v, Managed: true})
}

// Delete removes a volume; ?force=true removes it even while referenced
func (h *VolumeHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	force := c.Query("force") == "true"
	if err := h.cli.RemoveVolume(c.Request.Context(), name, force); err != nil && !docker.IsNotFound(err) {
		fail(c, wrapEngine(err))
		return
	}
	h.db.Where("name = ?", name).Delete(&model.Volume{})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
