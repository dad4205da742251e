package model

import (
	"time"
)

// User represents a dashboard administrator
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash, never exposed in JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stack represents a user-named multi-container application defined by one
// compose document. Docker is the source of truth for its runtime resources;
// the row is a cache refreshed on deploy and reconciliation.
type Stack struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Name            string            `gorm:"uniqueIndex;not null;size:128" json:"name"`
	Description     string            `gorm:"size:512" json:"description"`
	ComposeDocument string            `gorm:"type:text;not null" json:"compose_document"`
	ComposeVersion  string            `gorm:"size:16" json:"compose_version"`
	Services        []string          `gorm:"serializer:json;type:text" json:"services"`
	ContainerIDs    []string          `gorm:"serializer:json;type:text" json:"container_ids"`
	NetworkNames    []string          `gorm:"serializer:json;type:text" json:"network_names"`
	VolumeNames     []string          `gorm:"serializer:json;type:text" json:"volume_names"`
	EnvVars         map[string]string `gorm:"serializer:json;type:text" json:"env_vars"`
	Status          string            `gorm:"size:16;default:stopped" json:"status"` // pending, deploying, running, stopped, failed
	Managed         bool              `gorm:"default:true" json:"managed"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeployedAt      *time.Time        `json:"deployed_at"` // last successful deploy completion
}

// Stack status values.
const (
	StackPending   = "pending"
	StackDeploying = "deploying"
	StackRunning   = "running"
	StackStopped   = "stopped"
	StackFailed    = "failed"
)

// Network mirrors one container-engine network the system knows about.
// At most one row per live engine network id; engine-default networks
// (bridge/host/none) never get a row.
type Network struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NetworkID string    `gorm:"uniqueIndex;not null;size:128" json:"network_id"` // engine-assigned
	Name      string    `gorm:"uniqueIndex;not null;size:128" json:"name"`
	Subnet    string    `gorm:"size:64" json:"subnet"` // CIDR, empty if none
	Gateway   string    `gorm:"size:64" json:"gateway"`
	IPRange   string    `gorm:"size:64" json:"ip_range"` // optional restricted CIDR within subnet
	Driver    string    `gorm:"size:32;default:bridge" json:"driver"`
	Purpose   string    `gorm:"size:256" json:"purpose"`
	Managed   bool      `gorm:"default:false" json:"managed"` // created by this system vs. discovered
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Volume mirrors one container-engine volume.
type Volume struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	VolumeID   string            `gorm:"size:128" json:"volume_id"`
	Name       string            `gorm:"uniqueIndex;not null;size:128" json:"name"`
	Driver     string            `gorm:"size:32;default:local" json:"driver"`
	MountPoint string            `gorm:"size:512" json:"mount_point"`
	Labels     map[string]string `gorm:"serializer:json;type:text" json:"labels"`
	Options    map[string]string `gorm:"serializer:json;type:text" json:"options"`
	SizeBytes  *int64            `json:"size_bytes"`
	Managed    bool              `gorm:"default:false" json:"managed"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// HostConfig is the singleton hardware profile row, created lazily.
// Callers must get-or-create, never insert a second row.
type HostConfig struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProfileName      string    `gorm:"size:32;not null" json:"profile_name"` // RASPBERRY_PI .. ENTERPRISE
	CPUCores         int       `json:"cpu_cores"`
	RAMGB            float64   `json:"ram_gb"`
	MaxContainers    int       `json:"max_containers"`
	WarningPercent   int       `gorm:"default:80" json:"warning_percent"`
	CriticalPercent  int       `gorm:"default:95" json:"critical_percent"`
	NetworkSizeLimit int       `json:"network_size_limit"` // CIDR prefix ceiling, e.g. 24
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HealthSample is one periodic snapshot from the metrics collector.
type HealthSample struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CPUPercent        float64   `json:"cpu_percent"`
	MemPercent        float64   `json:"mem_percent"`
	ContainersRunning int       `json:"containers_running"`
	ContainersTotal   int       `json:"containers_total"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}
