package config

import (
	"os"
	"path/filepath"
)

// Config holds all application configuration
type Config struct {
	Port         string // Dashboard HTTP port
	DBPath       string // SQLite database path
	JWTSecret    string // JWT signing secret
	DockerSocket string // Docker daemon socket path
	DataDir      string // Data directory root (stack compose files live here)
	TLSEnabled   bool   // Serve HTTPS with a self-signed certificate
	TLSCertPath  string // Certificate path (generated if missing)
	TLSKeyPath   string // Private key path (generated if missing)
	HealthEvery  string // Health sampling interval, Go duration string
	HealthKeep   int    // Max health samples retained
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	dataDir := envOrDefault("DOCKHAVEN_DATA_DIR", "./data")

	cfg := &Config{
		Port:         envOrDefault("DOCKHAVEN_PORT", "8080"),
		DBPath:       envOrDefault("DOCKHAVEN_DB_PATH", filepath.Join(dataDir, "dockhaven.db")),
		JWTSecret:    envOrDefault("DOCKHAVEN_JWT_SECRET", "dockhaven-change-me-in-production"),
		DockerSocket: envOrDefault("DOCKHAVEN_DOCKER_SOCKET", "/var/run/docker.sock"),
		DataDir:      dataDir,
		TLSEnabled:   os.Getenv("DOCKHAVEN_TLS") == "true",
		TLSCertPath:  envOrDefault("DOCKHAVEN_TLS_CERT", filepath.Join(dataDir, "cert.pem")),
		TLSKeyPath:   envOrDefault("DOCKHAVEN_TLS_KEY", filepath.Join(dataDir, "key.pem")),
		HealthEvery:  envOrDefault("DOCKHAVEN_HEALTH_INTERVAL", "30s"),
		HealthKeep:   500,
	}

	// Ensure directories exist
	os.MkdirAll(dataDir, 0755)
	os.MkdirAll(filepath.Join(dataDir, "stacks"), 0755)

	return cfg
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
