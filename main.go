package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dockhaven/dockhaven/internal/auth"
	"github.com/dockhaven/dockhaven/internal/cert"
	"github.com/dockhaven/dockhaven/internal/config"
	"github.com/dockhaven/dockhaven/internal/database"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/dockhaven/dockhaven/internal/handler"
	"github.com/dockhaven/dockhaven/internal/hardware"
	"github.com/dockhaven/dockhaven/internal/health"
	"github.com/dockhaven/dockhaven/internal/netmgr"
	"github.com/dockhaven/dockhaven/internal/stack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db := database.Init(cfg.DBPath)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Connect to the Docker daemon
	cli, err := docker.NewClient(cfg.DockerSocket)
	if err != nil {
		log.Fatalf("Failed to create Docker client: %v", err)
	}
	defer cli.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cli.Ping(pingCtx); err != nil {
		log.Printf("⚠️  Docker daemon not reachable at %s: %v", cfg.DockerSocket, err)
	}
	cancel()

	// Initialize services
	hwSvc := hardware.NewService(db, logger)
	netSvc := netmgr.NewService(db, cli, hwSvc, logger)
	stackSvc := stack.NewService(db, cli, netSvc, cfg.DataDir, logger)

	// One reconciliation pass at startup so the mirror reflects whatever
	// happened while the dashboard was down
	if outcome, err := stackSvc.Reconcile(context.Background()); err != nil {
		log.Printf("⚠️  Startup reconciliation failed: %v", err)
	} else {
		log.Printf("🔄 Reconciled %d networks, %d volumes, %d stacks updated",
			outcome.NetworksSeen, outcome.VolumesSeen, outcome.StacksUpdated)
	}

	// Health sampling in the background
	every, err := time.ParseDuration(cfg.HealthEvery)
	if err != nil {
		log.Printf("⚠️  Invalid health interval %q, using 30s", cfg.HealthEvery)
		every = 30 * time.Second
	}
	collector := health.NewCollector(db, cli, every, cfg.HealthKeep, logger)
	collectCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	go collector.Run(collectCtx)

	// Setup Gin
	r := gin.Default()

	// CORS: allow frontend dev server and same-origin requests
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	// ============ API Routes ============
	api := r.Group("/api")

	// Public routes (no auth required)
	authH := handler.NewAuthHandler(db, cfg)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/setup", authH.Setup)
	api.GET("/auth/need-setup", authH.NeedSetup)

	// Protected routes (JWT required)
	protected := api.Group("")
	protected.Use(auth.Middleware(cfg.JWTSecret))

	// User info
	protected.GET("/auth/me", authH.Me)

	// Stack lifecycle
	stackH := handler.NewStackHandler(stackSvc)
	protected.GET("/stacks", stackH.List)
	protected.POST("/stacks", stackH.Create)
	protected.GET("/stacks/:name", stackH.Get)
	protected.PUT("/stacks/:name", stackH.Update)
	protected.DELETE("/stacks/:name", stackH.Delete)
	protected.POST("/stacks/:name/deploy", stackH.Deploy)
	protected.POST("/stacks/:name/start", stackH.Start)
	protected.POST("/stacks/:name/stop", stackH.Stop)
	protected.POST("/stacks/sync", stackH.Sync)

	// Networks and subnet tooling
	netH := handler.NewNetworkHandler(netSvc)
	protected.GET("/networks", netH.List)
	protected.POST("/networks", netH.Create)
	protected.GET("/networks/:id", netH.Get)
	protected.DELETE("/networks/:id", netH.Delete)
	protected.GET("/networks/:id/usage", netH.Usage)
	protected.POST("/networks/validate-subnet", netH.ValidateSubnet)
	protected.GET("/networks/recommend-subnet", netH.Recommend)

	// Volumes
	volH := handler.NewVolumeHandler(cli, db)
	protected.GET("/volumes", volH.List)
	protected.POST("/volumes", volH.Create)
	protected.GET("/volumes/:name", volH.Get)
	protected.DELETE("/volumes/:name", volH.Delete)

	// Containers
	ctrH := handler.NewContainerHandler(cli)
	protected.GET("/containers", ctrH.List)
	protected.POST("/containers/:id/start", ctrH.Start)
	protected.POST("/containers/:id/stop", ctrH.Stop)
	protected.POST("/containers/:id/restart", ctrH.Restart)
	protected.DELETE("/containers/:id", ctrH.Remove)
	protected.GET("/containers/:id/stats", ctrH.Stats)
	protected.GET("/containers/:id/logs", ctrH.Logs)

	// Images
	imgH := handler.NewImageHandler(cli)
	protected.GET("/images", imgH.List)
	protected.POST("/images/pull", imgH.Pull)
	protected.DELETE("/images/:id", imgH.Remove)
	protected.GET("/images/search", imgH.Search)

	// System and hardware profile
	sysH := handler.NewSystemHandler(cli, hwSvc)
	protected.GET("/system/info", sysH.Info)
	protected.GET("/system/ping", sysH.Ping)
	protected.GET("/system/hardware", sysH.Hardware)
	protected.PUT("/system/hardware/thresholds", sysH.UpdateThresholds)

	// Health history
	healthH := handler.NewHealthHandler(collector, hwSvc)
	protected.GET("/health/samples", healthH.History)
	protected.GET("/health/current", healthH.Current)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("🚀 DockHaven starting on port %s", cfg.Port)
	log.Printf("📁 Data directory: %s", cfg.DataDir)
	log.Printf("🐳 Docker socket: %s", cfg.DockerSocket)

	if cfg.TLSEnabled {
		if err := cert.EnsureSelfSigned(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
			log.Fatalf("Failed to prepare TLS certificate: %v", err)
		}
		if err := r.RunTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
		return
	}
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
