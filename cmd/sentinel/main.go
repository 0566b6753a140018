package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/handlers"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/publisher"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/scheduler"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/worker"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/config"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/monitoring"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/server"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("sentinel")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Sentinel (Scheduled Post Lifecycle and Kill Switch)")

	dataDir := config.GetEnv("SENTINEL_DATA_DIR", "./data")
	masterSecret := config.RequireEnv("SENTINEL_MASTER_SECRET")
	sweepInterval := config.GetEnvDuration("SENTINEL_SWEEP_INTERVAL", time.Minute)

	// === Store and Guard Initialization ===
	postStore, err := store.New(filepath.Join(dataDir, "scheduler"), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize post store")
	}

	audit, err := guard.NewAuditLog(filepath.Join(dataDir, "logs", "security"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize audit log")
	}
	vault, err := guard.NewVault([]byte(masterSecret), filepath.Join(dataDir, "archives"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize vault")
	}
	killSwitch := guard.NewKillSwitch(filepath.Join(dataDir, "kill_switch.json"), audit, logger)
	securityGuard := guard.New(killSwitch, audit, vault, logger)

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("sentinel", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("sentinel", version.Version, version.GitCommit)

	// === Logic Initialization ===
	pub := publisher.New(logger,
		publisher.WithStrategy(publisher.RandomStrategy{
			SuccessRate: config.GetEnvFloat("SENTINEL_PUBLISH_SUCCESS_RATE", 0.9),
		}),
	)
	sched := scheduler.New(postStore, pub, killSwitch, metricsCollector, logger)

	// === Background Workers ===
	sweeper := worker.NewSweeper(sched, sweepInterval, logger)
	go sweeper.Start(context.Background())

	healthChecker.AddCheck("data_dir", monitoring.DataDirHealthCheck(dataDir))
	healthChecker.AddCheck("kill_switch", monitoring.KillSwitchHealthCheck(killSwitch.Active))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"SENTINEL_MASTER_SECRET": masterSecret,
	}))

	// === Server Setup ===
	router := server.SetupServiceRouter(logger, "sentinel", healthChecker, metricsCollector)
	handlers.New(sched, securityGuard, logger).RegisterRoutes(router)

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":            "sentinel",
			"version":            version.GetInfo(),
			"posts":              postStore.Count(),
			"kill_switch_active": killSwitch.Active(),
			"sweep_interval":     sweepInterval.String(),
		})
	})

	cfg := server.DefaultConfig("sentinel", "18090")
	if err := server.Start(cfg, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
