package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/config"
	"github.com/xxxsen/importdash/internal/db"
	"github.com/xxxsen/importdash/internal/filestore"
	"github.com/xxxsen/importdash/internal/handler"
	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/job"
	"github.com/xxxsen/importdash/internal/middleware"
	"github.com/xxxsen/importdash/internal/readcache"
	"github.com/xxxsen/importdash/internal/repo"
	"github.com/xxxsen/importdash/internal/runs"
	"github.com/xxxsen/importdash/internal/schedule"
	"github.com/xxxsen/importdash/internal/service"
)

func main() {
	var configPath string
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "importdash",
		Short: "order import dashboard backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "optional .env file loaded before the config")

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return nil, fmt.Errorf("--config is required")
		}
		cfg, err := config.Load(configPath, envFile)
		if err != nil {
			return nil, err
		}
		logger.Init(
			cfg.LogConfig.File,
			cfg.LogConfig.Level,
			int(cfg.LogConfig.FileCount),
			int(cfg.LogConfig.FileSize),
			int(cfg.LogConfig.KeepDays),
			cfg.LogConfig.Console,
		)
		logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newStatusCmd(loadConfig))
	rootCmd.AddCommand(newTokenCmd(loadConfig))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func newImportClient(cfg *config.Config) *importapi.Client {
	return importapi.New(
		cfg.ImportAPI.BaseURL,
		importapi.WithAPIKey(cfg.ImportAPI.APIKey),
		importapi.WithTimeout(time.Duration(cfg.ImportAPI.TimeoutSeconds)*time.Second),
	)
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("import_api", cfg.ImportAPI.BaseURL),
		zap.String("file_store", cfg.FileStore.Type),
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	client := newImportClient(cfg)
	cache := readcache.WrapLru(client, cfg.Cache.Size, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	activityService := service.NewActivityService(repo.NewActivityRepo(conn), cache)
	registry := runs.NewRegistry(
		service.NewUploadGateway(store, client),
		cfg.Runs.MaxRuns,
		time.Duration(cfg.Runs.IdleTTLMinutes)*time.Minute,
		importflow.WithFileReleaser(service.NewFileReleaser(store)),
		importflow.WithCommitHook(activityService.RecordCommit),
		importflow.WithCommitHook(func(context.Context, importflow.Committed) { cache.Purge() }),
	)
	defer registry.Close()

	runService := service.NewRunService(registry, store, cfg.Runs.MaxUploadBytes)
	dashboardService := service.NewDashboardService(cache, client, cache)

	deps := handler.RouterDeps{
		Runs:       handler.NewRunHandler(runService, cfg.Runs.MaxUploadBytes),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		Activity:   handler.NewActivityHandler(activityService),
		Templates:  handler.NewTemplateHandler(service.NewTemplateService()),
		JWTSecret:  []byte(cfg.JWTSecret),
		RateWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := schedule.NewCronScheduler()
	watchJob := job.NewPipelineWatchJob(activityService, 0)
	if err := sched.AddJob(watchJob, cfg.Schedule.PipelineWatch); err != nil {
		return fmt.Errorf("schedule %s: %w", watchJob.Name(), err)
	}
	cleanupJob := job.NewActivityCleanupJob(activityService, cfg.Schedule.ActivityRetentionDays)
	if err := sched.AddJob(cleanupJob, cfg.Schedule.ActivityCleanup); err != nil {
		return fmt.Errorf("schedule %s: %w", cleanupJob.Name(), err)
	}
	sched.Start(ctx)
	defer sched.Stop()
	// catch up on imports committed before a restart
	go func() {
		_ = schedule.CatchUp(ctx, sched, watchJob.Name())
	}()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
