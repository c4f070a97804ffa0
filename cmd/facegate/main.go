// facegate-server grants or denies physical access from live facial
// captures and drives the door controllers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facegate/server/internal/config"
	"github.com/facegate/server/internal/db"
	"github.com/facegate/server/internal/facegate/actuator"
	"github.com/facegate/server/internal/facegate/attempt"
	"github.com/facegate/server/internal/facegate/authz"
	"github.com/facegate/server/internal/facegate/face"
	"github.com/facegate/server/internal/facegate/match"
	"github.com/facegate/server/internal/facegate/service"
	sqlitestore "github.com/facegate/server/internal/facegate/store/sqlite"
	"github.com/facegate/server/internal/httpapi"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "facegate",
		Short:        "Facial access control service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the access control server (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert dev zones, devices, and grants",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSeed(cmd.Context())
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	deviceStore := sqlitestore.NewDeviceStore(conn, writer)
	galleryStore := sqlitestore.NewGalleryStore(conn)
	grantStore := sqlitestore.NewGrantStore(conn)
	auditStore := sqlitestore.NewAuditEventStore(conn, writer)

	// Core components
	matcher := match.New(cfg.Matcher.Threshold)
	tracker := attempt.NewTracker(cfg.Escalation.Threshold,
		attempt.WithIdleTTL(time.Duration(cfg.Escalation.IdleTTLHours)*time.Hour))
	janitor := attempt.NewJanitor(tracker,
		time.Duration(cfg.Escalation.SweepIntervalMinutes)*time.Minute, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	gateway := actuator.NewGateway(cfg.Actuator.Controllers,
		actuator.SerialOpener(cfg.Actuator.BaudRate), logger)
	defer gateway.Close()

	detector := face.NewHTTPDetector(cfg.Detector.URL,
		time.Duration(cfg.Detector.TimeoutMS)*time.Millisecond)

	decision := service.NewDecisionService(service.DecisionDeps{
		Detector:   detector,
		Gallery:    galleryStore,
		Devices:    service.NewDeviceDirectory(deviceStore),
		Matcher:    matcher,
		Authorizer: authz.New(grantStore),
		Tracker:    tracker,
		Audit:      auditStore,
		Doors:      gateway,
		DoorOffset: cfg.Actuator.DoorOffset,
		Logger:     logger,
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		Decision:       decision,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimit.PerOriginRPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	// Hot-reload tunables when the config file changes.
	if configPath != "" {
		watcher, werr := config.NewWatcher(configPath, func(c config.Config) {
			matcher.SetThreshold(c.Matcher.Threshold)
			tracker.SetThreshold(c.Escalation.Threshold)
		}, logger)
		if werr != nil {
			logger.Warn("config watch disabled", zap.Error(werr))
		} else {
			go func() { _ = watcher.Run(ctx) }()
		}
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Println("migrations applied")
	return nil
}

func runSeed(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.SeedDev(ctx, conn, db.SeedDevOptions{Origin: "127.0.0.1"}); err != nil {
		return err
	}
	fmt.Println("dev data seeded")
	return nil
}
