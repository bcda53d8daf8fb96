// Command orchestratord starts the orchestrator's long-running
// infrastructure: configuration, the state store, the in-process bus, the
// WebSocket streaming server, and the optional audit/notify/cleanup
// services. It does not itself drive a workflow to completion — that
// requires a concrete collab.Planner/CodeGenerator/Moderator/
// ContextProvider/VCSTool, which are supplied by an embedding
// application, not this repository.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/swe-orchestrator/orchestrator/pkg/audit"
	"github.com/swe-orchestrator/orchestrator/pkg/bus"
	"github.com/swe-orchestrator/orchestrator/pkg/cleanup"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
	"github.com/swe-orchestrator/orchestrator/pkg/masking"
	"github.com/swe-orchestrator/orchestrator/pkg/notify"
	"github.com/swe-orchestrator/orchestrator/pkg/resume"
	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
	"github.com/swe-orchestrator/orchestrator/pkg/streaming"
	"github.com/swe-orchestrator/orchestrator/pkg/version"
)

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "."), "directory containing orchestrator.yaml and .env")
	flag.Parse()

	logger := slog.Default().With("app", version.Full())

	if err := godotenv.Load(envFilePath(*configDir)); err != nil {
		logger.Warn("no .env file loaded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, logger); err != nil {
		logger.Error("orchestratord exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configDir string, logger *slog.Logger) error {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store := statestore.New(*cfg.StateStore)
	if err := store.EvictOld(); err != nil {
		logger.Warn("startup eviction pass failed", "error", err)
	}

	b := bus.New()

	streamer := streaming.New(*cfg.Streaming, b, logger)

	mask := masking.NewService()

	var auditSvc *audit.Service
	if cfg.Audit.Enabled {
		auditStore, err := openAudit(ctx, *cfg.Audit, logger)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer auditStore.Close()
		auditSvc = audit.NewService(auditStore, mask, logger)
		b.RegisterHandlerAll(auditSvc.Handle)
	}

	if cfg.Notify.Enabled {
		notifySvc := notify.NewService(notify.ServiceConfig{
			Token:        os.Getenv(cfg.Notify.TokenEnv),
			Channel:      cfg.Notify.Channel,
			DashboardURL: cfg.Notify.DashboardURL,
		})
		if notifySvc != nil {
			b.RegisterHandlerAll(notifySvc.Handle)
		}
	}

	var cleanupSvc *cleanup.Service
	if cfg.Retention.CleanupInterval > 0 {
		cleanupSvc = cleanup.NewService(store, cfg.Retention.MaxAge, cfg.Retention.CleanupInterval)
		cleanupSvc.Start(ctx)
		defer cleanupSvc.Stop()
	}

	resumer := resume.New(store)
	reportInterrupted(resumer, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- streamer.Start(ctx)
	}()

	logger.Info("orchestratord started", "config_dir", configDir)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := streamer.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping streaming server", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// openAudit resolves the DSN environment variable and opens the audit
// store. Split out from run so config validation (which already checks
// DSNEnv is set when audit.enabled) stays the single source of truth for
// "is this configured correctly".
func openAudit(ctx context.Context, cfg config.AuditConfig, logger *slog.Logger) (*audit.Store, error) {
	dsn := os.Getenv(cfg.DSNEnv)
	store, err := audit.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	logger.Info("audit log enabled")
	return store, nil
}

// reportInterrupted logs any interrupted task the resumer finds at
// startup. Actually resuming a task requires a live collab.* stack, which
// this binary does not construct — the embedding application decides
// whether to call resumer.Resume itself.
func reportInterrupted(resumer *resume.Resumer, logger *slog.Logger) {
	tasks, err := resumer.ListInterrupted()
	if err != nil {
		logger.Warn("failed to list interrupted tasks", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}
	logger.Info("found interrupted tasks", "count", len(tasks))
	for _, t := range tasks {
		logger.Info("interrupted task", "task_id", t.TaskID, "phase", t.Phase, "last_updated", t.LastUpdated)
	}
}

func envFilePath(configDir string) string {
	return filepath.Join(configDir, ".env")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
