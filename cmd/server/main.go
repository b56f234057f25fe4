// Command server runs the inheritance gateway. main only wires dependencies;
// business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"heirloom/internal/access"
	"heirloom/internal/audit"
	"heirloom/internal/continuity"
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/internal/platform/config"
	"heirloom/internal/platform/httpserver"
	"heirloom/internal/platform/logger"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/postgres"
	"heirloom/internal/platform/redis"
	"heirloom/internal/session"
	httptransport "heirloom/internal/transport/http"
	"heirloom/internal/vault"
	"heirloom/internal/verification"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	health := map[string]httptransport.HealthCheck{}

	// Persistence: PostgreSQL when configured, memory otherwise.
	var (
		db           *sql.DB
		ownerStore   owner.Store
		nomineeStore nominee.Store
		auditStore   audit.Store
		vaultStore   vault.Store
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Bootstrap(ctx, db); err != nil {
			return err
		}
		ownerStore = owner.NewPostgresStore(db)
		nomineeStore = nominee.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		vaultStore = vault.NewPostgresStore(db)
		health["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		ownerStore = owner.NewMemoryStore()
		nomineeStore = nominee.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		vaultStore = vault.NewMemoryStore()
		log.Warn("no postgres configured, state is in-memory only")
	}

	// Heartbeats: Redis when configured, memory otherwise.
	var heartbeats continuity.HeartbeatStore
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		heartbeats = continuity.NewRedisHeartbeatStore(redisClient.Client)
		health["redis"] = redisClient.Health
		log.Info("using redis heartbeat store")
	} else {
		heartbeats = continuity.NewMemoryHeartbeatStore()
	}

	// Audit fan-out is optional; the trail always persists locally.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("audit entries fan out to kafka", "topic", cfg.KafkaTopic)
	}
	recorder := audit.NewRecorder(auditStore, publisher, log, m)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := recorder.Close(closeCtx); err != nil {
			log.Error("audit recorder did not drain", "error", err)
		}
	}()

	var engine vault.Engine = vault.DisabledEngine{}
	if cfg.EngineCommand != "" {
		engine, err = vault.NewExecEngine(cfg.EngineCommand)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no engine command configured, asset uploads are disabled")
	}

	owners := owner.NewService(ownerStore, log, m)
	nominees := nominee.NewService(nomineeStore, log, m)
	sessions := session.NewIssuer(cfg.JWTSigningKey, cfg.NomineeSessionTTL, cfg.OwnerSessionTTL)
	vaultSvc := vault.NewService(vaultStore, engine, log)
	owners.SetReleaser(vaultSvc)

	workflow := verification.NewWorkflow(nominees, owners, log)
	if cfg.VerificationMode == config.VerificationAuto {
		workflow.EnableAutoApproval(cfg.AutoApproveDelay)
		log.Warn("automatic proof approval enabled", "delay", cfg.AutoApproveDelay)
	}
	defer workflow.Close()

	monitor := continuity.NewMonitor(heartbeats, owners, cfg.HeartbeatGrace, cfg.HeartbeatInterval, log)
	accessSvc := access.NewService(owners, nominees, sessions, recorder, log, m)

	handler := httptransport.New(httptransport.Deps{
		Owners:       owners,
		Nominees:     nominees,
		Access:       accessSvc,
		Verification: workflow,
		Vault:        vaultSvc,
		Continuity:   monitor,
		Audit:        recorder,
		Sessions:     sessions,
		Logger:       log,
		Metrics:      m,
		AdminKey:     cfg.AdminKey,
		UploadDir:    cfg.UploadDir,
		Health:       health,
	})
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := monitor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
