// Command server runs the archive engine: the HTTP management and resolve
// surfaces, the deferred checksum consumers, and the reconciliation sweeper,
// all supervised until shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/archive/checksum"
	"custodia/internal/archive/handler"
	"custodia/internal/archive/metrics"
	"custodia/internal/archive/reconcile"
	"custodia/internal/archive/service"
	"custodia/internal/archive/store/note"
	"custodia/internal/archive/store/record"
	"custodia/internal/archive/store/work"
	"custodia/internal/audit"
	"custodia/internal/content"
	"custodia/internal/directory"
	jwttoken "custodia/internal/jwt_token"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/pgqueue"
	"custodia/internal/platform/postgres"
	"custodia/internal/platform/redis"
	httptransport "custodia/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// recordStore is the record persistence surface the process needs across the
// service, the reconciler, and the checksum consumers.
type recordStore interface {
	service.RecordStore
	checksum.RecordStore
	reconcile.RecordStore
}

// noteStore is the note persistence surface: reads for the service, appends
// for the audit recorder.
type noteStore interface {
	service.NoteStore
	audit.NoteWriter
}

// workQueue is the deferred checksum queue seen from both ends.
type workQueue interface {
	service.WorkQueue
	checksum.Queue
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogFormat)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Record and note stores: Postgres when a DSN is configured, in-memory
	// for single-node dev setups.
	var (
		records recordStore
		notes   noteStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, db); err != nil {
				return err
			}
		}
		records = record.NewPostgres(db)
		notes = note.NewPostgres(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		records = record.NewInMemory()
		notes = note.NewInMemory()
	}

	// Deferred checksum queue: Redis when configured, else the Postgres
	// queue on the same database, else in-memory.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var queue workQueue
	switch {
	case redisClient != nil:
		defer redisClient.Close()
		queue = work.NewRedis(redisClient)
		log.Info("checksum queue on redis")
	case cfg.PostgresDSN != "":
		pool, err := pgqueue.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		queue = work.NewPostgres(pool)
		log.Info("checksum queue on postgres")
	default:
		queue = work.NewInMemory()
	}

	// Audit trail: notes always, the Kafka stream when brokers are set.
	recorderOpts := []audit.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		stream, err := audit.NewStreamPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic,
			audit.WithStreamLogger(log))
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := stream.Close(flushCtx); err != nil {
				log.Error("audit stream close", "error", err)
			}
		}()
		recorderOpts = append(recorderOpts, audit.WithStream(stream))
		log.Info("audit stream enabled", "topic", cfg.AuditTopic)
	}
	recorder := audit.NewRecorder(notes, recorderOpts...)

	source := content.NewFSStore(cfg.ContentRoot)
	catalog := directory.NewMemory()
	engine := checksum.NewEngine(source)

	reconciler := reconcile.New(records, notes, catalog, source, queue,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(m),
	)

	svc, err := service.New(records, notes, recorder, catalog, source, queue,
		config.StaticProvider{S: cfg.Archive},
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithReconciler(reconciler),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httptransport.New(handler.New(svc, log), httptransport.Config{
		JWT:               jwtService,
		ResolveAPIKeyHash: cfg.ResolveAPIKeyHash,
	}, log)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	for i := 0; i < cfg.ChecksumWorkers; i++ {
		worker := checksum.NewWorker(queue, records, engine,
			checksum.WithLogger(log.With("worker", i)),
			checksum.WithMetrics(m),
		)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.SweepInterval > 0 {
		sweeper := reconcile.NewSweeper(reconciler, cfg.SweepInterval, log)
		sweeper.Start(ctx)
		g.Go(func() error {
			<-ctx.Done()
			sweeper.Stop()
			return nil
		})
	}

	return g.Wait()
}
