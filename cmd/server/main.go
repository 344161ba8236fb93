// Command server runs the civil-union registry core services: the ledger
// coordinate allocator, the versioned audit trail, and admission control,
// exposed over HTTP behind the declarations vertical.
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

	"golang.org/x/sync/errgroup"

	"unireg/internal/audit"
	auditmetrics "unireg/internal/audit/metrics"
	"unireg/internal/audit/store/history"
	"unireg/internal/audit/store/version"
	"unireg/internal/declaration"
	declhandler "unireg/internal/declaration/handler"
	"unireg/internal/declaration/store/record"
	router "unireg/internal/http"
	"unireg/internal/platform/config"
	"unireg/internal/platform/httpserver"
	"unireg/internal/platform/logger"
	"unireg/internal/platform/postgres"
	platformredis "unireg/internal/platform/redis"
	rlhandler "unireg/internal/ratelimit/handler"
	rlmetrics "unireg/internal/ratelimit/metrics"
	rlservice "unireg/internal/ratelimit/service"
	"unireg/internal/ratelimit/store/blacklist"
	"unireg/internal/ratelimit/store/staticlist"
	"unireg/internal/ratelimit/store/window"
	"unireg/internal/sequence"
	seqmetrics "unireg/internal/sequence/metrics"
	"unireg/internal/sequence/store/counter"
	"unireg/pkg/platform/middleware/metadata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				return err
			}
			log.Info("migrations applied")
		}
	} else {
		log.Warn("no database configured, using memory stores")
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("no redis configured, using memory stores for admission control")
	}

	// Sequence allocator.
	var counters sequence.CounterStore = counter.NewMemory()
	if db != nil {
		counters = counter.NewPostgres(db)
	}
	allocator, err := sequence.New(counters,
		sequence.WithLogger(log),
		sequence.WithMetrics(seqmetrics.New()),
		sequence.WithSeries(cfg.Sequence.Series),
		sequence.WithPageCapacity(cfg.Sequence.PageCapacity),
	)
	if err != nil {
		return err
	}

	// Audit trail.
	var histStore audit.HistoryStore = history.NewMemory()
	var verStore audit.VersionStore = version.NewMemory()
	if db != nil {
		histStore = history.NewPostgres(db)
		verStore = version.NewPostgres(db)
	}

	am := auditmetrics.New()
	publisherOpts := []audit.PublisherOption{
		audit.WithPublisherLogger(log),
		audit.WithPublisherMetrics(am),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisherOpts = append(publisherOpts, audit.WithFanoutBuffer(cfg.Audit.InboxSize))
	}
	publisher := audit.NewPublisher(histStore, publisherOpts...)

	trail, err := audit.New(publisher, histStore, verStore,
		audit.WithLogger(log),
		audit.WithMetrics(am),
		audit.WithHistoryPageSize(cfg.Audit.HistoryPageSize),
	)
	if err != nil {
		return err
	}

	// Admission control.
	var windows rlservice.WindowStore = window.NewMemory()
	var bans rlservice.BlacklistStore = blacklist.NewMemory()
	if rdb != nil {
		windows = window.NewRedis(rdb.Client)
		bans = blacklist.NewRedis(rdb.Client)
	}
	var statics rlservice.StaticListStore = staticlist.NewMemory()
	if db != nil {
		statics = staticlist.NewPostgres(db)
	}
	limiter, err := rlservice.New(windows, bans, statics,
		rlservice.FromServerConfig(cfg.RateLimit),
		rlservice.WithLogger(log),
		rlservice.WithMetrics(rlmetrics.New()),
		rlservice.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	// Declarations vertical.
	var records declaration.Store = record.NewMemory()
	if db != nil {
		records = record.NewPostgres(db)
	}
	declarations, err := declaration.New(records, allocator, trail,
		declaration.WithLogger(log))
	if err != nil {
		return err
	}

	handler := router.New(router.Deps{
		Resolver:     metadata.NewResolver(cfg.TrustedProxies),
		Limiter:      limiter,
		Declarations: declhandler.New(declarations),
		Admin:        rlhandler.New(limiter),
		Health:       healthHandler(db, rdb),
	})
	srv := httpserver.New(cfg.Addr, handler)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()

		worker := audit.NewWorker(sink, publisher.Fanout(),
			audit.WithWorkerLogger(log),
			audit.WithWorkerMetrics(am))
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("audit fanout enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.AuditTopic)
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func healthHandler(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}
}
