package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"

	"examboard/internal/platform/config"
	"examboard/internal/platform/httpserver"
	"examboard/internal/platform/logger"
	"examboard/internal/platform/metrics"
	"examboard/internal/platform/postgres"
	"examboard/internal/platform/redis"
	"examboard/internal/registration/drafts"
	"examboard/internal/registration/events"
	"examboard/internal/registration/handler"
	regmetrics "examboard/internal/registration/metrics"
	"examboard/internal/registration/ports"
	"examboard/internal/registration/service"
	"examboard/internal/registration/store/ledger"
	"examboard/internal/registration/store/ledgercache"
	"examboard/internal/registration/store/migrations"
	"examboard/internal/registration/store/quota"
	"examboard/internal/registration/upload"
	"examboard/internal/registration/wizard"
	"examboard/pkg/platform/audit"
	"examboard/pkg/platform/audit/publisher"
	auditmemory "examboard/pkg/platform/audit/store/memory"
	auditpostgres "examboard/pkg/platform/audit/store/postgres"
	"examboard/pkg/platform/middleware/metadata"
	"examboard/pkg/platform/middleware/operator"
	"examboard/pkg/platform/middleware/request"
)

const (
	auditBuffer     = 256
	sweepInterval   = time.Minute
	topicPartitions = 3
)

// main wires the registration console: stores, cache, notifications and the
// HTTP router. Business logic lives in internal/registration.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("examboard stopped", "error", err)
		os.Exit(1)
	}
}

// backends are the collaborators chosen from configuration.
type backends struct {
	quotas    ports.QuotaLookup
	ledger    ports.LedgerQuery
	allocator ports.Allocator
	audit     audit.Store
	redis     *redis.Client
	closers   []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	regMetrics := regmetrics.New()
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(regMetrics),
		service.WithTracer(otel.Tracer("examboard/registration")),
	}

	if b.redis != nil {
		cache, err := ledgercache.New(b.redis, b.ledger,
			ledgercache.WithTTL(cfg.Redis.LedgerTTL),
			ledgercache.WithMetrics(regMetrics),
			ledgercache.WithLogger(log),
		)
		if err != nil {
			return fmt.Errorf("ledger cache: %w", err)
		}
		b.ledger = cache
		opts = append(opts, service.WithLedgerInvalidator(cache))

		if len(cfg.Kafka.Brokers) > 0 {
			sub, err := events.NewSubscriber(cfg.Kafka.Brokers, cfg.Kafka.Topic, cache, log)
			if err != nil {
				return fmt.Errorf("ledger subscriber: %w", err)
			}
			go sub.Run(ctx)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("ledger producer: %w", err)
		}
		b.closers = append(b.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, topicPartitions, 1); err != nil {
			log.Warn("could not ensure ledger topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		opts = append(opts, service.WithEventPublisher(producer))
	} else {
		opts = append(opts, service.WithEventPublisher(events.Nop{}))
	}

	uploader, err := newUploader(cfg.Upload)
	if err != nil {
		return err
	}
	opts = append(opts, service.WithUploader(uploader))

	auditor := publisher.NewPublisher(b.audit, publisher.WithAsyncBuffer(auditBuffer), publisher.WithLogger(log))
	b.closers = append(b.closers, auditor.Close)
	opts = append(opts, service.WithAuditPublisher(auditor))

	svc, err := service.New(b.quotas, b.ledger, b.allocator, opts...)
	if err != nil {
		return fmt.Errorf("registration service: %w", err)
	}

	draftStore := drafts.NewStore(drafts.WithTTL(cfg.Server.DraftTTL))
	go draftStore.RunSweeper(ctx, sweepInterval)

	validator := wizard.NewValidator(wizard.WithMaxPhotoBytes(int(cfg.Upload.MaxPhotoBytes)))
	h := handler.New(svc, draftStore, validator, log, cfg.Upload.MaxPhotoBytes)

	router := newRouter(cfg, log, h, b.redis)
	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting examboard", "env", cfg.Env)

	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil {
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := migrations.Up(cfg.Postgres.DSN); err != nil {
			b.close()
			return nil, err
		}
		b.quotas = quota.NewPostgres(db)
		store := ledger.NewPostgres(db)
		b.ledger, b.allocator = store, store
		b.audit = auditpostgres.New(db)
	} else {
		quotas := quota.NewInMemory()
		if cfg.IsDev() {
			if err := seedDev(ctx, quotas, log); err != nil {
				return nil, err
			}
		}
		store := ledger.NewInMemory(quotas)
		b.quotas, b.ledger, b.allocator = quotas, store, store
		b.audit = auditmemory.NewInMemoryStore()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	if rdb != nil {
		b.redis = rdb
		b.closers = append(b.closers, func() { _ = rdb.Close() })
	}
	return b, nil
}

func newUploader(cfg config.UploadConfig) (ports.Uploader, error) {
	if cfg.Endpoint == "" {
		return upload.NewInMemory(cfg.PublicBaseURL), nil
	}
	var opts []upload.HTTPOption
	if cfg.PublicBaseURL != "" {
		opts = append(opts, upload.WithPublicBaseURL(cfg.PublicBaseURL))
	}
	store, err := upload.NewHTTP(cfg.Endpoint, cfg.Timeout, opts...)
	if err != nil {
		return nil, fmt.Errorf("photo store: %w", err)
	}
	return store, nil
}

func newRouter(cfg config.Config, log *slog.Logger, h *handler.Handler, rdb *redis.Client) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(operator.Require(cfg.Server.OperatorToken, log))
		h.Register(r)
	})
	return r
}
