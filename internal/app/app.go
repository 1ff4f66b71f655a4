// Package app wires the API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/erp-inventory/internal/agent"
	"github.com/xenking/erp-inventory/internal/catalog"
	"github.com/xenking/erp-inventory/internal/domain/auth"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
	"github.com/xenking/erp-inventory/internal/events"
	"github.com/xenking/erp-inventory/internal/handler"
	"github.com/xenking/erp-inventory/internal/storage/memory"
	"github.com/xenking/erp-inventory/internal/storage/postgres"
	"github.com/xenking/erp-inventory/pkg/health"
	"github.com/xenking/erp-inventory/pkg/httpmiddleware"
)

// store is implemented by both storage drivers.
type store interface {
	order.TxStore
	report.Snapshotter
}

// keyStore stores API keys.
type keyStore interface {
	auth.Repository
	Upsert(ctx context.Context, info auth.APIKeyInfo) error
}

// openStore connects the configured storage driver. The returned close
// function releases it.
func openStore(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg StorageConfig, hl *health.Health) (store, keyStore, func(), error) {
	switch cfg.Driver {
	case DriverMemory:
		lg.Warn("Using in-memory storage, data is lost on exit")
		s := memory.New()
		return s, s.APIKeys(), func() {}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL,
			postgres.WithMaxConns(cfg.MaxConns),
			postgres.WithTracerProvider(m.TracerProvider()),
		)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, errors.Wrap(err, "run migrations")
		}
		hl.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
		s := postgres.NewStore(pool)
		return s, s.APIKeys(), pool.Close, nil
	default:
		return nil, nil, nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newPublisher(lg *zap.Logger, cfg EventsConfig, m *app.Telemetry) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		lg.Info("No event brokers configured, events are dropped")
		return events.Nop{}, nil
	}
	pub, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		ClientID: cfg.ClientID,
	}, m.TracerProvider())
	if err != nil {
		return nil, errors.Wrap(err, "create kafka publisher")
	}
	lg.Info("Publishing events", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return pub, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	hl := health.New()
	hl.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	st, keys, closeStore, err := openStore(ctx, lg, m, cfg.Storage, hl)
	if err != nil {
		return err
	}
	defer closeStore()

	pub, err := newPublisher(lg, cfg.Events, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			lg.Error("Close publisher", zap.Error(err))
		}
	}()

	// Domain services.
	products := product.NewService(st.Products())
	orders, err := order.NewService(st, pub, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	reports := report.NewService(st)

	if cfg.Storage.SeedCatalog {
		items, err := catalog.Default()
		if err != nil {
			return err
		}
		res, err := catalog.Load(ctx, products, items)
		if err != nil {
			return errors.Wrap(err, "seed catalog")
		}
		lg.Info("Catalog loaded", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	}
	if cfg.Auth.BootstrapKey != "" {
		if err := keys.Upsert(ctx, auth.APIKeyInfo{
			ID:      "bootstrap",
			KeyHash: auth.HashKey([]byte(cfg.Auth.APIKeyPepper), cfg.Auth.BootstrapKey),
			Name:    "Bootstrap key",
			Scopes:  []string{auth.ScopeRead, auth.ScopeWrite},
		}); err != nil {
			return errors.Wrap(err, "register bootstrap key")
		}
	}

	// Agents.
	commands := agent.NewExecutor(&agent.Local{Products: products, Orders: orders, Reports: reports})
	var llm *agent.LLM
	if cfg.Agent.Enabled {
		llm = agent.NewLLM(agent.LLMConfig{
			URL:           cfg.Agent.OllamaURL,
			Model:         cfg.Agent.Model,
			MaxIterations: cfg.Agent.MaxIterations,
			Timeout:       cfg.Agent.Timeout,
		}, commands, m.TracerProvider())
		lg.Info("Chat agent enabled", zap.String("model", cfg.Agent.Model), zap.String("url", cfg.Agent.OllamaURL))
	}

	// HTTP.
	var security *handler.SecurityHandler
	if cfg.Auth.Disabled {
		lg.Warn("API key authentication is disabled")
	} else {
		security = handler.NewSecurityHandler(keys, []byte(cfg.Auth.APIKeyPepper))
	}
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	h := handler.New(products, orders, reports, commands, llm)
	router := h.Router(handler.RouterConfig{
		Security:     security,
		AgentLimiter: limiter,
		Health:       hl,
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Chat turns wait for the model.
		WriteTimeout:   cfg.Agent.Timeout*time.Duration(max(cfg.Agent.MaxIterations, 1)) + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.RequestID(),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.Instrument("erp-api", m.TracerProvider(), m.MeterProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hl.Run(gctx, 10*time.Second)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		hl.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})
	hl.SetReady(true)

	return g.Wait()
}
