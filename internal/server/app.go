// Package server builds the application from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/weblink-inspector/internal/api"
	"github.com/JakeFAU/weblink-inspector/internal/config"
	collyfetcher "github.com/JakeFAU/weblink-inspector/internal/fetcher/colly"
	"github.com/JakeFAU/weblink-inspector/internal/inspector"
	"github.com/JakeFAU/weblink-inspector/internal/logging"
	"github.com/JakeFAU/weblink-inspector/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/weblink-inspector/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/weblink-inspector/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/weblink-inspector/internal/storage/gcs"
	localstorage "github.com/JakeFAU/weblink-inspector/internal/storage/local"
	memorystorage "github.com/JakeFAU/weblink-inspector/internal/storage/memory"
	pgstore "github.com/JakeFAU/weblink-inspector/internal/storage/postgres"
	redisstore "github.com/JakeFAU/weblink-inspector/internal/storage/redis"
	sqlitestore "github.com/JakeFAU/weblink-inspector/internal/storage/sqlite"
	"github.com/JakeFAU/weblink-inspector/internal/telemetry"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// Version is stamped into the tracing resource.
var Version = "dev"

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	apiServer *api.Server

	// Inspector runs inspections for the HTTP API and the CLI.
	Inspector *inspector.Service
	// Blog is set for backends that also hold the blog tables.
	Blog weblink.BlogStore

	readiness map[string]api.ReadinessCheck
	closers   []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	app := &App{
		cfg:       cfg,
		logger:    logger,
		readiness: map[string]api.ReadinessCheck{},
	}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()
	logger.Info("building application dependencies",
		zap.String("store", cfg.Store.Backend),
		zap.String("archive", cfg.Archive.Backend),
		zap.Int("server_port", cfg.Server.Port),
	)

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracerProvider(ctx, cfg.Tracing.ServiceName, Version)
		if err != nil {
			return nil, fmt.Errorf("tracer init failed: %w", err)
		}
		app.addCloser("tracer", tp.Shutdown)
	}

	store, err := setupStore(ctx, app)
	if err != nil {
		return nil, err
	}

	opts := []inspector.Option{inspector.WithLogger(logger.Named("inspector"))}
	archive, err := setupArchive(ctx, app)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts = append(opts, inspector.WithArchive(archive, cfg.Archive.Prefix, cfg.Archive.ContentType))
	}
	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		opts = append(opts, inspector.WithPublisher(publisher, cfg.PubSub.TopicName))
	}

	var fetcher weblink.Fetcher = collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		Timeout:       cfg.FetchTimeout(),
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		DetectCharset: cfg.HTTP.DetectCharset,
	}, logger.Named("fetcher"))
	logger.Info("using colly fetcher",
		zap.String("user_agent", cfg.HTTP.UserAgent),
		zap.Duration("timeout", cfg.FetchTimeout()),
	)
	if cfg.HTTP.RatePerHost > 0 {
		fetcher = ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.HTTP.RatePerHost,
			Burst:             cfg.HTTP.RateBurst,
		}).Wrap(fetcher)
		logger.Info("per-host rate limit enabled",
			zap.Float64("rps", cfg.HTTP.RatePerHost),
			zap.Int("burst", cfg.HTTP.RateBurst),
		)
	}

	app.Inspector = inspector.New(fetcher, store, opts...)
	app.apiServer = api.NewServer(app.Inspector, *cfg, logger.Named("api"), app.readiness)
	return app, nil
}

// Handler exposes the HTTP API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves the HTTP API until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(a.cfg.Server.Port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return closeErr
}

// Close releases every resource opened by Build, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Warn("close failed", zap.String("resource", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func setupStore(ctx context.Context, app *App) (weblink.RecordStore, error) {
	cfg := app.cfg.Store
	switch cfg.Backend {
	case config.StorePostgres:
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		app.addCloser("postgres", func(context.Context) error { store.Close(); return nil })
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema init failed: %w", err)
		}
		app.readiness["store"] = func(ctx context.Context) error {
			_, err := store.WebLinks(ctx, "", 1)
			return err
		}
		app.Blog = store
		app.logger.Info("using postgres record store", zap.String("table", cfg.Postgres.Table))
		return store, nil
	case config.StoreSQLite:
		store, err := sqlitestore.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store init failed: %w", err)
		}
		app.addCloser("sqlite", func(context.Context) error { return store.Close() })
		app.logger.Info("using sqlite record store", zap.String("path", store.Path()))
		return store, nil
	case config.StoreRedis:
		store, err := redisstore.New(redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store init failed: %w", err)
		}
		app.addCloser("redis", func(context.Context) error { return store.Close() })
		app.readiness["store"] = store.Ping
		app.logger.Info("using redis record store", zap.String("addr", cfg.Redis.Addr))
		return store, nil
	default:
		app.logger.Info("using in-memory record store")
		app.Blog = memorystorage.NewBlogStore()
		return memorystorage.NewWebLinkStore(), nil
	}
}

func setupArchive(ctx context.Context, app *App) (weblink.BlobStore, error) {
	cfg := app.cfg.Archive
	switch cfg.Backend {
	case config.ArchiveGCS:
		blobs, err := gcsstorage.Open(ctx, gcsstorage.Config{Bucket: cfg.GCS.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.addCloser("gcs", func(context.Context) error { return blobs.Close() })
		app.logger.Info("archiving snapshots to gcs", zap.String("bucket", cfg.GCS.Bucket))
		return blobs, nil
	case config.ArchiveLocal:
		blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.Local.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Info("archiving snapshots locally", zap.String("path", cfg.Local.BaseDir))
		return blobs, nil
	case config.ArchiveMemory:
		app.logger.Info("archiving snapshots in memory")
		return memorystorage.NewBlobStore(), nil
	default:
		app.logger.Debug("snapshot archive disabled")
		return nil, nil
	}
}

func setupPublisher(ctx context.Context, app *App) (weblink.Publisher, error) {
	cfg := app.cfg.PubSub
	if cfg.TopicName == "" {
		app.logger.Debug("no Pub/Sub topic configured, notifications disabled")
		return nil, nil
	}
	if cfg.ProjectID == "" {
		app.logger.Warn("Pub/Sub project missing, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	publisher := gcppublisher.New(client, cfg.TopicName)
	app.addCloser("pubsub", func(context.Context) error {
		publisher.Stop()
		return client.Close()
	})
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("topic", cfg.TopicName),
	)
	return publisher, nil
}
