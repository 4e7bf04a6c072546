package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"promptcraft/internal/cache"
	"promptcraft/internal/config"
	"promptcraft/internal/logger"
	"promptcraft/internal/repository"
	"promptcraft/internal/service"
	"promptcraft/internal/transport/rest"
	"promptcraft/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// App holds the wired server dependencies
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Sessions *service.SessionService
	Hub      *ws.Hub
	Handler  http.Handler

	closers []func(context.Context) error
}

// NewEngine loads the catalog and builds a questionnaire engine that submits
// to the configured generation service
func NewEngine(cfg *config.Config, log *logger.Logger) (*service.QuestionnaireEngine, error) {
	if !cfg.Generator.IsEnabled() {
		return nil, errors.New("GENERATOR_ENDPOINT is empty")
	}
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	client := service.NewGeneratorClient(cfg.Generator, log)
	return service.NewQuestionnaireEngine(catalog, client, service.NewNormalizer()), nil
}

// New connects the configured stores and builds the HTTP handler. Redis and
// MongoDB are optional: without Redis sessions live in process memory, and
// without MongoDB completed prompts are not archived.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	engine, err := NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}

	sessions, err := a.sessionCache(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	prompts, err := a.promptRepo(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Hub = ws.NewHub(log)
	a.Sessions = service.NewSessionService(engine, sessions, prompts, log)
	a.Sessions.SetBroadcaster(a.Hub)

	a.Handler = rest.NewRouter(&rest.Container{
		SessionService: a.Sessions,
		WSHub:          a.Hub,
		Logger:         log,
		AllowedOrigins: cfg.App.CorsAllowedOrigins,
	})
	return a, nil
}

func (a *App) sessionCache(ctx context.Context) (cache.SessionCache, error) {
	if a.Config.Redis.URI == "" {
		a.Log.Info("REDIS_URI not set, keeping sessions in memory")
		return cache.NewMemorySessionCache(a.Config.Session.TTL, a.Config.Session.LockTTL), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: a.Config.Redis.URI,
	})
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	a.Log.Info("connected to Redis", "addr", a.Config.Redis.URI)
	return cache.NewSessionCache(rdb, a.Config.Session.TTL, a.Config.Session.LockTTL), nil
}

func (a *App) promptRepo(ctx context.Context) (repository.PromptRepo, error) {
	if a.Config.Mongo.URI == "" {
		a.Log.Info("MONGO_URI not set, prompt archive disabled")
		return nil, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	a.Log.Info("connected to MongoDB", "database", a.Config.Mongo.Database)
	return repository.NewPromptRepo(client.Database(a.Config.Mongo.Database)), nil
}

// Serve listens on the configured port until ctx is cancelled, then drains
// in-flight requests
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.App.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server starting", "addr", srv.Addr, "env", a.Config.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}

// Close stops the hub and disconnects the stores
func (a *App) Close(ctx context.Context) error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
