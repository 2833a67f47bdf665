package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/events"
	"github.com/gitcordhq/gitcord/internal/middleware"
	"github.com/gitcordhq/gitcord/internal/providers"
	"github.com/gitcordhq/gitcord/internal/ratelimit"
	"github.com/gitcordhq/gitcord/internal/repository"
	"github.com/gitcordhq/gitcord/internal/services"
	"github.com/gitcordhq/gitcord/internal/tracing"
	"github.com/gitcordhq/gitcord/pkg/auth"
	"github.com/gitcordhq/gitcord/pkg/config"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Repo            repository.SubscriptionRepository
	Renderer        *events.Renderer
	Router          services.RouterService
	Commands        services.CommandService
	Logger          *slog.Logger
	AdminValidator  auth.Validator
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithAdminValidator sets a custom admin validator
func WithAdminValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.AdminValidator = validator
		return nil
	}
}

// WithSink overrides the Discord sink; tests substitute in-memory fakes.
func WithSink(sink providers.Sink) ApplicationOption {
	return func(app *Application) error {
		app.Router = services.NewRouterService(app.Repo, sink, app.Logger, app.RateLimiter, ratelimit.Bucket(app.Config.DeliveryRateLimit))
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "gitcord", "env", cfg.Env)
	slog.SetDefault(logger)

	var (
		repo    repository.SubscriptionRepository
		limiter ratelimit.Limiter
	)
	if cfg.Storage == "redis" {
		redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
		repo = repository.NewRedisRepository(redisClient)
		limiter = ratelimit.NewTokenBucketLimiter(redisClient)
	} else {
		repo = repository.NewMemoryRepository()
	}

	sink := providers.NewDiscordClient(cfg.DiscordAPIBase, cfg.DiscordBotToken, time.Duration(cfg.DiscordTimeoutSeconds)*time.Second)
	source := providers.NewGitHubSource(cfg.DataSourceURL, cfg.DataSourceAPIKey, time.Duration(cfg.DataSourceTimeoutSeconds)*time.Second)

	router := services.NewRouterService(repo, sink, logger, limiter, ratelimit.Bucket(cfg.DeliveryRateLimit))
	commands := services.NewCommandService(repo, source, logger)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  "gitcord",
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware("gitcord"),
	)

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Repo:            repo,
		Renderer:        events.NewRenderer(),
		Router:          router,
		Commands:        commands,
		Logger:          logger,
		RateLimiter:     limiter,
		TracingShutdown: shutdown,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	// Create the default admin validator from config if not provided. A
	// Config built in code may skip applyDefaults, so an empty provider
	// with an API key set still means the static provider.
	authProvider := cfg.AdminAuthProvider
	if authProvider == "" && cfg.AdminAPIKey != "" {
		authProvider = "static"
	}
	if app.AdminValidator == nil && authProvider != "" {
		providerConfig := json.RawMessage(cfg.AdminAuthConfig)
		if len(providerConfig) == 0 && authProvider == "static" && cfg.AdminAPIKey != "" {
			providerConfig, _ = json.Marshal(cfg.AdminAPIKey)
		}
		if len(providerConfig) > 0 {
			validator, err := auth.NewValidator(auth.ProviderConfig{
				Type:   authProvider,
				Config: providerConfig,
			})
			if err != nil {
				return nil, err
			}
			app.AdminValidator = validator
		}
	}

	return app, nil
}
