package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/OctavianTocan/ai-nexus/internal/config"
	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/auth"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/crontab"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database"
	_ "github.com/OctavianTocan/ai-nexus/internal/infrastructure/database/entities"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/llmprovider"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/logger"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/mcp"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/observability"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/repository/conversationrepo"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/repository/userrepo"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/sessionstore"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
)

// @title AI Nexus Chat API
// @version 1.0
// @description Chat backend with cookie sessions, conversations and streamed agent answers.
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	cron       *crontab.Crontab
	closers    []io.Closer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, cron *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		cron:       cron,
		log:        log,
	}
}

// Start runs the HTTP server and, when tools are configured, the catalog refresh job.
// The first one to fail stops the other.
func (a *Application) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.httpServer.Run(gctx)
	})
	if a.cron != nil {
		g.Go(func() error {
			return a.cron.Run(gctx)
		})
	}
	return g.Wait()
}

func (a *Application) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close resource")
		}
	}
}

func main() {
	loadEnvFiles()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ai-nexus",
		Short:         "AI Nexus chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	})
	return root
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	log := logger.New(cfg)

	db, err := newGormDB(cfg)
	if err != nil {
		log.Error().Err(err).Msg("connect database")
		return err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Error().Err(err).Msg("migrate database")
		return err
	}
	log.Info().Msg("database schema is up to date")
	return nil
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("build application")
		return err
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return err
	}

	log.Info().Msg("application exited cleanly")
	return nil
}

// buildApplication is the hand-written counterpart of BuildApplication in wire.go.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	db, err := newGormDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var closers []io.Closer
	store, closer, err := newSessionStore(ctx, cfg, db, log)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	catalog, err := newToolCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.AuthSecret, cfg.AuthTokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("initialize token manager: %w", err)
	}

	users := user.NewService(userrepo.NewRepository(db), auth.NewBcryptHasher(bcrypt.DefaultCost), log)
	conversations := conversation.NewService(conversationrepo.NewRepository(db), log)

	llmClient := llmprovider.NewClient(
		llmprovider.NewRestyClient("llm-provider", cfg.LLMTimeout),
		"llm-provider",
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
	)

	var tools tool.Client
	if catalog != nil {
		tools = catalog
	}
	factory := agent.NewFactory(newAgentConfig(cfg), llmClient, tools, store, log)

	handlerProvider := handlers.NewProvider(
		conversations,
		users,
		newAgentFactory(factory),
		tokens,
		handlers.CookieConfig{Secure: cfg.IsProduction()},
		log,
	)
	requireUser := newAuthMiddleware(tokens, users, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, requireUser, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})

	var cron *crontab.Crontab
	if catalog != nil {
		cron = crontab.NewCrontab(catalog, cfg.MCPCatalogRefreshMinutes)
	}

	app := NewApplication(httpServer, cron, log)
	app.closers = closers
	return app, nil
}

func newGormDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Connect(database.Config{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseURL,
		ReadDSN:         cfg.DatabaseReadURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
}

func newSessionStore(ctx context.Context, cfg *config.Config, db *gorm.DB, log zerolog.Logger) (agent.SessionStore, io.Closer, error) {
	if cfg.AgentSessionStore != config.SessionStoreRedis {
		return sessionstore.NewGormStore(db), nil, nil
	}
	client, err := sessionstore.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect session redis: %w", err)
	}
	log.Info().Msg("agent sessions stored in redis")
	return sessionstore.NewRedisStore(client, cfg.AgentSessionTTL, log), client, nil
}

// newToolCatalog returns nil when no tool server is configured.
func newToolCatalog(cfg *config.Config, log zerolog.Logger) (*mcp.Catalog, error) {
	if cfg.MCPServerURL == "" {
		log.Warn().Msg("MCP_SERVER_URL is empty, agents run without tools")
		return nil, nil
	}
	client := mcp.NewClient(cfg.MCPServerURL, cfg.MCPToolTimeout, log)
	ttl := time.Duration(cfg.MCPCatalogRefreshMinutes) * time.Minute
	catalog, err := mcp.NewCatalog(client, ttl, log)
	if err != nil {
		return nil, fmt.Errorf("initialize tool catalog: %w", err)
	}
	return catalog, nil
}

func newAgentConfig(cfg *config.Config) agent.FactoryConfig {
	return agent.FactoryConfig{
		Model:        cfg.AgentModel,
		HistoryRuns:  cfg.AgentHistoryRuns,
		MaxToolDepth: cfg.AgentMaxToolDepth,
		ToolTimeout:  cfg.MCPToolTimeout,
		Markdown:     true,
	}
}

func newAgentFactory(factory *agent.Factory) handlers.AgentFactory {
	return func(session agent.SessionConfig) handlers.ChatAgent {
		return factory.New(session)
	}
}

func newAuthMiddleware(tokens *auth.TokenManager, users *user.Service, log zerolog.Logger) gin.HandlerFunc {
	return middlewares.AuthMiddleware(tokens, users, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
