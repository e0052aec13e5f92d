//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/OctavianTocan/ai-nexus/internal/config"
	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/domain/llm"
	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/auth"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/crontab"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/llmprovider"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/mcp"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/repository/conversationrepo"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/repository/userrepo"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
)

var repositorySet = wire.NewSet(
	userrepo.NewRepository,
	wire.Bind(new(user.Repository), new(*userrepo.Repository)),
	conversationrepo.NewRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.Repository)),
)

var domainSet = wire.NewSet(
	providePasswordHasher,
	user.NewService,
	wire.Bind(new(handlers.UserService), new(*user.Service)),
	conversation.NewService,
	wire.Bind(new(handlers.ConversationService), new(*conversation.Service)),
)

var agentSet = wire.NewSet(
	provideSessionStore,
	newToolCatalog,
	provideToolClient,
	provideLLMClient,
	wire.Bind(new(llm.Provider), new(*llmprovider.Client)),
	newAgentConfig,
	agent.NewFactory,
	newAgentFactory,
)

var httpSet = wire.NewSet(
	provideTokenManager,
	wire.Bind(new(handlers.TokenIssuer), new(*auth.TokenManager)),
	provideCookieConfig,
	handlers.NewProvider,
	newAuthMiddleware,
	provideReadinessProbe,
	httpserver.New,
)

// BuildApplication assembles the service with Wire. buildApplication in server.go is the hand-written equivalent.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		newGormDB,
		repositorySet,
		domainSet,
		agentSet,
		httpSet,
		provideCrontab,
		NewApplication,
	)
	return nil, nil, nil
}

func providePasswordHasher() user.PasswordHasher {
	return auth.NewBcryptHasher(bcrypt.DefaultCost)
}

func provideSessionStore(ctx context.Context, cfg *config.Config, db *gorm.DB, log zerolog.Logger) (agent.SessionStore, func(), error) {
	store, closer, err := newSessionStore(ctx, cfg, db, log)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}

func provideToolClient(catalog *mcp.Catalog) tool.Client {
	if catalog == nil {
		return nil
	}
	return catalog
}

func provideLLMClient(cfg *config.Config) *llmprovider.Client {
	return llmprovider.NewClient(llmprovider.NewRestyClient("llm-provider", cfg.LLMTimeout), "llm-provider", cfg.LLMBaseURL, cfg.LLMAPIKey)
}

func provideTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	return auth.NewTokenManager(cfg.AuthSecret, cfg.AuthTokenLifetime)
}

func provideCookieConfig(cfg *config.Config) handlers.CookieConfig {
	return handlers.CookieConfig{Secure: cfg.IsProduction()}
}

func provideReadinessProbe(db *gorm.DB) httpserver.ReadinessProbe {
	return func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
}

func provideCrontab(cfg *config.Config, catalog *mcp.Catalog) *crontab.Crontab {
	if catalog == nil {
		return nil
	}
	return crontab.NewCrontab(catalog, cfg.MCPCatalogRefreshMinutes)
}
