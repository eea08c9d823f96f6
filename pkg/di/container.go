// Package di wires the application dependencies in one place.
package di

import (
	"github.com/AFlo59/CompareModelPoc-sub000/internal/analytics"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/chat"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/portrait"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/session"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/cache"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/jwt"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application.
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *gorm.DB
	Cache        *cache.Cache
	JWTService   *jwt.Service
	Store        *store.Store
	Providers    *providers.Factory
	ChatRouter   *chat.Router
	Portrait     *portrait.Generator
	Orchestrator *session.Orchestrator
	Analytics    *analytics.Service
}

// New builds the container from the application configuration: database,
// cache, provider clients, and the services on top of them.
func New() (*Container, error) {
	cfg := config.Get()

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.Format == "json",
		Output: nil,
	})
	logger.SetGlobal(log)

	db, err := store.Open(cfg, log)
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewFromConfig()
	}

	st := store.New(db, c, log)
	factory := providers.NewFactoryFromConfig()
	chatRouter := chat.NewRouter(factory, log)

	gen, err := portrait.NewGenerator(factory, st, portrait.OptionsFromConfig(), log)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Cache:        c,
		JWTService:   jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry),
		Store:        st,
		Providers:    factory,
		ChatRouter:   chatRouter,
		Portrait:     gen,
		Orchestrator: session.New(st, chatRouter, log),
		Analytics:    analytics.NewService(st, c, cfg.Cache.StatsTTL, log),
	}, nil
}
