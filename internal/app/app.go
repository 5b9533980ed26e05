package app

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"terravest-backend/internal/account"
	"terravest-backend/internal/config"
	"terravest-backend/internal/database"
	"terravest-backend/internal/esg"
	"terravest-backend/internal/health"
	"terravest-backend/internal/insights"
	"terravest-backend/internal/market"
	"terravest-backend/internal/middleware"
	"terravest-backend/internal/portfolio"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. External clients are constructed here from config and
// injected; nothing below this point reads environment state.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Session (Redis)
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)

	// Health request marker (after session)
	app.Use(middleware.HealthMarker(rdb))

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// --- Health (no auth) ---
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}
	var dbPinger health.DBPinger
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			dbPinger = sqlDB
		}
	}
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		DB:             dbPinger,
		MarketAPIURL:   cfg.MarketAPIURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)
	app.Get("/health/errors", healthHandlers.Errors)

	// External clients, config-injected.
	marketClient := market.NewClient(cfg.MarketAPIURL, cfg.MarketAPIKey, cfg.MarketTimeout)
	newsClient := market.NewNewsClient(cfg.NewsAPIURL, cfg.NewsAPIKey, cfg.MarketTimeout)

	var generator insights.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := insights.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Warn().Err(err).Msg("gemini client unavailable, AI insight endpoints disabled")
		} else {
			generator = gemini
		}
	}

	// --- Account (no auth middleware; login/signup manage the session) ---
	accountService := &account.Service{DB: db}
	accountHandlers := &account.Handlers{Service: accountService, Rdb: rdb, Config: sessionCfg}
	accountGroup := app.Group("/api/account")
	accountGroup.Post("/signup", accountHandlers.Signup)
	accountGroup.Post("/login", accountHandlers.Login)
	accountGroup.Post("/check-user", accountHandlers.CheckUser)
	accountGroup.Post("/logout", accountHandlers.Logout)
	app.Get("/api/app-data", accountHandlers.AppData)

	// --- Protected routes ---
	if db != nil {
		accountGroup.Get("/preferences", middleware.RequireAuth(), accountHandlers.GetPreferences)
		accountGroup.Post("/preferences", middleware.RequireAuth(), accountHandlers.SavePreferences)
		accountGroup.Post("/update-settings", middleware.RequireAuth(), accountHandlers.UpdateSettings)

		// Market data
		marketHandlers := &market.Handlers{Client: marketClient, News: newsClient}
		app.Get("/api/search-company", middleware.RequireAuth(), marketHandlers.SearchCompany)
		app.Get("/api/get-stock-price", middleware.RequireAuth(), marketHandlers.GetStockPrice)
		app.Get("/api/fetch-esg-news", middleware.RequireAuth(), marketHandlers.FetchESGNews)

		// Portfolio + dashboard
		esgStore := &esg.Store{DB: db}
		portfolioService := &portfolio.Service{
			DB:           db,
			Prices:       marketClient,
			ESG:          esgStore,
			PriceTimeout: cfg.MarketTimeout,
		}
		portfolioHandlers := &portfolio.Handlers{Service: portfolioService}

		// ESG dataset
		esgService := &esg.Service{Store: esgStore}
		esgHandlers := &esg.Handlers{Service: esgService, Tickers: portfolioService}
		app.Get("/api/get-esg-data", middleware.RequireAuth(), esgHandlers.GetESGData)
		app.Get("/api/get-esg-data/:ticker", middleware.RequireAuth(), esgHandlers.GetCompanyESGData)
		app.Get("/api/fetch-esg-peer-scores/:symbol", middleware.RequireAuth(), esgHandlers.FetchPeerScores)
		app.Post("/api/add-stock", middleware.RequireAuth(), portfolioHandlers.AddStock)
		app.Get("/api/get-portfolio", middleware.RequireAuth(), portfolioHandlers.GetPortfolio)
		app.Delete("/api/remove-stock/:id", middleware.RequireAuth(), portfolioHandlers.RemoveStock)
		app.Get("/api/dashboard", middleware.RequireAuth(), portfolioHandlers.Dashboard)

		// AI insights
		insightHandlers := &insights.Handlers{
			Generator: generator,
			Portfolio: portfolioService,
			Accounts:  accountService,
		}
		app.Post("/api/chatgpt-advisor", middleware.RequireAuth(), insightHandlers.Advisor)
		app.Post("/api/generate-esg-insight", middleware.RequireAuth(), insightHandlers.GenerateInsight)
	}

	return app, db, rdb, nil
}
