package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper). All external
// hostnames and API keys live here and are injected into clients at
// startup; nothing reads ambient globals after Load.
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	MarketAPIURL        string // quote/search API base, e.g. https://www.alphavantage.co
	MarketAPIKey        string
	MarketTimeout       time.Duration // per-call budget for price lookups
	NewsAPIURL          string        // ESG news API base, e.g. https://newsapi.org
	NewsAPIKey          string
	GeminiAPIKey        string // AI insight generation
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}

	marketURL := viper.GetString("MARKET_API_URL")
	if marketURL == "" {
		marketURL = "https://www.alphavantage.co"
	}
	newsURL := viper.GetString("NEWS_API_URL")
	if newsURL == "" {
		newsURL = "https://newsapi.org"
	}

	marketTimeout := viper.GetDuration("MARKET_TIMEOUT")
	if marketTimeout <= 0 {
		// Bounded per-call budget so one stalled quote lookup cannot hang a
		// whole dashboard request.
		marketTimeout = 5 * time.Second
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		MarketAPIURL:        marketURL,
		MarketAPIKey:        viper.GetString("MARKET_API_KEY"),
		MarketTimeout:       marketTimeout,
		NewsAPIURL:          newsURL,
		NewsAPIKey:          viper.GetString("NEWS_API_KEY"),
		GeminiAPIKey:        viper.GetString("GEMINI_API_KEY"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}
