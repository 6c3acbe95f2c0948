package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"artcritic/internal/api"
	"artcritic/internal/config"
	"artcritic/internal/ratelimit"
	"artcritic/internal/redis"
	"artcritic/internal/service/critique"
	"artcritic/internal/service/notify"
	"artcritic/internal/service/survey"
	"artcritic/internal/storage"
	"artcritic/internal/upload"
)

const (
	defaultAIMax      = 5
	defaultAIWindow   = time.Minute
	defaultFormMax    = 20
	defaultFormWindow = time.Minute
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("ARTCRITIC_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steward, err := upload.NewSteward(cfg.BasicConfig.UploadDir, cfg.BasicConfig.MaxUploadMB<<20, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init upload steward")
	}
	steward.StartSweeper(ctx,
		time.Duration(cfg.BasicConfig.SweepInterval)*time.Minute,
		time.Duration(cfg.BasicConfig.UploadMaxAge)*time.Minute)

	critic, err := critique.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("init critique service, inference routes disabled")
		critic = critique.Unconfigured(logger)
	}
	if !critic.Configured() {
		logger.Warn().Msg("no AI provider configured, inference routes will answer with a fixed error")
	}

	mailer := notify.NewMailer(cfg, logger)
	if !mailer.Configured() {
		logger.Warn().Msg("SMTP not configured, notification routes will answer with a fixed error")
	}

	store, dbClose := newSubmissionStore(cfg, logger)
	if dbClose != nil {
		defer dbClose()
	}

	aiLimiter, formLimiter := newLimiters(cfg, logger)

	handlers := api.NewHandler(critic, mailer, store, steward,
		aiLimiter, formLimiter, cfg.BasicConfig.AllowedOrigins, logger)

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	logger.Info().Str("addr", addr).Msg("starting server")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newSubmissionStore prefers the SQL store when ARTCRITIC_DB names a
// configured database, falling back to per-kind CSV files in the data dir.
func newSubmissionStore(cfg *config.Config, logger zerolog.Logger) (survey.Store, func() error) {
	if dbType := os.Getenv("ARTCRITIC_DB"); dbType != "" {
		db, err := storage.Open(dbType, cfg)
		if err != nil {
			logger.Fatal().Err(err).Str("db", dbType).Msg("open database")
		}
		if err := storage.Migrate(db, dbType); err != nil {
			logger.Fatal().Err(err).Str("db", dbType).Msg("migrate database")
		}
		logger.Info().Str("db", dbType).Msg("using SQL submission store")
		return survey.NewSQLStore(db), db.Close
	}

	store, err := survey.NewCSVStore(cfg.BasicConfig.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("init CSV submission store")
	}
	return store, nil
}

// newLimiters picks redis-backed windows when redis is reachable, in-memory
// fixed windows otherwise.
func newLimiters(cfg *config.Config, logger zerolog.Logger) (ratelimit.Limiter, ratelimit.Limiter) {
	aiMax, aiWindow := cfg.RateLimits.AIMax, time.Duration(cfg.RateLimits.AIWindow)*time.Second
	if aiMax <= 0 {
		aiMax = defaultAIMax
	}
	if aiWindow <= 0 {
		aiWindow = defaultAIWindow
	}
	formMax, formWindow := cfg.RateLimits.FormMax, time.Duration(cfg.RateLimits.FormWindow)*time.Second
	if formMax <= 0 {
		formMax = defaultFormMax
	}
	if formWindow <= 0 {
		formWindow = defaultFormWindow
	}

	if cfg.Redis.Host != "" {
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, using in-memory rate limits")
		} else {
			logger.Info().Msg("using redis rate limit store")
			return ratelimit.NewRedisWindow(rdb, "rl:ai", aiMax, aiWindow, logger),
				ratelimit.NewRedisWindow(rdb, "rl:form", formMax, formWindow, logger)
		}
	}
	return ratelimit.NewFixedWindow(aiMax, aiWindow), ratelimit.NewFixedWindow(formMax, formWindow)
}
