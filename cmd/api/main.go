// @title                       Credit Gateway API
// @version                     1.0
// @description                 Credit-metered API access: accounts, API keys, metered calls and admin credit adjustments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/api"
	"github.com/dnlabs/credit-gateway/internal/api/handler"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
	"github.com/dnlabs/credit-gateway/internal/core/service"
	"github.com/dnlabs/credit-gateway/internal/infrastructure/config"
	"github.com/dnlabs/credit-gateway/internal/infrastructure/db/memory"
	mongostore "github.com/dnlabs/credit-gateway/internal/infrastructure/db/mongo"
	pgstore "github.com/dnlabs/credit-gateway/internal/infrastructure/db/postgres"
	redisstore "github.com/dnlabs/credit-gateway/internal/infrastructure/db/redis"
	"github.com/dnlabs/credit-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// stores bundles the selected persistence adapters.
type stores struct {
	accounts ports.AccountRepository
	usage    ports.UsageLogRepository
	pinger   handler.Pinger
	close    func()
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger level comes from config, so fall back to a bare logger here.
		bare := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bare.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "credit-gateway",
		Env:     cfg.Env,
		Store:   cfg.StoreDriver,
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.close()

	health := map[string]handler.Pinger{cfg.StoreDriver: st.pinger}

	var limiter *redisstore.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Timeout:  cfg.StoreTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		limiter = redisstore.NewRateLimiter(rdb, cfg.RateLimit.PerMinute, time.Minute)
		health["redis"] = redisstore.NewPinger(rdb)
		log.Info().Int("per_minute", cfg.RateLimit.PerMinute).Msg("rate limiting enabled")
	}

	clock := ports.SystemClock{}
	creds, err := service.NewCredentials(cfg.JWTSecret, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid credentials configuration")
	}

	accountSvc := service.NewAccountService(st.accounts, st.usage, creds, clock, cfg.Location(), log)
	meteringSvc := service.NewMeteringService(st.accounts, st.usage, clock, log)
	adminSvc := service.NewAdminService(st.accounts, st.usage, clock, log)

	deps := api.Deps{
		Accounts:    accountSvc,
		Sessions:    creds,
		Metering:    meteringSvc,
		Admin:       adminSvc,
		AdminSecret: cfg.AdminAPIKey,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Health:      health,
		Log:         log,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	e := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.StoreDriver).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
		return &stores{
			accounts: mongostore.NewAccountRepository(db, cfg.StoreTimeout),
			usage:    mongostore.NewUsageRepository(db, cfg.StoreTimeout),
			pinger:   mongostore.NewPinger(db),
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to PostgreSQL, migrations applied")
		return &stores{
			accounts: pgstore.NewAccountRepository(pool, cfg.StoreTimeout),
			usage:    pgstore.NewUsageRepository(pool, cfg.StoreTimeout),
			pinger:   pool,
			close:    pool.Close,
		}, nil

	default:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		st := memory.New()
		return &stores{
			accounts: st,
			usage:    st,
			pinger:   st,
			close:    func() { _ = st.Close() },
		}, nil
	}
}
