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

	"github.com/ebms/billing-system/internal/api"
	"github.com/ebms/billing-system/internal/api/handler"
	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
	"github.com/ebms/billing-system/internal/core/service"
	"github.com/ebms/billing-system/internal/infrastructure/db/memory"
	mongostore "github.com/ebms/billing-system/internal/infrastructure/db/mongo"
	"github.com/ebms/billing-system/internal/infrastructure/db/postgres"
	redisstore "github.com/ebms/billing-system/internal/infrastructure/db/redis"
	"github.com/ebms/billing-system/internal/pkg/config"
	"github.com/ebms/billing-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// gateway is the persistence gateway selected by STORAGE_DRIVER.
type gateway struct {
	users     ports.UserRepository
	bills     ports.BillRepository
	readiness []handler.Pinger
	close     func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet; fall back to a bare stderr logger.
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ebms-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := openGateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := gw.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("storage close failed")
		}
	}()

	// --- Optional login lockout ---
	var throttle ports.LoginThrottle
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		throttle = redisstore.NewLoginThrottle(rdb, cfg.Auth.MaxFailures, cfg.Auth.Lockout)
		gw.readiness = append(gw.readiness, redisstore.Pinger{Client: rdb})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login lockout enabled")
	}

	// --- Services ---
	users := service.NewUserService(gw.users, cfg.DefaultCustomerPassword, log.With().Str("component", "users").Logger())
	auth := service.NewAuthService(users, throttle, cfg.JWTSecret, cfg.TokenTTL, log.With().Str("component", "auth").Logger())
	tariff := domain.DefaultTariff
	bills := service.NewBillService(gw.bills, gw.users, log.With().Str("component", "bills").Logger(),
		service.WithTariff(tariff))

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, created, err := users.EnsureAdmin(ctx, ports.ProfileInput{
			Name:    cfg.Admin.Name,
			Address: cfg.Admin.Address,
			Email:   cfg.Admin.Email,
		}, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
		log.Info().Str("user_id", admin.ID).Bool("created", created).Msg("admin account ready")
	}

	e := api.NewRouter(api.Services{
		Auth:   auth,
		Users:  users,
		Bills:  bills,
		Tariff: tariff,
	}, api.Options{
		JWTSecret:     cfg.JWTSecret,
		AuthRateLimit: cfg.Auth.RateLimit,
		AuthRateBurst: cfg.Auth.RateBurst,
		Readiness:     gw.readiness,
		Log:           log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StorageDriver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openGateway(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gateway, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(db)
		bills := mongostore.NewBillRepository(db)
		if err := mongostore.EnsureIndexes(ctx, users, bills); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &gateway{
			users:     users,
			bills:     bills,
			readiness: []handler.Pinger{mongostore.Pinger{Client: client}},
			close:     client.Disconnect,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &gateway{
			users:     postgres.NewUserRepository(db),
			bills:     postgres.NewBillRepository(db),
			readiness: []handler.Pinger{postgres.Pinger{DB: db}},
			close:     func(context.Context) error { return db.Close() },
		}, nil

	default:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &gateway{
			users: store.Users(),
			bills: store.Bills(),
			close: func(context.Context) error { return nil },
		}, nil
	}
}
