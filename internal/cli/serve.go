package cli

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/adapter/cache"
	"github.com/stockroom/stockroom/internal/adapter/handler"
	"github.com/stockroom/stockroom/internal/adapter/storage"
	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/core/service"
	"github.com/stockroom/stockroom/internal/logging"
	"github.com/stockroom/stockroom/internal/port"
)

// store is the full record-store surface the server wires against.
type store interface {
	port.InventoryRepository
	port.OrderRepository
	port.UserRepository
	handler.Pinger
}

// NewServeCommand creates the serve subcommand.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if dev {
				cfg.Dev = true
				if cfg.JWTSecret == "" {
					cfg.JWTSecret = "dev-only-secret"
				}
			}
			return runServer(cfg)
		},
	}

	cmd.Flags().BoolVar(&dev, "dev", false, "run with an in-memory store and seeded sample data")
	return cmd
}

func runServer(cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		st      store
		cleanup []func()
	)

	if cfg.Dev {
		mem := storage.NewMemoryStore()
		if err := seedStore(ctx, mem, "DevAdmin123!", logger); err != nil {
			return err
		}
		st = mem
		logger.Info("running in dev mode with in-memory store")
	} else {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return err
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		cleanup = append(cleanup, func() { db.Close() })
		st = storage.NewMySQLStore(db)
		logger.Info("connected to mysql")
	}

	var idem port.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		cleanup = append(cleanup, func() { rdb.Close() })
		idem = cache.NewRedisIdempotency(rdb)
		logger.Info("connected to redis")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	router := handler.NewRouter(handler.Deps{
		Fulfillment: service.NewFulfillment(st, st, idem, logger),
		Inventory:   service.NewInventory(st, logger),
		Users:       service.NewUsers(st, tokens, logger),
		Verifier:    tokens,
		Store:       st,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	for _, fn := range cleanup {
		fn()
	}
	logger.Info("stopped")
	return nil
}
