package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/notes-api/internal/auth"
	"github.com/ayush/notes-api/internal/config"
	"github.com/ayush/notes-api/internal/middleware"
	"github.com/ayush/notes-api/internal/posts"
	"github.com/ayush/notes-api/internal/server"
	"github.com/ayush/notes-api/internal/store"
)

// userStore is what both the auth and post layers need from persistence.
type userStore interface {
	auth.UserStore
	posts.UserStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := middleware.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	// ── Credential store ─────────────────────────────────────
	var users userStore
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err == nil {
			err = mongoClient.Ping(connectCtx, nil)
		}
		cancel()
		if err != nil {
			fatal("mongo connect", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal("mongo indexes", err)
		}
		users = mongoStore
	case config.DriverPostgres:
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal("postgres connect", err)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			fatal("postgres migrate", err)
		}
		users = pgStore
	default:
		slog.Warn("using in-memory store; data is lost on restart")
		users = store.NewMemoryStore()
	}
	slog.Info("credential store ready", slog.String("driver", cfg.StoreDriver))

	// ── Redis profile cache (optional) ───────────────────────
	var profiles auth.ProfileCache
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, continuing without profile cache", slog.String("error", err.Error()))
		} else {
			defer rdb.Close()
			profiles = store.NewProfileCache(rdb, cfg.ProfileCacheTTL)
		}
	}

	// ── MinIO export archive (optional) ──────────────────────
	var exports posts.ExportStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			fatal("minio connect", err)
		}
		exports = minioStore
	}

	// ── Auth ─────────────────────────────────────────────────
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		fatal("password hasher", err)
	}
	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		fatal("token service", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Logger:         logger,
		AllowedOrigins: cfg.Origins(),
		Tokens:         tokens,
		Auth:           auth.NewHandler(users, hasher, tokens, profiles),
		Posts:          posts.NewHandler(posts.NewService(users), exports),
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
