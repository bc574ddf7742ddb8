// Command server starts the video-sharing REST API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidshare/internal/api"
	"vidshare/internal/auth"
	"vidshare/internal/observability/logging"
	"vidshare/internal/observability/metrics"
	"vidshare/internal/server"
	"vidshare/internal/storage"
)

func main() {
	// A local .env is a convenience for development; absence is not an error.
	_ = godotenv.Load()

	addr := flag.String("addr", "", "HTTP listen address")
	dataPath := flag.String("data", "", "path to the JSON datastore")
	storageDriver := flag.String("storage-driver", "", "datastore driver (json or postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	postgresMaxConns := flag.Int("postgres-max-conns", 0, "maximum connections in the Postgres pool")
	postgresMinConns := flag.Int("postgres-min-conns", 0, "minimum idle connections maintained by the Postgres pool")
	postgresMaxConnLifetime := flag.Duration("postgres-max-conn-lifetime", 0, "maximum lifetime for a pooled Postgres connection")
	postgresAppName := flag.String("postgres-app-name", "", "application_name reported to Postgres")
	jwtSecret := flag.String("jwt-secret", "", "HMAC secret used to sign auth tokens")
	tokenTTL := flag.Duration("token-ttl", 0, "auth token lifetime")
	uploadDir := flag.String("upload-dir", "", "directory receiving raw video uploads")
	encoderToken := flag.String("encoder-token", "", "shared secret expected from the encoding pipeline (empty disables the check)")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (json or text)")
	flag.Parse()

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(*logLevel, os.Getenv("VIDSHARE_LOG_LEVEL")),
		Format: firstNonEmpty(*logFormat, os.Getenv("VIDSHARE_LOG_FORMAT")),
	})
	auditLogger := logging.WithComponent(logger, "audit")
	recorder := metrics.Default()

	secret := firstNonEmpty(*jwtSecret, os.Getenv("VIDSHARE_JWT_SECRET"))
	if secret == "" {
		logger.Error("jwt secret is required (set -jwt-secret or VIDSHARE_JWT_SECRET)")
		os.Exit(1)
	}

	var tokenOpts []auth.TokenOption
	if ttl := resolveDuration(*tokenTTL, "VIDSHARE_TOKEN_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, auth.WithTTL(ttl))
	}
	tokens, err := auth.NewTokenManager(secret, tokenOpts...)
	if err != nil {
		logger.Error("failed to configure token manager", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, storeSettings{
		Driver:          firstNonEmpty(*storageDriver, os.Getenv("VIDSHARE_STORAGE_DRIVER")),
		DataPath:        firstNonEmpty(*dataPath, os.Getenv("VIDSHARE_DATA")),
		PostgresDSN:     firstNonEmpty(*postgresDSN, os.Getenv("VIDSHARE_POSTGRES_DSN")),
		MaxConns:        resolveInt(*postgresMaxConns, "VIDSHARE_POSTGRES_MAX_CONNS"),
		MinConns:        resolveInt(*postgresMinConns, "VIDSHARE_POSTGRES_MIN_CONNS"),
		MaxConnLifetime: resolveDuration(*postgresMaxConnLifetime, "VIDSHARE_POSTGRES_MAX_CONN_LIFETIME"),
		AppName:         firstNonEmpty(*postgresAppName, os.Getenv("VIDSHARE_POSTGRES_APP_NAME")),
	})
	if err != nil {
		logger.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := closeStore(shutdownCtx); err != nil {
			logger.Warn("failed to close datastore", "error", err)
		}
	}()

	handler := api.NewHandler(store, tokens, logging.WithComponent(logger, "api"))
	handler.UploadDir = firstNonEmpty(*uploadDir, os.Getenv("VIDSHARE_UPLOAD_DIR"))
	handler.EncoderToken = firstNonEmpty(*encoderToken, os.Getenv("VIDSHARE_ENCODER_TOKEN"))
	handler.Metrics = recorder

	listenAddr := firstNonEmpty(*addr, os.Getenv("VIDSHARE_ADDR"))
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	srv, err := server.New(handler, server.Config{
		Addr: listenAddr,
		TLS: server.TLSConfig{
			CertFile: firstNonEmpty(*tlsCert, os.Getenv("VIDSHARE_TLS_CERT")),
			KeyFile:  firstNonEmpty(*tlsKey, os.Getenv("VIDSHARE_TLS_KEY")),
		},
		Logger:      logger,
		AuditLogger: auditLogger,
		Metrics:     recorder,
	})
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	logger.Info("API listening", "addr", listenAddr)
	logger.Info("metrics endpoint available", "path", "/metrics")
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

type storeSettings struct {
	Driver          string
	DataPath        string
	PostgresDSN     string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	AppName         string
}

// openStore builds the configured repository and returns it together with a
// close function. The postgres driver runs schema migrations on startup.
func openStore(ctx context.Context, settings storeSettings) (storage.Repository, func(context.Context) error, error) {
	driver := strings.ToLower(strings.TrimSpace(settings.Driver))
	if driver == "" {
		if settings.PostgresDSN != "" {
			driver = "postgres"
		} else {
			driver = "json"
		}
	}

	switch driver {
	case "postgres":
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:             settings.PostgresDSN,
			MaxConnections:  int32(settings.MaxConns),
			MinConnections:  int32(settings.MinConns),
			MaxConnLifetime: settings.MaxConnLifetime,
			ApplicationName: settings.AppName,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = repo.Close(closeCtx)
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		path := settings.DataPath
		if path == "" {
			path = "data/vidshare.json"
		}
		store, err := storage.NewStorage(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return nil }, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func resolveInt(flagValue int, envKey string) int {
	if flagValue > 0 {
		return flagValue
	}
	if raw := strings.TrimSpace(os.Getenv(envKey)); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return 0
}

func resolveDuration(flagValue time.Duration, envKey string) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if raw := strings.TrimSpace(os.Getenv(envKey)); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil {
			return value
		}
	}
	return 0
}
