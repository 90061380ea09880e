// Command authd serves the authentication API over HTTP. It wires
// Postgres-backed directories and a Redis session store into the
// engine and exposes the routes from internal/httpapi.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	authservice "github.com/Vadimvill/auth-service"
	"github.com/Vadimvill/auth-service/internal/directory"
	"github.com/Vadimvill/auth-service/internal/httpapi"
	promexport "github.com/Vadimvill/auth-service/metrics/export/prometheus"
)

func main() {
	// Local overrides; absent file is fine in production.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("authd: %v", err)
	}
}

func run() error {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return errors.New("DATABASE_DSN is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	dir, err := directory.NewGorm(db)
	if err != nil {
		return err
	}
	if err := dir.Migrate(); err != nil {
		return err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	})
	defer client.Close()

	cfg := authservice.DefaultConfig()
	cfg.JWT.Secret = []byte(secret)
	cfg.JWT.Issuer = envOr("JWT_ISSUER", "authd")
	if ttl := envDuration("ACCESS_TOKEN_TTL", 0); ttl > 0 {
		cfg.JWT.AccessTTL = ttl
	}
	if ttl := envDuration("SESSION_TTL", 0); ttl > 0 {
		cfg.Session.TTL = ttl
	}
	cfg.Session.KeyPrefix = envOr("SESSION_KEY_PREFIX", "auth")
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := authservice.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserDirectory(dir).
		WithRoleDirectory(dir).
		WithPermissionDirectory(dir).
		WithAuditSink(authservice.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	metrics := promexport.NewExporter(engine).Handler()
	server := &http.Server{
		Addr:              envOr("LISTEN_ADDR", ":8080"),
		Handler:           httpapi.New(engine, metrics).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("authd: listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("authd: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
