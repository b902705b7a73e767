package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"project-tasks/internal/auth"
	"project-tasks/internal/notify"
	"project-tasks/internal/server"
	"project-tasks/internal/task"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := server.Config{
		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   envOr("MONGO_DB", "tasksdb"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		SMTP: notify.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envOr("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Pass:     os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
			Security: envOr("SMTP_SECURITY", "starttls"),
		},
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("bad TOKEN_TTL %q: %v", ttl, err)
		}
		cfg.TokenTTL = d
	}
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, using an insecure dev default")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s *server.Server
	var err error
	if cfg.MongoURI == "" {
		// Storage-free dev mode: everything lives in memory and is gone
		// on restart.
		log.Println("MONGO_URI not set, running with in-memory stores")
		s = server.NewWithStores(cfg, auth.NewMemoryUserStore(), task.NewMemoryStore(), notify.NewMemoryOutbox())
	} else {
		s, err = server.New(ctx, cfg)
		if err != nil {
			log.Fatalf("server: %v", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(closeCtx)
		}()
	}

	addr := ":" + envOr("PORT", "3001")
	if err := s.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
