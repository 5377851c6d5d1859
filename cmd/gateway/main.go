package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aman-churiwal/assistant-gateway/internal/config"
	"github.com/aman-churiwal/assistant-gateway/internal/server"
	"github.com/aman-churiwal/assistant-gateway/internal/storage"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Session.Secret == "" {
		log.Fatal("SESSION_SECRET (or session.secret in config) must be set")
	}

	var redis *storage.RedisClient
	if cfg.Redis.Enabled {
		redis, err = storage.NewRedis(
			cfg.Redis.GetRedisAddr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redis.Close()

		log.Println("Connected to redis successfully")
	}

	var postgres *storage.Postgres
	if cfg.Postgres.Enabled {
		postgres, err = storage.NewPostgres(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer postgres.Close()

		if err := postgres.AutoMigrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		log.Println("Connected to postgres successfully")
	}

	// Create server
	srv := server.New(cfg, redis, postgres)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
