package main

import (
	"context"
	"log"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/server"
	"marketplace/pkg/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(db, redisClient, cfg)

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Offer{},
		&model.OfferDetail{},
		&model.Order{},
		&model.Review{},
	)
}

// connectRedis returns nil when no URL is configured; rate limiting is then
// disabled rather than fatal.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("redis not configured, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, rate limiting disabled: %v", err)
		return nil
	}

	return client
}
