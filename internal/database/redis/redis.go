package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// Connect sets up the shared Redis client used by the rate limiters.
// A missing address is allowed: limiters fail open without Redis.
func Connect(addr, password string, db int) {
	if addr == "" {
		log.Println("REDIS_ADDR not set, rate limiting disabled")
		return
	}
	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := Client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Error connecting to Redis: %s", err)
	} else {
		log.Println("Successfully connected to Redis")
	}
}

func Close() {
	if Client != nil {
		if err := Client.Close(); err != nil {
			log.Printf("Error closing Redis client: %s", err)
		}
	}
}
