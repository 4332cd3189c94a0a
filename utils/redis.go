// File: utils/redis.go
package utils

import (
	"context"
	"log"
	"time"

	"mindbridge/config"

	"github.com/go-redis/redis/v8"
)

// PubSubClient is the dedicated client for consultation pub/sub traffic. The
// asynq queue holds its own connection on a separate DB.
var PubSubClient *redis.Client

// InitPubSub initializes the Redis client used for the consultation channel
// transport (using DB from AppConfig for pub/sub).
func InitPubSub() {
	PubSubClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPubSubDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := PubSubClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (PubSub): %v", err)
	}
}

// GetPubSubClient returns the Redis client for the consultation channel.
func GetPubSubClient() *redis.Client {
	if PubSubClient == nil {
		InitPubSub()
	}
	return PubSubClient
}
