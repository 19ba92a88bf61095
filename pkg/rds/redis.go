package rds

import (
	"content_trans_api/config"
	"content_trans_api/pkg/logger"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var Client *redis.Client

func init() {
	Client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Cfg.Redis.Host, config.Cfg.Redis.Port),
		Password: config.Cfg.Redis.Password,
	})

	if err := Client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to ping redis client, error: %v", err)
	}
}

// AcquireLock takes a scoped lock (SET NX with TTL). It is used to guard
// reinsertion into the content store so a concurrent edit and an automatic
// synchronization cannot interleave. Returns false when somebody else holds
// the lock; the caller defers the synchronization instead of forcing it.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return Client.SetNX(ctx, "lock:"+key, 1, ttl).Result()
}

func ReleaseLock(ctx context.Context, key string) {
	if err := Client.Del(ctx, "lock:"+key).Err(); err != nil {
		logger.Logger.Error("failed to release lock", "key", key, "error", err.Error())
	}
}

func Close() {
	err := Client.Close()
	if err != nil {
		logger.Logger.Error("Error closing redis client", "error", err.Error())
	}
}

func LogStats() {
	for {
		time.Sleep(time.Minute * 1)
		logger.Logger.Info("redis client pool stats", "stats", Client.PoolStats())
	}
}
