package database

import (
	"context"
	"time"

	"rangeapi/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var Redis *redis.Client

// InitRedis initializes the redis client used for caching orchestration
// backend status answers. The API stays functional without redis: callers
// must treat a nil client or a redis error as a cache miss.
func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Redis.Ping(ctx).Err(); err != nil {
		logrus.Warn("redis unreachable, status caching disabled: ", err)
		Redis = nil
	}
}
