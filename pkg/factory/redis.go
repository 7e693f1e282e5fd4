package factory

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisConnection connects to the redis server (or sentinel group) that
// holds message boxes, activity streams and poll locks.
func NewRedisConnection(ctx context.Context, appCnf *config.AppConfig) error {
	rdb := newRedisClient(&appCnf.RedisInfo)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	if version := redisServerVersion(ctx, rdb); version != "" {
		appCnf.Logger.WithField("version", version).Info("successfully connected to Redis")
	}

	appCnf.RDS = rdb
	return nil
}

func newRedisClient(rf *config.RedisInfo) *redis.Client {
	var tlsConfig *tls.Config
	if rf.UseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	if len(rf.SentinelAddresses) > 0 {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs:    rf.SentinelAddresses,
			SentinelUsername: rf.SentinelUsername,
			SentinelPassword: rf.SentinelPassword,
			MasterName:       rf.MasterName,
			ClientName:       config.RedisClientName,
			Username:         rf.Username,
			Password:         rf.Password,
			DB:               rf.DBName,
			TLSConfig:        tlsConfig,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:       rf.Host,
		ClientName: config.RedisClientName,
		Username:   rf.Username,
		Password:   rf.Password,
		DB:         rf.DBName,
		TLSConfig:  tlsConfig,
	})
}

// redisServerVersion reads redis_version from INFO server. Failures are
// ignored as the value is only logged.
func redisServerVersion(ctx context.Context, rdb *redis.Client) string {
	info, err := rdb.Info(ctx, "server").Result()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "redis_version:"); ok {
			return v
		}
	}
	return ""
}
