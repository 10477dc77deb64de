package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TTL bounds how long an unused token survives; zero keeps it forever.
	TTL time.Duration
}

// RedisTokenStore shares one admin session between several machines.
type RedisTokenStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisTokenStore(cfg RedisConfig, logger *zap.Logger) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis session store connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return newRedisTokenStore(client, cfg.TTL, logger), nil
}

func newRedisTokenStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		key:    constants.SessionConfig.RedisKeyPrefix + constants.SessionConfig.TokenKey,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisTokenStore) Load(ctx context.Context) (string, error) {
	value, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Session get failed", zap.String("key", r.key), zap.Error(err))
		return "", errors.NewStorageError("get failed", "get", r.key, err)
	}
	return value, nil
}

func (r *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		r.logger.Error("Session set failed", zap.String("key", r.key), zap.Error(err))
		return errors.NewStorageError("set failed", "set", r.key, err)
	}
	return nil
}

func (r *RedisTokenStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Error("Session delete failed", zap.String("key", r.key), zap.Error(err))
		return errors.NewStorageError("delete failed", "del", r.key, err)
	}
	return nil
}

func (r *RedisTokenStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	r.logger.Info("Redis disconnected")
	return nil
}
