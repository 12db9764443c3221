package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPlayerRepo хранит журнал присутствия в Redis с TTL —
// лёгкая альтернатива реляционной таблице, когда интересен только
// «кто был онлайн за последние минуты».
type RedisPlayerRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisPlayerConfig содержит настройки подключения к Redis
type RedisPlayerConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultRedisPlayerConfig возвращает конфигурацию по умолчанию
func DefaultRedisPlayerConfig() *RedisPlayerConfig {
	return &RedisPlayerConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "sandbox:seen:",
		TTL:       10 * time.Minute,
	}
}

// NewRedisPlayerRepo подключается к Redis и проверяет соединение
func NewRedisPlayerRepo(config *RedisPlayerConfig) (*RedisPlayerRepo, error) {
	if config == nil {
		config = DefaultRedisPlayerConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	return &RedisPlayerRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// UpsertSeen записывает последнее появление игрока с TTL
func (r *RedisPlayerRepo) UpsertSeen(ctx context.Context, rec PlayerRecord) error {
	rec.LastSeen = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи игрока %d: %w", rec.SessionID, err)
	}

	key := fmt.Sprintf("%s%d", r.keyPrefix, rec.SessionID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи присутствия игрока %d: %w", rec.SessionID, err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisPlayerRepo) Close() error {
	return r.client.Close()
}
