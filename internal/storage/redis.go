package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstore-backend/internal/models"
)

// CacheTTL is the time-to-live for cached book records.
const CacheTTL = 5 * time.Minute

// RedisClient caches single-book lookups.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient initializes a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

func bookKey(id uuid.UUID) string {
	return fmt.Sprintf("book:%s", id)
}

// GetBook retrieves a cached record. A miss returns (nil, nil).
func (rc *RedisClient) GetBook(ctx context.Context, id uuid.UUID) (*models.BookWithAuthor, error) {
	ctx, span := tracer.Start(ctx, "redis.get_book",
		trace.WithAttributes(
			attribute.String("book_id", id.String()),
		),
	)
	defer span.End()

	data, err := rc.client.Get(ctx, bookKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var book models.BookWithAuthor
	if err := json.Unmarshal([]byte(data), &book); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal cached book: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache_hit", true))
	return &book, nil
}

// SetBook stores a record in the cache with a TTL.
func (rc *RedisClient) SetBook(ctx context.Context, book *models.BookWithAuthor) error {
	ctx, span := tracer.Start(ctx, "redis.set_book",
		trace.WithAttributes(
			attribute.String("book_id", book.ID.String()),
		),
	)
	defer span.End()

	data, err := json.Marshal(book)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	if err := rc.client.Set(ctx, bookKey(book.ID), data, CacheTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// InvalidateBook removes a record from the cache.
func (rc *RedisClient) InvalidateBook(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "redis.invalidate_book",
		trace.WithAttributes(
			attribute.String("book_id", id.String()),
		),
	)
	defer span.End()

	if err := rc.client.Del(ctx, bookKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	return nil
}
