// Package cache provides a read-through Redis cache for the public book
// catalog. Cache failures degrade to the database; they are logged and
// never returned to callers. A nil *BookCache is safe and caches nothing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davybookzone/server/internal/domain"
)

const (
	listKeyPrefix = "books:list:"
	categoriesKey = "books:categories"
)

// CachedBookList is the cached payload for one page of the public listing.
type CachedBookList struct {
	Books []*domain.Book `json:"books"`
	Total int            `json:"total"`
}

// BookCache caches the public book listing and category set.
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewBookCache creates a book cache. Pass a nil client to disable caching.
func NewBookCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *BookCache {
	if client == nil {
		return nil
	}
	return &BookCache{
		client: client,
		ttl:    ttl,
		logger: log.With(slog.String("component", "book_cache")),
	}
}

// ListKey builds the cache key for one page of the public listing.
func ListKey(filter domain.BookFilter, limit, offset int) string {
	return fmt.Sprintf("%scat=%s|q=%s|sort=%s:%s|l=%d|o=%d",
		listKeyPrefix, filter.Category, filter.Search, filter.SortBy, filter.SortOrder, limit, offset)
}

// GetList returns a cached listing page, or (nil, false) on miss.
func (c *BookCache) GetList(ctx context.Context, key string) (*CachedBookList, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var cached CachedBookList
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.WarnContext(ctx, "cache decode failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}

	return &cached, true
}

// SetList stores a listing page.
func (c *BookCache) SetList(ctx context.Context, key string, list *CachedBookList) {
	if c == nil {
		return
	}

	data, err := json.Marshal(list)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// GetCategories returns the cached category set, or (nil, false) on miss.
func (c *BookCache) GetCategories(ctx context.Context) ([]string, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache get failed", slog.String("key", categoriesKey), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, false
	}

	return categories, true
}

// SetCategories stores the category set.
func (c *BookCache) SetCategories(ctx context.Context, categories []string) {
	if c == nil {
		return
	}

	data, err := json.Marshal(categories)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache set failed", slog.String("key", categoriesKey), slog.String("error", err.Error()))
	}
}

// Invalidate drops every cached listing page and the category set. Called
// after any admin write to the catalog.
func (c *BookCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, listKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "cache scan failed", slog.String("error", err.Error()))
	}
	keys = append(keys, categoriesKey)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidate failed", slog.String("error", err.Error()))
	}
}
