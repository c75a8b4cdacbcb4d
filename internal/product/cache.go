package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const notFoundMarker = "notfound"

// CachedRepo is a cache-aside decorator over a Repository. Redis being
// down degrades reads to the database, never to an error.
type CachedRepo struct {
	next Repository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedRepo(next Repository, rdb *redis.Client) *CachedRepo {
	return &CachedRepo{next: next, rdb: rdb, ttl: 5 * time.Minute}
}

func key(id string) string { return fmt.Sprintf("product:%s", id) }

func (c *CachedRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	data, err := c.rdb.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, ErrNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("[cache] bad payload for %s, falling back to db", id)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		log.Printf("[cache] redis get: %v (continuing with db)", err)
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if setErr := c.rdb.Set(ctx, key(id), notFoundMarker, time.Minute).Err(); setErr != nil {
				log.Printf("[cache] redis set notfound: %v", setErr)
			}
		}
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if setErr := c.rdb.Set(ctx, key(id), data, c.ttl).Err(); setErr != nil {
			log.Printf("[cache] redis set: %v", setErr)
		}
	}
	return p, nil
}

// Invalidate drops cached entries after a stock or catalog mutation.
func (c *CachedRepo) Invalidate(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := c.rdb.Del(ctx, key(id)).Err(); err != nil {
			log.Printf("[cache] redis del %s: %v", id, err)
		}
	}
}

func (c *CachedRepo) Create(ctx context.Context, p *Product) error {
	return c.next.Create(ctx, p)
}

func (c *CachedRepo) List(ctx context.Context, q Query) ([]Product, error) {
	return c.next.List(ctx, q)
}

func (c *CachedRepo) Update(ctx context.Context, id string, up Update) (*Product, error) {
	p, err := c.next.Update(ctx, id, up)
	c.Invalidate(ctx, id)
	return p, err
}

func (c *CachedRepo) Deactivate(ctx context.Context, id string) error {
	err := c.next.Deactivate(ctx, id)
	c.Invalidate(ctx, id)
	return err
}

// ConnectRedis opens the client used by the cache decorator.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
