package report

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	cachePrefix      = "fishledger:report:"
	ledgerVersionKey = "fishledger:ledger_version"
	defaultCacheTTL  = 120 * time.Second
	cacheDialTimeout = 2 * time.Second
	cacheOpTimeout   = time.Second
)

// Cache stores report results in Redis. Keys embed a ledger version that is
// bumped after every committed action, so stale entries are never read and
// simply expire. A nil *Cache is valid and caches nothing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCache returns nil when addr is empty.
func NewCache(addr string, ttl time.Duration, logger *logrus.Logger) *Cache {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  cacheDialTimeout,
			ReadTimeout:  cacheOpTimeout,
			WriteTimeout: cacheOpTimeout,
			MaxRetries:   -1,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// LedgerChanged bumps the ledger version.
func (c *Cache) LedgerChanged(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, ledgerVersionKey).Err(); err != nil {
		c.logger.WithError(err).Warn("report cache: bump ledger version failed")
	}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, ledgerVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// key is report name, parameters and the current ledger version.
func (c *Cache) key(ctx context.Context, name string, params ...string) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	parts := append([]string{name}, params...)
	return cachePrefix + strings.Join(parts, ":") + ":v" + strconv.FormatInt(v, 10), nil
}

func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("report cache: get failed")
		}
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("report cache: corrupt entry")
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("report cache: set failed")
	}
}

// cached returns the cached result for name+params or computes and stores it.
// Cache failures only cost the computation.
func cached[T any](ctx context.Context, c *Cache, name string, params []string, compute func() (T, error)) (T, error) {
	if c == nil {
		return compute()
	}
	key, err := c.key(ctx, name, params...)
	if err != nil {
		c.logger.WithError(err).Warn("report cache: read ledger version failed")
		return compute()
	}
	var out T
	if c.get(ctx, key, &out) {
		return out, nil
	}
	out, err = compute()
	if err != nil {
		return out, err
	}
	c.set(ctx, key, out)
	return out, nil
}
