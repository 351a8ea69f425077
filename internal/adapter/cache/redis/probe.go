package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
)

const keyPrefix = "inventory:schema_probe:"

// Client is the subset of the go-redis client the probe cache needs
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// NewClient dials addr and pings it once
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

type cachedProbe struct {
	inner  domain.SchemaProbe
	client Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedProbe caches column-capability answers of inner for ttl.
// Redis failures fall through to inner; probe errors are never cached.
func NewCachedProbe(inner domain.SchemaProbe, client Client, ttl time.Duration, log *logger.Logger) domain.SchemaProbe {
	return &cachedProbe{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    logger.OrNop(log).With("service", "CachedSchemaProbe"),
	}
}

func (p *cachedProbe) HasColumn(ctx context.Context, column string) (bool, error) {
	key := keyPrefix + column

	cached, err := p.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case errors.Is(err, goredis.Nil):
	default:
		p.log.Warn("probe cache read failed", "column", column, "error", err)
	}

	ok, err := p.inner.HasColumn(ctx, column)
	if err != nil {
		return false, err
	}

	val := "0"
	if ok {
		val = "1"
	}
	if err := p.client.Set(ctx, key, val, p.ttl).Err(); err != nil {
		p.log.Warn("probe cache write failed", "column", column, "error", err)
	}
	return ok, nil
}
