package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
)

const defaultKeyPrefix = "frontdesk:catalog:"

// Cached is a read-through Redis cache in front of another Catalog.
// Redis failures never fail a lookup; they fall through to the inner catalog.
type Cached struct {
	inner  Catalog
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

// NewCached wraps inner with a Redis cache whose entries expire after ttl.
func NewCached(inner Catalog, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
		log:    logger.WithComponent("catalog-cache"),
	}
}

func (c *Cached) chargeKey(catalog models.ServiceType, serviceKey string) string {
	return c.prefix + "charge:" + string(catalog) + ":" + NormalizeKey(serviceKey)
}

func (c *Cached) doctorKey(id string) string {
	return c.prefix + "doctor:" + id
}

// LookupCharge implements Catalog.
func (c *Cached) LookupCharge(ctx context.Context, catalog models.ServiceType, serviceKey string) (decimal.Decimal, bool, error) {
	key := c.chargeKey(catalog, serviceKey)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if amount, perr := decimal.NewFromString(val); perr == nil {
			return amount, true, nil
		}
		c.log.Warn().Str("key", key).Str("value", val).Msg("Discarding malformed cached charge")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed, using source")
	}

	amount, ok, err := c.inner.LookupCharge(ctx, catalog, serviceKey)
	if err != nil || !ok {
		return amount, ok, err
	}

	if err := c.client.Set(ctx, key, amount.String(), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
	return amount, true, nil
}

// Doctor implements Catalog.
func (c *Cached) Doctor(ctx context.Context, id string) (models.Doctor, bool, error) {
	key := c.doctorKey(id)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var doc models.Doctor
		if jerr := json.Unmarshal([]byte(val), &doc); jerr == nil {
			return doc, true, nil
		}
		c.log.Warn().Str("key", key).Msg("Discarding malformed cached doctor")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed, using source")
	}

	doc, ok, err := c.inner.Doctor(ctx, id)
	if err != nil || !ok {
		return doc, ok, err
	}

	payload, err := json.Marshal(doc)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
	return doc, true, nil
}

// Invalidate drops every cached catalog entry, e.g. after charges are revised.
func (c *Cached) Invalidate(ctx context.Context) error {
	const op = "Invalidate"

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return &CatalogError{Op: op, Err: err}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return &CatalogError{Op: op, Err: err}
	}

	c.log.Info().Int("keys", len(keys)).Msg("Catalog cache invalidated")
	return nil
}

// CatalogError wraps a failure of a catalog operation.
type CatalogError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return "catalog: " + e.Op + " failed: " + e.Err.Error()
}

// Unwrap returns the underlying error for error unwrapping.
func (e *CatalogError) Unwrap() error {
	return e.Err
}
