package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// InventoryCache is a Redis-side gate in front of the database ledger. It
// sheds sold-out traffic before it reaches Postgres; the database row remains
// the authority on availability. A ticket type that was never warmed up
// passes through to the database.
type InventoryCache interface {
	// WarmUp preloads the available quantity for a ticket type.
	WarmUp(ctx context.Context, ticketTypeID int, stock int) error
	// GetStock returns the cached stock, or a negative value when not warmed.
	GetStock(ctx context.Context, ticketTypeID int) (int, error)
	// Reserve atomically decrements the cached stock. It returns false when
	// the cache knows the type is sold out.
	Reserve(ctx context.Context, ticketTypeID int, quantity int) (bool, error)
	// Rollback returns units to the cache after a failed or cancelled
	// reservation.
	Rollback(ctx context.Context, ticketTypeID int, quantity int) error
}

type RedisInventoryCache struct {
	client *redis.Client
}

func NewRedisInventoryCache(client *redis.Client) InventoryCache {
	return &RedisInventoryCache{
		client: client,
	}
}

func (c *RedisInventoryCache) stockKey(ticketTypeID int) string {
	return fmt.Sprintf("ticket_type:%d:stock", ticketTypeID)
}

func (c *RedisInventoryCache) WarmUp(ctx context.Context, ticketTypeID int, stock int) error {
	return c.client.Set(ctx, c.stockKey(ticketTypeID), stock, 0).Err()
}

func (c *RedisInventoryCache) GetStock(ctx context.Context, ticketTypeID int) (int, error) {
	val, err := c.client.Get(ctx, c.stockKey(ticketTypeID)).Int()
	if err == redis.Nil {
		return -1, nil
	}
	return val, err
}

// reserveScript checks and decrements in one atomic step. A missing key means
// the type was never warmed, in which case the database decides.
var reserveScript = redis.NewScript(`
	local stock = redis.call('GET', KEYS[1])
	if not stock then
		return 1
	end
	if tonumber(stock) < tonumber(ARGV[1]) then
		return -1
	end
	redis.call('DECRBY', KEYS[1], ARGV[1])
	return 1
`)

func (c *RedisInventoryCache) Reserve(ctx context.Context, ticketTypeID int, quantity int) (bool, error) {
	result, err := reserveScript.Run(ctx, c.client, []string{c.stockKey(ticketTypeID)}, quantity).Result()
	if err != nil {
		return false, err
	}

	code, ok := result.(int64)
	if !ok {
		return false, errors.New("unexpected script result")
	}

	switch code {
	case 1:
		return true, nil
	case -1:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected script result code: %d", code)
	}
}

// rollbackScript increments only when the key exists so a rollback cannot
// resurrect stock for a type that was never warmed.
var rollbackScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		redis.call('INCRBY', KEYS[1], ARGV[1])
	end
	return 1
`)

func (c *RedisInventoryCache) Rollback(ctx context.Context, ticketTypeID int, quantity int) error {
	return rollbackScript.Run(ctx, c.client, []string{c.stockKey(ticketTypeID)}, quantity).Err()
}
