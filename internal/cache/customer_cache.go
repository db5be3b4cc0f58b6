package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/outreach-backend/internal/model"
)

const keyPrefix = "customer:email:"

// CustomerCache mirrors cached customer rows into Redis, keyed by email, for
// low-latency chatbot context lookups.
type CustomerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCustomerCache(redisURL string, ttl time.Duration) (*CustomerCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &CustomerCache{client: client, ttl: ttl}, nil
}

func (c *CustomerCache) Set(ctx context.Context, customer *model.Customer) error {
	if customer.Email == "" {
		return nil
	}
	raw, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+customer.Email, raw, c.ttl).Err()
}

// Get returns the cached customer or nil on a miss.
func (c *CustomerCache) Get(ctx context.Context, email string) (*model.Customer, error) {
	raw, err := c.client.Get(ctx, keyPrefix+email).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var customer model.Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *CustomerCache) Close() error {
	return c.client.Close()
}
