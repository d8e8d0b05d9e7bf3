package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const analysisPrefix = "analysis:"

// Redis stores analyses as JSON values in a shared redis instance. This is
// the store the multi-worker deployment relies on: every worker process sees
// the same records.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the redis instance described by url (redis://...). A
// failed ping is reported immediately rather than on first use. A zero ttl
// keeps records forever.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) key(id string) string {
	return analysisPrefix + id
}

func (r *Redis) Save(ctx context.Context, a *Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	if err := r.client.Set(ctx, r.key(a.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*Analysis, error) {
	data, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}

	return &a, nil
}

func (r *Redis) List(ctx context.Context) ([]*Analysis, error) {
	result := make([]*Analysis, 0)

	iter := r.client.Scan(ctx, 0, analysisPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			// Expired between SCAN and GET.
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("get analysis %s: %w", iter.Val(), err)
		}

		var a Analysis
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("unmarshal analysis %s: %w", iter.Val(), err)
		}

		result = append(result, &a)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan analyses: %w", err)
	}

	// SCAN order is arbitrary; present the same order as the other stores.
	sortByCreation(result)

	return result, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}

	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Kind returns a short name for the /info endpoint.
func (r *Redis) Kind() string {
	return "redis"
}
