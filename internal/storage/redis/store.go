// Package redis keeps weblink records in Redis sorted sets, one per URL,
// scored by version.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/weblink-inspector/internal/hash/sha256"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

const defaultKeyPrefix = "weblink:"

// Config selects the Redis server.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements weblink.RecordStore.
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a Store with its own client.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("store.redis.addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// key hashes the URL so arbitrary URLs map to bounded keys.
func (s *Store) key(url string) string {
	return s.prefix + sha256.Sum(url)
}

// WebLinks returns the records for url ordered by version descending.
func (s *Store) WebLinks(ctx context.Context, url string, limit int) ([]weblink.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := s.client.ZRevRange(ctx, s.key(url), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", url, err)
	}
	records := make([]weblink.Record, 0, len(members))
	for _, member := range members {
		var rec weblink.Record
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			return nil, fmt.Errorf("decode weblink: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveWebLink adds record to the URL's sorted set.
func (s *Store) SaveWebLink(ctx context.Context, record weblink.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode weblink: %w", err)
	}
	err = s.client.ZAdd(ctx, s.key(record.URL), redis.Z{
		Score:  float64(record.Version),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd %s: %w", record.URL, err)
	}
	return nil
}
