// Package redislock provides Redis-backed storage for edit locks. Locks are
// shared state across backend instances, so they live in Redis rather than
// process memory; the key TTL acts as a hard ceiling while the services
// apply the finer lazy-expiry rules from the stored timestamps.
package redislock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

const keyPrefix = "editlock:"

// lockData is the JSON payload stored per lock key.
type lockData struct {
	HolderID        uuid.UUID `json:"holder_id"`
	AcquiredAt      time.Time `json:"acquired_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

// Store implements edit lock storage using Redis.
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed lock store and verifies connectivity.
func New(redisURL string, dialTimeout time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// lockKey builds the Redis key for one owner-scoped lock.
func lockKey(ownerID uuid.UUID, key string) string {
	return keyPrefix + ownerID.String() + ":" + key
}

// Get returns the lock stored for the owner and key, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, ownerID uuid.UUID, key string) (*domain.EditLock, error) {
	raw, err := s.client.Get(ctx, lockKey(ownerID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("edit_lock %s/%s: %w", ownerID, key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get edit_lock %s/%s: %w", ownerID, key, err)
	}

	return unmarshalLock(ownerID, key, raw)
}

// Put writes the lock state. The TTL is the absolute session ceiling; a
// lock that outlives it disappears without any sweeper involvement.
func (s *Store) Put(ctx context.Context, lock domain.EditLock, ttl time.Duration) error {
	data, err := json.Marshal(lockData{
		HolderID:        lock.HolderID,
		AcquiredAt:      lock.AcquiredAt,
		LastHeartbeatAt: lock.LastHeartbeatAt,
	})
	if err != nil {
		return fmt.Errorf("marshal edit_lock: %w", err)
	}

	if err := s.client.Set(ctx, lockKey(lock.OwnerID, lock.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("put edit_lock %s/%s: %w", lock.OwnerID, lock.Key, err)
	}
	return nil
}

// Delete removes the lock. Deleting an absent lock is not an error.
func (s *Store) Delete(ctx context.Context, ownerID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, lockKey(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("delete edit_lock %s/%s: %w", ownerID, key, err)
	}
	return nil
}

// List returns all locks currently held within one owner context.
func (s *Store) List(ctx context.Context, ownerID uuid.UUID) ([]domain.EditLock, error) {
	return s.scan(ctx, keyPrefix+ownerID.String()+":*")
}

// ListAll returns every lock across all owners. Used by the sweeper.
func (s *Store) ListAll(ctx context.Context) ([]domain.EditLock, error) {
	return s.scan(ctx, keyPrefix+"*")
}

func (s *Store) scan(ctx context.Context, pattern string) ([]domain.EditLock, error) {
	var locks []domain.EditLock

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		ownerID, key, err := parseLockKey(redisKey)
		if err != nil {
			// An unrelated key matched the pattern; skip it.
			continue
		}

		raw, err := s.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get edit_lock %s: %w", redisKey, err)
		}

		lock, err := unmarshalLock(ownerID, key, raw)
		if err != nil {
			return nil, err
		}
		locks = append(locks, *lock)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan edit_locks: %w", err)
	}

	return locks, nil
}

// parseLockKey splits "editlock:{owner}:{key}" back into its parts. Lock
// keys may themselves contain colons (tag locks), so only the owner UUID
// is split off.
func parseLockKey(redisKey string) (uuid.UUID, string, error) {
	rest, ok := strings.CutPrefix(redisKey, keyPrefix)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("not a lock key: %s", redisKey)
	}
	ownerStr, key, ok := strings.Cut(rest, ":")
	if !ok {
		return uuid.Nil, "", fmt.Errorf("malformed lock key: %s", redisKey)
	}
	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed lock key %s: %w", redisKey, err)
	}
	return ownerID, key, nil
}

func unmarshalLock(ownerID uuid.UUID, key, raw string) (*domain.EditLock, error) {
	var data lockData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal edit_lock %s/%s: %w", ownerID, key, err)
	}
	return &domain.EditLock{
		OwnerID:         ownerID,
		Key:             key,
		HolderID:        data.HolderID,
		AcquiredAt:      data.AcquiredAt,
		LastHeartbeatAt: data.LastHeartbeatAt,
	}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
