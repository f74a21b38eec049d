package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/redis/go-redis/v9"
)

// Store persists storefront keys in Redis without expiry.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, storeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, storeKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Update is an optimistic compare-and-swap: the key is WATCHed while fn runs
// and the write is retried when another client touched it in between.
func (s *Store) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	k := storeKey(key)
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, k).Result()
		ok := true
		if errors.Is(err, redis.Nil) {
			old, ok = "", false
		} else if err != nil {
			return err
		}

		next, err := fn(old, ok)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, kv.ErrSkip):
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue // lost the race, read again
		default:
			return err
		}
	}
	return kv.ErrConflict
}

func storeKey(key string) string {
	return fmt.Sprintf(KeyStore, key)
}
