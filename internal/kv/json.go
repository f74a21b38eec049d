package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON decodes the value at key into T. An absent key yields the zero T
// and ok=false.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var t T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return t, ok, err
	}
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return t, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return t, true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}

// UpdateJSON is Update for JSON documents: the current value (zero T when
// absent) is handed to fn and its result written back in full.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(cur T) (T, error)) error {
	return s.Update(ctx, key, func(old string, ok bool) (string, error) {
		var cur T
		if ok && old != "" {
			if err := json.Unmarshal([]byte(old), &cur); err != nil {
				return "", fmt.Errorf("decode %s: %w", key, err)
			}
		}
		next, err := fn(cur)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
		return string(b), nil
	})
}

// SetIfAbsent writes value only when key has no value yet and reports
// whether it wrote.
func SetIfAbsent(ctx context.Context, s Store, key, value string) (bool, error) {
	wrote := false
	err := s.Update(ctx, key, func(_ string, ok bool) (string, error) {
		wrote = false
		if ok {
			return "", ErrSkip
		}
		wrote = true
		return value, nil
	})
	return wrote, err
}
