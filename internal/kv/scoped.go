package kv

import "context"

// Scoped namespaces every key of an underlying Store as "<scope>:<key>".
// An empty scope returns the store unchanged.
func Scoped(s Store, scope string) Store {
	if scope == "" {
		return s
	}
	return &scoped{inner: s, prefix: scope + ":"}
}

type scoped struct {
	inner  Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}

func (s *scoped) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.inner.Update(ctx, s.prefix+key, fn)
}
