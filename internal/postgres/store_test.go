package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestStore(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := &Store{DB: pool}
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, kv.KeyCart, `[]`))
	require.NoError(t, store.Set(ctx, kv.KeyCart, `[{"id":"discover-1","quantity":1}]`))

	v, ok, err := store.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"discover-1","quantity":1}]`, v)

	require.NoError(t, store.Remove(ctx, kv.KeyCart))
	_, ok, err = store.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpdateSerializes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, kv.UpdateJSON(ctx, store, "counter", func(n int) (int, error) { return n + 1, nil }))
		}()
	}
	wg.Wait()

	n, _, err := kv.GetJSON[int](ctx, store, "counter")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestStore_UpdateSkipLeavesValue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	wrote, err := kv.SetIfAbsent(ctx, store, kv.KeyExchangeRate, "12.50")
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = kv.SetIfAbsent(ctx, store, kv.KeyExchangeRate, "99")
	require.NoError(t, err)
	assert.False(t, wrote)

	v, _, _ := store.Get(ctx, kv.KeyExchangeRate)
	assert.Equal(t, "12.50", v)
}
