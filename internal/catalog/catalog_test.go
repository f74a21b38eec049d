package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSeeded_WritesDefaults(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, (&Seeder{Store: store}).EnsureSeeded(ctx))

	ps, err := New(store).Products(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 9)
	assert.Equal(t, "visa-gold-1", ps[0].ID)
	assert.Equal(t, "25", ps[0].Price.String())
	assert.Equal(t, "platinum-2", ps[8].ID)

	cart, _, _ := store.Get(ctx, kv.KeyCart)
	assert.Equal(t, "[]", cart)
	rate, _, _ := store.Get(ctx, kv.KeyExchangeRate)
	assert.Equal(t, "12.50", rate)
}

func TestEnsureSeeded_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyCart, `[{"id":"discover-1","quantity":2}]`))
	require.NoError(t, store.Set(ctx, kv.KeyExchangeRate, "14"))

	s := &Seeder{Store: store}
	require.NoError(t, s.EnsureSeeded(ctx))
	require.NoError(t, s.EnsureSeeded(ctx))

	cart, _, _ := store.Get(ctx, kv.KeyCart)
	assert.JSONEq(t, `[{"id":"discover-1","quantity":2}]`, cart)
	rate, _, _ := store.Get(ctx, kv.KeyExchangeRate)
	assert.Equal(t, "14", rate)
	assert.Equal(t, 3, store.Len())
}

func TestCatalog_EmptyBeforeSeeding(t *testing.T) {
	ps, err := New(kv.NewMemory()).Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
	assert.NotNil(t, ps)
}

func TestCatalog_FindAndIndex(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, (&Seeder{Store: store}).EnsureSeeded(ctx))
	c := New(store)

	p, err := c.Find(ctx, "platinum-mastercard-1")
	require.NoError(t, err)
	assert.Equal(t, "Platinum Mastercard", p.Title)
	assert.Equal(t, "100", p.Price.String())

	_, err = c.Find(ctx, "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)

	idx, err := c.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, idx, 9)
	assert.Equal(t, "Discover Premium", idx["discover-2"].Title)
}

func TestCatalog_ProductsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, (&Seeder{Store: store}).EnsureSeeded(ctx))
	c := New(store)

	ps, err := c.Products(ctx)
	require.NoError(t, err)
	ps[0].Title = "changed"

	again, err := c.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Visa Gold Card", again[0].Title)
}

func TestSeedCart(t *testing.T) {
	ctx := context.Background()
	store := kv.Scoped(kv.NewMemory(), "s1")

	require.NoError(t, SeedCart(ctx, store))
	v, ok, _ := store.Get(ctx, kv.KeyCart)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

// gatedStore blocks product reads until released and then honours ctx.
type gatedStore struct {
	kv.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return s.Store.Get(ctx, key)
}

func TestCatalog_CancelledCallerDoesNotFailSharedRead(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, (&Seeder{Store: mem}).EnsureSeeded(context.Background()))
	gs := &gatedStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
	c := New(gs)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	go func() { _, _ = c.Products(firstCtx) }()
	<-gs.entered

	type result struct {
		ps  []Product
		err error
	}
	second := make(chan result, 1)
	go func() {
		ps, err := c.Products(context.Background())
		second <- result{ps, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the flight

	cancelFirst()
	close(gs.release)

	r := <-second
	require.NoError(t, r.err)
	assert.Len(t, r.ps, 9)
}
