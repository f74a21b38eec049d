package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ariefcatur/go-card-storefront/internal/exchange"
	"github.com/ariefcatur/go-card-storefront/internal/kv"
)

// Seeder writes first-run defaults. Calling it on every start is safe.
type Seeder struct {
	Store    kv.Store
	Products []Product // nil means DefaultProducts()
}

// EnsureSeeded writes the catalog, an empty cart and the default exchange
// rate, each only when its key is absent.
func (s *Seeder) EnsureSeeded(ctx context.Context) error {
	products := s.Products
	if products == nil {
		products = DefaultProducts()
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}

	defaults := []struct{ key, value string }{
		{kv.KeyProducts, string(raw)},
		{kv.KeyCart, "[]"},
		{kv.KeyExchangeRate, exchange.DefaultRate.StringFixed(2)},
	}
	for _, d := range defaults {
		wrote, err := kv.SetIfAbsent(ctx, s.Store, d.key, d.value)
		if err != nil {
			return fmt.Errorf("seed %s: %w", d.key, err)
		}
		if wrote {
			log.Printf("[seed] wrote default %s", d.key)
		}
	}
	return nil
}

// SeedCart gives a fresh session its empty cart.
func SeedCart(ctx context.Context, store kv.Store) error {
	_, err := kv.SetIfAbsent(ctx, store, kv.KeyCart, "[]")
	return err
}
