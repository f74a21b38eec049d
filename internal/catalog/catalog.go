package catalog

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog reads products through from the store on every call.
type Catalog struct {
	Store kv.Store
	sfg   singleflight.Group // collapses concurrent reads of the product list
}

func New(store kv.Store) *Catalog {
	return &Catalog{Store: store}
}

// Products returns the seeded catalog, or an empty list before seeding.
func (c *Catalog) Products(ctx context.Context) ([]Product, error) {
	// the read is shared by every caller in the flight, so one caller
	// cancelling must not fail the others
	readCtx := context.WithoutCancel(ctx)
	v, err, _ := c.sfg.Do(kv.KeyProducts, func() (interface{}, error) {
		ps, _, err := kv.GetJSON[[]Product](readCtx, c.Store, kv.KeyProducts)
		if err != nil {
			return nil, err
		}
		if ps == nil {
			ps = []Product{}
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	// callers may sort or filter; do not share the slice across them
	shared := v.([]Product)
	out := make([]Product, len(shared))
	copy(out, shared)
	return out, nil
}

// Index returns the catalog keyed by product id.
func (c *Catalog) Index(ctx context.Context) (map[string]Product, error) {
	ps, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}
	return byID, nil
}

func (c *Catalog) Find(ctx context.Context, id string) (Product, error) {
	ps, err := c.Products(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range ps {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}
