// Package cart is the per-session shopping cart, persisted as an ordered list
// of line items under the "cart" key.
package cart

import (
	"context"
	"log"

	"github.com/ariefcatur/go-card-storefront/internal/catalog"
	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/shopspring/decimal"
)

// LineItem references a catalog product. Quantity is always >= 1 and an id
// appears at most once per cart.
type LineItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ProductIndex resolves product ids for pricing.
type ProductIndex interface {
	Index(ctx context.Context) (map[string]catalog.Product, error)
}

type Ledger struct {
	Store    kv.Store
	Products ProductIndex
}

func New(store kv.Store, products ProductIndex) *Ledger {
	return &Ledger{Store: store, Products: products}
}

// Get returns the cart in first-add order; an absent cart is empty.
func (l *Ledger) Get(ctx context.Context) ([]LineItem, error) {
	items, _, err := kv.GetJSON[[]LineItem](ctx, l.Store, kv.KeyCart)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// Count is the sum of all quantities.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	items, err := l.Get(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

// Add increments the line item for productID, appending it with quantity 1
// on first add.
func (l *Ledger) Add(ctx context.Context, productID string) error {
	return kv.UpdateJSON(ctx, l.Store, kv.KeyCart, func(items []LineItem) ([]LineItem, error) {
		for i := range items {
			if items[i].ID == productID {
				items[i].Quantity++
				return items, nil
			}
		}
		return append(items, LineItem{ID: productID, Quantity: 1}), nil
	})
}

// Remove drops the whole line item. Unknown ids are a no-op.
func (l *Ledger) Remove(ctx context.Context, productID string) error {
	return kv.UpdateJSON(ctx, l.Store, kv.KeyCart, func(items []LineItem) ([]LineItem, error) {
		out := make([]LineItem, 0, len(items))
		for _, it := range items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

func (l *Ledger) Clear(ctx context.Context) error {
	return kv.SetJSON(ctx, l.Store, kv.KeyCart, []LineItem{})
}

// Subtotal is sum(price * quantity) over line items found in the catalog.
// Items whose product is gone are left out and logged.
func (l *Ledger) Subtotal(ctx context.Context) (decimal.Decimal, error) {
	items, err := l.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	byID, err := l.Products.Index(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	subtotal := decimal.Zero
	for _, it := range items {
		p, ok := byID[it.ID]
		if !ok {
			log.Printf("[cart] stale line item %q not in catalog, skipped from subtotal", it.ID)
			continue
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return subtotal, nil
}

// Snapshot prices the cart for a payment record. Stale items are skipped the
// same way Subtotal skips them.
func (l *Ledger) Snapshot(ctx context.Context) ([]orders.Item, error) {
	items, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	byID, err := l.Products.Index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]orders.Item, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ID]
		if !ok {
			continue
		}
		out = append(out, orders.Item{ID: p.ID, Title: p.Title, Price: p.Price, Quantity: it.Quantity})
	}
	return out, nil
}
