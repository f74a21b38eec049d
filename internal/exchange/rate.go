// Package exchange holds the persisted USD to GHS exchange rate.
package exchange

import (
	"context"
	"log"
	"strings"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/shopspring/decimal"
)

// DefaultRate is the fixed GHS per USD rate used when nothing is stored and
// restored by Reset.
var DefaultRate = decimal.RequireFromString("12.50")

type Cell struct {
	Store kv.Store
}

func New(store kv.Store) *Cell {
	return &Cell{Store: store}
}

// Get returns the stored rate, falling back to DefaultRate when the key is
// unset or does not parse.
func (c *Cell) Get(ctx context.Context) (decimal.Decimal, error) {
	raw, ok, err := c.Store.Get(ctx, kv.KeyExchangeRate)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return DefaultRate, nil
	}
	rate, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(raw), `"`))
	if err != nil {
		log.Printf("[exchange] stored rate %q unreadable, using default: %v", raw, err)
		return DefaultRate, nil
	}
	return rate, nil
}

// Set stores rate as is. There are no bounds checks.
func (c *Cell) Set(ctx context.Context, rate decimal.Decimal) error {
	return c.Store.Set(ctx, kv.KeyExchangeRate, rate.String())
}

// Reset forces the rate back to DefaultRate.
func (c *Cell) Reset(ctx context.Context) (decimal.Decimal, error) {
	if err := c.Set(ctx, DefaultRate); err != nil {
		return decimal.Decimal{}, err
	}
	return DefaultRate, nil
}

// ToLocal converts a USD amount with the current rate, rounded to cents.
func (c *Cell) ToLocal(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	rate, err := c.Get(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return usd.Mul(rate).Round(2), nil
}
