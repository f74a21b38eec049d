// Package storefront ties the catalog, the per-session cart, the order log
// and the exchange rate into the operations the HTTP layer exposes.
package storefront

import (
	"context"
	"log"

	"github.com/ariefcatur/go-card-storefront/internal/auth"
	"github.com/ariefcatur/go-card-storefront/internal/cart"
	"github.com/ariefcatur/go-card-storefront/internal/catalog"
	"github.com/ariefcatur/go-card-storefront/internal/exchange"
	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is satisfied by *kafka.Producer. Publish must give up once ctx
// is done.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

type Config struct {
	ServiceName string
	Currency    string
	ServiceFee  decimal.Decimal
}

// Storefront holds the collaborators shared by every session. Catalog,
// exchange rate and order log live in the unscoped store; carts and the
// signed-in user live under "session:{id}".
type Storefront struct {
	Store     kv.Store
	Catalog   *catalog.Catalog
	Orders    *orders.Ledger
	Rate      *exchange.Cell
	Auth      *auth.Service
	Mail      *mail.Service
	Publisher Publisher // nil disables event publishing
	Cfg       Config
}

func New(store kv.Store, authSvc *auth.Service, mailSvc *mail.Service, pub Publisher, cfg Config) *Storefront {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if authSvc == nil {
		authSvc = auth.NewService(nil, nil)
	}
	return &Storefront{
		Store:     store,
		Catalog:   catalog.New(store),
		Orders:    orders.New(store),
		Rate:      exchange.New(store),
		Auth:      authSvc,
		Mail:      mailSvc,
		Publisher: pub,
		Cfg:       cfg,
	}
}

// Seed runs the first-start defaults on the shared store.
func (s *Storefront) Seed(ctx context.Context) error {
	return (&catalog.Seeder{Store: s.Store}).EnsureSeeded(ctx)
}

type Session struct {
	ID   string
	Cart *cart.Ledger
	Auth *auth.Session

	sf    *Storefront
	store kv.Store
}

func (s *Storefront) Session(id string) *Session {
	scoped := kv.Scoped(s.Store, "session:"+id)
	return &Session{
		ID:    id,
		Cart:  cart.New(scoped, s.Catalog),
		Auth:  s.Auth.Session(id, scoped),
		sf:    s,
		store: scoped,
	}
}

// Open prepares a session seen for the first time.
func (ss *Session) Open(ctx context.Context) {
	if err := catalog.SeedCart(ctx, ss.store); err != nil {
		log.Printf("[storefront] seed cart for session %s: %v", ss.ID, err)
	}
}
