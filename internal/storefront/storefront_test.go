package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/auth"
	"github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key     []byte
	value   []byte
	headers []kafkago.Header
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(_ context.Context, key, value []byte, headers ...kafkago.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key: key, value: value, headers: headers})
	return nil
}

// deadBroker never completes a write.
type deadBroker struct{ release chan struct{} }

func (w deadBroker) WriteMessages(ctx context.Context, _ ...kafkago.Message) error {
	select {
	case <-w.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (deadBroker) Close() error { return nil }

// paymentsDown fails every write to the order log.
type paymentsDown struct{ kv.Store }

func (s paymentsDown) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	if key == kv.KeyLocalPayments {
		return errors.New("disk full")
	}
	return s.Store.Update(ctx, key, fn)
}

func newTestStorefront(t *testing.T, store kv.Store) (*Storefront, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	sf := New(store, nil, nil, pub, Config{
		ServiceName: "storefront-test",
		ServiceFee:  decimal.NewFromInt(1),
	})
	require.NoError(t, sf.Seed(context.Background()))
	return sf, pub
}

func TestCheckout_RecordsClearsAndPublishes(t *testing.T) {
	ctx := context.Background()
	sf, pub := newTestStorefront(t, kv.NewMemory())
	sess := sf.Session("s1")
	sess.Open(ctx)

	require.NoError(t, sess.Cart.Add(ctx, "visa-gold-1"))
	require.NoError(t, sess.Cart.Add(ctx, "visa-gold-1"))
	require.NoError(t, sess.Cart.Add(ctx, "visa-infinite-1"))

	res, err := sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "buyer@example.com"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "85", res.Subtotal.String())
	assert.Equal(t, "86", res.Amount.String())
	assert.Equal(t, "1075.00", res.LocalAmount.StringFixed(2))
	assert.Equal(t, "USD", res.Currency)
	assert.True(t, strings.HasPrefix(res.InvoiceNumber, "INV-"))
	assert.Len(t, res.InvoiceNumber, 12)

	n, err := sess.Cart.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	recent, err := sf.Orders.RecentOrders(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, res.LocalID, recent[0].ID)
	assert.Equal(t, "$86.00", recent[0].Total)
	assert.Len(t, recent[0].Items, 2)

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, res.LocalID, string(msg.key))

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(msg.value, &env))
	assert.Equal(t, orders.EventPaymentRecorded, env.EventType)
	assert.Equal(t, "storefront-test", env.Producer)
	assert.Equal(t, res.LocalID, env.CorrelationID)

	var p orders.PaymentRecordedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "buyer@example.com", p.CustomerEmail)
	assert.Equal(t, "mobile_money", p.PaymentMethod)
	assert.Equal(t, res.InvoiceNumber, p.InvoiceNumber)
}

func TestCheckout_Validation(t *testing.T) {
	ctx := context.Background()
	sf, pub := newTestStorefront(t, kv.NewMemory())
	sess := sf.Session("s1")

	_, err := sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "buyer@example.com"})
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, sess.Cart.Add(ctx, "discover-1"))
	_, err = sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = sess.Checkout(ctx, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	// only stale items left: nothing to pay for
	require.NoError(t, sess.Cart.Clear(ctx))
	require.NoError(t, sess.Cart.Add(ctx, "retired"))
	_, err = sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "buyer@example.com"})
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, pub.msgs)
}

func TestCheckout_DefaultsToSignedInUser(t *testing.T) {
	ctx := context.Background()
	sf, _ := newTestStorefront(t, kv.NewMemory())
	sess := sf.Session("s1")
	require.NoError(t, kv.SetJSON(ctx, sess.store, kv.KeyCurrentUser, auth.User{UID: "u1", Email: "member@example.com"}))
	require.NoError(t, sess.Cart.Add(ctx, "platinum-2"))

	res, err := sess.Checkout(ctx, CheckoutRequest{InvoiceNumber: "TEST123", PaymentMethod: "card"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "TEST123", res.InvoiceNumber)

	recent, err := sf.Orders.RecentOrders(ctx, "member@example.com")
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestCheckout_LedgerFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	sf, pub := newTestStorefront(t, paymentsDown{kv.NewMemory()})
	sess := sf.Session("s1")
	require.NoError(t, sess.Cart.Add(ctx, "discover-2"))

	res, err := sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "buyer@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to save payment locally", res.Message)
	assert.Empty(t, res.LocalID)

	n, _ := sess.Cart.Count(ctx)
	assert.Equal(t, 1, n)
	assert.Empty(t, pub.msgs)
}

func TestSessions_HaveSeparateCarts(t *testing.T) {
	ctx := context.Background()
	sf, _ := newTestStorefront(t, kv.NewMemory())

	a, b := sf.Session("a"), sf.Session("b")
	require.NoError(t, a.Cart.Add(ctx, "discover-1"))

	n, err := b.Cart.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// catalog stays shared
	sub, err := a.Cart.Subtotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "40", sub.String())
}

func TestCheckout_CompletesWhenBrokerUnreachable(t *testing.T) {
	w := deadBroker{release: make(chan struct{})}
	prod := kafka.NewProducerWithWriter(w, orders.TopicPaymentRecorded, 1)
	prod.Start(context.Background())
	defer func() {
		close(w.release)
		prod.Close()
		prod.WaitClosed()
	}()

	sf := New(kv.NewMemory(), nil, nil, prod, Config{ServiceFee: decimal.NewFromInt(1)})
	require.NoError(t, sf.Seed(context.Background()))
	sess := sf.Session("s1")

	start := time.Now()
	for i := 0; i < 4; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		require.NoError(t, sess.Cart.Add(ctx, "visa-gold-1"))
		res, err := sess.Checkout(ctx, CheckoutRequest{CustomerEmail: "buyer@example.com"})
		cancel()
		require.NoError(t, err)
		assert.True(t, res.Success, "checkout %d", i)
	}
	assert.Less(t, time.Since(start), 3*time.Second)

	recent, err := sf.Orders.RecentOrders(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, recent, 4)
}
