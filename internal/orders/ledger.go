package orders

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
)

// RecentLimit caps RecentOrders.
const RecentLimit = 10

const (
	msgRecorded     = "Payment recorded locally"
	msgRecordFailed = "Failed to save payment locally"
)

// Ledger is the append-only payment log stored under "localPayments".
type Ledger struct {
	Store kv.Store
	Now   func() time.Time
}

func New(store kv.Store) *Ledger {
	return &Ledger{Store: store, Now: time.Now}
}

// RecordPayment appends a completed PaymentRecord built from in. A store
// failure comes back as Success=false; it is never returned as an error.
func (l *Ledger) RecordPayment(ctx context.Context, in PaymentInput) Result {
	now := l.now()
	rec := PaymentRecord{
		ID:            paymentIDs.next(now),
		CustomerEmail: in.CustomerEmail,
		Amount:        in.Amount,
		Currency:      in.Currency,
		CartItems:     in.CartItems,
		PaymentMethod: in.PaymentMethod,
		InvoiceNumber: in.InvoiceNumber,
		Status:        StatusCompleted,
		Created:       now.UTC(),
	}

	err := kv.UpdateJSON(ctx, l.Store, kv.KeyLocalPayments, func(recs []PaymentRecord) ([]PaymentRecord, error) {
		return append(recs, rec), nil
	})
	if err != nil {
		log.Printf("[orders] local payment storage failed: %v", err)
		return Result{Success: false, Message: msgRecordFailed}
	}
	return Result{LocalID: rec.ID, Success: true, Message: msgRecorded}
}

// Payments returns the whole log in insertion order.
func (l *Ledger) Payments(ctx context.Context) ([]PaymentRecord, error) {
	recs, _, err := kv.GetJSON[[]PaymentRecord](ctx, l.Store, kv.KeyLocalPayments)
	return recs, err
}

// RecentOrders returns up to RecentLimit summaries for email, oldest
// recorded first. The log order is not re-sorted by date.
func (l *Ledger) RecentOrders(ctx context.Context, email string) ([]OrderSummary, error) {
	recs, err := l.Payments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OrderSummary, 0, RecentLimit)
	for _, r := range recs {
		if r.CustomerEmail != email {
			continue
		}
		out = append(out, summarize(r))
		if len(out) == RecentLimit {
			break
		}
	}
	return out, nil
}

func summarize(r PaymentRecord) OrderSummary {
	status := r.Status
	if status == "" {
		status = StatusPending
	}
	items := r.CartItems
	if items == nil {
		items = []Item{}
	}
	return OrderSummary{
		ID:     r.ID,
		Date:   formatDate(r.Created),
		Total:  FormatPrice(r.Amount),
		Status: status,
		Items:  items,
	}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}
