package storefront

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
)

var (
	ErrInvalidEmail = errors.New("invalid customer email")
	ErrEmptyCart    = errors.New("cart is empty")
)

type CheckoutRequest struct {
	CustomerEmail string `json:"customerEmail"` // defaults to the signed-in user
	PaymentMethod string `json:"paymentMethod"`
	InvoiceNumber string `json:"invoiceNumber"` // generated when empty
}

type CheckoutResult struct {
	LocalID       string          `json:"localId,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	LocalAmount   decimal.Decimal `json:"localAmount"` // GHS at the current rate
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
}

// Checkout records the session's cart as a completed payment, empties the cart
// and announces the payment on the event stream. Validation and store read
// problems are errors; a failed ledger write is reported in the result.
func (ss *Session) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	sf := ss.sf

	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		if u, err := ss.Auth.CurrentUser(ctx); err == nil && u != nil {
			email = u.Email
		}
	}
	if !mail.ValidateEmail(email) {
		return CheckoutResult{}, ErrInvalidEmail
	}

	items, err := ss.Cart.Snapshot(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("snapshot cart: %w", err)
	}
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	amount := subtotal.Add(sf.Cfg.ServiceFee)

	local, err := sf.Rate.ToLocal(ctx, amount)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("exchange rate: %w", err)
	}

	invoice := req.InvoiceNumber
	if invoice == "" {
		invoice = newInvoiceNumber()
	}
	method := req.PaymentMethod
	if method == "" {
		method = "mobile_money"
	}

	rec := sf.Orders.RecordPayment(ctx, orders.PaymentInput{
		CustomerEmail: email,
		Amount:        amount,
		Currency:      sf.Cfg.Currency,
		CartItems:     items,
		PaymentMethod: method,
		InvoiceNumber: invoice,
	})

	res := CheckoutResult{
		LocalID:       rec.LocalID,
		InvoiceNumber: invoice,
		Subtotal:      subtotal,
		ServiceFee:    sf.Cfg.ServiceFee,
		Amount:        amount,
		Currency:      sf.Cfg.Currency,
		LocalAmount:   local,
		Success:       rec.Success,
		Message:       rec.Message,
	}
	if !rec.Success {
		return res, nil
	}

	if err := ss.Cart.Clear(ctx); err != nil {
		log.Printf("[checkout] payment %s recorded but cart not cleared: %v", rec.LocalID, err)
	}
	sf.publishPaymentRecorded(ctx, orders.PaymentRecordedPayload{
		PaymentID:     rec.LocalID,
		InvoiceNumber: invoice,
		CustomerEmail: email,
		Amount:        amount,
		Currency:      sf.Cfg.Currency,
		PaymentMethod: method,
		CartItems:     items,
		Timestamp:     time.Now().UTC(),
	}, ss.ID)
	return res, nil
}

func (s *Storefront) publishPaymentRecorded(ctx context.Context, p orders.PaymentRecordedPayload, trace string) {
	if s.Publisher == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventPaymentRecorded,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Cfg.ServiceName,
		TraceID:       trace,
		CorrelationID: p.PaymentID,
		Payload:       kafka.MustMarshal(p),
	}
	err := s.Publisher.Publish(ctx, orders.PartitionKey(p.PaymentID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventPaymentRecorded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		log.Printf("[checkout] payment %s recorded but event not published: %v", p.PaymentID, err)
	}
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
