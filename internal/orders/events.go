package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const EventPaymentRecorded = "PaymentRecorded"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // payment id
	Payload       json.RawMessage `json:"payload"`
}

type PaymentRecordedPayload struct {
	PaymentID     string          `json:"payment_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerEmail string          `json:"customer_email"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	CartItems     []Item          `json:"cart_items"`
	Timestamp     time.Time       `json:"timestamp"`
}
