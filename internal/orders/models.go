package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a priced cart line captured at payment time.
type Item struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// PaymentInput is what checkout hands to the ledger.
type PaymentInput struct {
	CustomerEmail string          `json:"customerEmail"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CartItems     []Item          `json:"cartItems"`
	PaymentMethod string          `json:"paymentMethod"`
	InvoiceNumber string          `json:"invoiceNumber"`
}

// PaymentRecord is an entry of the order log. Never modified once appended.
type PaymentRecord struct {
	ID            string          `json:"id"`
	CustomerEmail string          `json:"customerEmail"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CartItems     []Item          `json:"cartItems"`
	PaymentMethod string          `json:"paymentMethod"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Status        Status          `json:"status"`
	Created       time.Time       `json:"created"`
}

// Result reports a RecordPayment outcome; failures are data, not errors.
type Result struct {
	LocalID string `json:"localId,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OrderSummary is the display projection of a PaymentRecord.
type OrderSummary struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Total  string `json:"total"`
	Status Status `json:"status"`
	Items  []Item `json:"items"`
}
