// Package notifier turns PaymentRecorded events into admin notification mail.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/ariefcatur/go-card-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type TransactionNotifier interface {
	SendTransactionNotification(ctx context.Context, data mail.TransactionData) mail.Result
}

type Service struct {
	Redis       *redis.Client
	Mail        TransactionNotifier
	ServiceName string
}

// HandlePaymentRecorded is installed as the consumer handler. Every event is
// mailed at most once; a mail that the provider refuses is logged and dropped
// rather than retried, since the payment itself is already recorded.
func (s *Service) HandlePaymentRecorded(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("[notifier] undecodable envelope at offset %d: %v", m.Offset, err)
		return nil // poison message, commit and move on
	}
	if env.EventType != orders.EventPaymentRecorded {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentRecordedPayload](env.Payload)
	if err != nil {
		log.Printf("[notifier] event %s: %v", env.EventID, err)
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}

	res := s.Mail.SendTransactionNotification(ctx, mail.TransactionData{
		CustomerEmail: p.CustomerEmail,
		Amount:        p.Amount,
		PaymentID:     p.PaymentID,
		InvoiceNumber: p.InvoiceNumber,
		PaymentMethod: p.PaymentMethod,
		Timestamp:     p.Timestamp,
		CartItems:     p.CartItems,
	})
	if !res.Success {
		log.Printf("[notifier] payment %s notification not sent: %s (%s)", p.PaymentID, res.Message, res.Error)
		return nil
	}
	log.Printf("[notifier] payment %s notification sent", p.PaymentID)
	return nil
}
