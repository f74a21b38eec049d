package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []mail.TransactionData
	fail bool
}

func (r *recordingMailer) SendTransactionNotification(_ context.Context, d mail.TransactionData) mail.Result {
	if r.fail {
		return mail.Result{Success: false, Error: mail.ErrCodeRateLimited}
	}
	r.sent = append(r.sent, d)
	return mail.Result{Success: true}
}

func setup(t *testing.T) (*Service, *recordingMailer, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	m := &recordingMailer{}
	return &Service{Redis: client, Mail: m, ServiceName: "notifier"}, m, mr
}

func paymentMessage(eventID, eventType string) kafkago.Message {
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "storefront-api",
		Payload: kafkax.MustMarshal(orders.PaymentRecordedPayload{
			PaymentID:     "1700000000000",
			InvoiceNumber: "INV-1",
			CustomerEmail: "buyer@example.com",
			Amount:        decimal.NewFromInt(26),
			Currency:      "USD",
			PaymentMethod: "mobile_money",
			CartItems:     []orders.Item{{ID: "visa-gold-1", Title: "Visa Gold Card", Price: decimal.NewFromInt(25), Quantity: 1}},
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandlePaymentRecorded_SendsOnce(t *testing.T) {
	svc, m, mr := setup(t)
	ctx := context.Background()
	msg := paymentMessage("evt-1", orders.EventPaymentRecorded)

	require.NoError(t, svc.HandlePaymentRecorded(ctx, msg))
	require.NoError(t, svc.HandlePaymentRecorded(ctx, msg))

	require.Len(t, m.sent, 1)
	assert.Equal(t, "buyer@example.com", m.sent[0].CustomerEmail)
	assert.Equal(t, "26", m.sent[0].Amount.String())
	assert.Len(t, m.sent[0].CartItems, 1)
	assert.True(t, mr.Exists("dedup:notifier:evt-1"))
}

func TestHandlePaymentRecorded_IgnoresOtherEvents(t *testing.T) {
	svc, m, _ := setup(t)

	require.NoError(t, svc.HandlePaymentRecorded(context.Background(), paymentMessage("evt-2", "SomethingElse")))
	assert.Empty(t, m.sent)
}

func TestHandlePaymentRecorded_PoisonMessageIsCommitted(t *testing.T) {
	svc, m, _ := setup(t)

	require.NoError(t, svc.HandlePaymentRecorded(context.Background(), kafkago.Message{Value: []byte("{")}))
	assert.Empty(t, m.sent)
}

func TestHandlePaymentRecorded_MailFailureNotRetried(t *testing.T) {
	svc, m, _ := setup(t)
	m.fail = true

	assert.NoError(t, svc.HandlePaymentRecorded(context.Background(), paymentMessage("evt-3", orders.EventPaymentRecorded)))
}

func TestHandlePaymentRecorded_RedisDownIsRetried(t *testing.T) {
	svc, m, mr := setup(t)
	mr.Close()

	err := svc.HandlePaymentRecorded(context.Background(), paymentMessage("evt-4", orders.EventPaymentRecorded))
	assert.Error(t, err)
	assert.Empty(t, m.sent)
}
