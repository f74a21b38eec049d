package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/notifier"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/ariefcatur/go-card-storefront/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: dedup marks and the shared e-mail quota
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	dispatcher := mail.NewDispatcher(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
	if dispatcher == nil {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. Notifications will be dropped.")
	}
	mailSvc := mail.NewService(dispatcher, mail.NewRateLimiter(redisx.NewStore(rdb), cfg.EmailRateLimit), mail.Config{
		ServiceID:    cfg.EmailServiceID,
		AppName:      cfg.EmailFromName,
		AdminEmail:   cfg.AdminEmail,
		SupportEmail: cfg.SupportEmail,
		Timeout:      cfg.EmailTimeout,
		Templates: mail.Templates{
			TransactionNotification: cfg.TemplateTransaction,
			Welcome:                 cfg.TemplateWelcome,
			Support:                 cfg.TemplateSupport,
		},
	})

	svc := &notifier.Service{
		Redis:       rdb,
		Mail:        mailSvc,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicPaymentRecorded, cfg.NotifierWorkers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("notifier consumer started: group=%s topic=%s workers=%d", cfg.NotifierGroup, orders.TopicPaymentRecorded, cfg.NotifierWorkers)
		if err := cons.Start(ctx, svc.HandlePaymentRecorded); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("consumer did not stop in time")
	}
}
