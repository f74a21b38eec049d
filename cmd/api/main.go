package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/auth"
	"github.com/ariefcatur/go-card-storefront/internal/config"
	"github.com/ariefcatur/go-card-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-card-storefront/internal/kafka"
	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/ariefcatur/go-card-storefront/internal/postgres"
	"github.com/ariefcatur/go-card-storefront/internal/redisx"
	"github.com/ariefcatur/go-card-storefront/internal/storefront"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// Mail
	dispatcher := mail.NewDispatcher(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
	if dispatcher == nil {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. Emails will not be sent.")
	}
	mailSvc := mail.NewService(dispatcher, mail.NewRateLimiter(store, cfg.EmailRateLimit), mail.Config{
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

	// Auth
	var provider auth.Provider
	fb, err := auth.NewFirebase(ctx, auth.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		APIKey:          cfg.FirebaseAPIKey,
	})
	if err != nil {
		log.Printf("[auth] WARN: firebase init failed, auth disabled: %v", err)
	} else {
		provider = fb
	}
	authSvc := auth.NewService(provider, mailSvc)
	authSvc.OnAuthStateChanged(func(sessionID string, u *auth.User) {
		if u == nil {
			log.Printf("[auth] session %s signed out", sessionID)
			return
		}
		log.Printf("[auth] session %s signed in as %s", sessionID, u.UID)
	})

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentRecorded, 1024)
	prod.Start(ctx)

	shop := storefront.New(store, authSvc, mailSvc, prod, storefront.Config{
		ServiceName: cfg.ServiceName,
		Currency:    cfg.PaymentCurrency,
		ServiceFee:  cfg.ServiceFee,
	})
	if err := shop.Seed(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}

	admins := cfg.RateAdmins()
	if admins == nil {
		log.Printf("[httpx] WARN: RATE_ADMIN_USER/RATE_ADMIN_PASSWORD not set, exchange-rate writes disabled")
	}
	router := httpx.NewRouter()
	(&httpx.StorefrontHandler{Shop: shop, Admins: admins}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s (store=%s)", cfg.HTTPAddr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}

// openStore picks the backend named by STORE_BACKEND.
func openStore(ctx context.Context, cfg config.Config) (kv.Store, func()) {
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		return pg, pg.Close
	case "memory":
		log.Printf("[store] WARN: in-memory store, data is lost on restart")
		return kv.NewMemory(), func() {}
	default:
		rdb := redisx.New(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		return redisx.NewStore(rdb), func() { _ = rdb.Close() }
	}
}
