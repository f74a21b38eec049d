package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/orders"
	"github.com/shopspring/decimal"
)

const (
	ErrCodeNotInitialized = "email/not-initialized"
	ErrCodeRateLimited    = "email/rate-limited"
	ErrCodeSendFailed     = "email/send-failed"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail is a shape check only, not deliverability.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

type Templates struct {
	TransactionNotification string
	Welcome                 string
	Support                 string
}

func DefaultTemplates() Templates {
	return Templates{
		TransactionNotification: "transaction_notification_template",
		Welcome:                 "welcome_template",
		Support:                 "support_template",
	}
}

type Config struct {
	ServiceID    string
	AdminEmail   string
	SupportEmail string
	AppName      string
	Templates    Templates
	Timeout      time.Duration
}

// Result is what callers get back from every send; it is never an error.
type Result struct {
	Success bool     `json:"success"`
	Result  *Receipt `json:"result,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type Service struct {
	Dispatcher Dispatcher // nil when the provider is not configured
	Limiter    *RateLimiter
	Cfg        Config
	Now        func() time.Time
}

func NewService(d Dispatcher, limiter *RateLimiter, cfg Config) *Service {
	if cfg.Templates == (Templates{}) {
		cfg.Templates = DefaultTemplates()
	}
	if cfg.AppName == "" {
		cfg.AppName = "ElitCards"
	}
	return &Service{Dispatcher: d, Limiter: limiter, Cfg: cfg, Now: time.Now}
}

// SendEmail reserves a rate-limit slot and dispatches templateID. The slot is
// given back when the provider does not accept the mail.
func (s *Service) SendEmail(ctx context.Context, templateID string, params map[string]any) Result {
	if s.Dispatcher == nil {
		log.Printf("[mail] WARN: no e-mail provider configured, %s not sent", templateID)
		return Result{Success: false, Message: "Email service is not available.", Error: ErrCodeNotInitialized}
	}

	var slot *Reservation
	if s.Limiter != nil {
		d, res, err := s.Limiter.Reserve(ctx)
		if err != nil {
			log.Printf("[mail] rate limit check failed: %v", err)
			return Result{Success: false, Message: "Failed to send email.", Error: ErrCodeSendFailed}
		}
		if !d.Allowed {
			return Result{Success: false, Message: d.Message, Error: ErrCodeRateLimited}
		}
		slot = res
	}

	sendCtx := ctx
	if s.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.Cfg.Timeout)
		defer cancel()
	}

	receipt, err := s.Dispatcher.Send(sendCtx, s.Cfg.ServiceID, templateID, params)
	if err != nil {
		log.Printf("[mail] failed to send %s: %v", templateID, err)
		if s.Limiter != nil {
			if rerr := s.Limiter.Release(ctx, slot); rerr != nil {
				log.Printf("[mail] rate limit release failed: %v", rerr)
			}
		}
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "email send timed out"
		}
		return Result{Success: false, Message: msg, Error: ErrCodeSendFailed}
	}

	if s.Limiter != nil {
		if err := s.Limiter.MarkDelivered(ctx, slot); err != nil {
			log.Printf("[mail] rate limit update failed: %v", err)
		}
	}
	log.Printf("[mail] %s sent (status=%d)", templateID, receipt.StatusCode)
	return Result{Success: true, Result: &receipt}
}

type TransactionData struct {
	CustomerEmail string
	Amount        decimal.Decimal
	PaymentID     string
	InvoiceNumber string
	PaymentMethod string
	Timestamp     time.Time
	CartItems     []orders.Item
}

// SendTransactionNotification tells the admin inbox about a payment.
func (s *Service) SendTransactionNotification(ctx context.Context, data TransactionData) Result {
	lines := make([]string, 0, len(data.CartItems))
	total := 0
	for _, it := range data.CartItems {
		lines = append(lines, fmt.Sprintf("%s x%d - %s", it.Title, it.Quantity, orders.FormatPrice(it.LineTotal())))
		total += it.Quantity
	}
	return s.SendEmail(ctx, s.Cfg.Templates.TransactionNotification, map[string]any{
		"to_email":       s.Cfg.AdminEmail,
		"customer_email": data.CustomerEmail,
		"amount":         orders.FormatPrice(data.Amount),
		"payment_id":     data.PaymentID,
		"invoice_number": data.InvoiceNumber,
		"payment_method": data.PaymentMethod,
		"timestamp":      data.Timestamp.UTC().Format(time.RFC3339),
		"cart_items":     strings.Join(lines, "\n"),
		"total_items":    total,
	})
}

func (s *Service) SendWelcomeEmail(ctx context.Context, userEmail, userName string) Result {
	return s.SendEmail(ctx, s.Cfg.Templates.Welcome, map[string]any{
		"to_email":        userEmail,
		"user_name":       userName,
		"welcome_message": fmt.Sprintf("Welcome to %s, %s! Your premium virtual card experience awaits.", s.Cfg.AppName, userName),
		"support_email":   s.Cfg.SupportEmail,
	})
}

func (s *Service) SendSupportEmail(ctx context.Context, fromEmail, subject, message string) Result {
	return s.SendEmail(ctx, s.Cfg.Templates.Support, map[string]any{
		"from_email": fromEmail,
		"to_email":   s.Cfg.SupportEmail,
		"subject":    subject,
		"message":    message,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
