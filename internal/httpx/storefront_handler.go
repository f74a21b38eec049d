package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-card-storefront/internal/catalog"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
	"github.com/ariefcatur/go-card-storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type StorefrontHandler struct {
	Shop *storefront.Storefront
	// Admins guards the exchange-rate writes with basic auth (user -> password).
	// Without admins those routes are not mounted.
	Admins map[string]string
}

type CartResp struct {
	Items    []CartLine      `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartLine struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Product  *catalog.Product `json:"product,omitempty"` // nil for stale items
}

type RateReq struct {
	Rate decimal.Decimal `json:"rate"`
}

type RateResp struct {
	Rate decimal.Decimal `json:"rate"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type PasswordResetReq struct {
	Email string `json:"email"`
}

type ProfileReq struct {
	DisplayName string `json:"displayName"`
}

type SupportReq struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *StorefrontHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)

	r.Group(func(r chi.Router) {
		r.Use(Sessions(func(ctx context.Context, id string) { h.Shop.Session(id).Open(ctx) }))

		r.Get("/cart", h.getCart)
		r.Post("/cart/items/{id}", h.addToCart)
		r.Delete("/cart/items/{id}", h.removeFromCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.recentOrders)

		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)
		r.Post("/auth/logout", h.logout)
		r.Post("/auth/password-reset", h.passwordReset)
		r.Get("/auth/me", h.me)
		r.Patch("/auth/profile", h.updateProfile)
	})

	r.Get("/exchange-rate", h.getRate)
	if len(h.Admins) > 0 {
		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth("storefront-admin", h.Admins))
			r.Put("/exchange-rate", h.setRate)
			r.Post("/exchange-rate/reset", h.resetRate)
		})
	}
	r.Post("/support", h.support)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *StorefrontHandler) session(r *http.Request) *storefront.Session {
	return h.Shop.Session(SessionIDFrom(r.Context()))
}

func (h *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Shop.Catalog.Products(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *StorefrontHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.writeCart(ctx, w, h.session(r), http.StatusOK)
}

func (h *StorefrontHandler) writeCart(ctx context.Context, w http.ResponseWriter, ss *storefront.Session, code int) {
	items, err := ss.Cart.Get(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byID, err := h.Shop.Catalog.Index(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	subtotal, err := ss.Cart.Subtotal(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := CartResp{Items: make([]CartLine, 0, len(items)), Subtotal: subtotal}
	for _, it := range items {
		line := CartLine{ID: it.ID, Quantity: it.Quantity}
		if p, ok := byID[it.ID]; ok {
			line.Product = &p
		}
		resp.Items = append(resp.Items, line)
		resp.Count += it.Quantity
	}
	writeJSON(w, code, resp)
}

func (h *StorefrontHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Shop.Catalog.Find(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ss := h.session(r)
	if err := ss.Cart.Add(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeCart(ctx, w, ss, http.StatusOK)
}

func (h *StorefrontHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ss := h.session(r)
	if err := ss.Cart.Remove(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeCart(ctx, w, ss, http.StatusOK)
}

func (h *StorefrontHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ss := h.session(r)
	if err := ss.Cart.Clear(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeCart(ctx, w, ss, http.StatusOK)
}

func (h *StorefrontHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req storefront.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.session(r).Checkout(ctx, req)
	switch {
	case errors.Is(err, storefront.ErrInvalidEmail), errors.Is(err, storefront.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusCreated
	if !res.Success {
		code = http.StatusOK
	}
	writeJSON(w, code, res)
}

// recentOrders lists the payment history of the session's signed-in user.
// An explicit ?email= must match that user.
func (h *StorefrontHandler) recentOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.session(r).Auth.CurrentUser(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if u == nil || u.Email == "" {
		writeError(w, http.StatusUnauthorized, "sign in to see your orders")
		return
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email != "" && !strings.EqualFold(email, u.Email) {
		writeError(w, http.StatusForbidden, "orders of another customer")
		return
	}

	list, err := h.Shop.Orders.RecentOrders(ctx, u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *StorefrontHandler) getRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Shop.Rate.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RateResp{Rate: rate})
}

func (h *StorefrontHandler) setRate(w http.ResponseWriter, r *http.Request) {
	var req RateReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.Shop.Rate.Set(r.Context(), req.Rate); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RateResp{Rate: req.Rate})
}

func (h *StorefrontHandler) resetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Shop.Rate.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RateResp{Rate: rate})
}

func (h *StorefrontHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).Auth.Login(r.Context(), req.Email, req.Password))
}

func (h *StorefrontHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).Auth.Register(r.Context(), req.Email, req.Password, req.DisplayName))
}

func (h *StorefrontHandler) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(r).Auth.Logout(r.Context()))
}

func (h *StorefrontHandler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetReq
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).Auth.SendPasswordResetEmail(r.Context(), req.Email))
}

func (h *StorefrontHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.session(r).Auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *StorefrontHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileReq
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.session(r).Auth.UpdateProfile(r.Context(), req.DisplayName))
}

func (h *StorefrontHandler) support(w http.ResponseWriter, r *http.Request) {
	var req SupportReq
	if !decode(w, r, &req) {
		return
	}
	if !mail.ValidateEmail(req.Email) || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "valid email and message are required")
		return
	}
	if h.Shop.Mail == nil {
		writeJSON(w, http.StatusOK, mail.Result{Success: false, Message: "Email service is not available.", Error: mail.ErrCodeNotInitialized})
		return
	}
	writeJSON(w, http.StatusOK, h.Shop.Mail.SendSupportEmail(r.Context(), req.Email, req.Subject, req.Message))
}
