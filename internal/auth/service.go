package auth

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/ariefcatur/go-card-storefront/internal/kv"
	"github.com/ariefcatur/go-card-storefront/internal/mail"
)

// Result is the uniform outcome of every auth call.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WelcomeMailer greets freshly registered users.
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, userEmail, userName string) mail.Result
}

// StateListener receives the signed-in user, or nil after sign-out.
type StateListener func(sessionID string, user *User)

type Service struct {
	Provider Provider // nil when the provider could not be initialized
	Welcome  WelcomeMailer

	mu        sync.Mutex
	nextID    int
	listeners map[int]StateListener
}

func NewService(p Provider, welcome WelcomeMailer) *Service {
	return &Service{Provider: p, Welcome: welcome, listeners: map[int]StateListener{}}
}

// OnAuthStateChanged registers fn and returns a func that unregisters it.
func (s *Service) OnAuthStateChanged(fn StateListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]StateListener{}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify(sessionID string, u *User) {
	s.mu.Lock()
	fns := make([]StateListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(sessionID, u)
	}
}

// Session binds the service to one storefront session, whose store keeps the
// signed-in user under "currentUser".
func (s *Service) Session(id string, store kv.Store) *Session {
	return &Session{svc: s, id: id, store: store}
}

type Session struct {
	svc   *Service
	id    string
	store kv.Store
}

func (c *Session) Login(ctx context.Context, email, password string) Result {
	p := c.svc.Provider
	if p == nil {
		log.Printf("[auth] provider not initialized")
		return Result{Success: false, Message: msgUnavailableRefresh, Error: CodeNotInitialized}
	}

	u, err := p.SignInWithEmailAndPassword(ctx, email, password)
	if err != nil {
		code := CodeOf(err)
		log.Printf("[auth] login error: code=%s err=%v", code, err)
		return Result{Success: false, Message: messageFor(loginMessages, code, "Login failed. Please try again."), Error: code}
	}

	c.remember(ctx, u)
	return Result{Success: true, Message: "Login successful!", User: u}
}

func (c *Session) Register(ctx context.Context, email, password, displayName string) Result {
	p := c.svc.Provider
	if p == nil {
		log.Printf("[auth] provider not initialized")
		return Result{Success: false, Message: msgUnavailableRefresh, Error: CodeNotInitialized}
	}

	u, err := p.CreateUserWithEmailAndPassword(ctx, email, password, displayName)
	if err != nil {
		code := CodeOf(err)
		log.Printf("[auth] registration error: code=%s err=%v", code, err)
		return Result{Success: false, Message: messageFor(registerMessages, code, "Registration failed. Please try again."), Error: code}
	}
	if u.DisplayName == "" {
		u.DisplayName = displayName
	}
	if u.DisplayName == "" {
		u.DisplayName, _, _ = strings.Cut(u.Email, "@")
	}

	c.remember(ctx, u)
	if c.svc.Welcome != nil {
		if res := c.svc.Welcome.SendWelcomeEmail(ctx, u.Email, u.DisplayName); !res.Success {
			log.Printf("[auth] welcome email not sent: %s", res.Message)
		}
	}
	return Result{
		Success: true,
		Message: "Account created successfully! Please check your email to verify your account.",
		User:    u,
	}
}

func (c *Session) Logout(ctx context.Context) Result {
	p := c.svc.Provider
	if p == nil {
		log.Printf("[auth] provider not initialized")
		return Result{Success: false, Message: msgUnavailable, Error: CodeNotInitialized}
	}

	u, err := c.CurrentUser(ctx)
	if err != nil {
		log.Printf("[auth] logout error: %v", err)
		return Result{Success: false, Message: "Logout failed. Please try again.", Error: CodeInternal}
	}
	if u != nil {
		if err := p.SignOut(ctx, u.UID); err != nil {
			log.Printf("[auth] logout error: %v", err)
			return Result{Success: false, Message: "Logout failed. Please try again.", Error: CodeOf(err)}
		}
	}

	if err := c.store.Remove(ctx, kv.KeyCurrentUser); err != nil {
		log.Printf("[auth] clear current user: %v", err)
	}
	c.svc.notify(c.id, nil)
	return Result{Success: true, Message: "Logged out successfully!"}
}

// CurrentUser returns the signed-in user of this session, nil when signed out.
func (c *Session) CurrentUser(ctx context.Context) (*User, error) {
	u, ok, err := kv.GetJSON[*User](ctx, c.store, kv.KeyCurrentUser)
	if err != nil || !ok {
		return nil, err
	}
	return u, nil
}

// Refresh re-validates the stored ID token with the provider and rewrites the
// stored user, e.g. after the address got verified.
func (c *Session) Refresh(ctx context.Context) Result {
	p := c.svc.Provider
	if p == nil {
		return Result{Success: false, Message: msgUnavailable, Error: CodeNotInitialized}
	}
	cur, err := c.CurrentUser(ctx)
	if err != nil || cur == nil {
		return Result{Success: false, Message: "No user logged in", Error: CodeNoCurrentUser}
	}
	u, err := p.CurrentUser(ctx, cur.IDToken)
	if err != nil {
		log.Printf("[auth] refresh error: %v", err)
		return Result{Success: false, Message: "Session expired. Please log in again.", Error: CodeOf(err)}
	}
	u.IDToken = cur.IDToken
	c.remember(ctx, u)
	return Result{Success: true, Message: "Session refreshed.", User: u}
}

func (c *Session) SendPasswordResetEmail(ctx context.Context, email string) Result {
	p := c.svc.Provider
	if p == nil {
		log.Printf("[auth] provider not initialized")
		return Result{Success: false, Message: msgUnavailable, Error: CodeNotInitialized}
	}
	if err := p.SendPasswordResetEmail(ctx, email); err != nil {
		code := CodeOf(err)
		log.Printf("[auth] password reset error: code=%s err=%v", code, err)
		return Result{Success: false, Message: messageFor(resetMessages, code, "Failed to send password reset email."), Error: code}
	}
	return Result{Success: true, Message: "Password reset email sent. Please check your inbox."}
}

func (c *Session) UpdateProfile(ctx context.Context, displayName string) Result {
	p := c.svc.Provider
	if p == nil {
		log.Printf("[auth] provider not initialized")
		return Result{Success: false, Message: msgUnavailable, Error: CodeNotInitialized}
	}
	u, err := c.CurrentUser(ctx)
	if err != nil || u == nil {
		log.Printf("[auth] profile update error: no user logged in")
		return Result{Success: false, Message: "Failed to update profile.", Error: CodeNoCurrentUser}
	}
	if err := p.UpdateProfile(ctx, u.UID, displayName); err != nil {
		log.Printf("[auth] profile update error: %v", err)
		return Result{Success: false, Message: "Failed to update profile.", Error: CodeOf(err)}
	}
	u.DisplayName = displayName
	c.remember(ctx, u)
	return Result{Success: true, Message: "Profile updated successfully!", User: u}
}

func (c *Session) remember(ctx context.Context, u *User) {
	if err := kv.SetJSON(ctx, c.store, kv.KeyCurrentUser, u); err != nil {
		log.Printf("[auth] store current user: %v", err)
	}
	c.svc.notify(c.id, u)
}
