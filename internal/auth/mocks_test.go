package auth

import (
	"context"

	"github.com/ariefcatur/go-card-storefront/internal/mail"
)

type fakeProvider struct {
	users     map[string]string // email -> password
	signInErr error
	createErr error
	signOut   []string
	resetErr  error
	resets    []string
	profiles  map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{users: map[string]string{}, profiles: map[string]string{}}
}

func (f *fakeProvider) SignInWithEmailAndPassword(_ context.Context, email, password string) (*User, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	pw, ok := f.users[email]
	if !ok {
		return nil, &ProviderError{Code: CodeUserNotFound}
	}
	if pw != password {
		return nil, &ProviderError{Code: CodeWrongPassword}
	}
	return &User{UID: "uid-" + email, Email: email, IDToken: "tok-" + email}, nil
}

func (f *fakeProvider) CreateUserWithEmailAndPassword(_ context.Context, email, password, displayName string) (*User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[email]; ok {
		return nil, &ProviderError{Code: CodeEmailAlreadyInUse}
	}
	if len(password) < 6 {
		return nil, &ProviderError{Code: CodeWeakPassword}
	}
	f.users[email] = password
	return &User{UID: "uid-" + email, Email: email, DisplayName: displayName}, nil
}

func (f *fakeProvider) SignOut(_ context.Context, uid string) error {
	f.signOut = append(f.signOut, uid)
	return nil
}

func (f *fakeProvider) CurrentUser(_ context.Context, idToken string) (*User, error) {
	if idToken == "" {
		return nil, &ProviderError{Code: CodeNoCurrentUser}
	}
	return &User{UID: "uid-refreshed", Email: "refreshed@example.com", EmailVerified: true}, nil
}

func (f *fakeProvider) SendPasswordResetEmail(_ context.Context, email string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets = append(f.resets, email)
	return nil
}

func (f *fakeProvider) UpdateProfile(_ context.Context, uid, displayName string) error {
	f.profiles[uid] = displayName
	return nil
}

type fakeWelcome struct {
	sent []string
}

func (w *fakeWelcome) SendWelcomeEmail(_ context.Context, email, name string) mail.Result {
	w.sent = append(w.sent, email+"|"+name)
	return mail.Result{Success: true}
}
