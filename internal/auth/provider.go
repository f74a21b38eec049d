// Package auth wraps an identity provider into the uniform result shape the
// storefront pages consume.
package auth

import (
	"context"
	"errors"
	"fmt"
)

type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken,omitempty"`
}

// Provider is the identity capability set the storefront relies on.
type Provider interface {
	SignInWithEmailAndPassword(ctx context.Context, email, password string) (*User, error)
	// CreateUserWithEmailAndPassword also sends the address verification mail.
	CreateUserWithEmailAndPassword(ctx context.Context, email, password, displayName string) (*User, error)
	SignOut(ctx context.Context, uid string) error
	CurrentUser(ctx context.Context, idToken string) (*User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, uid, displayName string) error
}

// Provider error codes.
const (
	CodeNotInitialized       = "auth/not-initialized"
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeInvalidEmail         = "auth/invalid-email"
	CodeUserDisabled         = "auth/user-disabled"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeOperationNotAllowed  = "auth/operation-not-allowed"
	CodeNoCurrentUser        = "auth/no-current-user"
	CodeInternal             = "auth/internal-error"
)

// ProviderError carries a provider code such as "auth/wrong-password".
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CodeOf extracts the provider code, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}
