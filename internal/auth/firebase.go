package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Firebase is the Provider backed by Firebase Authentication. The admin SDK
// manages accounts; password checks and provider-sent mails go through the
// Identity Toolkit API, which needs the web API key.
type Firebase struct {
	Admin   *fbauth.Client
	Toolkit *identitytoolkit.Service
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	APIKey          string
}

func NewFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init: %w", err)
	}
	admin, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init: %w", err)
	}
	if cfg.APIKey == "" {
		log.Printf("[auth] WARN: FIREBASE_API_KEY is empty. Password sign-in will fail.")
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("identity toolkit init: %w", err)
	}
	return &Firebase{Admin: admin, Toolkit: toolkit}, nil
}

func (f *Firebase) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*User, error) {
	resp, err := f.Toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	u := &User{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName, IDToken: resp.IdToken}
	if rec, err := f.Admin.GetUser(ctx, resp.LocalId); err == nil {
		u.EmailVerified = rec.EmailVerified
	}
	return u, nil
}

func (f *Firebase) CreateUserWithEmailAndPassword(ctx context.Context, email, password, displayName string) (*User, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	rec, err := f.Admin.CreateUser(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	u := &User{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName, EmailVerified: rec.EmailVerified}

	// Verification mail needs an ID token of the new account.
	signedIn, err := f.SignInWithEmailAndPassword(ctx, email, password)
	if err != nil {
		log.Printf("[auth] sign-in after registration failed, no verification mail: %v", err)
		return u, nil
	}
	u.IDToken = signedIn.IDToken
	if _, err := f.Toolkit.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     signedIn.IDToken,
	}).Context(ctx).Do(); err != nil {
		log.Printf("[auth] verification mail failed: %v", err)
	}
	return u, nil
}

// SignOut revokes every refresh token of uid.
func (f *Firebase) SignOut(ctx context.Context, uid string) error {
	if err := f.Admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return classify(err)
	}
	return nil
}

func (f *Firebase) CurrentUser(ctx context.Context, idToken string) (*User, error) {
	tok, err := f.Admin.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, classify(err)
	}
	rec, err := f.Admin.GetUser(ctx, tok.UID)
	if err != nil {
		return nil, classify(err)
	}
	return &User{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName, EmailVerified: rec.EmailVerified}, nil
}

func (f *Firebase) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := f.Toolkit.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	return nil
}

func (f *Firebase) UpdateProfile(ctx context.Context, uid, displayName string) error {
	_, err := f.Admin.UpdateUser(ctx, uid, (&fbauth.UserToUpdate{}).DisplayName(displayName))
	if err != nil {
		return classify(err)
	}
	return nil
}

// toolkitCodes maps Identity Toolkit error messages to provider codes.
var toolkitCodes = map[string]string{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeWrongPassword,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"EMAIL_EXISTS":                CodeEmailAlreadyInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"OPERATION_NOT_ALLOWED":       CodeOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":     CodeOperationNotAllowed,
}

func classify(err error) error {
	return &ProviderError{Code: classifyCode(err), Err: err}
}

func classifyCode(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		// e.g. "WEAK_PASSWORD : Password should be at least 6 characters"
		key, _, _ := strings.Cut(gerr.Message, " ")
		if code, ok := toolkitCodes[key]; ok {
			return code
		}
		return CodeInternal
	}

	switch {
	case fbauth.IsEmailAlreadyExists(err):
		return CodeEmailAlreadyInUse
	case fbauth.IsUserNotFound(err):
		return CodeUserNotFound
	case fbauth.IsIDTokenInvalid(err), fbauth.IsIDTokenRevoked(err), fbauth.IsIDTokenExpired(err):
		return CodeNoCurrentUser
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return CodeNetworkRequestFailed
	}

	// the admin SDK validates arguments locally before calling out
	msg := err.Error()
	switch {
	case strings.Contains(msg, "malformed email"):
		return CodeInvalidEmail
	case strings.Contains(msg, "password must be a string at least 6 characters"):
		return CodeWeakPassword
	}
	return CodeInternal
}
