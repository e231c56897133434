// Package identity is the boundary to the identity provider. The session
// facade depends only on Gateway; LocalProvider is the in-process
// implementation used by the CLI.
package identity

import (
	"context"
	"errors"
)

// Provider error kinds. Callers translate the ones they know and pass the
// rest through unchanged.
var (
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("wrong password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrNoSession          = errors.New("no signed-in user")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is what the provider knows about a user. UID is stable and is
// used as the profile id.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// SessionCallback receives the signed-in identity, or nil after sign-out.
type SessionCallback func(ctx context.Context, id *Identity)

type Gateway interface {
	Register(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error

	// ObserveSession calls cb with the current state right away and on
	// every change until the returned function is called.
	ObserveSession(ctx context.Context, cb SessionCallback) (unsubscribe func())

	CurrentUser() *Identity
	ChangeEmail(ctx context.Context, id Identity, newEmail string) error
	SendVerificationEmail(ctx context.Context, id Identity) error
	VerifyEmail(ctx context.Context, code string) error
}
