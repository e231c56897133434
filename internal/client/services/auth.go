package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glasshabit/internal/client/identity"
	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/common"
)

// RegisterInput is the profile data collected at sign-up.
type RegisterInput struct {
	Username        string
	Email           string
	SecretKeyAnswer string
}

// ProfileCallback receives the signed-in user's profile, or nil when nobody
// is signed in or the profile could not be loaded.
type ProfileCallback func(ctx context.Context, p *models.Profile)

// SubscribeToAuthState forwards identity session changes as profiles. A
// signed-in subject without a local profile gets a default one first.
func (s *Session) SubscribeToAuthState(ctx context.Context, cb ProfileCallback) (unsubscribe func()) {
	unsub := s.gateway.ObserveSession(ctx, func(ctx context.Context, id *identity.Identity) {
		if id == nil {
			cb(ctx, nil)
			return
		}
		p, err := s.profiles.EnsureDefault(ctx, id.UID, id.Email)
		if err != nil {
			s.log.Error(ctx, "auth sync error", "uid", id.UID, "error", err)
			cb(ctx, nil)
			return
		}
		cb(ctx, p)
	})

	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
	return unsub
}

// Register creates the identity, asks the provider to send a verification
// email and stores the new profile.
func (s *Session) Register(ctx context.Context, in RegisterInput, password string) (*models.Profile, error) {
	id, err := s.gateway.Register(ctx, in.Email, password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailAlreadyInUse) {
			return nil, common.ErrEmailRegistered
		}
		return nil, err
	}
	if err := s.gateway.SendVerificationEmail(ctx, *id); err != nil {
		return nil, err
	}

	p := &models.Profile{
		ID:              id.UID,
		Username:        in.Username,
		Email:           in.Email,
		SecretKeyAnswer: in.SecretKeyAnswer,
		Theme:           models.ThemeDark,
	}
	if err := s.profiles.Set(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Login accepts an email or, when the input has no "@", a username stored
// on this device.
func (s *Session) Login(ctx context.Context, usernameOrEmail, password string) (*models.Profile, error) {
	email := usernameOrEmail
	if !strings.Contains(usernameOrEmail, "@") {
		var err error
		if email, err = s.profiles.ResolveUsername(ctx, usernameOrEmail); err != nil {
			return nil, err
		}
	}

	id, err := s.gateway.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrUserNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	p, err := s.profiles.Get(ctx, id.UID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return s.profiles.EnsureDefault(ctx, id.UID, id.Email)
	}
	return p, nil
}

func (s *Session) Logout(ctx context.Context) error {
	return s.gateway.SignOut(ctx)
}

func (s *Session) RecoverAccount(ctx context.Context, identifier string) (email, username string, err error) {
	r, err := s.profiles.FindForRecovery(ctx, identifier)
	if err != nil {
		return "", "", err
	}
	return r.Email, r.Username, nil
}

func (s *Session) ResetPassword(ctx context.Context, email string) error {
	err := s.gateway.SendPasswordReset(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return common.ErrNoAccountForEmail
	}
	return err
}

// ConfirmPasswordReset sets a new password using the code from a reset
// email.
func (s *Session) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	return s.gateway.ConfirmPasswordReset(ctx, code, newPassword)
}

func (s *Session) VerifyEmail(ctx context.Context, code string) error {
	return s.gateway.VerifyEmail(ctx, code)
}

// UpdateProfile stores p. If a user is signed in and p carries a different
// email, the identity provider is updated first.
func (s *Session) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if cur := s.gateway.CurrentUser(); cur != nil && p.Email != cur.Email {
		if err := s.gateway.ChangeEmail(ctx, *cur, p.Email); err != nil {
			return nil, err
		}
	}
	if err := s.profiles.Set(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ResetAllData wipes the user's records and points after checking the
// recovery answer. A missing profile and a wrong answer fail the same way.
func (s *Session) ResetAllData(ctx context.Context, userID, secretKeyAnswer string) error {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil || p.SecretKeyAnswer != secretKeyAnswer {
		return common.ErrInvalidSecretAnswer
	}

	var b kv.Batch
	s.collections.StageClear(&b, userID)
	p.Points = 0
	if err := s.profiles.StageSet(&b, p); err != nil {
		return err
	}
	if err := kv.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	s.log.Info(ctx, "user data reset", "uid", userID)
	return nil
}
