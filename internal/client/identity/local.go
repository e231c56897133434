package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/common"
	"github.com/dmitrijs2005/glasshabit/internal/cryptox"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultSessionTTL        = 30 * 24 * time.Hour
	defaultResetTTL          = time.Hour
	defaultVerifyTTL         = 24 * time.Hour
	defaultMinPasswordLength = 6
	secretLength             = 32
)

type LocalProviderConfig struct {
	// Namespace prefixes every key the provider writes.
	Namespace string
	// Secret signs session, reset and verification tokens. When empty a
	// random secret is generated once and kept in the store.
	Secret            []byte
	SessionTTL        time.Duration
	ResetTTL          time.Duration
	VerifyTTL         time.Duration
	Params            cryptox.Params
	MinPasswordLength int
}

type account struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"passwordHash"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a *account) identity() *Identity {
	return &Identity{UID: a.UID, Email: a.Email, EmailVerified: a.EmailVerified}
}

// LocalProvider is a Gateway backed by the same key/value store as the
// application data. Accounts, the email index and the active session token
// all live under the "idp_" keys of the namespace.
type LocalProvider struct {
	store  kv.Repository
	mailer Mailer
	log    logging.Logger
	cfg    LocalProviderConfig
	tokens tokenIssuer

	mu        sync.Mutex
	current   *Identity
	observers map[int]SessionCallback
	nextID    int
}

var _ Gateway = (*LocalProvider)(nil)

// NewLocalProvider builds the provider and restores a previously persisted
// session, if it is still valid.
func NewLocalProvider(ctx context.Context, store kv.Repository, mailer Mailer, log logging.Logger, cfg LocalProviderConfig) (*LocalProvider, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	if cfg.VerifyTTL <= 0 {
		cfg.VerifyTTL = defaultVerifyTTL
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaultMinPasswordLength
	}
	if cfg.Params == (cryptox.Params{}) {
		cfg.Params = cryptox.DefaultParams
	}

	p := &LocalProvider{
		store:     store,
		mailer:    mailer,
		log:       log.With("component", "identity"),
		cfg:       cfg,
		observers: make(map[int]SessionCallback),
	}

	secret := cfg.Secret
	if len(secret) == 0 {
		var err error
		if secret, err = p.loadOrCreateSecret(ctx); err != nil {
			return nil, err
		}
	}
	p.tokens = tokenIssuer{secret: secret, now: time.Now}

	if err := p.restore(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LocalProvider) key(suffix string) string {
	return p.cfg.Namespace + "idp_" + suffix
}

func (p *LocalProvider) accountKey(uid string) string {
	return p.key("account_" + uid)
}

func (p *LocalProvider) emailKey(email string) string {
	return p.key("email_" + normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) loadOrCreateSecret(ctx context.Context) ([]byte, error) {
	key := p.key("secret")
	secret, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load token secret: %w", err)
	}
	if len(secret) > 0 {
		return secret, nil
	}

	secret = common.GenerateRandByteArray(secretLength)
	if err := p.store.Set(ctx, key, secret); err != nil {
		return nil, fmt.Errorf("store token secret: %w", err)
	}
	return secret, nil
}

// restore re-establishes the session saved by a previous process. A token
// that no longer verifies, or points at a vanished account, is dropped.
func (p *LocalProvider) restore(ctx context.Context) error {
	raw, err := p.store.Get(ctx, p.key("session"))
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return nil
	}

	claims, err := p.tokens.parse(string(raw), purposeSession)
	if err == nil {
		var acc *account
		acc, err = p.loadAccount(ctx, claims.Subject)
		if err == nil {
			p.mu.Lock()
			p.current = acc.identity()
			p.mu.Unlock()
			p.log.Debug(ctx, "session restored", "uid", acc.UID)
			return nil
		}
	}

	p.log.Warn(ctx, "discarding stored session", "error", err)
	if err := p.store.Delete(ctx, p.key("session")); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}

func (p *LocalProvider) loadAccount(ctx context.Context, uid string) (*account, error) {
	var acc account
	found, err := kv.ReadJSON(ctx, p.store, p.accountKey(uid), &acc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return &acc, nil
}

func (p *LocalProvider) lookupEmail(ctx context.Context, email string) (*account, error) {
	uid, err := p.store.Get(ctx, p.emailKey(email))
	if err != nil {
		return nil, err
	}
	if uid == nil {
		return nil, ErrUserNotFound
	}
	return p.loadAccount(ctx, string(uid))
}

func (p *LocalProvider) saveAccount(ctx context.Context, acc *account) error {
	return kv.WriteJSON(ctx, p.store, p.accountKey(acc.UID), acc)
}

func marshalAccount(acc *account) ([]byte, error) {
	raw, err := json.Marshal(acc)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return raw, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func (p *LocalProvider) validatePassword(password string) error {
	if len(password) < p.cfg.MinPasswordLength {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, p.cfg.MinPasswordLength)
	}
	return nil
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (*Identity, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := p.validatePassword(password); err != nil {
		return nil, err
	}

	_, err := p.lookupEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailAlreadyInUse
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	acc := &account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: cryptox.HashPassword([]byte(password), p.cfg.Params),
		CreatedAt:    p.tokens.now().UTC(),
	}
	raw, err := marshalAccount(acc)
	if err != nil {
		return nil, err
	}

	err = kv.Apply(ctx, p.store, kv.Batch{Sets: map[string][]byte{
		p.accountKey(acc.UID): raw,
		p.emailKey(email):     []byte(acc.UID),
	}})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	p.log.Info(ctx, "account created", "uid", acc.UID)
	return p.startSession(ctx, acc)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	acc, err := p.lookupEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := cryptox.VerifyPassword([]byte(password), acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return p.startSession(ctx, acc)
}

func (p *LocalProvider) startSession(ctx context.Context, acc *account) (*Identity, error) {
	token, err := p.tokens.issue(acc.UID, purposeSession, p.cfg.SessionTTL, nil)
	if err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, p.key("session"), []byte(token)); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	id := acc.identity()
	p.setCurrent(ctx, id)
	return id, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.key("session")); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	p.setCurrent(ctx, nil)
	return nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	acc, err := p.lookupEmail(ctx, email)
	if err != nil {
		return err
	}

	fp := fingerprint(acc.PasswordHash)
	token, err := p.tokens.issue(acc.UID, purposeReset, p.cfg.ResetTTL, func(c *Claims) {
		c.Fingerprint = fp
	})
	if err != nil {
		return err
	}

	return p.mailer.Send(ctx, Message{
		To:      acc.Email,
		Subject: "Reset your GlassHabit password",
		Body:    "Use this code to choose a new password: " + token,
	})
}

// ConfirmPasswordReset sets a new password using a code produced by
// SendPasswordReset. Each code works once: it is bound to the password it
// replaces.
func (p *LocalProvider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := p.tokens.parse(token, purposeReset)
	if err != nil {
		return err
	}
	acc, err := p.loadAccount(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if claims.Fingerprint != fingerprint(acc.PasswordHash) {
		return ErrInvalidToken
	}
	if err := p.validatePassword(newPassword); err != nil {
		return err
	}

	acc.PasswordHash = cryptox.HashPassword([]byte(newPassword), p.cfg.Params)
	if err := p.saveAccount(ctx, acc); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	p.log.Info(ctx, "password reset", "uid", acc.UID)
	return nil
}

func (p *LocalProvider) SendVerificationEmail(ctx context.Context, id Identity) error {
	acc, err := p.loadAccount(ctx, id.UID)
	if err != nil {
		return err
	}

	token, err := p.tokens.issue(acc.UID, purposeVerify, p.cfg.VerifyTTL, func(c *Claims) {
		c.Email = acc.Email
	})
	if err != nil {
		return err
	}

	return p.mailer.Send(ctx, Message{
		To:      acc.Email,
		Subject: "Verify your GlassHabit email",
		Body:    "Use this code to verify your email address: " + token,
	})
}

// VerifyEmail marks the account's email as verified. The code is only
// valid for the address it was sent to.
func (p *LocalProvider) VerifyEmail(ctx context.Context, token string) error {
	claims, err := p.tokens.parse(token, purposeVerify)
	if err != nil {
		return err
	}
	acc, err := p.loadAccount(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if !strings.EqualFold(claims.Email, acc.Email) {
		return ErrInvalidToken
	}

	acc.EmailVerified = true
	if err := p.saveAccount(ctx, acc); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	p.refreshCurrent(ctx, acc)
	return nil
}

func (p *LocalProvider) ChangeEmail(ctx context.Context, id Identity, newEmail string) error {
	if err := validateEmail(newEmail); err != nil {
		return err
	}
	acc, err := p.loadAccount(ctx, id.UID)
	if err != nil {
		return err
	}

	other, err := p.lookupEmail(ctx, newEmail)
	switch {
	case err == nil && other.UID != acc.UID:
		return ErrEmailAlreadyInUse
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("check email: %w", err)
	}

	oldIndex := p.emailKey(acc.Email)
	acc.Email = newEmail
	acc.EmailVerified = false
	raw, err := marshalAccount(acc)
	if err != nil {
		return err
	}

	err = kv.Apply(ctx, p.store, kv.Batch{
		Deletes: []string{oldIndex},
		Sets: map[string][]byte{
			p.accountKey(acc.UID): raw,
			p.emailKey(newEmail):  []byte(acc.UID),
		},
	})
	if err != nil {
		return fmt.Errorf("change email: %w", err)
	}

	p.log.Info(ctx, "email changed", "uid", acc.UID)
	p.refreshCurrent(ctx, acc)
	return nil
}

func (p *LocalProvider) CurrentUser() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

func (p *LocalProvider) ObserveSession(ctx context.Context, cb SessionCallback) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = cb
	current := p.current
	p.mu.Unlock()

	cb(ctx, copyIdentity(current))

	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) refreshCurrent(ctx context.Context, acc *account) {
	p.mu.Lock()
	signedIn := p.current != nil && p.current.UID == acc.UID
	p.mu.Unlock()

	if signedIn {
		p.setCurrent(ctx, acc.identity())
	}
}

// setCurrent swaps the session identity and notifies observers. Callbacks
// run without the lock held so they may call back into the provider.
func (p *LocalProvider) setCurrent(ctx context.Context, id *Identity) {
	p.mu.Lock()
	p.current = id
	cbs := make([]SessionCallback, 0, len(p.observers))
	for _, cb := range p.observers {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(ctx, copyIdentity(id))
	}
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
