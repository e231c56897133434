// Package profiles stores one application profile per identity subject and
// answers the lookups sign-in and account recovery need.
package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/common"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
)

// Recovery is the outcome of an account lookup. Username is empty when the
// identifier was only accepted because it looks like an email.
type Recovery struct {
	Email    string
	Username string
}

type Repository struct {
	store  kv.Repository
	prefix string
	log    logging.Logger
}

func NewRepository(store kv.Repository, namespace string, log logging.Logger) *Repository {
	return &Repository{
		store:  store,
		prefix: namespace + "user_",
		log:    log.With("component", "profiles"),
	}
}

func (r *Repository) key(userID string) string {
	return r.prefix + userID
}

// Get returns (nil, nil) when no profile was ever stored for userID.
func (r *Repository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	found, err := kv.ReadJSON(ctx, r.store, r.key(userID), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (r *Repository) Set(ctx context.Context, p *models.Profile) error {
	return kv.WriteJSON(ctx, r.store, r.key(p.ID), p)
}

// StageSet queues p on b instead of writing it right away.
func (r *Repository) StageSet(b *kv.Batch, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode kv[%s]: %w", r.key(p.ID), err)
	}
	b.Set(r.key(p.ID), raw)
	return nil
}

// EnsureDefault returns the stored profile for userID, creating and
// persisting a default one first if there is none.
func (r *Repository) EnsureDefault(ctx context.Context, userID, email string) (*models.Profile, error) {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = models.DefaultProfile(userID, email)
	if err := r.Set(ctx, p); err != nil {
		return nil, err
	}
	r.log.Info(ctx, "default profile created", "uid", userID)
	return p, nil
}

// ResolveUsername finds the email of the profile whose username equals
// username exactly. Every stored profile is scanned; a profile that fails to
// decode aborts the scan with an error.
func (r *Repository) ResolveUsername(ctx context.Context, username string) (string, error) {
	keys, err := kv.KeysWithPrefix(ctx, r.store, r.prefix)
	if err != nil {
		return "", fmt.Errorf("list profiles: %w", err)
	}

	for _, key := range keys {
		var p models.Profile
		found, err := kv.ReadJSON(ctx, r.store, key, &p)
		if err != nil {
			return "", err
		}
		if found && p.Username == username {
			return p.Email, nil
		}
	}
	return "", common.ErrUsernameNotFound
}

// FindForRecovery matches identifier against usernames and emails ignoring
// case. Profiles that cannot be decoded are skipped. An identifier containing
// "@" that matches nothing is returned as the email to try.
func (r *Repository) FindForRecovery(ctx context.Context, identifier string) (*Recovery, error) {
	search := strings.ToLower(strings.TrimSpace(identifier))

	keys, err := kv.KeysWithPrefix(ctx, r.store, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		var p models.Profile
		if raw == nil || json.Unmarshal(raw, &p) != nil {
			r.log.Debug(ctx, "skipping unreadable profile", "key", key)
			continue
		}
		if strings.ToLower(p.Username) == search || strings.ToLower(p.Email) == search {
			return &Recovery{Email: p.Email, Username: p.Username}, nil
		}
	}

	if strings.Contains(search, "@") {
		return &Recovery{Email: search}, nil
	}
	return nil, common.ErrNotFoundOnDevice
}
