// Package services contains the application service for the GlassHabit
// client. Session is the single entry point the CLI talks to: it combines
// the identity gateway with the profile and collection repositories.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/identity"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/collections"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
)

// Deps are the collaborators a Session is built from.
type Deps struct {
	Store     kv.Repository
	Namespace string
	Gateway   identity.Gateway
	Log       logging.Logger
}

// Session is created once per application start and closed on shutdown.
// It is not safe for concurrent mutation of the same user's data.
type Session struct {
	store       kv.Repository
	gateway     identity.Gateway
	profiles    *profiles.Repository
	collections *collections.Repository
	log         logging.Logger
	now         func() time.Time

	mu     sync.Mutex
	unsubs []func()
}

func NewSession(d Deps) *Session {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Session{
		store:       d.Store,
		gateway:     d.Gateway,
		profiles:    profiles.NewRepository(d.Store, d.Namespace, log),
		collections: collections.NewRepository(d.Store, d.Namespace),
		log:         log.With("component", "session"),
		now:         time.Now,
	}
}

// Close detaches every auth-state subscription made through this session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	s.log.Debug(ctx, "session closed", "subscriptions", len(unsubs))
	return nil
}
