package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/recipes/client"
	"github.com/jacentio/recipes/model"
)

// Session is the state container of one admin user: a slice per entity type
// and a one-shot flash message.
type Session struct {
	ID          string
	Authors     *Slice[model.Author]
	Recipes     *Slice[model.Recipe]
	Ingredients *Slice[model.Ingredient]

	mu       sync.Mutex
	flash    string
	lastSeen time.Time
}

// NewSession creates a session over the three backend collections.
func NewSession(id string, authors API[model.Author], recipes API[model.Recipe], ingredients API[model.Ingredient], logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)
	return &Session{
		ID:          id,
		Authors:     NewSlice(authors, logger),
		Recipes:     NewSlice(recipes, logger),
		Ingredients: NewSlice(ingredients, logger),
	}
}

// SetFlash stores msg for the next TakeFlash.
func (s *Session) SetFlash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = msg
}

// TakeFlash returns and clears the flash message.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

// ClientSessions returns a session factory whose slices call the API through c.
func ClientSessions(c *client.Client, logger *slog.Logger) func(id string) *Session {
	return func(id string) *Session {
		return NewSession(id, client.Authors(c), client.Recipes(c), client.Ingredients(c), logger)
	}
}

// Sessions keys sessions by an opaque id and forgets idle ones.
type Sessions struct {
	open func(id string) *Session
	idle time.Duration
	now  func() time.Time

	mu   sync.Mutex
	byID map[string]*Session
}

// NewSessions creates an empty registry. open builds each new session.
func NewSessions(open func(id string) *Session, idle time.Duration) *Sessions {
	return &Sessions{
		open: open,
		idle: idle,
		now:  time.Now,
		byID: make(map[string]*Session),
	}
}

// Lookup returns the live session with id and marks it used.
func (r *Sessions) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.byID, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Create starts a session under a fresh random id.
func (r *Sessions) Create() *Session {
	s := r.open(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	s.lastSeen = r.now()
	r.byID[s.ID] = s
	return s
}

// Len returns the number of tracked sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Prune drops idle sessions and returns how many it removed.
func (r *Sessions) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, s := range r.byID {
		if r.expired(s, now) {
			delete(r.byID, id)
			n++
		}
	}
	return n
}

// Run prunes every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

func (r *Sessions) expired(s *Session, now time.Time) bool {
	return r.idle > 0 && now.Sub(s.lastSeen) > r.idle
}
