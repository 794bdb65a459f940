package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticketapp/internal/domain"
)

// Session is the per-browser server-side state: at most one authenticated
// user snapshot (a value copy, not a live record) and the pending one-shot
// flashes.
type Session struct {
	ID      string         `json:"id"`
	User    *domain.User   `json:"user,omitempty"`
	Flashes []domain.Flash `json:"flashes,omitempty"`
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// AddFlash queues a one-shot notification for the next rendered page.
func (s *Session) AddFlash(kind domain.FlashType, message string) {
	s.Flashes = append(s.Flashes, domain.Flash{
		ID:      time.Now().UnixMilli(),
		Type:    kind,
		Message: message,
	})
}

// PopFlashes returns the pending flashes and clears them unconditionally.
// Read-once: a render that fails after popping still consumes them.
func (s *Session) PopFlashes() []domain.Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// Manager ties session records to signed cookie tokens.
type Manager struct {
	store  Store
	tokens *TokenManager
}

// NewManager constructs a manager over the given store.
func NewManager(store Store, tokens *TokenManager) *Manager {
	return &Manager{store: store, tokens: tokens}
}

// New mints a fresh empty session and persists it.
func (m *Manager) New(ctx context.Context) (*Session, error) {
	sess := &Session{ID: uuid.NewString()}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Lookup resolves a cookie token to its session. Invalid tokens and unknown
// ids both come back as ErrSessionNotFound.
func (m *Manager) Lookup(ctx context.Context, token string) (*Session, error) {
	id, err := m.tokens.Parse(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return m.store.Get(ctx, id)
}

// Token returns the signed cookie value for a session.
func (m *Manager) Token(sess *Session) (string, error) {
	return m.tokens.Generate(sess.ID)
}

// Save persists session mutations (login, flashes, drains).
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.store.Put(ctx, sess)
}

// Login stores a value copy of the user on the session. Later edits to the
// underlying record do not propagate without re-login.
func (m *Manager) Login(ctx context.Context, sess *Session, user domain.User) error {
	sess.User = &user
	return m.store.Put(ctx, sess)
}

// Destroy removes the session entirely: user, pending flashes, everything.
func (m *Manager) Destroy(ctx context.Context, sess *Session) error {
	return m.store.Delete(ctx, sess.ID)
}
