package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Manager handles session lifecycle over a Store and a Transport.
type Manager struct {
	store     Store
	transport Transport
	config    Config
}

// New creates a session manager.
func New(store Store, transport Transport, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg = DefaultConfig()
	}
	return &Manager{
		store:     store,
		transport: transport,
		config:    cfg,
	}
}

// Store exposes the underlying session store. The raw tenant-resolution
// fallback reads serialized sessions through it directly.
func (m *Manager) Store() Store {
	return m.store
}

// Transport exposes the token transport so callers can decrypt the session
// cookie without loading the full session.
func (m *Manager) Transport() Transport {
	return m.transport
}

// Ensure retrieves the request's session or creates a new one.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err == nil {
		return session, nil
	}
	_ = m.transport.ClearToken(w)

	session, err = m.createSession(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.TTL); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	return session, nil
}

// Get retrieves an existing session from the request.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Authenticate binds a user to the session, rotating the token.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, err := m.Get(ctx, r)
	if err != nil {
		session, err = m.createSession(ctx, &userID)
		if err != nil {
			return err
		}
	} else {
		newToken, err := generateToken()
		if err != nil {
			return err
		}

		_ = m.store.Delete(ctx, session.Token)

		session.Token = newToken
		session.UserID = &userID

		if err := m.store.Create(ctx, session); err != nil {
			return err
		}
	}

	return m.transport.SetToken(w, session.Token, m.config.TTL)
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	return m.transport.ClearToken(w)
}

// Set stores a value in the request's session, creating one if needed.
func (m *Manager) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, key string, value any) error {
	session, err := m.Ensure(ctx, w, r)
	if err != nil {
		return err
	}

	session.Set(key, value)
	return m.store.Update(ctx, session)
}

// GetString retrieves a string value from the request's session.
func (m *Manager) GetString(ctx context.Context, r *http.Request, key string) (string, bool) {
	session, err := m.Get(ctx, r)
	if err != nil {
		return "", false
	}
	return session.GetString(key)
}

func (m *Manager) createSession(ctx context.Context, userID *uuid.UUID) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := NewSession(token, userID, m.config.TTL)
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// generateToken creates a cryptographically secure token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
