package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"biomed-search/cache"
)

const sessionKeyPrefix = "session:"

// Session ist der serverseitige Zustand hinter dem Session-Cookie.
type Session struct {
	ID         string    `json:"id"`
	UserID     uint      `json:"user_id,omitempty"`
	CSRFToken  string    `json:"csrf_token"`
	OAuthState string    `json:"oauth_state,omitempty"`
	Next       string    `json:"next,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Authenticated meldet, ob sich in dieser Session ein User angemeldet hat.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// SessionManager speichert Sessions in einem Cache-Store.
type SessionManager struct {
	store cache.Store
	ttl   time.Duration
}

func NewSessionManager(store cache.Store, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, ttl: ttl}
}

// TTL ist die Lebensdauer einer Session nach dem letzten Speichern.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// RandomToken liefert n Zufallsbytes, hex-kodiert.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// New legt eine anonyme Session mit frischem CSRF-Token an und speichert sie.
func (m *SessionManager) New(ctx context.Context) (*Session, error) {
	token, err := RandomToken(32)
	if err != nil {
		return nil, errors.Wrap(err, "SessionManager.New: csrf token")
	}
	s := &Session{ID: uuid.NewString(), CSRFToken: token, CreatedAt: time.Now().UTC()}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get lädt eine Session. Existiert sie nicht, kommt nil ohne Fehler zurück.
func (m *SessionManager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var s Session
	found, err := m.store.GetJSON(ctx, sessionKeyPrefix+id, &s)
	if err != nil {
		return nil, errors.Wrap(err, "SessionManager.Get")
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

// Save schreibt die Session und verlängert ihre Lebensdauer.
func (m *SessionManager) Save(ctx context.Context, s *Session) error {
	return errors.Wrap(m.store.SetJSON(ctx, sessionKeyPrefix+s.ID, s, m.ttl), "SessionManager.Save")
}

// Destroy löscht eine Session.
func (m *SessionManager) Destroy(ctx context.Context, id string) error {
	return errors.Wrap(m.store.Delete(ctx, sessionKeyPrefix+id), "SessionManager.Destroy")
}

// Rotate verschiebt die Session auf eine neue ID und einen neuen CSRF-Token, z.B. nach dem Login.
func (m *SessionManager) Rotate(ctx context.Context, s *Session) (*Session, error) {
	old := s.ID
	token, err := RandomToken(32)
	if err != nil {
		return nil, errors.Wrap(err, "SessionManager.Rotate: csrf token")
	}
	rotated := *s
	rotated.ID = uuid.NewString()
	rotated.CSRFToken = token
	if err := m.Save(ctx, &rotated); err != nil {
		return nil, err
	}
	if err := m.Destroy(ctx, old); err != nil {
		return nil, err
	}
	return &rotated, nil
}

// ValidCSRF vergleicht den übermittelten Token in konstanter Zeit mit dem der Session.
func ValidCSRF(s *Session, token string) bool {
	if s == nil || s.CSRFToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(token)) == 1
}
