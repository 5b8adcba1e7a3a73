package session

import (
	"context"
	"sync"
	"time"

	"maitred/internal/monitoring"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidToken is returned for tokens that fail verification
	ErrInvalidToken = errors.New("invalid session token")
	// ErrSessionNotFound is returned when the token is valid but the session was swept
	ErrSessionNotFound = errors.New("session not found")
)

type claims struct {
	SessionID string `json:"sid"`
	jwt.StandardClaims
}

// Manager issues and resolves sessions. Sessions live in memory and are
// dropped after IdleTTL without requests.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	log     logrus.FieldLogger
	metrics *monitoring.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(secret string, idleTTL time.Duration, log logrus.FieldLogger, metrics *monitoring.Metrics) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      idleTTL,
		log:      log.WithField("component", "sessions"),
		metrics:  metrics,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session and returns it with its token
func (m *Manager) Create() (*Session, string, error) {
	now := m.now()
	s := newSession(uuid.New().String(), now)

	token, err := m.Token(s)
	if err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.WithField("session_id", s.ID).Debug("session created")
	return s, token, nil
}

// Token signs a fresh token for s valid for one idle period
func (m *Manager) Token(s *Session) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: s.ID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	})
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// Resolve verifies token and returns its session, marking it as seen
func (m *Manager) Resolve(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || c.SessionID == "" {
		return nil, ErrInvalidToken
	}

	m.mu.RLock()
	s, ok := m.sessions[c.SessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many went
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	if removed > 0 {
		m.log.WithFields(logrus.Fields{"removed": removed, "active": n}).Info("swept idle sessions")
	}
	return removed
}

// Count is the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run sweeps on every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(t)
		}
	}
}
