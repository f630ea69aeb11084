package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("token has been revoked")
)

const issuer = "voucher-console"

// Claims are the JWT claims of an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// Can reports whether the principal holds cap.
func (p Principal) Can(cap domain.Capability) bool {
	return domain.CapabilitiesOf(p.Role).Has(cap)
}

// Manager issues, parses and revokes access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	revoked map[string]time.Time // token ID -> expiry
}

// NewManager creates a token manager signing with secret.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// SetClock overrides the time source.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Issue returns a signed token for u and its expiry.
func (m *Manager) Issue(u domain.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Role: u.Role().Name(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.UTC(), nil
}

// Parse verifies a token and returns its principal.
func (m *Manager) Parse(token string) (*Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	m.mu.RLock()
	_, revoked := m.revoked[claims.ID]
	m.mu.RUnlock()
	if revoked {
		return nil, ErrRevoked
	}

	return &Principal{
		UserID:    claims.Subject,
		Role:      role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates p's token until it expires.
func (m *Manager) Revoke(p Principal) {
	m.mu.Lock()
	m.revoked[p.TokenID] = p.ExpiresAt
	m.mu.Unlock()
}

// PruneRevoked drops revocations of tokens that have expired and returns how
// many were removed.
func (m *Manager) PruneRevoked() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
			n++
		}
	}
	return n
}

// RunPruner calls PruneRevoked every interval until ctx is done.
func (m *Manager) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.PruneRevoked(); n > 0 {
				logger.Debug("[auth] pruned revoked tokens", "count", n)
			}
		}
	}
}
