package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

const (
	kindSession = "session"
	kindCSRF    = "csrf"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims is the payload of session and CSRF tokens.
type Claims struct {
	Kind string          `json:"kind"`
	Role entity.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Revoker remembers logged-out session ids until they would expire anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type SessionManager struct {
	secret     []byte
	sessionTTL time.Duration
	csrfTTL    time.Duration
	revoker    Revoker
	now        func() time.Time
}

func NewSessionManager(secret string, sessionTTL, csrfTTL time.Duration, revoker Revoker) *SessionManager {
	return &SessionManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		csrfTTL:    csrfTTL,
		revoker:    revoker,
		now:        time.Now,
	}
}

func (m *SessionManager) SessionTTL() time.Duration { return m.sessionTTL }

// IssueSession signs a session token for u.
func (m *SessionManager) IssueSession(u *entity.User) (string, error) {
	return m.sign(kindSession, u.ID, u.Role, m.sessionTTL)
}

// IssueCSRF signs a CSRF token bound to the user id.
func (m *SessionManager) IssueCSRF(userID int64) (string, error) {
	return m.sign(kindCSRF, userID, "", m.csrfTTL)
}

func (m *SessionManager) sign(kind string, userID int64, role entity.UserRole, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Kind: kind,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *SessionManager) parse(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySession validates a session token and checks the revocation list.
func (m *SessionManager) VerifySession(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString, kindSession)
	if err != nil {
		return nil, err
	}
	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// VerifyCSRF checks that token is a live CSRF token issued for userID.
func (m *SessionManager) VerifyCSRF(tokenString string, userID int64) error {
	claims, err := m.parse(tokenString, kindCSRF)
	if err != nil {
		return err
	}
	if claims.UserID() != userID {
		return ErrInvalidToken
	}
	return nil
}

// Revoke invalidates a session for the rest of its lifetime.
func (m *SessionManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, ttl)
}
