package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/mamakara/internal/models"
)

const (
	SessionCookieName = "session"
	FlashCookieName   = "flash"
)

var signingMethods = []string{jwt.SigningMethodHS256.Alg()}

// Claims defines the session token claims.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager issues and reads the signed cookies that carry a
// browser's identity and its pending flash notices.
type SessionManager struct {
	key    []byte
	ttl    time.Duration
	secure bool
}

// NewSessionManager creates a SessionManager. Secure cookies should be
// enabled whenever the site is served over HTTPS.
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{key: []byte(secret), ttl: ttl, secure: secure}
}

// GenerateToken creates a signed session token for a given user.
func (m *SessionManager) GenerateToken(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// ValidateToken parses and validates a session token string.
func (m *SessionManager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, m.keyFunc, jwt.WithValidMethods(signingMethods))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Login associates the browser with user by setting the session cookie.
func (m *SessionManager) Login(w http.ResponseWriter, user models.User) error {
	token, err := m.GenerateToken(user)
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}
	http.SetCookie(w, m.cookie(SessionCookieName, token, time.Now().Add(m.ttl)))
	return nil
}

// Logout expires the session cookie. Calling it without a session is harmless.
// Tokens are not revoked server-side: a copy of the cookie stays valid until
// it expires.
func (m *SessionManager) Logout(w http.ResponseWriter) {
	m.clear(w, SessionCookieName)
}

// UserID returns the user id carried by the request's session cookie.
func (m *SessionManager) UserID(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	claims, err := m.ValidateToken(cookie.Value)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

func (m *SessionManager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.key, nil
}

func (m *SessionManager) cookie(name, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		c.Expires = expires
	}
	return c
}

func (m *SessionManager) clear(w http.ResponseWriter, name string) {
	c := m.cookie(name, "", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
}
