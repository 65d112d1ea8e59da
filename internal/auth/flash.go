package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// flashTTL bounds how long an unread notice survives.
const flashTTL = 5 * time.Minute

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// AddFlash queues a notice for the next page the browser renders.
func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(m.readFlashes(r), Flash{Category: category, Message: message})

	claims := &flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(flashTTL)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign flash cookie")
		return
	}
	http.SetCookie(w, m.cookie(FlashCookieName, value, time.Time{}))
}

// PopFlashes returns the queued notices and clears them.
func (m *SessionManager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := m.readFlashes(r)
	if _, err := r.Cookie(FlashCookieName); err == nil {
		m.clear(w, FlashCookieName)
	}
	return flashes
}

func (m *SessionManager) readFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, m.keyFunc, jwt.WithValidMethods(signingMethods))
	if err != nil || !token.Valid {
		return nil
	}
	return claims.Flashes
}
