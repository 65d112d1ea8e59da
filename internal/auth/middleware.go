package auth

import (
	"context"
	"net/http"

	"github.com/isdelr/mamakara/internal/models"
	"github.com/rs/zerolog/hlog"
)

// UserLookup resolves a session's user id to a full user record.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
}

// RequestContext is built once per request and carries the identity
// resolved from the session cookie. CurrentUser is nil for anonymous requests.
type RequestContext struct {
	CurrentUser *models.User
}

// IsAuthenticated reports whether the request has a logged-in user.
func (rc *RequestContext) IsAuthenticated() bool {
	return rc != nil && rc.CurrentUser != nil
}

type contextKey string

const requestContextKey = contextKey("requestContext")

// Middleware resolves the current user for every request and stores a
// RequestContext in the request's context. Invalid or expired sessions and
// sessions whose user no longer exists are treated as anonymous.
func Middleware(sessions *SessionManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := &RequestContext{}

			if id, ok := sessions.UserID(r); ok {
				user, err := users.GetUserByID(r.Context(), id)
				if err != nil {
					hlog.FromRequest(r).Warn().Err(err).Int64("user_id", id).Msg("Could not resolve session user")
				} else {
					rc.CurrentUser = &user
				}
			}

			ctx := context.WithValue(r.Context(), requestContextKey, rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request's RequestContext. It never returns nil.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{}
}

// CurrentUser returns the logged-in user, if any.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	rc := FromContext(ctx)
	return rc.CurrentUser, rc.IsAuthenticated()
}

// RequireAuthenticated guards a handler: anonymous requests are redirected
// to loginPath instead of reaching it.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).IsAuthenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
