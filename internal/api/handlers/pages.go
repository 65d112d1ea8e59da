package handlers

import (
	"net/http"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/rs/zerolog/hlog"
)

const (
	PathHome     = "/"
	PathRegister = "/register"
	PathLogin    = "/login"
	PathLogout   = "/logout"
	PathPost     = "/post"
)

// User-visible notices. Internal error details are logged, never shown.
const (
	msgRegistered         = "Registration succeeded! Please log in."
	msgUsernameTaken      = "That username is already taken."
	msgRegisterInvalid    = "Please enter a username (up to 150 characters) and a password."
	msgLoggedIn           = "Logged in!"
	msgInvalidCredentials = "Login failed. Invalid username or password."
	msgLoggedOut          = "You have been logged out."
	msgPosted             = "Posted!"
	msgContentRequired    = "Post content cannot be empty."
	msgGenericFailure     = "Something went wrong. Please try again."
)

// pages renders templates with the per-request data every page shares.
type pages struct {
	views    *views.Renderer
	sessions *auth.SessionManager
}

func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	page.CurrentUser = auth.FromContext(r.Context()).CurrentUser
	page.Flashes = p.sessions.PopFlashes(w, r)

	if err := p.views.Render(w, status, name, page); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func danger(message string) *auth.Flash {
	return &auth.Flash{Category: auth.FlashDanger, Message: message}
}
