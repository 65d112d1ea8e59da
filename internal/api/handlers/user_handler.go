package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/services"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles registration, login and logout.
type UserHandler struct {
	pages
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, sessions *auth.SessionManager, renderer *views.Renderer) *UserHandler {
	return &UserHandler{
		pages:   pages{views: renderer, sessions: sessions},
		service: service,
	}
}

// RegisterForm shows the registration form.
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageRegister, views.Page{})
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	logger := hlog.FromRequest(r)

	user, err := h.service.CreateUser(r.Context(), username, password)
	switch {
	case err == nil:
		logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
		h.sessions.AddFlash(w, r, auth.FlashSuccess, msgRegistered)
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
	case errors.Is(err, services.ErrUsernameTaken):
		logger.Info().Str("username", username).Msg("Registration rejected: username taken")
		h.render(w, r, http.StatusConflict, views.PageRegister, views.Page{Username: username, Notice: danger(msgUsernameTaken)})
	case errors.Is(err, services.ErrInvalidInput):
		h.render(w, r, http.StatusBadRequest, views.PageRegister, views.Page{Username: username, Notice: danger(msgRegisterInvalid)})
	default:
		logger.Error().Err(err).Str("username", username).Msg("Failed to register user")
		h.render(w, r, http.StatusInternalServerError, views.PageRegister, views.Page{Username: username, Notice: danger(msgGenericFailure)})
	}
}

// LoginForm shows the login form.
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageLogin, views.Page{})
}

// Login authenticates the user and starts a session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	logger := hlog.FromRequest(r)

	user, err := h.service.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			logger.Warn().Str("username", username).Msg("Failed authentication attempt")
			h.render(w, r, http.StatusUnauthorized, views.PageLogin, views.Page{Username: username, Notice: danger(msgInvalidCredentials)})
			return
		}
		logger.Error().Err(err).Str("username", username).Msg("Failed to authenticate user")
		h.render(w, r, http.StatusInternalServerError, views.PageLogin, views.Page{Username: username, Notice: danger(msgGenericFailure)})
		return
	}

	if err := h.sessions.Login(w, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to start session")
		h.render(w, r, http.StatusInternalServerError, views.PageLogin, views.Page{Username: username, Notice: danger(msgGenericFailure)})
		return
	}

	h.sessions.AddFlash(w, r, auth.FlashSuccess, msgLoggedIn)
	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}

// Logout ends the session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	h.sessions.AddFlash(w, r, auth.FlashSuccess, msgLoggedOut)
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}
