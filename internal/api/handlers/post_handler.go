package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/services"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/rs/zerolog/hlog"
)

// PostHandler handles the post list and post creation.
type PostHandler struct {
	pages
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider, sessions *auth.SessionManager, renderer *views.Renderer) *PostHandler {
	return &PostHandler{
		pages:   pages{views: renderer, sessions: sessions},
		service: service,
	}
}

// Index lists every post, newest first.
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPostsWithAuthors(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to list posts")
		h.render(w, r, http.StatusInternalServerError, views.PageIndex, views.Page{Notice: danger(msgGenericFailure)})
		return
	}

	h.render(w, r, http.StatusOK, views.PageIndex, views.Page{Posts: posts})
}

// Create publishes a post for the logged-in user. Must run behind
// auth.RequireAuthenticated.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	post, err := h.service.CreatePost(r.Context(), user.ID, r.PostFormValue("content"))
	switch {
	case err == nil:
		hlog.FromRequest(r).Info().Int64("post_id", post.ID).Int64("user_id", user.ID).Msg("Post created")
		h.sessions.AddFlash(w, r, auth.FlashSuccess, msgPosted)
	case errors.Is(err, services.ErrContentRequired):
		h.sessions.AddFlash(w, r, auth.FlashDanger, msgContentRequired)
	default:
		hlog.FromRequest(r).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create post")
		h.sessions.AddFlash(w, r, auth.FlashDanger, msgGenericFailure)
	}
	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}
