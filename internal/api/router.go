package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/mamakara/internal/api/handlers"
	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/services"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	userService services.UserServiceProvider,
	postService services.PostServiceProvider,
	sessions *auth.SessionManager,
	renderer *views.Renderer,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	// Only mount CORS when origins are configured; an empty list would allow all.
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(auth.Middleware(sessions, userService))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, sessions, renderer)
	postHandler := handlers.NewPostHandler(postService, sessions, renderer)

	r.Get(handlers.PathHome, postHandler.Index)

	r.Get(handlers.PathRegister, userHandler.RegisterForm)
	r.Post(handlers.PathRegister, userHandler.Register)
	r.Get(handlers.PathLogin, userHandler.LoginForm)
	r.Post(handlers.PathLogin, userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuthenticated(handlers.PathLogin))
		r.Get(handlers.PathLogout, userHandler.Logout)
		r.Post(handlers.PathPost, postHandler.Create)
	})

	return r
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
