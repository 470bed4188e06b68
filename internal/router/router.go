// Package router sets up all HTTP routes and middleware chains for the
// inkpost API. Reads are public; writes sit behind RequireAuth and the
// owner-or-admin checks in the service layer.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"inkpost/internal/handlers"
	"inkpost/internal/middleware"
	"inkpost/internal/ratelimit"
	"inkpost/internal/response"
)

// Config holds the router options that come from configuration.
type Config struct {
	// AllowedOrigins is the CORS allow-list. Empty disables cross-origin
	// access.
	AllowedOrigins []string

	// AuthLimiter throttles register and login. Nil disables throttling.
	AuthLimiter ratelimit.Limiter

	// TrustProxy rewrites the remote address from proxy headers. Without
	// it those headers are ignored and cannot dodge the rate limit.
	TrustProxy bool
}

// Handlers bundles the handler groups the router mounts.
type Handlers struct {
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Posts      *handlers.Posts
	Comments   *handlers.Comments
	Uploads    *handlers.Uploads
	Health     *handlers.Health
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(cfg Config, authn middleware.Authenticator, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", index)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(authn))

		r.Get("/health", h.Health.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(middleware.RateLimit(cfg.AuthLimiter))
				}
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})
			r.Post("/logout", h.Auth.Logout)
			r.Get("/logout", h.Auth.Logout)
			r.With(middleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.List)
			r.Get("/{idOrSlug}", h.Categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.Posts.List)
			r.Get("/category/{categoryId}", h.Posts.ListByCategory)
			r.Get("/{id}", h.Posts.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Posts.Create)
				r.Put("/{id}", h.Posts.Update)
				r.Delete("/{id}", h.Posts.Delete)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{postId}", h.Comments.List)
			r.With(middleware.RequireAuth).Post("/{postId}", h.Comments.Create)
		})

		r.With(middleware.RequireAuth).Post("/uploads/images", h.Uploads.Image)
	})

	return r
}

// index answers the bare root so load balancers get a 200.
func index(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"message": "API is running..."})
}
