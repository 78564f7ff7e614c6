// Package server wires the HTTP routes, guards and CORS policy.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/BorisDmv/blog-api/internal/auth"
	"github.com/BorisDmv/blog-api/internal/handlers"
	appmiddleware "github.com/BorisDmv/blog-api/internal/middleware"
	"github.com/BorisDmv/blog-api/internal/posts"
	"github.com/BorisDmv/blog-api/internal/users"
)

type Deps struct {
	Tokens             *auth.TokenService
	Users              *users.Directory
	Posts              *posts.Service
	Logger             *slog.Logger
	CorsAllowedOrigins []string
}

// NewRouter returns the API mounted both at the root and under /api.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(deps.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.AuthHeader},
		ExposedHeaders:   []string{appmiddleware.AuthHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	r.Get("/health", handlers.Health)

	r.Mount("/api", apiRoutes(deps))
	r.Mount("/", apiRoutes(deps))
	return r
}

func apiRoutes(deps Deps) chi.Router {
	postsHandler := handlers.NewPostsHandler(deps.Posts, deps.Logger)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Logger)
	requireAdmin := appmiddleware.AdminGuard(deps.Tokens, deps.Users, deps.Logger)
	requireAuth := appmiddleware.AuthGuard(deps.Users, deps.Logger)

	r := chi.NewRouter()
	r.Get("/posts", postsHandler.List)
	r.With(requireAdmin).Post("/posts", postsHandler.Create)
	r.With(requireAdmin).Patch("/posts/{id}", postsHandler.Update)
	r.With(requireAdmin).Delete("/posts/{id}", postsHandler.Delete)
	r.With(requireAuth).Post("/posts/{id}/comments", postsHandler.AddComment)

	r.Post("/users", usersHandler.Signup)
	r.Post("/users/login", usersHandler.Login)
	r.With(requireAuth).Delete("/users/me/token", usersHandler.Logout)
	return r
}
