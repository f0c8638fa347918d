package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/notes-api/internal/auth"
	"github.com/ayush/notes-api/internal/middleware"
	"github.com/ayush/notes-api/internal/posts"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Tokens         middleware.TokenVerifier
	Auth           *auth.Handler
	Posts          *posts.Handler
}

// NewRouter builds the full route table.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Export-Key"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens))
			r.Get("/user", d.Auth.Me)

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", d.Posts.Create)
				r.Get("/", d.Posts.List)
				r.Get("/export", d.Posts.Export)
				r.Get("/exports/{name}", d.Posts.DownloadExport)
				r.Put("/{postId}", d.Posts.Update)
				r.Delete("/{postId}", d.Posts.Delete)
			})
		})
	})

	return r
}
