package httpapi

import (
	"net/http"
	"time"

	"kitabghar-backend-go/internal/config"
	"kitabghar-backend-go/internal/services"
	"kitabghar-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Server struct {
	Store  store.Store
	Config config.Config
	Tokens services.TokenService
}

// NewServer wires the store into the HTTP layer; the store instance is
// constructed at startup and injected here, never reached through a global.
func NewServer(st store.Store, cfg config.Config) *Server {
	tokens := services.TokenService{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    time.Duration(cfg.TokenTTLSeconds) * time.Second,
	}
	return &Server{
		Store:  st,
		Config: cfg,
		Tokens: tokens,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.Register)
		api.Post("/auth/login", s.Login)

		api.Get("/stats", s.GetStats)
		api.Get("/categories", s.ListCategories)

		api.Route("/books", func(books chi.Router) {
			books.Get("/", s.ListBooks)
			books.Get("/{id}", s.GetBook)
			books.Get("/{id}/reviews", s.ListBookReviews)
			books.With(WithAuth(s.Tokens)).Post("/{id}/reviews", s.CreateReview)
			books.With(OptionalAuth(s.Tokens)).Get("/{id}/download", s.DownloadBook)
		})

		api.Route("/bookmarks", func(bookmarks chi.Router) {
			bookmarks.Use(WithAuth(s.Tokens))
			bookmarks.Get("/", s.ListBookmarks)
			bookmarks.Post("/", s.CreateBookmark)
			bookmarks.Get("/{bookId}/status", s.GetBookmarkStatus)
			bookmarks.Delete("/{bookId}", s.DeleteBookmark)
		})

		api.Route("/reading-progress", func(progress chi.Router) {
			progress.Use(WithAuth(s.Tokens))
			progress.Get("/{bookId}", s.GetReadingProgress)
			progress.Post("/", s.UpsertReadingProgress)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireAdmin)
			admin.Get("/users", s.AdminListUsers)
			admin.Patch("/users/{id}/role", s.AdminUpdateUserRole)
			admin.Patch("/users/{id}/block", s.AdminUpdateUserBlock)
			admin.Get("/downloads", s.AdminListDownloads)
			admin.Get("/reviews", s.AdminListReviews)
			admin.Get("/metrics", s.AdminMetrics)

			admin.Route("/books", func(books chi.Router) {
				books.Post("/", s.AdminCreateBook)
				books.Patch("/{id}", s.AdminUpdateBook)
				books.Delete("/{id}", s.AdminDeleteBook)
			})

			admin.Route("/categories", func(categories chi.Router) {
				categories.Post("/", s.AdminCreateCategory)
				categories.Patch("/{id}", s.AdminUpdateCategory)
				categories.Delete("/{id}", s.AdminDeleteCategory)
			})
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.Config.UploadStoragePath)))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		uploads.ServeHTTP(w, r)
	})

	return r
}
