package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/imaging-service/internal/application"
	"github.com/ipede/imaging-service/internal/infrastructure/config"
	"github.com/ipede/imaging-service/internal/infrastructure/database"
	"github.com/ipede/imaging-service/internal/infrastructure/keyset"
	"github.com/ipede/imaging-service/internal/infrastructure/repository"
	"github.com/ipede/imaging-service/internal/infrastructure/storage"
	"github.com/ipede/imaging-service/internal/interfaces/http/handlers"
	"github.com/ipede/imaging-service/internal/interfaces/http/middleware/auth"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Router struct {
	router *chi.Mux
	db     *database.Postgres
}

func NewRouter(
	db *database.Postgres,
	store *storage.FileStorage,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	resolver := keyset.NewResolver(cfg, logger)
	authMiddleware := auth.NewAuthMiddleware(resolver, cfg.Issuer, logger)
	imageRepo := repository.NewImageRepository(db, logger)
	imageService := application.NewImageService(imageRepo, store, logger)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(imageService, logger)

	// Create router with middleware
	router := createRouter()

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			// Check database connection
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	// Serve Swagger JSON with CORS headers
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// API routes
	router.Route("/api", func(r chi.Router) {
		// Upload requires the doctor role
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator, authMiddleware.RequireRole("doctor"))
			r.Post("/images", imageHandler.UploadImageHandler)
		})

		// Retrieval requires any authenticated caller
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator, authMiddleware.RequireAuthenticated)
			r.Get("/images/{id}", imageHandler.GetImageHandler)
			r.Get("/patients/{patientID}/images", imageHandler.ListPatientImagesHandler)
		})
	})

	return &Router{router: router, db: db}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
