package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/api/middleware"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/handlers"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS for the dashboard, which may be served from another origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)
	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Get("/alerts", h.ListAlerts)
		r.Post("/alerts/resolve", h.ResolveAlert)
		r.Post("/alerts/check", h.CheckAlerts)

		r.Get("/messages/processed", h.ProcessedMessages)
		r.Get("/messages/{room}", h.RoomMessages)
		r.Post("/messages/reply", h.Reply)
		r.Post("/messages/reaction", h.Reaction)
		r.Post("/messages/quote", h.Quote)
		r.Post("/analyze", h.Analyze)

		r.Get("/rooms", h.Rooms)
		r.Get("/rooms/categories", h.RoomCategories)
		r.Post("/rooms/{id}/check", h.CheckRoom)

		r.Get("/deleted", h.ListDeleted)
		r.Delete("/deleted", h.ClearDeleted)
		r.Get("/deleted/{room}", h.RoomDeleted)
		r.Delete("/deleted/{room}", h.ClearRoomDeleted)
	})

	return r
}
