package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/email-composer/internal/middleware"
	natsclient "github.com/capitalize-ai/email-composer/internal/nats"
	"github.com/capitalize-ai/email-composer/internal/service"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

// RouterConfig holds router settings.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxUploadBytes    int64
	AllowedOrigins    []string
}

// NewRouter builds the HTTP API.
func NewRouter(manager *service.SessionManager, natsClient *natsclient.Client, cfg RouterConfig, log *logger.Logger) http.Handler {
	healthHandler := NewHealthHandler(manager.Composer(), natsClient)
	optionsHandler := NewOptionsHandler(manager.Composer())
	sessionHandler := NewSessionHandler(manager, cfg.MaxUploadBytes, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/options", optionsHandler.Options)
		r.Get("/presets", optionsHandler.Presets)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)

			r.Route("/{"+middleware.SessionParam+"}", func(r chi.Router) {
				r.Use(middleware.Session)

				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)

				r.Put("/preset", sessionHandler.ApplyPreset)
				r.Delete("/preset", sessionHandler.ClearPreset)
				r.Put("/model", sessionHandler.SelectModel)
				r.Put("/attachments", sessionHandler.SetAttachments)
				r.Delete("/attachments", sessionHandler.ClearAttachments)

				r.Group(func(r chi.Router) {
					if cfg.RateLimitRequests > 0 {
						r.Use(middleware.SessionRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
					}
					r.Post("/generate", sessionHandler.Generate)
				})
				r.Post("/preview", sessionHandler.Preview)

				r.Put("/current", sessionHandler.SaveEdit)
				r.Post("/current/edit", sessionHandler.StartEdit)
				r.Delete("/current/edit", sessionHandler.CancelEdit)
				r.Post("/current/favorite", sessionHandler.ToggleCurrentFavorite)

				r.Get("/history", sessionHandler.History)
				r.Delete("/history", sessionHandler.ClearHistory)
				r.Post("/history/reload", sessionHandler.Reload)
				r.Post("/history/{index}/favorite", sessionHandler.ToggleFavorite)
				r.Delete("/history/{index}", sessionHandler.DeleteRecord)
				r.Get("/favorites", sessionHandler.Favorites)

				r.Get("/export.txt", sessionHandler.ExportText)
				r.Get("/export.pdf", sessionHandler.ExportPDF)
			})
		})
	})

	return r
}
