// Package app wires configuration, adapters and handlers into a server.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/orientis/orientis/internal/adapter/httpserver"
	"github.com/orientis/orientis/internal/adapter/observability"
	"github.com/orientis/orientis/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server, jwtSvc *httpserver.JWTService) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	// Covers upload + synchronous analysis; model calls can be slow on CPU.
	r.Use(httpserver.TimeoutMiddleware(3 * time.Minute))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public auth endpoints, rate limited per IP.
	r.Group(func(pr chi.Router) {
		pr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		pr.Post("/v1/auth/register", srv.RegisterHandler())
		pr.Post("/v1/auth/login", srv.LoginHandler())
	})

	// Bearer-guarded endpoints.
	r.Group(func(ar chi.Router) {
		ar.Use(httpserver.AuthMiddleware(jwtSvc))

		ar.Get("/v1/auth/profile", srv.ProfileHandler())
		ar.Put("/v1/auth/profile", srv.UpdateProfileHandler())

		ar.Group(func(wr chi.Router) {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
			wr.Post("/v1/upload/cv", srv.UploadCVHandler())
			wr.Post("/v1/chat/message", srv.ChatMessageHandler())
		})

		ar.Get("/v1/documents", srv.ListDocumentsHandler())
		ar.Get("/v1/documents/{id}", srv.GetDocumentHandler())
		ar.Delete("/v1/documents/{id}", srv.DeleteDocumentHandler())

		ar.Get("/v1/chat/conversations", srv.ConversationsHandler())
		ar.Get("/v1/chat/conversations/{id}", srv.ConversationHandler())
	})

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
