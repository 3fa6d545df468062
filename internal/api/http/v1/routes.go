package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/shortloop/shortloop/internal/models"
	"github.com/shortloop/shortloop/internal/service"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL allocates a short code for the provided original URL, honoring
	// an optional custom alias and expiry time.
	// It returns the assigned code and associated URL details, or an error if the operation fails.
	ShortenURL(ctx context.Context, params service.ShortenURLParams) (*models.URL, error)

	// ResolveShortCode retrieves the original URL for a given short code and
	// schedules asynchronous click accounting for the visit.
	// It returns the associated URL details or an error if the URL is not found or expired.
	ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// DeactivateURL disables the URL, making it no longer functional.
	// It returns an error if the URL doesn't exist or if deactivation fails.
	DeactivateURL(ctx context.Context, shortCode string) error

	// GetURLStats retrieves the statistics (click count, last access) of the URL
	// associated with the short code, without counting as a visit.
	// It returns the statistics or an error if the URL is not found.
	GetURLStats(ctx context.Context, shortCode string) (*models.URL, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", handleShortenURL(baseURL, urlSvc, validate))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleResolveShortCode(baseURL, urlSvc))
				r.Delete("/", handleDeactivateURL(urlSvc))
				r.Get("/stats", handleGetURLStats(urlSvc))
			})
		})
	})

	// Root-level short link path used by browsers.
	r.Get("/{shortCode}", handleRedirect(urlSvc))

	return r
}
