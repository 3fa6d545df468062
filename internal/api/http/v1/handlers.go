package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/shortloop/shortloop/internal/database"
	"github.com/shortloop/shortloop/internal/models"
	"github.com/shortloop/shortloop/internal/service"
	"github.com/shortloop/shortloop/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenURLRequest represents the request payload for shortening a URL.
type shortenURLRequest struct {
	URL         string     `json:"url" validate:"required,url"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=50"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// urlResponse represents the response payload for a shortened URL operation.
type urlResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	URL         string     `json:"url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// urlStatsResponse represents the analytics payload for a shortened URL.
type urlStatsResponse struct {
	ShortCode    string     `json:"short_code"`
	URL          string     `json:"url"`
	ClickCount   int64      `json:"click_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// toURLResponse converts a URL model from the business layer into a response payload.
func toURLResponse(baseURL string, url *models.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		ShortURL:    shortURLFor(baseURL, url.ShortCode),
		URL:         url.OriginalURL,
		CustomAlias: url.CustomAlias,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
	}
}

func toURLStatsResponse(url *models.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:    url.ShortCode,
		URL:          url.OriginalURL,
		ClickCount:   url.ClickCount,
		CreatedAt:    url.CreatedAt,
		LastAccessed: url.LastAccessed,
		ExpiresAt:    url.ExpiresAt,
	}
}

func shortURLFor(baseURL, shortCode string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + shortCode
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain a valid URL and may carry a custom alias and an
// expiry time. The handler validates the input, calls the allocator, and
// returns the assigned short code with relevant metadata.
func handleShortenURL(baseURL string, svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), service.ShortenURLParams{
			OriginalURL: req.URL,
			CustomAlias: req.CustomAlias,
			ExpiresAt:   req.ExpiresAt,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, service.ErrInvalidAlias):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidAliasResponse)
			case errors.Is(err, service.ErrInvalidExpiry):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidExpiryResponse)
			case errors.Is(err, service.ErrAliasTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.AliasConflictResponse)
			case errors.Is(err, service.ErrMaxRetriesExceeded):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.GenerationFailedResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(baseURL, url)))
	}
}

// handleResolveShortCode handles GET requests to resolve a short code into the
// original URL. Resolution schedules click accounting in the background.
//
// The handler returns the URL data if found, 404 if the code doesn't exist or
// was deactivated, and 410 if the record exists but has expired.
func handleResolveShortCode(baseURL string, svc URLService) http.HandlerFunc {
	const op = "api.http.handleResolveShortCode"
	const successMsg = "The short code was successfully resolved."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			renderResolveError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(baseURL, url)))
	}
}

// handleRedirect handles GET requests on the root short link path and redirects
// the visitor to the original URL. The click is accounted asynchronously after
// the redirect is issued.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			renderResolveError(w, r, op, err)
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
	}
}

func renderResolveError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidShortCode):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidShortCodeResponse)
	case errors.Is(err, database.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, service.ErrURLExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, response.URLExpiredResponse)
	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

// handleDeactivateURL handles DELETE requests to deactivate the URL.
//
// Deactivation is a soft delete: the record is kept but the short code stops
// resolving, exactly as if it never existed. The handler returns a success
// message or a 404 error if the short code doesn't exist.
func handleDeactivateURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The URL was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.DeactivateURL(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidShortCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidShortCodeResponse)
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// handleGetURLStats handles GET requests to retrieve usage statistics for a shortened URL.
//
// The handler fetches the click count and last access time for the given short
// code, returning the data or a 404 error if the URL doesn't exist. Unlike
// resolution, fetching statistics doesn't count as a visit.
func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidShortCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidShortCodeResponse)
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLStatsResponse(url)))
	}
}
