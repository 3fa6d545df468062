package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shortloop/shortloop/internal/config"
	"github.com/shortloop/shortloop/internal/database"
	"github.com/shortloop/shortloop/internal/models"
	"github.com/shortloop/shortloop/pkg/base62"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxURLLength = 2048

// Generated codes and custom aliases share one namespace and one format:
// 3-50 characters drawn from the Base62 alphabet plus '_' and '-'.
var shortCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

var (
	// ErrInvalidURL is returned when the original URL is malformed, uses
	// a scheme other than http/https, or exceeds the length limit.
	ErrInvalidURL = errors.New("invalid original url")
	// ErrInvalidAlias is returned when a custom alias violates the
	// length or charset rules.
	ErrInvalidAlias = errors.New("invalid custom alias")
	// ErrInvalidExpiry is returned when the requested expiry time is not
	// strictly in the future.
	ErrInvalidExpiry = errors.New("expiry time must be in the future")
	// ErrAliasTaken is returned when the requested custom alias is
	// already held by an active record. Aliases are never retried.
	ErrAliasTaken = errors.New("custom alias is already taken")
	// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrInvalidShortCode is returned when a short code fails format
	// validation before any storage lookup.
	ErrInvalidShortCode = errors.New("invalid short code")
	// ErrURLExpired is returned when the record exists but its expiry
	// deadline has passed. It is distinct from database.ErrURLNotFound.
	ErrURLExpired = errors.New("url expired")
)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL. The storage layer enforces
	// short code uniqueness among active records, so Create is the
	// atomic check-and-insert the allocator relies on.
	Create(ctx context.Context, params database.CreateURLParams) (*models.URL, error)

	// GetActiveByShortCode retrieves an active URL by its short code,
	// including expired ones.
	GetActiveByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetActiveByOriginalURL retrieves the oldest active URL record for
	// an original URL. Used by the idempotent shorten policy.
	GetActiveByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error)

	// Deactivate soft-deletes the URL with the given short code.
	Deactivate(ctx context.Context, shortCode string) error

	// NextCodeSeq advances and returns the durable code sequence backing
	// the counter-based generation strategy.
	NextCodeSeq(ctx context.Context) (uint64, error)
}

// ClickRecorder accepts click events for asynchronous accounting.
// Record must not block; it reports whether the click was accepted.
type ClickRecorder interface {
	Record(shortCode string) bool
}

// ShortenURLParams carries a validated-to-be shorten request.
type ShortenURLParams struct {
	OriginalURL string
	CustomAlias string
	ExpiresAt   *time.Time
}

// URLService provides methods to manage URL shortening operations.
// The service uses a URLRepository interface to interact with the underlying database
// and a ClickRecorder to account visits without blocking resolution.
type URLService struct {
	repo      URLRepository
	clicks    ClickRecorder
	shortCode config.ShortCode
	nowFunc   func() time.Time
}

// NewURLService creates a new instance of URLService with the provided repository,
// click recorder and short code settings.
func NewURLService(repo URLRepository, clicks ClickRecorder, shortCode config.ShortCode) *URLService {
	return &URLService{
		repo:      repo,
		clicks:    clicks,
		shortCode: shortCode,
		nowFunc:   time.Now,
	}
}

// ShortenURL allocates a short code for the provided original URL and stores it.
//
// With a custom alias the alias is claimed in a single attempt; a conflict is
// reported as ErrAliasTaken and never retried. Without an alias a code is
// generated per the configured strategy, with collision retries bounded by
// MaxAttempts before giving up with ErrMaxRetriesExceeded.
//
// When the idempotent policy is on and no alias is requested, an active record
// with the identical original URL is returned instead of allocating a new code.
func (s *URLService) ShortenURL(ctx context.Context, params ShortenURLParams) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"

	originalURL, err := normalizeURL(params.OriginalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.ExpiresAt != nil && !params.ExpiresAt.After(s.nowFunc()) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidExpiry)
	}

	if params.CustomAlias != "" {
		return s.shortenWithAlias(ctx, originalURL, params)
	}

	if s.shortCode.Idempotent {
		existing, err := s.repo.GetActiveByOriginalURL(ctx, originalURL)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, database.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: failed to check for existing url: %w", op, err)
		}
	}

	for i := 0; i < s.shortCode.MaxAttempts; i++ {
		shortCode, err := s.generateShortCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Create(ctx, database.CreateURLParams{
			ShortCode:   shortCode,
			OriginalURL: originalURL,
			ExpiresAt:   params.ExpiresAt,
		})
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (s *URLService) shortenWithAlias(ctx context.Context, originalURL string, params ShortenURLParams) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"

	if !shortCodeRe.MatchString(params.CustomAlias) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAlias)
	}

	url, err := s.repo.Create(ctx, database.CreateURLParams{
		ShortCode:   params.CustomAlias,
		OriginalURL: originalURL,
		CustomAlias: params.CustomAlias,
		ExpiresAt:   params.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrAliasTaken)
		}

		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	return url, nil
}

func (s *URLService) generateShortCode(ctx context.Context) (string, error) {
	if s.shortCode.Strategy == config.StrategySequence {
		seq, err := s.repo.NextCodeSeq(ctx)
		if err != nil {
			return "", err
		}
		return base62.Pad(base62.Encode(seq), s.shortCode.Length), nil
	}

	return gonanoid.Generate(base62.Alphabet, s.shortCode.Length)
}

// ResolveShortCode retrieves the original URL associated with the provided short code
// and schedules click accounting for the visit. The click is fire-and-forget with
// respect to the caller: it is applied by background workers and never delays or
// fails the resolution.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	if !shortCodeRe.MatchString(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
	}

	url, err := s.repo.GetActiveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if url.Expired(s.nowFunc()) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLExpired)
	}

	s.clicks.Record(shortCode)

	return url, nil
}

// GetURLStats retrieves the click statistics for the URL associated with the
// provided short code. Unlike ResolveShortCode it has no accounting side
// effect and returns expired records as well.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	if !shortCodeRe.MatchString(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
	}

	url, err := s.repo.GetActiveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// DeactivateURL soft-deletes the URL associated with the provided short code.
// Subsequent resolutions of the code behave exactly as if it never existed.
func (s *URLService) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "service.URLService.DeactivateURL"

	if !shortCodeRe.MatchString(shortCode) {
		return fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
	}

	if err := s.repo.Deactivate(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return nil
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength {
		return "", ErrInvalidURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidURL
	}

	return parsed.String(), nil
}
