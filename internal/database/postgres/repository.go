package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shortloop/shortloop/internal/database"
	"github.com/shortloop/shortloop/internal/models"
)

type urlRecord struct {
	ID           int64      `db:"id"`
	ShortCode    string     `db:"short_code"`
	OriginalURL  string     `db:"original_url"`
	CustomAlias  *string    `db:"custom_alias"`
	ClickCount   int64      `db:"click_count"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastAccessed *time.Time `db:"last_accessed"`
	ExpiresAt    *time.Time `db:"expires_at"`
	IsActive     bool       `db:"is_active"`
}

func (r *urlRecord) ToURL() *models.URL {
	url := &models.URL{
		ID:           r.ID,
		ShortCode:    r.ShortCode,
		OriginalURL:  r.OriginalURL,
		ClickCount:   r.ClickCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastAccessed: r.LastAccessed,
		ExpiresAt:    r.ExpiresAt,
		IsActive:     r.IsActive,
	}
	if r.CustomAlias != nil {
		url.CustomAlias = *r.CustomAlias
	}

	return url
}

// URLRepository persists shortened URLs in PostgreSQL. Short code
// uniqueness among active records is guaranteed by a partial unique
// index, so Create is an atomic check-and-insert.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

func (r *URLRepository) Create(ctx context.Context, params database.CreateURLParams) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url, custom_alias, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, params.ShortCode, params.OriginalURL, params.CustomAlias, params.ExpiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetActiveByShortCode returns the active record holding the given short
// code or alias. Expired records are still returned; expiry is the
// caller's concern. Soft-deleted records are not visible here.
func (r *URLRepository) GetActiveByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetActiveByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1 AND is_active`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetActiveByOriginalURL returns the oldest active record for the given
// original URL. It backs the idempotent shorten policy.
func (r *URLRepository) GetActiveByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetActiveByOriginalURL"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE original_url = $1 AND is_active
		ORDER BY id
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// RegisterClick applies a single click to the record: the counter is
// incremented in place by the database, so concurrent clicks on the same
// code are never lost to a read-modify-write race.
func (r *URLRepository) RegisterClick(ctx context.Context, shortCode string, accessedAt time.Time) error {
	const op = "database.postgres.URLRepository.RegisterClick"

	query := `UPDATE urls
		SET click_count = click_count + 1,
			last_accessed = $2,
			updated_at = now()
		WHERE short_code = $1 AND is_active`

	res, err := r.db.ExecContext(ctx, query, shortCode, accessedAt)
	if err != nil {
		return fmt.Errorf("%s: failed to register click: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// Deactivate soft-deletes the record. The row is kept, but it no longer
// participates in lookups or the active uniqueness namespace.
func (r *URLRepository) Deactivate(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.Deactivate"

	query := `UPDATE urls
		SET is_active = FALSE,
			updated_at = now()
		WHERE short_code = $1 AND is_active`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate url record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// NextCodeSeq returns the next value of the durable short code sequence
// used by the counter-based generator.
func (r *URLRepository) NextCodeSeq(ctx context.Context) (uint64, error) {
	const op = "database.postgres.URLRepository.NextCodeSeq"

	var seq uint64
	query := `SELECT nextval('short_code_seq')`

	if err := r.db.GetContext(ctx, &seq, query); err != nil {
		return 0, fmt.Errorf("%s: failed to advance short code sequence: %w", op, err)
	}

	return seq, nil
}
