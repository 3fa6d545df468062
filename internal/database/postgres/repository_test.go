package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shortloop/shortloop/internal/database"
	"github.com/shortloop/shortloop/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var columns = []string{
	"id", "short_code", "original_url", "custom_alias", "click_count",
	"created_at", "updated_at", "last_accessed", "expires_at", "is_active",
}

func setupURLRepository(t testing.TB) (*URLRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewURLRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestURLRepository_Create(t *testing.T) {
	params := database.CreateURLParams{
		ShortCode:   "code1",
		OriginalURL: "https://example.com",
	}

	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", "", nil).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := repo.Create(context.TODO(), params)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortCodeExists)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", "", nil).
			WillReturnError(errUnknown)

		url, err := repo.Create(context.TODO(), params)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", nil, 0, time.Time{}, time.Time{}, nil, nil, true)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", "", nil).
			WillReturnRows(rows)

		wantURL := models.URL{
			ID:          1,
			ShortCode:   "code1",
			OriginalURL: "https://example.com",
			IsActive:    true,
		}

		url, err := repo.Create(context.TODO(), params)

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, wantURL, *url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with alias and expiry", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		alias := "my-link"
		expiresAt := time.Now().Add(time.Hour).UTC()

		rows := sqlmock.NewRows(columns).
			AddRow(2, "my-link", "https://example.com", alias, 0, time.Time{}, time.Time{}, nil, expiresAt, true)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("my-link", "https://example.com", "my-link", &expiresAt).
			WillReturnRows(rows)

		url, err := repo.Create(context.TODO(), database.CreateURLParams{
			ShortCode:   "my-link",
			OriginalURL: "https://example.com",
			CustomAlias: "my-link",
			ExpiresAt:   &expiresAt,
		})

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "my-link", url.CustomAlias)
		assert.NotNil(t, url.ExpiresAt)
		assert.Equal(t, expiresAt, *url.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_GetActiveByShortCode(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code2").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.GetActiveByShortCode(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		url, err := repo.GetActiveByShortCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", nil, 7, time.Time{}, time.Time{}, nil, nil, true)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code1").
			WillReturnRows(rows)

		url, err := repo.GetActiveByShortCode(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(7), url.ClickCount)
		assert.True(t, url.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_GetActiveByOriginalURL(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("https://example.com").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.GetActiveByOriginalURL(context.TODO(), "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", nil, 0, time.Time{}, time.Time{}, nil, nil, true)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("https://example.com").
			WillReturnRows(rows)

		url, err := repo.GetActiveByOriginalURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "code1", url.ShortCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_RegisterClick(t *testing.T) {
	accessedAt := time.Now().UTC()

	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code2", accessedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RegisterClick(context.TODO(), "code2", accessedAt)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("affected rows error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code1", accessedAt).
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.RegisterClick(context.TODO(), "code1", accessedAt)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code1", accessedAt).
			WillReturnError(errUnknown)

		err := repo.RegisterClick(context.TODO(), "code1", accessedAt)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code1", accessedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.RegisterClick(context.TODO(), "code1", accessedAt)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_Deactivate(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Deactivate(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("affected rows error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.Deactivate(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`UPDATE urls`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Deactivate(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_NextCodeSeq(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT nextval`).
			WillReturnError(errUnknown)

		seq, err := repo.NextCodeSeq(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows([]string{"nextval"}).AddRow(42)

		mock.ExpectQuery(`SELECT nextval`).
			WillReturnRows(rows)

		seq, err := repo.NextCodeSeq(context.TODO())

		assert.NoError(t, err)
		assert.Equal(t, uint64(42), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
