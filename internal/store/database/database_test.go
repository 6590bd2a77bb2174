package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Popolzen/shortly/internal/model"
)

// === Setup ===

// setupTestDB поднимает PostgreSQL в Docker и возвращает подключение.
// Контейнер автоматически остановится после теста.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			// "database system is ready" появляется дважды в логах postgres
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	createSchema(t, db)

	return db
}

// createSchema создаёт таблицы как в миграции
func createSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS urls (
			short_code VARCHAR(20) PRIMARY KEY,
			original_url TEXT NOT NULL,
			owner_id TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			total_clicks BIGINT NOT NULL DEFAULT 0,

			CONSTRAINT chk_urls_code_length CHECK (length(short_code) >= 4),
			CONSTRAINT chk_urls_clicks_nonneg CHECK (total_clicks >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_urls_owner_created
			ON urls(owner_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS users (
			user_id UUID PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			password_digest TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'User',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	require.NoError(t, err)
}

func testURL(code, owner string) model.URL {
	return model.URL{
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		OwnerID:     owner,
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}
}

// === URLStore ===

func TestURLStore_PutIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	err := s.PutIfAbsent(ctx, testURL("abc1234", "alice"))
	require.NoError(t, err)

	// Повторная вставка того же кода сообщает о занятости
	err = s.PutIfAbsent(ctx, testURL("abc1234", "bob"))
	assert.ErrorIs(t, err, model.ErrKeyExists)

	// Первая запись не перезаписана
	got, err := s.Get(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestURLStore_AnonymousOwnerStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	require.NoError(t, s.PutIfAbsent(ctx, testURL("anon123", "")))

	var owner sql.NullString
	err := db.QueryRow("SELECT owner_id FROM urls WHERE short_code = $1", "anon123").Scan(&owner)
	require.NoError(t, err)
	assert.False(t, owner.Valid)

	got, err := s.Get(ctx, "anon123")
	require.NoError(t, err)
	assert.Empty(t, got.OwnerID)
}

func TestURLStore_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)

	_, err := s.Get(context.Background(), "missing0")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestURLStore_PutUpdates(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	u := testURL("abc1234", "alice")
	require.NoError(t, s.PutIfAbsent(ctx, u))

	u.OriginalURL = "https://example.org/updated"
	u.IsActive = false
	require.NoError(t, s.Put(ctx, u))

	var gotURL string
	var gotActive bool
	err := db.QueryRow("SELECT original_url, is_active FROM urls WHERE short_code = $1", "abc1234").
		Scan(&gotURL, &gotActive)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/updated", gotURL)
	assert.False(t, gotActive)
}

func TestURLStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	require.NoError(t, s.PutIfAbsent(ctx, testURL("abc1234", "alice")))
	require.NoError(t, s.Delete(ctx, "abc1234"))

	_, err := s.Get(ctx, "abc1234")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Повторное удаление не ошибка
	assert.NoError(t, s.Delete(ctx, "abc1234"))
}

func TestURLStore_ScanByOwner(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	require.NoError(t, s.PutIfAbsent(ctx, testURL("old1111", "alice")))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.PutIfAbsent(ctx, testURL("new1111", "alice")))
	require.NoError(t, s.PutIfAbsent(ctx, testURL("bob1111", "bob")))

	urls, err := s.ScanByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, urls, 2)
	// ORDER BY created_at DESC — новые первые
	assert.Equal(t, "new1111", urls[0].ShortCode)
	assert.Equal(t, "old1111", urls[1].ShortCode)

	empty, err := s.ScanByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestURLStore_IncrementClicks(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	require.NoError(t, s.PutIfAbsent(ctx, testURL("abc1234", "alice")))

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementClicks(ctx, "abc1234")
		require.NoError(t, err)
		assert.Equal(t, want, got.TotalClicks)
	}

	_, err := s.IncrementClicks(ctx, "missing0")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestURLStore_SpecialCharactersInURL(t *testing.T) {
	db := setupTestDB(t)
	s := NewURLStore(db)
	ctx := context.Background()

	specialURL := "https://example.com/path?q=hello%20world&foo=bar#section"
	u := testURL("spec123", "")
	u.OriginalURL = specialURL
	require.NoError(t, s.PutIfAbsent(ctx, u))

	got, err := s.Get(ctx, "spec123")
	require.NoError(t, err)
	assert.Equal(t, specialURL, got.OriginalURL)
}

// === UserStore ===

func TestUserStore_PutIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	user := model.User{
		UserID:         "550e8400-e29b-41d4-a716-446655440000",
		Username:       "alice",
		PasswordDigest: "digest",
		Role:           "User",
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}
	require.NoError(t, s.PutIfAbsent(ctx, user))

	// Имя занято, даже с другим идентификатором
	dup := user
	dup.UserID = "550e8400-e29b-41d4-a716-446655440001"
	err := s.PutIfAbsent(ctx, dup)
	assert.ErrorIs(t, err, model.ErrKeyExists)
}

func TestUserStore_Get(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	user := model.User{
		UserID:         "550e8400-e29b-41d4-a716-446655440000",
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordDigest: "digest",
		Role:           "User",
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}
	require.NoError(t, s.PutIfAbsent(ctx, user))

	byName, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, byName.UserID)
	assert.Equal(t, "alice@example.com", byName.Email)

	byID, err := s.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = s.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
