// Package database реализует хранилище поверх PostgreSQL.
// Условная вставка выражается через INSERT ... ON CONFLICT DO NOTHING,
// счётчик переходов инкрементируется на стороне БД одним UPDATE.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Popolzen/shortly/internal/model"
)

// URLStore хранилище ссылок в PostgreSQL
type URLStore struct {
	db *sql.DB
}

// NewURLStore создает хранилище поверх открытого подключения
func NewURLStore(db *sql.DB) *URLStore {
	return &URLStore{db: db}
}

// PutIfAbsent вставляет запись, если кода ещё нет.
// Атомарность гарантирует уникальный индекс по short_code.
func (s *URLStore) PutIfAbsent(ctx context.Context, url model.URL) error {
	query := `
    INSERT INTO urls (short_code, original_url, owner_id, created_at, is_active, total_clicks)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (short_code) DO NOTHING
`

	res, err := s.db.ExecContext(ctx, query,
		url.ShortCode, url.OriginalURL, nullable(url.OwnerID),
		url.CreatedAt, url.IsActive, url.TotalClicks)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrKeyExists
		}
		return fmt.Errorf("ошибка при сохранении URL: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при сохранении URL: %w", err)
	}
	if rows == 0 {
		return model.ErrKeyExists
	}
	return nil
}

// Get возвращает запись по короткому коду
func (s *URLStore) Get(ctx context.Context, shortCode string) (model.URL, error) {
	query := `
    SELECT short_code, original_url, owner_id, created_at, is_active, total_clicks
    FROM urls WHERE short_code = $1
`
	return s.scanOne(s.db.QueryRowContext(ctx, query, shortCode))
}

// Put перезаписывает изменяемые поля записи
func (s *URLStore) Put(ctx context.Context, url model.URL) error {
	query := `
    INSERT INTO urls (short_code, original_url, owner_id, created_at, is_active, total_clicks)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (short_code)
    DO UPDATE SET
        original_url = EXCLUDED.original_url,
        is_active = EXCLUDED.is_active
`

	_, err := s.db.ExecContext(ctx, query,
		url.ShortCode, url.OriginalURL, nullable(url.OwnerID),
		url.CreatedAt, url.IsActive, url.TotalClicks)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении URL: %w", err)
	}
	return nil
}

// Delete удаляет запись
func (s *URLStore) Delete(ctx context.Context, shortCode string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM urls WHERE short_code = $1`, shortCode)
	if err != nil {
		return fmt.Errorf("ошибка при удалении URL: %w", err)
	}
	return nil
}

// ScanByOwner возвращает ссылки владельца, новые первыми
func (s *URLStore) ScanByOwner(ctx context.Context, ownerID string) ([]model.URL, error) {
	query := `
    SELECT short_code, original_url, owner_id, created_at, is_active, total_clicks
    FROM urls WHERE owner_id = $1
    ORDER BY created_at DESC
`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выборке URL владельца: %w", err)
	}
	defer rows.Close()

	var result []model.URL
	for rows.Next() {
		var url model.URL
		var owner sql.NullString
		if err := rows.Scan(&url.ShortCode, &url.OriginalURL, &owner,
			&url.CreatedAt, &url.IsActive, &url.TotalClicks); err != nil {
			return nil, fmt.Errorf("ошибка при чтении строки: %w", err)
		}
		url.OwnerID = owner.String
		result = append(result, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при выборке URL владельца: %w", err)
	}
	return result, nil
}

// IncrementClicks увеличивает счётчик одним атомарным UPDATE
func (s *URLStore) IncrementClicks(ctx context.Context, shortCode string) (model.URL, error) {
	query := `
    UPDATE urls SET total_clicks = total_clicks + 1
    WHERE short_code = $1
    RETURNING short_code, original_url, owner_id, created_at, is_active, total_clicks
`
	return s.scanOne(s.db.QueryRowContext(ctx, query, shortCode))
}

// Ping проверяет подключение к базе
func (s *URLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает подключение к базе.
// Подключение общее с UserStore, закрывается один раз здесь.
func (s *URLStore) Close() error {
	return s.db.Close()
}

func (s *URLStore) scanOne(row *sql.Row) (model.URL, error) {
	var url model.URL
	var owner sql.NullString

	err := row.Scan(&url.ShortCode, &url.OriginalURL, &owner,
		&url.CreatedAt, &url.IsActive, &url.TotalClicks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.URL{}, model.ErrNotFound
		}
		return model.URL{}, fmt.Errorf("ошибка при получении URL: %w", err)
	}
	url.OwnerID = owner.String
	return url, nil
}

// UserStore хранилище пользователей в PostgreSQL
type UserStore struct {
	db *sql.DB
}

// NewUserStore создает хранилище поверх открытого подключения
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// PutIfAbsent сохраняет пользователя; уникальность имени
// гарантирует индекс по username
func (s *UserStore) PutIfAbsent(ctx context.Context, user model.User) error {
	query := `
    INSERT INTO users (user_id, username, email, password_digest, role, created_at, is_active)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (username) DO NOTHING
`

	res, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.Email, user.PasswordDigest,
		user.Role, user.CreatedAt, user.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrKeyExists
		}
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}
	if rows == 0 {
		return model.ErrKeyExists
	}
	return nil
}

// GetByUsername возвращает пользователя по имени
func (s *UserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	query := `
    SELECT user_id, username, email, password_digest, role, created_at, is_active
    FROM users WHERE username = $1
`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

// GetByID возвращает пользователя по идентификатору
func (s *UserStore) GetByID(ctx context.Context, userID string) (model.User, error) {
	query := `
    SELECT user_id, username, email, password_digest, role, created_at, is_active
    FROM users WHERE user_id = $1
`
	return s.scanOne(s.db.QueryRowContext(ctx, query, userID))
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close ничего не делает: подключением владеет URLStore
func (s *UserStore) Close() error { return nil }

func (s *UserStore) scanOne(row *sql.Row) (model.User, error) {
	var user model.User
	err := row.Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordDigest,
		&user.Role, &user.CreatedAt, &user.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}
	return user, nil
}

// isUniqueViolation распознает нарушение уникального индекса
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// nullable превращает пустую строку владельца в NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
