package model

import (
	"errors"
	"time"
)

// ContextKey тип для ключей контекста
type ContextKey string

// URL представляет сокращённую ссылку
type URL struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
	TotalClicks int64     `json:"total_clicks"`
}

// User представляет учетную запись пользователя
type User struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	PasswordDigest string    `json:"password_digest"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	IsActive       bool      `json:"is_active"`
}

// ShortenRequest тело запроса на сокращение ссылки
type ShortenRequest struct {
	URL string `json:"url"`
}

// ShortenResponse ответ на создание короткой ссылки
type ShortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

// URLResponse полная запись о ссылке для владельца
type URLResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	ShortURL    string    `json:"short_url"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
	TotalClicks int64     `json:"total_clicks"`
}

// RegisterRequest тело запроса регистрации
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterResponse ответ на регистрацию
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// LoginRequest тело запроса входа
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse ответ на вход
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Ошибки валидации
var (
	ErrInvalidURL    = errors.New("invalid URL format")
	ErrEmptyOwner    = errors.New("owner id cannot be empty")
	ErrEmptyUsername = errors.New("username cannot be empty")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
)

// Ошибки хранилища и аллокации
var (
	// ErrKeyExists возвращается условной вставкой, если ключ уже занят
	ErrKeyExists = errors.New("key already exists")
	// ErrNotFound охватывает и "нет записи", и "запись чужая"
	ErrNotFound            = errors.New("URL not found")
	ErrAllocationExhausted = errors.New("could not allocate a unique short code")
)

// Ошибки аутентификации
var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("token is invalid")
)
