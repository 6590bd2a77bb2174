// Package identity отвечает за регистрацию, проверку учетных данных
// и выпуск JWT токенов.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/store"
)

const (
	minPasswordLen = 6
	// DefaultRole роль, назначаемая при регистрации
	DefaultRole = "User"
)

// dummyDigest используется при неизвестном имени пользователя,
// чтобы путь отказа не отличался от проверки реального пароля
var dummyDigest, _ = bcrypt.GenerateFromPassword([]byte("shortly-no-such-user"), bcrypt.DefaultCost)

// Claims полезная нагрузка токена
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// TokenSettings настройки выпуска токенов, загружаются один раз на старте
type TokenSettings struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Service сервис учетных записей
type Service struct {
	users    store.UserStore
	settings TokenSettings
}

// NewService создает сервис поверх хранилища пользователей
func NewService(users store.UserStore, settings TokenSettings) *Service {
	return &Service{
		users:    users,
		settings: settings,
	}
}

// Register создает нового пользователя и возвращает его идентификатор.
// Занятость имени решает условная вставка хранилища, поэтому две
// одновременные регистрации одного имени не могут пройти обе.
func (s *Service) Register(ctx context.Context, username, password, email string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", model.ErrEmptyUsername
	}
	if len(password) < minPasswordLen {
		return "", model.ErrWeakPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	user := model.User{
		UserID:         uuid.New().String(),
		Username:       username,
		Email:          strings.TrimSpace(email),
		PasswordDigest: string(digest),
		Role:           DefaultRole,
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}

	if err := s.users.PutIfAbsent(ctx, user); err != nil {
		if errors.Is(err, model.ErrKeyExists) {
			return "", model.ErrDuplicateUsername
		}
		return "", fmt.Errorf("не удалось сохранить пользователя: %w", err)
	}
	return user.UserID, nil
}

// Authenticate проверяет имя и пароль.
// Неизвестное имя, неактивная запись и неверный пароль дают
// одну и ту же ошибку одинаковой стоимости.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyDigest, []byte(password))
			return model.User{}, model.ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("не удалось получить пользователя: %w", err)
	}

	if !user.IsActive {
		bcrypt.CompareHashAndPassword(dummyDigest, []byte(password))
		return model.User{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken выпускает подписанный токен с ограниченным сроком жизни.
// jti уникален для каждого токена, задел под отзыв в будущем.
func (s *Service) IssueToken(userID, username string, roles []string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.settings.TTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.settings.Issuer,
			Audience:  jwt.ClaimStrings{s.settings.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
		Username: username,
		Roles:    roles,
	})

	signed, err := token.SignedString([]byte(s.settings.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("не удалось подписать токен: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken проверяет подпись, срок жизни, издателя и аудиторию
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.settings.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	if !token.Valid ||
		!claims.VerifyIssuer(s.settings.Issuer, true) ||
		!claims.VerifyAudience(s.settings.Audience, true) {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}
