// Package redisstore реализует хранилище поверх Redis.
// Условная вставка выражается через SET NX, счётчик переходов
// живёт в отдельном ключе и инкрементируется командой INCR.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Popolzen/shortly/internal/model"
)

// URLStore хранилище ссылок в Redis
type URLStore struct {
	client *redis.Client
}

// NewURLStore создает хранилище поверх готового клиента
func NewURLStore(client *redis.Client) *URLStore {
	return &URLStore{client: client}
}

func urlKey(shortCode string) string    { return "url:" + shortCode }
func clicksKey(shortCode string) string { return "clicks:" + shortCode }
func ownerKey(ownerID string) string    { return "owner:" + ownerID }

// PutIfAbsent вставляет запись через SET NX
func (s *URLStore) PutIfAbsent(ctx context.Context, url model.URL) error {
	clicks := url.TotalClicks
	url.TotalClicks = 0 // счётчик живёт в отдельном ключе

	data, err := json.Marshal(url)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать URL: %w", err)
	}

	ok, err := s.client.SetNX(ctx, urlKey(url.ShortCode), data, 0).Result()
	if err != nil {
		return fmt.Errorf("ошибка при сохранении URL: %w", err)
	}
	if !ok {
		return model.ErrKeyExists
	}

	if clicks > 0 {
		if err := s.client.Set(ctx, clicksKey(url.ShortCode), clicks, 0).Err(); err != nil {
			return fmt.Errorf("ошибка при сохранении счётчика: %w", err)
		}
	}
	if url.OwnerID != "" {
		if err := s.client.SAdd(ctx, ownerKey(url.OwnerID), url.ShortCode).Err(); err != nil {
			return fmt.Errorf("ошибка при обновлении индекса владельца: %w", err)
		}
	}
	return nil
}

// Get возвращает запись по короткому коду
func (s *URLStore) Get(ctx context.Context, shortCode string) (model.URL, error) {
	data, err := s.client.Get(ctx, urlKey(shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.URL{}, model.ErrNotFound
		}
		return model.URL{}, fmt.Errorf("ошибка при получении URL: %w", err)
	}

	var url model.URL
	if err := json.Unmarshal(data, &url); err != nil {
		return model.URL{}, fmt.Errorf("не удалось разобрать запись: %w", err)
	}

	clicks, err := s.client.Get(ctx, clicksKey(shortCode)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.URL{}, fmt.Errorf("ошибка при получении счётчика: %w", err)
	}
	url.TotalClicks = clicks
	return url, nil
}

// Put перезаписывает запись, счётчик не трогает
func (s *URLStore) Put(ctx context.Context, url model.URL) error {
	url.TotalClicks = 0

	data, err := json.Marshal(url)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать URL: %w", err)
	}
	if err := s.client.Set(ctx, urlKey(url.ShortCode), data, 0).Err(); err != nil {
		return fmt.Errorf("ошибка при обновлении URL: %w", err)
	}
	return nil
}

// Delete удаляет запись, счётчик и ссылку из индекса владельца
func (s *URLStore) Delete(ctx context.Context, shortCode string) error {
	url, err := s.Get(ctx, shortCode)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, urlKey(shortCode), clicksKey(shortCode))
	if url.OwnerID != "" {
		pipe.SRem(ctx, ownerKey(url.OwnerID), shortCode)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка при удалении URL: %w", err)
	}
	return nil
}

// ScanByOwner собирает ссылки владельца по индексу, новые первыми
func (s *URLStore) ScanByOwner(ctx context.Context, ownerID string) ([]model.URL, error) {
	codes, err := s.client.SMembers(ctx, ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении индекса владельца: %w", err)
	}

	var result []model.URL
	for _, code := range codes {
		url, err := s.Get(ctx, code)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue // индекс мог пережить запись
			}
			return nil, err
		}
		result = append(result, url)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// IncrementClicks увеличивает счётчик командой INCR
func (s *URLStore) IncrementClicks(ctx context.Context, shortCode string) (model.URL, error) {
	url, err := s.Get(ctx, shortCode)
	if err != nil {
		return model.URL{}, err
	}

	clicks, err := s.client.Incr(ctx, clicksKey(shortCode)).Result()
	if err != nil {
		return model.URL{}, fmt.Errorf("ошибка при инкременте счётчика: %w", err)
	}
	url.TotalClicks = clicks
	return url, nil
}

// Ping проверяет подключение к Redis
func (s *URLStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент.
// Клиент общий с UserStore, закрывается один раз здесь.
func (s *URLStore) Close() error {
	return s.client.Close()
}

// UserStore хранилище пользователей в Redis
type UserStore struct {
	client *redis.Client
}

// NewUserStore создает хранилище поверх готового клиента
func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client}
}

func userNameKey(username string) string { return "user:name:" + username }
func userIDKey(userID string) string     { return "user:id:" + userID }

// PutIfAbsent сохраняет пользователя через SET NX по имени
func (s *UserStore) PutIfAbsent(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать пользователя: %w", err)
	}

	ok, err := s.client.SetNX(ctx, userNameKey(user.Username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}
	if !ok {
		return model.ErrKeyExists
	}

	if err := s.client.Set(ctx, userIDKey(user.UserID), user.Username, 0).Err(); err != nil {
		return fmt.Errorf("ошибка при сохранении индекса пользователя: %w", err)
	}
	return nil
}

// GetByUsername возвращает пользователя по имени
func (s *UserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	data, err := s.client.Get(ctx, userNameKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, fmt.Errorf("не удалось разобрать запись: %w", err)
	}
	return user, nil
}

// GetByID возвращает пользователя по идентификатору
func (s *UserStore) GetByID(ctx context.Context, userID string) (model.User, error) {
	username, err := s.client.Get(ctx, userIDKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}
	return s.GetByUsername(ctx, username)
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close ничего не делает: клиентом владеет URLStore
func (s *UserStore) Close() error { return nil }
