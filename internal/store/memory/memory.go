// Package memory реализует хранилище в памяти процесса.
// Используется по умолчанию и в тестах.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Popolzen/shortly/internal/model"
)

// URLStore in-memory хранилище ссылок
type URLStore struct {
	mu   sync.RWMutex
	urls map[string]model.URL
}

// NewURLStore создает пустое хранилище ссылок
func NewURLStore() *URLStore {
	return &URLStore{
		urls: map[string]model.URL{},
	}
}

// PutIfAbsent вставляет запись, если кода ещё нет.
// Проверка и вставка выполняются под одним мьютексом.
func (s *URLStore) PutIfAbsent(_ context.Context, url model.URL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.urls[url.ShortCode]; exists {
		return model.ErrKeyExists
	}
	s.urls[url.ShortCode] = url
	return nil
}

// Get возвращает запись по короткому коду
func (s *URLStore) Get(_ context.Context, shortCode string) (model.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	url, exists := s.urls[shortCode]
	if !exists {
		return model.URL{}, model.ErrNotFound
	}
	return url, nil
}

// Put перезаписывает запись
func (s *URLStore) Put(_ context.Context, url model.URL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls[url.ShortCode] = url
	return nil
}

// Delete удаляет запись
func (s *URLStore) Delete(_ context.Context, shortCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.urls, shortCode)
	return nil
}

// ScanByOwner возвращает ссылки владельца, новые первыми
func (s *URLStore) ScanByOwner(_ context.Context, ownerID string) ([]model.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.URL
	for _, url := range s.urls {
		if url.OwnerID == ownerID {
			result = append(result, url)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// IncrementClicks увеличивает счётчик переходов под мьютексом
func (s *URLStore) IncrementClicks(_ context.Context, shortCode string) (model.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url, exists := s.urls[shortCode]
	if !exists {
		return model.URL{}, model.ErrNotFound
	}
	url.TotalClicks++
	s.urls[shortCode] = url
	return url, nil
}

func (s *URLStore) Ping(_ context.Context) error { return nil }

func (s *URLStore) Close() error { return nil }

// UserStore in-memory хранилище пользователей
type UserStore struct {
	mu         sync.RWMutex
	byUsername map[string]model.User
	byID       map[string]string // user_id -> username
}

// NewUserStore создает пустое хранилище пользователей
func NewUserStore() *UserStore {
	return &UserStore{
		byUsername: map[string]model.User{},
		byID:       map[string]string{},
	}
}

// PutIfAbsent сохраняет пользователя, если имя свободно
func (s *UserStore) PutIfAbsent(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[user.Username]; exists {
		return model.ErrKeyExists
	}
	s.byUsername[user.Username] = user
	s.byID[user.UserID] = user.Username
	return nil
}

// GetByUsername возвращает пользователя по имени
func (s *UserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.byUsername[username]
	if !exists {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

// GetByID возвращает пользователя по идентификатору
func (s *UserStore) GetByID(_ context.Context, userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, exists := s.byID[userID]
	if !exists {
		return model.User{}, model.ErrNotFound
	}
	return s.byUsername[username], nil
}

func (s *UserStore) Ping(_ context.Context) error { return nil }

func (s *UserStore) Close() error { return nil }
