// Package filestore реализует файловое хранилище: данные живут в памяти,
// каждое изменение сбрасывается на диск в формате JSON-строк.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Popolzen/shortly/internal/model"
)

// URLStore файловое хранилище ссылок
type URLStore struct {
	mu   sync.RWMutex
	urls map[string]model.URL
	path string
}

// NewURLStore создает хранилище и загружает данные из файла.
// Отсутствующий файл не ошибка: начинаем с пустого состояния.
func NewURLStore(path string) *URLStore {
	s := &URLStore{
		urls: map[string]model.URL{},
		path: path,
	}

	if err := loadLines(path, func(line []byte) error {
		var url model.URL
		if err := json.Unmarshal(line, &url); err != nil {
			return err
		}
		s.urls[url.ShortCode] = url
		return nil
	}); err != nil {
		s.urls = map[string]model.URL{}
	}

	return s
}

// PutIfAbsent вставляет запись, если кода ещё нет
func (s *URLStore) PutIfAbsent(_ context.Context, url model.URL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.urls[url.ShortCode]; exists {
		return model.ErrKeyExists
	}
	s.urls[url.ShortCode] = url
	return s.persist()
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
	return s.persist()
}

// Delete удаляет запись
func (s *URLStore) Delete(_ context.Context, shortCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.urls, shortCode)
	return s.persist()
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
	if err := s.persist(); err != nil {
		return model.URL{}, err
	}
	return url, nil
}

func (s *URLStore) Ping(_ context.Context) error { return nil }

func (s *URLStore) Close() error { return nil }

// persist записывает снимок всех записей, вызывается под мьютексом
func (s *URLStore) persist() error {
	records := make([]any, 0, len(s.urls))
	for _, url := range s.urls {
		records = append(records, url)
	}
	return writeLines(s.path, records)
}

// UserStore файловое хранилище пользователей
type UserStore struct {
	mu         sync.RWMutex
	byUsername map[string]model.User
	byID       map[string]string
	path       string
}

// NewUserStore создает хранилище и загружает данные из файла
func NewUserStore(path string) *UserStore {
	s := &UserStore{
		byUsername: map[string]model.User{},
		byID:       map[string]string{},
		path:       path,
	}

	if err := loadLines(path, func(line []byte) error {
		var user model.User
		if err := json.Unmarshal(line, &user); err != nil {
			return err
		}
		s.byUsername[user.Username] = user
		s.byID[user.UserID] = user.Username
		return nil
	}); err != nil {
		s.byUsername = map[string]model.User{}
		s.byID = map[string]string{}
	}

	return s
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

	records := make([]any, 0, len(s.byUsername))
	for _, u := range s.byUsername {
		records = append(records, u)
	}
	return writeLines(s.path, records)
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

// loadLines читает файл построчно и передает каждую строку в fn
func loadLines(path string, fn func(line []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// writeLines атомарно переписывает файл снимком записей
func writeLines(path string, records []any) error {
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("не удалось открыть файл хранилища: %w", err)
	}

	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			file.Close()
			return fmt.Errorf("не удалось сериализовать запись: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
