// Package shortener содержит бизнес-логику работы со ссылками.
// Все проверки владения выполняются здесь, хранилище о них не знает.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/service/allocator"
	"github.com/Popolzen/shortly/internal/store"
)

// Service сервис сокращения ссылок
type Service struct {
	urls  store.URLStore
	alloc *allocator.Allocator
}

// NewService создает сервис поверх хранилища и аллокатора
func NewService(urls store.URLStore, alloc *allocator.Allocator) *Service {
	return &Service{
		urls:  urls,
		alloc: alloc,
	}
}

// Create валидирует ссылку и создает для нее запись с новым кодом.
// ownerID может быть пустым: такая ссылка анонимна и никем не управляется.
func (s *Service) Create(ctx context.Context, originalURL, ownerID string) (model.URL, error) {
	trimmed, err := validateURL(originalURL)
	if err != nil {
		return model.URL{}, err
	}

	created, err := s.alloc.Allocate(ctx, model.URL{
		OriginalURL: trimmed,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
		TotalClicks: 0,
	})
	if err != nil {
		return model.URL{}, err
	}
	return created, nil
}

// Resolve возвращает запись по коду без побочных эффектов.
// Деактивированные ссылки неотличимы от отсутствующих.
func (s *Service) Resolve(ctx context.Context, shortCode string) (model.URL, error) {
	u, err := s.urls.Get(ctx, shortCode)
	if err != nil {
		return model.URL{}, err
	}
	if !u.IsActive {
		return model.URL{}, model.ErrNotFound
	}
	return u, nil
}

// RecordVisit увеличивает счётчик переходов ровно на 1
func (s *Service) RecordVisit(ctx context.Context, shortCode string) (model.URL, error) {
	return s.urls.IncrementClicks(ctx, shortCode)
}

// ListForOwner возвращает все ссылки владельца, новые первыми
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]model.URL, error) {
	if ownerID == "" {
		return nil, model.ErrEmptyOwner
	}
	urls, err := s.urls.ScanByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить ссылки владельца: %w", err)
	}
	return urls, nil
}

// GetOwned возвращает запись, только если она принадлежит ownerID.
// Чужая и несуществующая ссылки дают один и тот же ответ,
// чтобы не раскрывать факт существования кода.
func (s *Service) GetOwned(ctx context.Context, shortCode, ownerID string) (model.URL, error) {
	u, err := s.urls.Get(ctx, shortCode)
	if err != nil {
		return model.URL{}, err
	}
	if ownerID == "" || u.OwnerID != ownerID {
		return model.URL{}, model.ErrNotFound
	}
	return u, nil
}

// Update меняет оригинальную ссылку записи владельца
func (s *Service) Update(ctx context.Context, shortCode, newURL, ownerID string) (model.URL, error) {
	trimmed, err := validateURL(newURL)
	if err != nil {
		return model.URL{}, err
	}

	u, err := s.GetOwned(ctx, shortCode, ownerID)
	if err != nil {
		return model.URL{}, err
	}

	u.OriginalURL = trimmed
	if err := s.urls.Put(ctx, u); err != nil {
		return model.URL{}, fmt.Errorf("не удалось обновить URL: %w", err)
	}
	return u, nil
}

// Delete удаляет запись владельца.
// Возвращает false без ошибки, если запись не найдена или чужая.
func (s *Service) Delete(ctx context.Context, shortCode, ownerID string) (bool, error) {
	if _, err := s.GetOwned(ctx, shortCode, ownerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.urls.Delete(ctx, shortCode); err != nil {
		return false, fmt.Errorf("не удалось удалить URL: %w", err)
	}
	return true, nil
}

// validateURL принимает только абсолютные ссылки со схемой и хостом
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.ErrInvalidURL
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", model.ErrInvalidURL
	}
	return raw, nil
}
