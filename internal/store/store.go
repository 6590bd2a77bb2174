// Package store описывает контракт key-value хранилища для ссылок
// и пользователей. Единственный примитив конкурентности — условная
// вставка PutIfAbsent, которая обязана быть атомарной на уровне
// конкретной реализации.
package store

import (
	"context"

	"github.com/Popolzen/shortly/internal/model"
)

//go:generate mockgen -source=store.go -destination=mocks/store.go -package=mocks

// URLStore хранилище сокращённых ссылок, ключ — короткий код
type URLStore interface {
	// PutIfAbsent атомарно вставляет запись, если кода ещё нет.
	// Возвращает model.ErrKeyExists, если код занят.
	PutIfAbsent(ctx context.Context, url model.URL) error
	// Get возвращает запись по коду или model.ErrNotFound
	Get(ctx context.Context, shortCode string) (model.URL, error)
	// Put перезаписывает запись (upsert)
	Put(ctx context.Context, url model.URL) error
	// Delete удаляет запись; отсутствие записи не считается ошибкой
	Delete(ctx context.Context, shortCode string) error
	// ScanByOwner возвращает ссылки владельца, новые первыми
	ScanByOwner(ctx context.Context, ownerID string) ([]model.URL, error)
	// IncrementClicks атомарно увеличивает счётчик переходов ровно на 1
	// и возвращает обновлённую запись или model.ErrNotFound
	IncrementClicks(ctx context.Context, shortCode string) (model.URL, error)
	Ping(ctx context.Context) error
	Close() error
}

// UserStore хранилище пользователей, ключ уникальности — username
type UserStore interface {
	// PutIfAbsent атомарно сохраняет пользователя, если имя свободно.
	// Возвращает model.ErrKeyExists при занятом имени.
	PutIfAbsent(ctx context.Context, user model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, userID string) (model.User, error)
	Ping(ctx context.Context) error
	Close() error
}
