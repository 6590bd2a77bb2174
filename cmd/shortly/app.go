package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/Popolzen/shortly/internal/audit"
	"github.com/Popolzen/shortly/internal/store"
)

// App связывает сервер с ресурсами, которые надо закрыть на выходе
type App struct {
	server    *http.Server
	urls      store.URLStore
	users     store.UserStore
	publisher *audit.Publisher
}

// Close закрывает все ресурсы
func (a *App) Close() error {
	log.Println("Закрываем хранилища...")
	if err := a.urls.Close(); err != nil {
		log.Printf("Ошибка закрытия хранилища ссылок: %v", err)
	}
	if err := a.users.Close(); err != nil {
		log.Printf("Ошибка закрытия хранилища пользователей: %v", err)
	}

	log.Println("Закрываем audit publisher...")
	if err := a.publisher.Close(); err != nil {
		log.Printf("Ошибка закрытия publisher: %v", err)
	}

	return nil
}

// Shutdown выполняет graceful shutdown с таймаутом
func (a *App) Shutdown(ctx context.Context) error {
	log.Println("Останавливаем HTTP сервер...")
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	return a.Close()
}
