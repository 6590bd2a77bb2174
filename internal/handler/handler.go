// Package handler содержит HTTP-обработчики сервиса.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Popolzen/shortly/internal/audit"
	"github.com/Popolzen/shortly/internal/config"
	"github.com/Popolzen/shortly/internal/logger"
	"github.com/Popolzen/shortly/internal/middleware/auth"
	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/service/shortener"
	"github.com/Popolzen/shortly/internal/store"
)

// таймаут отложенной записи перехода, не привязан к контексту запроса
const visitTimeout = 5 * time.Second

// ShortenHandler создает короткую ссылку.
// Владелец берется из токена, если он есть; без токена ссылка анонимна.
func ShortenHandler(urls *shortener.Service, cfg *config.Config, pub *audit.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.ShortenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неправильное тело запроса"})
			return
		}

		ownerID := c.GetString(auth.ContextUserID)
		created, err := urls.Create(c.Request.Context(), req.URL, ownerID)
		switch {
		case errors.Is(err, model.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный URL"})
			return
		case errors.Is(err, model.ErrAllocationExhausted):
			logger.Errorw("не удалось выделить короткий код", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "попробуйте повторить запрос"})
			return
		case err != nil:
			logger.Errorw("ошибка создания ссылки", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		pub.Publish(audit.NewEvent(audit.ActionShorten, ownerID, created.ShortCode, created.OriginalURL))

		c.JSON(http.StatusCreated, model.ShortenResponse{
			ShortCode: created.ShortCode,
			ShortURL:  cfg.GetBaseURL() + "/" + created.ShortCode,
		})
	}
}

// RedirectHandler перенаправляет по короткой ссылке и фиксирует переход.
// В detached-режиме счётчик пишется после ответа: переход быстрее,
// но счётчик может потеряться при падении процесса.
func RedirectHandler(urls *shortener.Service, pub *audit.Publisher, syncVisits bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("code")

		u, err := urls.Resolve(c.Request.Context(), shortCode)
		if errors.Is(err, model.ErrNotFound) {
			c.String(http.StatusNotFound, "Не нашли ссылку")
			return
		}
		if err != nil {
			logger.Errorw("ошибка разрешения ссылки", "short_code", shortCode, "error", err)
			c.String(http.StatusInternalServerError, "внутренняя ошибка")
			return
		}

		recordVisit := func() {
			ctx, cancel := context.WithTimeout(context.Background(), visitTimeout)
			defer cancel()
			if _, err := urls.RecordVisit(ctx, shortCode); err != nil && !errors.Is(err, model.ErrNotFound) {
				logger.Errorw("не удалось записать переход", "short_code", shortCode, "error", err)
			}
		}
		if syncVisits {
			recordVisit()
		} else {
			go recordVisit()
		}

		pub.Publish(audit.NewEvent(audit.ActionFollow, u.OwnerID, shortCode, u.OriginalURL))

		c.Redirect(http.StatusFound, u.OriginalURL)
	}
}

// PingHandler проверяет доступность хранилища
func PingHandler(urls store.URLStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := urls.Ping(c.Request.Context()); err != nil {
			logger.Errorw("хранилище недоступно", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	}
}
