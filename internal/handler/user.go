package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Popolzen/shortly/internal/audit"
	"github.com/Popolzen/shortly/internal/config"
	"github.com/Popolzen/shortly/internal/logger"
	"github.com/Popolzen/shortly/internal/middleware/auth"
	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/service/shortener"
)

// GetUserURLsHandler возвращает все ссылки владельца токена
func GetUserURLsHandler(urls *shortener.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetString(auth.ContextUserID)

		list, err := urls.ListForOwner(c.Request.Context(), ownerID)
		if errors.Is(err, model.ErrEmptyOwner) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "требуется аутентификация"})
			return
		}
		if err != nil {
			logger.Errorw("ошибка выборки ссылок владельца", "owner_id", ownerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		response := make([]model.URLResponse, 0, len(list))
		for _, u := range list {
			response = append(response, model.URLResponse{
				ShortCode:   u.ShortCode,
				OriginalURL: u.OriginalURL,
				ShortURL:    cfg.GetBaseURL() + "/" + u.ShortCode,
				CreatedAt:   u.CreatedAt,
				IsActive:    u.IsActive,
				TotalClicks: u.TotalClicks,
			})
		}
		c.JSON(http.StatusOK, response)
	}
}

// GetUserURLHandler возвращает одну запись владельца со счётчиком переходов.
// Чужая и несуществующая ссылки отвечают одинаково 404.
func GetUserURLHandler(urls *shortener.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("code")
		ownerID := c.GetString(auth.ContextUserID)

		u, err := urls.GetOwned(c.Request.Context(), shortCode, ownerID)
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ссылка не найдена"})
			return
		}
		if err != nil {
			logger.Errorw("ошибка получения ссылки владельца", "short_code", shortCode, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.JSON(http.StatusOK, model.URLResponse{
			ShortCode:   u.ShortCode,
			OriginalURL: u.OriginalURL,
			ShortURL:    cfg.GetBaseURL() + "/" + u.ShortCode,
			CreatedAt:   u.CreatedAt,
			IsActive:    u.IsActive,
			TotalClicks: u.TotalClicks,
		})
	}
}

// UpdateURLHandler меняет оригинальную ссылку записи владельца.
// Чужая и несуществующая ссылки отвечают одинаково 404.
func UpdateURLHandler(urls *shortener.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("code")
		ownerID := c.GetString(auth.ContextUserID)

		var req model.ShortenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неправильное тело запроса"})
			return
		}

		updated, err := urls.Update(c.Request.Context(), shortCode, req.URL, ownerID)
		switch {
		case errors.Is(err, model.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный URL"})
			return
		case errors.Is(err, model.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ссылка не найдена"})
			return
		case err != nil:
			logger.Errorw("ошибка обновления ссылки", "short_code", shortCode, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.JSON(http.StatusOK, model.URLResponse{
			ShortCode:   updated.ShortCode,
			OriginalURL: updated.OriginalURL,
			ShortURL:    cfg.GetBaseURL() + "/" + updated.ShortCode,
			CreatedAt:   updated.CreatedAt,
			IsActive:    updated.IsActive,
			TotalClicks: updated.TotalClicks,
		})
	}
}

// DeleteURLHandler удаляет запись владельца
func DeleteURLHandler(urls *shortener.Service, pub *audit.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("code")
		ownerID := c.GetString(auth.ContextUserID)

		deleted, err := urls.Delete(c.Request.Context(), shortCode, ownerID)
		if err != nil {
			logger.Errorw("ошибка удаления ссылки", "short_code", shortCode, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "ссылка не найдена"})
			return
		}

		pub.Publish(audit.NewEvent(audit.ActionDelete, ownerID, shortCode, ""))
		c.Status(http.StatusNoContent)
	}
}
