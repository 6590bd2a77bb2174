package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Popolzen/shortly/internal/logger"
	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/service/identity"
)

// RegisterHandler создает учетную запись
func RegisterHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неправильное тело запроса"})
			return
		}

		userID, err := ids.Register(c.Request.Context(), req.Username, req.Password, req.Email)
		switch {
		case errors.Is(err, model.ErrEmptyUsername),
			errors.Is(err, model.ErrWeakPassword),
			errors.Is(err, model.ErrDuplicateUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case err != nil:
			logger.Errorw("ошибка регистрации", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.JSON(http.StatusCreated, model.RegisterResponse{UserID: userID})
	}
}

// LoginHandler проверяет учетные данные и выдает токен
func LoginHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "неправильное тело запроса"})
			return
		}

		user, err := ids.Authenticate(c.Request.Context(), req.Username, req.Password)
		if errors.Is(err, model.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверное имя пользователя или пароль"})
			return
		}
		if err != nil {
			logger.Errorw("ошибка аутентификации", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		token, expiresAt, err := ids.IssueToken(user.UserID, user.Username, []string{user.Role})
		if err != nil {
			logger.Errorw("ошибка выпуска токена", "user_id", user.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.JSON(http.StatusOK, model.LoginResponse{
			Token:     token,
			Username:  user.Username,
			ExpiresAt: expiresAt,
		})
	}
}
